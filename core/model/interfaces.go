package model

// Persistable models round-trip their fitted state through a file.
// *forecast.Forecaster satisfies it.
type Persistable interface {
	Save(path string) error
	Load(path string) error
}
