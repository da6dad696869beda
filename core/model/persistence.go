package model

import (
	"encoding/gob"
	"io"
	"os"

	gophetErrors "github.com/gophet/gophet/pkg/errors"
)

// SaveModel gob-encodes a model to a file. The model's exported fields must
// be gob-encodable.
func SaveModel(model interface{}, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return gophetErrors.Wrap(err, "failed to create model file")
	}
	defer file.Close()

	return SaveModelToWriter(model, file)
}

// LoadModel gob-decodes a model from a file into model, which must be a
// pointer to the same concrete type that was saved.
func LoadModel(model interface{}, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return gophetErrors.Wrap(err, "failed to open model file")
	}
	defer file.Close()

	return LoadModelFromReader(model, file)
}

// SaveModelToWriter gob-encodes a model to w.
func SaveModelToWriter(model interface{}, w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(model); err != nil {
		return gophetErrors.Wrap(err, "failed to encode model")
	}
	return nil
}

// LoadModelFromReader gob-decodes a model from r.
func LoadModelFromReader(model interface{}, r io.Reader) error {
	if err := gob.NewDecoder(r).Decode(model); err != nil {
		return gophetErrors.Wrap(err, "failed to decode model")
	}
	return nil
}
