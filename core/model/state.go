// Package model provides the shared plumbing every gophet model composes:
// fitted-state tracking, common interfaces, and gob persistence helpers.
package model

import (
	"sync"

	gophetErrors "github.com/gophet/gophet/pkg/errors"
)

// StateManager tracks the fitted state of a model in a thread-safe manner.
// Models hold it by composition rather than embedding so the exported gob
// fields stay under their control.
type StateManager struct {
	Fitted bool // exported for gob encoding
	mu     sync.RWMutex

	// Dimensions observed during fitting, exported for gob encoding.
	NSamples int
	NSeries  int
}

// NewStateManager returns an unfitted StateManager.
func NewStateManager() *StateManager {
	return &StateManager{}
}

// IsFitted reports whether the model has been fitted.
func (s *StateManager) IsFitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Fitted
}

// SetFitted marks the model as fitted.
func (s *StateManager) SetFitted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fitted = true
}

// Reset clears the fitted state and recorded dimensions.
func (s *StateManager) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fitted = false
	s.NSamples = 0
	s.NSeries = 0
}

// SetDimensions records the number of samples and series seen during fitting.
func (s *StateManager) SetDimensions(nSamples, nSeries int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.NSamples = nSamples
	s.NSeries = nSeries
}

// Dimensions returns the number of samples and series seen during fitting.
func (s *StateManager) Dimensions() (nSamples, nSeries int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.NSamples, s.NSeries
}

// RequireFitted returns a NotFittedError naming the model and method when the
// model has not been fitted yet.
func (s *StateManager) RequireFitted(modelName, method string) error {
	if !s.IsFitted() {
		return gophetErrors.NewNotFittedError(modelName, method)
	}
	return nil
}
