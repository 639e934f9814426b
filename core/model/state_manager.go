// Package model provides state management and summaries for surrogate models.
package model

import (
	"sync"

	"github.com/YuminosukeSato/smtgo/pkg/errors"
)

// StateManager tracks whether a model is trained and the shapes it was
// trained on. It is safe for concurrent use.
type StateManager struct {
	mu sync.RWMutex

	trained bool
	nx      int
	ny      int
	nt      int
}

// NewStateManager creates a StateManager in the untrained state.
func NewStateManager() *StateManager {
	return &StateManager{}
}

// IsTrained returns whether the model has been trained.
func (s *StateManager) IsTrained() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.trained
}

// SetTrained marks the model as trained.
func (s *StateManager) SetTrained() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trained = true
}

// Reset returns to the untrained state and clears the dimensions.
func (s *StateManager) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trained = false
	s.nx, s.ny, s.nt = 0, 0, 0
}

// SetDimensions records input and output dimensions and the number of
// training points used by the last successful Train.
func (s *StateManager) SetDimensions(nx, ny, nt int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nx, s.ny, s.nt = nx, ny, nt
}

// GetDimensions returns the values recorded by SetDimensions.
func (s *StateManager) GetDimensions() (nx, ny, nt int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nx, s.ny, s.nt
}

// RequireTrained returns a NotTrainedError naming model when untrained.
func (s *StateManager) RequireTrained(model string) error {
	if !s.IsTrained() {
		return errors.NewNotTrainedError(model, "Predict")
	}
	return nil
}

// ModelState is a snapshot of a StateManager.
type ModelState struct {
	Trained bool `json:"trained"`
	NX      int  `json:"nx,omitempty"`
	NY      int  `json:"ny,omitempty"`
	NT      int  `json:"nt,omitempty"`
}

// GetState returns the current state.
func (s *StateManager) GetState() ModelState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ModelState{Trained: s.trained, NX: s.nx, NY: s.ny, NT: s.nt}
}

// SetState replaces the current state.
func (s *StateManager) SetState(state ModelState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trained = state.Trained
	s.nx, s.ny, s.nt = state.NX, state.NY, state.NT
}
