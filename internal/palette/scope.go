package palette

import (
	"errors"
	"sync"
)

// ErrDuplicateInstance is returned when a scope already holds a palette.
var ErrDuplicateInstance = errors.New("palette: duplicate instance in scope")

// Scope admits one palette at a time, typically one per hotkey surface.
type Scope struct {
	mu    sync.Mutex
	owner *Palette
}

// NewScope returns an empty scope.
func NewScope() *Scope {
	return &Scope{}
}

func (s *Scope) register(p *Palette) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owner != nil {
		return ErrDuplicateInstance
	}
	s.owner = p
	return nil
}

func (s *Scope) release(p *Palette) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owner == p {
		s.owner = nil
	}
}

// Occupied reports whether a palette is registered.
func (s *Scope) Occupied() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.owner != nil
}
