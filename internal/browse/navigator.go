// Package browse wires listings to navigation: which screens open when an
// item is chosen, what a folder's add menu offers, and the batch actions
// run on a selection (shared links, move and copy).
package browse

import (
	"sync"

	"github.com/rescale/box-browse/internal/state"
)

// SelectionBehavior tells the caller what to do with the chosen row.
type SelectionBehavior int

const (
	// Deselect clears the row's selection.
	Deselect SelectionBehavior = iota
	// RemainSelected keeps the row selected, e.g. while a pushed screen
	// shows it.
	RemainSelected
)

func (b SelectionBehavior) String() string {
	if b == RemainSelected {
		return "remainSelected"
	}
	return "deselect"
}

// Screen is anything a Navigator can show.
type Screen any

// ListingScreen shows a listing, optionally searchable, driven by Router.
type ListingScreen struct {
	Listing *state.Listing
	Search  *state.Search
	Router  Router
}

// Navigator is a navigation stack. Push and Present return false when the
// screen could not be shown.
type Navigator interface {
	Push(screen Screen) bool
	Present(screen Screen) bool
}

// Stack is a Navigator that records screens in memory.
type Stack struct {
	mu        sync.Mutex
	screens   []Screen
	presented []Screen
}

// NewStack returns a stack showing root.
func NewStack(root Screen) *Stack {
	s := &Stack{}
	if root != nil {
		s.screens = append(s.screens, root)
	}
	return s
}

// Push implements Navigator.
func (s *Stack) Push(screen Screen) bool {
	if screen == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.screens = append(s.screens, screen)
	return true
}

// Present implements Navigator.
func (s *Stack) Present(screen Screen) bool {
	if screen == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presented = append(s.presented, screen)
	return true
}

// Pop removes the top screen, keeping the root. It returns false if only
// the root is left.
func (s *Stack) Pop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.screens) <= 1 {
		return false
	}
	s.screens = s.screens[:len(s.screens)-1]
	return true
}

// Top returns the screen on top of the stack, or nil.
func (s *Stack) Top() Screen {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.screens) == 0 {
		return nil
	}
	return s.screens[len(s.screens)-1]
}

// Depth returns the number of pushed screens, root included.
func (s *Stack) Depth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.screens)
}

// Presented returns the screens shown modally, oldest first.
func (s *Stack) Presented() []Screen {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Screen(nil), s.presented...)
}
