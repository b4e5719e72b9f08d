package session

import (
	"sync"

	"github.com/drstein77/shopsphere/internal/models"
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// State holds the user and theme slices of a session
type State struct {
	User            *models.User
	IsAuthenticated bool
	Theme           Theme
}

type Action interface {
	reduce(State) State
}

type SetUser struct{ User *models.User }

func (a SetUser) reduce(s State) State {
	if a.User == nil {
		return ClearUser{}.reduce(s)
	}
	s.User = a.User
	s.IsAuthenticated = true
	return s
}

type ClearUser struct{}

func (ClearUser) reduce(s State) State {
	s.User = nil
	s.IsAuthenticated = false
	return s
}

type ToggleTheme struct{}

func (ToggleTheme) reduce(s State) State {
	if s.Theme == ThemeDark {
		s.Theme = ThemeLight
	} else {
		s.Theme = ThemeDark
	}
	return s
}

// SetTheme accepts light or dark, anything else is ignored
type SetTheme struct{ Theme Theme }

func (a SetTheme) reduce(s State) State {
	if a.Theme == ThemeLight || a.Theme == ThemeDark {
		s.Theme = a.Theme
	}
	return s
}

// Store is the single mutation entry point for session state.
type Store struct {
	mu    sync.RWMutex
	state State
}

func NewStore() *Store {
	return &Store{state: State{Theme: ThemeLight}}
}

func (s *Store) Dispatch(a Action) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a != nil {
		s.state = a.reduce(s.state)
	}
	return s.state
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}
