// Package store holds the selection state of the running session and
// notifies subscribers whenever it changes.
package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/segmentio/ksuid"

	"roster/pkg/catalog"
	"roster/pkg/schema"
)

var ErrUnknownCharacter = errors.New("unknown character")

// State is the current selection plus the notification counter.
// NotificationID is minted per selection and is empty while no
// notification is showing.
type State struct {
	Character      schema.Character `json:"character"`
	Sequence       int              `json:"sequence"`
	NotificationID string           `json:"notification_id,omitempty"`
}

// NotificationVisible reports whether the snackbar should be shown.
func (s State) NotificationVisible() bool {
	return s.Sequence > 0
}

type subscriber struct {
	id int
	fn func(State)
}

type Store struct {
	catalog *catalog.Catalog

	// mu serializes mutations and their notifications.
	mu sync.Mutex

	stateMu sync.RWMutex
	state   State

	subsMu sync.Mutex
	subs   []subscriber
	nextID int
}

func New(cat *catalog.Catalog) *Store {
	initial, _ := cat.Get(cat.Default())
	return &Store{
		catalog: cat,
		state:   State{Character: initial},
	}
}

func (s *Store) Catalog() *catalog.Catalog {
	return s.catalog
}

func (s *Store) Snapshot() State {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

// Select makes name the current character and bumps the notification
// sequence. Unknown names leave the state untouched.
func (s *Store) Select(name string) (State, error) {
	ch, ok := s.catalog.Get(name)
	if !ok {
		return s.Snapshot(), fmt.Errorf("%w: %q", ErrUnknownCharacter, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.update(func(cur State) State {
		return State{
			Character:      ch,
			Sequence:       cur.Sequence + 1,
			NotificationID: ksuid.New().String(),
		}
	})
	log.Debug("character selected", "name", name, "sequence", next.Sequence)
	s.notify(next)
	return next, nil
}

// MustSelect is Select for callers that only pass catalog names.
func (s *Store) MustSelect(name string) State {
	st, err := s.Select(name)
	if err != nil {
		panic(err)
	}
	return st
}

// Dismiss hides the notification without touching the selection.
func (s *Store) Dismiss() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.update(func(cur State) State {
		return State{Character: cur.Character}
	})
	log.Debug("notification dismissed", "name", next.Character.Name)
	s.notify(next)
	return next
}

// Subscribe registers fn to be called synchronously with every new
// state. fn must not call Select or Dismiss.
func (s *Store) Subscribe(fn func(State)) (cancel func()) {
	s.subsMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	s.subsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subsMu.Lock()
			defer s.subsMu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Subscribers returns the number of registered subscribers.
func (s *Store) Subscribers() int {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	return len(s.subs)
}

func (s *Store) update(fn func(State) State) State {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.state = fn(s.state)
	return s.state
}

func (s *Store) notify(st State) {
	s.subsMu.Lock()
	subs := make([]subscriber, len(s.subs))
	copy(subs, s.subs)
	s.subsMu.Unlock()

	for _, sub := range subs {
		sub.fn(st)
	}
}
