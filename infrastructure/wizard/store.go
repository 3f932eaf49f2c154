package wizard

import (
	"errors"
	"sync"
)

var (
	ErrSessionNotFound  = errors.New("wizard session not found")
	ErrStaleSession     = errors.New("wizard session was reopened")
	ErrWrongStep        = errors.New("action not allowed on this step")
	ErrSubmitInProgress = errors.New("submission already in progress")
	ErrConsistency      = errors.New("consistency check failed")
	ErrNotReady         = errors.New("wizard data is not loaded")
	ErrUnknownUnit      = errors.New("unit has no baseline reading")
	ErrInvalidValue     = errors.New("invalid numeric value")
)

type entry struct {
	id    string
	state State
}

// Store keeps one wizard per console session. Every dispatch names the wizard
// session id it was started for; results for an older id are dropped.
type Store struct {
	mu      sync.Mutex
	entries map[string]entry
}

func NewStore() *Store {
	return &Store{entries: make(map[string]entry)}
}

// Open replaces whatever wizard key had with a fresh one identified by id.
func (s *Store) Open(key, id string) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := Reduce(NewState(), Reset{})
	s.entries[key] = entry{id: id, state: state}
	return state
}

// Get returns the current wizard of key and its session id.
func (s *Store) Get(key string) (State, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return State{}, "", ErrSessionNotFound
	}
	return e.state, e.id, nil
}

// Dispatch applies events to the wizard of key when id is still current.
func (s *Store) Dispatch(key, id string, events ...Event) (State, error) {
	return s.Update(key, id, func(st State) ([]Event, error) {
		return events, nil
	})
}

// Update runs fn against the current state under the store lock and applies
// the events it returns. Nothing is applied when fn fails.
func (s *Store) Update(key, id string, fn func(State) ([]Event, error)) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return State{}, ErrSessionNotFound
	}
	if e.id != id {
		return e.state, ErrStaleSession
	}
	events, err := fn(e.state)
	if err != nil {
		return e.state, err
	}
	e.state = ReduceAll(e.state, events...)
	s.entries[key] = e
	return e.state, nil
}

// Close discards the wizard of key.
func (s *Store) Close(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
