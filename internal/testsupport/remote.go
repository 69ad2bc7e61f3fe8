package testsupport

import (
	"context"
	"io"
	"sort"
	"sync"
)

// FakeStore is an in-memory remote store that records every call.
type FakeStore struct {
	mu       sync.Mutex
	Entries  map[string][]byte
	Order    []string
	Calls    []string
	ListErr  error
	StoreErr error
	PingErr  error
}

// NewFakeStore seeds the store with names in listing order.
func NewFakeStore(names ...string) *FakeStore {
	s := &FakeStore{Entries: make(map[string][]byte)}
	for _, name := range names {
		s.Entries[name] = nil
		s.Order = append(s.Order, name)
	}
	return s
}

func (s *FakeStore) record(call string) {
	s.Calls = append(s.Calls, call)
}

// List returns entry names in insertion order.
func (s *FakeStore) List(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("list")
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	return append([]string(nil), s.Order...), nil
}

// Exists reports whether name was seeded or stored.
func (s *FakeStore) Exists(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("exists " + name)
	if s.ListErr != nil {
		return false, s.ListErr
	}
	_, ok := s.Entries[name]
	return ok, nil
}

// Store reads r fully and keeps the bytes under name.
func (s *FakeStore) Store(_ context.Context, name string, r io.Reader, _ int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("store " + name)
	if s.StoreErr != nil {
		return s.StoreErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if _, ok := s.Entries[name]; !ok {
		s.Order = append(s.Order, name)
	}
	s.Entries[name] = data
	return nil
}

// Ping returns PingErr.
func (s *FakeStore) Ping(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("ping")
	return s.PingErr
}

// CallCount returns how many calls of any kind were made.
func (s *FakeStore) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Calls)
}

// StoredNames returns the sorted names that hold uploaded content.
func (s *FakeStore) StoredNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var names []string
	for name, data := range s.Entries {
		if data != nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
