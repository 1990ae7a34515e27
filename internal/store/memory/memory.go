package memory

import (
	"context"
	"sort"
	"sync"

	"presupuesto/internal/core"
	"presupuesto/internal/store"
)

var (
	_ store.Adapter    = (*Store)(nil)
	_ store.UserLister = (*Store)(nil)
)

// Store keeps ledgers in process memory.
type Store struct {
	mu      sync.Mutex
	ledgers map[string]core.Ledger
}

func New() *Store {
	return &Store{ledgers: map[string]core.Ledger{}}
}

// NewWith seeds the store with existing ledgers, keyed by their user.
func NewWith(ledgers ...core.Ledger) *Store {
	s := New()
	for _, l := range ledgers {
		s.ledgers[l.User] = l.Clone()
	}
	return s
}

func (s *Store) Load(_ context.Context, user string) (core.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.ledgers[user]
	if !ok {
		return core.NewLedger(user), nil
	}
	return l.Clone(), nil
}

func (s *Store) Append(_ context.Context, l core.Ledger, _ core.Movement) error {
	return s.put(l)
}

func (s *Store) Update(_ context.Context, l core.Ledger, _ core.Movement) error {
	return s.put(l)
}

func (s *Store) Remove(_ context.Context, l core.Ledger, _ string) error {
	return s.put(l)
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Users lists the users that have a stored ledger.
func (s *Store) Users(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.ledgers))
	for u := range s.ledgers {
		out = append(out, u)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) put(l core.Ledger) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledgers[l.User] = l.Clone()
	return nil
}
