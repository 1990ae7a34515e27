// Package ledger loads and mutates a user's ledger over a storage adapter.
// Ledgers are values: every mutation returns a new ledger and leaves the
// one passed in untouched.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"presupuesto/internal/core"
	"presupuesto/internal/store"
)

type Store struct {
	adapter store.Adapter
	now     func() time.Time
	newID   func() string
}

type Option func(*Store)

// WithClock overrides the clock used to stamp recorded movements.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides movement id generation.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

func New(adapter store.Adapter, opts ...Option) *Store {
	s := &Store{
		adapter: adapter,
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Adapter exposes the underlying storage adapter.
func (s *Store) Adapter() store.Adapter { return s.adapter }

// Load returns user's persisted ledger, or an empty one if none exists.
func (s *Store) Load(ctx context.Context, user string) (core.Ledger, error) {
	if err := core.ValidateUser(user); err != nil {
		return core.Ledger{}, err
	}
	l, err := s.adapter.Load(ctx, user)
	if err != nil {
		return core.Ledger{}, fmt.Errorf("load ledger %q: %w", user, err)
	}
	l.User = user
	return l, nil
}

// Record builds a movement from e, stamped with a fresh id and the current
// time truncated to the second, and appends it.
func (s *Store) Record(ctx context.Context, l core.Ledger, e core.Entry) (core.Ledger, core.Movement, error) {
	m := core.Movement{
		ID:          s.newID(),
		Kind:        e.Kind,
		Category:    e.Category,
		Description: e.Description,
		Amount:      e.Amount,
		Timestamp:   s.now().Truncate(time.Second),
	}
	out, err := s.Append(ctx, l, m)
	if err != nil {
		return l, core.Movement{}, err
	}
	return out, m, nil
}

// Append adds m to the bucket of its kind and persists the result.
func (s *Store) Append(ctx context.Context, l core.Ledger, m core.Movement) (core.Ledger, error) {
	if err := core.ValidateUser(l.User); err != nil {
		return l, err
	}
	if err := m.Validate(); err != nil {
		return l, err
	}
	out := l.WithAppended(m)
	if err := s.adapter.Append(ctx, out, m); err != nil {
		return l, fmt.Errorf("persist movement %s: %w", m.ID, err)
	}
	slog.DebugContext(ctx, "Movement recorded", "user", l.User, "id", m.ID, "kind", m.Kind, "amount_cents", m.Amount.Cents)
	return out, nil
}

// Update sets the amount of the first movement with id. Only the amount
// changes.
func (s *Store) Update(ctx context.Context, l core.Ledger, id string, amount core.Money) (core.Ledger, core.Movement, error) {
	if err := amount.Validate(); err != nil {
		return l, core.Movement{}, err
	}
	out, m, ok := l.WithAmount(id, amount)
	if !ok {
		return l, core.Movement{}, fmt.Errorf("movement %s: %w", id, core.ErrNotFound)
	}
	if err := s.adapter.Update(ctx, out, m); err != nil {
		return l, core.Movement{}, fmt.Errorf("persist update %s: %w", id, err)
	}
	slog.DebugContext(ctx, "Movement updated", "user", l.User, "id", id, "amount_cents", amount.Cents)
	return out, m, nil
}

// Remove deletes every movement with id.
func (s *Store) Remove(ctx context.Context, l core.Ledger, id string) (core.Ledger, error) {
	out, n := l.Without(id)
	if n == 0 {
		return l, fmt.Errorf("movement %s: %w", id, core.ErrNotFound)
	}
	if err := s.adapter.Remove(ctx, out, id); err != nil {
		return l, fmt.Errorf("persist removal %s: %w", id, err)
	}
	slog.DebugContext(ctx, "Movement removed", "user", l.User, "id", id, "count", n)
	return out, nil
}
