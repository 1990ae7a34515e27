package store

import (
	"context"

	"presupuesto/internal/core"
)

// Ports for outbound adapters.
type (
	// Adapter persists one user's ledger. Mutating calls receive the ledger
	// as it looks after the change plus the movement that changed, so a
	// whole-document backend can rewrite everything while a row-oriented
	// backend writes only the delta.
	Adapter interface {
		// Load returns the persisted ledger or an empty one when nothing
		// has been stored for user yet.
		Load(ctx context.Context, user string) (core.Ledger, error)
		Append(ctx context.Context, ledger core.Ledger, m core.Movement) error
		Update(ctx context.Context, ledger core.Ledger, m core.Movement) error
		// Remove deletes every movement carrying id.
		Remove(ctx context.Context, ledger core.Ledger, id string) error
	}

	// Pinger reports whether the backend is reachable. Used by /readyz.
	Pinger interface {
		Ping(ctx context.Context) error
	}

	// UserLister enumerates users with a persisted ledger.
	UserLister interface {
		Users(ctx context.Context) ([]string, error)
	}

	// Closer is implemented by backends holding connections.
	Closer interface {
		Close() error
	}
)
