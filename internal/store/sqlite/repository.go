package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"presupuesto/internal/core"
	"presupuesto/internal/store"

	_ "modernc.org/sqlite"
)

var (
	_ store.Adapter    = (*Repository)(nil)
	_ store.UserLister = (*Repository)(nil)
	_ store.Pinger     = (*Repository)(nil)
)

// Repository stores movements as rows of a single table. Writes touch only
// the changed rows.
type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// modernc serializes writers; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", core.ErrStorageUnavailable, err)
	}
	return nil
}

const selectMovements = `
SELECT id, kind, category, description, amount_cents, occurred_at
FROM movements
WHERE user = ?
ORDER BY seq`

func (r *Repository) Load(ctx context.Context, user string) (core.Ledger, error) {
	rows, err := r.db.QueryContext(ctx, selectMovements, user)
	if err != nil {
		return core.Ledger{}, fmt.Errorf("%w: query movements: %v", core.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var ms []core.Movement
	for rows.Next() {
		var (
			m        core.Movement
			kind     string
			occurred string
		)
		if err := rows.Scan(&m.ID, &kind, &m.Category, &m.Description, &m.Amount.Cents, &occurred); err != nil {
			return core.Ledger{}, fmt.Errorf("scan movement: %w", err)
		}
		m.Kind = core.Kind(kind)
		if occurred != "" {
			ts, err := core.ParseTimestamp(occurred)
			if err != nil {
				return core.Ledger{}, fmt.Errorf("movement %s: %w", m.ID, err)
			}
			m.Timestamp = ts
		}
		ms = append(ms, m)
	}
	if err := rows.Err(); err != nil {
		return core.Ledger{}, fmt.Errorf("%w: iterate movements: %v", core.ErrStorageUnavailable, err)
	}
	return core.LedgerOf(user, ms), nil
}

const insertMovement = `
INSERT INTO movements (id, user, kind, category, description, amount_cents, occurred_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`

func (r *Repository) Append(ctx context.Context, l core.Ledger, m core.Movement) error {
	occurred := ""
	if !m.Timestamp.IsZero() {
		occurred = core.FormatTimestamp(m.Timestamp)
	}
	_, err := r.db.ExecContext(ctx, insertMovement,
		m.ID, l.User, string(m.Kind), m.Category, m.Description, m.Amount.Cents, occurred)
	if err != nil {
		return fmt.Errorf("%w: insert movement: %v", core.ErrStorageUnavailable, err)
	}

	slog.InfoContext(ctx, "Movement saved to SQLite",
		"user", l.User,
		"id", m.ID,
		"kind", m.Kind,
		"amount_cents", m.Amount.Cents)
	return nil
}

// Update rewrites the amount of the first row with m's id in m's bucket.
const updateAmount = `
UPDATE movements SET amount_cents = ?
WHERE seq = (
    SELECT seq FROM movements
    WHERE user = ? AND id = ? AND kind = ?
    ORDER BY seq LIMIT 1
)`

func (r *Repository) Update(ctx context.Context, l core.Ledger, m core.Movement) error {
	res, err := r.db.ExecContext(ctx, updateAmount, m.Amount.Cents, l.User, m.ID, string(m.Kind))
	if err != nil {
		return fmt.Errorf("%w: update movement: %v", core.ErrStorageUnavailable, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("movement %s: %w", m.ID, core.ErrNotFound)
	}
	return nil
}

func (r *Repository) Remove(ctx context.Context, l core.Ledger, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM movements WHERE user = ? AND id = ?`, l.User, id)
	if err != nil {
		return fmt.Errorf("%w: delete movement: %v", core.ErrStorageUnavailable, err)
	}
	n, _ := res.RowsAffected()
	slog.InfoContext(ctx, "Movement removed from SQLite", "user", l.User, "id", id, "rows", n)
	if n == 0 {
		return fmt.Errorf("movement %s: %w", id, core.ErrNotFound)
	}
	return nil
}

// Users lists users with at least one stored movement.
func (r *Repository) Users(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT user FROM movements ORDER BY user`)
	if err != nil {
		return nil, fmt.Errorf("%w: list users: %v", core.ErrStorageUnavailable, err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
