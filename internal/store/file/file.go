// Package file stores each user's ledger as a JSON document named after
// the user. Every mutation rewrites the whole document; concurrent writers
// are not coordinated and the last one wins.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"presupuesto/internal/core"
	"presupuesto/internal/store"
)

var (
	_ store.Adapter    = (*Store)(nil)
	_ store.UserLister = (*Store)(nil)
	_ store.Pinger     = (*Store)(nil)
)

type Store struct {
	dir string
}

// New returns a store rooted at dir. The directory is created on first
// write.
func New(dir string) *Store {
	if dir == "" {
		dir = "."
	}
	return &Store{dir: dir}
}

// Path is the document location for user.
func (s *Store) Path(user string) string {
	return filepath.Join(s.dir, user+".json")
}

func (s *Store) Load(ctx context.Context, user string) (core.Ledger, error) {
	if err := core.ValidateUser(user); err != nil {
		return core.Ledger{}, err
	}
	b, err := os.ReadFile(s.Path(user))
	if errors.Is(err, fs.ErrNotExist) {
		return core.NewLedger(user), nil
	}
	if err != nil {
		return core.Ledger{}, fmt.Errorf("%w: read %s: %v", core.ErrStorageUnavailable, s.Path(user), err)
	}
	if len(strings.TrimSpace(string(b))) == 0 {
		return core.NewLedger(user), nil
	}
	var doc document
	if err := json.Unmarshal(b, &doc); err != nil {
		return core.Ledger{}, fmt.Errorf("decode %s: %w", s.Path(user), err)
	}
	l, err := decode(user, doc)
	if err != nil {
		return core.Ledger{}, fmt.Errorf("decode %s: %w", s.Path(user), err)
	}
	slog.DebugContext(ctx, "Ledger loaded from file", "user", user, "movements", l.Len())
	return l, nil
}

func (s *Store) Append(ctx context.Context, l core.Ledger, _ core.Movement) error {
	return s.save(ctx, l)
}

func (s *Store) Update(ctx context.Context, l core.Ledger, _ core.Movement) error {
	return s.save(ctx, l)
}

func (s *Store) Remove(ctx context.Context, l core.Ledger, _ string) error {
	return s.save(ctx, l)
}

// Ping checks that the data directory exists or can be created.
func (s *Store) Ping(context.Context) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", core.ErrStorageUnavailable, err)
	}
	return nil
}

// Users lists the users with a document in the data directory.
func (s *Store) Users(context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrStorageUnavailable, err)
	}
	var users []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, ".") {
			continue
		}
		users = append(users, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(users)
	return users, nil
}

// save writes to a temporary file in the same directory and renames it over
// the document so readers never observe a partial write.
func (s *Store) save(ctx context.Context, l core.Ledger) error {
	if err := core.ValidateUser(l.User); err != nil {
		return err
	}
	b, err := marshal(l)
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("%w: create data dir: %v", core.ErrStorageUnavailable, err)
	}
	tmp, err := os.CreateTemp(s.dir, "."+l.User+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrStorageUnavailable, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write %s: %v", core.ErrStorageUnavailable, tmp.Name(), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: sync %s: %v", core.ErrStorageUnavailable, tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", core.ErrStorageUnavailable, err)
	}
	if err := os.Rename(tmp.Name(), s.Path(l.User)); err != nil {
		return fmt.Errorf("%w: replace %s: %v", core.ErrStorageUnavailable, s.Path(l.User), err)
	}
	slog.DebugContext(ctx, "Ledger written to file", "user", l.User, "movements", l.Len(), "path", s.Path(l.User))
	return nil
}
