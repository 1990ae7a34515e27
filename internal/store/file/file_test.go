package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"presupuesto/internal/core"
)

func writeDoc(t *testing.T, dir, user, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, user+".json"), []byte(content), 0o644))
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	s := New(t.TempDir())
	l, err := s.Load(context.Background(), "ana")
	require.NoError(t, err)
	assert.Equal(t, "ana", l.User)
	assert.Zero(t, l.Len())
}

func TestRoundTripPreservesEveryField(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := New(dir)
	ts := time.Date(2024, 3, 9, 14, 5, 6, 0, time.Local)
	want := core.NewLedger("José")
	for i, k := range core.Kinds() {
		m := core.Movement{
			ID:          "id-" + k.String(),
			Kind:        k,
			Category:    core.Categories(k)[0],
			Description: "Descripción ñ <b>",
			Amount:      core.Money{Cents: int64(1000*i + 5)},
			Timestamp:   ts.Add(time.Duration(i) * time.Hour),
		}
		want = want.WithAppended(m)
	}
	require.NoError(t, s.Append(ctx, want, core.Movement{}))

	got, err := s.Load(ctx, "José")
	require.NoError(t, err)
	assert.Equal(t, want.All(), got.All())

	raw, err := os.ReadFile(filepath.Join(dir, "José.json"))
	require.NoError(t, err)
	text := string(raw)
	assert.Contains(t, text, "Descripción ñ <b>", "non-ASCII and HTML must not be escaped")
	assert.Contains(t, text, "\n    \"ingresos\": [")
	assert.Contains(t, text, `"monto": 0.05`)
	assert.Contains(t, text, `"fecha": "2024-03-09 14:05:06"`)
}

func TestEmptyLedgerWritesAllBuckets(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	require.NoError(t, s.Remove(context.Background(), core.NewLedger("ana"), "x"))
	raw, err := os.ReadFile(filepath.Join(dir, "ana.json"))
	require.NoError(t, err)
	for _, key := range []string{"ingresos", "gastos", "ahorro", "inversion"} {
		assert.Contains(t, string(raw), `"`+key+`": []`)
	}
}

func TestLoadLegacyDocument(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "ana", `{
    "ingresos": [
        {"fecha": "2024-01-05 10:00:00", "categoria": "Salario", "descripcion": "Quincena", "monto": 500.0}
    ],
    "gastos": [
        {"fecha": "2024-01-06 09:30:00", "categoria": "Alimentos", "descripcion": "Súper", "monto": 120},
        {"fecha": "2024-01-06 09:30:00", "categoria": "Transporte", "descripcion": "Taxi", "monto": "7,5"},
        {"categoria": "Otros", "descripcion": "sin fecha", "monto": 1.25}
    ]
}`)
	s := New(dir)
	l, err := s.Load(context.Background(), "ana")
	require.NoError(t, err)

	require.Len(t, l.Income, 1)
	require.Len(t, l.Expense, 3)
	assert.Empty(t, l.Saving)
	assert.Empty(t, l.Investment)
	assert.Equal(t, int64(50000), l.Income[0].Amount.Cents)
	assert.Equal(t, int64(750), l.Expense[1].Amount.Cents)
	assert.Equal(t, core.Expense, l.Expense[0].Kind)

	// same-second records share identity
	assert.Equal(t, l.Expense[0].ID, l.Expense[1].ID)
	assert.NotEqual(t, l.Expense[0].ID, l.Expense[2].ID)
	assert.True(t, l.Expense[2].Timestamp.IsZero())

	again, err := s.Load(context.Background(), "ana")
	require.NoError(t, err)
	assert.Equal(t, l.All(), again.All(), "legacy ids must be stable across loads")

	after, n := l.Without(l.Expense[0].ID)
	assert.Equal(t, 2, n)
	assert.Len(t, after.Expense, 1)
}

func TestLoadCorruptDocument(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "ana", `{"ingresos": [`)
	_, err := New(dir).Load(context.Background(), "ana")
	require.Error(t, err)
	assert.False(t, errors.Is(err, core.ErrStorageUnavailable))
}

func TestLoadRejectsBadUser(t *testing.T) {
	_, err := New(t.TempDir()).Load(context.Background(), "../x")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestUnreachableDirectoryIsStorageUnavailable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	s := New(filepath.Join(blocker, "data"))
	err := s.Append(context.Background(), core.NewLedger("ana"), core.Movement{})
	assert.ErrorIs(t, err, core.ErrStorageUnavailable)
}

func TestUsersListsDocuments(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "b", "{}")
	writeDoc(t, dir, "a", "{}")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0o644))
	users, err := New(dir).Users(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, users)
}

func TestNoTempFilesLeftBehind(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	l := core.NewLedger("ana").WithAppended(core.Movement{ID: "1", Kind: core.Income})
	require.NoError(t, s.Append(context.Background(), l, core.Movement{}))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "leftover %s", e.Name())
	}
}
