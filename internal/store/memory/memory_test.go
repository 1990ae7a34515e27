package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"presupuesto/internal/core"
)

func TestMemoryStoreLoadEmpty(t *testing.T) {
	s := New()
	l, err := s.Load(context.Background(), "ana")
	require.NoError(t, err)
	assert.Equal(t, "ana", l.User)
	assert.Zero(t, l.Len())
}

func TestMemoryStoreDoesNotAliasCallerLedger(t *testing.T) {
	ctx := context.Background()
	s := New()
	m := core.Movement{ID: "1", Kind: core.Expense, Amount: core.Money{Cents: 100}}
	l := core.NewLedger("ana").WithAppended(m)
	require.NoError(t, s.Append(ctx, l, m))
	l.Expense[0].Amount = core.Money{Cents: 999}

	got, _ := s.Load(ctx, "ana")
	assert.Equal(t, int64(100), got.Expense[0].Amount.Cents, "stored ledger aliased caller slice")
	got.Expense[0].Amount = core.Money{Cents: 5}
	again, _ := s.Load(ctx, "ana")
	assert.Equal(t, int64(100), again.Expense[0].Amount.Cents, "loaded ledger aliased stored slice")
}

func TestNewWithSeedsUsers(t *testing.T) {
	s := NewWith(core.NewLedger("a"), core.NewLedger("b"))
	users, err := s.Users(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, users)
}
