package google

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"

	"presupuesto/internal/core"
)

func newTestClient(t *testing.T) (*Client, *fakeSheets, *httptest.Server) {
	t.Helper()
	fake := newFakeSheets("sid")
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	c, err := NewWithOptions(context.Background(), "sid",
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()),
		goption.WithoutAuthentication())
	require.NoError(t, err)
	return c, fake, srv
}

func TestNewWithOptionsMissingSpreadsheetID(t *testing.T) {
	_, err := NewWithOptions(context.Background(), "  ")
	require.EqualError(t, err, "missing GOOGLE_SPREADSHEET_ID")
}

func TestNewMissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := New(context.Background(), Config{SpreadsheetID: "sid"})
	require.ErrorContains(t, err, "missing service account credentials")
}

func TestLoadMissingTabIsEmpty(t *testing.T) {
	c, _, _ := newTestClient(t)
	l, err := c.Load(context.Background(), "ana")
	require.NoError(t, err)
	assert.Equal(t, "ana", l.User)
	assert.Zero(t, l.Len())
}

func TestAppendCreatesTabWithHeader(t *testing.T) {
	ctx := context.Background()
	c, fake, _ := newTestClient(t)
	ts := time.Date(2024, 1, 5, 10, 0, 0, 0, time.Local)
	m := core.Movement{ID: "m1", Kind: core.Investment, Category: "Fondos", Description: "Indexado", Amount: core.Money{Cents: 12050}, Timestamp: ts}
	l := core.NewLedger("ana").WithAppended(m)

	require.NoError(t, c.Append(ctx, l, m))

	rows := fake.rows("ana")
	require.Len(t, rows, 2)
	assert.Equal(t, "id", rows[0][0])
	assert.Equal(t, []any{"m1", "Inversión", "Fondos", "Indexado", 120.5, "2024-01-05 10:00:00"}, rows[1])

	got, err := c.Load(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, l.All(), got.All())
}

func TestLoadToleratesReorderedColumnsAndBadRows(t *testing.T) {
	c, fake, _ := newTestClient(t)
	fake.addTab("ana",
		[]any{"fecha", "monto", "tipo", "id", "categoria", "descripcion"},
		[]any{"2024-02-01 08:00:00", "12,5", "Gasto", "x1", "Salud", "Farmacia"},
		[]any{},
		[]any{"", 1.0, "Desconocido", "x2", "", ""},
		[]any{"", 300.0, "ingreso", "x3", "Salario", "Pago"},
	)
	l, err := c.Load(context.Background(), "ana")
	require.NoError(t, err)
	require.Len(t, l.Expense, 1)
	require.Len(t, l.Income, 1)
	assert.Equal(t, int64(1250), l.Expense[0].Amount.Cents)
	assert.Equal(t, int64(30000), l.Income[0].Amount.Cents)
	assert.True(t, l.Income[0].Timestamp.IsZero())
}

func TestUpdateRewritesAmountCell(t *testing.T) {
	ctx := context.Background()
	c, fake, _ := newTestClient(t)
	fake.addTab("ana",
		[]any{"id", "tipo", "categoria", "descripcion", "monto", "fecha"},
		[]any{"a", "Ingreso", "Salario", "x", 10.0, ""},
		[]any{"b", "Gasto", "Salud", "y", 20.0, ""},
	)
	l, err := c.Load(ctx, "ana")
	require.NoError(t, err)
	l2, m, ok := l.WithAmount("b", core.Money{Cents: 2575})
	require.True(t, ok)

	require.NoError(t, c.Update(ctx, l2, m))
	assert.Equal(t, 25.75, fake.rows("ana")[2][4])
	assert.Equal(t, 10.0, fake.rows("ana")[1][4])

	err = c.Update(ctx, l2, core.Movement{ID: "zzz", Kind: core.Income})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRemoveDeletesEveryMatchingRow(t *testing.T) {
	ctx := context.Background()
	c, fake, _ := newTestClient(t)
	fake.addTab("ana",
		[]any{"id", "tipo", "categoria", "descripcion", "monto", "fecha"},
		[]any{"k", "Ingreso", "", "", 1.0, ""},
		[]any{"o", "Gasto", "", "", 2.0, ""},
		[]any{"k", "Ahorro", "", "", 3.0, ""},
	)
	require.NoError(t, c.Remove(ctx, core.NewLedger("ana"), "k"))
	rows := fake.rows("ana")
	require.Len(t, rows, 2)
	assert.Equal(t, "o", rows[1][0])

	assert.ErrorIs(t, c.Remove(ctx, core.NewLedger("ana"), "k"), core.ErrNotFound)
	assert.ErrorIs(t, c.Remove(ctx, core.NewLedger("bob"), "k"), core.ErrNotFound)
}

func TestTabLookupIsCached(t *testing.T) {
	ctx := context.Background()
	c, fake, _ := newTestClient(t)
	fake.addTab("ana", []any{"id", "tipo", "categoria", "descripcion", "monto", "fecha"})
	for i := 0; i < 3; i++ {
		_, err := c.Load(ctx, "ana")
		require.NoError(t, err)
	}
	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, 1, fake.gets)
}

func TestUnreachableBackendIsStorageUnavailable(t *testing.T) {
	c, _, srv := newTestClient(t)
	srv.Close()
	_, err := c.Load(context.Background(), "ana")
	assert.ErrorIs(t, err, core.ErrStorageUnavailable)
	assert.ErrorIs(t, c.Ping(context.Background()), core.ErrStorageUnavailable)
}

func TestA1QuotesTabNames(t *testing.T) {
	assert.Equal(t, "'O''Brien'!A:F", a1("O'Brien", "A:F"))
	tab, cells := splitRange(a1("O'Brien", "E7"))
	assert.Equal(t, "O'Brien", tab)
	r, col := cellRef(cells)
	assert.Equal(t, 6, r)
	assert.Equal(t, 4, col)
}

func TestUsersListsTabs(t *testing.T) {
	c, fake, _ := newTestClient(t)
	fake.addTab("bob")
	fake.addTab("ana")
	users, err := c.Users(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ana", "bob"}, users)
}

func TestWritesFollowReorderedColumns(t *testing.T) {
	ctx := context.Background()
	c, fake, _ := newTestClient(t)
	fake.addTab("ana",
		[]any{"monto", "fecha", "id", "tipo", "categoria", "descripcion"},
		[]any{10.0, "", "a", "Ingreso", "Salario", "x"},
		[]any{20.0, "", "b", "Gasto", "Salud", "y"},
	)
	l, err := c.Load(ctx, "ana")
	require.NoError(t, err)

	l2, m, ok := l.WithAmount("b", core.Money{Cents: 999})
	require.True(t, ok)
	require.NoError(t, c.Update(ctx, l2, m))
	assert.Equal(t, 9.99, fake.rows("ana")[2][0])
	assert.Equal(t, "b", fake.rows("ana")[2][2])

	n := core.Movement{ID: "c", Kind: core.Saving, Category: "Metas", Description: "z", Amount: core.Money{Cents: 150}}
	require.NoError(t, c.Append(ctx, l2.WithAppended(n), n))
	assert.Equal(t, []any{1.5, "", "c", "Ahorro", "Metas", "z"}, fake.rows("ana")[3])

	require.NoError(t, c.Remove(ctx, l2, "a"))
	got, err := c.Load(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, []string{got.All()[0].ID, got.All()[1].ID})
	assert.Equal(t, int64(999), got.Expense[0].Amount.Cents)
}
