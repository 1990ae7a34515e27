package core

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(y int, m time.Month, d, hh, mm, ss int) time.Time {
	return time.Date(y, m, d, hh, mm, ss, 0, time.Local)
}

func sampleLedger() Ledger {
	l := NewLedger("ana")
	l = l.WithAppended(Movement{ID: "a", Kind: Income, Category: "Salario", Amount: Money{50000}, Timestamp: at(2024, 1, 5, 9, 0, 0)})
	l = l.WithAppended(Movement{ID: "b", Kind: Expense, Category: "Alimentos", Amount: Money{12000}, Timestamp: at(2024, 2, 10, 18, 30, 0)})
	l = l.WithAppended(Movement{ID: "c", Kind: Saving, Category: "Metas", Amount: Money{5000}, Timestamp: at(2024, 1, 31, 23, 59, 59)})
	l = l.WithAppended(Movement{ID: "d", Kind: Investment, Category: "Fondos", Amount: Money{7000}, Timestamp: at(2024, 1, 1, 0, 0, 0)})
	return l
}

func ids(ms []Movement) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.ID
	}
	return out
}

func TestQueryRangeSingleMonth(t *testing.T) {
	l := NewLedger("ana")
	l = l.WithAppended(Movement{ID: "jan", Kind: Income, Timestamp: at(2024, 1, 5, 10, 0, 0)})
	l = l.WithAppended(Movement{ID: "feb", Kind: Expense, Timestamp: at(2024, 2, 10, 10, 0, 0)})

	got := QueryRange(l, DateRange{Start: NewDate(2024, 1, 1), End: NewDate(2024, 1, 31)})
	assert.Equal(t, []string{"jan"}, ids(got))
}

func TestQueryRangeInclusiveBoundsAndOrder(t *testing.T) {
	got := QueryRange(sampleLedger(), DateRange{Start: NewDate(2024, 1, 1), End: NewDate(2024, 1, 31)})
	assert.Equal(t, []string{"c", "a", "d"}, ids(got))
	for _, m := range got {
		assert.True(t, m.Kind.IsValid(), "result %s lost its kind", m.ID)
	}
}

func TestQueryRangeExactlyMatchesWindow(t *testing.T) {
	l := sampleLedger()
	r := DateRange{Start: NewDate(2024, 1, 5), End: NewDate(2024, 2, 10)}
	got := map[string]bool{}
	for _, m := range QueryRange(l, r) {
		got[m.ID] = true
	}
	for _, m := range l.All() {
		d := DateOf(m.Timestamp)
		in := !d.Before(r.Start) && !d.After(r.End)
		assert.Equal(t, in, got[m.ID], "movement %s (date %s)", m.ID, d)
	}
}

func TestQueryRangeReversedWindowIsEmpty(t *testing.T) {
	got := QueryRange(sampleLedger(), DateRange{Start: NewDate(2024, 2, 1), End: NewDate(2024, 1, 1)})
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestQueryRangeDoesNotMutateLedger(t *testing.T) {
	l := sampleLedger()
	before := ids(l.All())
	_ = QueryRange(l, DateRange{Start: NewDate(2000, 1, 1), End: NewDate(2100, 1, 1)})
	assert.Equal(t, before, ids(l.All()))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2024, 2, 29), d)

	_, err = ParseDate("29/02/2024")
	assert.Error(t, err)
}

func TestPaginate(t *testing.T) {
	rows := make([]Movement, 23)
	for i := range rows {
		rows[i] = Movement{ID: string(rune('a' + i))}
	}
	page, info := Paginate(rows, 3, 10)
	assert.Equal(t, []string{"u", "v", "w"}, ids(page))
	assert.Equal(t, 3, info.TotalPages)
	assert.False(t, info.HasNext())

	page, info = Paginate(rows, 0, 0)
	assert.Len(t, page, DefaultPageSize)
	assert.Equal(t, 1, info.Page)
	assert.True(t, info.HasNext())

	page, _ = Paginate(rows, 9, 10)
	assert.Empty(t, page, "page past the end")
}

func TestPaginateHugeValues(t *testing.T) {
	rows := make([]Movement, 3)

	assert.NotPanics(t, func() {
		page, info := Paginate(rows, 922337203685477582, 10)
		assert.Empty(t, page)
		assert.Equal(t, 1, info.TotalPages)
	})
	assert.NotPanics(t, func() {
		page, _ := Paginate(rows, math.MaxInt, 10)
		assert.Empty(t, page)
	})
	assert.NotPanics(t, func() {
		page, info := Paginate(rows, 1, math.MaxInt)
		assert.Len(t, page, 3)
		assert.Equal(t, 1, info.TotalPages)
	})
}
