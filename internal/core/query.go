package core

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// DateLayout is the calendar date format used by range filters.
const DateLayout = "2006-01-02"

// DefaultPageSize is used when a caller asks for a non-positive page size.
const DefaultPageSize = 10

// Date is a calendar date without time of day.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate creates a new Date from year, month, day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: date %q: %v", ErrInvalidInput, s, err)
	}
	return DateOf(t), nil
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) ord() int {
	return d.Year*10000 + int(d.Month)*100 + d.Day
}

// Before reports whether d is strictly before o.
func (d Date) Before(o Date) bool {
	return d.ord() < o.ord()
}

// After reports whether d is strictly after o.
func (d Date) After(o Date) bool {
	return d.ord() > o.ord()
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// DateRange is an inclusive [Start, End] window of calendar dates.
type DateRange struct {
	Start Date
	End   Date
}

// Contains reports whether the calendar date of t falls in the window.
func (r DateRange) Contains(t time.Time) bool {
	d := DateOf(t)
	return !d.Before(r.Start) && !d.After(r.End)
}

// Empty reports whether the window selects nothing (End before Start).
func (r DateRange) Empty() bool {
	return r.End.Before(r.Start)
}

// QueryRange selects the movements of l whose timestamp date falls in r,
// across all buckets, most recent first. Each result carries the kind of
// its bucket. l is not modified.
func QueryRange(l Ledger, r DateRange) []Movement {
	if r.Empty() {
		return []Movement{}
	}
	out := []Movement{}
	for _, m := range l.All() {
		if r.Contains(m.Timestamp) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// PageInfo describes one page of a paginated table.
type PageInfo struct {
	Page       int
	PageSize   int
	TotalRows  int
	TotalPages int
}

// HasNext reports whether a page follows this one.
func (p PageInfo) HasNext() bool {
	return p.Page < p.TotalPages
}

// Paginate returns the rows of the 1-based page. Pages below 1 are clamped to
// 1; a page past the end yields no rows.
func Paginate(rows []Movement, page, size int) ([]Movement, PageInfo) {
	if size <= 0 {
		size = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}
	info := PageInfo{
		Page:       page,
		PageSize:   size,
		TotalRows:  len(rows),
		TotalPages: len(rows) / size,
	}
	if len(rows)%size != 0 {
		info.TotalPages++
	}
	// Checked before multiplying so huge page numbers cannot overflow.
	if page > info.TotalPages {
		return []Movement{}, info
	}
	start := (page - 1) * size
	end := len(rows)
	if size < end-start {
		end = start + size
	}
	return rows[start:end], info
}
