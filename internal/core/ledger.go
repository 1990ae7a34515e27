package core

// Ledger is one user's set of movements, split in four append-ordered
// buckets.
type Ledger struct {
	User       string
	Income     []Movement
	Expense    []Movement
	Saving     []Movement
	Investment []Movement
}

// NewLedger returns an empty ledger for user.
func NewLedger(user string) Ledger {
	return Ledger{User: user}
}

// Bucket returns the movements of kind k. The slice is shared with l.
func (l Ledger) Bucket(k Kind) []Movement {
	switch k {
	case Income:
		return l.Income
	case Expense:
		return l.Expense
	case Saving:
		return l.Saving
	case Investment:
		return l.Investment
	default:
		return nil
	}
}

func (l *Ledger) setBucket(k Kind, ms []Movement) {
	switch k {
	case Income:
		l.Income = ms
	case Expense:
		l.Expense = ms
	case Saving:
		l.Saving = ms
	case Investment:
		l.Investment = ms
	}
}

// All returns every movement in bucket order, each tagged with the kind of
// the bucket holding it.
func (l Ledger) All() []Movement {
	out := make([]Movement, 0, l.Len())
	for _, k := range Kinds() {
		for _, m := range l.Bucket(k) {
			m.Kind = k
			out = append(out, m)
		}
	}
	return out
}

// Len is the total number of movements.
func (l Ledger) Len() int {
	return len(l.Income) + len(l.Expense) + len(l.Saving) + len(l.Investment)
}

// Clone returns a deep copy so callers can mutate without aliasing l.
func (l Ledger) Clone() Ledger {
	c := Ledger{User: l.User}
	for _, k := range Kinds() {
		if b := l.Bucket(k); b != nil {
			c.setBucket(k, append([]Movement(nil), b...))
		}
	}
	return c
}

// WithAppended returns a copy of l with m appended to the bucket of m.Kind.
func (l Ledger) WithAppended(m Movement) Ledger {
	c := l.Clone()
	c.setBucket(m.Kind, append(c.Bucket(m.Kind), m))
	return c
}

// Find returns the first movement with the given id across all buckets.
func (l Ledger) Find(id string) (Movement, bool) {
	for _, k := range Kinds() {
		for _, m := range l.Bucket(k) {
			if m.ID == id {
				m.Kind = k
				return m, true
			}
		}
	}
	return Movement{}, false
}

// WithAmount returns a copy of l where the first movement with id carries
// amount, and the updated movement. ok is false when nothing matched.
func (l Ledger) WithAmount(id string, amount Money) (Ledger, Movement, bool) {
	c := l.Clone()
	for _, k := range Kinds() {
		b := c.Bucket(k)
		for i := range b {
			if b[i].ID == id {
				b[i].Amount = amount
				m := b[i]
				m.Kind = k
				return c, m, true
			}
		}
	}
	return l, Movement{}, false
}

// Without returns a copy of l with every movement carrying id removed, and
// the number of removed movements.
func (l Ledger) Without(id string) (Ledger, int) {
	c := Ledger{User: l.User}
	removed := 0
	for _, k := range Kinds() {
		var kept []Movement
		for _, m := range l.Bucket(k) {
			if m.ID == id {
				removed++
				continue
			}
			kept = append(kept, m)
		}
		c.setBucket(k, kept)
	}
	if removed == 0 {
		return l, 0
	}
	return c, removed
}

// LedgerOf buckets ms by kind, keeping their relative order. Movements with
// an unknown kind are dropped.
func LedgerOf(user string, ms []Movement) Ledger {
	l := NewLedger(user)
	for _, m := range ms {
		if !m.Kind.IsValid() {
			continue
		}
		l.setBucket(m.Kind, append(l.Bucket(m.Kind), m))
	}
	return l
}
