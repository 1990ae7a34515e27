package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// TimestampLayout is the persisted timestamp format (second resolution).
const TimestampLayout = "2006-01-02 15:04:05"

const (
	Income     Kind = "income"
	Expense    Kind = "expense"
	Saving     Kind = "saving"
	Investment Kind = "investment"
)

type (
	// Kind selects the bucket a Movement belongs to.
	Kind string

	// Movement is a single recorded financial event.
	Movement struct {
		ID          string
		Kind        Kind
		Category    string
		Description string
		Amount      Money
		Timestamp   time.Time
	}

	// Entry is the user-supplied part of a Movement. ID and Timestamp are
	// assigned by the recording component.
	Entry struct {
		Kind        Kind
		Category    string
		Description string
		Amount      Money
	}
)

var (
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrNotFound           = errors.New("movement not found")
	ErrInvalidInput       = errors.New("invalid input")

	ErrNegativeAmount   = fmt.Errorf("%w: negative amount", ErrInvalidInput)
	ErrUnknownKind      = fmt.Errorf("%w: unknown kind", ErrInvalidInput)
	ErrUnknownCategory  = fmt.Errorf("%w: unknown category", ErrInvalidInput)
	ErrEmptyDescription = fmt.Errorf("%w: empty description", ErrInvalidInput)
	ErrEmptyUser        = fmt.Errorf("%w: empty user name", ErrInvalidInput)
)

// Kinds returns the four kinds in bucket order.
func Kinds() []Kind {
	return []Kind{Income, Expense, Saving, Investment}
}

func (k Kind) String() string {
	return string(k)
}

func (k Kind) IsValid() bool {
	switch k {
	case Income, Expense, Saving, Investment:
		return true
	default:
		return false
	}
}

// BucketKey is the key of the kind's bucket in the document-file format.
func (k Kind) BucketKey() string {
	switch k {
	case Income:
		return "ingresos"
	case Expense:
		return "gastos"
	case Saving:
		return "ahorro"
	case Investment:
		return "inversion"
	default:
		return ""
	}
}

// Label is the display label used by the remote collection and exports.
func (k Kind) Label() string {
	switch k {
	case Income:
		return "Ingreso"
	case Expense:
		return "Gasto"
	case Saving:
		return "Ahorro"
	case Investment:
		return "Inversión"
	default:
		return string(k)
	}
}

// ParseKind accepts the canonical name, the bucket key or the display label,
// case-insensitively.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, k := range Kinds() {
		if s == string(k) || s == k.BucketKey() || s == strings.ToLower(k.Label()) {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Validate checks the invariants the store relies on. It does not enforce
// the category vocabulary; see ValidateEntry.
func (m Movement) Validate() error {
	if !m.Kind.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownKind, m.Kind)
	}
	return m.Amount.Validate()
}

// ValidateEntry performs the form-level checks presentation adapters apply
// before recording.
func ValidateEntry(e Entry) error {
	if !e.Kind.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownKind, e.Kind)
	}
	if !IsCategory(e.Kind, e.Category) {
		return fmt.Errorf("%w: %q for %s", ErrUnknownCategory, e.Category, e.Kind)
	}
	if strings.TrimSpace(e.Description) == "" {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return fmt.Errorf("%w: description too long (max 200 characters)", ErrInvalidInput)
	}
	return e.Amount.Validate()
}

// ValidateUser rejects names that cannot identify a ledger.
func ValidateUser(user string) error {
	user = strings.TrimSpace(user)
	if user == "" {
		return ErrEmptyUser
	}
	if strings.ContainsAny(user, `/\:*?"<>|`) || strings.HasPrefix(user, ".") {
		return fmt.Errorf("%w: user name %q contains reserved characters", ErrInvalidInput, user)
	}
	return nil
}

// FormatTimestamp renders t in the persisted layout.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// ParseTimestamp parses the persisted layout in the local time zone.
func ParseTimestamp(s string) (time.Time, error) {
	return time.ParseInLocation(TimestampLayout, strings.TrimSpace(s), time.Local)
}
