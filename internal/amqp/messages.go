package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"presupuesto/internal/core"
)

type EventType string

const (
	EventCreated EventType = "created"
	EventUpdated EventType = "updated"
	EventDeleted EventType = "deleted"
)

// MovementEvent describes one persisted change to a user's ledger. Deleted
// events carry only the user and id.
type MovementEvent struct {
	Type        EventType `json:"type"`
	User        string    `json:"user"`
	ID          string    `json:"id"`
	Kind        core.Kind `json:"kind,omitempty"`
	Category    string    `json:"category,omitempty"`
	Description string    `json:"description,omitempty"`
	AmountCents int64     `json:"amount_cents"`
	OccurredAt  time.Time `json:"occurred_at"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewMovementEvent builds an event for m stamped with the current time.
func NewMovementEvent(t EventType, user string, m core.Movement) *MovementEvent {
	ev := &MovementEvent{
		Type:      t,
		User:      user,
		ID:        m.ID,
		Timestamp: time.Now(),
	}
	if t == EventDeleted {
		return ev
	}
	ev.Kind = m.Kind
	ev.Category = m.Category
	ev.Description = m.Description
	ev.AmountCents = m.Amount.Cents
	ev.OccurredAt = m.Timestamp
	return ev
}

// Movement rebuilds the movement the event describes.
func (e *MovementEvent) Movement() core.Movement {
	m := core.Movement{
		ID:          e.ID,
		Kind:        e.Kind,
		Category:    e.Category,
		Description: e.Description,
		Amount:      core.Money{Cents: e.AmountCents},
	}
	if !e.OccurredAt.IsZero() {
		m.Timestamp = e.OccurredAt.In(time.Local)
	}
	return m
}

func (e *MovementEvent) Validate() error {
	switch e.Type {
	case EventCreated, EventUpdated, EventDeleted:
	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	if e.User == "" || e.ID == "" {
		return errors.New("event without user or id")
	}
	if e.Type != EventDeleted && !e.Kind.IsValid() {
		return fmt.Errorf("event %s: %w", e.ID, core.ErrUnknownKind)
	}
	return nil
}

// ToJSON converts the event to JSON bytes
func (e *MovementEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// MovementEventFromJSON decodes and validates an event.
func MovementEventFromJSON(data []byte) (*MovementEvent, error) {
	var ev MovementEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	return &ev, nil
}
