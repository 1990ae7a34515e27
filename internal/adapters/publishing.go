package adapters

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"presupuesto/internal/amqp"
	"presupuesto/internal/core"
	"presupuesto/internal/store"
)

// Publisher sends movement events to the broker.
type Publisher interface {
	Publish(ctx context.Context, ev *amqp.MovementEvent) error
}

// PublishingAdapter wraps a storage adapter and publishes a change event
// after every successful write. Publish failures are logged and never
// fail the write, since the movement is already persisted.
type PublishingAdapter struct {
	next      store.Adapter
	publisher Publisher
}

var (
	_ store.Adapter    = (*PublishingAdapter)(nil)
	_ store.UserLister = (*PublishingAdapter)(nil)
)

func NewPublishingAdapter(next store.Adapter, publisher Publisher) *PublishingAdapter {
	return &PublishingAdapter{next: next, publisher: publisher}
}

func (a *PublishingAdapter) Load(ctx context.Context, user string) (core.Ledger, error) {
	return a.next.Load(ctx, user)
}

func (a *PublishingAdapter) Append(ctx context.Context, l core.Ledger, m core.Movement) error {
	if err := a.next.Append(ctx, l, m); err != nil {
		return err
	}
	a.publish(ctx, amqp.NewMovementEvent(amqp.EventCreated, l.User, m))
	return nil
}

func (a *PublishingAdapter) Update(ctx context.Context, l core.Ledger, m core.Movement) error {
	if err := a.next.Update(ctx, l, m); err != nil {
		return err
	}
	a.publish(ctx, amqp.NewMovementEvent(amqp.EventUpdated, l.User, m))
	return nil
}

func (a *PublishingAdapter) Remove(ctx context.Context, l core.Ledger, id string) error {
	if err := a.next.Remove(ctx, l, id); err != nil {
		return err
	}
	a.publish(ctx, amqp.NewMovementEvent(amqp.EventDeleted, l.User, core.Movement{ID: id}))
	return nil
}

// Ping forwards to the wrapped adapter when it supports it.
func (a *PublishingAdapter) Ping(ctx context.Context) error {
	if p, ok := a.next.(store.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Users forwards to the wrapped adapter.
func (a *PublishingAdapter) Users(ctx context.Context) ([]string, error) {
	if u, ok := a.next.(store.UserLister); ok {
		return u.Users(ctx)
	}
	return nil, fmt.Errorf("%T cannot list users", a.next)
}

// Close closes the wrapped adapter and the publisher when they hold
// resources.
func (a *PublishingAdapter) Close() error {
	var errs []error
	if c, ok := a.next.(store.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if c, ok := a.publisher.(store.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (a *PublishingAdapter) publish(ctx context.Context, ev *amqp.MovementEvent) {
	if a.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping movement event", "type", ev.Type, "id", ev.ID)
		return
	}
	if err := a.publisher.Publish(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish movement event",
			"type", ev.Type,
			"user", ev.User,
			"id", ev.ID,
			"error", err)
	}
}
