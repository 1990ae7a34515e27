package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"presupuesto/internal/amqp"
	"presupuesto/internal/core"
	"presupuesto/internal/store"
)

// MirrorWorker replays movement events into a second backend. Handling is
// idempotent: redelivered events leave the mirror unchanged.
type MirrorWorker struct {
	target store.Adapter
}

func NewMirrorWorker(target store.Adapter) *MirrorWorker {
	return &MirrorWorker{target: target}
}

// HandleEvent applies ev to the mirror. A returned error requeues the
// event.
func (w *MirrorWorker) HandleEvent(ctx context.Context, ev *amqp.MovementEvent) error {
	l, err := w.target.Load(ctx, ev.User)
	if err != nil {
		return fmt.Errorf("load mirror ledger: %w", err)
	}

	switch ev.Type {
	case amqp.EventCreated:
		err = w.create(ctx, l, ev.Movement())
	case amqp.EventUpdated:
		m := ev.Movement()
		out, updated, ok := l.WithAmount(m.ID, m.Amount)
		if !ok {
			// created event lost or not yet applied
			err = w.create(ctx, l, m)
			break
		}
		err = w.target.Update(ctx, out, updated)
	case amqp.EventDeleted:
		out, n := l.Without(ev.ID)
		if n == 0 {
			slog.InfoContext(ctx, "Movement already absent from mirror", "user", ev.User, "id", ev.ID)
			return nil
		}
		err = w.target.Remove(ctx, out, ev.ID)
	default:
		slog.WarnContext(ctx, "Ignoring unknown event type", "type", ev.Type, "id", ev.ID)
		return nil
	}

	if errors.Is(err, core.ErrNotFound) {
		slog.WarnContext(ctx, "Mirror row disappeared while applying event", "type", ev.Type, "id", ev.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("apply %s event %s: %w", ev.Type, ev.ID, err)
	}
	slog.InfoContext(ctx, "Mirrored movement event", "type", ev.Type, "user", ev.User, "id", ev.ID)
	return nil
}

func (w *MirrorWorker) create(ctx context.Context, l core.Ledger, m core.Movement) error {
	if _, ok := l.Find(m.ID); ok {
		slog.InfoContext(ctx, "Movement already mirrored", "user", l.User, "id", m.ID)
		return nil
	}
	return w.target.Append(ctx, l.WithAppended(m), m)
}

// ReconcileResult counts changes made by Reconcile.
type ReconcileResult struct {
	Users   int
	Added   int
	Updated int
	Removed int
}

// Reconcile makes the mirror match source for every user source knows.
// It backs up event delivery in case messages were lost.
func (w *MirrorWorker) Reconcile(ctx context.Context, source store.Adapter, users store.UserLister) (ReconcileResult, error) {
	var res ReconcileResult
	names, err := users.Users(ctx)
	if err != nil {
		return res, fmt.Errorf("list users: %w", err)
	}
	for _, user := range names {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := w.reconcileUser(ctx, source, user, &res); err != nil {
			slog.ErrorContext(ctx, "Failed to reconcile user", "user", user, "error", err)
			continue
		}
		res.Users++
	}
	if res.Added+res.Updated+res.Removed > 0 {
		slog.InfoContext(ctx, "Reconciled mirror",
			"users", res.Users,
			"added", res.Added,
			"updated", res.Updated,
			"removed", res.Removed)
	}
	return res, nil
}

func (w *MirrorWorker) reconcileUser(ctx context.Context, source store.Adapter, user string, res *ReconcileResult) error {
	want, err := source.Load(ctx, user)
	if err != nil {
		return fmt.Errorf("load source: %w", err)
	}
	have, err := w.target.Load(ctx, user)
	if err != nil {
		return fmt.Errorf("load mirror: %w", err)
	}

	wanted, order := byID(want)
	mirrored, _ := byID(have)

	for id, n := range countIDs(have) {
		if _, ok := wanted[id]; ok {
			continue
		}
		out, _ := have.Without(id)
		if err := w.target.Remove(ctx, out, id); err != nil && !errors.Is(err, core.ErrNotFound) {
			return err
		}
		have = out
		res.Removed += n
	}

	for _, id := range order {
		src, dst := wanted[id], mirrored[id]
		switch {
		case sameOccurrences(src, dst):
		case len(src) == 1 && len(dst) == 1 && src[0].Kind == dst[0].Kind:
			out, updated, _ := have.WithAmount(id, src[0].Amount)
			if err := w.target.Update(ctx, out, updated); err != nil {
				return err
			}
			have = out
			res.Updated++
		default:
			// Ids shared by several legacy records are rewritten as a group.
			if len(dst) > 0 {
				out, n := have.Without(id)
				if err := w.target.Remove(ctx, out, id); err != nil && !errors.Is(err, core.ErrNotFound) {
					return err
				}
				have = out
				res.Removed += n
			}
			for _, m := range src {
				out := have.WithAppended(m)
				if err := w.target.Append(ctx, out, m); err != nil {
					return err
				}
				have = out
				res.Added++
			}
		}
	}
	return nil
}

// byID groups the movements of l by id, keeping ledger order within each
// group. order lists ids by first appearance.
func byID(l core.Ledger) (groups map[string][]core.Movement, order []string) {
	groups = map[string][]core.Movement{}
	for _, m := range l.All() {
		if _, seen := groups[m.ID]; !seen {
			order = append(order, m.ID)
		}
		groups[m.ID] = append(groups[m.ID], m)
	}
	return groups, order
}

func countIDs(l core.Ledger) map[string]int {
	counts := map[string]int{}
	for _, m := range l.All() {
		counts[m.ID]++
	}
	return counts
}

// sameOccurrences compares two groups sharing an id by kind and amount.
func sameOccurrences(a, b []core.Movement) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Kind != b[i].Kind || a[i].Amount != b[i].Amount {
			return false
		}
	}
	return true
}
