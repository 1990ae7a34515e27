package http

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"time"

	"presupuesto/internal/core"
	"presupuesto/internal/export"
	"presupuesto/internal/log"
	"presupuesto/internal/store"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": s.now().Format(time.RFC3339),
		"uptime":    time.Since(s.metrics.started).Round(time.Second).String(),
	})
}

// handleReady checks that the storage backend is reachable.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := map[string]any{}

	if p, ok := s.store.Adapter().(store.Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			log.FromContext(ctx).WarnContext(ctx, "Readiness check failed", log.FieldError, err)
			checks["storage"] = "failed: " + err.Error()
			status, code = "not_ready", http.StatusServiceUnavailable
		} else {
			checks["storage"] = "ok"
		}
	} else {
		checks["storage"] = "ok"
	}

	entries := 0
	if s.summaries != nil {
		entries = s.summaries.Size()
	}
	checks["cache"] = map[string]any{"enabled": s.summaries != nil, "entries": entries}
	checks["rate_limiter"] = map[string]any{"active_clients": s.rateLimiter.ActiveClients()}

	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": s.now().Format(time.RFC3339),
		"checks":    checks,
	})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"kinds": categoriesJSON()})
}

// handleSummary returns totals, balance and chart data over the full ledger.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	user := r.PathValue("user")
	if sum, ok := s.cachedSummary(user); ok {
		writeJSON(w, http.StatusOK, sum)
		return
	}

	gen := s.generation(user)
	l, err := s.store.Load(r.Context(), user)
	if err != nil {
		writeError(w, r, log.OpSummary, err)
		return
	}
	all := l.All()
	sum := toSummaryJSON(user, len(all), core.Summarize(all))
	s.storeSummary(user, sum, gen)
	writeJSON(w, http.StatusOK, sum)
}

// handleListMovements returns one page of the filtered table together with
// the totals of the whole filtered set.
func (s *Server) handleListMovements(w http.ResponseWriter, r *http.Request) {
	user := r.PathValue("user")
	view, err := parseViewState(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}

	l, err := s.store.Load(r.Context(), user)
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}

	rows := view.rows(l)
	page, info := core.Paginate(rows, view.Page, view.PageSize)
	writeJSON(w, http.StatusOK, tableJSON{
		User: user,
		View: view,
		Rows: toMovementsJSON(page),
		Page: pageJSON{
			Page:       info.Page,
			PageSize:   info.PageSize,
			TotalRows:  info.TotalRows,
			TotalPages: info.TotalPages,
			HasNext:    info.HasNext(),
		},
		Totals: toTotalsJSON(core.ComputeTotals(rows)),
	})
}

func (s *Server) handleCreateMovement(w http.ResponseWriter, r *http.Request) {
	user := r.PathValue("user")
	var req createMovementRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	entry, err := req.entry()
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}

	l, err := s.store.Load(r.Context(), user)
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	_, m, err := s.store.Record(r.Context(), l, entry)
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}

	s.invalidate(user)
	s.metrics.movementsCreated.Add(1)
	log.NewStructuredLogger(log.FromContext(r.Context())).
		LogMovementChanged(r.Context(), log.OpCreate, user, m.ID, string(m.Kind), m.Category, m.Amount.Cents)

	w.Header().Set("Location", "/api/users/"+user+"/movements/"+m.ID)
	writeJSON(w, http.StatusCreated, toMovementJSON(m))
}

func (s *Server) handleUpdateMovement(w http.ResponseWriter, r *http.Request) {
	user, id := r.PathValue("user"), r.PathValue("id")
	var req updateMovementRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	if req.Amount == nil {
		writeError(w, r, log.OpUpdate, core.ErrInvalidInput)
		return
	}

	l, err := s.store.Load(r.Context(), user)
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	_, m, err := s.store.Update(r.Context(), l, id, core.Money(*req.Amount))
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}

	s.invalidate(user)
	s.metrics.movementsUpdated.Add(1)
	log.NewStructuredLogger(log.FromContext(r.Context())).
		LogMovementChanged(r.Context(), log.OpUpdate, user, m.ID, string(m.Kind), m.Category, m.Amount.Cents)

	writeJSON(w, http.StatusOK, toMovementJSON(m))
}

func (s *Server) handleDeleteMovement(w http.ResponseWriter, r *http.Request) {
	user, id := r.PathValue("user"), r.PathValue("id")

	l, err := s.store.Load(r.Context(), user)
	if err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}
	if _, err := s.store.Remove(r.Context(), l, id); err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}

	s.invalidate(user)
	s.metrics.movementsDeleted.Add(1)
	log.NewStructuredLogger(log.FromContext(r.Context())).
		LogMovementChanged(r.Context(), log.OpDelete, user, id, "", "", 0)

	w.WriteHeader(http.StatusNoContent)
}

// handleExport serializes the filtered table, unpaginated, with its totals.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	user := r.PathValue("user")
	q := r.URL.Query()

	format := export.CSV
	if v := strings.TrimSpace(q.Get("format")); v != "" {
		f, err := export.ParseFormat(v)
		if err != nil {
			writeError(w, r, log.OpExport, err)
			return
		}
		format = f
	}
	view, err := parseViewState(q, s.now())
	if err != nil {
		writeError(w, r, log.OpExport, err)
		return
	}

	l, err := s.store.Load(r.Context(), user)
	if err != nil {
		writeError(w, r, log.OpExport, err)
		return
	}

	table := export.NewTable(user, view.Range(), view.rows(l))
	var buf bytes.Buffer
	if err := export.Write(&buf, format, table); err != nil {
		writeError(w, r, log.OpExport, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Table exported",
		log.FieldUser, user,
		log.FieldFormat, format,
		log.FieldRows, len(table.Rows))

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(table, format)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
