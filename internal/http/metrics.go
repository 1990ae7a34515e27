package http

import (
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

type appMetrics struct {
	started          time.Time
	movementsCreated atomic.Int64
	movementsUpdated atomic.Int64
	movementsDeleted atomic.Int64
	cacheHits        atomic.Int64
	cacheMisses      atomic.Int64
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	sec := s.detector.GetMetrics()
	rl := s.rateLimiter.GetMetrics()
	tr := s.tracer.GetMetrics()
	cacheEntries := 0
	if s.summaries != nil {
		cacheEntries = s.summaries.Size()
	}

	metric := func(name, kind, help string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", name, help, name, kind, name, value)
	}

	metric("http_requests_total", "counter", "Total number of HTTP requests", tr.TotalRequests)
	metric("movements_created_total", "counter", "Movements recorded through the API", s.metrics.movementsCreated.Load())
	metric("movements_updated_total", "counter", "Movement amounts edited through the API", s.metrics.movementsUpdated.Load())
	metric("movements_deleted_total", "counter", "Movements deleted through the API", s.metrics.movementsDeleted.Load())
	metric("summary_cache_hits_total", "counter", "Summary cache hits", s.metrics.cacheHits.Load())
	metric("summary_cache_misses_total", "counter", "Summary cache misses", s.metrics.cacheMisses.Load())
	metric("summary_cache_entries", "gauge", "Current summary cache entries", cacheEntries)
	metric("rate_limit_hits_total", "counter", "Total rate limit hits", rl.TotalHits)
	metric("active_rate_limit_clients", "gauge", "Currently tracked rate limit clients", rl.ClientCount)
	metric("suspicious_requests_total", "counter", "Total suspicious requests detected", sec.SuspiciousRequests)
	metric("uptime_seconds", "gauge", "Application uptime in seconds", fmt.Sprintf("%.0f", time.Since(s.metrics.started).Seconds()))
}
