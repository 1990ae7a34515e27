// Package http exposes the ledger as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"presupuesto/internal/cache"
	"presupuesto/internal/ledger"
	"presupuesto/internal/log"
	"presupuesto/internal/middleware/ratelimit"
	"presupuesto/internal/middleware/security"
	"presupuesto/internal/middleware/trace"
)

// Options tunes a Server. Zero values select defaults.
type Options struct {
	Logger *log.Logger
	// SummaryCacheTTL is how long a user's summary is served from memory.
	// Zero disables the cache.
	SummaryCacheTTL time.Duration
	// WriteRateLimit is the number of writes per minute allowed per client.
	WriteRateLimit int
	// Now is the clock used for default date windows.
	Now func() time.Time
}

type Server struct {
	http.Server
	store  *ledger.Store
	logger *log.Logger
	now    func() time.Time

	summaries *cache.LRUCache[summaryJSON]
	caches    *cache.Manager
	// generations counts writes per user; a summary computed before a
	// write must not be cached after it.
	genMu       sync.Mutex
	generations map[string]uint64

	rateLimiter *ratelimit.Limiter
	detector    *security.Detector
	tracer      *trace.Middleware
	metrics     appMetrics

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, st *ledger.Store, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	rl := ratelimit.DefaultConfig()
	if opts.WriteRateLimit > 0 {
		rl.RequestsPerMinute = opts.WriteRateLimit
	}

	s := &Server{
		store:       st,
		logger:      opts.Logger.WithComponent(log.ComponentHTTP),
		now:         opts.Now,
		caches:      cache.NewManager(),
		generations: map[string]uint64{},
		rateLimiter: ratelimit.NewLimiter(rl),
		detector:    security.NewDetector(),
		metrics:     appMetrics{started: time.Now()},
	}
	s.tracer = trace.NewMiddleware(opts.Logger, s.detector.ExtractClientIP)

	if opts.SummaryCacheTTL > 0 {
		s.summaries = cache.NewLRUCache[summaryJSON](256, opts.SummaryCacheTTL)
		s.caches.Register(s.summaries)
		s.caches.StartCleanup(5 * time.Minute)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/categories", s.handleCategories)
	mux.HandleFunc("GET /api/users/{user}/summary", s.handleSummary)
	mux.HandleFunc("GET /api/users/{user}/movements", s.handleListMovements)
	mux.HandleFunc("POST /api/users/{user}/movements", s.handleCreateMovement)
	mux.HandleFunc("PATCH /api/users/{user}/movements/{id}", s.handleUpdateMovement)
	mux.HandleFunc("DELETE /api/users/{user}/movements/{id}", s.handleDeleteMovement)
	mux.HandleFunc("GET /api/users/{user}/export", s.handleExport)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limit := s.rateLimiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, s.detector.ExtractClientIP(r),
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path)
		writeJSON(w, http.StatusTooManyRequests, errorJSON{
			Error:     "rate limit exceeded, try again later",
			RequestID: trace.GetRequestID(r.Context()),
		})
	})

	var h http.Handler = mux
	h = limit(h)
	h = s.detector.Middleware(h)
	h = headers.Middleware(h)
	h = s.tracer.Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown stops background cleanup loops and gracefully shuts down the
// HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.rateLimiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) cachedSummary(user string) (summaryJSON, bool) {
	if s.summaries == nil {
		return summaryJSON{}, false
	}
	sum, ok := s.summaries.Get(user)
	if ok {
		s.metrics.cacheHits.Add(1)
	} else {
		s.metrics.cacheMisses.Add(1)
	}
	return sum, ok
}

// generation returns the write generation of user, to be passed to
// storeSummary once the summary is computed.
func (s *Server) generation(user string) uint64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	return s.generations[user]
}

// storeSummary caches sum unless user was written to since gen.
func (s *Server) storeSummary(user string, sum summaryJSON, gen uint64) {
	if s.summaries == nil {
		return
	}
	s.genMu.Lock()
	defer s.genMu.Unlock()
	if s.generations[user] == gen {
		s.summaries.Set(user, sum)
	}
}

// invalidate drops cached data of user after a write.
func (s *Server) invalidate(user string) {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	s.generations[user]++
	if s.summaries != nil {
		s.summaries.Delete(user)
	}
}
