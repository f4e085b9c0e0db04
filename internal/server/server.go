// Package server serves the latest page view report over HTTP and websockets.
package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/pprof"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/atikulmunna/pageview/internal/aggregator"
	"github.com/atikulmunna/pageview/internal/hub"
	"github.com/atikulmunna/pageview/internal/metrics"
	"github.com/atikulmunna/pageview/internal/output"
	"github.com/atikulmunna/pageview/internal/report"
)

const reportKey = "report"

// Loader runs one ingestion pass and builds its report.
type Loader func(ctx context.Context) (*report.Report, error)

// Options configures the server.
type Options struct {
	Addr string
	// CacheTTL is how long a report is served before the next request reloads it.
	// Zero keeps it until an explicit refresh.
	CacheTTL time.Duration
}

// Server holds the Gin engine and dependencies for the report API.
type Server struct {
	engine  *gin.Engine
	hub     *hub.Hub
	updates chan *report.Report
	loader  Loader
	cache   *gocache.Cache
	metrics *metrics.Handler
	logger  *zap.Logger
	opts    Options
	started time.Time

	refreshMu sync.Mutex
}

// New creates a server. A nil metrics handler gets a fresh one; a nil logger discards logs.
func New(loader Loader, m *metrics.Handler, logger *zap.Logger, opts Options) *Server {
	if m == nil {
		m = metrics.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	// Disable automatic redirects that cause 301 issues.
	engine.RedirectTrailingSlash = false
	engine.RedirectFixedPath = false

	updates := make(chan *report.Report, 8)
	s := &Server{
		engine:  engine,
		hub:     hub.New(updates, logger),
		updates: updates,
		loader:  loader,
		cache:   gocache.New(ttl, time.Minute),
		metrics: m,
		logger:  logger,
		opts:    opts,
		started: time.Now(),
	}

	engine.Use(s.countRequests)
	s.setupRoutes()
	return s
}

// Handler returns the HTTP handler, for embedding or tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) setupRoutes() {
	s.engine.GET("/healthz", s.handleHealth)

	api := s.engine.Group("/api")
	api.GET("/report", s.handleReport)
	api.GET("/pages", s.handlePages)
	api.GET("/warnings", s.handleWarnings)
	api.POST("/refresh", s.handleRefresh)

	s.engine.GET("/ws", s.handleWebSocket)
	s.engine.GET("/metrics", gin.WrapH(s.metrics.HTTPHandler()))

	// pprof profiling endpoints.
	s.engine.GET("/debug/pprof/", gin.WrapF(pprof.Index))
	s.engine.GET("/debug/pprof/cmdline", gin.WrapF(pprof.Cmdline))
	s.engine.GET("/debug/pprof/profile", gin.WrapF(pprof.Profile))
	s.engine.GET("/debug/pprof/symbol", gin.WrapF(pprof.Symbol))
	s.engine.GET("/debug/pprof/trace", gin.WrapF(pprof.Trace))
	s.engine.GET("/debug/pprof/allocs", gin.WrapH(pprof.Handler("allocs")))
	s.engine.GET("/debug/pprof/heap", gin.WrapH(pprof.Handler("heap")))
	s.engine.GET("/debug/pprof/goroutine", gin.WrapH(pprof.Handler("goroutine")))
}

// Start runs the hub and the HTTP server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	go s.hub.Start(ctx)

	srv := &http.Server{Addr: s.opts.Addr, Handler: s.engine}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("server listening", zap.String("addr", s.opts.Addr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// Refresh reloads the report, caches it and pushes it to websocket subscribers.
func (s *Server) Refresh(ctx context.Context) (*report.Report, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()
	return s.refreshLocked(ctx)
}

func (s *Server) refreshLocked(ctx context.Context) (*report.Report, error) {
	start := time.Now()
	rep, err := s.loader(ctx)
	s.metrics.ObserveIngest(rep, time.Since(start))
	if err != nil {
		s.logger.Error("ingestion failed", zap.Error(err))
		return nil, err
	}

	s.cache.SetDefault(reportKey, rep)
	select {
	case s.updates <- rep:
	default:
		s.logger.Warn("report update queue full, skipping push")
	}
	s.logger.Info("report refreshed",
		zap.Int("pages", rep.Totals.Pages),
		zap.Int("visits", rep.Totals.Visits),
		zap.Int("warnings", rep.Warnings.Total),
		zap.Duration("took", time.Since(start)))
	return rep, nil
}

// current returns the cached report, loading it when absent or expired.
func (s *Server) current(ctx context.Context) (*report.Report, error) {
	if v, ok := s.cache.Get(reportKey); ok {
		return v.(*report.Report), nil
	}

	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()
	if v, ok := s.cache.Get(reportKey); ok {
		return v.(*report.Report), nil
	}
	return s.refreshLocked(ctx)
}

func (s *Server) countRequests(c *gin.Context) {
	c.Next()
	s.metrics.IncRequests(c.Writer.Status())
}

func (s *Server) handleHealth(c *gin.Context) {
	_, cached := s.cache.Get(reportKey)
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"uptime":      time.Since(s.started).Round(time.Second).String(),
		"cached":      cached,
		"subscribers": s.hub.Subscribers(),
		"dropped":     s.hub.Dropped(),
	})
}

func (s *Server) handleReport(c *gin.Context) {
	rep, ok := s.load(c)
	if !ok {
		return
	}

	format := strings.ToLower(c.DefaultQuery("format", "json"))
	r, err := output.New(format, c.Writer, output.Options{Verbosity: output.Verbose})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Type", contentTypes[format])
	c.Status(http.StatusOK)
	if err := r.Render(rep); err != nil {
		s.logger.Warn("render failed", zap.Error(err))
	}
}

var contentTypes = map[string]string{
	"json": "application/json; charset=utf-8",
	"yaml": "application/yaml; charset=utf-8",
	"yml":  "application/yaml; charset=utf-8",
	"text": "text/plain; charset=utf-8",
}

func (s *Server) handlePages(c *gin.Context) {
	metric, err := aggregator.ParseMetric(c.DefaultQuery("view", "visits"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
	}

	rep, ok := s.load(c)
	if !ok {
		return
	}

	pages := aggregator.Rank(rep.Counts, metric)
	if limit > 0 && limit < len(pages) {
		pages = pages[:limit]
	}
	c.JSON(http.StatusOK, gin.H{
		"view":  metric.String(),
		"pages": pages,
	})
}

func (s *Server) handleWarnings(c *gin.Context) {
	rep, ok := s.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, rep.Warnings)
}

func (s *Server) handleRefresh(c *gin.Context) {
	rep, err := s.Refresh(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"generated_at": rep.GeneratedAt,
		"totals":       rep.Totals,
		"warnings":     rep.Warnings.Total,
	})
}

// load writes an error response and returns false when no report can be produced.
func (s *Server) load(c *gin.Context) (*report.Report, bool) {
	rep, err := s.current(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	return rep, true
}
