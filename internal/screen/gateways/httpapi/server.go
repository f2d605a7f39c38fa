// Package httpapi serves the UI bridge and the screening entry point as a
// JSON API over HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/haukened/ringguard/internal/screen/common/log"
)

// DefaultShutdownTimeout bounds Stop.
const DefaultShutdownTimeout = 5 * time.Second

// Metrics receives HTTP observations and exposes the scrape endpoint.
type Metrics interface {
	RecordHTTPRequest(route, method, status string)
	RecordRateLimited()
	Handler() http.Handler
}

// Options configures a Server.
type Options struct {
	Addr      string
	Bridge    Bridge
	Screener  Screener
	Metrics   Metrics
	Logger    log.Logger
	RateLimit int // requests per minute per client
	Burst     int
}

// Server owns the echo instance and its listener.
type Server struct {
	addr    string
	echo    *echo.Echo
	limiter *RateLimiter
	logger  log.Logger

	mu       sync.RWMutex
	running  bool
	listener net.Listener
	done     chan struct{}
}

// NewServer builds the router. Nothing listens until Start.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	s := &Server{
		addr:    opts.Addr,
		limiter: NewRateLimiter(opts.RateLimit, opts.Burst),
		logger:  logger,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = newRequestValidator()
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(logger, opts.Metrics))

	h := NewHandler(opts.Bridge, opts.Screener, logger)
	e.GET("/healthz", h.Healthz)
	if opts.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(opts.Metrics.Handler()))
	}

	api := e.Group("/api/v1", rateLimitMiddleware(s.limiter, opts.Metrics, logger))
	api.GET("/blocking", h.GetBlocking)
	api.PUT("/blocking", h.SetBlocking)
	api.GET("/schedule", h.GetSchedule)
	api.PUT("/schedule", h.SetSchedule)
	api.DELETE("/schedule/days/:day", h.RemoveScheduleDay)
	api.GET("/log", h.GetLog)
	api.DELETE("/log", h.ClearLog)
	api.POST("/log/remove", h.RemoveLogEntries)
	api.GET("/log/groups", h.GetLogGroups)
	api.GET("/log/count", h.GetLogCount)
	api.GET("/log/stats", h.GetLogStats)
	api.GET("/whitelist", h.GetWhitelist)
	api.POST("/whitelist", h.AddWhitelist)
	api.POST("/whitelist/remove", h.RemoveWhitelist)
	api.GET("/role", h.GetRole)
	api.POST("/role/request", h.RequestRole)
	api.POST("/role/resolve", h.ResolveRole)
	api.POST("/screen", h.Screen)

	s.echo = e
	return s
}

// ServeHTTP lets the router be exercised without a listener.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start binds the listener and serves in the background. The server stops
// when ctx is cancelled or Stop is called.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("HTTP server already running")
	}
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = ln
	s.running = true
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		if err := s.echo.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error(map[string]any{"error": err}, "HTTP server failed")
		}
	}()
	go func() {
		select {
		case <-ctx.Done():
			_ = s.Stop()
		case <-s.done:
		}
	}()

	s.logger.Info(map[string]any{"address": ln.Addr().String()}, "HTTP server started")
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.limiter.Stop()
	if !s.running {
		return nil
	}
	s.running = false

	ctx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	err := s.echo.Shutdown(ctx)
	<-s.done
	s.logger.Info(map[string]any{"address": s.listener.Addr().String()}, "HTTP server stopped")
	return err
}

// Address returns the bound address once started, or the configured one.
func (s *Server) Address() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// requestLogger logs each request and counts it by route template.
func requestLogger(logger log.Logger, m Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			req := c.Request()
			res := c.Response()
			if m != nil {
				m.RecordHTTPRequest(c.Path(), req.Method, strconv.Itoa(res.Status))
			}
			logger.Debug(map[string]any{
				"method":     req.Method,
				"path":       req.URL.Path,
				"status":     res.Status,
				"latency":    time.Since(start).String(),
				"request_id": res.Header().Get(echo.HeaderXRequestID),
			}, "request")
			return nil
		}
	}
}
