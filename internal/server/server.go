// package server contains the router, middleware & handlers for the songshare webhook service
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songshare/internal/models"
	"github.com/desertthunder/songshare/internal/relay"
	"github.com/desertthunder/songshare/internal/shared"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
// Common middleware includes logging, panic recovery, request ids, etc.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for HTTP request handlers in the webhook service.
// Implementations handle specific endpoints (webhook, diagnostics).
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the method-qualified path patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
// Implementations register handlers, apply middleware, and configure the HTTP server.
type Router interface {
	Use(middleware ...Middleware)                        // Use adds middleware to the router's middleware stack
	HandleFunc(method, path string, fn http.HandlerFunc) // HandleFunc registers fn for the specified method and path
	Handler(handler Handler)                             // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request)    // ServeHTTP implements http.Handler for the entire router
}

// Relayer is the part of [relay.Relay] the HTTP layer calls.
type Relayer interface {
	Handle(ctx context.Context, msg models.InboundMessage) (relay.Outcome, error)
	Track(ctx context.Context, trackID string) (*models.TrackMetadata, error)
	ResolveFresh(ctx context.Context, trackID string) (*relay.Resolution, error)
}

const (
	readTimeout     = 10 * time.Second
	writeTimeout    = 90 * time.Second
	idleTimeout     = 60 * time.Second
	shutdownTimeout = 10 * time.Second
)

// Server serves the webhook and diagnostic routes.
type Server struct {
	addr   string
	router *BasicRouter
	server *http.Server
	logger *log.Logger
}

// New builds a [Server] listening on addr. A nil logger writes to stderr.
func New(addr string, relayer Relayer, logger *log.Logger) *Server {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	logger = shared.WithLogger(logger, "component", "server")

	router := NewBasicRouter()
	router.Use(RequestLogger(logger), Recoverer(logger))

	router.Handler(NewWebhookHandler(relayer, logger))
	router.Handler(NewDiagnosticsHandler(relayer, logger))
	router.HandleFunc(http.MethodGet, "/{$}", rootHandler)

	s := &Server{
		addr:   addr,
		router: router,
		logger: logger,
	}
	s.server = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: readTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
	return s
}

// ServeHTTP implements http.Handler for testing and delegates to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start binds to the configured address and serves until ctx is cancelled.
// Returns nil on clean shutdown.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info("songshare listening", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(shutCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}
