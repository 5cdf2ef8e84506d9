package http

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"fluxo/internal/log"
	"fluxo/internal/middleware/ratelimit"
	"fluxo/internal/middleware/security"
	"fluxo/internal/services"
	"fluxo/internal/store"
)

// Deps are the collaborators the handlers need. Writer is nil for read-only
// backends, which turns manual entry into a 501.
type Deps struct {
	Dashboard *services.DashboardService
	Reports   *services.ReportService
	Writer    store.Writer
	Ready     func(ctx context.Context) error
	Location  *time.Location
	// Now defaults to time.Now.
	Now func() time.Time
}

type Server struct {
	http.Server
	deps    Deps
	limiter *ratelimit.Limiter
	logger  *log.Logger
}

func NewServer(addr string, deps Deps, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.NewDefault()
	}
	if deps.Location == nil {
		deps.Location = time.Local
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	s := &Server{
		deps:    deps,
		limiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		logger:  logger.WithComponent(log.ComponentHTTP),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(log.Middleware(s.logger))
	r.Use(log.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(security.Headers(security.DefaultHeadersConfig()))

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/transactions", s.handleListTransactions)
		r.With(s.limiter.Middleware(remoteHost, s.handleRateLimited)).
			Post("/transactions", s.handleCreateTransaction)
		r.Get("/report", s.handleReport)
		r.Get("/report.csv", s.handleReportCSV)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.respond(w, r, ErrorResponse(http.StatusNotFound, "not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.respond(w, r, ErrorResponse(http.StatusMethodNotAllowed, "method not allowed"))
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown stops the limiter sweeper and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.Server.Shutdown(ctx)
}

// remoteHost keys rate limiting on the address RealIP resolved.
func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
