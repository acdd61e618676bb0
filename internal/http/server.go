package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	applog "pocketbook/internal/log"
	"pocketbook/internal/middleware/ratelimit"
	"pocketbook/internal/middleware/security"
	"pocketbook/internal/middleware/trace"
	"pocketbook/internal/services"
	"pocketbook/internal/session"
)

// Services groups the application services the API exposes.
type Services struct {
	Users        *services.UserService
	Expenses     *services.ExpenseService
	Transactions *services.TransactionService
	Reports      *services.ReportService
	Sessions     *services.SessionManager
}

// Options tunes the server; zero values pick defaults.
type Options struct {
	RateLimitPerMinute int
	// Provider resolves the signed-in user; defaults to the X-User-ID header.
	Provider session.Provider
	// Now decides "today" for reports and session materialization.
	Now    func() time.Time
	Logger *applog.Logger
}

type Server struct {
	http.Server
	svc         Services
	now         func() time.Time
	rateLimiter *ratelimit.Limiter
	tracer      *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, svc Services, opts Options) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Provider == nil {
		opts.Provider = session.HeaderProvider{Header: session.DefaultHeader}
	}
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.Config{Component: applog.ComponentHTTP})
	}

	ips := security.NewClientIPResolver()
	s := &Server{
		svc:         svc,
		now:         opts.Now,
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		tracer:      trace.NewMiddleware(ips.ClientIP),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)

	mux.HandleFunc("POST /api/users", s.handleRegister)
	mux.HandleFunc("GET /api/users/me", s.handleGetProfile)
	mux.HandleFunc("PATCH /api/users/me", s.handleUpdateProfile)

	mux.HandleFunc("GET /api/expenses", s.handleListExpenses)
	mux.HandleFunc("POST /api/expenses", s.handleCreateExpense)
	mux.HandleFunc("PUT /api/expenses/{id}", s.handleUpdateExpense)
	mux.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteExpense)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("GET /api/reports/monthly", s.handleMonthlyReport)
	mux.HandleFunc("GET /api/reports/projection", s.handleProjection)
	mux.HandleFunc("GET /api/reports/remaining", s.handleRemaining)

	mux.HandleFunc("POST /api/session/signin", s.handleSignIn)
	mux.HandleFunc("POST /api/session/signout", s.handleSignOut)

	limitKey := func(r *http.Request) string {
		if id, err := session.UserID(r.Context()); err == nil {
			return "user:" + id
		}
		return "ip:" + ips.ClientIP(r)
	}
	onLimit := func(w http.ResponseWriter, r *http.Request) {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			applog.FieldComponent, applog.ComponentRateLimit, applog.FieldPath, r.URL.Path)
		writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "rate limit exceeded"})
	}

	var handler http.Handler = mux
	handler = s.rateLimiter.Middleware(limitKey, onLimit)(handler)
	handler = session.Middleware(opts.Provider)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.tracer.Middleware(handler)
	handler = applog.Middleware(opts.Logger)(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown stops background routines, disarms session schedules and drains
// the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		if s.svc.Sessions != nil {
			s.svc.Sessions.Close()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// ListenAndServe runs until Shutdown; a clean shutdown is not an error.
func (s *Server) ListenAndServe() error {
	if err := s.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// RequestCount is the number of requests traced so far.
func (s *Server) RequestCount() int64 {
	return s.tracer.GetMetrics().TotalRequests
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
