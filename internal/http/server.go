// Package http exposes the expense service as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi"
	chimiddleware "github.com/go-chi/chi/middleware"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
)

// ExpenseService is the subset of services.ExpenseService the API needs.
type ExpenseService interface {
	AddExpense(ctx context.Context, in core.ExpenseInput) (core.Expense, error)
	ListExpenses(ctx context.Context) ([]core.Expense, error)
	GetExpense(ctx context.Context, id int64) (core.Expense, error)
	UpdateExpense(ctx context.Context, id int64, in core.ExpenseInput) (core.Expense, error)
	DeleteExpense(ctx context.Context, id int64) error
	ClearExpenses(ctx context.Context) error
	CategoryTotals(ctx context.Context) ([]core.CategoryAmount, error)
	DailyTotals(ctx context.Context) ([]core.DailyAmount, error)
	Summary(ctx context.Context) (core.Summary, error)
}

type Server struct {
	http.Server
	svc         ExpenseService
	logger      *applog.Logger
	rateLimiter *rateLimiter

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, svc ExpenseService, logger *applog.Logger) *Server {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		svc:         svc,
		logger:      logger.WithComponent(applog.ComponentHTTP),
		rateLimiter: newRateLimiter(),
	}
	s.Handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(applog.Middleware(s.logger))
	r.Use(applog.RequestIDMiddleware)
	r.Use(applog.AccessLog)
	r.Use(chimiddleware.Recoverer)
	r.Use(securityHeaders)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/expenses", func(er chi.Router) {
			er.Get("/", s.handleListExpenses)
			er.With(s.rateLimit).Post("/", s.handleCreateExpense)
			er.With(s.rateLimit).Delete("/", s.handleClearExpenses)

			er.Get("/{id}", s.handleGetExpense)
			er.With(s.rateLimit).Put("/{id}", s.handleUpdateExpense)
			er.With(s.rateLimit).Delete("/{id}", s.handleDeleteExpense)
		})

		r.Get("/summary", s.handleSummary)
		r.Get("/summary/categories", s.handleCategoryTotals)
		r.Get("/summary/daily", s.handleDailyTotals)
		r.Get("/categories", s.handleCategories)
	})

	return r
}

// Shutdown stops background routines and drains the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
