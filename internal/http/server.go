// Package http exposes the JSON API: auth, family membership, wallets,
// categories, transactions, budgets, recurring templates, goals and
// reports.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"hearth/internal/auth"
	"hearth/internal/middleware/ratelimit"
	"hearth/internal/middleware/security"
	"hearth/internal/middleware/trace"
	"hearth/internal/services"
	"hearth/internal/storage"
)

// Deps carries everything the server needs.
type Deps struct {
	Auth         *auth.Manager
	Store        *storage.Store
	Families     *services.FamilyService
	Transactions *services.TransactionService
	Budgets      *services.BudgetService
	Goals        *services.GoalService
	Reports      *services.ReportService
}

type Server struct {
	http.Server

	auth         *auth.Manager
	store        *storage.Store
	families     *services.FamilyService
	transactions *services.TransactionService
	budgets      *services.BudgetService
	goals        *services.GoalService
	reports      *services.ReportService

	rateLimiter      *ratelimit.Limiter
	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer wires routes and the middleware chain, returning a server
// ready for ListenAndServe.
func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	s := &Server{
		auth:             deps.Auth,
		store:            deps.Store,
		families:         deps.Families,
		transactions:     deps.Transactions,
		budgets:          deps.Budgets,
		goals:            deps.Goals,
		reports:          deps.Reports,
		rateLimiter:      ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		stopCacheCleanup: make(chan struct{}),
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.HandleFunc("POST /auth/logout", s.handleLogout)
	mux.HandleFunc("GET /auth/me", s.withSession(s.handleMe))

	mux.HandleFunc("POST /family", s.withSession(s.handleCreateFamily))
	mux.HandleFunc("POST /family/join", s.withSession(s.handleJoinFamily))
	mux.HandleFunc("GET /family", s.withFamily(s.handleGetFamily))
	mux.HandleFunc("GET /family/members", s.withFamily(s.handleListMembers))
	mux.HandleFunc("DELETE /family/members/{id}", s.withFamily(s.handleRemoveMember))
	mux.HandleFunc("POST /family/invites", s.withFamily(s.handleCreateInvite))
	mux.HandleFunc("GET /family/invites", s.withFamily(s.handleListInvites))
	mux.HandleFunc("DELETE /family/invites/{id}", s.withFamily(s.handleRevokeInvite))

	mux.HandleFunc("POST /wallets", s.withFamily(s.handleCreateWallet))
	mux.HandleFunc("GET /wallets", s.withFamily(s.handleListWallets))
	mux.HandleFunc("GET /wallets/{id}", s.withFamily(s.handleGetWallet))
	mux.HandleFunc("PUT /wallets/{id}", s.withFamily(s.handleUpdateWallet))
	mux.HandleFunc("DELETE /wallets/{id}", s.withFamily(s.handleDeleteWallet))

	mux.HandleFunc("POST /categories", s.withFamily(s.handleCreateCategory))
	mux.HandleFunc("GET /categories", s.withFamily(s.handleListCategories))
	mux.HandleFunc("PUT /categories/{id}", s.withFamily(s.handleUpdateCategory))
	mux.HandleFunc("DELETE /categories/{id}", s.withFamily(s.handleDeleteCategory))

	mux.HandleFunc("POST /transactions", s.withFamily(s.handleCreateTransaction))
	mux.HandleFunc("GET /transactions", s.withFamily(s.handleListTransactions))
	mux.HandleFunc("GET /transactions/{id}", s.withFamily(s.handleGetTransaction))
	mux.HandleFunc("PUT /transactions/{id}", s.withFamily(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /transactions/{id}", s.withFamily(s.handleDeleteTransaction))

	mux.HandleFunc("POST /budgets", s.withFamily(s.handleCreateBudget))
	mux.HandleFunc("GET /budgets", s.withFamily(s.handleListBudgets))
	mux.HandleFunc("GET /budgets/status", s.withFamily(s.handleBudgetStatuses))
	mux.HandleFunc("GET /budgets/{id}", s.withFamily(s.handleGetBudget))
	mux.HandleFunc("GET /budgets/{id}/status", s.withFamily(s.handleBudgetStatus))
	mux.HandleFunc("PUT /budgets/{id}", s.withFamily(s.handleUpdateBudget))
	mux.HandleFunc("DELETE /budgets/{id}", s.withFamily(s.handleDeleteBudget))

	mux.HandleFunc("POST /recurring", s.withFamily(s.handleCreateRecurring))
	mux.HandleFunc("GET /recurring", s.withFamily(s.handleListRecurring))
	mux.HandleFunc("GET /recurring/{id}", s.withFamily(s.handleGetRecurring))
	mux.HandleFunc("PUT /recurring/{id}", s.withFamily(s.handleUpdateRecurring))
	mux.HandleFunc("DELETE /recurring/{id}", s.withFamily(s.handleDeleteRecurring))

	mux.HandleFunc("POST /goals", s.withFamily(s.handleCreateGoal))
	mux.HandleFunc("GET /goals", s.withFamily(s.handleListGoals))
	mux.HandleFunc("GET /goals/{id}", s.withFamily(s.handleGetGoal))
	mux.HandleFunc("PUT /goals/{id}", s.withFamily(s.handleUpdateGoal))
	mux.HandleFunc("DELETE /goals/{id}", s.withFamily(s.handleDeleteGoal))
	mux.HandleFunc("POST /goals/{id}/contributions", s.withFamily(s.handleContribute))

	mux.HandleFunc("GET /reports/summary", s.withFamily(s.handleMonthSummary))
	mux.HandleFunc("POST /reports/exports", s.withFamily(s.handleEnqueueExport))
	mux.HandleFunc("GET /reports/exports", s.withFamily(s.handleListExports))
	mux.HandleFunc("GET /reports/exports/{id}", s.withFamily(s.handleGetExport))
	mux.HandleFunc("GET /reports/exports/{id}/download", s.withFamily(s.handleDownloadExport))
	mux.HandleFunc("POST /reports/digest", s.withFamily(s.handleEnqueueDigest))

	traceMW := trace.NewMiddleware(clientIP)
	securityMW := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limitMW := s.rateLimiter.Middleware(clientIP, nil)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           traceMW.Middleware(limitMW(securityMW.Middleware(mux))),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.startCacheCleanup()

	return s
}

func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

// sessionHandler receives the verified session along with the request.
type sessionHandler func(http.ResponseWriter, *http.Request, auth.Session)

// withSession verifies the session cookie; failures clear the cookie.
func (s *Server) withSession(next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.auth.FromRequest(r)
		if err != nil {
			http.SetCookie(w, s.auth.ClearCookie())
			respond(w, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
			return
		}
		next(w, r, sess)
	}
}

// withFamily additionally requires family membership.
func (s *Server) withFamily(next sessionHandler) http.HandlerFunc {
	return s.withSession(func(w http.ResponseWriter, r *http.Request, sess auth.Session) {
		if sess.FamilyID == 0 {
			respond(w, http.StatusForbidden, errorResponse{Error: "join a family first"})
			return
		}
		next(w, r, sess)
	})
}

func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if s.reports != nil {
				if cleaned := s.reports.CleanExpired(); cleaned > 0 {
					slog.Debug("Summary cache cleanup completed", "entries_removed", cleaned)
				}
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown stops background routines and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		close(s.stopCacheCleanup)
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		slog.ErrorContext(r.Context(), "Readiness check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
