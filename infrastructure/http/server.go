package http

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	loginflow "condowater/frontend/login"
	sessioncontext "condowater/frontend/shared/context"
	"condowater/infrastructure/audit"
	"condowater/infrastructure/backend"
	"condowater/infrastructure/cache"
	"condowater/infrastructure/metrics"
	"condowater/infrastructure/rbac"
	sessioncookie "condowater/infrastructure/session"
	"condowater/infrastructure/sqlite"
	"condowater/infrastructure/wizard"
	"condowater/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

//go:embed assets/*
var assets embed.FS

var ShutdownTimeout = 2 * time.Second

// Deps are the collaborators the server wires into its handlers.
type Deps struct {
	DB           *sqlite.DB
	SessionCache *cache.UserSessionCache
	UserCache    *cache.UserCache
	RbacCache    *cache.RbacRolesCache
	Rbac         *rbac.Rbac
	Audit        *audit.Service
	Backend      *backend.Client
	Tokens       *sessioncookie.SQLiteTokenStorage
	Wizards      *wizard.Service
	// JWTSecret verifies backend tokens; empty means decode only.
	JWTSecret []byte
}

// Server bundles dependencies and route wiring.
type Server struct {
	Addr   string
	ln     net.Listener
	server *http.Server
	router *chi.Mux

	DB           *sqlite.DB
	SessionCache *cache.UserSessionCache
	UserCache    *cache.UserCache
	RbacCache    *cache.RbacRolesCache
	Rbac         *rbac.Rbac
	Audit        *audit.Service
	Backend      *backend.Client
	Tokens       *sessioncookie.SQLiteTokenStorage
	Wizards      *wizard.Service
	JWTSecret    []byte
}

// NewServer creates a new http server.
func NewServer(addr string, deps Deps) *Server {
	s := &Server{
		Addr:         addr,
		router:       chi.NewRouter(),
		DB:           deps.DB,
		SessionCache: deps.SessionCache,
		UserCache:    deps.UserCache,
		RbacCache:    deps.RbacCache,
		Rbac:         deps.Rbac,
		Audit:        deps.Audit,
		Backend:      deps.Backend,
		Tokens:       deps.Tokens,
		Wizards:      deps.Wizards,
		JWTSecret:    deps.JWTSecret,
		server: &http.Server{
			MaxHeaderBytes: 1 << 20,
		},
	}
	if s.Wizards == nil {
		s.Wizards = wizard.NewService(wizard.NewStore(), wizard.DefaultLoadTimeout)
	}

	// Secure headers first.
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("X-XSS-Protection", "1; mode=block")
			next.ServeHTTP(w, r)
		})
	})

	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Compress(5))
	s.router.Use(s.CSRFMiddleware)

	// Handle root requests - check auth status but don't require it.
	s.router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		sessionCookie, err := r.Cookie(sessioncookie.CookieName)
		if err != nil || sessionCookie.Value == "" {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		session, ok := s.resolveSession(r.Context(), sessionCookie.Value)
		if !ok || session.Expired() {
			http.SetCookie(w, sessioncookie.ClearedSessionCookie())
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		if session.User.Role == rbac.RoleAdmin {
			http.Redirect(w, r, "/console/readings", http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, "/console/units", http.StatusSeeOther)
	})

	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if err := s.DB.Ping(r.Context()); err != nil {
			slog.Error("health: database ping failed", slog.Any("err", err))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("database unavailable"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	s.router.Handle("/metrics", metrics.Handler())

	// Serve assets from embedded FS.
	var assetsFS fs.FS = assets
	if sub, err := fs.Sub(assets, "assets"); err == nil {
		assetsFS = sub
	} else {
		slog.Error("assets subfs init failed; serving fallback fs", slog.Any("err", err))
	}
	s.router.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServer(http.FS(assetsFS))))

	s.RegisterLoginRoutes()

	s.router.Group(func(r chi.Router) {
		r.Route("/console", func(r chi.Router) {
			r.Use(s.AuthenticateMiddleware)
			s.RegisterFrontendRoutes(r)
			s.RegisterReadingsRoutes(r)
			s.RegisterAdminRoutes(r)
		})
	})

	s.server.Handler = s.router
	return s
}

func (s *Server) tokenStorage() sessioncookie.TokenStorage {
	if s.Tokens == nil {
		return nil
	}
	return s.Tokens
}

// AuthenticateMiddleware loads the session, checks its backend token and
// applies RBAC checks. Handlers get a backend client bound to the session's
// token.
func (s *Server) AuthenticateMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionCookie, err := r.Cookie(sessioncookie.CookieName)
		if err != nil || sessionCookie.Value == "" {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		sessionToken := sessionCookie.Value
		session, ok := s.resolveSession(r.Context(), sessionToken)
		if !ok {
			slog.Warn("session not found in cache", slog.String("method", r.Method), slog.String("path", r.URL.Path))
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		if session.Expired() {
			s.endSession(w, r, sessionToken, "")
			return
		}

		claims, err := backend.ParseToken(session.BackendToken, s.JWTSecret)
		if err != nil || claims.Expired(time.Now()) {
			slog.Info("backend token missing or expired", slog.String("session_id", sessionToken), slog.Any("err", err))
			s.endSession(w, r, sessionToken, "your billing session expired, please log in again")
			return
		}

		path := r.URL.Path
		skipRBAC := false

		if hasRole(session.UserRoles, rbac.RoleAdmin) {
			session.ScreenPermissions = s.RbacCache.GetAllRouteNames()
			skipRBAC = true
		}

		if len(session.ScreenPermissions) == 0 {
			session.ScreenPermissions = s.buildRbacNamedRoutesMap(session.UserRoles)
			if session.ScreenPermissions == nil {
				session.ScreenPermissions = make(map[string]int)
			}
		}

		if !skipRBAC {
			if !s.RbacValidation(session.UserRoles, path, r.Method) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
		}

		ctx := sessioncontext.NewContextWithSession(r.Context(), session)
		if s.Backend != nil {
			tokens := sessioncookie.NewTokenSession(session.ID, session.BackendToken, s.tokenStorage())
			ctx = sessioncontext.NewContextWithBackend(ctx, s.Backend.WithTokens(tokens), tokens)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// endSession drops every trace of a console session and sends the user to
// the login page.
func (s *Server) endSession(w http.ResponseWriter, r *http.Request, sessionToken, message string) {
	http.SetCookie(w, sessioncookie.ClearedSessionCookie())
	s.SessionCache.DeleteSessionBySessionToken(sessionToken)
	s.Wizards.Close(sessionToken)
	if err := DeleteSessionByID(s.DB, sessionToken); err != nil {
		slog.Error("cannot delete session from DB", slog.String("session_id", sessionToken), slog.Any("err", err))
	}
	target := "/login"
	if message != "" {
		target += "?error=" + url.QueryEscape(message)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *Server) resolveSession(ctx context.Context, token string) (session models.Session, ok bool) {
	if cached, found := s.SessionCache.FindSessionBySessionToken(token); found {
		return cached, true
	}

	dbSession, err := loginflow.LoadSessionByToken(ctx, s.DB, token)
	if err != nil {
		if err != sql.ErrNoRows {
			slog.Error("load session from db failed", slog.String("session_id", token), slog.Any("err", err))
		}
		return session, false
	}

	s.SessionCache.AddSession(dbSession)
	s.UserCache.Add(dbSession.User.Username, dbSession.User)
	return dbSession, true
}

func hasRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func (s *Server) buildRbacNamedRoutesMap(userRoles []string) map[string]int {
	perms := make(map[string]int)
	resources := s.RbacCache.GetRolesAndResources(userRoles)
	if len(resources) == 0 {
		return nil
	}
	for _, res := range resources {
		perms[res.UserResourceCode] = 1
	}
	return perms
}

func (s *Server) RbacValidation(userRoles []string, url, method string) bool {
	if len(userRoles) == 0 {
		return false
	}
	resources := s.RbacCache.GetRolesAndResources(userRoles)
	if len(resources) == 0 {
		return false
	}
	return rbac.ValidateResourceAccess(resources, url, method)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	var err error
	if s.ln, err = net.Listen("tcp", s.Addr); err != nil {
		return err
	}
	go s.server.Serve(s.ln)
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	if s.ln == nil {
		return fmt.Errorf("HTTP server has not been started or is already stopped")
	}
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %v", err)
	}
	s.ln = nil
	return nil
}

// DeleteSessionByID deletes a session by its ID using a write transaction.
func DeleteSessionByID(db *sqlite.DB, sessionID string) error {
	return loginflow.DeleteSessionByToken(context.Background(), db, sessionID)
}
