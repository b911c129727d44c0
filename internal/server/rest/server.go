// Package rest exposes the session API over HTTP using gin.
package rest

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/ministry/internal/logging"
	"github.com/dmitrijs2005/ministry/internal/server/auth"
	"github.com/dmitrijs2005/ministry/internal/server/metrics"
	"github.com/dmitrijs2005/ministry/internal/server/services"
	"github.com/gin-gonic/gin"
)

// SessionAPI is the subset of services.SessionService used by the handlers.
type SessionAPI interface {
	Register(ctx context.Context, in services.RegisterInput) (*services.AuthResult, error)
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*services.RefreshResult, error)
	Logout(ctx context.Context, refreshToken string)
	Me(ctx context.Context, accessToken string) (*services.PublicUser, error)
	Authenticate(accessToken string) (*auth.AccessClaims, error)
	RefreshTTL() time.Duration
}

// Pinger reports database liveness. *sqlx.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// CookieConfig controls the refresh cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

type HTTPServer struct {
	address string
	engine  *gin.Engine
	logger  logging.Logger
}

func NewHTTPServer(address string, l logging.Logger, sessions SessionAPI, db Pinger, m *metrics.Metrics, cookie CookieConfig) *HTTPServer {
	logger := l.With("module", "http_server")
	return &HTTPServer{
		address: address,
		engine:  NewRouter(logger, sessions, db, m, cookie),
		logger:  logger,
	}
}

// NewRouter builds the gin engine with all routes and middleware.
func NewRouter(logger logging.Logger, sessions SessionAPI, db Pinger, m *metrics.Metrics, cookie CookieConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(recovery(logger), requestLogger(logger))
	if m != nil {
		r.Use(observe(m))
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	h := &handler{sessions: sessions, logger: logger, cookie: cookie}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/readyz", readiness(db))

	api := r.Group("/api/auth")
	api.POST("/register", h.register)
	api.POST("/login", h.login)
	api.POST("/refresh", h.refresh)
	api.POST("/logout", h.logout)
	api.GET("/me", RequireAuth(sessions), h.me)

	return r
}

// Handler returns the underlying http.Handler.
func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(context.Background(), "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func readiness(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
