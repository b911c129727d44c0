package rest

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/ministry/internal/common"
	"github.com/dmitrijs2005/ministry/internal/logging"
	"github.com/dmitrijs2005/ministry/internal/server/auth"
	"github.com/dmitrijs2005/ministry/internal/server/metrics"
	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
)

const (
	ctxKeyClaims      = "auth.claims"
	ctxKeyAccessToken = "auth.token"
)

// Authenticator verifies access tokens.
type Authenticator interface {
	Authenticate(accessToken string) (*auth.AccessClaims, error)
}

// RequireAuth rejects requests without a valid "Authorization: Bearer"
// access token. It is what other route groups use to require a session.
func RequireAuth(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(common.AuthorizationHeaderName)
		token, ok := strings.CutPrefix(header, common.BearerPrefix)
		if !ok || token == "" {
			fail(c, http.StatusUnauthorized, msgUnauthorized)
			return
		}

		claims, err := a.Authenticate(token)
		if err != nil {
			fail(c, http.StatusUnauthorized, msgUnauthorized)
			return
		}

		c.Set(ctxKeyClaims, claims)
		c.Set(ctxKeyAccessToken, token)
		c.Next()
	}
}

// Claims returns the verified claims stored by RequireAuth.
func Claims(c *gin.Context) (*auth.AccessClaims, bool) {
	v, ok := c.Get(ctxKeyClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.AccessClaims)
	return claims, ok
}

// AccessToken returns the raw bearer token stored by RequireAuth.
func AccessToken(c *gin.Context) string {
	return c.GetString(ctxKeyAccessToken)
}

const maxRequestIDLen = 64

// requestLogger tags the request context with a request id, then logs one
// line per request. Query strings and bodies are never logged.
func requestLogger(l logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		id := c.GetHeader(common.RequestIDHeaderName)
		if id == "" || len(id) > maxRequestIDLen {
			id = ulid.Make().String()
		}
		c.Header(common.RequestIDHeaderName, id)
		c.Request = c.Request.WithContext(logging.WithFields(c.Request.Context(), "request_id", id))

		c.Next()

		l.Info(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
		)
	}
}

func observe(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveHTTP(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

func recovery(l logging.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		l.Error(c.Request.Context(), "panic recovered", "path", c.Request.URL.Path, "panic", fmt.Sprint(recovered))
		fail(c, http.StatusInternalServerError, msgInternal)
	})
}
