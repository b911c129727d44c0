package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/ministry/internal/logging"
	"github.com/dmitrijs2005/ministry/internal/server/auth"
	"github.com/dmitrijs2005/ministry/internal/server/metrics"
	"github.com/dmitrijs2005/ministry/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/ministry/internal/server/services"
	"github.com/dmitrijs2005/ministry/internal/server/storetest"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type failingPinger struct{}

func (failingPinger) PingContext(context.Context) error { return errors.New("db down") }

type testServer struct {
	handler http.Handler
	clock   *testClock
}

func newTestServer(t *testing.T, secure bool) *testServer {
	t.Helper()

	db := storetest.Open(t)
	clock := &testClock{t: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)}
	tokens := auth.NewTokenIssuer([]byte("access-secret"), []byte("refresh-secret"),
		2*time.Hour, 7*24*time.Hour, auth.WithClock(clock.Now))
	m := metrics.New()
	svc := services.NewSessionService(db, repomanager.NewSQLRepositoryManager(), tokens, logging.Nop(),
		services.WithClock(clock.Now), services.WithRecorder(m))

	router := NewRouter(logging.Nop(), svc, db, m, CookieConfig{Name: "km_refresh", Secure: secure})
	return &testServer{handler: router, clock: clock}
}

func (s *testServer) do(t *testing.T, method, path, body string, cookie *http.Cookie, bearer string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func refreshCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == "km_refresh" {
			return c
		}
	}
	t.Fatalf("response has no km_refresh cookie")
	return nil
}

type body struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	Message string `json:"message"`
	User    *struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Role  string `json:"role"`
	} `json:"user"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) body {
	t.Helper()
	var b body
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &b), w.Body.String())
	return b
}

const janeJSON = `{"fullName":"Jane Doe","email":"Jane@X.org","password":"secret123"}`

func TestRegister_CreatesUserAndSetsCookie(t *testing.T) {
	s := newTestServer(t, false)

	w := s.do(t, http.MethodPost, "/api/auth/register", janeJSON, nil, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	b := decode(t, w)
	assert.True(t, b.Success)
	assert.NotEmpty(t, b.Token)
	require.NotNil(t, b.User)
	assert.Equal(t, "Jane Doe", b.User.Name)
	assert.Equal(t, "jane@x.org", b.User.Email)
	assert.Equal(t, "Member", b.User.Role)

	c := refreshCookie(t, w)
	assert.NotEmpty(t, c.Value)
	assert.True(t, c.HttpOnly)
	assert.False(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, "/api/auth", c.Path)
	assert.Equal(t, int((7 * 24 * time.Hour).Seconds()), c.MaxAge)
}

func TestRegister_SecureCookieInProduction(t *testing.T) {
	s := newTestServer(t, true)

	w := s.do(t, http.MethodPost, "/api/auth/register", janeJSON, nil, "")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, refreshCookie(t, w).Secure)
}

func TestRegister_Failures(t *testing.T) {
	s := newTestServer(t, false)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/auth/register", janeJSON, nil, "").Code)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"malformed json", `{"fullName":`, http.StatusBadRequest},
		{"missing fields", `{"email":"a@x.org"}`, http.StatusBadRequest},
		{"bad email", `{"fullName":"A","email":"not-an-email","password":"pw"}`, http.StatusBadRequest},
		{"duplicate email other casing", `{"fullName":"J","email":"JANE@x.org","password":"other"}`, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/api/auth/register", tt.body, nil, "")
			require.Equal(t, tt.code, w.Code, w.Body.String())

			b := decode(t, w)
			assert.False(t, b.Success)
			assert.NotEmpty(t, b.Message)
			assert.Empty(t, w.Result().Cookies())
		})
	}
}

func TestLogin_EnumerationResistant(t *testing.T) {
	s := newTestServer(t, false)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/auth/register", janeJSON, nil, "").Code)

	wrongPw := s.do(t, http.MethodPost, "/api/auth/login", `{"email":"jane@x.org","password":"nope"}`, nil, "")
	unknown := s.do(t, http.MethodPost, "/api/auth/login", `{"email":"who@x.org","password":"nope"}`, nil, "")

	assert.Equal(t, http.StatusUnauthorized, wrongPw.Code)
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.JSONEq(t, wrongPw.Body.String(), unknown.Body.String())

	ok := s.do(t, http.MethodPost, "/api/auth/login", `{"email":"JANE@x.org","password":"secret123"}`, nil, "")
	require.Equal(t, http.StatusOK, ok.Code)
	b := decode(t, ok)
	assert.NotEmpty(t, b.Token)
	require.NotNil(t, b.User)
	assert.Equal(t, "jane@x.org", b.User.Email)
	assert.NotEmpty(t, refreshCookie(t, ok).Value)
}

func TestMe_RequiresBearer(t *testing.T) {
	s := newTestServer(t, false)

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/auth/me", "", nil, "").Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/auth/me", "", nil, "garbage").Code)

	reg := decode(t, s.do(t, http.MethodPost, "/api/auth/register", janeJSON, nil, ""))
	w := s.do(t, http.MethodGet, "/api/auth/me", "", nil, reg.Token)
	require.Equal(t, http.StatusOK, w.Code)
	b := decode(t, w)
	require.NotNil(t, b.User)
	assert.Equal(t, "Jane Doe", b.User.Name)
}

func TestScenarioC_ExpiredAccessThenRefresh(t *testing.T) {
	s := newTestServer(t, false)

	reg := s.do(t, http.MethodPost, "/api/auth/register", janeJSON, nil, "")
	require.Equal(t, http.StatusCreated, reg.Code)
	access := decode(t, reg).Token
	cookie := refreshCookie(t, reg)

	s.clock.Advance(3 * time.Hour)

	require.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/auth/me", "", nil, access).Code)

	ref := s.do(t, http.MethodPost, "/api/auth/refresh", "", cookie, "")
	require.Equal(t, http.StatusOK, ref.Code, ref.Body.String())
	b := decode(t, ref)
	assert.True(t, b.Success)
	assert.NotEmpty(t, b.Token)
	assert.Nil(t, b.User)

	rotated := refreshCookie(t, ref)
	assert.NotEqual(t, cookie.Value, rotated.Value)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/auth/me", "", nil, b.Token).Code)
}

func TestScenarioD_StaleRefreshCookieRejected(t *testing.T) {
	s := newTestServer(t, false)

	reg := s.do(t, http.MethodPost, "/api/auth/register", janeJSON, nil, "")
	cookie := refreshCookie(t, reg)

	first := s.do(t, http.MethodPost, "/api/auth/refresh", "", cookie, "")
	require.Equal(t, http.StatusOK, first.Code)

	second := s.do(t, http.MethodPost, "/api/auth/refresh", "", cookie, "")
	require.Equal(t, http.StatusUnauthorized, second.Code)
	assert.False(t, decode(t, second).Success)

	cleared := refreshCookie(t, second)
	assert.Empty(t, cleared.Value)
	assert.Less(t, cleared.MaxAge, 0)
}

func TestRefresh_NoCookie(t *testing.T) {
	s := newTestServer(t, false)

	w := s.do(t, http.MethodPost, "/api/auth/refresh", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogout_IdempotentAndRevokes(t *testing.T) {
	s := newTestServer(t, false)

	reg := s.do(t, http.MethodPost, "/api/auth/register", janeJSON, nil, "")
	cookie := refreshCookie(t, reg)

	for i := 0; i < 2; i++ {
		w := s.do(t, http.MethodPost, "/api/auth/logout", "", cookie, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, decode(t, w).Success)
		assert.Less(t, refreshCookie(t, w).MaxAge, 0)
	}

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/auth/logout", "", nil, "").Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodPost, "/api/auth/refresh", "", cookie, "").Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, false)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/healthz", "", nil, "").Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/readyz", "", nil, "").Code)

	s.do(t, http.MethodPost, "/api/auth/login", `{"email":"a@x.org","password":"pw"}`, nil, "")

	w := s.do(t, http.MethodGet, "/metrics", "", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "ministry_auth_operations_total"))
}

func TestReadyz_Unavailable(t *testing.T) {
	router := NewRouter(logging.Nop(), nil, failingPinger{}, nil, CookieConfig{Name: "km_refresh"})

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRequireAuth_StoresClaims(t *testing.T) {
	s := newTestServer(t, false)
	reg := decode(t, s.do(t, http.MethodPost, "/api/auth/register", janeJSON, nil, ""))

	tokens := auth.NewTokenIssuer([]byte("access-secret"), []byte("refresh-secret"),
		2*time.Hour, 7*24*time.Hour, auth.WithClock(s.clock.Now))
	svc := services.NewSessionService(nil, nil, tokens, logging.Nop(), services.WithClock(s.clock.Now))

	r := gin.New()
	r.GET("/dashboard", RequireAuth(svc), func(c *gin.Context) {
		claims, ok := Claims(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, claims.Email)
	})

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+reg.Token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jane@x.org", w.Body.String())
}

func TestRecovery_ReturnsInternalError(t *testing.T) {
	r := gin.New()
	r.Use(recovery(logging.Nop()))
	r.GET("/boom", func(*gin.Context) { panic("kaput") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"Internal server error"}`, w.Body.String())
}

func TestHTTPServer_RunStopsOnContextCancel(t *testing.T) {
	srv := NewHTTPServer("127.0.0.1:0", logging.Nop(), nil, nil, nil, CookieConfig{Name: "km_refresh"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestHTTPServer_RunBadAddress(t *testing.T) {
	srv := NewHTTPServer("bad::addr", logging.Nop(), nil, nil, nil, CookieConfig{Name: "km_refresh"})
	assert.Error(t, srv.Run(context.Background()))
}

func TestRequestLogger_TagsRequestID(t *testing.T) {
	var buf bytes.Buffer
	l, err := logging.New(logging.FormatSlog, "info", &buf)
	require.NoError(t, err)

	r := gin.New()
	r.Use(requestLogger(l))
	r.GET("/ping", func(c *gin.Context) {
		l.Info(c.Request.Context(), "handled")
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
	assert.Equal(t, 2, strings.Count(buf.String(), `"request_id":"req-42"`))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Len(t, w.Header().Get("X-Request-ID"), 26)
}
