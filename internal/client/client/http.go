package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/dmitrijs2005/ministry/internal/common"
)

type HTTPClient struct {
	baseURL string
	http    *http.Client
	health  *HealthChecker
}

// NewHTTPClient returns a client for the API at baseURL. The cookie jar holds
// the refresh cookie between calls. health may be nil, in which case Ping
// probes the API over HTTP.
func NewHTTPClient(baseURL string, timeout time.Duration, health *HealthChecker) (*HTTPClient, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Jar: jar, Timeout: timeout},
		health:  health,
	}, nil
}

type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token"`
	User    *User  `json:"user"`
}

func (c *HTTPClient) Register(ctx context.Context, fullName, email, password string) (*AuthResponse, error) {
	body := map[string]string{"fullName": fullName, "email": email, "password": password}
	resp, err := c.do(ctx, http.MethodPost, "/api/auth/register", body, "")
	if err != nil {
		return nil, err
	}
	return authResponse(resp)
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	body := map[string]string{"email": email, "password": password}
	resp, err := c.do(ctx, http.MethodPost, "/api/auth/login", body, "")
	if err != nil {
		return nil, err
	}
	return authResponse(resp)
}

// Refresh rotates the refresh cookie and returns a new access token.
func (c *HTTPClient) Refresh(ctx context.Context) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/auth/refresh", nil, "")
	if err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", fmt.Errorf("refresh: empty token: %w", ErrUnavailable)
	}
	return resp.Token, nil
}

func (c *HTTPClient) Logout(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, "")
	return err
}

func (c *HTTPClient) Me(ctx context.Context, accessToken string) (*User, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, accessToken)
	if err != nil {
		return nil, err
	}
	if resp.User == nil {
		return nil, fmt.Errorf("me: missing user: %w", ErrUnavailable)
	}
	return resp.User, nil
}

// Ping reports whether the server is reachable.
func (c *HTTPClient) Ping(ctx context.Context) error {
	if c.health != nil {
		return c.health.Check(ctx)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	return nil
}

func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	if c.health != nil {
		return c.health.Close()
	}
	return nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body any, bearer string) (*apiResponse, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	var out apiResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&out)
	if errors.Is(decodeErr, io.EOF) {
		decodeErr = nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, mapStatus(resp.StatusCode, out.Message)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode response: %w", decodeErr)
	}
	return &out, nil
}

func mapStatus(code int, message string) error {
	e := &APIError{Status: code, Message: message}
	switch {
	case code == http.StatusBadRequest:
		e.kind = ErrValidation
	case code == http.StatusUnauthorized:
		e.kind = ErrUnauthorized
	case code == http.StatusConflict:
		e.kind = ErrConflict
	default:
		e.kind = ErrUnavailable
	}
	return e
}

func authResponse(resp *apiResponse) (*AuthResponse, error) {
	if resp.Token == "" || resp.User == nil {
		return nil, fmt.Errorf("incomplete auth response: %w", ErrUnavailable)
	}
	return &AuthResponse{Token: resp.Token, User: *resp.User}, nil
}
