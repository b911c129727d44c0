// Package services contains application services for the ministry client:
// signing in and out, and verifying a cached session when a protected view
// is opened.
package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/ministry/internal/client/client"
	"github.com/dmitrijs2005/ministry/internal/client/session"
)

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Register / Login: authenticate against the server, cache the session
//     and broadcast a login event.
//   - Logout: revoke the server session best-effort, then always clear the
//     local session and broadcast a logout event.
//   - Ping: check server liveness.
//   - Close: release underlying client resources.
type AuthService interface {
	Register(ctx context.Context, fullName, email, password string) (*session.Session, error)
	Login(ctx context.Context, email, password string) (*session.Session, error)
	Logout(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

type authService struct {
	client client.Client
	store  *session.Store
}

// NewAuthService constructs an AuthService bound to the given API client and
// session store.
func NewAuthService(c client.Client, store *session.Store) AuthService {
	return &authService{client: c, store: store}
}

func (a *authService) Register(ctx context.Context, fullName, email, password string) (*session.Session, error) {
	resp, err := a.client.Register(ctx, fullName, email, password)
	if err != nil {
		return nil, fmt.Errorf("register error: %w", err)
	}
	return a.signIn(resp, false), nil
}

func (a *authService) Login(ctx context.Context, email, password string) (*session.Session, error) {
	resp, err := a.client.Login(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("login error: %w", err)
	}
	return a.signIn(resp, true), nil
}

func (a *authService) signIn(resp *client.AuthResponse, onboarded bool) *session.Session {
	sess := &session.Session{
		User:        resp.User,
		AccessToken: resp.Token,
		Onboarded:   onboarded,
		Preferences: map[string]string{},
	}
	a.store.Set(session.EventLogin, sess)
	return sess
}

// Logout returns the server error, if any, after the local session has
// already been cleared.
func (a *authService) Logout(ctx context.Context) error {
	err := a.client.Logout(ctx)
	a.store.Clear(session.EventLogout)
	if err != nil {
		return fmt.Errorf("server logout error: %w", err)
	}
	return nil
}

func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

func (a *authService) Close() error {
	return a.client.Close()
}
