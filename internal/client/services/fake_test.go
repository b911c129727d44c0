package services

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/ministry/internal/client/client"
)

// fakeClient implements client.Client with scripted results.
type fakeClient struct {
	mu sync.Mutex

	RegisterResp *client.AuthResponse
	RegisterErr  error
	LoginResp    *client.AuthResponse
	LoginErr     error
	LogoutErr    error
	PingErr      error
	CloseErr     error

	// MeErrs is consumed one per call; once empty Me succeeds.
	MeErrs      []error
	MeHook      func()
	RefreshTok  string
	RefreshErr  error
	RefreshHook func()

	MeTokens     []string
	RefreshCalls int
	LogoutCalls  int
}

func (f *fakeClient) Register(_ context.Context, _, _, _ string) (*client.AuthResponse, error) {
	return f.RegisterResp, f.RegisterErr
}

func (f *fakeClient) Login(_ context.Context, _, _ string) (*client.AuthResponse, error) {
	return f.LoginResp, f.LoginErr
}

func (f *fakeClient) Refresh(context.Context) (string, error) {
	f.mu.Lock()
	f.RefreshCalls++
	hook := f.RefreshHook
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	return f.RefreshTok, f.RefreshErr
}

func (f *fakeClient) Logout(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LogoutCalls++
	return f.LogoutErr
}

func (f *fakeClient) Me(_ context.Context, token string) (*client.User, error) {
	f.mu.Lock()
	f.MeTokens = append(f.MeTokens, token)
	var err error
	if len(f.MeErrs) > 0 {
		err = f.MeErrs[0]
		f.MeErrs = f.MeErrs[1:]
	}
	hook := f.MeHook
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	if err != nil {
		return nil, err
	}
	return &client.User{Name: "Jane Doe", Email: "jane@x.org", Role: "Member"}, nil
}

func (f *fakeClient) Ping(context.Context) error { return f.PingErr }

func (f *fakeClient) Close() error { return f.CloseErr }
