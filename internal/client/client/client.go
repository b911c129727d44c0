package client

import (
	"context"
)

// User is the public view of an account returned by the server.
type User struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// AuthResponse is the result of a successful register or login.
type AuthResponse struct {
	Token string
	User  User
}

// Client talks to the ministry auth API. The refresh token never leaves the
// implementation: it lives in an HTTP-only cookie the client keeps for itself.
type Client interface {
	Close() error
	Register(ctx context.Context, fullName, email, password string) (*AuthResponse, error)
	Login(ctx context.Context, email, password string) (*AuthResponse, error)
	Refresh(ctx context.Context) (string, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context, accessToken string) (*User, error)
	Ping(ctx context.Context) error
}
