// Package common contains shared constants and sentinel errors used across
// the ministry server and client components.
package common

const (
	// AuthorizationHeaderName carries the bearer access token on protected requests.
	AuthorizationHeaderName = "Authorization"

	// RequestIDHeaderName carries the request id echoed by the server.
	RequestIDHeaderName = "X-Request-ID"

	// BearerPrefix precedes the access token in the Authorization header.
	BearerPrefix = "Bearer "

	// DefaultRefreshCookieName is the HTTP-only cookie holding the refresh token.
	DefaultRefreshCookieName = "km_refresh"

	// DefaultRole is assigned to every newly registered user.
	DefaultRole = "Member"
)
