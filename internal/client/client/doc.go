// Package client is the transport for the ministry auth API.
//
// HTTPClient implements Client over JSON/HTTP. It keeps the refresh cookie
// in a cookie jar, so callers only ever handle access tokens. Failures are
// mapped to sentinel errors matched with errors.Is: ErrValidation (400),
// ErrUnauthorized (401), ErrConflict (409) and ErrUnavailable (5xx and
// transport failures). HealthChecker probes the gRPC health endpoint.
package client
