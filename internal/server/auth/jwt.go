// Package auth issues and verifies the HS256 access and refresh tokens.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/ministry/internal/common"
	"github.com/dmitrijs2005/ministry/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

// AccessClaims identify a user for protected requests. They are verified
// cryptographically only; there is no revocation list.
type AccessClaims struct {
	jwt.RegisteredClaims
	Kind  string `json:"typ"`
	Email string `json:"email"`
	Role  string `json:"role"`
	Name  string `json:"name"`
}

// RefreshClaims carry only the user and the id of the backing record.
type RefreshClaims struct {
	jwt.RegisteredClaims
	Kind string `json:"typ"`
}

// Option configures a TokenIssuer.
type Option func(*TokenIssuer)

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(i *TokenIssuer) { i.now = now }
}

// TokenIssuer signs and verifies tokens. Access and refresh tokens use
// separate secrets, so one kind can never be replayed as the other.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenIssuer(accessSecret, refreshSecret []byte, accessTTL, refreshTTL time.Duration, opts ...Option) *TokenIssuer {
	i := &TokenIssuer{
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// RefreshTTL is used for the refresh cookie lifetime.
func (i *TokenIssuer) RefreshTTL() time.Duration {
	return i.refreshTTL
}

// IssueAccessToken returns a signed access token for user and its expiry.
func (i *TokenIssuer) IssueAccessToken(user *models.User) (string, time.Time, error) {
	now, exp := i.window(i.accessTTL)

	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Kind:  KindAccess,
		Email: user.Email,
		Role:  user.Role,
		Name:  user.Name,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.accessSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return token, exp, nil
}

// IssueRefreshToken returns a signed refresh token whose jti is tokenID.
// The returned expiry is exactly the exp claim and is what gets persisted.
func (i *TokenIssuer) IssueRefreshToken(userID, tokenID string) (string, time.Time, error) {
	now, exp := i.window(i.refreshTTL)

	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        tokenID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Kind: KindRefresh,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.refreshSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return token, exp, nil
}

// VerifyAccessToken checks signature, expiry and kind.
func (i *TokenIssuer) VerifyAccessToken(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := i.parse(token, claims, i.accessSecret); err != nil {
		return nil, err
	}
	if claims.Kind != KindAccess || claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}

// VerifyRefreshToken checks signature, expiry and kind. It does not consult
// storage; the caller must still find the backing record.
func (i *TokenIssuer) VerifyRefreshToken(token string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := i.parse(token, claims, i.refreshSecret); err != nil {
		return nil, err
	}
	if claims.Kind != KindRefresh || claims.Subject == "" || claims.ID == "" {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}

func (i *TokenIssuer) parse(token string, claims jwt.Claims, secret []byte) error {
	_, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return common.ErrTokenExpired
		}
		return common.ErrInvalidToken
	}
	return nil
}

// window returns issue and expiry times at the second precision JWT carries.
func (i *TokenIssuer) window(ttl time.Duration) (time.Time, time.Time) {
	now := i.now().UTC().Truncate(time.Second)
	return now, now.Add(ttl)
}
