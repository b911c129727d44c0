// Package services contains server-side business logic. SessionService
// handles registration, login, refresh token rotation, logout and the
// "who am I" lookup, and maps every lower-layer failure onto the error
// taxonomy in package common.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/ministry/internal/common"
	"github.com/dmitrijs2005/ministry/internal/cryptox"
	"github.com/dmitrijs2005/ministry/internal/dbx"
	"github.com/dmitrijs2005/ministry/internal/logging"
	"github.com/dmitrijs2005/ministry/internal/server/auth"
	"github.com/dmitrijs2005/ministry/internal/server/models"
	"github.com/dmitrijs2005/ministry/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/oklog/ulid/v2"
)

// Operation names used for logging and metrics.
const (
	OpRegister = "register"
	OpLogin    = "login"
	OpRefresh  = "refresh"
	OpLogout   = "logout"
	OpMe       = "me"
)

// Outcome labels recorded per operation.
const (
	OutcomeSuccess      = "success"
	OutcomeInvalid      = "invalid"
	OutcomeConflict     = "conflict"
	OutcomeUnauthorized = "unauthorized"
	OutcomeError        = "error"
)

// errRefreshReplayed marks a rotation that lost the race for the old record.
var errRefreshReplayed = errors.New("refresh token already redeemed")

// PublicUser is the user view returned to clients.
type PublicUser struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	User             PublicUser
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// RefreshResult carries the rotated credentials.
type RefreshResult struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// OperationRecorder receives one call per finished operation.
type OperationRecorder interface {
	RecordAuthOperation(operation, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) RecordAuthOperation(string, string) {}

// SessionOption configures a SessionService.
type SessionOption func(*SessionService)

// WithRecorder plugs in a metrics sink.
func WithRecorder(r OperationRecorder) SessionOption {
	return func(s *SessionService) { s.recorder = r }
}

// WithClock overrides time.Now. Pass the same clock to the TokenIssuer.
func WithClock(now func() time.Time) SessionOption {
	return func(s *SessionService) { s.now = now }
}

// SessionService drives the Anonymous -> Authenticated -> Revoked lifecycle.
// Access tokens are stateless; only refresh tokens are backed by storage.
type SessionService struct {
	db          *sqlx.DB
	repomanager repomanager.RepositoryManager
	tokens      *auth.TokenIssuer
	log         logging.Logger
	recorder    OperationRecorder
	now         func() time.Time
}

// NewSessionService wires the service to its store and token issuer.
func NewSessionService(db *sqlx.DB, m repomanager.RepositoryManager, tokens *auth.TokenIssuer, log logging.Logger, opts ...SessionOption) *SessionService {
	s := &SessionService{
		db:          db,
		repomanager: m,
		tokens:      tokens,
		log:         log.With("component", "session_service"),
		recorder:    nopRecorder{},
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register validates input, creates the user and opens its first session.
func (s *SessionService) Register(ctx context.Context, in RegisterInput) (res *AuthResult, err error) {
	defer func() { s.finish(ctx, OpRegister, err) }()

	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	if name == "" || email == "" || strings.TrimSpace(in.Password) == "" {
		return nil, common.NewValidationError("Full name, email and password are required")
	}
	if err := checkEmail(email); err != nil {
		return nil, err
	}

	_, err = s.repomanager.Users(s.db).GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, common.ErrConflict
	case !errors.Is(err, common.ErrorNotFound):
		return nil, s.internal(ctx, OpRegister, fmt.Errorf("lookup user: %w", err))
	}

	salt, err := cryptox.NewSalt()
	if err != nil {
		return nil, s.internal(ctx, OpRegister, fmt.Errorf("generate salt: %w", err))
	}
	hash, err := cryptox.HashPassword(in.Password, salt)
	if err != nil {
		return nil, s.internal(ctx, OpRegister, fmt.Errorf("hash password: %w", err))
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		Role:         common.DefaultRole,
		PasswordHash: hash,
		Salt:         salt,
		CreatedAt:    s.clock(),
	}

	res, record, err := s.issue(user)
	if err != nil {
		return nil, s.internal(ctx, OpRegister, err)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).Create(ctx, user); err != nil {
			return err
		}
		return s.repomanager.RefreshTokens(tx).Create(ctx, record)
	})
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, common.ErrConflict
		}
		return nil, s.internal(ctx, OpRegister, fmt.Errorf("persist user: %w", err))
	}

	s.log.Info(ctx, "user registered", "user_id", user.ID)
	return res, nil
}

// Login checks credentials. Unknown email and wrong password produce the
// same error and cost the same scrypt derivation.
func (s *SessionService) Login(ctx context.Context, email, password string) (res *AuthResult, err error) {
	defer func() { s.finish(ctx, OpLogin, err) }()

	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, common.NewValidationError("Email and password are required")
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			cryptox.DummyVerify(password)
			return nil, common.ErrorUnauthorized
		}
		return nil, s.internal(ctx, OpLogin, fmt.Errorf("lookup user: %w", err))
	}

	ok, err := cryptox.VerifyPassword(password, user.Salt, user.PasswordHash)
	if err != nil {
		return nil, s.internal(ctx, OpLogin, fmt.Errorf("verify password: %w", err))
	}
	if !ok {
		return nil, common.ErrorUnauthorized
	}

	res, record, err := s.issue(user)
	if err != nil {
		return nil, s.internal(ctx, OpLogin, err)
	}
	if err := s.repomanager.RefreshTokens(s.db).Create(ctx, record); err != nil {
		return nil, s.internal(ctx, OpLogin, fmt.Errorf("save refresh token: %w", err))
	}

	s.log.Info(ctx, "user logged in", "user_id", user.ID)
	return res, nil
}

// Refresh redeems a refresh token exactly once. The old record is deleted
// and the new one inserted in a single transaction; if the delete does not
// remove exactly one row another request already redeemed the token. When
// the transaction fails the old record is deleted outside it, so the
// presented token is never honored again.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (res *RefreshResult, err error) {
	defer func() { s.finish(ctx, OpRefresh, err) }()

	if refreshToken == "" {
		return nil, common.ErrorUnauthorized
	}

	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, common.ErrorUnauthorized
	}

	hash := cryptox.HashToken(refreshToken)
	record, err := s.repomanager.RefreshTokens(s.db).FindByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.log.Warn(ctx, "refresh token without record", "user_id", claims.Subject)
			return nil, common.ErrorUnauthorized
		}
		return nil, s.internal(ctx, OpRefresh, fmt.Errorf("find refresh token: %w", err))
	}
	if record.Expired(s.clock()) || record.UserID != claims.Subject {
		return nil, common.ErrorUnauthorized
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, s.internal(ctx, OpRefresh, fmt.Errorf("lookup user: %w", err))
	}

	issued, next, err := s.issue(user)
	if err != nil {
		return nil, s.internal(ctx, OpRefresh, err)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.RefreshTokens(tx)
		n, err := repo.DeleteByHash(ctx, hash)
		if err != nil {
			return err
		}
		if n != 1 {
			return errRefreshReplayed
		}
		return repo.Create(ctx, next)
	})
	if err != nil {
		if errors.Is(err, errRefreshReplayed) {
			s.log.Warn(ctx, "refresh token replayed", "user_id", user.ID)
			return nil, common.ErrorUnauthorized
		}
		s.revoke(ctx, hash, user.ID)
		return nil, s.internal(ctx, OpRefresh, fmt.Errorf("rotate refresh token: %w", err))
	}

	return &RefreshResult{
		AccessToken:      issued.AccessToken,
		AccessExpiresAt:  issued.AccessExpiresAt,
		RefreshToken:     issued.RefreshToken,
		RefreshExpiresAt: issued.RefreshExpiresAt,
	}, nil
}

// revoke deletes the record for hash after a failed rotation.
func (s *SessionService) revoke(ctx context.Context, hash, userID string) {
	if _, err := s.repomanager.RefreshTokens(s.db).DeleteByHash(ctx, hash); err != nil {
		s.log.Error(ctx, "revoke refresh token after failed rotation", "user_id", userID, "error", err)
	}
}

// Logout revokes the refresh token's record if there is one. It never fails;
// storage errors are only logged.
func (s *SessionService) Logout(ctx context.Context, refreshToken string) {
	outcome := OutcomeSuccess
	defer func() { s.recorder.RecordAuthOperation(OpLogout, outcome) }()

	if refreshToken == "" {
		return
	}

	n, err := s.repomanager.RefreshTokens(s.db).DeleteByHash(ctx, cryptox.HashToken(refreshToken))
	if err != nil {
		outcome = OutcomeError
		s.log.Error(ctx, "logout: delete refresh token", "error", err)
		return
	}
	s.log.Debug(ctx, "logout", "revoked", n)
}

// Me resolves an access token to its user. The token is verified
// cryptographically; revoked sessions stay valid until the token expires.
func (s *SessionService) Me(ctx context.Context, accessToken string) (u *PublicUser, err error) {
	defer func() { s.finish(ctx, OpMe, err) }()

	claims, err := s.Authenticate(accessToken)
	if err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, s.internal(ctx, OpMe, fmt.Errorf("lookup user: %w", err))
	}

	pub := publicUser(user)
	return &pub, nil
}

// Authenticate verifies an access token without touching storage. It backs
// the bearer middleware that guards other endpoints.
func (s *SessionService) Authenticate(accessToken string) (*auth.AccessClaims, error) {
	if accessToken == "" {
		return nil, common.ErrorUnauthorized
	}
	claims, err := s.tokens.VerifyAccessToken(accessToken)
	if err != nil {
		return nil, common.ErrorUnauthorized
	}
	return claims, nil
}

// PurgeExpired deletes refresh records that can no longer be redeemed.
func (s *SessionService) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.repomanager.RefreshTokens(s.db).DeleteExpired(ctx, s.clock())
	if err != nil {
		return 0, fmt.Errorf("purge expired refresh tokens: %w", err)
	}
	return n, nil
}

// RefreshTTL is the lifetime of refresh tokens, and of the refresh cookie.
func (s *SessionService) RefreshTTL() time.Duration {
	return s.tokens.RefreshTTL()
}

// --- helpers below ---

// issue mints an access/refresh pair for user and the record to persist.
func (s *SessionService) issue(user *models.User) (*AuthResult, *models.RefreshToken, error) {
	access, accessExp, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return nil, nil, err
	}

	recordID := ulid.Make().String()
	refresh, refreshExp, err := s.tokens.IssueRefreshToken(user.ID, recordID)
	if err != nil {
		return nil, nil, err
	}

	record := &models.RefreshToken{
		ID:        recordID,
		UserID:    user.ID,
		TokenHash: cryptox.HashToken(refresh),
		ExpiresAt: refreshExp,
		CreatedAt: s.clock(),
	}

	return &AuthResult{
		User:             publicUser(user),
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, record, nil
}

func (s *SessionService) clock() time.Time {
	return s.now().UTC().Truncate(time.Second)
}

// internal logs the cause and hides it behind common.ErrorInternal.
func (s *SessionService) internal(ctx context.Context, op string, cause error) error {
	s.log.Error(ctx, "operation failed", "op", op, "error", cause)
	return common.ErrorInternal
}

func (s *SessionService) finish(ctx context.Context, op string, err error) {
	outcome := outcomeOf(err)
	s.recorder.RecordAuthOperation(op, outcome)
	if outcome == OutcomeUnauthorized {
		s.log.Debug(ctx, "authentication failed", "op", op)
	}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, common.ErrValidation):
		return OutcomeInvalid
	case errors.Is(err, common.ErrConflict):
		return OutcomeConflict
	case errors.Is(err, common.ErrorUnauthorized):
		return OutcomeUnauthorized
	default:
		return OutcomeError
	}
}

func publicUser(u *models.User) PublicUser {
	return PublicUser{Name: u.Name, Email: u.Email, Role: u.Role}
}
