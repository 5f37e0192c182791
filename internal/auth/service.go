package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"campanile/auth-session/internal/crypto"
	"campanile/auth-session/internal/model"
	"campanile/auth-session/internal/repository"
)

// The user-facing error set is closed. Nothing else said to a caller may
// reveal whether a username exists, whether a hash was malformed, or what
// the database did.
var (
	ErrInvalidCredentials = errors.New("Incorrect username or password.")
	ErrUnavailable        = errors.New("Login error. Please try again later.")
)

const touchTimeout = 10 * time.Second

// CredentialSource is the slice of the credential store login needs.
type CredentialSource interface {
	FindByUsername(ctx context.Context, username string) (model.Credential, error)
	TouchLastLogin(ctx context.Context, userID int64) error
}

// Service runs the login sequence: validate, look up, verify with timing
// equalization, finalize.
type Service struct {
	store     CredentialSource
	log       *slog.Logger
	cost      int
	dummyHash string
}

type Option func(*Service)

// WithCost overrides the bcrypt work factor. Tests use a low cost to keep
// the suite fast; production keeps the default.
func WithCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

func NewService(store CredentialSource, log *slog.Logger, opts ...Option) *Service {
	s := &Service{store: store, log: log, cost: crypto.DefaultCost}
	for _, opt := range opts {
		opt(s)
	}
	// The dummy hash backs the equalizing comparison on failure paths
	// that skip real verification. Generated at the configured cost so
	// the burned CPU always matches a real check.
	dummy, err := crypto.HashPasswordCost("campanile-dummy-credential", s.cost)
	if err != nil {
		s.cost = crypto.DefaultCost
		dummy, _ = crypto.HashPasswordCost("campanile-dummy-credential", s.cost)
	}
	s.dummyHash = dummy
	return s
}

// Cost reports the work factor in effect, for operator tooling.
func (s *Service) Cost() int { return s.cost }

// Login authenticates username/password and returns the Session on
// success. Every attempt that reaches the lookup burns exactly one
// bcrypt comparison, real or dummy, so "unknown user" and "wrong
// password" are indistinguishable by timing as well as by shape. The
// database-unavailable case is a distinct error class on purpose.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	log := s.log.With(slog.String("attempt", uuid.NewString()))

	// Validating. Fails before any I/O, reported as the same
	// invalid-credentials error a wrong password would produce.
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	// Looking up.
	cred, err := s.store.FindByUsername(ctx, username)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		s.equalize(password)
		log.Info("login rejected", slog.String("reason", "unknown user"))
		return nil, ErrInvalidCredentials
	case err != nil:
		log.Error("credential lookup unavailable", slog.String("error", err.Error()))
		return nil, ErrUnavailable
	}

	if strings.TrimSpace(cred.PasswordHash) == "" {
		s.equalize(password)
		log.Warn("credential has no stored hash", slog.Int64("user_id", cred.UserID))
		return nil, ErrInvalidCredentials
	}

	// Verifying.
	if err := crypto.CheckPassword(cred.PasswordHash, password); err != nil {
		if crypto.IsMalformedHashError(err) {
			// Unusable hash: fail closed, keep the cost profile intact.
			s.equalize(password)
			log.Warn("stored hash is malformed",
				slog.Int64("user_id", cred.UserID),
				slog.String("error", err.Error()))
		} else {
			log.Info("login rejected", slog.String("reason", "password mismatch"),
				slog.Int64("user_id", cred.UserID))
		}
		return nil, ErrInvalidCredentials
	}

	// Finalizing. The bookkeeping write is detached; its outcome can
	// reach the log but structurally cannot reach the login result.
	go s.touchLastLogin(cred.UserID, log)

	sess := &Session{
		userID:   cred.UserID,
		username: cred.Username,
		role:     strings.ToLower(strings.TrimSpace(cred.Role)),
	}
	log.Info("login succeeded",
		slog.Int64("user_id", cred.UserID),
		slog.String("role", sess.role))
	return sess, nil
}

// Result carries an asynchronous login outcome.
type Result struct {
	Session *Session
	Err     error
}

// LoginAsync runs Login on its own goroutine and delivers the outcome on
// the returned channel. The channel is buffered so a caller that
// navigated away can drop the result without blocking the worker; there
// is no mid-flight cancellation beyond ctx.
func (s *Service) LoginAsync(ctx context.Context, username, password string) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		sess, err := s.Login(ctx, username, password)
		out <- Result{Session: sess, Err: err}
	}()
	return out
}

// equalize burns one comparison against the dummy hash so failure paths
// that never touch a real hash still cost the same.
func (s *Service) equalize(password string) {
	_ = crypto.CheckPassword(s.dummyHash, password)
}

func (s *Service) touchLastLogin(userID int64, log *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), touchTimeout)
	defer cancel()
	if err := s.store.TouchLastLogin(ctx, userID); err != nil {
		log.Warn("last-login touch failed",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()))
	}
}
