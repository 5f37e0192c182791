package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"campanile/auth-session/internal/crypto"
	"campanile/auth-session/internal/db"
	"campanile/auth-session/internal/model"
)

var (
	// ErrNotFound means the username has no credential row. Database
	// failures are never folded into it.
	ErrNotFound = errors.New("credential not found")
	// ErrDuplicateUsername surfaces the schema's uniqueness constraint.
	ErrDuplicateUsername = errors.New("username already exists")
	// ErrBlankUsername flags a caller usage error, raised before any I/O.
	ErrBlankUsername = errors.New("username must not be blank")
)

const uniqueViolation = "23505"

// Store reads and updates credential rows in the auth realm. It never
// owns the table's lifecycle; the schema belongs to the ERP backend.
type Store struct {
	pools *db.Manager
	log   *slog.Logger
}

func NewStore(pools *db.Manager, log *slog.Logger) *Store {
	return &Store{pools: pools, log: log}
}

// FindByUsername looks up a credential by exact trimmed username.
// The result is a credential, ErrNotFound, or a wrapped persistence
// failure; there is no ambiguous outcome.
func (s *Store) FindByUsername(ctx context.Context, username string) (model.Credential, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return model.Credential{}, ErrBlankUsername
	}

	lease, handle, err := s.acquire(ctx)
	if err != nil {
		return model.Credential{}, err
	}
	defer lease.Release()

	opCtx, cancel := handle.OpContext(ctx)
	defer cancel()

	var cred model.Credential
	row := lease.Conn().QueryRow(opCtx, `
		SELECT user_id, username, COALESCE(role, ''), COALESCE(password_hash, ''), last_login, created_at
		FROM users
		WHERE username = $1
	`, username)
	err = row.Scan(&cred.UserID, &cred.Username, &cred.Role, &cred.PasswordHash, &cred.LastLogin, &cred.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Credential{}, ErrNotFound
	}
	if err != nil {
		s.log.Error("credential lookup failed",
			slog.String("error", err.Error()))
		return model.Credential{}, fmt.Errorf("find credential: %w", err)
	}
	return cred, nil
}

// TouchLastLogin stamps last_login for the user. Callers treat this as
// best-effort bookkeeping: the auth layer detaches it so its failure can
// only reach the log, never the login result.
func (s *Store) TouchLastLogin(ctx context.Context, userID int64) error {
	lease, handle, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer lease.Release()

	opCtx, cancel := handle.OpContext(ctx)
	defer cancel()

	if _, err := lease.Conn().Exec(opCtx, `
		UPDATE users SET last_login = now() WHERE user_id = $1
	`, userID); err != nil {
		return fmt.Errorf("touch last_login for user %d: %w", userID, err)
	}
	return nil
}

// CreateUser hashes the password and inserts a credential row. A blank
// role falls back to the lowest-privilege role. Username uniqueness is
// enforced by the schema, not here; violations come back as
// ErrDuplicateUsername.
func (s *Store) CreateUser(ctx context.Context, username, plainPassword, role string) (int64, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return 0, ErrBlankUsername
	}
	role = strings.TrimSpace(role)
	if role == "" {
		role = model.RoleStudent.String()
	}

	hash, err := crypto.HashPassword(plainPassword)
	if err != nil {
		return 0, err
	}

	lease, handle, err := s.acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer lease.Release()

	opCtx, cancel := handle.OpContext(ctx)
	defer cancel()

	var userID int64
	err = lease.Conn().QueryRow(opCtx, `
		INSERT INTO users (username, password_hash, role, created_at)
		VALUES ($1, $2, $3, now())
		RETURNING user_id
	`, username, hash, role).Scan(&userID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return 0, ErrDuplicateUsername
		}
		s.log.Error("credential insert failed",
			slog.String("error", err.Error()))
		return 0, fmt.Errorf("create user: %w", err)
	}
	return userID, nil
}

func (s *Store) acquire(ctx context.Context) (*db.Lease, *db.Handle, error) {
	handle, err := s.pools.Pool(ctx, db.RealmAuth)
	if err != nil {
		return nil, nil, err
	}
	lease, err := handle.Acquire(ctx)
	if err != nil {
		return nil, nil, err
	}
	return lease, handle, nil
}
