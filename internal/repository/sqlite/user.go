package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/mlatour/codestash/internal/apperror"
	"github.com/mlatour/codestash/internal/model"
	"github.com/mlatour/codestash/internal/repository"
)

// Compile-time check that *UserStore implements
// repository.UserRepository. `var _ X = (*Y)(nil)` fails to compile the
// moment a method is missing, instead of failing at some distant call
// site.
var _ repository.UserRepository = (*UserStore)(nil)

// UserStore implements repository.UserRepository. Each entity gets its
// own store type over the shared connection so the repository
// interfaces can keep natural method names (Create, GetByID) without
// colliding on a single receiver.
type UserStore struct {
	conn *sql.DB
}

// NewUserStore creates a UserStore over db's connection pool.
func NewUserStore(db *DB) *UserStore {
	return &UserStore{conn: db.conn}
}

// Create inserts a new user. The email is checked first so a duplicate
// registration comes back as a clean conflict error instead of a raw
// driver constraint failure.
func (s *UserStore) Create(ctx context.Context, user *model.User) error {
	var exists int
	err := s.conn.QueryRowContext(ctx,
		`SELECT 1 FROM users WHERE email = ?`, user.Email,
	).Scan(&exists)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("sqlite: checking email %s: %w", user.Email, err)
	}
	if err == nil {
		return apperror.Conflict(fmt.Sprintf("an account with email %s already exists", user.Email))
	}

	now := time.Now()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, hashed_password, name, is_admin, github_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.HashedPassword,
		user.Name,
		user.IsAdmin,
		user.GitHubID,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting user (email=%s): %w", user.Email, err)
	}

	return nil
}

// GetByID retrieves a user by their internal ID.
func (s *UserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	return s.getUser(ctx, `WHERE id = ?`, id)
}

// GetByEmail retrieves a user by email, used at login.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.getUser(ctx, `WHERE email = ?`, email)
}

func (s *UserStore) getUser(ctx context.Context, where string, arg any) (*model.User, error) {
	var u model.User

	err := s.conn.QueryRowContext(ctx,
		`SELECT id, email, hashed_password, name, is_admin, github_id, created_at, updated_at
		 FROM users `+where,
		arg,
	).Scan(
		&u.ID,
		&u.Email,
		&u.HashedPassword,
		&u.Name,
		&u.IsAdmin,
		&u.GitHubID,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", fmt.Sprintf("%v", arg))
		}
		return nil, fmt.Errorf("sqlite: getting user %v: %w", arg, err)
	}

	return &u, nil
}

// UpsertGitHub inserts or refreshes a user keyed by their GitHub ID.
//
// The lookup-then-write pattern keeps the user's internal ID stable
// across logins: returning GitHub users get their existing row updated
// (name/email may have changed on GitHub), first-timers get a fresh ID.
func (s *UserStore) UpsertGitHub(ctx context.Context, user *model.User) error {
	var existingID string
	err := s.conn.QueryRowContext(ctx,
		`SELECT id FROM users WHERE github_id = ?`, user.GitHubID,
	).Scan(&existingID)

	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("sqlite: looking up user by github_id %d: %w", user.GitHubID, err)
	}

	if existingID != "" {
		user.ID = existingID
		user.UpdatedAt = time.Now()
		_, err = s.conn.ExecContext(ctx,
			`UPDATE users SET email = ?, name = ?, updated_at = ?
			 WHERE id = ?`,
			user.Email,
			user.Name,
			user.UpdatedAt,
			user.ID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
		}
		return nil
	}

	now := time.Now()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, hashed_password, name, is_admin, github_id, created_at, updated_at)
		 VALUES (?, ?, '', ?, 0, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.Name,
		user.GitHubID,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting user (githubID=%d): %w", user.GitHubID, err)
	}

	return nil
}
