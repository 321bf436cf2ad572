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

// compile-time check that *FolderStore implements repository.FolderRepository
var _ repository.FolderRepository = (*FolderStore)(nil)

// FolderStore implements repository.FolderRepository.
type FolderStore struct {
	conn *sql.DB
}

// NewFolderStore creates a FolderStore over db's connection pool.
func NewFolderStore(db *DB) *FolderStore {
	return &FolderStore{conn: db.conn}
}

func (s *FolderStore) Create(ctx context.Context, folder *model.Folder) error {
	now := time.Now()
	folder.ID = xid.New().String()
	folder.CreatedAt = now
	folder.UpdatedAt = now

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO folders (id, name, user_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		folder.ID,
		folder.Name,
		folder.UserID,
		folder.CreatedAt,
		folder.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating folder: %w", err)
	}

	return nil
}

// GetByID retrieves a folder, scoped to its owner. A folder that exists
// but belongs to someone else reports not-found, same as one that
// doesn't exist.
func (s *FolderStore) GetByID(ctx context.Context, id, userID string) (*model.Folder, error) {
	var f model.Folder

	err := s.conn.QueryRowContext(ctx,
		`SELECT id, name, user_id, created_at, updated_at
		 FROM folders
		 WHERE id = ? AND user_id = ?`,
		id, userID,
	).Scan(&f.ID, &f.Name, &f.UserID, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("folder", id)
		}
		return nil, fmt.Errorf("sqlite: getting folder %s: %w", id, err)
	}

	return &f, nil
}

// List returns all of a user's folders, sorted by name like a sidebar
// would show them.
func (s *FolderStore) List(ctx context.Context, userID string) ([]model.Folder, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, name, user_id, created_at, updated_at
		 FROM folders
		 WHERE user_id = ?
		 ORDER BY name ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing folders: %w", err)
	}
	defer rows.Close()

	folders := []model.Folder{}
	for rows.Next() {
		var f model.Folder
		if err := rows.Scan(&f.ID, &f.Name, &f.UserID, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning folder row: %w", err)
		}
		folders = append(folders, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating folders: %w", err)
	}

	return folders, nil
}

func (s *FolderStore) Rename(ctx context.Context, id, userID, name string) error {
	result, err := s.conn.ExecContext(ctx,
		`UPDATE folders SET name = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		name, time.Now(), id, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: renaming folder %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("folder", id)
	}

	return nil
}

// Delete removes a folder. The snippets.folder_id foreign key is
// declared ON DELETE SET NULL, so the folder's snippets become unfiled
// — content and history survive the folder.
func (s *FolderStore) Delete(ctx context.Context, id, userID string) error {
	result, err := s.conn.ExecContext(ctx,
		`DELETE FROM folders WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting folder %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("folder", id)
	}

	return nil
}
