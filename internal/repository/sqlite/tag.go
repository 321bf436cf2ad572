package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/xid"

	"github.com/mlatour/codestash/internal/apperror"
	"github.com/mlatour/codestash/internal/model"
	"github.com/mlatour/codestash/internal/repository"
)

// compile-time check that *TagStore implements repository.TagRepository
var _ repository.TagRepository = (*TagStore)(nil)

// TagStore implements repository.TagRepository. Tags are global, not
// per-user, so nothing here takes a userID.
type TagStore struct {
	conn *sql.DB
}

// NewTagStore creates a TagStore over db's connection pool.
func NewTagStore(db *DB) *TagStore {
	return &TagStore{conn: db.conn}
}

// Create inserts a new tag. Names are case-sensitive unique; a
// duplicate comes back as a conflict.
func (s *TagStore) Create(ctx context.Context, tag *model.Tag) error {
	var exists int
	err := s.conn.QueryRowContext(ctx,
		`SELECT 1 FROM tags WHERE name = ?`, tag.Name,
	).Scan(&exists)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("sqlite: checking tag name %s: %w", tag.Name, err)
	}
	if err == nil {
		return apperror.Conflict(fmt.Sprintf("tag %q already exists", tag.Name))
	}

	tag.ID = xid.New().String()

	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO tags (id, name, color) VALUES (?, ?, ?)`,
		tag.ID, tag.Name, tag.Color,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating tag %q: %w", tag.Name, err)
	}

	return nil
}

func (s *TagStore) GetByID(ctx context.Context, id string) (*model.Tag, error) {
	var t model.Tag

	err := s.conn.QueryRowContext(ctx,
		`SELECT id, name, color FROM tags WHERE id = ?`, id,
	).Scan(&t.ID, &t.Name, &t.Color)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("tag", id)
		}
		return nil, fmt.Errorf("sqlite: getting tag %s: %w", id, err)
	}

	return &t, nil
}

func (s *TagStore) List(ctx context.Context) ([]model.Tag, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, name, color FROM tags ORDER BY name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing tags: %w", err)
	}
	defer rows.Close()

	tags := []model.Tag{}
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Color); err != nil {
			return nil, fmt.Errorf("sqlite: scanning tag row: %w", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating tags: %w", err)
	}

	return tags, nil
}
