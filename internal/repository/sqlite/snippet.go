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

// compile-time check that *SnippetStore implements repository.SnippetRepository
var _ repository.SnippetRepository = (*SnippetStore)(nil)

// SnippetStore implements repository.SnippetRepository, including the
// revise transaction that keeps the version counter and the history
// log in lockstep.
type SnippetStore struct {
	conn *sql.DB
}

// NewSnippetStore creates a SnippetStore over db's connection pool.
func NewSnippetStore(db *DB) *SnippetStore {
	return &SnippetStore{conn: db.conn}
}

const snippetColumns = `id, title, description, content, language, version, is_public, user_id, folder_id, created_at, updated_at`

func scanSnippet(row interface{ Scan(...any) error }) (*model.Snippet, error) {
	var s model.Snippet
	err := row.Scan(
		&s.ID,
		&s.Title,
		&s.Description,
		&s.Content,
		&s.Language,
		&s.Version,
		&s.IsPublic,
		&s.UserID,
		&s.FolderID,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserts a new snippet at version 1 with an empty history.
func (s *SnippetStore) Create(ctx context.Context, snippet *model.Snippet) error {
	now := time.Now()
	snippet.ID = xid.New().String()
	snippet.Version = 1
	snippet.CreatedAt = now
	snippet.UpdatedAt = now

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO snippets (id, title, description, content, language, version, is_public, user_id, folder_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snippet.ID,
		snippet.Title,
		snippet.Description,
		snippet.Content,
		snippet.Language,
		snippet.Version,
		snippet.IsPublic,
		snippet.UserID,
		snippet.FolderID,
		snippet.CreatedAt,
		snippet.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating snippet: %w", err)
	}

	return nil
}

// GetByID retrieves a snippet the caller may read: their own, or
// anyone's that is marked public. A private snippet owned by someone
// else is indistinguishable from a missing one.
func (s *SnippetStore) GetByID(ctx context.Context, id, userID string) (*model.Snippet, error) {
	snippet, err := scanSnippet(s.conn.QueryRowContext(ctx,
		`SELECT `+snippetColumns+`
		 FROM snippets
		 WHERE id = ? AND (user_id = ? OR is_public = 1)`,
		id, userID,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("snippet", id)
		}
		return nil, fmt.Errorf("sqlite: getting snippet %s: %w", id, err)
	}

	return snippet, nil
}

// List returns the user's own snippets, newest first, optionally scoped
// to one folder.
func (s *SnippetStore) List(ctx context.Context, userID string, opts repository.ListOptions) ([]model.Snippet, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + snippetColumns + `
		 FROM snippets
		 WHERE user_id = ?`
	args := []any{userID}

	if opts.FolderID != "" {
		query += ` AND folder_id = ?`
		args = append(args, opts.FolderID)
	}

	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing snippets: %w", err)
	}
	defer rows.Close()

	snippets := make([]model.Snippet, 0, limit)
	for rows.Next() {
		snippet, err := scanSnippet(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning snippet row: %w", err)
		}
		snippets = append(snippets, *snippet)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating snippets: %w", err)
	}

	return snippets, nil
}

// UpdateMeta writes title, description, language, folder, and
// visibility. Content and version are deliberately absent from the SET
// list — content only changes through Revise, so that every content
// change leaves a history row.
func (s *SnippetStore) UpdateMeta(ctx context.Context, snippet *model.Snippet) error {
	snippet.UpdatedAt = time.Now()

	result, err := s.conn.ExecContext(ctx,
		`UPDATE snippets
		 SET title = ?, description = ?, language = ?, is_public = ?, folder_id = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		snippet.Title,
		snippet.Description,
		snippet.Language,
		snippet.IsPublic,
		snippet.FolderID,
		snippet.UpdatedAt,
		snippet.ID,
		snippet.UserID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating snippet %s: %w", snippet.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("snippet", snippet.ID)
	}

	return nil
}

// Delete removes a snippet; its history rows and tag links go with it
// via ON DELETE CASCADE. The tags themselves survive.
func (s *SnippetStore) Delete(ctx context.Context, id, userID string) error {
	result, err := s.conn.ExecContext(ctx,
		`DELETE FROM snippets WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting snippet %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("snippet", id)
	}

	return nil
}

// Revise is the versioning core: snapshot the current state into
// history, then write the new content and bump the version — one
// transaction, so no caller can ever observe a bumped version without
// its snapshot or vice versa.
//
// The read happens inside the same transaction as the writes. Combined
// with SQLite's single writer (see New), that means each revision
// snapshots exactly the state it replaces: N successful revisions of a
// fresh snippet leave version 1+N and history rows 1..N with no gaps
// and no duplicates.
//
// baseVersion > 0 turns on the optimistic-concurrency check — a stale
// base fails with a conflict and writes nothing. baseVersion 0 means
// "replace whatever is there" (last writer wins, still gapless).
func (s *SnippetStore) Revise(ctx context.Context, id, userID, newContent string, baseVersion int) (*model.Snippet, error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: beginning revise transaction: %w", err)
	}
	// Rollback after Commit is a no-op; this only fires on error paths.
	defer tx.Rollback()

	snippet, err := scanSnippet(tx.QueryRowContext(ctx,
		`SELECT `+snippetColumns+`
		 FROM snippets
		 WHERE id = ? AND user_id = ?`,
		id, userID,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("snippet", id)
		}
		return nil, fmt.Errorf("sqlite: reading snippet %s for revise: %w", id, err)
	}

	if baseVersion > 0 && baseVersion != snippet.Version {
		return nil, apperror.VersionConflict(baseVersion, snippet.Version)
	}

	now := time.Now()

	// Snapshot the pre-update state. The history row carries the
	// version it snapshots, so history for a snippet at version N is
	// exactly versions 1..N-1.
	_, err = tx.ExecContext(ctx,
		`INSERT INTO history (id, content, version, snippet_id, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		xid.New().String(),
		snippet.Content,
		snippet.Version,
		snippet.ID,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: writing history for snippet %s: %w", id, err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE snippets
		 SET content = ?, version = version + 1, updated_at = ?
		 WHERE id = ?`,
		newContent,
		now,
		snippet.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: updating snippet %s content: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: committing revise for snippet %s: %w", id, err)
	}

	snippet.Content = newContent
	snippet.Version++
	snippet.UpdatedAt = now

	return snippet, nil
}

// History returns a snippet's snapshots oldest first, owner-scoped via
// the join. Version order and creation order agree because revisions
// serialize.
func (s *SnippetStore) History(ctx context.Context, snippetID, userID string) ([]model.History, error) {
	// Scope through the snippet row so history of someone else's
	// snippet reads as not-found, like every other owner check.
	var exists int
	err := s.conn.QueryRowContext(ctx,
		`SELECT 1 FROM snippets WHERE id = ? AND user_id = ?`,
		snippetID, userID,
	).Scan(&exists)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("snippet", snippetID)
		}
		return nil, fmt.Errorf("sqlite: checking snippet %s: %w", snippetID, err)
	}

	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, content, version, snippet_id, created_at
		 FROM history
		 WHERE snippet_id = ?
		 ORDER BY version ASC`,
		snippetID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing history for snippet %s: %w", snippetID, err)
	}
	defer rows.Close()

	entries := []model.History{}
	for rows.Next() {
		var h model.History
		if err := rows.Scan(&h.ID, &h.Content, &h.Version, &h.SnippetID, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning history row: %w", err)
		}
		entries = append(entries, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating history: %w", err)
	}

	return entries, nil
}

// AttachTag links a tag to a snippet. INSERT OR IGNORE on the join
// table's primary key makes re-attaching a no-op.
func (s *SnippetStore) AttachTag(ctx context.Context, snippetID, userID, tagID string) error {
	if err := s.checkOwned(ctx, snippetID, userID); err != nil {
		return err
	}

	var exists int
	err := s.conn.QueryRowContext(ctx,
		`SELECT 1 FROM tags WHERE id = ?`, tagID,
	).Scan(&exists)
	if err != nil {
		if err == sql.ErrNoRows {
			return apperror.NotFound("tag", tagID)
		}
		return fmt.Errorf("sqlite: checking tag %s: %w", tagID, err)
	}

	_, err = s.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO snippet_tags (snippet_id, tag_id) VALUES (?, ?)`,
		snippetID, tagID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: attaching tag %s to snippet %s: %w", tagID, snippetID, err)
	}

	return nil
}

// DetachTag removes a tag link. Detaching a tag that isn't attached is
// a no-op, mirroring AttachTag.
func (s *SnippetStore) DetachTag(ctx context.Context, snippetID, userID, tagID string) error {
	if err := s.checkOwned(ctx, snippetID, userID); err != nil {
		return err
	}

	_, err := s.conn.ExecContext(ctx,
		`DELETE FROM snippet_tags WHERE snippet_id = ? AND tag_id = ?`,
		snippetID, tagID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: detaching tag %s from snippet %s: %w", tagID, snippetID, err)
	}

	return nil
}

// TagsFor returns the tags attached to a snippet, sorted by name.
func (s *SnippetStore) TagsFor(ctx context.Context, snippetID string) ([]model.Tag, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT t.id, t.name, t.color
		 FROM tags t
		 JOIN snippet_tags st ON st.tag_id = t.id
		 WHERE st.snippet_id = ?
		 ORDER BY t.name ASC`,
		snippetID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing tags for snippet %s: %w", snippetID, err)
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

func (s *SnippetStore) checkOwned(ctx context.Context, snippetID, userID string) error {
	var exists int
	err := s.conn.QueryRowContext(ctx,
		`SELECT 1 FROM snippets WHERE id = ? AND user_id = ?`,
		snippetID, userID,
	).Scan(&exists)
	if err != nil {
		if err == sql.ErrNoRows {
			return apperror.NotFound("snippet", snippetID)
		}
		return fmt.Errorf("sqlite: checking snippet %s: %w", snippetID, err)
	}
	return nil
}
