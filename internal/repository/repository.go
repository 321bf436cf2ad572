// Package repository declares the storage interfaces consumed by the
// service layer. The concrete implementation lives in repository/sqlite;
// services only ever see these interfaces, which is what lets tests
// substitute in-memory fakes and would let a Postgres implementation
// slot in without touching business logic.
//
// OWNERSHIP SCOPING:
// Every method that touches a user-owned row takes the requesting
// userID and scopes the query to it (WHERE user_id = ?). A row that is
// missing and a row owned by someone else both come back as
// apperror.ErrNotFound — deliberately indistinguishable, so resource
// IDs cannot be probed for existence.
package repository

import (
	"context"

	"github.com/mlatour/codestash/internal/model"
)

// ListOptions controls pagination and optional folder scoping for
// snippet listings. FolderID "" means "all of the user's snippets".
type ListOptions struct {
	Limit    int
	Offset   int
	FolderID string
}

type UserRepository interface {
	// Create inserts a new user. A duplicate email returns
	// apperror.ErrConflict.
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// UpsertGitHub inserts or refreshes a user keyed by their GitHub ID,
	// used by the OAuth callback.
	UpsertGitHub(ctx context.Context, user *model.User) error
}

type FolderRepository interface {
	Create(ctx context.Context, folder *model.Folder) error
	GetByID(ctx context.Context, id, userID string) (*model.Folder, error)
	List(ctx context.Context, userID string) ([]model.Folder, error)
	Rename(ctx context.Context, id, userID, name string) error
	// Delete removes the folder. Its snippets are unfiled (folder_id set
	// NULL by the schema), not deleted.
	Delete(ctx context.Context, id, userID string) error
}

type SnippetRepository interface {
	Create(ctx context.Context, snippet *model.Snippet) error
	// GetByID returns the snippet when the caller owns it or when it is
	// marked public.
	GetByID(ctx context.Context, id, userID string) (*model.Snippet, error)
	List(ctx context.Context, userID string, opts ListOptions) ([]model.Snippet, error)
	// UpdateMeta writes title, description, language, folder and
	// visibility. It never touches content or version — that is Revise's
	// job.
	UpdateMeta(ctx context.Context, snippet *model.Snippet) error
	Delete(ctx context.Context, id, userID string) error

	// Revise atomically snapshots the snippet's current content and
	// version into a history row, then writes newContent and increments
	// the version. Both writes commit together or not at all.
	//
	// baseVersion > 0 enables the optimistic-concurrency check: if it no
	// longer matches the stored version the call fails with
	// apperror.ErrConflict and nothing is written. baseVersion 0 skips
	// the check.
	Revise(ctx context.Context, id, userID, newContent string, baseVersion int) (*model.Snippet, error)

	// History returns the snippet's snapshots, oldest first.
	History(ctx context.Context, snippetID, userID string) ([]model.History, error)

	// AttachTag links a tag to a snippet; attaching an already-attached
	// tag is a no-op. DetachTag removes the link.
	AttachTag(ctx context.Context, snippetID, userID, tagID string) error
	DetachTag(ctx context.Context, snippetID, userID, tagID string) error
	TagsFor(ctx context.Context, snippetID string) ([]model.Tag, error)
}

type TagRepository interface {
	// Create inserts a new tag. A duplicate name returns
	// apperror.ErrConflict.
	Create(ctx context.Context, tag *model.Tag) error
	GetByID(ctx context.Context, id string) (*model.Tag, error)
	List(ctx context.Context) ([]model.Tag, error)
}
