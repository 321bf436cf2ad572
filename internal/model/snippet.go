// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// Snippet is a unit of stored code text with its metadata.
//
// Version starts at 1 and goes up by exactly one on every content
// revision. The pre-revision state is snapshotted into a History row
// first, so the history of a snippet at version N is the complete
// sequence of its states at versions 1..N-1.
//
// FolderID is a pointer because a snippet may be unfiled: nil maps to
// SQL NULL. Every other field uses its zero value for "empty".
type Snippet struct {
	ID          string    `json:"id"          db:"id"`
	Title       string    `json:"title"       db:"title"`
	Description string    `json:"description" db:"description"`
	Content     string    `json:"content"     db:"content"`
	Language    string    `json:"language"    db:"language"` // free-form, e.g. "python"
	Version     int       `json:"version"     db:"version"`
	IsPublic    bool      `json:"isPublic"    db:"is_public"`
	UserID      string    `json:"userId"      db:"user_id"`
	FolderID    *string   `json:"folderId"    db:"folder_id"` // nil = unfiled
	Tags        []Tag     `json:"tags,omitempty"`             // populated on reads that join tags
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt"   db:"updated_at"`
}

// History is an immutable snapshot of a snippet's content taken
// immediately before a revision. Rows are append-only: nothing in the
// codebase updates or deletes a history row (they only disappear via
// ON DELETE CASCADE when their snippet is deleted).
type History struct {
	ID        string    `json:"id"        db:"id"`
	Content   string    `json:"content"   db:"content"`
	Version   int       `json:"version"   db:"version"`
	SnippetID string    `json:"snippetId" db:"snippet_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
