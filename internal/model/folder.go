package model

import "time"

// Folder is a user-owned grouping of snippets. Folder names are only
// meaningful per owner — two users can both have a "JavaScript" folder.
//
// Deleting a folder unfiles its snippets rather than destroying them;
// the snippets.folder_id foreign key is declared ON DELETE SET NULL.
type Folder struct {
	ID        string    `json:"id"        db:"id"`
	Name      string    `json:"name"      db:"name"`
	UserID    string    `json:"userId"    db:"user_id"`
	Snippets  []Snippet `json:"snippets,omitempty"` // populated by GetByID, not List
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
