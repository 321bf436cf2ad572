package model

// Tag is a global label shared by all users, with an optional display
// colour. Names are case-sensitive unique ("React" and "react" are two
// different tags). Snippets and tags are many-to-many via the
// snippet_tags join table.
type Tag struct {
	ID    string `json:"id"    db:"id"`
	Name  string `json:"name"  db:"name"`
	Color string `json:"color" db:"color"` // hex string like "#F7DF1E", may be empty
}
