// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// Accounts are created either by email+password registration (bcrypt
// hash stored in HashedPassword) or via GitHub OAuth, in which case
// HashedPassword stays empty and GitHubID is set.
//
// WHY GitHubID int64 WITH 0 AS "NONE"?
// GitHub user IDs are positive integers, so 0 is a safe sentinel for
// "no linked GitHub account". A pointer would also work but makes every
// comparison noisier; the partial unique index in the schema only
// applies where github_id != 0.
//
// HashedPassword carries `json:"-"` — it must never leave the server,
// no matter which handler marshals a User.
type User struct {
	ID             string    `json:"id"        db:"id"`
	Email          string    `json:"email"     db:"email"` // unique, login identifier
	HashedPassword string    `json:"-"         db:"hashed_password"`
	Name           string    `json:"name"      db:"name"` // display name, may be empty
	IsAdmin        bool      `json:"isAdmin"   db:"is_admin"`
	GitHubID       int64     `json:"-"         db:"github_id"` // 0 = no linked GitHub account
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at"`
}
