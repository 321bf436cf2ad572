package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/mlatour/codestash/internal/apperror"
	"github.com/mlatour/codestash/internal/model"
)

func TestUserCreate(t *testing.T) {
	db := newTestDB(t)
	store := NewUserStore(db)

	user := &model.User{
		Email:          "alice@example.com",
		HashedPassword: "hash",
		Name:           "Alice",
	}
	if err := store.Create(context.Background(), user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if user.ID == "" {
		t.Error("Create() did not set user.ID")
	}

	got, err := store.GetByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if got.ID != user.ID || got.Name != "Alice" {
		t.Errorf("GetByEmail() = %+v, want id %q name Alice", got, user.ID)
	}
}

func TestUserCreate_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	store := NewUserStore(db)

	createTestUser(t, db, "alice@example.com")

	err := store.Create(context.Background(), &model.User{
		Email:          "alice@example.com",
		HashedPassword: "hash",
		Name:           "Imposter",
	})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("Create() duplicate email error = %v, want ErrConflict", err)
	}
}

func TestUserGetByID_Missing(t *testing.T) {
	db := newTestDB(t)

	_, err := NewUserStore(db).GetByID(context.Background(), "no-such-id")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestUpsertGitHub(t *testing.T) {
	db := newTestDB(t)
	store := NewUserStore(db)

	first := &model.User{
		Email:    "octo@example.com",
		Name:     "Octo",
		GitHubID: 12345,
	}
	if err := store.UpsertGitHub(context.Background(), first); err != nil {
		t.Fatalf("UpsertGitHub() error = %v", err)
	}
	if first.ID == "" {
		t.Fatal("UpsertGitHub() did not set user.ID")
	}

	// Same GitHub account logs in again with a changed name: the
	// internal ID must stay stable.
	second := &model.User{
		Email:    "octo@example.com",
		Name:     "Octocat",
		GitHubID: 12345,
	}
	if err := store.UpsertGitHub(context.Background(), second); err != nil {
		t.Fatalf("second UpsertGitHub() error = %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("internal ID changed across logins: %q != %q", second.ID, first.ID)
	}

	got, err := store.GetByID(context.Background(), first.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Name != "Octocat" {
		t.Errorf("name = %q, want %q", got.Name, "Octocat")
	}
}
