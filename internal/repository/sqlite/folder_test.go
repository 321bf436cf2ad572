package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/mlatour/codestash/internal/apperror"
	"github.com/mlatour/codestash/internal/model"
)

func createTestFolder(t *testing.T, db *DB, userID, name string) *model.Folder {
	t.Helper()
	folder := &model.Folder{Name: name, UserID: userID}
	if err := NewFolderStore(db).Create(context.Background(), folder); err != nil {
		t.Fatalf("failed to create test folder: %v", err)
	}
	return folder
}

func TestFolderCreateAndGet(t *testing.T) {
	db := newTestDB(t)
	store := NewFolderStore(db)
	user := createTestUser(t, db, "owner@example.com")

	folder := createTestFolder(t, db, user.ID, "Work")

	got, err := store.GetByID(context.Background(), folder.ID, user.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Name != "Work" {
		t.Errorf("name = %q, want %q", got.Name, "Work")
	}
}

func TestFolderGetByID_NotOwned(t *testing.T) {
	db := newTestDB(t)
	store := NewFolderStore(db)
	owner := createTestUser(t, db, "owner@example.com")
	stranger := createTestUser(t, db, "stranger@example.com")

	folder := createTestFolder(t, db, owner.ID, "Work")

	_, err := store.GetByID(context.Background(), folder.ID, stranger.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestFolderList(t *testing.T) {
	db := newTestDB(t)
	store := NewFolderStore(db)
	user := createTestUser(t, db, "owner@example.com")
	other := createTestUser(t, db, "other@example.com")

	createTestFolder(t, db, user.ID, "Zebra")
	createTestFolder(t, db, user.ID, "Apple")
	createTestFolder(t, db, other.ID, "Not Mine")

	folders, err := store.List(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(folders) != 2 {
		t.Fatalf("List() returned %d folders, want 2", len(folders))
	}
	if folders[0].Name != "Apple" || folders[1].Name != "Zebra" {
		t.Errorf("List() order = [%q, %q], want name-sorted [Apple, Zebra]", folders[0].Name, folders[1].Name)
	}
}

func TestFolderRename(t *testing.T) {
	db := newTestDB(t)
	store := NewFolderStore(db)
	user := createTestUser(t, db, "owner@example.com")

	folder := createTestFolder(t, db, user.ID, "Old")
	if err := store.Rename(context.Background(), folder.ID, user.ID, "New"); err != nil {
		t.Fatalf("Rename() error = %v", err)
	}

	got, err := store.GetByID(context.Background(), folder.ID, user.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Name != "New" {
		t.Errorf("name = %q, want %q", got.Name, "New")
	}
}

func TestFolderRename_NotOwned(t *testing.T) {
	db := newTestDB(t)
	store := NewFolderStore(db)
	owner := createTestUser(t, db, "owner@example.com")
	stranger := createTestUser(t, db, "stranger@example.com")

	folder := createTestFolder(t, db, owner.ID, "Work")
	err := store.Rename(context.Background(), folder.ID, stranger.ID, "Hijacked")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Rename() error = %v, want ErrNotFound", err)
	}
}

// Deleting a folder unfiles its snippets instead of deleting them: the
// schema sets folder_id NULL, content and history survive.
func TestFolderDelete_UnfilesSnippets(t *testing.T) {
	db := newTestDB(t)
	folderStore := NewFolderStore(db)
	snippetStore := NewSnippetStore(db)
	user := createTestUser(t, db, "owner@example.com")

	folder := createTestFolder(t, db, user.ID, "Doomed")

	snippet := &model.Snippet{
		Title:    "survivor",
		Content:  "a",
		Language: "go",
		UserID:   user.ID,
		FolderID: &folder.ID,
	}
	if err := snippetStore.Create(context.Background(), snippet); err != nil {
		t.Fatalf("snippet Create() error = %v", err)
	}
	if _, err := snippetStore.Revise(context.Background(), snippet.ID, user.ID, "b", 0); err != nil {
		t.Fatalf("Revise() error = %v", err)
	}

	if err := folderStore.Delete(context.Background(), folder.ID, user.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	got, err := snippetStore.GetByID(context.Background(), snippet.ID, user.ID)
	if err != nil {
		t.Fatalf("snippet gone after folder delete: %v", err)
	}
	if got.FolderID != nil {
		t.Errorf("snippet folder_id = %v, want nil", *got.FolderID)
	}
	if got.Content != "b" || got.Version != 2 {
		t.Errorf("snippet state = {content: %q, version: %d}, want {content: \"b\", version: 2}", got.Content, got.Version)
	}

	history, err := snippetStore.History(context.Background(), snippet.ID, user.ID)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 1 {
		t.Errorf("history has %d entries after folder delete, want 1", len(history))
	}
}

func TestFolderDelete_NotOwned(t *testing.T) {
	db := newTestDB(t)
	store := NewFolderStore(db)
	owner := createTestUser(t, db, "owner@example.com")
	stranger := createTestUser(t, db, "stranger@example.com")

	folder := createTestFolder(t, db, owner.ID, "Work")
	if err := store.Delete(context.Background(), folder.ID, stranger.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("Delete() error = %v, want ErrNotFound", err)
	}

	if _, err := store.GetByID(context.Background(), folder.ID, owner.ID); err != nil {
		t.Errorf("folder gone after stranger delete: %v", err)
	}
}
