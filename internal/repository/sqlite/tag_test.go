package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/mlatour/codestash/internal/apperror"
	"github.com/mlatour/codestash/internal/model"
)

func TestTagCreateAndList(t *testing.T) {
	db := newTestDB(t)
	store := NewTagStore(db)

	for _, tag := range []*model.Tag{
		{Name: "python", Color: "#3776AB"},
		{Name: "go", Color: "#00ADD8"},
	} {
		if err := store.Create(context.Background(), tag); err != nil {
			t.Fatalf("Create(%q) error = %v", tag.Name, err)
		}
		if tag.ID == "" {
			t.Errorf("Create(%q) did not set tag.ID", tag.Name)
		}
	}

	tags, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(tags) != 2 {
		t.Fatalf("List() returned %d tags, want 2", len(tags))
	}
	if tags[0].Name != "go" || tags[1].Name != "python" {
		t.Errorf("List() order = [%q, %q], want name-sorted [go, python]", tags[0].Name, tags[1].Name)
	}
}

func TestTagCreate_DuplicateName(t *testing.T) {
	db := newTestDB(t)
	store := NewTagStore(db)

	if err := store.Create(context.Background(), &model.Tag{Name: "go", Color: "#00ADD8"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	err := store.Create(context.Background(), &model.Tag{Name: "go", Color: "#FFFFFF"})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("Create() duplicate name error = %v, want ErrConflict", err)
	}
}

func TestTagGetByID_Missing(t *testing.T) {
	db := newTestDB(t)

	_, err := NewTagStore(db).GetByID(context.Background(), "no-such-tag")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}
