// Command seed populates a database with demo accounts, folders, tags
// and snippets for local development.
//
// Run it against a fresh database:
//
//	DB_PATH=data/codestash.db go run ./cmd/seed
//
// Seeding an already-populated database fails on the first duplicate
// email rather than duplicating data.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/mlatour/codestash/internal/auth"
	"github.com/mlatour/codestash/internal/model"
	sqliteRepo "github.com/mlatour/codestash/internal/repository/sqlite"
	"github.com/mlatour/codestash/internal/service"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	dbPath := "data/codestash.db"
	if envDB := os.Getenv("DB_PATH"); envDB != "" {
		dbPath = envDB
	}

	db, err := sqliteRepo.New(dbPath)
	if err != nil {
		logger.Error("failed to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	if err := seed(context.Background(), db, logger); err != nil {
		logger.Error("seeding failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("database seeded", slog.String("path", dbPath))
}

func seed(ctx context.Context, db *sqliteRepo.DB, logger *slog.Logger) error {
	users := sqliteRepo.NewUserStore(db)
	folders := sqliteRepo.NewFolderStore(db)
	snippets := sqliteRepo.NewSnippetStore(db)
	tags := sqliteRepo.NewTagStore(db)

	passwords := auth.NewPasswordService()
	snippetService := service.NewSnippetService(snippets, folders, logger)
	folderService := service.NewFolderService(folders, snippets, logger)
	tagService := service.NewTagService(tags, logger)

	// Demo accounts. The admin account goes through the store directly
	// because registration never grants the admin flag.
	adminHash, err := passwords.Hash("admin123!")
	if err != nil {
		return err
	}
	admin := &model.User{
		Email:          "admin@admin.com",
		HashedPassword: adminHash,
		Name:           "Admin",
		IsAdmin:        true,
	}
	if err := users.Create(ctx, admin); err != nil {
		return err
	}

	userHash, err := passwords.Hash("password123")
	if err != nil {
		return err
	}
	demo := &model.User{
		Email:          "demo@example.com",
		HashedPassword: userHash,
		Name:           "Demo User",
	}
	if err := users.Create(ctx, demo); err != nil {
		return err
	}

	seedTags := []struct{ name, color string }{
		{"JavaScript", "#F7DF1E"},
		{"TypeScript", "#3178C6"},
		{"React", "#61DAFB"},
		{"Node.js", "#339933"},
		{"Python", "#3776AB"},
	}
	tagIDs := make(map[string]string, len(seedTags))
	for _, t := range seedTags {
		tag, err := tagService.Create(ctx, t.name, t.color)
		if err != nil {
			return err
		}
		tagIDs[t.name] = tag.ID
	}

	utilities, err := folderService.Create(ctx, demo.ID, "Utilities")
	if err != nil {
		return err
	}
	if _, err := folderService.Create(ctx, demo.ID, "Experiments"); err != nil {
		return err
	}

	debounce, err := snippetService.Create(ctx, demo.ID, service.SnippetInput{
		Title:       "Debounce helper",
		Description: "Delay a function call until input settles.",
		Language:    "javascript",
		FolderID:    &utilities.ID,
		IsPublic:    true,
		Content: `function debounce(fn, wait) {
  let timer;
  return (...args) => {
    clearTimeout(timer);
    timer = setTimeout(() => fn(...args), wait);
  };
}`,
	})
	if err != nil {
		return err
	}
	if err := snippetService.AttachTag(ctx, debounce.ID, demo.ID, tagIDs["JavaScript"]); err != nil {
		return err
	}

	// One revision so the demo snippet ships with a history entry.
	if _, err := snippetService.Revise(ctx, debounce.ID, demo.ID, `function debounce(fn, wait = 250) {
  let timer;
  return (...args) => {
    clearTimeout(timer);
    timer = setTimeout(() => fn(...args), wait);
  };
}`, 0); err != nil {
		return err
	}

	flatten, err := snippetService.Create(ctx, demo.ID, service.SnippetInput{
		Title:       "Flatten nested lists",
		Description: "Recursive flatten, handles arbitrary depth.",
		Language:    "python",
		Content: `def flatten(items):
    for item in items:
        if isinstance(item, (list, tuple)):
            yield from flatten(item)
        else:
            yield item`,
	})
	if err != nil {
		return err
	}
	if err := snippetService.AttachTag(ctx, flatten.ID, demo.ID, tagIDs["Python"]); err != nil {
		return err
	}

	if _, err := snippetService.Create(ctx, admin.ID, service.SnippetInput{
		Title:       "Server health probe",
		Description: "Quick readiness check against a local port.",
		Language:    "bash",
		IsPublic:    true,
		Content:     `curl -fsS http://localhost:8080/healthz && echo ok`,
	}); err != nil {
		return err
	}

	return nil
}
