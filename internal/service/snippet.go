package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mlatour/codestash/internal/apperror"
	"github.com/mlatour/codestash/internal/model"
	"github.com/mlatour/codestash/internal/repository"
)

// Validation constants. Named (not magic numbers) so error messages and
// tests can reference them.
const (
	MaxTitleLength   = 120
	MaxContentLength = 100000 // ~100KB of code
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// SnippetService enforces the business rules around snippets: required
// fields, size caps, folder ownership, and the revise contract.
//
// Ownership itself is enforced one layer down — every repository call
// carries the requesting userID and scopes its query to it.
type SnippetService struct {
	repo    repository.SnippetRepository
	folders repository.FolderRepository
	logger  *slog.Logger
}

func NewSnippetService(repo repository.SnippetRepository, folders repository.FolderRepository, logger *slog.Logger) *SnippetService {
	return &SnippetService{
		repo:    repo,
		folders: folders,
		logger:  logger,
	}
}

// SnippetInput carries the caller-editable fields for create and
// metadata updates. FolderID nil means unfiled.
type SnippetInput struct {
	Title       string
	Description string
	Content     string
	Language    string
	FolderID    *string
	IsPublic    bool
}

func (s *SnippetService) validateInput(in *SnippetInput) error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return apperror.ValidationFailed("title", "snippet title is required")
	}
	if len(in.Title) > MaxTitleLength {
		return apperror.ValidationFailed("title",
			fmt.Sprintf("snippet title must be %d characters or less", MaxTitleLength))
	}
	if len(in.Content) > MaxContentLength {
		return apperror.ValidationFailed("content",
			fmt.Sprintf("content must be %d characters or less", MaxContentLength))
	}
	in.Description = strings.TrimSpace(in.Description)
	in.Language = strings.TrimSpace(strings.ToLower(in.Language))
	return nil
}

// checkFolder verifies a target folder exists and belongs to the
// caller before filing a snippet into it. Without this, a snippet could
// be filed into another user's folder by guessing its ID.
func (s *SnippetService) checkFolder(ctx context.Context, folderID *string, userID string) error {
	if folderID == nil || *folderID == "" {
		return nil
	}
	_, err := s.folders.GetByID(ctx, *folderID, userID)
	return err
}

// Create validates and saves a new snippet at version 1.
func (s *SnippetService) Create(ctx context.Context, userID string, in SnippetInput) (*model.Snippet, error) {
	if err := s.validateInput(&in); err != nil {
		return nil, err
	}
	if err := s.checkFolder(ctx, in.FolderID, userID); err != nil {
		return nil, err
	}

	snippet := &model.Snippet{
		Title:       in.Title,
		Description: in.Description,
		Content:     in.Content,
		Language:    in.Language,
		IsPublic:    in.IsPublic,
		UserID:      userID,
		FolderID:    normalizeFolderID(in.FolderID),
	}

	if err := s.repo.Create(ctx, snippet); err != nil {
		s.logger.Error("failed to create snippet",
			slog.String("title", in.Title),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating snippet: %w", err)
	}

	s.logger.Info("snippet created",
		slog.String("id", snippet.ID),
		slog.String("userID", userID),
	)

	return snippet, nil
}

// GetByID retrieves a snippet (own or public) with its tags populated.
func (s *SnippetService) GetByID(ctx context.Context, id, userID string) (*model.Snippet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "snippet ID is required")
	}

	snippet, err := s.repo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	tags, err := s.repo.TagsFor(ctx, snippet.ID)
	if err != nil {
		return nil, err
	}
	snippet.Tags = tags

	return snippet, nil
}

// List retrieves the user's snippets with pagination, optionally scoped
// to one folder (the folder is ownership-checked first).
func (s *SnippetService) List(ctx context.Context, userID string, opts repository.ListOptions) ([]model.Snippet, error) {
	if opts.Limit <= 0 {
		opts.Limit = DefaultListLimit
	}
	if opts.Limit > MaxListLimit {
		opts.Limit = MaxListLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}

	if opts.FolderID != "" {
		if _, err := s.folders.GetByID(ctx, opts.FolderID, userID); err != nil {
			return nil, err
		}
	}

	snippets, err := s.repo.List(ctx, userID, opts)
	if err != nil {
		s.logger.Error("failed to list snippets", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing snippets: %w", err)
	}

	return snippets, nil
}

// UpdateMeta changes a snippet's metadata. Content is untouched: a
// metadata edit is not a revision and must not consume a version
// number.
func (s *SnippetService) UpdateMeta(ctx context.Context, id, userID string, in SnippetInput) (*model.Snippet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "snippet ID is required")
	}
	if err := s.validateInput(&in); err != nil {
		return nil, err
	}
	if err := s.checkFolder(ctx, in.FolderID, userID); err != nil {
		return nil, err
	}

	snippet, err := s.repo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if snippet.UserID != userID {
		// GetByID also returns public snippets; only the owner edits.
		return nil, apperror.NotFound("snippet", id)
	}

	snippet.Title = in.Title
	snippet.Description = in.Description
	snippet.Language = in.Language
	snippet.IsPublic = in.IsPublic
	snippet.FolderID = normalizeFolderID(in.FolderID)

	if err := s.repo.UpdateMeta(ctx, snippet); err != nil {
		s.logger.Error("failed to update snippet",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating snippet: %w", err)
	}

	return snippet, nil
}

// Revise replaces a snippet's content, snapshotting the previous state
// into history and bumping the version by one. Identical content still
// counts: the editor fires saves on change events and every save is a
// revision, not a diff.
//
// baseVersion > 0 requests the optimistic-concurrency check; 0 accepts
// last-writer-wins.
func (s *SnippetService) Revise(ctx context.Context, id, userID, content string, baseVersion int) (*model.Snippet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "snippet ID is required")
	}
	if len(content) > MaxContentLength {
		return nil, apperror.ValidationFailed("content",
			fmt.Sprintf("content must be %d characters or less", MaxContentLength))
	}
	if baseVersion < 0 {
		return nil, apperror.ValidationFailed("baseVersion", "base version cannot be negative")
	}

	snippet, err := s.repo.Revise(ctx, id, userID, content, baseVersion)
	if err != nil {
		return nil, err
	}

	s.logger.Info("snippet revised",
		slog.String("id", snippet.ID),
		slog.Int("version", snippet.Version),
	)

	return snippet, nil
}

// History lists a snippet's snapshots, oldest first.
func (s *SnippetService) History(ctx context.Context, id, userID string) ([]model.History, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "snippet ID is required")
	}

	return s.repo.History(ctx, id, userID)
}

// Delete removes a snippet along with its history and tag links.
func (s *SnippetService) Delete(ctx context.Context, id, userID string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "snippet ID is required")
	}

	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return err
	}

	s.logger.Info("snippet deleted", slog.String("id", id))
	return nil
}

// AttachTag links a tag to an owned snippet; idempotent.
func (s *SnippetService) AttachTag(ctx context.Context, snippetID, userID, tagID string) error {
	if strings.TrimSpace(snippetID) == "" || strings.TrimSpace(tagID) == "" {
		return apperror.ValidationFailed("id", "snippet ID and tag ID are required")
	}
	return s.repo.AttachTag(ctx, snippetID, userID, tagID)
}

// DetachTag removes a tag link from an owned snippet.
func (s *SnippetService) DetachTag(ctx context.Context, snippetID, userID, tagID string) error {
	if strings.TrimSpace(snippetID) == "" || strings.TrimSpace(tagID) == "" {
		return apperror.ValidationFailed("id", "snippet ID and tag ID are required")
	}
	return s.repo.DetachTag(ctx, snippetID, userID, tagID)
}

// normalizeFolderID maps pointer-to-empty-string onto nil so the
// repository only ever sees "a folder ID" or "NULL".
func normalizeFolderID(folderID *string) *string {
	if folderID == nil || *folderID == "" {
		return nil
	}
	return folderID
}
