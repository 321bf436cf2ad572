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

const MaxFolderNameLength = 100

// FolderService handles the folder sidebar: CRUD over a user's
// folders, with GetByID composing in the folder's snippets the way the
// UI shows them.
type FolderService struct {
	repo     repository.FolderRepository
	snippets repository.SnippetRepository
	logger   *slog.Logger
}

func NewFolderService(repo repository.FolderRepository, snippets repository.SnippetRepository, logger *slog.Logger) *FolderService {
	return &FolderService{
		repo:     repo,
		snippets: snippets,
		logger:   logger,
	}
}

func validateFolderName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperror.ValidationFailed("name", "folder name is required")
	}
	if len(name) > MaxFolderNameLength {
		return "", apperror.ValidationFailed("name",
			fmt.Sprintf("folder name must be %d characters or less", MaxFolderNameLength))
	}
	return name, nil
}

func (s *FolderService) Create(ctx context.Context, userID, name string) (*model.Folder, error) {
	name, err := validateFolderName(name)
	if err != nil {
		return nil, err
	}

	folder := &model.Folder{
		Name:   name,
		UserID: userID,
	}

	if err := s.repo.Create(ctx, folder); err != nil {
		s.logger.Error("failed to create folder",
			slog.String("name", name),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating folder: %w", err)
	}

	s.logger.Info("folder created", slog.String("id", folder.ID), slog.String("userID", userID))

	return folder, nil
}

// GetByID returns a folder with its contained snippets, the payload
// the snippet list pane renders from.
func (s *FolderService) GetByID(ctx context.Context, id, userID string) (*model.Folder, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "folder ID is required")
	}

	folder, err := s.repo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	snippets, err := s.snippets.List(ctx, userID, repository.ListOptions{
		FolderID: folder.ID,
		Limit:    MaxListLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("listing folder snippets: %w", err)
	}
	folder.Snippets = snippets

	return folder, nil
}

func (s *FolderService) List(ctx context.Context, userID string) ([]model.Folder, error) {
	folders, err := s.repo.List(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list folders", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing folders: %w", err)
	}
	return folders, nil
}

func (s *FolderService) Rename(ctx context.Context, id, userID, name string) (*model.Folder, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "folder ID is required")
	}
	name, err := validateFolderName(name)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Rename(ctx, id, userID, name); err != nil {
		return nil, err
	}

	return s.repo.GetByID(ctx, id, userID)
}

// Delete removes a folder. Its snippets are unfiled, not deleted —
// losing a grouping should never lose content.
func (s *FolderService) Delete(ctx context.Context, id, userID string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "folder ID is required")
	}

	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return err
	}

	s.logger.Info("folder deleted", slog.String("id", id))
	return nil
}
