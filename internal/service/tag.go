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

const MaxTagNameLength = 50

// TagService manages the global tag vocabulary. Tag names are
// case-sensitive: "React" and "react" are distinct on purpose, matching
// how language and framework names are conventionally written.
type TagService struct {
	repo   repository.TagRepository
	logger *slog.Logger
}

func NewTagService(repo repository.TagRepository, logger *slog.Logger) *TagService {
	return &TagService{
		repo:   repo,
		logger: logger,
	}
}

func (s *TagService) Create(ctx context.Context, name, color string) (*model.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "tag name is required")
	}
	if len(name) > MaxTagNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("tag name must be %d characters or less", MaxTagNameLength))
	}

	color = strings.TrimSpace(color)
	if color != "" && !strings.HasPrefix(color, "#") {
		return nil, apperror.ValidationFailed("color", "tag color must be a hex string like #F7DF1E")
	}

	tag := &model.Tag{
		Name:  name,
		Color: color,
	}

	if err := s.repo.Create(ctx, tag); err != nil {
		return nil, err
	}

	s.logger.Info("tag created", slog.String("id", tag.ID), slog.String("name", tag.Name))

	return tag, nil
}

func (s *TagService) List(ctx context.Context) ([]model.Tag, error) {
	tags, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list tags", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	return tags, nil
}
