package service

import (
	"context"
	"io"
	"log/slog"

	"github.com/utafrali/ApartmentAdmin/internal/domain"
	"github.com/utafrali/ApartmentAdmin/internal/query"
	"github.com/utafrali/ApartmentAdmin/internal/repository"
	apperrors "github.com/utafrali/ApartmentAdmin/pkg/errors"
)

// Upload is a single file handed to MediaService.Upload.
type Upload struct {
	FileName string
	Content  io.Reader
}

// MediaService uploads and lists media.
type MediaService struct {
	repo   repository.MediaRepository
	cache  *query.Client
	logger *slog.Logger

	upload *query.Mutation[Upload, *domain.Media]
}

// NewMediaService creates a new media service.
func NewMediaService(repo repository.MediaRepository, cache *query.Client, logger *slog.Logger) *MediaService {
	s := &MediaService{repo: repo, cache: cache, logger: logger}
	s.upload = query.NewMutation(cache, func(ctx context.Context, in Upload) (*domain.Media, error) {
		return s.repo.Upload(ctx, in.FileName, in.Content)
	}, query.MutationOptions[Upload, *domain.Media]{Invalidate: []query.Key{MediaKey}})
	return s
}

// List returns one page of media.
func (s *MediaService) List(ctx context.Context, params domain.ListParams, opts ...query.QueryOption) (*domain.Page[domain.Media], query.State, error) {
	return query.Fetch(ctx, s.cache, MediaListKey(params), func(ctx context.Context) (*domain.Page[domain.Media], error) {
		return s.repo.List(ctx, params)
	}, opts...)
}

// Upload sends one file.
func (s *MediaService) Upload(ctx context.Context, in Upload) (*domain.Media, error) {
	if in.FileName == "" || in.Content == nil {
		return nil, apperrors.InvalidInput("a file is required")
	}
	m, err := s.upload.Mutate(ctx, in)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "media uploaded", slog.String("file", in.FileName))
	return m, nil
}
