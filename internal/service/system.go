package service

import (
	"context"

	"github.com/utafrali/ApartmentAdmin/internal/domain"
	"github.com/utafrali/ApartmentAdmin/internal/query"
	"github.com/utafrali/ApartmentAdmin/internal/repository"
)

// SystemService serves the dashboard statistics.
type SystemService struct {
	repo  repository.SystemRepository
	cache *query.Client
}

func NewSystemService(repo repository.SystemRepository, cache *query.Client) *SystemService {
	return &SystemService{repo: repo, cache: cache}
}

func (s *SystemService) Data(ctx context.Context, opts ...query.QueryOption) (*domain.SystemData, query.State, error) {
	return query.Fetch(ctx, s.cache, SystemDataKey, s.repo.Data, opts...)
}
