package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/utafrali/ApartmentAdmin/internal/apiclient"
	"github.com/utafrali/ApartmentAdmin/internal/domain"
	"github.com/utafrali/ApartmentAdmin/internal/repository"
)

// SystemRepository implements repository.SystemRepository.
type SystemRepository struct {
	client Requester
}

var _ repository.SystemRepository = (*SystemRepository)(nil)

// NewSystemRepository creates the system repository.
func NewSystemRepository(client Requester) *SystemRepository {
	return &SystemRepository{client: client}
}

func (r *SystemRepository) Data(ctx context.Context) (*domain.SystemData, error) {
	env, err := r.client.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: "system-data"})
	if err != nil {
		return nil, fmt.Errorf("get system data: %w", err)
	}
	var data domain.SystemData
	if err := env.Decode(&data); err != nil {
		return nil, fmt.Errorf("get system data: %w", err)
	}
	return &data, nil
}
