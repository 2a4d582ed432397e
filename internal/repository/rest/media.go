package rest

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/utafrali/ApartmentAdmin/internal/apiclient"
	"github.com/utafrali/ApartmentAdmin/internal/domain"
	"github.com/utafrali/ApartmentAdmin/internal/repository"
)

// MediaRepository implements repository.MediaRepository.
type MediaRepository struct {
	*Resource[domain.Media]
}

var _ repository.MediaRepository = (*MediaRepository)(nil)

// NewMediaRepository creates the media repository.
func NewMediaRepository(client Requester) *MediaRepository {
	return &MediaRepository{Resource: NewResource[domain.Media](client, "media")}
}

func (r *MediaRepository) Upload(ctx context.Context, fileName string, content io.Reader) (*domain.Media, error) {
	env, err := r.client.Do(ctx, apiclient.Request{
		Method:    http.MethodPost,
		Path:      r.endpoint,
		Multipart: &apiclient.FilePart{Field: "file", FileName: fileName, Content: content},
	})
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", fileName, err)
	}
	return decodeItem[domain.Media](env)
}
