package ports

import (
	"context"

	"github.com/Vovarama1992/mediashelf/internal/models"
)

type MediaRepository interface {
	// GetAll returns every record, newest first. No records is an empty slice.
	GetAll(ctx context.Context) ([]models.Media, error)
	// GetByID returns nil, nil when the record does not exist.
	GetByID(ctx context.Context, id string) (*models.Media, error)
	Create(ctx context.Context, fields models.MediaFields) (*models.Media, error)
	// Update overwrites only the columns present in patch. Unknown id is models.ErrNotFound.
	Update(ctx context.Context, id string, patch models.MediaPatch) (*models.Media, error)
	// Delete removes the record and returns its last state. Unknown id is models.ErrNotFound.
	Delete(ctx context.Context, id string) (*models.Media, error)
	Filter(ctx context.Context, mediaType models.MediaType) ([]models.Media, error)
}
