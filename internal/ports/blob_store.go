package ports

import (
	"context"

	"github.com/Vovarama1992/mediashelf/internal/models"
)

// BlobStore uploads a cover image and returns its public URL. Implementations
// release the handle's staged file whatever the outcome, and wrap failures in
// models.ErrUploadFailed.
type BlobStore interface {
	Upload(ctx context.Context, file *models.FileHandle) (string, error)
	Name() string
}
