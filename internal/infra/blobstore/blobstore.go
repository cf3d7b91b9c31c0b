// Package blobstore holds the interchangeable cover image backends: local
// disk, any S3-compatible bucket, and Cloudinary. Exactly one is active per
// process, picked by config.
package blobstore

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/mediashelf/internal/config"
	"github.com/Vovarama1992/mediashelf/internal/infra"
	"github.com/Vovarama1992/mediashelf/internal/models"
	"github.com/Vovarama1992/mediashelf/internal/ports"
	"github.com/google/uuid"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// New builds the configured backend wrapped with upload metrics.
func New(ctx context.Context, cfg *config.Config, m *infra.Metrics, log *logger.ZapLogger) (ports.BlobStore, error) {
	var (
		store ports.BlobStore
		err   error
	)
	switch cfg.BlobBackend {
	case config.BackendLocal:
		store, err = NewLocal(cfg.UploadDir, cfg.PublicBaseURL, log)
	case config.BackendS3:
		var s3 *S3
		s3, err = NewS3(S3Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			UseSSL:    cfg.S3UseSSL,
			PublicURL: cfg.S3PublicURL,
		}, log)
		if err == nil {
			err = s3.EnsureBucket(ctx)
		}
		store = s3
	case config.BackendCloudinary:
		store, err = NewCloudinary(CloudinaryConfig{
			URL:       cfg.CloudinaryURL,
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryFolder,
		}, log)
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.BlobBackend)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s blob store: %w", cfg.BlobBackend, err)
	}
	if m == nil {
		return store, nil
	}
	return NewInstrumented(store, m), nil
}

// Instrumented counts and times every upload of the wrapped backend.
type Instrumented struct {
	next ports.BlobStore
	m    *infra.Metrics
}

func NewInstrumented(next ports.BlobStore, m *infra.Metrics) *Instrumented {
	return &Instrumented{next: next, m: m}
}

func (i *Instrumented) Name() string { return i.next.Name() }

func (i *Instrumented) Upload(ctx context.Context, fh *models.FileHandle) (string, error) {
	start := time.Now()
	u, err := i.next.Upload(ctx, fh)
	i.m.UploadDuration.WithLabelValues(i.next.Name()).Observe(time.Since(start).Seconds())
	result := "ok"
	if err != nil {
		result = "error"
	}
	i.m.Uploads.WithLabelValues(i.next.Name(), result).Inc()
	return u, err
}

func uploadFailed(backend string, err error) error {
	return fmt.Errorf("%w: %s: %w", models.ErrUploadFailed, backend, err)
}

// objectKey never repeats, so identical content uploaded twice lands in two
// objects.
func objectKey(filename string) string {
	return "uploads/" + uuid.NewString() + "-" + sanitize(filename)
}

func sanitize(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeChars.ReplaceAllString(name, "_")
	if strings.Trim(name, "._") == "" {
		return "image"
	}
	return name
}
