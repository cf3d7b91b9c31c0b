package blobstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/mediashelf/internal/models"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	// PublicURL replaces <endpoint>/<bucket> in returned URLs (CDN or website host).
	PublicURL string
}

// S3 streams images to any S3-compatible bucket as public-read objects.
type S3 struct {
	cl        *minio.Client
	bucket    string
	region    string
	publicURL string
	log       *logger.ZapLogger
}

func NewS3(cfg S3Config, log *logger.ZapLogger) (*S3, error) {
	endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "http://"), "https://")
	cl, err := minio.New(strings.TrimRight(endpoint, "/"), &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:       cfg.UseSSL,
		Region:       cfg.Region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, err
	}

	public := strings.TrimRight(cfg.PublicURL, "/")
	if public == "" {
		public = strings.TrimRight(cl.EndpointURL().String(), "/") + "/" + cfg.Bucket
	}
	return &S3{cl: cl, bucket: cfg.Bucket, region: cfg.Region, publicURL: public, log: log}, nil
}

func (s *S3) Name() string { return "s3" }

func (s *S3) EnsureBucket(ctx context.Context) error {
	exists, err := s.cl.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		return s.cl.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region})
	}
	return nil
}

func (s *S3) Upload(ctx context.Context, fh *models.FileHandle) (string, error) {
	defer fh.Release(s.log)

	r, size, err := fh.Open()
	if err != nil {
		return "", uploadFailed(s.Name(), err)
	}
	defer r.Close()

	key := objectKey(fh.Filename)
	contentType := fh.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	info, err := s.cl.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: map[string]string{"x-amz-acl": "public-read"},
	})
	if err != nil {
		return "", uploadFailed(s.Name(), err)
	}

	s.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "image uploaded",
		Fields:  map[string]any{"backend": s.Name(), "bucket": s.bucket, "key": key, "size": info.Size},
	})
	return s.publicURL + "/" + key, nil
}
