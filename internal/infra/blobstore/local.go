package blobstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/mediashelf/internal/models"
	"github.com/google/uuid"
)

// Local keeps images in a directory that the HTTP layer serves under /uploads/.
// There is no remote call, so only filesystem errors fail an upload.
type Local struct {
	dir     string
	baseURL string
	log     *logger.ZapLogger
}

func NewLocal(dir, baseURL string, log *logger.ZapLogger) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Local{dir: dir, baseURL: strings.TrimRight(baseURL, "/"), log: log}, nil
}

func (s *Local) Name() string { return "local" }

func (s *Local) Upload(ctx context.Context, fh *models.FileHandle) (string, error) {
	defer fh.Release(s.log)

	if err := ctx.Err(); err != nil {
		return "", uploadFailed(s.Name(), err)
	}

	src, _, err := fh.Open()
	if err != nil {
		return "", uploadFailed(s.Name(), err)
	}
	defer src.Close()

	name := fmt.Sprintf("image-%d-%s%s", time.Now().UnixMilli(), uuid.NewString(), strings.ToLower(filepath.Ext(sanitize(fh.Filename))))
	dst := filepath.Join(s.dir, name)

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", uploadFailed(s.Name(), err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		_ = os.Remove(dst)
		return "", uploadFailed(s.Name(), err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return "", uploadFailed(s.Name(), err)
	}

	s.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "image stored",
		Fields:  map[string]any{"backend": s.Name(), "file": name},
	})
	return s.baseURL + "/uploads/" + name, nil
}
