package domain

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/mediashelf/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testLogger() *logger.ZapLogger {
	return logger.NewZapLogger(zap.NewNop().Sugar())
}

// memRepo keeps rows in a map and follows the same merge rules as Postgres.
type memRepo struct {
	mu    sync.Mutex
	rows  map[string]models.Media
	clock time.Time
	calls int
	err   error
}

func newMemRepo() *memRepo {
	return &memRepo{rows: map[string]models.Media{}, clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (r *memRepo) sorted(keep func(models.Media) bool) []models.Media {
	out := make([]models.Media, 0, len(r.rows))
	for _, m := range r.rows {
		if keep(m) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *memRepo) GetAll(context.Context) ([]models.Media, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	return r.sorted(func(models.Media) bool { return true }), nil
}

func (r *memRepo) Filter(_ context.Context, t models.MediaType) ([]models.Media, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(func(m models.Media) bool { return m.Type == t }), nil
}

func (r *memRepo) GetByID(_ context.Context, id string) (*models.Media, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	m, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (r *memRepo) Create(_ context.Context, f models.MediaFields) (*models.Media, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	r.clock = r.clock.Add(time.Second)
	url := f.ImageURL
	m := models.Media{
		ID:        uuid.NewString(),
		Title:     f.Title,
		Type:      f.Type,
		Status:    f.Status,
		Rating:    f.Rating,
		Review:    f.Review,
		ImageURL:  &url,
		CreatedAt: r.clock,
	}
	r.rows[m.ID] = m
	return &m, nil
}

func (r *memRepo) Update(_ context.Context, id string, p models.MediaPatch) (*models.Media, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	m, ok := r.rows[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	p.Apply(&m)
	r.rows[id] = m
	return &m, nil
}

func (r *memRepo) Delete(_ context.Context, id string) (*models.Media, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	m, ok := r.rows[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	delete(r.rows, id)
	return &m, nil
}

// fakeBlobs behaves like a real backend: it always releases the handle.
type fakeBlobs struct {
	uploads int
	err     error
	onCall  func()
}

func (b *fakeBlobs) Name() string { return "fake" }

func (b *fakeBlobs) Upload(_ context.Context, fh *models.FileHandle) (string, error) {
	defer fh.Release(testLogger())
	b.uploads++
	if b.onCall != nil {
		b.onCall()
	}
	if b.err != nil {
		return "", b.err
	}
	return "https://blobs.test/" + uuid.NewString() + "-" + fh.Filename, nil
}

func stagedImage(t *testing.T) *models.FileHandle {
	t.Helper()
	path := filepath.Join(t.TempDir(), "image-staged.png")
	require.NoError(t, os.WriteFile(path, []byte("png"), 0o600))
	return &models.FileHandle{Path: path, ContentType: "image/png", Filename: "dune.png"}
}

func requireGone(t *testing.T, fh *models.FileHandle) {
	t.Helper()
	_, err := os.Stat(fh.Path)
	require.True(t, errors.Is(err, os.ErrNotExist), "staged file was not removed")
}

func intPtr(v int) *int { return &v }
