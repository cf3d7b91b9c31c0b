package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/mediashelf/internal/models"
	"github.com/Vovarama1992/mediashelf/internal/ports"
)

const eventBuffer = 100

type MediaService struct {
	repo  ports.MediaRepository
	blobs ports.BlobStore
	log   *logger.ZapLogger

	events chan ports.MediaEvent
}

func NewMediaService(repo ports.MediaRepository, blobs ports.BlobStore, log *logger.ZapLogger) *MediaService {
	return &MediaService{
		repo:   repo,
		blobs:  blobs,
		log:    log,
		events: make(chan ports.MediaEvent, eventBuffer),
	}
}

func (s *MediaService) Events() <-chan ports.MediaEvent { return s.events }

// ========================================================================
// CREATE
// ========================================================================
func (s *MediaService) CreateMedia(ctx context.Context, in ports.CreateInput) (*models.Media, error) {
	defer in.Image.Release(s.log)

	fields, err := validateCreate(in)
	if err != nil {
		s.rejected("create", "", err)
		return nil, err
	}

	url, err := s.upload(ctx, "create", "", in.Image)
	if err != nil {
		return nil, err
	}
	fields.ImageURL = url

	if err := ctx.Err(); err != nil {
		return nil, s.internal("create media", "", err)
	}

	media, err := s.repo.Create(ctx, fields)
	if err != nil {
		return nil, s.internal("create media", "", err)
	}

	s.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "media created",
		Fields:  map[string]any{"mediaID": media.ID, "type": media.Type},
	})
	s.emit(ports.EventCreated, media)
	return media, nil
}

// ========================================================================
// UPDATE
// ========================================================================
func (s *MediaService) UpdateMedia(ctx context.Context, id string, in ports.UpdateInput) (*models.Media, error) {
	defer in.Image.Release(s.log)

	patch, err := validateUpdate(in)
	if err != nil {
		s.rejected("update", id, err)
		return nil, err
	}

	// image_url changes only when a new image was actually uploaded
	if in.Image != nil {
		url, err := s.upload(ctx, "update", id, in.Image)
		if err != nil {
			return nil, err
		}
		patch.ImageURL = models.Set(url)
	}

	if err := ctx.Err(); err != nil {
		return nil, s.internal("update media", id, err)
	}

	media, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.rejected("update", id, err)
			return nil, err
		}
		return nil, s.internal("update media", id, err)
	}

	s.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "media updated",
		Fields:  map[string]any{"mediaID": media.ID, "columns": len(patch.Columns())},
	})
	s.emit(ports.EventUpdated, media)
	return media, nil
}

// ========================================================================
// DELETE / READ
// ========================================================================
func (s *MediaService) DeleteMedia(ctx context.Context, id string) (*models.Media, error) {
	media, err := s.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.rejected("delete", id, err)
			return nil, err
		}
		return nil, s.internal("delete media", id, err)
	}

	s.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "media deleted",
		Fields:  map[string]any{"mediaID": media.ID},
	})
	s.emit(ports.EventDeleted, media)
	return media, nil
}

func (s *MediaService) GetMedia(ctx context.Context, id string) (*models.Media, error) {
	media, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.internal("get media", id, err)
	}
	if media == nil {
		return nil, models.ErrNotFound
	}
	return media, nil
}

func (s *MediaService) ListMedia(ctx context.Context) ([]models.Media, error) {
	list, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, s.internal("list media", "", err)
	}
	return list, nil
}

func (s *MediaService) FilterMedia(ctx context.Context, mediaType string) ([]models.Media, error) {
	t, err := models.ParseMediaType(mediaType)
	if err != nil {
		return nil, err
	}
	list, err := s.repo.Filter(ctx, t)
	if err != nil {
		return nil, s.internal("filter media", "", err)
	}
	return list, nil
}

// ========================================================================
// HELPERS
// ========================================================================
func validateCreate(in ports.CreateInput) (models.MediaFields, error) {
	var f models.MediaFields

	if strings.TrimSpace(in.Title) == "" || in.Type == "" || in.Status == "" {
		return f, fmt.Errorf("%w: title, type, and status are required", models.ErrValidation)
	}
	t, err := models.ParseMediaType(in.Type)
	if err != nil {
		return f, err
	}
	st, err := models.ParseMediaStatus(in.Status)
	if err != nil {
		return f, err
	}
	if in.Rating != nil && !models.ValidRating(*in.Rating) {
		return f, errRating
	}
	if in.Image == nil {
		return f, fmt.Errorf("%w: image is required", models.ErrValidation)
	}

	return models.MediaFields{
		Title:  in.Title,
		Type:   t,
		Status: st,
		Rating: in.Rating,
		Review: in.Review,
	}, nil
}

var errRating = fmt.Errorf("%w: rating must be between %d and %d", models.ErrValidation, models.MinRating, models.MaxRating)

// validateUpdate checks only the supplied fields. Required columns can be
// changed but never cleared.
func validateUpdate(in ports.UpdateInput) (models.MediaPatch, error) {
	var p models.MediaPatch

	if in.Title.IsSet() {
		v, ok := in.Title.Get()
		if !ok || strings.TrimSpace(v) == "" {
			return p, fmt.Errorf("%w: title cannot be empty", models.ErrValidation)
		}
		p.Title = models.Set(v)
	}
	if in.Type.IsSet() {
		v, _ := in.Type.Get()
		t, err := models.ParseMediaType(v)
		if err != nil {
			return p, err
		}
		p.Type = models.Set(t)
	}
	if in.Status.IsSet() {
		v, _ := in.Status.Get()
		st, err := models.ParseMediaStatus(v)
		if err != nil {
			return p, err
		}
		p.Status = models.Set(st)
	}
	if in.Rating.IsSet() {
		if v, ok := in.Rating.Get(); ok && !models.ValidRating(v) {
			return p, errRating
		}
		p.Rating = in.Rating
	}
	p.Review = in.Review
	return p, nil
}

func (s *MediaService) upload(ctx context.Context, op, id string, fh *models.FileHandle) (string, error) {
	url, err := s.blobs.Upload(ctx, fh)
	if err != nil {
		if !errors.Is(err, models.ErrUploadFailed) {
			err = fmt.Errorf("%w: %s: %w", models.ErrUploadFailed, s.blobs.Name(), err)
		}
		s.log.Log(logger.LogEntry{
			Level:   "error",
			Message: "image upload failed",
			Error:   err,
			Fields:  map[string]any{"op": op, "mediaID": id, "backend": s.blobs.Name()},
		})
		return "", err
	}
	return url, nil
}

func (s *MediaService) internal(op, id string, err error) error {
	s.log.Log(logger.LogEntry{
		Level:   "error",
		Message: op + " failed",
		Error:   err,
		Fields:  map[string]any{"mediaID": id},
	})
	if id != "" {
		return fmt.Errorf("%w: %s %s: %w", models.ErrInternal, op, id, err)
	}
	return fmt.Errorf("%w: %s: %w", models.ErrInternal, op, err)
}

func (s *MediaService) rejected(op, id string, err error) {
	s.log.Log(logger.LogEntry{
		Level:   "info",
		Message: op + " rejected",
		Fields:  map[string]any{"mediaID": id, "reason": err.Error()},
	})
}

func (s *MediaService) emit(kind ports.EventKind, m *models.Media) {
	ev := ports.MediaEvent{Kind: kind, Media: *m, At: time.Now().UTC()}
	select {
	case s.events <- ev:
	default:
		s.log.Log(logger.LogEntry{
			Level:   "warn",
			Message: "event buffer full, dropping",
			Fields:  map[string]any{"kind": kind, "mediaID": m.ID},
		})
	}
}
