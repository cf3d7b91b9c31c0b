package ports

import (
	"context"
	"time"

	"github.com/Vovarama1992/mediashelf/internal/models"
)

// CreateInput is a create request after transport parsing. Type and Status are
// raw strings so the service owns enum validation.
type CreateInput struct {
	Title  string
	Type   string
	Status string
	Rating *int
	Review *string
	Image  *models.FileHandle
}

// UpdateInput marks every field as supplied or not. Image is nil when no new
// image arrived.
type UpdateInput struct {
	Title  models.Field[string]
	Type   models.Field[string]
	Status models.Field[string]
	Rating models.Field[int]
	Review models.Field[string]
	Image  *models.FileHandle
}

type MediaService interface {
	CreateMedia(ctx context.Context, in CreateInput) (*models.Media, error)
	UpdateMedia(ctx context.Context, id string, in UpdateInput) (*models.Media, error)
	DeleteMedia(ctx context.Context, id string) (*models.Media, error)
	GetMedia(ctx context.Context, id string) (*models.Media, error)
	ListMedia(ctx context.Context) ([]models.Media, error)
	FilterMedia(ctx context.Context, mediaType string) ([]models.Media, error)
}

type EventKind string

const (
	EventCreated EventKind = "created"
	EventUpdated EventKind = "updated"
	EventDeleted EventKind = "deleted"
)

type MediaEvent struct {
	Kind  EventKind    `json:"kind"`
	Media models.Media `json:"media"`
	At    time.Time    `json:"at"`
}

type MediaEventSource interface {
	Events() <-chan MediaEvent
}

// EventPublisher delivers catalog change events to an outside sink.
type EventPublisher interface {
	Publish(ctx context.Context, ev MediaEvent) error
}
