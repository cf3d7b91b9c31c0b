package models

import (
	"fmt"
	"time"
)

type MediaType string

const (
	MediaTypeMovie MediaType = "movie"
	MediaTypeBook  MediaType = "book"
)

type MediaStatus string

const (
	MediaStatusWatched MediaStatus = "watched"
	MediaStatusRead    MediaStatus = "read"
	MediaStatusPlan    MediaStatus = "plan"
)

const (
	MinRating = 1
	MaxRating = 5
)

type Media struct {
	ID        string      `db:"id" json:"id"`
	Title     string      `db:"title" json:"title"`
	Type      MediaType   `db:"type" json:"type"`
	Status    MediaStatus `db:"status" json:"status"`
	Rating    *int        `db:"rating" json:"rating"`     // nil = not rated
	Review    *string     `db:"review" json:"review"`     // nullable
	ImageURL  *string     `db:"image_url" json:"imageUrl"` // nullable, URL in blob storage
	CreatedAt time.Time   `db:"created_at" json:"createdAt"`
}

// MediaFields is everything Create persists. ImageURL is always resolved by the
// blob store before the insert.
type MediaFields struct {
	Title    string
	Type     MediaType
	Status   MediaStatus
	Rating   *int
	Review   *string
	ImageURL string
}

func ParseMediaType(s string) (MediaType, error) {
	switch t := MediaType(s); t {
	case MediaTypeMovie, MediaTypeBook:
		return t, nil
	}
	return "", fmt.Errorf("%w: type must be either 'movie' or 'book'", ErrValidation)
}

func ParseMediaStatus(s string) (MediaStatus, error) {
	switch st := MediaStatus(s); st {
	case MediaStatusWatched, MediaStatusRead, MediaStatusPlan:
		return st, nil
	}
	return "", fmt.Errorf("%w: status must be 'watched', 'read', or 'plan'", ErrValidation)
}

func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}
