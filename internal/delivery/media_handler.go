package delivery

import (
	"errors"
	"net/http"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/mediashelf/internal/models"
	"github.com/Vovarama1992/mediashelf/internal/ports"
	"github.com/go-chi/chi/v5"
)

type MediaHandler struct {
	media    ports.MediaService
	stager   *Stager
	maxBytes int64
	log      *logger.ZapLogger
}

func NewMediaHandler(media ports.MediaService, stager *Stager, maxBytes int64, log *logger.ZapLogger) *MediaHandler {
	return &MediaHandler{
		media:    media,
		stager:   stager,
		maxBytes: maxBytes,
		log:      log,
	}
}

// GET /api/media/
func (h *MediaHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.media.ListMedia(r.Context())
	if err != nil {
		fail(w, err, "Error retrieving media")
		return
	}
	ok(w, http.StatusOK, "Media retrieved successfully", list)
}

// GET /api/media/filter/{type}
func (h *MediaHandler) Filter(w http.ResponseWriter, r *http.Request) {
	mediaType := chi.URLParam(r, "type")

	list, err := h.media.FilterMedia(r.Context(), mediaType)
	if err != nil {
		fail(w, err, "Error retrieving "+mediaType+"s")
		return
	}
	ok(w, http.StatusOK, mediaType+"s retrieved successfully", list)
}

// GET /api/media/{id}
func (h *MediaHandler) Get(w http.ResponseWriter, r *http.Request) {
	media, err := h.media.GetMedia(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, err, "Error retrieving media")
		return
	}
	ok(w, http.StatusOK, "Media retrieved successfully", media)
}

// POST /api/media/
func (h *MediaHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, image, err := h.readRequest(w, r)
	if err != nil {
		fail(w, err, "Error creating media")
		return
	}

	rating, err := in.rating()
	if err != nil {
		image.Release(h.log)
		fail(w, err, "Error creating media")
		return
	}

	media, err := h.media.CreateMedia(r.Context(), ports.CreateInput{
		Title:  in.text("title"),
		Type:   in.text("type"),
		Status: in.text("status"),
		Rating: fieldPtr(rating),
		Review: fieldPtr(in.optional("review")),
		Image:  image,
	})
	if err != nil {
		fail(w, err, "Error creating media")
		return
	}
	ok(w, http.StatusCreated, "Media created successfully", media)
}

// PUT /api/media/{id}
func (h *MediaHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	in, image, err := h.readRequest(w, r)
	if err != nil {
		fail(w, err, "Error updating media")
		return
	}

	rating, err := in.rating()
	if err != nil {
		image.Release(h.log)
		fail(w, err, "Error updating media")
		return
	}

	media, err := h.media.UpdateMedia(r.Context(), id, ports.UpdateInput{
		Title:  in.required("title"),
		Type:   in.required("type"),
		Status: in.required("status"),
		Rating: rating,
		Review: in.optional("review"),
		Image:  image,
	})
	if err != nil {
		fail(w, err, "Error updating media")
		return
	}
	ok(w, http.StatusOK, "Media updated successfully", media)
}

// DELETE /api/media/{id}
func (h *MediaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	media, err := h.media.DeleteMedia(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, err, "Error deleting media")
		return
	}
	ok(w, http.StatusOK, "Media deleted successfully", media)
}

// readRequest parses the body and stages the image, if any. Multipart
// leftovers are dropped before returning; the staged copy is not.
func (h *MediaHandler) readRequest(w http.ResponseWriter, r *http.Request) (input, *models.FileHandle, error) {
	in, err := parseInput(w, r, h.maxBytes)
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}
	if err != nil {
		return nil, nil, err
	}

	image, err := h.stager.Stage(r)
	if err != nil {
		if !errors.Is(err, models.ErrValidation) {
			h.log.Log(logger.LogEntry{
				Level:   "error",
				Message: "image staging failed",
				Error:   err,
			})
		}
		return nil, nil, err
	}
	return in, image, nil
}
