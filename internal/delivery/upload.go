package delivery

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Vovarama1992/mediashelf/internal/models"
	"github.com/google/uuid"
)

// multipart parts other than the image are tiny; this is headroom for them
const formOverhead = 1 << 20

// Stager writes the "image" part of a request to the staging dir and hands
// back a FileHandle. From then on the service owns the file.
type Stager struct {
	dir      string
	maxBytes int64
}

func NewStager(dir string, maxBytes int64) (*Stager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	return &Stager{dir: dir, maxBytes: maxBytes}, nil
}

// Stage returns nil, nil when the request carries no image.
func (s *Stager) Stage(r *http.Request) (*models.FileHandle, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	file, hdr, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable image part", models.ErrValidation)
	}
	defer file.Close()

	contentType := hdr.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: not an image, please upload only images", models.ErrValidation)
	}
	if hdr.Size > s.maxBytes {
		return nil, s.tooLarge()
	}

	name := fmt.Sprintf("image-%d-%s%s", time.Now().UnixMilli(), uuid.NewString(), strings.ToLower(filepath.Ext(hdr.Filename)))
	path := filepath.Join(s.dir, name)

	out, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("stage image: %w", err)
	}
	n, err := io.Copy(out, io.LimitReader(file, s.maxBytes+1))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("stage image: %w", err)
	}
	if n > s.maxBytes {
		_ = os.Remove(path)
		return nil, s.tooLarge()
	}

	return &models.FileHandle{
		Path:        path,
		ContentType: contentType,
		Filename:    hdr.Filename,
	}, nil
}

func (s *Stager) tooLarge() error {
	return fmt.Errorf("%w: image exceeds the %d byte limit", models.ErrValidation, s.maxBytes)
}

// ========================================================================
// REQUEST FIELDS
// ========================================================================

type inputValue struct {
	raw  string
	null bool
}

// input is the request body flattened to field -> value. A missing key means
// the client did not send the field.
type input map[string]inputValue

// parseInput accepts multipart, urlencoded and JSON bodies. The multipart
// form stays on r for the Stager; the caller must RemoveAll it.
func parseInput(w http.ResponseWriter, r *http.Request, maxBytes int64) (input, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+formOverhead)

	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt == "application/json" {
		return parseJSONInput(r.Body)
	}

	err := r.ParseMultipartForm(maxBytes)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, fmt.Errorf("%w: request body too large", models.ErrValidation)
		}
		return nil, fmt.Errorf("%w: malformed form body", models.ErrValidation)
	}

	in := make(input, len(r.PostForm))
	for k, vals := range r.PostForm {
		if len(vals) > 0 {
			in[k] = inputValue{raw: vals[0]}
		}
	}
	return in, nil
}

func parseJSONInput(body io.Reader) (input, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: invalid json body", models.ErrValidation)
	}
	in := make(input, len(raw))
	for k, v := range raw {
		var s string
		switch {
		case string(v) == "null":
			in[k] = inputValue{null: true}
		case json.Unmarshal(v, &s) == nil:
			in[k] = inputValue{raw: s}
		default:
			// numbers and anything else keep their literal text
			in[k] = inputValue{raw: string(v)}
		}
	}
	return in, nil
}

// required reads title/type/status. Empty means absent; an explicit JSON null
// becomes Clear so the service can reject it.
func (in input) required(key string) models.Field[string] {
	v, ok := in[key]
	switch {
	case !ok:
		return models.Field[string]{}
	case v.null:
		return models.Clear[string]()
	case v.raw == "":
		return models.Field[string]{}
	}
	return models.Set(v.raw)
}

// optional reads review. Here the literal "null" also clears, since forms
// have no other way to say it.
func (in input) optional(key string) models.Field[string] {
	v, ok := in[key]
	switch {
	case !ok || (!v.null && v.raw == ""):
		return models.Field[string]{}
	case v.null || v.raw == "null":
		return models.Clear[string]()
	}
	return models.Set(v.raw)
}

func (in input) rating() (models.Field[int], error) {
	f := in.optional("rating")
	s, ok := f.Get()
	if !ok {
		if f.IsNull() {
			return models.Clear[int](), nil
		}
		return models.Field[int]{}, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return models.Field[int]{}, fmt.Errorf("%w: rating must be an integer", models.ErrValidation)
	}
	return models.Set(n), nil
}

func (in input) text(key string) string {
	return in[key].raw
}

func fieldPtr[T any](f models.Field[T]) *T {
	if v, ok := f.Get(); ok {
		return &v
	}
	return nil
}
