package models

import "errors"

// Outcome kinds shared by every layer. Wrap them with %w and match with errors.Is.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("media not found")
	ErrUploadFailed = errors.New("upload failed")
	ErrInternal     = errors.New("internal error")
)
