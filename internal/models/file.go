package models

import (
	"bytes"
	"errors"
	"io"
	"os"
	"sync"

	"github.com/Vovarama1992/go-utils/logger"
)

// FileHandle is an image on its way to blob storage: either an in-memory
// payload or a file already staged on local disk.
type FileHandle struct {
	Data        []byte
	Path        string
	ContentType string
	Filename    string

	once sync.Once
}

// Open returns a reader over the payload, preferring Data over Path.
func (f *FileHandle) Open() (io.ReadCloser, int64, error) {
	if f.Data != nil {
		return io.NopCloser(bytes.NewReader(f.Data)), int64(len(f.Data)), nil
	}
	if f.Path == "" {
		return nil, 0, errors.New("file handle has neither data nor path")
	}
	fd, err := os.Open(f.Path)
	if err != nil {
		return nil, 0, err
	}
	st, err := fd.Stat()
	if err != nil {
		fd.Close()
		return nil, 0, err
	}
	return fd, st.Size(), nil
}

// Release removes the staged file. Only the first call does anything; a failed
// remove is logged (when log is non-nil) and swallowed.
func (f *FileHandle) Release(log *logger.ZapLogger) {
	if f == nil {
		return
	}
	f.once.Do(func() {
		if f.Path == "" {
			return
		}
		err := os.Remove(f.Path)
		if err != nil && !errors.Is(err, os.ErrNotExist) && log != nil {
			log.Log(logger.LogEntry{
				Level:   "warn",
				Message: "staged file cleanup failed",
				Error:   err,
				Fields:  map[string]any{"path": f.Path},
			})
		}
	})
}
