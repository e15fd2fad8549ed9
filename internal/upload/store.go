// Package upload stores proof-of-completion files under sanitized names.
package upload

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"taskTracker/internal/apperr"
)

// DefaultMaxBytes is the upload ceiling when none is configured.
const DefaultMaxBytes int64 = 16 << 20

// ErrNoFile reports that the request carried no file. Callers treat it as
// "nothing to attach", not as a failure.
var ErrNoFile = errors.New("no file uploaded")

// Store writes uploads into a single flat directory.
type Store struct {
	dir      string
	maxBytes int64
}

// NewStore creates dir if needed and returns a store rooted there.
func NewStore(dir string, maxBytes int64) (*Store, error) {
	if dir == "" {
		return nil, errors.New("upload dir is required")
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{dir: dir, maxBytes: maxBytes}, nil
}

// Dir returns the content directory.
func (s *Store) Dir() string { return s.dir }

// MaxBytes returns the per-file ceiling.
func (s *Store) MaxBytes() int64 { return s.maxBytes }

// Staged is an upload written to a hidden temp file in the store. It
// becomes visible under Name only on Commit.
type Staged struct {
	Name string

	dir  string
	tmp  string
	done bool
}

// Commit moves the staged file into place, replacing any file of the same
// name.
func (st *Staged) Commit() error {
	if st.done {
		return errors.New("upload already committed or discarded")
	}
	if err := os.Chmod(st.tmp, 0o644); err != nil {
		return fmt.Errorf("chmod upload: %w", err)
	}
	if err := os.Rename(st.tmp, filepath.Join(st.dir, st.Name)); err != nil {
		return fmt.Errorf("commit upload: %w", err)
	}
	st.done = true
	return nil
}

// Discard removes the staged file. It is a no-op after Commit.
func (st *Staged) Discard() {
	if st == nil || st.done {
		return
	}
	_ = os.Remove(st.tmp)
	st.done = true
}

// StageFormFile stages the multipart file in field. The form must already
// be parsed or parseable from r.
func (s *Store) StageFormFile(r *http.Request, field string) (*Staged, error) {
	f, hdr, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, ErrNoFile
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apperr.ErrPayloadTooLarge
		}
		return nil, fmt.Errorf("read form file: %w", err)
	}
	defer f.Close()
	if hdr.Filename == "" {
		return nil, ErrNoFile
	}
	return s.Stage(f, hdr.Filename)
}

// Stage copies src into a temp file under the store and returns it with the
// sanitized form of suggestedName (a generated name when nothing survives
// sanitizing). Payloads over the ceiling yield apperr.ErrPayloadTooLarge and
// leave nothing behind.
func (s *Store) Stage(src io.Reader, suggestedName string) (*Staged, error) {
	name := SanitizeFilename(suggestedName)
	if name == "" {
		name = uuid.NewString()
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	st := &Staged{Name: name, dir: s.dir, tmp: tmp.Name()}

	n, err := io.Copy(tmp, io.LimitReader(src, s.maxBytes+1))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		st.Discard()
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apperr.ErrPayloadTooLarge
		}
		return nil, fmt.Errorf("write upload: %w", err)
	}
	if n > s.maxBytes {
		st.Discard()
		return nil, apperr.ErrPayloadTooLarge
	}
	return st, nil
}

// Save stages src and commits it at once, returning the stored name.
func (s *Store) Save(src io.Reader, suggestedName string) (string, error) {
	st, err := s.Stage(src, suggestedName)
	if err != nil {
		return "", err
	}
	defer st.Discard()
	if err := st.Commit(); err != nil {
		return "", err
	}
	return st.Name, nil
}

// Open returns a stored file. Names that are not already in sanitized form
// never reach the filesystem and yield apperr.ErrNotFound.
func (s *Store) Open(name string) (*os.File, os.FileInfo, error) {
	if name == "" || SanitizeFilename(name) != name {
		return nil, nil, apperr.ErrNotFound
	}
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, apperr.ErrNotFound
		}
		return nil, nil, fmt.Errorf("open upload: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("stat upload: %w", err)
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, nil, apperr.ErrNotFound
	}
	return f, info, nil
}
