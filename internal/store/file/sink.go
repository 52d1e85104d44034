// Package file writes payload envelopes next to their source records.
package file

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/hfsrb/hfsrb/internal/files/filesystem"
	"github.com/hfsrb/hfsrb/pkg/hfsrb"
)

const Name = "file"

// Sink writes each envelope as FileName in the directory of its data.json.
// A file whose bytes already match is left untouched.
type Sink struct {
	fs       filesystem.FileSystemProvider
	fileName string
}

// New panics on a nil filesystem.
func New(fsProvider filesystem.FileSystemProvider, fileName string) *Sink {
	if fsProvider == nil {
		panic("fsProvider cannot be nil")
	}
	return &Sink{fs: fsProvider, fileName: fileName}
}

func (s *Sink) Name() string { return Name }

// PathFor returns where the envelope for sourcePath is written.
func (s *Sink) PathFor(sourcePath string) string {
	return filepath.Join(filepath.Dir(sourcePath), s.fileName)
}

func (s *Sink) Write(ctx context.Context, p hfsrb.StoredPayload) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target := s.PathFor(p.SourcePath)

	existing, err := s.fs.ReadFile(target)
	switch {
	case err == nil && bytes.Equal(existing, p.Document):
		return nil
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return err
	}
	return s.fs.WriteFile(target, p.Document)
}

func (s *Sink) Close() error { return nil }
