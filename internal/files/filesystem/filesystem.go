package filesystem

import (
	"io/fs"
)

// FileInfo is an alias for fs.FileInfo from the standard library.
type FileInfo = fs.FileInfo

// File represents an individual file with its metadata and content accessor
type File interface {
	// Path returns the absolute path to the file
	Path() string

	// RelativePath returns the path relative to the walked directory
	RelativePath() string

	// Info returns file metadata
	Info() FileInfo

	// ReadContent returns the file's content
	ReadContent() ([]byte, error)
}

// Directory represents a directory that can be traversed to discover files
type Directory interface {
	// Path returns the absolute path to the directory
	Path() string

	// Walk visits the directory tree in lexical order.
	// If fn returns an error, walking stops and that error is returned.
	Walk(fn func(File, error) error) error
}

// FileSystemProvider is the read/write surface used by the compiler, the
// mapping loader, the record scanner and the file sink.
type FileSystemProvider interface {
	// Open opens a directory at the specified path
	Open(path string) (Directory, error)

	// ReadFile reads a specific file at the given path.
	// Missing files yield an error matching fs.ErrNotExist.
	ReadFile(path string) ([]byte, error)

	// ReadDir returns the direct entries of a directory, sorted by name.
	ReadDir(path string) ([]FileInfo, error)

	// Stat returns file information for the given path.
	// Missing paths yield an error matching fs.ErrNotExist.
	Stat(path string) (FileInfo, error)

	// WriteFile replaces the file at path, creating parent directories.
	WriteFile(path string, data []byte) error
}
