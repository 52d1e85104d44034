package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hfsrb/hfsrb/internal/checksum"
	"github.com/hfsrb/hfsrb/internal/files/filesystem"
	"github.com/hfsrb/hfsrb/internal/record"
	"github.com/hfsrb/hfsrb/pkg/hfsrb"
)

// RecordFileName is the entity record file inside each facility directory.
const RecordFileName = "data.json"

// Scanner discovers dictionaries, records and envelopes.
// Scanner is safe for concurrent use as long as its calculator and
// filesystem provider are.
type Scanner struct {
	calculator checksum.Calculator
	fsProvider filesystem.FileSystemProvider
}

// NewScanner creates a scanner over the OS filesystem.
// Panics if calculator is nil.
func NewScanner(calculator checksum.Calculator) *Scanner {
	return NewScannerWithFS(calculator, filesystem.NewOSFileSystem())
}

// NewScannerWithFS creates a scanner with a custom filesystem provider.
// Panics if calculator or fsProvider is nil.
func NewScannerWithFS(calculator checksum.Calculator, fsProvider filesystem.FileSystemProvider) *Scanner {
	if calculator == nil {
		panic("calculator cannot be nil")
	}
	if fsProvider == nil {
		panic("fsProvider cannot be nil")
	}
	return &Scanner{calculator: calculator, fsProvider: fsProvider}
}

// DictionaryFile is one discovered field dictionary.
type DictionaryFile struct {
	// Name is the dictionary directory name, which names the compiled schema.
	Name     string
	Path     string
	Content  []byte
	Checksum string
}

// RecordFile is one discovered entity record.
type RecordFile struct {
	Path     string
	Location record.Location
}

// Dir returns the facility directory holding the record.
func (r RecordFile) Dir() string { return filepath.Dir(r.Path) }

// Filter restricts record discovery. Empty lists match everything.
type Filter struct {
	Years []int
	Types []string
}

func (f Filter) matches(loc record.Location) bool {
	if len(f.Years) > 0 {
		found := false
		for _, y := range f.Years {
			if y == loc.Year {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(f.Types) > 0 {
		for _, t := range f.Types {
			if strings.EqualFold(t, loc.FacilityType) {
				return true
			}
		}
		return false
	}
	return true
}

// Dictionaries lists schemas/<name>/README.md in name order. Directories
// whose names start with "_" or "." are skipped.
func (s *Scanner) Dictionaries(schemasDir string) ([]DictionaryFile, error) {
	entries, err := s.fsProvider.ReadDir(schemasDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list dictionaries in %s: %w", schemasDir, err)
	}

	var out []DictionaryFile
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() || strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".") {
			continue
		}
		path := filepath.Join(schemasDir, name, hfsrb.DictionaryFileName)
		content, err := s.fsProvider.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to read dictionary %s: %w", path, err)
		}
		out = append(out, DictionaryFile{
			Name:     name,
			Path:     path,
			Content:  content,
			Checksum: s.calculator.CalculateNormalized(content),
		})
	}
	return out, nil
}

// Records lists data/<year>/<type>/<facility>/data.json in path order.
// A missing data directory yields no records.
func (s *Scanner) Records(dataDir string, filter Filter) ([]RecordFile, error) {
	var out []RecordFile
	err := s.walkFacilities(dataDir, RecordFileName, func(path string, loc record.Location) {
		if filter.matches(loc) {
			out = append(out, RecordFile{Path: path, Location: loc})
		}
	})
	return out, err
}

// Envelopes lists the payload envelopes under dataDir in path order.
func (s *Scanner) Envelopes(dataDir string, filter Filter) ([]RecordFile, error) {
	var out []RecordFile
	err := s.walkFacilities(dataDir, record.PayloadFileName, func(path string, loc record.Location) {
		if filter.matches(loc) {
			out = append(out, RecordFile{Path: path, Location: loc})
		}
	})
	return out, err
}

func (s *Scanner) walkFacilities(dataDir, fileName string, fn func(path string, loc record.Location)) error {
	dir, err := s.fsProvider.Open(dataDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to open data directory: %w", err)
	}

	return dir.Walk(func(file filesystem.File, err error) error {
		if err != nil {
			return fmt.Errorf("error walking path: %w", err)
		}
		if file.Info().IsDir() || file.Info().Name() != fileName {
			return nil
		}
		loc, ok := parseLocation(file.RelativePath())
		if !ok {
			return nil
		}
		fn(file.Path(), loc)
		return nil
	})
}

// parseLocation reads "<year>/<type>/<facility>/<file>".
func parseLocation(rel string) (record.Location, bool) {
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) != 4 {
		return record.Location{}, false
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return record.Location{}, false
	}
	return record.Location{Year: year, FacilityType: parts[1], Facility: parts[2]}, true
}
