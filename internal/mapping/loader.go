package mapping

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/hfsrb/hfsrb/internal/files/filesystem"
)

// Extensions are tried in this order for every candidate name.
var Extensions = []string{".json", ".yaml", ".yml"}

// Loader resolves mapping documents from a directory. Loaded documents are
// cached by file path; Loader is safe for concurrent use.
type Loader struct {
	fs           filesystem.FileSystemProvider
	dir          string
	variantTypes map[string]bool

	cache sync.Map // path -> *Document
}

// NewLoader creates a loader over dir. variantTypes lists the facility types
// whose mappings may be specialised per variant tag.
func NewLoader(fsProvider filesystem.FileSystemProvider, dir string, variantTypes []string) *Loader {
	if fsProvider == nil {
		panic("BUG: NewLoader called with nil fsProvider")
	}
	vt := make(map[string]bool, len(variantTypes))
	for _, t := range variantTypes {
		vt[strings.ToLower(t)] = true
	}
	return &Loader{fs: fsProvider, dir: dir, variantTypes: vt}
}

// Dir returns the directory documents are read from.
func (l *Loader) Dir() string { return l.dir }

// Candidates lists the base names tried for an entity, highest priority first.
func (l *Loader) Candidates(facilityType string, year int, variant string) []string {
	ft := strings.ToLower(strings.TrimSpace(facilityType))
	v := strings.ToLower(strings.TrimSpace(variant))
	y := strconv.Itoa(year)

	var names []string
	if v != "" && l.variantTypes[ft] {
		names = append(names, v+"_"+y, v)
	}
	return append(names, ft+"_"+y, ft)
}

// Resolve returns the first candidate document that exists. It returns a
// *ConfigurationError when none does.
func (l *Loader) Resolve(facilityType string, year int, variant string) (*Document, error) {
	candidates := l.Candidates(facilityType, year, variant)
	for _, name := range candidates {
		for _, ext := range Extensions {
			path := filepath.Join(l.dir, name+ext)
			doc, found, err := l.load(path)
			if err != nil {
				return nil, err
			}
			if found {
				return doc, nil
			}
		}
	}
	return nil, &ConfigurationError{
		FacilityType: facilityType,
		Year:         year,
		Variant:      variant,
		Dir:          l.dir,
		Candidates:   candidates,
	}
}

func (l *Loader) load(path string) (*Document, bool, error) {
	if cached, ok := l.cache.Load(path); ok {
		return cached.(*Document), true, nil
	}

	info, err := l.fs.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to stat mapping %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, false, nil
	}

	data, err := l.fs.ReadFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read mapping %s: %w", path, err)
	}
	doc, err := ParseDocument(path, data)
	if err != nil {
		return nil, false, err
	}

	actual, _ := l.cache.LoadOrStore(path, doc)
	return actual.(*Document), true, nil
}
