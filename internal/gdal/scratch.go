package gdal

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Scratch is a per-run working directory for intermediate files. It lives
// under the configured temp dir so the GDAL container can see it.
type Scratch struct {
	dir string
}

// NewScratch creates <temp_dir>/<uuid>.
func NewScratch() (*Scratch, error) {
	dir := filepath.Join(scratchBase(), uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	return &Scratch{dir: dir}, nil
}

// Dir returns the scratch directory.
func (s *Scratch) Dir() string {
	return s.dir
}

// Path joins name onto the scratch directory.
func (s *Scratch) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// TempFile returns a fresh, not yet created, file path with the given prefix
// and extension.
func (s *Scratch) TempFile(prefix, ext string) string {
	return filepath.Join(s.dir, prefix+"-"+uuid.NewString()[:8]+ext)
}

// Cleanup removes the scratch directory and everything in it.
func (s *Scratch) Cleanup() error {
	if s == nil || s.dir == "" {
		return nil
	}
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("remove scratch dir: %w", err)
	}
	return nil
}
