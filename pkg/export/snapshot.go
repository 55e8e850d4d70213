package export

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	"github.com/teslashibe/go-depthview/pkg/stereo"
)

// Snapshot file name prefixes.
const (
	ImagePrefix     = "ZEDImage"
	DisparityPrefix = "ZEDDisparity"
)

// Snapshots numbers key-press saves. Image and disparity saves share one
// counter, so the numbers across both series are unique and increasing.
type Snapshots struct {
	Dir string

	mu   sync.Mutex
	next int
}

// NewSnapshots returns a counter starting at 0 that saves into dir.
func NewSnapshots(dir string) *Snapshots {
	return &Snapshots{Dir: dir}
}

// Next reserves the next free path for prefix. Indices whose file already
// exists are skipped. Any other stat failure is returned with the path
// that could not be checked, and the index is still consumed.
func (s *Snapshots) Next(prefix string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		path := filepath.Join(s.Dir, fmt.Sprintf("%s%d.png", prefix, s.next))
		s.next++
		_, err := os.Stat(path)
		switch {
		case os.IsNotExist(err):
			return path, nil
		case err != nil:
			return path, fmt.Errorf("check %s: %w", path, err)
		}
	}
}

// SaveImage writes left|right side by side and returns the path.
func (s *Snapshots) SaveImage(left, right *image.RGBA) (string, error) {
	path, err := s.Next(ImagePrefix)
	if err != nil {
		return path, err
	}
	if err := SavePNG(path, stereo.SideBySide(left, right)); err != nil {
		return path, fmt.Errorf("save %s: %w", path, err)
	}
	return path, nil
}

// SaveDisparity writes a normalised disparity image and returns the path.
func (s *Snapshots) SaveDisparity(img *image.RGBA) (string, error) {
	path, err := s.Next(DisparityPrefix)
	if err != nil {
		return path, err
	}
	if err := SavePNG(path, img); err != nil {
		return path, fmt.Errorf("save %s: %w", path, err)
	}
	return path, nil
}
