package export

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/teslashibe/go-depthview/internal/log"
	"github.com/teslashibe/go-depthview/pkg/stereo"
)

// First-frame output files.
const (
	DepthDumpFile    = "depth.txt"
	DepthGridFile    = "mmDepth.txt"
	DepthListFile    = "mmDepthFormat.txt"
	ColorPointsFile  = "depthFileRGBPoints.txt"
	DepthPictureFile = "depthPicture.png"
	SideBySideFile   = "sideBySide.png"
)

// FirstFrame is what the viewer exports from its first good frame.
// Depth and DepthImage are nil when the camera has no depth measure.
type FirstFrame struct {
	Left, Right *image.RGBA
	Depth       *stereo.FloatMap
	DepthImage  *image.RGBA
}

// Exporter writes the first-frame file set into Dir. Files that cannot be
// opened are reported on Console and skipped.
type Exporter struct {
	Dir     string
	Console io.Writer
}

// NewExporter writes into dir and reports to stdout.
func NewExporter(dir string) *Exporter {
	return &Exporter{Dir: dir, Console: os.Stdout}
}

// WriteFirstFrame writes every file of the set it can and returns the paths
// written.
func (e *Exporter) WriteFirstFrame(f FirstFrame) []string {
	var written []string
	keep := func(path string, ok bool) {
		if ok {
			written = append(written, path)
		}
	}

	if f.Depth != nil && f.DepthImage != nil {
		keep(e.text(DepthDumpFile, func(w io.Writer) error {
			return WriteMatrix(w, "myDepth", f.DepthImage)
		}))
		keep(e.text(DepthGridFile, func(w io.Writer) error {
			return WriteDepthGrid(w, f.Depth)
		}))
		keep(e.text(DepthListFile, func(w io.Writer) error {
			return WriteDepthList(w, f.Depth)
		}))
		if f.Left != nil {
			keep(e.text(ColorPointsFile, func(w io.Writer) error {
				return WriteColorPoints(w, f.Depth, f.Left)
			}))
		}
		keep(e.png(DepthPictureFile, DepthPicture(f.DepthImage, f.Depth)))
	} else {
		log.Warn("no depth measure, skipping depth exports")
	}

	if f.Left != nil && f.Right != nil {
		keep(e.png(SideBySideFile, stereo.SideBySide(f.Left, f.Right)))
	}
	return written
}

func (e *Exporter) text(name string, write func(io.Writer) error) (string, bool) {
	path := filepath.Join(e.Dir, name)
	file, err := os.Create(path)
	if err != nil {
		e.unableToOpen(name, err)
		return path, false
	}
	werr := write(file)
	cerr := file.Close()
	if werr != nil || cerr != nil {
		log.Warn("export write failed", "file", path, "write", werr, "close", cerr)
		return path, false
	}
	log.Debug("exported", "file", path)
	return path, true
}

func (e *Exporter) png(name string, img image.Image) (string, bool) {
	path := filepath.Join(e.Dir, name)
	if err := SavePNG(path, img); err != nil {
		e.unableToOpen(name, err)
		return path, false
	}
	log.Debug("exported", "file", path)
	return path, true
}

func (e *Exporter) unableToOpen(name string, err error) {
	fmt.Fprintf(e.Console, "Unable to open %s\n", name)
	log.Debug("export open failed", "file", name, "error", err)
}
