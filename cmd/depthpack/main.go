// depthpack builds a recorded session from numbered image pairs and depth
// grids, so the viewer can play back captures made elsewhere.
//
//	depthpack -o out.dvs -left l_%d.png -right r_%d.png -depth mm_%d.txt -n 10
//
// Depth grids use the mmDepth.txt layout the viewer exports: one line per
// row, millimetres separated by spaces.
package main

import (
	"flag"
	"fmt"
	"image"
	"os"

	"github.com/disintegration/imaging"

	"github.com/teslashibe/go-depthview/internal/config"
	"github.com/teslashibe/go-depthview/internal/log"
	"github.com/teslashibe/go-depthview/pkg/export"
	"github.com/teslashibe/go-depthview/pkg/session"
	"github.com/teslashibe/go-depthview/pkg/stereo"
)

// Options are the depthpack flags.
type Options struct {
	Output   string
	Left     string
	Right    string
	Depth    string
	Start    int
	Count    int
	FPS      int
	Gain     int
	Baseline float64
	Fx, Fy   float64
	Cx, Cy   float64
	LogLevel string
}

func main() {
	opts := parseFlags()
	log.Init(opts.LogLevel)

	if err := run(opts); err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ Wrote %d frames to %s\n", opts.Count, opts.Output)
}

func parseFlags() Options {
	var o Options
	flag.StringVar(&o.Output, "o", "session"+session.Ext, "Output session file")
	flag.StringVar(&o.Left, "left", "left_%d.png", "Left image path pattern")
	flag.StringVar(&o.Right, "right", "right_%d.png", "Right image path pattern")
	flag.StringVar(&o.Depth, "depth", "mmDepth_%d.txt", "Depth grid path pattern (mm)")
	flag.IntVar(&o.Start, "start", 0, "First frame number")
	flag.IntVar(&o.Count, "n", 1, "Number of frames")
	flag.IntVar(&o.FPS, "fps", 30, "Recorded frame rate")
	flag.IntVar(&o.Gain, "gain", 50, "Recorded gain (0-100)")
	flag.Float64Var(&o.Baseline, "baseline", 120, "Stereo baseline in mm")
	flag.Float64Var(&o.Fx, "fx", 700, "Focal length x in pixels")
	flag.Float64Var(&o.Fy, "fy", 0, "Focal length y in pixels (default fx)")
	flag.Float64Var(&o.Cx, "cx", -1, "Principal point x (default image centre)")
	flag.Float64Var(&o.Cy, "cy", -1, "Principal point y (default image centre)")
	flag.StringVar(&o.LogLevel, "log-level", config.LogLevel(), "Log level: debug, info, warn, error")
	flag.Parse()
	return o
}

// run packs the frames. Every frame must match the size of the first.
func run(o Options) error {
	if o.Count <= 0 {
		return fmt.Errorf("-n must be positive")
	}

	first, err := loadFrame(o, o.Start)
	if err != nil {
		return err
	}
	w, h := first.Left.Bounds().Dx(), first.Left.Bounds().Dy()

	cal := session.Calibration{Baseline: o.Baseline, Fx: o.Fx, Fy: o.Fy, Cx: o.Cx, Cy: o.Cy}
	if cal.Fy == 0 {
		cal.Fy = cal.Fx
	}
	if cal.Cx < 0 {
		cal.Cx = float64(w) / 2
	}
	if cal.Cy < 0 {
		cal.Cy = float64(h) / 2
	}

	sw, err := session.Create(o.Output, session.Manifest{
		Width:       w,
		Height:      h,
		FPS:         o.FPS,
		Gain:        o.Gain,
		Calibration: cal,
		Frames:      o.Count,
	})
	if err != nil {
		return fmt.Errorf("create %s: %w", o.Output, err)
	}

	for i := 0; i < o.Count; i++ {
		fr := first
		if i > 0 {
			if fr, err = loadFrame(o, o.Start+i); err != nil {
				sw.Close()
				return err
			}
		}
		if err := sw.WriteFrame(fr); err != nil {
			sw.Close()
			return fmt.Errorf("frame %d: %w", o.Start+i, err)
		}
		log.Debug("packed frame", "frame", o.Start+i)
	}
	return sw.Close()
}

func loadFrame(o Options, n int) (*session.Frame, error) {
	left, err := openImage(o.Left, n)
	if err != nil {
		return nil, err
	}
	right, err := openImage(o.Right, n)
	if err != nil {
		return nil, err
	}
	depth, err := openDepth(o.Depth, n)
	if err != nil {
		return nil, err
	}
	if lb := left.Bounds(); lb.Dx() != depth.Width || lb.Dy() != depth.Height {
		return nil, fmt.Errorf("frame %d: depth %dx%d does not match image %dx%d",
			n, depth.Width, depth.Height, lb.Dx(), lb.Dy())
	}
	return &session.Frame{Left: left, Right: right, Depth: depth.Data}, nil
}

func openImage(pattern string, n int) (image.Image, error) {
	path := fmt.Sprintf(pattern, n)
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return img, nil
}

func openDepth(pattern string, n int) (*stereo.FloatMap, error) {
	path := fmt.Sprintf(pattern, n)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	m, err := export.ReadDepthGrid(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return m, nil
}
