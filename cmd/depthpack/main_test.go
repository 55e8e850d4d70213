package main

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/teslashibe/go-depthview/pkg/export"
	"github.com/teslashibe/go-depthview/pkg/session"
	"github.com/teslashibe/go-depthview/pkg/stereo"
)

func writeInputs(t *testing.T, dir string, frames, w, h int) Options {
	t.Helper()
	o := Options{
		Output:   filepath.Join(dir, "out"+session.Ext),
		Left:     filepath.Join(dir, "l_%d.png"),
		Right:    filepath.Join(dir, "r_%d.png"),
		Depth:    filepath.Join(dir, "mm_%d.txt"),
		Count:    frames,
		FPS:      15,
		Gain:     30,
		Baseline: 120,
		Fx:       700,
		Cx:       -1,
		Cy:       -1,
	}
	for i := 0; i < frames; i++ {
		img := image.NewNRGBA(image.Rect(0, 0, w, h))
		for _, pattern := range []string{o.Left, o.Right} {
			if err := imaging.Save(img, fmt.Sprintf(pattern, i)); err != nil {
				t.Fatal(err)
			}
		}
		depth := stereo.NewFloatMap(w, h)
		depth.Fill(float32(500 * (i + 1)))
		f, err := os.Create(fmt.Sprintf(o.Depth, i))
		if err != nil {
			t.Fatal(err)
		}
		if err := export.WriteDepthGrid(f, depth); err != nil {
			t.Fatal(err)
		}
		f.Close()
	}
	return o
}

func TestRun(t *testing.T) {
	o := writeInputs(t, t.TempDir(), 2, 4, 3)
	if err := run(o); err != nil {
		t.Fatalf("run: %v", err)
	}

	r, err := session.Open(o.Output)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	m := r.Manifest()
	if m.Width != 4 || m.Height != 3 || m.Frames != 2 || m.FPS != 15 || m.Gain != 30 {
		t.Errorf("manifest = %+v", m)
	}
	if m.Calibration.Fy != 700 || m.Calibration.Cx != 2 || m.Calibration.Cy != 1.5 {
		t.Errorf("calibration defaults not applied: %+v", m.Calibration)
	}

	for i := 0; i < 2; i++ {
		fr, err := r.Next()
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if fr.Depth[0] != float32(500*(i+1)) {
			t.Errorf("frame %d depth = %v", i, fr.Depth[0])
		}
	}
	if _, err := r.Next(); err != io.EOF {
		t.Errorf("after last frame: %v", err)
	}
}

func TestRunErrors(t *testing.T) {
	t.Run("missing input", func(t *testing.T) {
		o := writeInputs(t, t.TempDir(), 1, 4, 3)
		o.Count = 2
		if err := run(o); err == nil {
			t.Error("expected error for a missing frame")
		}
	})

	t.Run("size mismatch", func(t *testing.T) {
		dir := t.TempDir()
		o := writeInputs(t, dir, 1, 4, 3)
		f, _ := os.Create(fmt.Sprintf(o.Depth, 0))
		f.WriteString("1 2\n3 4\n")
		f.Close()
		if err := run(o); err == nil {
			t.Error("expected error for mismatched depth")
		}
	})

	t.Run("no frames", func(t *testing.T) {
		if err := run(Options{Count: 0}); err == nil {
			t.Error("expected error for -n 0")
		}
	})
}
