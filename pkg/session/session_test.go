package session

import (
	"errors"
	"image"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func testImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func testFrame(w, h int, base float32, withExtras bool) *Frame {
	fr := &Frame{
		Left:  testImage(w, h, color.RGBA{200, 10, 10, 255}),
		Right: testImage(w, h, color.RGBA{10, 10, 200, 255}),
		Depth: make([]float32, w*h),
	}
	for i := range fr.Depth {
		fr.Depth[i] = base + float32(i)
	}
	fr.Depth[0] = float32(math.NaN())
	if withExtras {
		fr.Confidence = make([]uint8, w*h)
		fr.Disparity = make([]float32, w*h)
		for i := range fr.Confidence {
			fr.Confidence[i] = uint8(i % 101)
			fr.Disparity[i] = float32(i) / 2
		}
	}
	return fr
}

func writeSession(t *testing.T, frames ...*Frame) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test"+Ext)
	w, err := Create(path, Manifest{
		Width: 4, Height: 3, FPS: 15, Gain: 20,
		Calibration: Calibration{Baseline: 120, Fx: 700, Fy: 700, Cx: 2, Cy: 1.5},
		Frames:      len(frames),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for _, fr := range frames {
		if err := w.WriteFrame(fr); err != nil {
			t.Fatalf("WriteFrame: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return path
}

func TestWriteRead(t *testing.T) {
	path := writeSession(t, testFrame(4, 3, 1000, true), testFrame(4, 3, 2000, false))

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	m := r.Manifest()
	if m.ID == "" {
		t.Error("manifest ID not assigned")
	}
	if m.Width != 4 || m.Height != 3 || m.Frames != 2 || m.DepthUnit != "mm" {
		t.Errorf("unexpected manifest: %+v", m)
	}
	if m.Calibration.Baseline != 120 || m.Calibration.Fx != 700 {
		t.Errorf("calibration lost: %+v", m.Calibration)
	}

	fr, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if fr.Index != 0 {
		t.Errorf("Index = %d, want 0", fr.Index)
	}
	if !math.IsNaN(float64(fr.Depth[0])) {
		t.Errorf("Depth[0] = %v, want NaN", fr.Depth[0])
	}
	if fr.Depth[5] != 1005 {
		t.Errorf("Depth[5] = %v, want 1005", fr.Depth[5])
	}
	if fr.Confidence == nil || fr.Confidence[7] != 7 {
		t.Errorf("confidence not restored: %v", fr.Confidence)
	}
	if fr.Disparity == nil || fr.Disparity[4] != 2 {
		t.Errorf("disparity not restored: %v", fr.Disparity)
	}
	r0, _, _, _ := fr.Left.At(1, 1).RGBA()
	if r0>>8 != 200 {
		t.Errorf("left red = %d, want 200", r0>>8)
	}

	fr, err = r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if fr.Index != 1 || fr.Depth[1] != 2001 {
		t.Errorf("second frame wrong: index %d depth %v", fr.Index, fr.Depth[1])
	}
	if fr.Confidence != nil || fr.Disparity != nil {
		t.Error("second frame should have no extras")
	}

	if _, err := r.Next(); err != io.EOF {
		t.Errorf("Next after last = %v, want io.EOF", err)
	}

	if err := r.Rewind(); err != nil {
		t.Fatalf("Rewind: %v", err)
	}
	fr, err = r.Next()
	if err != nil {
		t.Fatalf("Next after rewind: %v", err)
	}
	if fr.Index != 0 || fr.Depth[5] != 1005 {
		t.Errorf("rewind did not restart: index %d", fr.Index)
	}
}

func TestWriterRejectsBadFrames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad"+Ext)
	w, err := Create(path, Manifest{Width: 4, Height: 3, Frames: 1})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	tests := []struct {
		name  string
		frame *Frame
	}{
		{"missing image", &Frame{Left: testImage(4, 3, color.RGBA{}), Depth: make([]float32, 12)}},
		{"wrong size", &Frame{Left: testImage(5, 3, color.RGBA{}), Right: testImage(5, 3, color.RGBA{}), Depth: make([]float32, 15)}},
		{"short depth", &Frame{Left: testImage(4, 3, color.RGBA{}), Right: testImage(4, 3, color.RGBA{}), Depth: make([]float32, 11)}},
		{"short confidence", &Frame{Left: testImage(4, 3, color.RGBA{}), Right: testImage(4, 3, color.RGBA{}), Depth: make([]float32, 12), Confidence: make([]uint8, 3)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := w.WriteFrame(tt.frame); err == nil {
				t.Error("expected error")
			}
		})
	}

	if err := w.Close(); err == nil {
		t.Error("Close should fail when frames are missing")
	}
}

func TestCreateInvalidManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x"+Ext)
	if _, err := Create(path, Manifest{Width: 0, Height: 3, Frames: 1}); err == nil {
		t.Error("expected error for zero width")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("no file should be created for an invalid manifest")
	}
}

func TestOpenNotASession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk"+Ext)
	if err := os.WriteFile(path, []byte("definitely not zstd"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Open(path)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrFormat) {
		t.Errorf("error %v does not wrap ErrFormat", err)
	}
}

func TestManifestValidate(t *testing.T) {
	tests := []struct {
		name string
		m    Manifest
		errs int
	}{
		{"valid", Manifest{Width: 2, Height: 2, Frames: 1, DepthUnit: "mm"}, 0},
		{"no frames", Manifest{Width: 2, Height: 2}, 1},
		{"bad unit", Manifest{Width: 2, Height: 2, Frames: 1, DepthUnit: "m"}, 1},
		{"everything wrong", Manifest{FPS: -1, DepthUnit: "cm"}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.Validate(); len(got) != tt.errs {
				t.Errorf("Validate() = %v, want %d errors", got, tt.errs)
			}
		})
	}
}

func TestNextSkipsBadFrames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad"+Ext)
	w, err := Create(path, Manifest{Width: 4, Height: 3, Frames: 3})
	if err != nil {
		t.Fatal(err)
	}
	// Frame 0 cannot be decoded, frame 1 has no images.
	for _, name := range []string{LeftName, RightName, DepthName} {
		if err := w.put(frameDir(0)+name, []byte("garbage")); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.putPlane(frameDir(1)+DepthName, make([]float32, 12)); err != nil {
		t.Fatal(err)
	}
	w.written = 2
	if err := w.WriteFrame(testFrame(4, 3, 500, false)); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	if _, err := r.Next(); err == nil {
		t.Error("frame 0: expected decode error")
	}
	if _, err := r.Next(); !errors.Is(err, ErrFormat) {
		t.Errorf("frame 1: err = %v, want ErrFormat", err)
	}
	fr, err := r.Next()
	if err != nil {
		t.Fatalf("frame 2: %v", err)
	}
	if fr.Index != 2 || fr.Depth[1] != 501 {
		t.Errorf("frame 2 = index %d depth %v", fr.Index, fr.Depth[1])
	}
	if _, err := r.Next(); err != io.EOF {
		t.Errorf("after last frame: %v, want io.EOF", err)
	}
}
