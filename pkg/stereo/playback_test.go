package stereo

import (
	"archive/tar"
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"

	"github.com/teslashibe/go-depthview/pkg/session"
)

// writeTestSession records frames of a 3x2 scene. Frame i has depth
// 1000*(i+1) everywhere except sample 1, which is a hole. Confidence is
// the sample index times 20.
func writeTestSession(t *testing.T, frames int, withConfidence bool) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scene"+session.Ext)
	w, err := session.Create(path, session.Manifest{
		Width: 3, Height: 2, FPS: 30, Gain: 40,
		Calibration: session.Calibration{Baseline: 120, Fx: 700},
		Frames:      frames,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for i := 0; i < frames; i++ {
		fr := &session.Frame{
			Left:  solid(3, 2, color.RGBA{uint8(10 * (i + 1)), 0, 0, 255}),
			Right: solid(3, 2, color.RGBA{0, uint8(10 * (i + 1)), 0, 255}),
			Depth: make([]float32, 6),
		}
		for j := range fr.Depth {
			fr.Depth[j] = float32(1000 * (i + 1))
		}
		fr.Depth[1] = nan
		if withConfidence {
			fr.Confidence = []uint8{0, 20, 40, 60, 80, 100}
		}
		if err := w.WriteFrame(fr); err != nil {
			t.Fatalf("WriteFrame: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return path
}

func openPlayback(t *testing.T, path string, loop bool) *Playback {
	t.Helper()
	p := NewPlayback(path)
	if err := p.Init(context.Background(), InitParams{Loop: loop}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

func TestPlaybackGrab(t *testing.T) {
	p := openPlayback(t, writeTestSession(t, 2, false), false)

	if p.Resolution() != (Resolution{Width: 3, Height: 2}) {
		t.Errorf("Resolution = %v", p.Resolution())
	}
	if p.Parameters().Baseline != 120 || p.Gain() != 40 {
		t.Errorf("manifest values not applied: %+v gain %d", p.Parameters(), p.Gain())
	}

	if _, err := p.RetrieveImage(Left); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("retrieve before grab = %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := p.Grab(Raw); err != nil {
			t.Fatalf("Grab %d: %v", i, err)
		}
		left, _ := p.RetrieveImage(Left)
		if left.RGBAAt(0, 0).R != uint8(10*(i+1)) {
			t.Errorf("frame %d left red = %d", i, left.RGBAAt(0, 0).R)
		}
		depth, err := p.RetrieveMeasure(Depth)
		if err != nil {
			t.Fatal(err)
		}
		if depth.At(0, 0) != float32(1000*(i+1)) {
			t.Errorf("frame %d depth = %v", i, depth.At(0, 0))
		}
		disp, _ := p.RetrieveMeasure(Disparity)
		if want := float32(84000) / float32(1000*(i+1)); disp.At(2, 1) != want {
			t.Errorf("derived disparity = %v, want %v", disp.At(2, 1), want)
		}
	}

	if err := p.Grab(Raw); !errors.Is(err, ErrEndOfFile) {
		t.Errorf("Grab past end = %v, want ErrEndOfFile", err)
	}
	if _, err := p.RetrieveMeasure(Confidence); Code(err) != CodeMeasureNotAvailable {
		t.Errorf("confidence without recording = %v", err)
	}
}

// writeSessionMissingDepth records two 3x2 frames where the first has no
// depth plane.
func writeSessionMissingDepth(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "broken"+session.Ext)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw, err := zstd.NewWriter(f)
	if err != nil {
		t.Fatal(err)
	}
	tw := tar.NewWriter(zw)
	put := func(name string, data []byte) {
		if err := tw.WriteHeader(&tar.Header{Name: name, Mode: 0o644, Size: int64(len(data))}); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write(data); err != nil {
			t.Fatal(err)
		}
	}

	manifest, err := yaml.Marshal(&session.Manifest{Width: 3, Height: 2, Frames: 2})
	if err != nil {
		t.Fatal(err)
	}
	put(session.ManifestName, manifest)

	var png bytes.Buffer
	if err := imaging.Encode(&png, solid(3, 2, color.RGBA{50, 50, 50, 255}), imaging.PNG); err != nil {
		t.Fatal(err)
	}
	var depth bytes.Buffer
	if err := binary.Write(&depth, binary.LittleEndian, []float32{1000, 1000, 1000, 1000, 1000, 1000}); err != nil {
		t.Fatal(err)
	}
	put("frames/000000/"+session.LeftName, png.Bytes())
	put("frames/000000/"+session.RightName, png.Bytes())
	put("frames/000001/"+session.LeftName, png.Bytes())
	put("frames/000001/"+session.RightName, png.Bytes())
	put("frames/000001/"+session.DepthName, depth.Bytes())

	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestPlaybackSkipsCorruptedFrame(t *testing.T) {
	p := openPlayback(t, writeSessionMissingDepth(t), false)

	if err := p.Grab(Raw); Code(err) != CodeCorruptedFrame {
		t.Fatalf("Grab 0 = %v, want corrupted frame", err)
	}
	if err := p.Grab(Raw); err != nil {
		t.Fatalf("Grab 1: %v", err)
	}
	depth, err := p.RetrieveMeasure(Depth)
	if err != nil {
		t.Fatal(err)
	}
	if v := depth.At(0, 0); v != 1000 {
		t.Errorf("depth = %v, want 1000", v)
	}
	if err := p.Grab(Raw); !errors.Is(err, ErrEndOfFile) {
		t.Errorf("Grab 2 = %v, want end of file", err)
	}
}

func TestPlaybackLoop(t *testing.T) {
	p := openPlayback(t, writeTestSession(t, 1, false), true)
	for i := 0; i < 3; i++ {
		if err := p.Grab(Raw); err != nil {
			t.Fatalf("Grab %d: %v", i, err)
		}
	}
}

func TestPlaybackConfidenceThreshold(t *testing.T) {
	p := openPlayback(t, writeTestSession(t, 1, true), false)
	if err := p.Grab(Raw); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		threshold int
		valid     int
	}{
		{100, 5}, // sample 1 is a recorded hole
		{50, 2},
		{1, 1},
		{-20, 1}, // clamped to 1
	}
	for _, tt := range tests {
		p.SetConfidenceThreshold(tt.threshold)
		depth, err := p.RetrieveMeasure(Depth)
		if err != nil {
			t.Fatal(err)
		}
		n := 0
		for _, v := range depth.Data {
			if Valid(v) {
				n++
			}
		}
		if n != tt.valid {
			t.Errorf("threshold %d: %d valid samples, want %d", tt.threshold, n, tt.valid)
		}
	}
	if p.ConfidenceThreshold() != 1 {
		t.Errorf("threshold = %d, want clamped 1", p.ConfidenceThreshold())
	}

	conf, err := p.RetrieveMeasure(Confidence)
	if err != nil {
		t.Fatal(err)
	}
	if conf.At(2, 1) != 100 {
		t.Errorf("confidence = %v, want 100", conf.At(2, 1))
	}
}

func TestPlaybackFullSensing(t *testing.T) {
	p := openPlayback(t, writeTestSession(t, 1, false), false)
	if err := p.Grab(Full); err != nil {
		t.Fatal(err)
	}
	depth, _ := p.RetrieveMeasure(Depth)
	if v := depth.At(1, 0); math.IsNaN(float64(v)) || v != 1000 {
		t.Errorf("hole = %v, want filled with 1000", v)
	}
}

func TestPlaybackInitErrors(t *testing.T) {
	p := NewPlayback(filepath.Join(t.TempDir(), "missing"+session.Ext))
	err := p.Init(context.Background(), InitParams{})
	if Code(err) != CodeInvalidSVOFile {
		t.Errorf("Code = %v, want INVALID SVO FILE", Code(err))
	}
	if err := p.Grab(Raw); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Grab on failed init = %v", err)
	}
}

func TestPlaybackSetGain(t *testing.T) {
	p := openPlayback(t, writeTestSession(t, 1, false), false)
	if err := p.SetGain(41); err != nil || p.Gain() != 41 {
		t.Errorf("SetGain(41) = %v, gain %d", err, p.Gain())
	}
	if err := p.SetGain(101); err == nil {
		t.Error("gain above 100 should fail")
	}
}

func TestOpenWithoutLiveBackend(t *testing.T) {
	RegisterLive(nil)
	if _, err := Open("", HD1080, 0); Code(err) != CodeCameraNotDetected {
		t.Errorf("Open live = %v, want CAMERA NOT DETECTED", err)
	}
	cam, err := Open("x.dvs", HD1080, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := cam.(*Playback); !ok {
		t.Errorf("Open(path) = %T, want *Playback", cam)
	}
}
