package session

import (
	"archive/tar"
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"os"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Writer records a session file. Frames must be written in order and their
// count must match Manifest.Frames.
type Writer struct {
	f        *os.File
	zw       *zstd.Encoder
	tw       *tar.Writer
	manifest Manifest
	written  int
	modTime  time.Time
}

// Create starts a session file at path. An empty manifest ID gets a fresh
// UUID and a zero Created time is set to now.
func Create(path string, m Manifest) (*Writer, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Created.IsZero() {
		m.Created = time.Now().UTC()
	}
	if m.DepthUnit == "" {
		m.DepthUnit = "mm"
	}
	if errs := m.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid manifest: %v", errs)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	zw, err := zstd.NewWriter(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("zstd writer: %w", err)
	}

	w := &Writer{
		f:        f,
		zw:       zw,
		tw:       tar.NewWriter(zw),
		manifest: m,
		modTime:  m.Created,
	}

	data, err := yaml.Marshal(&m)
	if err != nil {
		w.abort()
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	if err := w.put(ManifestName, data); err != nil {
		w.abort()
		return nil, err
	}
	return w, nil
}

// Manifest returns the manifest as written.
func (w *Writer) Manifest() Manifest {
	return w.manifest
}

// WriteFrame appends the next frame.
func (w *Writer) WriteFrame(fr *Frame) error {
	if w.written >= w.manifest.Frames {
		return fmt.Errorf("session already holds %d frames", w.manifest.Frames)
	}
	n := w.manifest.Width * w.manifest.Height
	if fr.Left == nil || fr.Right == nil {
		return fmt.Errorf("frame %d: missing image", w.written)
	}
	for _, img := range []struct {
		name string
		b    [2]int
	}{
		{LeftName, [2]int{fr.Left.Bounds().Dx(), fr.Left.Bounds().Dy()}},
		{RightName, [2]int{fr.Right.Bounds().Dx(), fr.Right.Bounds().Dy()}},
	} {
		if img.b[0] != w.manifest.Width || img.b[1] != w.manifest.Height {
			return fmt.Errorf("frame %d: %s is %dx%d, want %dx%d", w.written, img.name, img.b[0], img.b[1], w.manifest.Width, w.manifest.Height)
		}
	}
	if len(fr.Depth) != n {
		return fmt.Errorf("frame %d: depth has %d samples, want %d", w.written, len(fr.Depth), n)
	}
	if fr.Confidence != nil && len(fr.Confidence) != n {
		return fmt.Errorf("frame %d: confidence has %d samples, want %d", w.written, len(fr.Confidence), n)
	}
	if fr.Disparity != nil && len(fr.Disparity) != n {
		return fmt.Errorf("frame %d: disparity has %d samples, want %d", w.written, len(fr.Disparity), n)
	}

	dir := frameDir(w.written)
	for _, e := range []struct {
		name string
		img  image.Image
	}{
		{LeftName, fr.Left},
		{RightName, fr.Right},
	} {
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, e.img, imaging.PNG); err != nil {
			return fmt.Errorf("frame %d: encode %s: %w", w.written, e.name, err)
		}
		if err := w.put(dir+e.name, buf.Bytes()); err != nil {
			return err
		}
	}

	if err := w.putPlane(dir+DepthName, fr.Depth); err != nil {
		return err
	}
	if fr.Confidence != nil {
		if err := w.put(dir+ConfidenceName, fr.Confidence); err != nil {
			return err
		}
	}
	if fr.Disparity != nil {
		if err := w.putPlane(dir+DisparityName, fr.Disparity); err != nil {
			return err
		}
	}
	w.written++
	return nil
}

// Close finishes the file. It fails when fewer frames than announced were
// written; the partial file is left on disk.
func (w *Writer) Close() error {
	err := multierr.Combine(w.tw.Close(), w.zw.Close(), w.f.Close())
	if err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	if w.written != w.manifest.Frames {
		return fmt.Errorf("session announced %d frames, wrote %d", w.manifest.Frames, w.written)
	}
	return nil
}

func (w *Writer) abort() {
	w.tw.Close()
	w.zw.Close()
	w.f.Close()
	os.Remove(w.f.Name())
}

func (w *Writer) put(name string, data []byte) error {
	hdr := &tar.Header{
		Name:    name,
		Mode:    0o644,
		Size:    int64(len(data)),
		ModTime: w.modTime,
	}
	if err := w.tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if _, err := w.tw.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func (w *Writer) putPlane(name string, plane []float32) error {
	var buf bytes.Buffer
	buf.Grow(len(plane) * 4)
	if err := binary.Write(&buf, binary.LittleEndian, plane); err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return w.put(name, buf.Bytes())
}
