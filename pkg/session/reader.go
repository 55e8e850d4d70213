package session

import (
	"archive/tar"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"
)

// ErrFormat reports a file that is not a valid session.
var ErrFormat = errors.New("not a session file")

// Reader plays back a session file frame by frame.
type Reader struct {
	f        *os.File
	zr       *zstd.Decoder
	tr       *tar.Reader
	manifest Manifest
	next     int
	pending  *tar.Header
}

// Open opens a session file and reads its manifest.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	zr, err := zstd.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	r := &Reader{f: f, zr: zr}
	if err := r.start(); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

// Manifest returns the session manifest.
func (r *Reader) Manifest() Manifest {
	return r.manifest
}

// Next returns the next frame, or io.EOF after the last one. A frame that
// fails to decode is consumed whole, so the following call moves on to the
// next frame.
func (r *Reader) Next() (*Frame, error) {
	if r.next >= r.manifest.Frames {
		return nil, io.EOF
	}
	index := r.next
	r.next++
	dir := frameDir(index)
	fr := &Frame{Index: index}
	n := r.manifest.Width * r.manifest.Height

	var frameErr error
	fail := func(err error) {
		if frameErr == nil {
			frameErr = err
		}
	}

	for {
		hdr := r.pending
		r.pending = nil
		if hdr == nil {
			var err error
			hdr, err = r.tr.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("frame %d: %w", index, err)
			}
		}
		if !strings.HasPrefix(hdr.Name, dir) {
			r.pending = hdr
			break
		}
		if frameErr != nil {
			continue
		}

		name := strings.TrimPrefix(hdr.Name, dir)
		data, err := io.ReadAll(r.tr)
		if err != nil {
			fail(fmt.Errorf("frame %d: read %s: %w", index, name, err))
			continue
		}
		switch name {
		case LeftName, RightName:
			img, err := imaging.Decode(bytes.NewReader(data))
			if err != nil {
				fail(fmt.Errorf("frame %d: decode %s: %w", index, name, err))
				continue
			}
			if name == LeftName {
				fr.Left = img
			} else {
				fr.Right = img
			}
		case DepthName:
			if fr.Depth, err = decodePlane(data, n); err != nil {
				fail(fmt.Errorf("frame %d: %s: %w", index, name, err))
			}
		case DisparityName:
			if fr.Disparity, err = decodePlane(data, n); err != nil {
				fail(fmt.Errorf("frame %d: %s: %w", index, name, err))
			}
		case ConfidenceName:
			if len(data) != n {
				fail(fmt.Errorf("frame %d: %s has %d samples, want %d", index, name, len(data), n))
				continue
			}
			fr.Confidence = data
		}
	}

	if frameErr != nil {
		return nil, frameErr
	}
	if fr.Left == nil || fr.Right == nil || fr.Depth == nil {
		return nil, fmt.Errorf("%w: frame %d incomplete", ErrFormat, index)
	}
	return fr, nil
}

// Rewind restarts playback at the first frame.
func (r *Reader) Rewind() error {
	if _, err := r.f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind: %w", err)
	}
	if err := r.zr.Reset(r.f); err != nil {
		return fmt.Errorf("rewind: %w", err)
	}
	return r.start()
}

// Close releases the file.
func (r *Reader) Close() error {
	r.zr.Close()
	return r.f.Close()
}

func (r *Reader) start() error {
	r.tr = tar.NewReader(r.zr)
	r.next = 0
	r.pending = nil

	hdr, err := r.tr.Next()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if hdr.Name != ManifestName {
		return fmt.Errorf("%w: first entry is %q", ErrFormat, hdr.Name)
	}
	data, err := io.ReadAll(r.tr)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("%w: manifest: %v", ErrFormat, err)
	}
	if errs := m.Validate(); len(errs) > 0 {
		return fmt.Errorf("%w: manifest: %v", ErrFormat, errs)
	}
	r.manifest = m
	return nil
}

func decodePlane(data []byte, n int) ([]float32, error) {
	if len(data) != n*4 {
		return nil, fmt.Errorf("%d bytes, want %d", len(data), n*4)
	}
	plane := make([]float32, n)
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, plane); err != nil {
		return nil, err
	}
	return plane, nil
}
