package stereo

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"io"
	"math"

	"github.com/teslashibe/go-depthview/internal/log"
	"github.com/teslashibe/go-depthview/pkg/session"
)

// Playback is a Camera backed by a recorded session file.
//
// The recorded measures are the camera's output at record time; playback
// only applies the runtime controls on top: the confidence threshold masks
// samples whose confidence exceeds it, and Full sensing fills holes.
type Playback struct {
	path   string
	reader *session.Reader
	params Parameters
	res    Resolution
	loop   bool

	threshold int
	gain      int
	mode      SensingMode

	frame *session.Frame
	dirty bool

	left, right *image.RGBA
	depth       *FloatMap
	disparity   *FloatMap
	confidence  *FloatMap
	scratch     *FloatMap
}

var _ Camera = (*Playback)(nil)

// NewPlayback returns an uninitialised playback camera for path.
func NewPlayback(path string) *Playback {
	return &Playback{path: path, threshold: 100}
}

// Init opens the session file.
func (p *Playback) Init(ctx context.Context, ip InitParams) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r, err := session.Open(p.path)
	if err != nil {
		return WithCode(CodeInvalidSVOFile, err)
	}
	m := r.Manifest()
	p.reader = r
	p.loop = ip.Loop
	p.gain = m.Gain
	p.res = Resolution{Width: m.Width, Height: m.Height}
	p.params = Parameters{
		Baseline: m.Calibration.Baseline,
		Fx:       m.Calibration.Fx,
		Fy:       m.Calibration.Fy,
		Cx:       m.Calibration.Cx,
		Cy:       m.Calibration.Cy,
	}
	log.Info("playback opened", "path", p.path, "session", m.ID, "frames", m.Frames,
		"resolution", p.res.String(), "quality", ip.Quality.String())
	return nil
}

func (p *Playback) Resolution() Resolution { return p.res }
func (p *Playback) Parameters() Parameters { return p.params }

// SetConfidenceThreshold clamps to [1,100].
func (p *Playback) SetConfidenceThreshold(t int) {
	if t < 1 {
		t = 1
	}
	if t > 100 {
		t = 100
	}
	if t != p.threshold {
		p.dirty = true
	}
	p.threshold = t
}

func (p *Playback) ConfidenceThreshold() int { return p.threshold }

// Grab advances to the next recorded frame. After the last frame it returns
// ErrEndOfFile unless the camera was initialised with Loop.
func (p *Playback) Grab(mode SensingMode) error {
	if p.reader == nil {
		return ErrNotInitialized
	}
	fr, err := p.reader.Next()
	if errors.Is(err, io.EOF) && p.loop {
		if err = p.reader.Rewind(); err == nil {
			fr, err = p.reader.Next()
		}
	}
	if errors.Is(err, io.EOF) {
		return ErrEndOfFile
	}
	if err != nil {
		return WithCode(CodeCorruptedFrame, err)
	}

	p.frame = fr
	p.mode = mode
	p.dirty = true
	p.left = toRGBA(p.left, fr.Left)
	p.right = toRGBA(p.right, fr.Right)
	return nil
}

// RetrieveImage returns the rectified image of one eye.
func (p *Playback) RetrieveImage(side Side) (*image.RGBA, error) {
	if p.frame == nil {
		return nil, ErrNotInitialized
	}
	if side == Right {
		return p.right, nil
	}
	return p.left, nil
}

// RetrieveMeasure returns depth, disparity or confidence for the current frame.
func (p *Playback) RetrieveMeasure(kind MeasureKind) (*FloatMap, error) {
	if p.frame == nil {
		return nil, ErrNotInitialized
	}
	if p.dirty {
		if err := p.buildMeasures(); err != nil {
			return nil, err
		}
		p.dirty = false
	}
	switch kind {
	case Depth:
		return p.depth, nil
	case Disparity:
		return p.disparity, nil
	case Confidence:
		if p.frame.Confidence == nil {
			return nil, ErrMeasureNotAvailable
		}
		return p.confidence, nil
	}
	return nil, fmt.Errorf("unknown measure %d", int(kind))
}

func (p *Playback) Gain() int { return p.gain }

// SetGain records the gain. A recording cannot be re-exposed.
func (p *Playback) SetGain(gain int) error {
	if gain < 0 || gain > 100 {
		return fmt.Errorf("gain %d out of range [0,100]", gain)
	}
	p.gain = gain
	return nil
}

// Reset drops derived buffers so the next retrieve rebuilds them from the
// recorded frame.
func (p *Playback) Reset() error {
	if p.reader == nil {
		return ErrNotInitialized
	}
	p.dirty = true
	return nil
}

// Close releases the session file.
func (p *Playback) Close() error {
	if p.reader == nil {
		return nil
	}
	err := p.reader.Close()
	p.reader = nil
	return err
}

func (p *Playback) buildMeasures() error {
	w, h := p.res.Width, p.res.Height
	fr := p.frame
	p.depth = ensureMap(p.depth, w, h)
	p.disparity = ensureMap(p.disparity, w, h)
	p.confidence = ensureMap(p.confidence, w, h)

	copy(p.depth.Data, fr.Depth)
	if fr.Disparity != nil {
		copy(p.disparity.Data, fr.Disparity)
	} else {
		DisparityFromDepth(p.disparity, p.depth, p.params)
	}

	if fr.Confidence != nil {
		nan := float32(math.NaN())
		limit := uint8(p.threshold)
		for i, c := range fr.Confidence {
			p.confidence.Data[i] = float32(c)
			if c > limit {
				p.depth.Data[i] = nan
				p.disparity.Data[i] = nan
			}
		}
	}

	if p.mode == Full {
		p.scratch = FillHoles(p.scratch, p.depth, DefaultFillRadius)
		p.depth.CopyFrom(p.scratch)
		p.scratch = FillHoles(p.scratch, p.disparity, DefaultFillRadius)
		p.disparity.CopyFrom(p.scratch)
	}
	return nil
}

// DisparityFromDepth fills dst with Fx*Baseline/depth. Invalid or non-positive
// depth gives NaN.
func DisparityFromDepth(dst, depth *FloatMap, params Parameters) {
	k := float32(params.Fx * params.Baseline)
	nan := float32(math.NaN())
	for y := 0; y < depth.Height; y++ {
		src, out := depth.Row(y), dst.Row(y)
		for x, d := range src {
			if !Valid(d) || d <= 0 || k == 0 {
				out[x] = nan
				continue
			}
			out[x] = k / d
		}
	}
}

func ensureMap(m *FloatMap, w, h int) *FloatMap {
	if m == nil || m.Width != w || m.Height != h {
		return NewFloatMap(w, h)
	}
	return m
}

func toRGBA(dst *image.RGBA, src image.Image) *image.RGBA {
	b := src.Bounds()
	if dst == nil || dst.Bounds().Dx() != b.Dx() || dst.Bounds().Dy() != b.Dy() {
		dst = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	}
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}
