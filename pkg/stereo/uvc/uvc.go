// Package uvc is the live stereo backend. The camera enumerates as a UVC
// webcam delivering both eyes side by side in one frame; this package splits
// that stream into a left and right image through OpenCV.
//
// Depth, disparity and confidence are produced by the vendor SDK, not by the
// video stream, so RetrieveMeasure reports them as unavailable.
package uvc

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"sync"

	"github.com/teslashibe/go-depthview/internal/log"
	"github.com/teslashibe/go-depthview/pkg/stereo"
	"gocv.io/x/gocv"
)

// Register installs this backend as the live camera for stereo.Open.
func Register() {
	stereo.RegisterLive(func(res stereo.Resolution, device int) (stereo.Camera, error) {
		return New(res, device), nil
	})
}

// Camera reads a side-by-side stereo stream from a capture device.
type Camera struct {
	device int
	res    stereo.Resolution

	mu        sync.Mutex // Protects capture
	capture   *gocv.VideoCapture
	frame     gocv.Mat
	threshold int

	left, right *image.RGBA
	grabbed     bool
	hasFrame    bool
}

var _ stereo.Camera = (*Camera)(nil)

// New returns an unopened live camera.
func New(res stereo.Resolution, device int) *Camera {
	return &Camera{device: device, res: res, threshold: 100}
}

// Init opens the device and requests the side-by-side frame size.
func (c *Camera) Init(ctx context.Context, p stereo.InitParams) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.open(); err != nil {
		return err
	}
	c.frame = gocv.NewMat()
	c.hasFrame = true
	log.Info("live camera opened", "device", c.device, "resolution", c.res.String(), "quality", p.Quality.String())
	return nil
}

func (c *Camera) open() error {
	vc, err := gocv.VideoCaptureDevice(c.device)
	if err != nil {
		return stereo.WithCode(stereo.CodeCameraNotDetected, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return stereo.WithCode(stereo.CodeCameraNotDetected, fmt.Errorf("device %d not opened", c.device))
	}
	vc.Set(gocv.VideoCaptureFrameWidth, float64(2*c.res.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(c.res.Height))

	w := int(vc.Get(gocv.VideoCaptureFrameWidth))
	h := int(vc.Get(gocv.VideoCaptureFrameHeight))
	if w != 2*c.res.Width || h != c.res.Height {
		vc.Close()
		return stereo.WithCode(stereo.CodeInvalidResolution,
			fmt.Errorf("device delivers %dx%d, want %dx%d", w, h, 2*c.res.Width, c.res.Height))
	}
	c.capture = vc
	return nil
}

func (c *Camera) Resolution() stereo.Resolution { return c.res }

// Parameters are unknown without the vendor calibration file.
func (c *Camera) Parameters() stereo.Parameters { return stereo.Parameters{} }

func (c *Camera) SetConfidenceThreshold(t int) {
	if t < 1 {
		t = 1
	}
	if t > 100 {
		t = 100
	}
	c.threshold = t
}

func (c *Camera) ConfidenceThreshold() int { return c.threshold }

// Grab reads one side-by-side frame and splits it. The sensing mode only
// affects measures, which this backend does not provide.
func (c *Camera) Grab(stereo.SensingMode) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.capture == nil {
		return stereo.ErrNotInitialized
	}
	if ok := c.capture.Read(&c.frame); !ok || c.frame.Empty() {
		return stereo.WithCode(stereo.CodeCorruptedFrame, fmt.Errorf("empty read from device %d", c.device))
	}

	img, err := c.frame.ToImage()
	if err != nil {
		return stereo.WithCode(stereo.CodeCorruptedFrame, err)
	}
	b := img.Bounds()
	half := b.Dx() / 2
	c.left = split(c.left, img, image.Rect(b.Min.X, b.Min.Y, b.Min.X+half, b.Max.Y))
	c.right = split(c.right, img, image.Rect(b.Min.X+half, b.Min.Y, b.Max.X, b.Max.Y))
	c.grabbed = true
	return nil
}

func split(dst *image.RGBA, src image.Image, r image.Rectangle) *image.RGBA {
	if dst == nil || dst.Bounds().Dx() != r.Dx() || dst.Bounds().Dy() != r.Dy() {
		dst = image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	}
	draw.Draw(dst, dst.Bounds(), src, r.Min, draw.Src)
	return dst
}

func (c *Camera) RetrieveImage(side stereo.Side) (*image.RGBA, error) {
	if !c.grabbed {
		return nil, stereo.ErrNotInitialized
	}
	if side == stereo.Right {
		return c.right, nil
	}
	return c.left, nil
}

func (c *Camera) RetrieveMeasure(kind stereo.MeasureKind) (*stereo.FloatMap, error) {
	return nil, stereo.WithCode(stereo.CodeMeasureNotAvailable, fmt.Errorf("%s needs the vendor SDK", kind))
}

// Gain reads the device gain property.
func (c *Camera) Gain() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.capture == nil {
		return 0
	}
	return int(c.capture.Get(gocv.VideoCaptureGain))
}

// SetGain writes the device gain property.
func (c *Camera) SetGain(gain int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.capture == nil {
		return stereo.ErrNotInitialized
	}
	c.capture.Set(gocv.VideoCaptureGain, float64(gain))
	return nil
}

// Reset reopens the device, which restarts the camera's own alignment.
func (c *Camera) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.capture != nil {
		c.capture.Close()
		c.capture = nil
	}
	return c.open()
}

func (c *Camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var err error
	if c.capture != nil {
		err = c.capture.Close()
		c.capture = nil
	}
	if c.hasFrame {
		c.frame.Close()
		c.hasFrame = false
	}
	return err
}
