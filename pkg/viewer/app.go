package viewer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"time"

	"go.uber.org/multierr"

	"github.com/teslashibe/go-depthview/internal/log"
	"github.com/teslashibe/go-depthview/pkg/camera"
	"github.com/teslashibe/go-depthview/pkg/control"
	"github.com/teslashibe/go-depthview/pkg/debug"
	"github.com/teslashibe/go-depthview/pkg/display"
	"github.com/teslashibe/go-depthview/pkg/export"
	"github.com/teslashibe/go-depthview/pkg/stereo"
	"github.com/teslashibe/go-depthview/pkg/web"
)

// App is the depth viewer application.
// It owns the camera, the display and the key state. Everything except the
// web server runs on the goroutine that calls Run.
type App struct {
	config Config

	camera    stereo.Camera
	cameras   *camera.Manager
	display   display.Display
	webServer *web.Server
	exporter  *export.Exporter
	snapshots *export.Snapshots
	console   io.Writer

	state      control.State
	cfgVersion uint64

	// Current frame, valid until the next grab
	frame *stereo.Frame

	// Reused display buffers
	view, depthImg, dispImg, confImg *image.RGBA

	frames   int
	exported bool
	fps      float64
}

// Option customises an App.
type Option func(*App)

// WithCamera uses cam instead of opening one from the configuration.
func WithCamera(cam stereo.Camera) Option {
	return func(a *App) { a.camera = cam }
}

// WithDisplay shows frames on d. Without it the viewer is headless.
func WithDisplay(d display.Display) Option {
	return func(a *App) { a.display = d }
}

// WithConsole sends user-facing lines to w instead of stdout.
func WithConsole(w io.Writer) Option {
	return func(a *App) { a.console = w }
}

// New creates a viewer with the given configuration.
func New(cfg Config, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	debug.Enabled = cfg.Debug
	debug.Frames = cfg.DebugFrames

	a := &App{
		config:  cfg,
		console: os.Stdout,
		state:   control.NewState(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Init opens and initialises the camera and the outputs.
// Call this after New() and before Run(). The camera status string is
// printed whatever the outcome.
func (a *App) Init(ctx context.Context) error {
	if a.camera == nil {
		res, err := stereo.ParseResolution(a.config.Resolution)
		if err != nil {
			return err
		}
		cam, err := stereo.Open(a.config.SessionPath, res, a.config.Device)
		if err != nil {
			fmt.Fprintln(a.console, stereo.Code(err))
			return fmt.Errorf("open camera: %w", err)
		}
		a.camera = cam
	}

	err := a.camera.Init(ctx, stereo.InitParams{
		Quality: stereo.Performance,
		Verbose: debug.Enabled,
		Loop:    a.config.Loop,
	})
	fmt.Fprintln(a.console, stereo.Code(err))
	if err != nil {
		return fmt.Errorf("init camera: %w", err)
	}
	log.Info("camera ready", "source", a.source(), "resolution", a.camera.Resolution().String())

	// Settings shared with the remote viewer
	camCfg := *camera.GetPreset(a.config.Resolution)
	camCfg.Gain = a.camera.Gain()
	camCfg.ConfidenceThreshold = a.state.ConfidenceThreshold
	camCfg.SensingMode = "raw"
	a.cameras = camera.NewManager(camCfg)
	a.cameras.OnConfigChange = func(cfg camera.Config) error {
		log.Debug("camera settings changed", "gain", cfg.Gain,
			"confidence_threshold", cfg.ConfidenceThreshold, "sensing_mode", cfg.SensingMode)
		return nil
	}
	_, a.cfgVersion = a.cameras.Snapshot()

	if a.display == nil {
		a.display = display.NewHeadless(nil)
	}
	a.exporter = &export.Exporter{Dir: a.config.OutputDir, Console: a.console}
	a.snapshots = export.NewSnapshots(a.config.OutputDir)

	if a.config.WebPort != "" {
		a.webServer = web.NewServer(a.config.WebPort, a.cameras)
		a.webServer.StartAsync()
	}

	fmt.Fprintln(a.console, control.Help)
	return nil
}

func (a *App) source() string {
	if a.config.SessionPath != "" {
		return a.config.SessionPath
	}
	return "live"
}

// Run is the frame loop. It returns when q is pressed, the context is
// cancelled, MaxFrames grabs were made, or a session without Loop ends.
func (a *App) Run(ctx context.Context) error {
	if a.camera == nil || a.cameras == nil {
		return stereo.ErrNotInitialized
	}

	grabs := 0
	for !a.state.Quit {
		if err := ctx.Err(); err != nil {
			return nil
		}
		if a.config.MaxFrames > 0 && grabs >= a.config.MaxFrames {
			return nil
		}
		grabs++

		start := time.Now()
		a.syncSettings()
		a.camera.SetConfidenceThreshold(a.state.ConfidenceThreshold)

		err := a.camera.Grab(a.state.SensingMode)
		grabbed := time.Since(start)
		switch {
		case errors.Is(err, stereo.ErrEndOfFile):
			fmt.Fprintln(a.console, stereo.CodeEndOfFile)
			return nil
		case err != nil:
			a.frame = nil
			log.Warn("grab failed", "code", stereo.Code(err).String(), "error", err)
		default:
			a.processFrame(start)
		}

		a.handleKey(a.readKey())
		debug.FrameLog(a.frames, grabbed, time.Since(start))
	}
	return nil
}

// processFrame shows the current grab and exports it if it is the first.
func (a *App) processFrame(start time.Time) {
	frame, err := stereo.RetrieveFrame(a.camera)
	if err != nil {
		a.frame = nil
		log.Warn("retrieve failed", "error", err)
		return
	}
	a.frame = frame
	a.frames++

	view, err := stereo.ComposeView(a.view, frame.Left, frame.Right, a.state.View)
	if err != nil {
		log.Warn("compose view", "view", a.state.View.String(), "error", err)
	} else {
		a.view = view
		a.show(display.ViewWindow, view)
	}

	if frame.Depth != nil {
		a.depthImg = stereo.Normalize(a.depthImg, frame.Depth, stereo.Depth)
		a.show(display.DepthWindow, a.depthImg)
	}
	if a.webServer != nil {
		a.webServer.SetDepth(frame.Depth)
		if frame.Depth != nil && a.webServer.Watched(web.ColorDepthWindow) {
			if err := a.webServer.PublishFrame(web.ColorDepthWindow, stereo.Colorize(frame.Depth)); err != nil {
				log.Warn("publish failed", "window", web.ColorDepthWindow, "error", err)
			}
		}
	}

	if !a.exported {
		a.exported = true
		written := a.exporter.WriteFirstFrame(export.FirstFrame{
			Left:       frame.Left,
			Right:      frame.Right,
			Depth:      frame.Depth,
			DepthImage: a.depthImg,
		})
		log.Info("first frame exported", "files", len(written), "dir", a.config.OutputDir)
	}

	a.dispImg = a.showMeasure(display.DisparityWindow, stereo.Disparity, a.state.ShowDisparity, a.dispImg)
	a.confImg = a.showMeasure(display.ConfidenceWindow, stereo.Confidence, a.state.ShowConfidence, a.confImg)

	if elapsed := time.Since(start).Seconds(); elapsed > 0 {
		inst := 1 / elapsed
		if a.fps == 0 {
			a.fps = inst
		} else {
			a.fps = 0.9*a.fps + 0.1*inst
		}
	}
	a.publishState()
}

// showMeasure shows a normalised measure when enabled and available and
// hides its window otherwise.
func (a *App) showMeasure(window string, kind stereo.MeasureKind, enabled bool, buf *image.RGBA) *image.RGBA {
	if !enabled {
		a.hide(window)
		return buf
	}
	m, err := a.camera.RetrieveMeasure(kind)
	if err != nil {
		if stereo.Code(err) != stereo.CodeMeasureNotAvailable {
			log.Warn("retrieve measure", "measure", kind.String(), "error", err)
		}
		a.hide(window)
		return buf
	}
	buf = stereo.Normalize(buf, m, kind)
	a.show(window, buf)
	return buf
}

func (a *App) show(window string, img image.Image) {
	if err := a.display.Show(window, img); err != nil {
		log.Warn("show failed", "window", window, "error", err)
	}
	if a.webServer != nil {
		if err := a.webServer.PublishFrame(window, img); err != nil {
			log.Warn("publish failed", "window", window, "error", err)
		}
	}
}

func (a *App) hide(window string) {
	if err := a.display.Hide(window); err != nil {
		log.Debug("hide failed", "window", window, "error", err)
	}
}

// readKey polls the display, then the remote viewer.
func (a *App) readKey() int {
	key := a.display.WaitKey(a.config.KeyWait)
	if key != display.NoKey || a.webServer == nil {
		return key
	}
	select {
	case k := <-a.webServer.Keys():
		return k
	default:
		return display.NoKey
	}
}

// handleKey applies one key and carries out its side effect.
func (a *App) handleKey(key int) {
	action := a.state.Apply(key)
	if action == control.None {
		return
	}
	log.Debug("key", "key", string(rune(key&0xff)), "action", action.String())

	switch action {
	case control.Realign:
		if err := a.camera.Reset(); err != nil {
			log.Warn("reset failed", "error", err)
		}

	case control.GainUp, control.GainDown:
		step := 1
		if action == control.GainDown {
			step = -1
		}
		gain := control.Clamp(a.camera.Gain()+step, camera.MinGain, camera.MaxGain)
		if err := a.camera.SetGain(gain); err != nil {
			log.Warn("set gain failed", "gain", gain, "error", err)
			return
		}
		fmt.Fprintf(a.console, "set Gain to %d\n", a.camera.Gain())
		a.pushSettings()

	case control.SensingChanged:
		fmt.Fprintf(a.console, "SENSING_MODE: %s\n", a.state.SensingMode)
		a.pushSettings()

	case control.ThresholdChanged:
		a.pushSettings()

	case control.SaveImage:
		if a.frame == nil {
			log.Warn("no frame to save")
			return
		}
		path, err := a.snapshots.SaveImage(a.frame.Left, a.frame.Right)
		a.reportSave(path, err)

	case control.SaveDisparity:
		if a.frame == nil {
			log.Warn("no frame to save")
			return
		}
		img, err := stereo.NormalizeMeasure(a.camera, stereo.Disparity)
		if err != nil {
			log.Warn("no disparity to save", "error", err)
			return
		}
		path, err := a.snapshots.SaveDisparity(img)
		a.reportSave(path, err)

	case control.DisplayChanged:
		if !a.state.ShowDisparity {
			a.hide(display.DisparityWindow)
		}
		if !a.state.ShowConfidence {
			a.hide(display.ConfidenceWindow)
		}
	}
	a.publishState()
}

func (a *App) reportSave(path string, err error) {
	if err != nil {
		fmt.Fprintf(a.console, "Unable to open %s\n", path)
		log.Debug("snapshot failed", "error", err)
		return
	}
	log.Info("snapshot saved", "file", path)
}

// pushSettings records key-driven changes in the shared settings.
func (a *App) pushSettings() {
	mode := "raw"
	if a.state.SensingMode == stereo.Full {
		mode = "full"
	}
	v, err := a.cameras.Update(func(c *camera.Config) {
		c.Gain = a.camera.Gain()
		c.ConfidenceThreshold = a.state.ConfidenceThreshold
		c.SensingMode = mode
	})
	if err != nil {
		log.Warn("settings update failed", "error", err)
		return
	}
	a.cfgVersion = v
}

// syncSettings applies changes made through the remote viewer.
func (a *App) syncSettings() {
	cfg, v := a.cameras.Snapshot()
	if v == a.cfgVersion {
		return
	}
	a.cfgVersion = v

	a.state.ConfidenceThreshold = control.Clamp(cfg.ConfidenceThreshold, control.MinConfidence, control.MaxConfidence)
	if mode := cfg.StereoSensingMode(); mode != a.state.SensingMode {
		a.state.SensingMode = mode
		fmt.Fprintf(a.console, "SENSING_MODE: %s\n", mode)
	}
	if cfg.Gain != a.camera.Gain() {
		if err := a.camera.SetGain(cfg.Gain); err != nil {
			log.Warn("set gain failed", "gain", cfg.Gain, "error", err)
		} else {
			fmt.Fprintf(a.console, "set Gain to %d\n", a.camera.Gain())
		}
	}
	log.Debug("remote settings applied", "version", v)
}

func (a *App) publishState() {
	if a.webServer == nil {
		return
	}
	res := a.camera.Resolution()
	a.webServer.UpdateState(func(s *web.Status) {
		s.Source = a.source()
		s.Status = stereo.CodeSuccess.String()
		s.Resolution = res.String()
		s.Frame = a.frames
		s.FPS = a.fps
		s.ConfidenceThreshold = a.state.ConfidenceThreshold
		s.View = a.state.View.String()
		s.SensingMode = a.state.SensingMode.String()
		s.Gain = a.camera.Gain()
		s.ShowDisparity = a.state.ShowDisparity
		s.ShowConfidence = a.state.ShowConfidence
		s.DepthAvailable = a.frame != nil && a.frame.Depth != nil
	})
}

// State returns the current key state.
func (a *App) State() control.State {
	return a.state
}

// Shutdown releases the camera, the display and the web server.
func (a *App) Shutdown() error {
	var err error
	if a.webServer != nil {
		err = multierr.Append(err, a.webServer.Shutdown())
	}
	if a.display != nil {
		err = multierr.Append(err, a.display.Close())
	}
	if a.camera != nil {
		err = multierr.Append(err, a.camera.Close())
	}
	return err
}
