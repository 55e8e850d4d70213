// Package web serves a remote view of the depth viewer: the displayed
// windows as JPEG streams, the viewer status, key input and depth picks.
package web

import (
	"bytes"
	_ "embed"
	"fmt"
	"image"
	"net"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-depthview/internal/log"
	"github.com/teslashibe/go-depthview/pkg/camera"
	"github.com/teslashibe/go-depthview/pkg/display"
	"github.com/teslashibe/go-depthview/pkg/hub"
	"github.com/teslashibe/go-depthview/pkg/stereo"
)

//go:embed index.html
var indexHTML []byte

// JPEGQuality is used for streamed frames.
const JPEGQuality = 80

// ColorDepthWindow streams the colourised depth map. It has no local window.
const ColorDepthWindow = "DEPTHCOLOR"

// Windows that get a frame stream.
var Windows = []string{
	display.ViewWindow,
	display.DepthWindow,
	display.DisparityWindow,
	display.ConfidenceWindow,
	ColorDepthWindow,
}

// Status is the viewer state shown to remote clients
type Status struct {
	Source              string  `json:"source"` // "live" or the session path
	Status              string  `json:"status"`
	Resolution          string  `json:"resolution"`
	Frame               int     `json:"frame"`
	FPS                 float64 `json:"fps"`
	ConfidenceThreshold int     `json:"confidence_threshold"`
	View                string  `json:"view"`
	SensingMode         string  `json:"sensing_mode"`
	Gain                int     `json:"gain"`
	ShowDisparity       bool    `json:"show_disparity"`
	ShowConfidence      bool    `json:"show_confidence"`
	DepthAvailable      bool    `json:"depth_available"`
}

// Server is the remote viewer server
type Server struct {
	app  *fiber.App
	port string

	// State
	state   Status
	stateMu sync.RWMutex

	// Latest depth map, for picks
	depth   *stereo.FloatMap
	depthMu sync.RWMutex

	// Hubs for websocket broadcast
	statusHub *hub.Hub
	frameHubs map[string]*hub.Hub

	// Key presses for the frame loop
	keys chan int

	cameras *camera.Manager
}

// NewServer creates the server. cameras may be nil, which disables the
// camera settings routes.
func NewServer(port string, cameras *camera.Manager) *Server {
	s := &Server{
		port:      port,
		statusHub: hub.New("status", true),
		frameHubs: make(map[string]*hub.Hub, len(Windows)),
		keys:      make(chan int, 32),
		cameras:   cameras,
	}
	for _, w := range Windows {
		s.frameHubs[w] = hub.New("frames/"+w, true)
	}

	app := fiber.New(fiber.Config{
		AppName:               "depthview",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	app.Get("/", func(c *fiber.Ctx) error {
		c.Type("html")
		return c.Send(indexHTML)
	})

	// API routes
	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Post("/keys/:key", s.handleKey)
	api.Get("/pick", s.handlePick)
	api.Get("/camera", s.handleGetCamera)
	api.Post("/camera", s.handleSetCamera)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket routes
	app.Get("/ws/frames/:window", s.checkWindow, websocket.New(s.handleFramesWS))
	app.Get("/ws/status", websocket.New(s.handleStatusWS))

	s.app = app
	return s
}

func (s *Server) startHubs() {
	go s.statusHub.Run()
	for _, h := range s.frameHubs {
		go h.Run()
	}
}

// Start starts the web server and blocks until it stops
func (s *Server) Start() error {
	fmt.Printf("🌐 Remote viewer: http://localhost:%s\n", s.port)
	s.startHubs()
	return s.app.Listen(":" + s.port)
}

// Serve runs the server on an existing listener
func (s *Server) Serve(ln net.Listener) error {
	s.startHubs()
	return s.app.Listener(ln)
}

// StartAsync starts the web server in a goroutine
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			log.Error("web server stopped", "error", err)
		}
	}()
}

// Keys returns key presses posted by remote clients.
func (s *Server) Keys() <-chan int {
	return s.keys
}

// UpdateState updates the status and broadcasts it to clients
func (s *Server) UpdateState(update func(*Status)) {
	s.stateMu.Lock()
	update(&s.state)
	state := s.state // Copy for broadcast
	s.stateMu.Unlock()

	if err := s.statusHub.BroadcastJSON(state); err != nil {
		log.Warn("status broadcast failed", "error", err)
	}
}

// State returns a copy of the current status.
func (s *Server) State() Status {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

// PublishFrame encodes img at display size and sends it to the window's
// stream. Unknown windows and windows nobody watches are skipped.
func (s *Server) PublishFrame(window string, img image.Image) error {
	if !s.Watched(window) {
		return nil
	}
	h := s.frameHubs[window]
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, display.Resize(img), imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return fmt.Errorf("encode %s frame: %w", window, err)
	}
	h.BroadcastBinary(buf.Bytes())
	return nil
}

// Watched reports whether any client streams window.
func (s *Server) Watched(window string) bool {
	h, ok := s.frameHubs[window]
	return ok && h.ClientCount() > 0
}

// SetDepth keeps a copy of depth for picks. nil clears it.
func (s *Server) SetDepth(depth *stereo.FloatMap) {
	s.depthMu.Lock()
	defer s.depthMu.Unlock()
	if depth == nil {
		s.depth = nil
		return
	}
	if s.depth == nil || s.depth.Width != depth.Width || s.depth.Height != depth.Height {
		s.depth = stereo.NewFloatMap(depth.Width, depth.Height)
	}
	s.depth.CopyFrom(depth)
}

// FrameHub returns the hub streaming window, for external use
func (s *Server) FrameHub(window string) *hub.Hub {
	return s.frameHubs[window]
}

// Shutdown gracefully stops the web server
func (s *Server) Shutdown() error {
	s.statusHub.Stop()
	for _, h := range s.frameHubs {
		h.Stop()
	}
	return s.app.Shutdown()
}
