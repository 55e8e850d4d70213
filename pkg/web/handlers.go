package web

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-depthview/internal/log"
	"github.com/teslashibe/go-depthview/pkg/display"
	"github.com/teslashibe/go-depthview/pkg/hub"
	"github.com/teslashibe/go-depthview/pkg/stereo"
)

// PickResult is the depth under a remote click
type PickResult struct {
	X       int     `json:"x"`
	Y       int     `json:"y"`
	Valid   bool    `json:"valid"`
	Meters  float64 `json:"meters"`
	Readout string  `json:"readout"`
}

// handleStatus returns the current viewer status
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.State())
}

// parseKey reads a key parameter: a single character is that key, anything
// longer is a numeric key code.
func parseKey(param string) (int, error) {
	if len(param) == 1 {
		return int(param[0]), nil
	}
	code, err := strconv.Atoi(param)
	if err != nil || code < 0 || code > 0xff {
		return 0, fmt.Errorf("invalid key %q", param)
	}
	return code, nil
}

// handleKey queues a key press for the frame loop
func (s *Server) handleKey(c *fiber.Ctx) error {
	key, err := parseKey(c.Params("key"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	select {
	case s.keys <- key:
	default:
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "key queue full",
		})
	}
	log.Debug("remote key", "key", key)
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"key": key})
}

// handlePick reads the depth under (x, y) in display coordinates
func (s *Server) handlePick(c *fiber.Ctx) error {
	x, y := c.QueryInt("x", -1), c.QueryInt("y", -1)

	s.depthMu.RLock()
	depth := s.depth
	var meters float64
	var ok bool
	if depth != nil {
		meters, ok = stereo.PickDepth(depth, display.Size, x, y)
	}
	s.depthMu.RUnlock()

	if depth == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "no depth available",
		})
	}

	readout := stereo.FormatPick(display.DepthWindow, meters, ok)
	fmt.Print(readout)
	return c.JSON(PickResult{X: x, Y: y, Valid: ok, Meters: meters, Readout: readout})
}

// handleGetCamera returns the camera settings
func (s *Server) handleGetCamera(c *fiber.Ctx) error {
	if s.cameras == nil {
		return fiber.ErrNotFound
	}
	return c.JSON(s.cameras.GetConfigJSON())
}

// handleSetCamera changes runtime camera settings
func (s *Server) handleSetCamera(c *fiber.Ctx) error {
	if s.cameras == nil {
		return fiber.ErrNotFound
	}

	var params map[string]interface{}
	if err := c.BodyParser(&params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid body: " + err.Error(),
		})
	}
	if err := s.cameras.UpdateConfig(params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(s.cameras.GetConfigJSON())
}

// checkWindow rejects streams for unknown windows before the upgrade
func (s *Server) checkWindow(c *fiber.Ctx) error {
	if _, ok := s.frameHubs[c.Params("window")]; !ok {
		return fiber.ErrNotFound
	}
	return c.Next()
}

// handleFramesWS streams one window's frames
func (s *Server) handleFramesWS(c *websocket.Conn) {
	serve(s.frameHubs[c.Params("window")], c)
}

// handleStatusWS streams status updates
func (s *Server) handleStatusWS(c *websocket.Conn) {
	serve(s.statusHub, c)
}

func serve(h *hub.Hub, c *websocket.Conn) {
	client := hub.NewClient(h, c)
	if client == nil {
		c.Close()
		return
	}
	client.Run()
}
