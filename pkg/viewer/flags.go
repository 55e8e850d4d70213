package viewer

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/teslashibe/go-depthview/internal/config"
	"github.com/teslashibe/go-depthview/pkg/session"
)

// ErrTooManyArgs is returned when more than one session path is given.
var ErrTooManyArgs = errors.New("Only the path of a SVO can be passed in arg")

// ParseArgs parses the depthview command line. Environment values are the
// flag defaults, so an explicit flag always wins. Flags may follow the
// session path. It also returns the log level.
func ParseArgs(name string, args []string, output io.Writer) (Config, string, error) {
	cfg := DefaultConfig()
	cfg.LoadEnvConfig()

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)
	fs.BoolVar(&cfg.Debug, "debug", false, "Enable verbose debug logging")
	fs.BoolVar(&cfg.DebugFrames, "debug-frames", false, "Print one timing line per frame")
	logLevel := fs.String("log-level", config.LogLevel(), "Log level: debug, info, warn, error")
	fs.StringVar(&cfg.Resolution, "resolution", cfg.Resolution, "Live resolution: hd2k, hd1080, hd720, vga")
	fs.IntVar(&cfg.Device, "device", cfg.Device, "Live capture device index")
	fs.StringVar(&cfg.OutputDir, "out", cfg.OutputDir, "Directory for exports and snapshots")
	fs.StringVar(&cfg.WebPort, "web", cfg.WebPort, "Serve the remote viewer on this port")
	fs.BoolVar(&cfg.Loop, "loop", false, "Restart playback at the end of the session")
	fs.BoolVar(&cfg.Headless, "headless", false, "Run without windows")
	fs.IntVar(&cfg.MaxFrames, "frames", 0, "Stop after this many frames (0 = until q)")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s [flags] [session%s] [flags]\n", name, session.Ext)
		fs.PrintDefaults()
	}

	// flag stops at the first positional argument; resume after it.
	var paths []string
	for {
		if err := fs.Parse(args); err != nil {
			return cfg, "", err
		}
		if fs.NArg() == 0 {
			break
		}
		paths = append(paths, fs.Arg(0))
		args = fs.Args()[1:]
	}
	if len(paths) > 1 {
		return cfg, "", ErrTooManyArgs
	}
	if len(paths) == 1 {
		cfg.SessionPath = paths[0]
	}

	level := *logLevel
	if cfg.Debug {
		level = "debug"
	}
	return cfg, level, nil
}
