// depthview shows a stereo depth camera, live or from a recorded session,
// and writes depth exports and snapshots.
//
//	depthview [flags] [session.dvs] [flags]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/teslashibe/go-depthview/internal/log"
	"github.com/teslashibe/go-depthview/pkg/display/cvwindow"
	"github.com/teslashibe/go-depthview/pkg/stereo/uvc"
	"github.com/teslashibe/go-depthview/pkg/viewer"
)

func main() {
	cfg, logLevel, err := viewer.ParseArgs(os.Args[0], os.Args[1:], os.Stderr)
	switch {
	case errors.Is(err, flag.ErrHelp):
		os.Exit(0)
	case errors.Is(err, viewer.ErrTooManyArgs):
		fmt.Println(err)
		os.Exit(1)
	case err != nil:
		os.Exit(2)
	}

	log.Init(logLevel)
	uvc.Register()

	var opts []viewer.Option
	if !cfg.Headless {
		opts = append(opts, viewer.WithDisplay(cvwindow.New()))
	}

	app, err := viewer.New(cfg, opts...)
	if err != nil {
		fmt.Printf("❌ Configuration error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Init(ctx); err != nil {
		log.Error("initialization failed", "error", err)
		app.Shutdown()
		os.Exit(1)
	}

	runErr := app.Run(ctx)
	if err := app.Shutdown(); err != nil {
		log.Warn("shutdown", "error", err)
	}
	if runErr != nil {
		log.Error("runtime error", "error", runErr)
		os.Exit(1)
	}
}
