// Command server runs the touchlink control server: it waits for the
// display to become available, then accepts remote-control clients that
// capture the screen and inject touch input over a binary TCP protocol.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/avaropoint/touchlink/internal/config"
	"github.com/avaropoint/touchlink/internal/control"
	"github.com/avaropoint/touchlink/internal/version"
)

// displayPollInterval is the startup-gate polling period while waiting
// for display geometry and a window label.
const displayPollInterval = time.Second

func main() {
	cfgPath := flag.String("config", config.DefaultPath, "Config file path (YAML)")
	port := flag.Int("port", -1, "Listen port, 0 = any free port (overrides config)")
	label := flag.String("label", "", "Window label (overrides config)")
	flag.Parse()

	log.Printf("touchlink v%s (built %s)", version.Version, version.BuildTime)
	log.Printf("OS: %s, Arch: %s", runtime.GOOS, runtime.GOARCH)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("Config: %v", err)
	}
	if *port >= 0 {
		cfg.Port = *port
	}
	if *label != "" {
		cfg.Label = *label
	}
	if !cfg.Enabled {
		log.Println("Control server disabled by config")
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	display := newDisplay(cfg.Label)
	info, ok := waitForDisplay(ctx, display)
	if !ok {
		return
	}
	log.Printf("Display: %dx%d @%gx, label %q",
		info.Geometry.Width, info.Geometry.Height, info.Geometry.Scale, info.Label)

	caps := control.Capabilities{
		Frames:    newCapturer(info.Geometry),
		Input:     newInjector(),
		Display:   display,
		Lifecycle: &lifecycle{pid: cfg.TargetPID, shutdown: cancel},
	}

	srv := control.NewServer(info, caps, func(st control.State) {
		log.Printf("Listener state: %s", st)
	})
	if err := srv.Serve(ctx, cfg.Port); err != nil {
		log.Fatalf("Server: %v", err)
	}
}

// waitForDisplay polls until display geometry and a window label are
// both known, then snapshots them. The snapshot is immutable for the
// process lifetime; displays are not re-queried on resize.
func waitForDisplay(ctx context.Context, d control.Display) (control.Info, bool) {
	ticker := time.NewTicker(displayPollInterval)
	defer ticker.Stop()

	for {
		geo, gok := d.Geometry()
		label, lok := d.WindowLabel()
		if gok && lok {
			return control.Info{Geometry: geo, Label: label}, true
		}

		log.Println("Waiting for display...")
		select {
		case <-ctx.Done():
			return control.Info{}, false
		case <-ticker.C:
		}
	}
}
