package main

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/avaropoint/touchlink/internal/control"
)

// displayState implements control.Display. Geometry discovery shells
// out to platform tools and is cached after the first success; the
// window-label side channel is process-local.
type displayState struct {
	mu      sync.Mutex
	geo     control.Geometry
	haveGeo bool
	label   string
}

func newDisplay(label string) *displayState {
	if label == "" {
		if h, err := os.Hostname(); err == nil {
			label = h
		}
	}
	return &displayState{label: label}
}

func (d *displayState) Geometry() (control.Geometry, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.haveGeo {
		geo, ok := detectGeometry()
		if !ok {
			return control.Geometry{}, false
		}
		d.geo, d.haveGeo = geo, true
	}
	return d.geo, true
}

func (d *displayState) WindowLabel() (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.label == "" {
		return "", false
	}
	return d.label, true
}

func (d *displayState) SetWindowLabel(label string) {
	d.mu.Lock()
	d.label = label
	d.mu.Unlock()
	log.Printf("Window label: %s", label)
}

// detectGeometry dispatches to the platform-specific discovery.
func detectGeometry() (control.Geometry, bool) {
	switch runtime.GOOS {
	case "darwin":
		return darwinGeometry()
	case "linux":
		return linuxGeometry()
	case "windows":
		return windowsGeometry()
	default:
		return control.Geometry{}, false
	}
}

// linuxGeometry queries xrandr for the first connected display.
func linuxGeometry() (control.Geometry, bool) {
	out, err := exec.Command("xrandr", "--query").Output()
	if err != nil {
		return control.Geometry{}, false
	}

	for _, line := range strings.Split(string(out), "\n") {
		// Lines like: "DP-1 connected primary 2560x1440+0+0 ..."
		if !strings.Contains(line, " connected") {
			continue
		}
		for _, f := range strings.Fields(line) {
			if w, h, ok := parseXrandrRes(f); ok {
				return control.Geometry{Width: w, Height: h, Scale: linuxScale()}, true
			}
		}
	}
	return control.Geometry{}, false
}

// parseXrandrRes parses a "WxH+X+Y" token from xrandr output.
func parseXrandrRes(s string) (int, int, bool) {
	xIdx := strings.Index(s, "x")
	pIdx := strings.Index(s, "+")
	if xIdx < 1 || pIdx < 1 || pIdx <= xIdx {
		return 0, 0, false
	}
	w, errW := strconv.Atoi(s[:xIdx])
	h, errH := strconv.Atoi(s[xIdx+1 : pIdx])
	if errW != nil || errH != nil {
		return 0, 0, false
	}
	return w, h, true
}

// linuxScale honours GDK_SCALE when set, else 1.
func linuxScale() float64 {
	if v := os.Getenv("GDK_SCALE"); v != "" {
		if s, err := strconv.ParseFloat(v, 64); err == nil && s > 0 {
			return s
		}
	}
	return 1
}

// darwinGeometry parses system_profiler for the primary resolution.
// Retina displays report a 2x scale.
func darwinGeometry() (control.Geometry, bool) {
	out, err := exec.Command("system_profiler", "SPDisplaysDataType").Output()
	if err != nil {
		return control.Geometry{}, false
	}

	scale := 1.0
	for _, line := range strings.Split(string(out), "\n") {
		if !strings.Contains(line, "Resolution:") {
			continue
		}
		if strings.Contains(line, "Retina") {
			scale = 2.0
		}
		// "Resolution: 2560 x 1600 Retina"
		fields := strings.Fields(strings.TrimSpace(strings.SplitN(line, ":", 2)[1]))
		if len(fields) >= 3 && fields[1] == "x" {
			w, errW := strconv.Atoi(fields[0])
			h, errH := strconv.Atoi(fields[2])
			if errW == nil && errH == nil {
				return control.Geometry{Width: w, Height: h, Scale: scale}, true
			}
		}
	}
	return control.Geometry{}, false
}

// windowsGeometry asks PowerShell for the primary screen bounds.
func windowsGeometry() (control.Geometry, bool) {
	script := `
Add-Type -AssemblyName System.Windows.Forms
$b = [System.Windows.Forms.Screen]::PrimaryScreen.Bounds
Write-Output ("{0} {1}" -f $b.Width, $b.Height)
`
	out, err := exec.Command("powershell", "-NoProfile", "-Command", script).Output()
	if err != nil {
		return control.Geometry{}, false
	}

	var w, h int
	if _, err := fmt.Sscanf(strings.TrimSpace(string(out)), "%d %d", &w, &h); err != nil {
		return control.Geometry{}, false
	}
	return control.Geometry{Width: w, Height: h, Scale: 1}, true
}
