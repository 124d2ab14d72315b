package main

import (
	"fmt"
	"log"
	"os/exec"
	"runtime"
	"sync"

	"github.com/google/uuid"

	"github.com/avaropoint/touchlink/internal/protocol"
)

// injector implements control.Injector on top of the platform pointer
// tools. A touch gesture maps to press/drag/release of the primary
// pointer; the sequence id only correlates log lines, since every
// platform backend drives a single pointer.
type injector struct {
	mu sync.Mutex // one injection at a time, tools are not reentrant

	toolChecked   bool
	toolAvailable bool
}

func newInjector() *injector {
	return &injector{}
}

func (in *injector) InjectTouch(x, y int, phase protocol.TouchPhase, seq uuid.UUID) error {
	in.mu.Lock()
	defer in.mu.Unlock()

	log.Printf("Touch %s at (%d,%d) seq=%s", phaseName(phase), x, y, seq.String()[:8])

	switch runtime.GOOS {
	case "darwin":
		return in.injectDarwin(x, y, phase)
	case "linux":
		return in.injectLinux(x, y, phase)
	case "windows":
		return injectWindows(x, y, phase)
	default:
		return fmt.Errorf("touch injection not supported on %s", runtime.GOOS)
	}
}

func phaseName(phase protocol.TouchPhase) string {
	switch phase {
	case protocol.TouchDown:
		return "down"
	case protocol.TouchMove:
		return "move"
	case protocol.TouchUp:
		return "up"
	default:
		return fmt.Sprintf("phase(%d)", byte(phase))
	}
}

// ---------------------------------------------------------------------------
// macOS injection (requires cliclick: brew install cliclick)
// ---------------------------------------------------------------------------

func (in *injector) injectDarwin(x, y int, phase protocol.TouchPhase) error {
	if !in.toolChecked {
		in.toolChecked = true
		if _, err := exec.LookPath("cliclick"); err == nil {
			in.toolAvailable = true
			log.Println("Touch control: cliclick found")
		} else {
			log.Println("WARNING: cliclick not found. Install with: brew install cliclick")
		}
	}
	if !in.toolAvailable {
		return fmt.Errorf("cliclick not available")
	}

	var arg string
	switch phase {
	case protocol.TouchDown:
		arg = fmt.Sprintf("dd:%d,%d", x, y)
	case protocol.TouchMove:
		arg = fmt.Sprintf("dm:%d,%d", x, y)
	case protocol.TouchUp:
		arg = fmt.Sprintf("du:%d,%d", x, y)
	}

	output, err := exec.Command("cliclick", arg).CombinedOutput()
	if err != nil {
		return fmt.Errorf("cliclick: %w (output: %s)", err, output)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Linux injection (requires xdotool: apt install xdotool)
// ---------------------------------------------------------------------------

func (in *injector) injectLinux(x, y int, phase protocol.TouchPhase) error {
	if !in.toolChecked {
		in.toolChecked = true
		if _, err := exec.LookPath("xdotool"); err == nil {
			in.toolAvailable = true
			log.Println("Touch control: xdotool found")
		} else {
			log.Println("WARNING: xdotool not found. Install with: sudo apt install xdotool")
		}
	}
	if !in.toolAvailable {
		return fmt.Errorf("xdotool not available")
	}

	xs, ys := fmt.Sprintf("%d", x), fmt.Sprintf("%d", y)
	if err := exec.Command("xdotool", "mousemove", xs, ys).Run(); err != nil {
		return fmt.Errorf("xdotool mousemove: %w", err)
	}

	switch phase {
	case protocol.TouchDown:
		return exec.Command("xdotool", "mousedown", "1").Run()
	case protocol.TouchUp:
		return exec.Command("xdotool", "mouseup", "1").Run()
	}
	return nil
}

// ---------------------------------------------------------------------------
// Windows injection (PowerShell)
// ---------------------------------------------------------------------------

// windowsPointerScript builds a PowerShell script that moves the cursor
// to (x, y) and optionally fires a mouse_event with the given flags.
func windowsPointerScript(x, y int, mouseEventFlag string) string {
	base := fmt.Sprintf(`
Add-Type -AssemblyName System.Windows.Forms
[System.Windows.Forms.Cursor]::Position = New-Object System.Drawing.Point(%d, %d)
`, x, y)
	if mouseEventFlag == "" {
		return base
	}
	return base + fmt.Sprintf(`$signature = @"
[DllImport("user32.dll")]
public static extern void mouse_event(int dwFlags, int dx, int dy, int dwData, int dwExtraInfo);
"@
$mouse = Add-Type -MemberDefinition $signature -Name "MouseEvent" -Namespace "Win32" -PassThru
$mouse::mouse_event(%s, 0, 0, 0, 0)
`, mouseEventFlag)
}

func injectWindows(x, y int, phase protocol.TouchPhase) error {
	var ps string
	switch phase {
	case protocol.TouchDown:
		ps = windowsPointerScript(x, y, "0x0002")
	case protocol.TouchMove:
		ps = windowsPointerScript(x, y, "")
	case protocol.TouchUp:
		ps = windowsPointerScript(x, y, "0x0004")
	}

	if err := exec.Command("powershell", "-NoProfile", "-Command", ps).Run(); err != nil {
		return fmt.Errorf("powershell injection: %w", err)
	}
	return nil
}
