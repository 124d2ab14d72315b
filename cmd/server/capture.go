package main

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"runtime"
	"time"

	_ "image/jpeg" // decode captures from tools that only emit JPEG

	"github.com/avaropoint/touchlink/internal/control"
)

// capturer implements control.FrameProvider by shelling out to the
// platform screenshot tool and normalizing the result to the captured
// geometry. Any failure along the way means "no frame right now".
type capturer struct {
	geo control.Geometry
}

func newCapturer(geo control.Geometry) *capturer {
	return &capturer{geo: geo}
}

func (c *capturer) CaptureFrame() ([]byte, error) {
	raw, err := grabScreen()
	if err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode capture: %w", err)
	}

	img = normalize(img, c.geo.Width, c.geo.Height)

	var buf bytes.Buffer
	buf.Grow(c.geo.Width * c.geo.Height / 4) // Pre-size for ≈PNG output
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	return buf.Bytes(), nil
}

// grabScreen dispatches to the platform-specific capture implementation.
func grabScreen() ([]byte, error) {
	switch runtime.GOOS {
	case "darwin":
		return grabScreenMacOS()
	case "linux":
		return grabScreenLinux()
	case "windows":
		return grabScreenWindows()
	default:
		return nil, fmt.Errorf("screen capture not supported on %s", runtime.GOOS)
	}
}

func grabScreenMacOS() ([]byte, error) {
	tmpFile := fmt.Sprintf("%s/screen_%d.png", os.TempDir(), time.Now().UnixNano())
	defer os.Remove(tmpFile)

	cmd := exec.Command("screencapture", "-x", "-t", "png", "-C", tmpFile)
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("screencapture: %w", err)
	}
	return os.ReadFile(tmpFile)
}

func grabScreenLinux() ([]byte, error) {
	tmpFile := fmt.Sprintf("%s/screen_%d.png", os.TempDir(), time.Now().UnixNano())
	defer os.Remove(tmpFile)

	cmd := exec.Command("gnome-screenshot", "-f", tmpFile)
	if err := cmd.Run(); err != nil {
		cmd = exec.Command("scrot", "-o", tmpFile)
		if err := cmd.Run(); err != nil {
			cmd = exec.Command("import", "-window", "root", tmpFile)
			if err := cmd.Run(); err != nil {
				return nil, fmt.Errorf("no capture tool succeeded: %w", err)
			}
		}
	}
	return os.ReadFile(tmpFile)
}

func grabScreenWindows() ([]byte, error) {
	tmpFile := fmt.Sprintf("%s\\screen_%d.png", os.TempDir(), time.Now().UnixNano())
	defer os.Remove(tmpFile)

	script := fmt.Sprintf(`
Add-Type -AssemblyName System.Windows.Forms
Add-Type -AssemblyName System.Drawing
$screen = [System.Windows.Forms.Screen]::PrimaryScreen.Bounds
$bitmap = New-Object System.Drawing.Bitmap($screen.Width, $screen.Height)
$graphics = [System.Drawing.Graphics]::FromImage($bitmap)
$graphics.CopyFromScreen($screen.Location, [System.Drawing.Point]::Empty, $screen.Size)
$bitmap.Save('%s', [System.Drawing.Imaging.ImageFormat]::Png)
$graphics.Dispose()
$bitmap.Dispose()
`, tmpFile)

	cmd := exec.Command("powershell", "-NoProfile", "-Command", script)
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("powershell capture: %w", err)
	}
	return os.ReadFile(tmpFile)
}

// normalize scales src to width x height with nearest-neighbour
// sampling, writing the pixel buffer directly. Returns src unchanged
// when it already matches.
func normalize(src image.Image, width, height int) image.Image {
	b := src.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return src
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	pix := dst.Pix
	stride := dst.Stride

	for y := 0; y < height; y++ {
		sy := b.Min.Y + y*b.Dy()/height
		off := y * stride
		for x := 0; x < width; x++ {
			sx := b.Min.X + x*b.Dx()/width
			r, g, bl, a := src.At(sx, sy).RGBA()
			i := off + x*4
			pix[i+0] = uint8(r >> 8)
			pix[i+1] = uint8(g >> 8)
			pix[i+2] = uint8(bl >> 8)
			pix[i+3] = uint8(a >> 8)
		}
	}
	return dst
}
