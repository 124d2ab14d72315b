// Package control implements the remote-control protocol server: a TCP
// listener whose clients perform a magic-byte handshake and then stream
// length-prefixed binary commands for screen capture, display size,
// touch injection, version reporting, and application termination.
//
// The platform specifics (how a frame is captured, how a touch lands)
// live behind the capability interfaces below; the package owns only the
// protocol engine.
package control

import (
	"github.com/google/uuid"

	"github.com/avaropoint/touchlink/internal/protocol"
)

// Geometry describes the controlled display in device pixels, plus the
// scale factor dividing device coordinates down to logical ones.
type Geometry struct {
	Width  int
	Height int
	Scale  float64
}

// Info is the immutable process-wide snapshot captured once before the
// listener starts. It is shared read-only by every connection.
type Info struct {
	Geometry Geometry
	Label    string
}

// FrameProvider produces an encoded frame of the controlled display,
// normalized to the captured geometry. An error means no frame is
// available right now; it is never treated as a connection failure.
type FrameProvider interface {
	CaptureFrame() ([]byte, error)
}

// Injector applies a synthetic touch event at a logical coordinate.
// The sequence id correlates the down/move/up events of one gesture.
type Injector interface {
	InjectTouch(x, y int, phase protocol.TouchPhase, seq uuid.UUID) error
}

// Display exposes display geometry and the window-label side channel.
// Geometry and WindowLabel report false until the platform has both.
type Display interface {
	Geometry() (Geometry, bool)
	WindowLabel() (string, bool)
	SetWindowLabel(label string)
}

// Lifecycle terminates the controlled application.
type Lifecycle interface {
	Terminate()
}

// Capabilities bundles the platform collaborators the server drives.
type Capabilities struct {
	Frames    FrameProvider
	Input     Injector
	Display   Display
	Lifecycle Lifecycle
}
