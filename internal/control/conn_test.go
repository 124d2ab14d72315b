package control

import (
	"context"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avaropoint/touchlink/internal/protocol"
)

// --- capability fakes -------------------------------------------------------

type fakeFrames struct {
	mu    sync.Mutex
	frame []byte
	err   error
	delay time.Duration
	calls int
}

func (f *fakeFrames) CaptureFrame() ([]byte, error) {
	f.mu.Lock()
	f.calls++
	frame, err, delay := f.frame, f.err, f.delay
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	return frame, err
}

func (f *fakeFrames) captures() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type touchEvent struct {
	x, y  int
	phase protocol.TouchPhase
	seq   uuid.UUID
}

type fakeInjector struct {
	mu     sync.Mutex
	events []touchEvent
}

func (f *fakeInjector) InjectTouch(x, y int, phase protocol.TouchPhase, seq uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, touchEvent{x, y, phase, seq})
	return nil
}

func (f *fakeInjector) recorded() []touchEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]touchEvent(nil), f.events...)
}

type fakeDisplay struct {
	mu     sync.Mutex
	geo    Geometry
	label  string
	setLog []string
}

func (f *fakeDisplay) Geometry() (Geometry, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.geo, true
}

func (f *fakeDisplay) WindowLabel() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.label, f.label != ""
}

func (f *fakeDisplay) SetWindowLabel(label string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.label = label
	f.setLog = append(f.setLog, label)
}

func (f *fakeDisplay) labels() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.setLog...)
}

type fakeLifecycle struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeLifecycle) Terminate() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
}

func (f *fakeLifecycle) terminated() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// --- helpers ----------------------------------------------------------------

func testInfo() Info {
	return Info{
		Geometry: Geometry{Width: 1170, Height: 2532, Scale: 3.0},
		Label:    "device",
	}
}

func testCaps() (Capabilities, *fakeFrames, *fakeInjector, *fakeLifecycle) {
	frames := &fakeFrames{}
	input := &fakeInjector{}
	life := &fakeLifecycle{}
	caps := Capabilities{
		Frames:    frames,
		Input:     input,
		Display:   &fakeDisplay{geo: testInfo().Geometry, label: "device"},
		Lifecycle: life,
	}
	return caps, frames, input, life
}

// startConn serves one in-memory connection and returns the client end
// plus a channel closed when the handler has fully torn down.
func startConn(t *testing.T, caps Capabilities) (net.Conn, chan struct{}) {
	t.Helper()

	client, server := net.Pipe()
	srv := NewServer(testInfo(), caps, nil)

	done := make(chan struct{})
	go func() {
		srv.serveConn(context.Background(), server)
		close(done)
	}()
	t.Cleanup(func() {
		_ = client.Close()
		<-done
	})
	return client, done
}

// shake performs the magic-byte handshake and checks the OKAY reply.
func shake(t *testing.T, conn net.Conn) {
	t.Helper()

	_, err := conn.Write(protocol.TagConnect[:])
	require.NoError(t, err)

	reply := make([]byte, 4)
	_, err = io.ReadFull(conn, reply)
	require.NoError(t, err)
	require.Equal(t, []byte("OKAY"), reply)
}

// sendFrame writes one length-prefixed command frame.
func sendFrame(t *testing.T, conn net.Conn, payload []byte) {
	t.Helper()

	b := protocol.PutU16(make([]byte, 0, 2+len(payload)), len(payload))
	b = append(b, payload...)
	_, err := conn.Write(b)
	require.NoError(t, err)
}

// readExactly reads n reply bytes.
func readExactly(t *testing.T, conn net.Conn, n int) []byte {
	t.Helper()

	b := make([]byte, n)
	_, err := io.ReadFull(conn, b)
	require.NoError(t, err)
	return b
}

// syncVersion round-trips a VERSION command. Because replies keep frame
// order, its reply proves every previously sent frame was dispatched.
func syncVersion(t *testing.T, conn net.Conn) {
	t.Helper()

	sendFrame(t, conn, protocol.TagVersion[:])
	require.Equal(t, []byte{0x00, 0x00, 0x00, 0x02}, readExactly(t, conn, 4))
}

// --- tests ------------------------------------------------------------------

func TestHandshakeAccepted(t *testing.T) {
	caps, _, _, _ := testCaps()
	client, _ := startConn(t, caps)
	shake(t, client)
}

func TestHandshakeRejected(t *testing.T) {
	caps, _, _, _ := testCaps()
	client, done := startConn(t, caps)

	_, err := client.Write([]byte("NOPE"))
	require.NoError(t, err)

	// No reply: the connection just closes.
	buf := make([]byte, 1)
	_, err = client.Read(buf)
	require.Error(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not tear down after bad handshake")
	}
}

func TestSizeReply(t *testing.T) {
	caps, _, _, _ := testCaps()
	client, _ := startConn(t, caps)
	shake(t, client)

	sendFrame(t, client, protocol.TagSize[:])
	require.Equal(t, []byte{0x04, 0x92, 0x09, 0xDC}, readExactly(t, client, 4))
}

func TestVersionReply(t *testing.T) {
	caps, _, _, _ := testCaps()
	client, _ := startConn(t, caps)
	shake(t, client)
	syncVersion(t, client)
}

func TestScreencapNoFrame(t *testing.T) {
	caps, frames, _, _ := testCaps()
	frames.err = io.ErrNoProgress
	client, _ := startConn(t, caps)
	shake(t, client)

	sendFrame(t, client, protocol.TagScreencap[:])
	require.Equal(t, []byte{0x00, 0x00, 0x00, 0x00}, readExactly(t, client, 4))

	// Nothing follows the zero length; the loop keeps serving.
	syncVersion(t, client)
}

func TestScreencapWithFrame(t *testing.T) {
	caps, frames, _, _ := testCaps()
	frames.frame = []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x01}
	client, _ := startConn(t, caps)
	shake(t, client)

	sendFrame(t, client, protocol.TagScreencap[:])
	require.Equal(t, []byte{0x00, 0x00, 0x00, 0x05}, readExactly(t, client, 4))
	require.Equal(t, frames.frame, readExactly(t, client, 5))
}

func TestTerminate(t *testing.T) {
	caps, _, _, life := testCaps()
	client, _ := startConn(t, caps)
	shake(t, client)

	sendFrame(t, client, protocol.TagTerminate[:])
	syncVersion(t, client)
	require.Equal(t, 1, life.terminated())
}

func touchPayload(phase byte, x, y int) []byte {
	p := append([]byte(nil), protocol.TagTouch[:]...)
	p = append(p, phase)
	p = protocol.PutU16(p, x)
	p = protocol.PutU16(p, y)
	return p
}

func TestTouchGestureSequence(t *testing.T) {
	caps, _, input, _ := testCaps()
	client, _ := startConn(t, caps)
	shake(t, client)

	// Scale 3.0: device (234, 468) lands at logical (78, 156).
	sendFrame(t, client, touchPayload(0, 234, 468))
	sendFrame(t, client, touchPayload(1, 300, 600))
	sendFrame(t, client, touchPayload(3, 300, 600))
	sendFrame(t, client, touchPayload(0, 234, 468))
	syncVersion(t, client)

	events := input.recorded()
	require.Len(t, events, 4)

	assert.Equal(t, touchEvent{78, 156, protocol.TouchDown, events[0].seq}, events[0])
	assert.Equal(t, touchEvent{100, 200, protocol.TouchMove, events[0].seq}, events[1])
	assert.Equal(t, touchEvent{100, 200, protocol.TouchUp, events[0].seq}, events[2])

	// Up cleared the identifier, so the next down starts a new gesture.
	assert.Equal(t, protocol.TouchDown, events[3].phase)
	assert.NotEqual(t, events[0].seq, events[3].seq)
	assert.NotEqual(t, uuid.Nil, events[3].seq)
}

func TestTouchReservedPhaseIgnored(t *testing.T) {
	caps, _, input, _ := testCaps()
	client, _ := startConn(t, caps)
	shake(t, client)

	sendFrame(t, client, touchPayload(2, 234, 468))
	syncVersion(t, client)

	assert.Empty(t, input.recorded())
}

func TestTouchTruncatedCoordinatesReadZero(t *testing.T) {
	caps, _, input, _ := testCaps()
	client, _ := startConn(t, caps)
	shake(t, client)

	// Tag + phase only: both coordinates fall back to zero.
	p := append([]byte(nil), protocol.TagTouch[:]...)
	sendFrame(t, client, append(p, 0))
	syncVersion(t, client)

	events := input.recorded()
	require.Len(t, events, 1)
	assert.Equal(t, 0, events[0].x)
	assert.Equal(t, 0, events[0].y)
}

func TestUnknownTagIgnored(t *testing.T) {
	caps, frames, input, life := testCaps()
	client, _ := startConn(t, caps)
	shake(t, client)

	sendFrame(t, client, []byte("XXXX extra bytes"))
	sendFrame(t, client, []byte{0x01})
	sendFrame(t, client, nil)
	syncVersion(t, client)

	assert.Zero(t, frames.captures())
	assert.Empty(t, input.recorded())
	assert.Zero(t, life.terminated())
}

func TestDisconnectMidFrame(t *testing.T) {
	caps, frames, input, life := testCaps()
	client, done := startConn(t, caps)
	shake(t, client)

	// Length prefix promising 16 bytes, then the client vanishes.
	_, err := client.Write([]byte{0x00, 0x10, 'S', 'C'})
	require.NoError(t, err)
	require.NoError(t, client.Close())

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not tear down after mid-frame disconnect")
	}

	assert.Zero(t, frames.captures())
	assert.Empty(t, input.recorded())
	assert.Zero(t, life.terminated())
}

func TestCancellationClosesConnection(t *testing.T) {
	caps, _, _, _ := testCaps()
	client, server := net.Pipe()
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	srv := NewServer(testInfo(), caps, nil)

	done := make(chan struct{})
	go func() {
		srv.serveConn(ctx, server)
		close(done)
	}()

	shake(t, client)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("cancellation did not unblock the read loop")
	}
}
