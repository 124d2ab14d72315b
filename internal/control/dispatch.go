package control

import (
	"log"

	"github.com/google/uuid"

	"github.com/avaropoint/touchlink/internal/protocol"
)

// dispatch routes one framed payload by its leading magic tag. Only a
// failed reply write is returned as an error; unrecognized tags and
// capability misses are ignored so the command loop keeps serving.
func (s *session) dispatch(payload []byte) error {
	switch {
	case protocol.HasTag(payload, protocol.TagScreencap):
		return s.screencap()
	case protocol.HasTag(payload, protocol.TagSize):
		return s.size()
	case protocol.HasTag(payload, protocol.TagTerminate):
		// Fire and forget; no reply, and the loop may never run again.
		s.caps.Lifecycle.Terminate()
		return nil
	case protocol.HasTag(payload, protocol.TagTouch):
		s.touch(payload)
		return nil
	case protocol.HasTag(payload, protocol.TagVersion):
		return s.version()
	}
	return nil
}

// screencap replies u32 length + frame bytes. When no frame is
// available the reply is a bare u32 zero, never an error.
func (s *session) screencap() error {
	frame, err := s.caps.Frames.CaptureFrame()
	if err != nil {
		log.Printf("Screen capture unavailable: %v", err)
		frame = nil
	}

	reply := protocol.PutU32(make([]byte, 0, 4+len(frame)), len(frame))
	reply = append(reply, frame...)
	_, werr := s.conn.Write(reply)
	return werr
}

// size replies u16 width + u16 height of the captured geometry.
func (s *session) size() error {
	reply := protocol.PutU16(make([]byte, 0, 4), s.info.Geometry.Width)
	reply = protocol.PutU16(reply, s.info.Geometry.Height)
	_, err := s.conn.Write(reply)
	return err
}

// version replies the fixed protocol version as a u32.
func (s *session) version() error {
	_, err := s.conn.Write(protocol.PutU32(make([]byte, 0, 4), protocol.Version))
	return err
}

// touch parses phase + device x/y, converts to logical coordinates, and
// injects through the input capability. Down, move, and up within one
// gesture share the session's sequence id; up clears it. Reserved phase
// values are ignored without reply.
func (s *session) touch(payload []byte) {
	if len(payload) <= protocol.TagLen {
		return
	}
	phase := protocol.TouchPhase(payload[protocol.TagLen])
	switch phase {
	case protocol.TouchDown, protocol.TouchMove, protocol.TouchUp:
	default:
		return
	}

	scale := s.info.Geometry.Scale
	x := protocol.DivRound(protocol.U16At(payload, protocol.TagLen+1), scale)
	y := protocol.DivRound(protocol.U16At(payload, protocol.TagLen+3), scale)

	if s.touchSeq == uuid.Nil {
		s.touchSeq = uuid.New()
	}
	seq := s.touchSeq
	if phase == protocol.TouchUp {
		s.touchSeq = uuid.Nil
	}

	if err := s.caps.Input.InjectTouch(x, y, phase, seq); err != nil {
		log.Printf("Touch injection failed: %v", err)
	}
}
