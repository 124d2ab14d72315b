package control

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"

	"github.com/google/uuid"

	"github.com/avaropoint/touchlink/internal/protocol"
)

// session is the per-connection state: the connection itself and the
// touch-sequence id live only for one connection and are touched only
// from its goroutine.
type session struct {
	conn net.Conn
	info Info
	caps Capabilities

	// Active touch sequence; uuid.Nil while no gesture is in flight.
	touchSeq uuid.UUID
}

// serveConn owns one accepted connection end-to-end: handshake, command
// loop, teardown. The connection is closed on every exit path.
func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	remote := conn.RemoteAddr()
	defer func() {
		_ = conn.Close()
		log.Printf("Client disconnected: %s", remote)
	}()

	// Close the connection on cancellation so a blocked read returns
	// promptly instead of holding the goroutine.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	br := bufio.NewReader(conn)
	if err := handshake(br, conn); err != nil {
		log.Printf("Handshake failed from %s: %v", remote, err)
		return
	}
	log.Printf("Client connected: %s", remote)

	sess := &session{conn: conn, info: s.info, caps: s.caps}
	frames := protocol.NewFrameReader(br)
	for {
		payload, err := frames.Next()
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, io.EOF) {
				log.Printf("Read error from %s: %v", remote, err)
			}
			return
		}
		// Dispatch synchronously: the reply for this frame is fully
		// written before the next frame is read, so replies keep the
		// order their commands arrived in.
		if err := sess.dispatch(payload); err != nil {
			log.Printf("Write error to %s: %v", remote, err)
			return
		}
	}
}

// handshake reads the exact 4-byte connect tag (not length-prefixed)
// and answers OKAY. Anything else closes the connection with no reply.
func handshake(r io.Reader, conn net.Conn) error {
	var tag [protocol.TagLen]byte
	if _, err := io.ReadFull(r, tag[:]); err != nil {
		return err
	}
	if tag != protocol.TagConnect {
		return fmt.Errorf("bad connect tag % X", tag[:])
	}
	_, err := conn.Write(protocol.HandshakeReply)
	return err
}
