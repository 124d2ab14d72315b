package protocol

import (
	"bufio"
	"io"
)

// FrameReader pulls length-prefixed command frames off a connection.
// Each frame is a 2-byte big-endian payload length followed by exactly
// that many payload bytes. One reader per connection, consumed once;
// cancellation is done by closing the underlying connection, which
// unblocks any in-flight read.
type FrameReader struct {
	r *bufio.Reader
}

// NewFrameReader wraps r for frame-at-a-time reading.
func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{r: bufio.NewReader(r)}
}

// Next reads one frame and returns its payload. A short read at either
// framing step (length prefix or payload body) is a stream error: the
// declared length must always be satisfied before the next frame begins.
// A zero-length frame yields an empty, non-nil payload.
func (f *FrameReader) Next() ([]byte, error) {
	header := make([]byte, 2)
	if _, err := io.ReadFull(f.r, header); err != nil {
		return nil, err
	}

	length := int(header[0])<<8 | int(header[1])
	payload := make([]byte, length)
	if _, err := io.ReadFull(f.r, payload); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}

	return payload, nil
}
