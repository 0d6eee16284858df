// Package nativemsg implements the native messaging framing transport: a
// 4-byte little-endian length header followed by UTF-8 JSON, exchanged over
// the stdin/stdout of a spawned helper process.
package nativemsg

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/yllada/xvpnctl/common"
)

// headerSize is the fixed length prefix: an unsigned 32-bit little-endian
// byte count. There is no other framing metadata.
const headerSize = 4

// WriteFrame writes one framed message: the length header immediately
// followed by the payload bytes. Header and payload go out in a single
// Write so a serialized caller cannot interleave frames.
func WriteFrame(w io.Writer, payload []byte) error {
	frame := make([]byte, headerSize+len(payload))
	binary.LittleEndian.PutUint32(frame[:headerSize], uint32(len(payload)))
	copy(frame[headerSize:], payload)

	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// ReadFrame reads exactly one framed message. A declared length above max
// is a fatal protocol violation. io.EOF is returned only on a clean
// message boundary; a stream that ends mid-frame yields
// io.ErrUnexpectedEOF, which callers must treat as a framing error.
func ReadFrame(r io.Reader, max int) ([]byte, error) {
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read frame header: %w", err)
	}

	length := binary.LittleEndian.Uint32(header)
	if int(length) > max {
		return nil, fmt.Errorf("%w: declared %d bytes, maximum %d",
			common.ErrFrameTooLarge, length, max)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		// ReadFull reports io.EOF when zero bytes were read; either way the
		// stream ended inside a frame.
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("read frame payload: %w", err)
	}

	return payload, nil
}
