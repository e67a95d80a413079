package workflow

import (
	"encoding/binary"
	"io"
	"unicode/utf8"
)

// MaxMsgLen is the largest payload the u16 length prefix can carry.
const MaxMsgLen = 65535

// Msg is a framed message: a 16-bit big-endian length prefix followed by
// that many bytes of UTF-8 payload. The payload is always a serialized
// State value.
type Msg struct {
	Data []byte
}

// NewMsg validates that data is valid UTF-8 (the framing invariant) and
// wraps it in a Msg, matching the original's Msg::new.
func NewMsg(data []byte) (Msg, error) {
	if !utf8.Valid(data) {
		return Msg{}, newError(BadMsg, "payload is not valid UTF-8", nil)
	}
	return Msg{Data: data}, nil
}

func (m Msg) String() string { return string(m.Data) }

// RecvMsg reads exactly one framed message from r. A zero-length read of
// the length prefix, or a short read of the payload, fails with ReadFail.
// A non-UTF-8 payload fails with BadMsg. Deadline timeouts on r (when r
// supports them) are reported as the transient NetworkBlocked kind.
func RecvMsg(r io.Reader) (Msg, error) {
	var lenBuf [2]byte
	n, err := io.ReadFull(r, lenBuf[:])
	if err != nil {
		if n == 0 {
			if werr := classifyNetError(err); werr.Kind == NetworkBlocked {
				return Msg{}, werr
			}
			return Msg{}, newError(ReadFail, "read 0 bytes, peer closed or blocked", err)
		}
		return Msg{}, newError(ReadFail, "short read of length prefix", err)
	}

	length := binary.BigEndian.Uint16(lenBuf[:])
	payload := make([]byte, length)
	if length > 0 {
		n, err = io.ReadFull(r, payload)
		if err != nil {
			if n == 0 {
				return Msg{}, newError(ReadFail, "read 0 bytes, peer closed or blocked", err)
			}
			return Msg{}, newError(ReadFail, "short/partial read of payload", err)
		}
	}

	if !utf8.Valid(payload) {
		return Msg{}, newError(BadMsg, "payload is not valid UTF-8", nil)
	}
	return Msg{Data: payload}, nil
}

// SendMsg writes the length prefix and payload as a single logical write.
func SendMsg(w io.Writer, m Msg) error {
	buf := make([]byte, 2+len(m.Data))
	binary.BigEndian.PutUint16(buf[:2], uint16(len(m.Data)))
	copy(buf[2:], m.Data)
	if _, err := w.Write(buf); err != nil {
		return classifyNetError(err)
	}
	return nil
}
