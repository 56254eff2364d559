package wire

import "github.com/clink-protocol/clink-go/pkg/linear"

// Response is a received frame, copied out of the session's shared
// response storage. It is a value type: once returned to a caller it is
// immune to the next request overwriting the shared buffer.
type Response struct {
	buf [FrameSize]byte
}

// NewResponse copies up to FrameSize bytes of an inbound report into a
// Response value. Short reports leave the remainder zero.
func NewResponse(data []byte) Response {
	var r Response
	copy(r.buf[:], data)
	return r
}

// Status returns the status code in byte 0.
func (r Response) Status() Status {
	return Status(r.buf[0])
}

// Byte returns the byte at index i.
func (r Response) Byte(i int) byte {
	return r.buf[i]
}

// Uint16BE interprets bytes i and i+1 as a big-endian 16-bit value.
// Temperature and fan-speed payloads use this layout.
func (r Response) Uint16BE(i int) uint16 {
	return uint16(r.buf[i])<<8 | uint16(r.buf[i+1])
}

// DeviceWord assembles the fixed-point word from the payload at index i
// (low byte) and i+1 (high byte). Voltage, current, and power payloads
// use this layout; see package linear.
func (r Response) DeviceWord(i int) uint16 {
	return linear.Word(r.buf[i], r.buf[i+1])
}

// Payload returns the bytes following the status byte.
func (r Response) Payload() []byte {
	return r.buf[1:]
}
