// Package transport defines the duplex frame port the driver core
// consumes, and the port implementations shipped with it.
//
// The device exchanges fixed 64-byte frames with no request/response
// pairing on the wire: outbound frames are written, inbound frames
// arrive asynchronously through a delivery callback. Matching a reply
// to a request is entirely the session layer's problem (see package
// session).
//
// Implementations: HIDRaw talks to a real PSU through the Linux hidraw
// interface; Pipe is an in-memory port for tests; Emulator simulates
// the PSU register map behind the same interface.
package transport
