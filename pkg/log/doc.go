// Package log provides structured protocol event logging for the
// driver.
//
// Events are captured at three layers: raw frames at the transport
// layer, decoded commands and responses at the wire layer, and session
// state changes. Events are CBOR-encoded with integer keys, so a
// capture file stays compact even when every frame of a polling loop is
// recorded. FileLogger writes capture files, Reader replays them with
// filtering, SlogAdapter mirrors events into a standard slog.Logger for
// development, and MultiLogger fans out to several sinks at once.
//
// Logging is optional everywhere: pass nil or NoopLogger to disable it.
package log
