// Package session implements the device session and the
// request/response synchronizer at the heart of the driver.
//
// The transport delivers inbound frames asynchronously and without any
// request identifier, so the only way to match a reply to a request is
// to never have more than one request outstanding. The session
// serializes callers behind a mutex, transmits exactly one frame per
// round trip, and parks the caller on a one-shot completion signal that
// the delivery callback fires when the next inbound frame arrives. A
// frame that arrives while nobody is waiting is a stale reply from an
// earlier, timed-out request and is discarded; removing that guard
// would let a late reply corrupt the next request's result.
//
// All state lives in the session value: the staging frame buffer, the
// shared response storage, the lock, and the completion signal are
// created at attach time and reused for every request until detach.
package session
