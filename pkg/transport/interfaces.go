package transport

// ReportHandler is called for every inbound frame the port delivers.
//
// The handler may be invoked from a different goroutine than any
// caller, concurrently with in-flight Send calls, and must never
// block. The data slice is only valid for the duration of the call;
// implementations copy what they need.
type ReportHandler interface {
	HandleReport(data []byte)
}

// ReportHandlerFunc is the func type of ReportHandler.
type ReportHandlerFunc func(data []byte)

// HandleReport implements ReportHandler.
func (f ReportHandlerFunc) HandleReport(data []byte) {
	f(data)
}

// Port is a duplex frame channel to one device. The protocol carries no
// correlation IDs, so the port makes no attempt to pair inbound frames
// with outbound ones.
type Port interface {
	// Send transmits one outbound frame. The frame is consumed before
	// Send returns; the caller may reuse the buffer afterwards.
	Send(frame []byte) error

	// SetHandler registers the delivery callback for inbound frames.
	// Frames arriving while no handler is set are dropped.
	SetHandler(h ReportHandler)

	// Close releases the port. Subsequent Sends fail.
	Close() error
}

// Compile-time interface satisfaction checks.
var (
	_ Port = (*Pipe)(nil)
	_ Port = (*Emulator)(nil)
)
