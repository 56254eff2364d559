//go:build linux

package transport

import (
	"fmt"
	"os"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/clink-protocol/clink-go/pkg/devices"
	"github.com/clink-protocol/clink-go/pkg/wire"
)

// HIDRaw is a Port over a Linux hidraw character device. The PSU does
// not use numbered HID reports, so outbound frames are written with a
// zero report number prefix and inbound reports arrive as bare 64-byte
// frames.
type HIDRaw struct {
	file  *os.File
	model devices.Model

	mu      sync.Mutex
	handler ReportHandler
	closed  bool

	done chan struct{}
}

// OpenHIDRaw opens a hidraw device node, verifies the device is a
// supported PSU, and starts the delivery loop.
func OpenHIDRaw(path string) (*HIDRaw, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	info, err := rawInfo(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("querying %s: %w", path, err)
	}

	model, ok := devices.Lookup(uint16(info.Vendor), uint16(info.Product))
	if !ok {
		f.Close()
		return nil, fmt.Errorf("%s: device %04x:%04x is not a supported PSU",
			path, uint16(info.Vendor), uint16(info.Product))
	}

	h := &HIDRaw{
		file:  f,
		model: model,
		done:  make(chan struct{}),
	}
	go h.readLoop()
	return h, nil
}

// rawInfo issues HIDIOCGRAWINFO to read the bus/vendor/product triple.
func rawInfo(f *os.File) (unix.HIDRawDevInfo, error) {
	var info unix.HIDRawDevInfo
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, f.Fd(),
		uintptr(unix.HIDIOCGRAWINFO), uintptr(unsafe.Pointer(&info)))
	if errno != 0 {
		return info, errno
	}
	return info, nil
}

// Model returns the matched device table entry.
func (h *HIDRaw) Model() devices.Model {
	return h.model
}

// Send implements Port.
func (h *HIDRaw) Send(frame []byte) error {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		return ErrPortClosed
	}

	// hidraw expects the report number as the first byte of every
	// write; 0 for devices without numbered reports.
	buf := make([]byte, 1+len(frame))
	copy(buf[1:], frame)
	if _, err := h.file.Write(buf); err != nil {
		return fmt.Errorf("hidraw write: %w", err)
	}
	return nil
}

// SetHandler implements Port.
func (h *HIDRaw) SetHandler(handler ReportHandler) {
	h.mu.Lock()
	h.handler = handler
	h.mu.Unlock()
}

// Close implements Port. It stops the delivery loop; a blocked caller
// waiting on a reply will time out normally.
func (h *HIDRaw) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.mu.Unlock()

	err := h.file.Close()
	<-h.done
	return err
}

// readLoop blocks on the device and delivers every inbound report to
// the registered handler.
func (h *HIDRaw) readLoop() {
	defer close(h.done)
	buf := make([]byte, wire.FrameSize)
	for {
		n, err := h.file.Read(buf)
		if err != nil {
			// Closed or unplugged; either way delivery stops.
			return
		}
		h.mu.Lock()
		handler := h.handler
		h.mu.Unlock()
		if handler != nil && n > 0 {
			handler.HandleReport(buf[:n])
		}
	}
}

// Compile-time interface satisfaction check.
var _ Port = (*HIDRaw)(nil)
