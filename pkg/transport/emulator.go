package transport

import (
	"sync"
	"time"

	"github.com/clink-protocol/clink-go/pkg/wire"
)

// Emulator is an in-process fake PSU behind the Port interface. It
// implements the register map of the RMi/HXi family: direct reads for
// temperatures, fan speed, and input rail values, and rail-select
// scoped reads for the output rails. Values are stored as raw device
// words, so tests exercise the real decode path.
//
// The zero values of the knobs give a well-behaved device; tests use
// SetFault, Mute, and Delay to script misbehavior.
type Emulator struct {
	mu       sync.Mutex
	handler  ReportHandler
	closed   bool
	selected byte

	name string

	// Direct registers holding big-endian raw values (temperatures in
	// centi-degrees, fan speed in RPM).
	rawBE map[byte]uint16

	// Direct registers holding linear-encoded words (input voltage and
	// input power).
	direct map[byte]uint16

	// Rail-scoped registers holding one linear word per selectable
	// rail index 0-2 (+12V, +5V, +3.3V).
	scoped map[byte][3]uint16

	// faults maps a register to a forced response status.
	faults map[byte]wire.Status

	// Mute drops all replies, simulating a device that never answers.
	Mute bool

	// Delay postpones each reply, simulating a slow device.
	Delay time.Duration
}

// NewEmulator creates an emulated PSU with plausible idle readings.
func NewEmulator() *Emulator {
	return &Emulator{
		name: "HX850i",
		rawBE: map[byte]uint16{
			wire.RegTemperature0: 4150, // 41.50 degrees C
			wire.RegTemperature1: 3425,
			wire.RegFanSpeed:     842,
		},
		direct: map[byte]uint16{
			wire.RegInputVoltage: 0x00E6, // 230 V
			wire.RegInputPower:   0x014E, // 334 W
		},
		scoped: map[byte][3]uint16{
			wire.RegRailVoltage: {0xD2F8, 0xD140, 0xD0D4}, // 11.875 V, 5.0 V, 3.3125 V
			wire.RegRailCurrent: {0xF050, 0xF01E, 0xF00A}, // 20 A, 7.5 A, 2.5 A
			wire.RegRailPower:   {0x00F0, 0x0026, 0x0008}, // 240 W, 38 W, 8 W
		},
		faults: make(map[byte]wire.Status),
	}
}

// SetName changes the device display name the name register reports.
func (e *Emulator) SetName(name string) {
	e.mu.Lock()
	e.name = name
	e.mu.Unlock()
}

// SetFault forces reads and writes of a register to answer with the
// given status. StatusSuccess clears the fault.
func (e *Emulator) SetFault(reg byte, status wire.Status) {
	e.mu.Lock()
	if status.IsSuccess() {
		delete(e.faults, reg)
	} else {
		e.faults[reg] = status
	}
	e.mu.Unlock()
}

// SetWord overwrites the linear word behind a direct register.
func (e *Emulator) SetWord(reg byte, word uint16) {
	e.mu.Lock()
	e.direct[reg] = word
	e.mu.Unlock()
}

// SetRailWord overwrites the linear word behind a rail-scoped register
// for one rail index (0-2).
func (e *Emulator) SetRailWord(reg byte, rail int, word uint16) {
	e.mu.Lock()
	words := e.scoped[reg]
	words[rail] = word
	e.scoped[reg] = words
	e.mu.Unlock()
}

// SetRaw overwrites the big-endian raw value behind a register.
func (e *Emulator) SetRaw(reg byte, value uint16) {
	e.mu.Lock()
	e.rawBE[reg] = value
	e.mu.Unlock()
}

// SetHandler implements Port.
func (e *Emulator) SetHandler(h ReportHandler) {
	e.mu.Lock()
	e.handler = h
	e.mu.Unlock()
}

// Close implements Port.
func (e *Emulator) Close() error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	return nil
}

// Send implements Port: it interprets the command frame and delivers
// the device's reply through the report handler.
func (e *Emulator) Send(frame []byte) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrPortClosed
	}
	reply := e.respond(frame)
	handler := e.handler
	mute := e.Mute
	delay := e.Delay
	e.mu.Unlock()

	if mute || handler == nil {
		return nil
	}
	if delay > 0 {
		time.AfterFunc(delay, func() { handler.HandleReport(reply) })
		return nil
	}
	handler.HandleReport(reply)
	return nil
}

// respond builds the reply frame for one command. Caller holds e.mu.
func (e *Emulator) respond(frame []byte) []byte {
	reply := make([]byte, wire.FrameSize)
	if len(frame) < 2 {
		reply[0] = byte(wire.StatusUnsupported)
		return reply
	}
	op, reg := frame[0], frame[1]
	reply[1] = reg

	if st, ok := e.faults[reg]; ok {
		reply[0] = byte(st)
		return reply
	}

	switch op {
	case wire.OpWriteRegister:
		if reg != wire.RegRailSelect {
			reply[0] = byte(wire.StatusUnsupported)
			return reply
		}
		if len(frame) < 3 {
			reply[0] = byte(wire.StatusInvalidArgument)
			return reply
		}
		e.selected = frame[2]
		reply[2] = frame[2]
		return reply

	case wire.OpReadRegister:
		if reg == wire.RegDeviceName {
			copy(reply[2:2+wire.NameLength], e.name)
			return reply
		}
		if v, ok := e.rawBE[reg]; ok {
			reply[2] = byte(v >> 8)
			reply[3] = byte(v)
			return reply
		}
		if w, ok := e.direct[reg]; ok {
			reply[2] = byte(w)
			reply[3] = byte(w >> 8)
			return reply
		}
		if words, ok := e.scoped[reg]; ok {
			if int(e.selected) >= len(words) {
				reply[0] = byte(wire.StatusInvalidArgument)
				return reply
			}
			w := words[e.selected]
			reply[2] = byte(w)
			reply[3] = byte(w >> 8)
			return reply
		}
		reply[0] = byte(wire.StatusUnsupported)
		return reply

	default:
		reply[0] = byte(wire.StatusUnsupported)
		return reply
	}
}

// Selected returns the rail index the last rail-select write stored.
func (e *Emulator) Selected() byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selected
}
