package transport

import (
	"errors"
	"testing"
	"time"

	"github.com/clink-protocol/clink-go/pkg/wire"
)

// exchange sends one command frame and returns the emulator's reply.
func exchange(t *testing.T, e *Emulator, cmd ...byte) wire.Response {
	t.Helper()
	var resp wire.Response
	got := false
	e.SetHandler(ReportHandlerFunc(func(data []byte) {
		resp = wire.NewResponse(data)
		got = true
	}))
	frame := make([]byte, wire.FrameSize)
	copy(frame, cmd)
	if err := e.Send(frame); err != nil {
		t.Fatalf("Send(% x) error: %v", cmd, err)
	}
	if !got {
		t.Fatalf("Send(% x) produced no reply", cmd)
	}
	return resp
}

func TestEmulator_NameRead(t *testing.T) {
	e := NewEmulator()
	resp := exchange(t, e, wire.OpReadRegister, wire.RegDeviceName)

	if !resp.Status().IsSuccess() {
		t.Fatalf("status = %v", resp.Status())
	}
	if resp.Byte(1) != wire.RegDeviceName {
		t.Errorf("echoed register = %#02x", resp.Byte(1))
	}
	name := string(resp.Payload()[1:7])
	if name != "HX850i" {
		t.Errorf("name = %q, want HX850i", name)
	}
}

func TestEmulator_DirectReads(t *testing.T) {
	e := NewEmulator()

	tests := []struct {
		reg  byte
		be   bool
		want uint16
	}{
		{wire.RegTemperature0, true, 4150},
		{wire.RegTemperature1, true, 3425},
		{wire.RegFanSpeed, true, 842},
		{wire.RegInputVoltage, false, 0x00E6},
		{wire.RegInputPower, false, 0x014E},
	}

	for _, tt := range tests {
		resp := exchange(t, e, wire.OpReadRegister, tt.reg)
		if !resp.Status().IsSuccess() {
			t.Errorf("reg %#02x: status = %v", tt.reg, resp.Status())
			continue
		}
		var got uint16
		if tt.be {
			got = resp.Uint16BE(2)
		} else {
			got = resp.DeviceWord(2)
		}
		if got != tt.want {
			t.Errorf("reg %#02x: value = %#04x, want %#04x", tt.reg, got, tt.want)
		}
	}
}

func TestEmulator_RailSelectScopesReads(t *testing.T) {
	e := NewEmulator()

	wantVolts := []uint16{0xD2F8, 0xD140, 0xD0D4}
	for rail := byte(0); rail < 3; rail++ {
		sel := exchange(t, e, wire.OpWriteRegister, wire.RegRailSelect, rail)
		if !sel.Status().IsSuccess() {
			t.Fatalf("rail select %d: status = %v", rail, sel.Status())
		}
		if e.Selected() != rail {
			t.Fatalf("Selected() = %d after selecting %d", e.Selected(), rail)
		}

		resp := exchange(t, e, wire.OpReadRegister, wire.RegRailVoltage)
		if got := resp.DeviceWord(2); got != wantVolts[rail] {
			t.Errorf("rail %d voltage word = %#04x, want %#04x", rail, got, wantVolts[rail])
		}
	}
}

func TestEmulator_SelectOutOfRange(t *testing.T) {
	e := NewEmulator()

	exchange(t, e, wire.OpWriteRegister, wire.RegRailSelect, 5)
	resp := exchange(t, e, wire.OpReadRegister, wire.RegRailCurrent)
	if resp.Status() != wire.StatusInvalidArgument {
		t.Errorf("status = %v, want INVALID_ARGUMENT", resp.Status())
	}
}

func TestEmulator_Faults(t *testing.T) {
	e := NewEmulator()
	e.SetFault(wire.RegTemperature1, wire.StatusNoSensorData)

	resp := exchange(t, e, wire.OpReadRegister, wire.RegTemperature1)
	if resp.Status() != wire.StatusNoSensorData {
		t.Fatalf("status = %v, want NO_SENSOR_DATA", resp.Status())
	}

	e.SetFault(wire.RegTemperature1, wire.StatusSuccess)
	resp = exchange(t, e, wire.OpReadRegister, wire.RegTemperature1)
	if !resp.Status().IsSuccess() {
		t.Fatalf("status after clearing fault = %v", resp.Status())
	}
}

func TestEmulator_UnknownRegister(t *testing.T) {
	e := NewEmulator()
	resp := exchange(t, e, wire.OpReadRegister, 0x42)
	if resp.Status() != wire.StatusUnsupported {
		t.Errorf("status = %v, want UNSUPPORTED", resp.Status())
	}
}

func TestEmulator_WriteToReadOnlyRegister(t *testing.T) {
	e := NewEmulator()
	resp := exchange(t, e, wire.OpWriteRegister, wire.RegFanSpeed, 1)
	if resp.Status() != wire.StatusUnsupported {
		t.Errorf("status = %v, want UNSUPPORTED", resp.Status())
	}
}

func TestEmulator_Mute(t *testing.T) {
	e := NewEmulator()
	e.Mute = true

	delivered := false
	e.SetHandler(ReportHandlerFunc(func([]byte) { delivered = true }))

	frame := make([]byte, wire.FrameSize)
	frame[0] = wire.OpReadRegister
	frame[1] = wire.RegFanSpeed
	if err := e.Send(frame); err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	if delivered {
		t.Error("muted emulator delivered a reply")
	}
}

func TestEmulator_DelayedReply(t *testing.T) {
	e := NewEmulator()
	e.Delay = 5 * time.Millisecond

	done := make(chan struct{})
	e.SetHandler(ReportHandlerFunc(func([]byte) { close(done) }))

	frame := make([]byte, wire.FrameSize)
	frame[0] = wire.OpReadRegister
	frame[1] = wire.RegFanSpeed
	if err := e.Send(frame); err != nil {
		t.Fatalf("Send() error: %v", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("delayed reply never arrived")
	}
}

func TestEmulator_Closed(t *testing.T) {
	e := NewEmulator()
	if err := e.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if err := e.Send(make([]byte, wire.FrameSize)); !errors.Is(err, ErrPortClosed) {
		t.Fatalf("Send() on closed emulator = %v, want ErrPortClosed", err)
	}
}
