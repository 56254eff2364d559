package sensor

import (
	"context"
	"errors"
	"testing"

	"github.com/clink-protocol/clink-go/pkg/session"
	"github.com/clink-protocol/clink-go/pkg/transport"
	"github.com/clink-protocol/clink-go/pkg/wire"
)

func emulatedClient(t *testing.T) (*Client, *transport.Emulator) {
	t.Helper()
	em := transport.NewEmulator()
	s, err := session.Attach(context.Background(), em)
	if err != nil {
		t.Fatalf("Attach() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return NewClient(s), em
}

func TestTemperature(t *testing.T) {
	c, _ := emulatedClient(t)

	got, err := c.Temperature(context.Background(), 0)
	if err != nil {
		t.Fatalf("Temperature(0) error: %v", err)
	}
	if got != 4150 {
		t.Errorf("Temperature(0) = %d, want 4150", got)
	}

	got, err = c.Temperature(context.Background(), 1)
	if err != nil {
		t.Fatalf("Temperature(1) error: %v", err)
	}
	if got != 3425 {
		t.Errorf("Temperature(1) = %d, want 3425", got)
	}

	if _, err := c.Temperature(context.Background(), 2); !errors.Is(err, ErrChannelRange) {
		t.Errorf("Temperature(2) error = %v, want ErrChannelRange", err)
	}
}

func TestFanSpeed(t *testing.T) {
	c, _ := emulatedClient(t)

	got, err := c.FanSpeed(context.Background())
	if err != nil {
		t.Fatalf("FanSpeed() error: %v", err)
	}
	if got != 842 {
		t.Errorf("FanSpeed() = %d, want 842", got)
	}
}

func TestVoltage(t *testing.T) {
	c, _ := emulatedClient(t)

	tests := []struct {
		rail Rail
		want int
	}{
		{RailInput, 230000},
		{Rail12V, 11875},
		{Rail5V, 5000},
		{Rail3V3, 3312},
	}
	for _, tt := range tests {
		got, err := c.Voltage(context.Background(), tt.rail)
		if err != nil {
			t.Errorf("Voltage(%v) error: %v", tt.rail, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Voltage(%v) = %d mV, want %d", tt.rail, got, tt.want)
		}
	}

	if _, err := c.Voltage(context.Background(), Rail(7)); !errors.Is(err, ErrChannelRange) {
		t.Errorf("Voltage(7) error = %v, want ErrChannelRange", err)
	}
}

func TestCurrent(t *testing.T) {
	c, _ := emulatedClient(t)

	want := []int{20000, 7500, 2500}
	for probe, w := range want {
		got, err := c.Current(context.Background(), probe)
		if err != nil {
			t.Errorf("Current(%d) error: %v", probe, err)
			continue
		}
		if got != w {
			t.Errorf("Current(%d) = %d mA, want %d", probe, got, w)
		}
	}

	if _, err := c.Current(context.Background(), 3); !errors.Is(err, ErrChannelRange) {
		t.Errorf("Current(3) error = %v, want ErrChannelRange", err)
	}
}

func TestPower(t *testing.T) {
	c, _ := emulatedClient(t)

	tests := []struct {
		rail Rail
		want int
	}{
		{RailInput, 334000000},
		{Rail12V, 240000000},
		{Rail5V, 38000000},
		{Rail3V3, 8000000},
	}
	for _, tt := range tests {
		got, err := c.Power(context.Background(), tt.rail)
		if err != nil {
			t.Errorf("Power(%v) error: %v", tt.rail, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Power(%v) = %d uW, want %d", tt.rail, got, tt.want)
		}
	}
}

func TestNoSensorData(t *testing.T) {
	c, em := emulatedClient(t)
	em.SetFault(wire.RegTemperature1, wire.StatusNoSensorData)

	_, err := c.Temperature(context.Background(), 1)
	var se *wire.StatusError
	if !errors.As(err, &se) {
		t.Fatalf("Temperature(1) error = %v, want *wire.StatusError", err)
	}
	if se.Class() != wire.ClassNoData {
		t.Errorf("error class = %v, want NO_DATA", se.Class())
	}
}

func TestSelectFailureAbortsRead(t *testing.T) {
	p := transport.NewPipe()
	p.OnSend = func(frame []byte) {
		reply := make([]byte, wire.FrameSize)
		reply[1] = frame[1]
		switch {
		case frame[0] == wire.OpReadRegister && frame[1] == wire.RegDeviceName:
			copy(reply[2:], "HX850i")
		case frame[0] == wire.OpWriteRegister && frame[1] == wire.RegRailSelect:
			reply[0] = byte(wire.StatusInvalidArgument)
		}
		p.Deliver(reply)
	}

	s, err := session.Attach(context.Background(), p)
	if err != nil {
		t.Fatalf("Attach() error: %v", err)
	}
	defer s.Close()
	c := NewClient(s)

	before := p.SentCount()
	_, err = c.Voltage(context.Background(), Rail12V)
	var se *wire.StatusError
	if !errors.As(err, &se) {
		t.Fatalf("Voltage() error = %v, want *wire.StatusError", err)
	}

	// Only the select frame went out; the voltage read was not issued
	// against the stale selection.
	if got := p.SentCount() - before; got != 1 {
		t.Errorf("%d frames sent after failed select, want 1", got)
	}
}

func TestScopedReadFrameSequence(t *testing.T) {
	p := transport.NewPipe()
	p.OnSend = func(frame []byte) {
		reply := make([]byte, wire.FrameSize)
		reply[1] = frame[1]
		if frame[0] == wire.OpReadRegister && frame[1] == wire.RegDeviceName {
			copy(reply[2:], "HX850i")
		}
		if frame[0] == wire.OpReadRegister && frame[1] == wire.RegRailVoltage {
			reply[2], reply[3] = 0xF8, 0xD2 // 11.875 V
		}
		p.Deliver(reply)
	}

	s, err := session.Attach(context.Background(), p)
	if err != nil {
		t.Fatalf("Attach() error: %v", err)
	}
	defer s.Close()
	c := NewClient(s)

	got, err := c.Voltage(context.Background(), Rail12V)
	if err != nil {
		t.Fatalf("Voltage() error: %v", err)
	}
	if got != 11875 {
		t.Errorf("Voltage() = %d, want 11875", got)
	}

	sent := p.Sent()
	if len(sent) != 3 {
		t.Fatalf("%d frames sent, want 3 (name, select, read)", len(sent))
	}
	sel, read := sent[1], sent[2]
	if sel[0] != wire.OpWriteRegister || sel[1] != wire.RegRailSelect || sel[2] != 0 {
		t.Errorf("select frame starts % x, want 02 00 00", sel[:3])
	}
	if read[0] != wire.OpReadRegister || read[1] != wire.RegRailVoltage {
		t.Errorf("read frame starts % x, want 03 8b", read[:2])
	}
}

// TestInputVoltageDirect walks the documented end-to-end example: a
// channel-0 voltage read goes straight to the input voltage register
// and a payload word of 0x0088 decodes to 136 volts.
func TestInputVoltageDirect(t *testing.T) {
	p := transport.NewPipe()
	p.OnSend = func(frame []byte) {
		reply := make([]byte, wire.FrameSize)
		reply[1] = frame[1]
		if frame[0] == wire.OpReadRegister && frame[1] == wire.RegDeviceName {
			copy(reply[2:], "HX850i")
		}
		if frame[0] == wire.OpReadRegister && frame[1] == wire.RegInputVoltage {
			reply[2], reply[3] = 0x88, 0x00
		}
		p.Deliver(reply)
	}

	s, err := session.Attach(context.Background(), p)
	if err != nil {
		t.Fatalf("Attach() error: %v", err)
	}
	defer s.Close()
	c := NewClient(s)

	before := p.SentCount()
	got, err := c.Voltage(context.Background(), RailInput)
	if err != nil {
		t.Fatalf("Voltage(RailInput) error: %v", err)
	}
	if got != 136000 {
		t.Errorf("Voltage(RailInput) = %d mV, want 136000", got)
	}
	if sent := p.SentCount() - before; sent != 1 {
		t.Errorf("%d frames sent, want 1 (no rail select)", sent)
	}
}

func TestRailString(t *testing.T) {
	want := map[Rail]string{
		RailInput: "Power supply",
		Rail12V:   "+12V",
		Rail5V:    "+5V",
		Rail3V3:   "+3.3V",
	}
	for rail, label := range want {
		if got := rail.String(); got != label {
			t.Errorf("Rail(%d).String() = %q, want %q", int(rail), got, label)
		}
	}
}
