package monitor

import (
	"context"
	"fmt"

	"github.com/clink-protocol/clink-go/pkg/sensor"
)

// Kind is a sensor quantity.
type Kind int

const (
	// KindTemperature is a temperature probe, read in centidegrees
	// Celsius.
	KindTemperature Kind = iota
	// KindFan is a fan tachometer, read in RPM.
	KindFan
	// KindVoltage is a voltage channel, read in millivolts.
	KindVoltage
	// KindCurrent is a current probe, read in milliamps.
	KindCurrent
	// KindPower is a power channel, read in microwatts.
	KindPower
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindTemperature:
		return "temperature"
	case KindFan:
		return "fan"
	case KindVoltage:
		return "voltage"
	case KindCurrent:
		return "current"
	case KindPower:
		return "power"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Format renders a raw reading in display units.
func (k Kind) Format(value int) string {
	switch k {
	case KindTemperature:
		return fmt.Sprintf("%.2f °C", float64(value)/100)
	case KindFan:
		return fmt.Sprintf("%d RPM", value)
	case KindVoltage:
		return fmt.Sprintf("%.3f V", float64(value)/1000)
	case KindCurrent:
		return fmt.Sprintf("%.3f A", float64(value)/1000)
	case KindPower:
		return fmt.Sprintf("%.1f W", float64(value)/1e6)
	default:
		return fmt.Sprintf("%d", value)
	}
}

// Channel is one position in the sensor tree.
type Channel struct {
	Kind  Kind
	Index int
	Label string
}

// String returns "label (kindN)".
func (c Channel) String() string {
	return fmt.Sprintf("%s (%s%d)", c.Label, c.Kind, c.Index)
}

// channels is the fixed tree shared by all supported models.
var channels = []Channel{
	{KindTemperature, 0, "vrm temp"},
	{KindTemperature, 1, "case temp"},
	{KindFan, 0, "psu fan"},
	{KindVoltage, 0, "v_in"},
	{KindVoltage, 1, "v_out +12v"},
	{KindVoltage, 2, "v_out +5v"},
	{KindVoltage, 3, "v_out +3.3v"},
	{KindCurrent, 0, "curr +12v"},
	{KindCurrent, 1, "curr +5v"},
	{KindCurrent, 2, "curr +3.3v"},
	{KindPower, 0, "power in"},
	{KindPower, 1, "power +12v"},
	{KindPower, 2, "power +5v"},
	{KindPower, 3, "power +3.3v"},
}

// Channels returns the full channel tree.
func Channels() []Channel {
	out := make([]Channel, len(channels))
	copy(out, channels)
	return out
}

// Monitor reads the channel tree over one sensor client.
type Monitor struct {
	client *sensor.Client
}

// New creates a monitor over a sensor client.
func New(client *sensor.Client) *Monitor {
	return &Monitor{client: client}
}

// Read reads one channel in its raw integer unit.
func (m *Monitor) Read(ctx context.Context, ch Channel) (int, error) {
	switch ch.Kind {
	case KindTemperature:
		return m.client.Temperature(ctx, ch.Index)
	case KindFan:
		return m.client.FanSpeed(ctx)
	case KindVoltage:
		return m.client.Voltage(ctx, sensor.Rail(ch.Index))
	case KindCurrent:
		return m.client.Current(ctx, ch.Index)
	case KindPower:
		return m.client.Power(ctx, sensor.Rail(ch.Index))
	default:
		return 0, fmt.Errorf("unknown channel kind %d", int(ch.Kind))
	}
}

// Reading is one channel's result from a sweep.
type Reading struct {
	Channel
	Value int
	Err   error
}

// ReadAll sweeps the whole tree. A channel that fails, such as an
// unconnected probe, carries its error in the reading; the sweep
// continues. Only a context cancellation aborts the sweep early.
func (m *Monitor) ReadAll(ctx context.Context) ([]Reading, error) {
	out := make([]Reading, 0, len(channels))
	for _, ch := range channels {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		v, err := m.Read(ctx, ch)
		out = append(out, Reading{Channel: ch, Value: v, Err: err})
	}
	return out, nil
}
