package sensor

import (
	"context"
	"errors"
	"fmt"

	"github.com/clink-protocol/clink-go/pkg/linear"
	"github.com/clink-protocol/clink-go/pkg/session"
	"github.com/clink-protocol/clink-go/pkg/wire"
)

// ErrChannelRange indicates a probe or rail index outside the device's
// channel map. It is detected host-side; no frame is transmitted.
var ErrChannelRange = errors.New("channel index out of range")

// Rail identifies a voltage or power channel.
type Rail int

const (
	// RailInput is the mains input side of the supply.
	RailInput Rail = iota
	// Rail12V is the +12V output rail.
	Rail12V
	// Rail5V is the +5V output rail.
	Rail5V
	// Rail3V3 is the +3.3V output rail.
	Rail3V3

	railCount
)

// String returns the rail's display label.
func (r Rail) String() string {
	switch r {
	case RailInput:
		return "Power supply"
	case Rail12V:
		return "+12V"
	case Rail5V:
		return "+5V"
	case Rail3V3:
		return "+3.3V"
	default:
		return fmt.Sprintf("Rail(%d)", int(r))
	}
}

// Conn is the slice of the session a sensor client needs. Satisfied by
// *session.Session.
type Conn interface {
	Roundtrip(ctx context.Context, cmd wire.Command) (wire.Response, error)
	Do(ctx context.Context, fn func(tx *session.Tx) error) error
}

// Client reads measurements over one device session.
type Client struct {
	conn Conn
}

// NewClient wraps a session in a sensor client.
func NewClient(conn Conn) *Client {
	return &Client{conn: conn}
}

// Temperature reads probe 0 or 1 and returns centidegrees Celsius.
func (c *Client) Temperature(ctx context.Context, probe int) (int, error) {
	var reg byte
	switch probe {
	case 0:
		reg = wire.RegTemperature0
	case 1:
		reg = wire.RegTemperature1
	default:
		return 0, fmt.Errorf("temperature probe %d: %w", probe, ErrChannelRange)
	}
	resp, err := c.readDirect(ctx, reg)
	if err != nil {
		return 0, err
	}
	return int(resp.Uint16BE(2)), nil
}

// FanSpeed reads the PSU fan speed in RPM.
func (c *Client) FanSpeed(ctx context.Context) (int, error) {
	resp, err := c.readDirect(ctx, wire.RegFanSpeed)
	if err != nil {
		return 0, err
	}
	return int(resp.Uint16BE(2)), nil
}

// Voltage returns millivolts for a rail. RailInput reads the mains
// voltage register directly; output rails go through a rail-select
// transaction.
func (c *Client) Voltage(ctx context.Context, rail Rail) (int, error) {
	if rail < RailInput || rail >= railCount {
		return 0, fmt.Errorf("voltage rail %d: %w", int(rail), ErrChannelRange)
	}
	var resp wire.Response
	var err error
	if rail == RailInput {
		resp, err = c.readDirect(ctx, wire.RegInputVoltage)
	} else {
		resp, err = c.readScoped(ctx, byte(rail-1), wire.RegRailVoltage)
	}
	if err != nil {
		return 0, err
	}
	return linear.Decode(resp.DeviceWord(2)), nil
}

// Current returns milliamps for an output rail probe 0-2 (+12V, +5V,
// +3.3V). There is no input-side current probe; the index is the rail
// selection itself.
func (c *Client) Current(ctx context.Context, probe int) (int, error) {
	if probe < 0 || probe > 2 {
		return 0, fmt.Errorf("current probe %d: %w", probe, ErrChannelRange)
	}
	resp, err := c.readScoped(ctx, byte(probe), wire.RegRailCurrent)
	if err != nil {
		return 0, err
	}
	return linear.Decode(resp.DeviceWord(2)), nil
}

// Power returns microwatts for a rail. RailInput reads total input
// power directly; output rails go through a rail-select transaction.
// The device word decodes to milliwatts and is scaled up to match the
// microwatt convention of power readings.
func (c *Client) Power(ctx context.Context, rail Rail) (int, error) {
	if rail < RailInput || rail >= railCount {
		return 0, fmt.Errorf("power rail %d: %w", int(rail), ErrChannelRange)
	}
	var resp wire.Response
	var err error
	if rail == RailInput {
		resp, err = c.readDirect(ctx, wire.RegInputPower)
	} else {
		resp, err = c.readScoped(ctx, byte(rail-1), wire.RegRailPower)
	}
	if err != nil {
		return 0, err
	}
	return linear.Decode(resp.DeviceWord(2)) * 1000, nil
}

// readDirect reads one register and maps the device status to an error
// before the caller touches the payload.
func (c *Client) readDirect(ctx context.Context, reg byte) (wire.Response, error) {
	resp, err := c.conn.Roundtrip(ctx, wire.ReadRegister(reg))
	if err != nil {
		return resp, err
	}
	if err := resp.Status().Err(); err != nil {
		return resp, err
	}
	return resp, nil
}

// readScoped selects a rail and reads one register in a single
// transaction. A failed selection aborts the transaction; the read is
// never issued against a stale selection.
func (c *Client) readScoped(ctx context.Context, sel, reg byte) (wire.Response, error) {
	var resp wire.Response
	err := c.conn.Do(ctx, func(tx *session.Tx) error {
		selResp, err := tx.Roundtrip(ctx, wire.WriteRegister(wire.RegRailSelect, sel))
		if err != nil {
			return fmt.Errorf("selecting rail %d: %w", sel, err)
		}
		if err := selResp.Status().Err(); err != nil {
			return fmt.Errorf("selecting rail %d: %w", sel, err)
		}
		resp, err = tx.Roundtrip(ctx, wire.ReadRegister(reg))
		if err != nil {
			return err
		}
		return resp.Status().Err()
	})
	return resp, err
}
