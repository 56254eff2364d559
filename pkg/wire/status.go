package wire

import "fmt"

// Status is the code the device places in byte 0 of every response.
type Status uint8

const (
	// StatusSuccess indicates the command completed successfully.
	StatusSuccess Status = 0x00

	// StatusUnsupported indicates the device does not implement the
	// requested command.
	StatusUnsupported Status = 0x01

	// StatusInvalidArgument indicates a bad argument, such as a rail or
	// probe index out of range.
	StatusInvalidArgument Status = 0x10

	// StatusNoSensorData indicates the sensor is not physically
	// connected.
	StatusNoSensorData Status = 0x11

	// StatusNotControlled indicates the channel is not under the
	// requested control mode.
	StatusNotControlled Status = 0x12
)

// Class groups status codes into the caller-facing error categories.
type Class uint8

const (
	// ClassSuccess is the single non-error class.
	ClassSuccess Class = iota

	// ClassUnsupported covers commands the device rejects as unknown.
	ClassUnsupported

	// ClassInvalidArgument covers out-of-range arguments.
	ClassInvalidArgument

	// ClassNoData covers sensors that cannot currently answer.
	ClassNoData

	// ClassUnknown covers every status byte the protocol does not
	// define. Unknown codes are never a crash, always this class.
	ClassUnknown
)

// Class maps the status byte to its error class. The mapping is total:
// every byte value 0x00-0xFF maps to exactly one class.
func (s Status) Class() Class {
	switch s {
	case StatusSuccess:
		return ClassSuccess
	case StatusUnsupported:
		return ClassUnsupported
	case StatusInvalidArgument:
		return ClassInvalidArgument
	case StatusNoSensorData, StatusNotControlled:
		return ClassNoData
	default:
		return ClassUnknown
	}
}

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusUnsupported:
		return "UNSUPPORTED"
	case StatusInvalidArgument:
		return "INVALID_ARGUMENT"
	case StatusNoSensorData:
		return "NO_SENSOR_DATA"
	case StatusNotControlled:
		return "NOT_CONTROLLED"
	default:
		return fmt.Sprintf("UNKNOWN(0x%02X)", uint8(s))
	}
}

// String returns the class name.
func (c Class) String() string {
	switch c {
	case ClassSuccess:
		return "SUCCESS"
	case ClassUnsupported:
		return "UNSUPPORTED"
	case ClassInvalidArgument:
		return "INVALID_ARGUMENT"
	case ClassNoData:
		return "NO_DATA"
	case ClassUnknown:
		return "UNKNOWN"
	default:
		return "INVALID"
	}
}

// IsSuccess returns true if the status indicates success.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess
}

// Err returns nil for a success status and a *StatusError otherwise.
func (s Status) Err() error {
	if s.IsSuccess() {
		return nil
	}
	return &StatusError{Status: s}
}

// StatusError is a device-reported rejection. It is not retriable
// without changing the request; retry policy belongs to the caller.
type StatusError struct {
	Status Status
}

// Error implements error.
func (e *StatusError) Error() string {
	return fmt.Sprintf("device status %s", e.Status)
}

// Class returns the error class of the underlying status.
func (e *StatusError) Class() Class {
	return e.Status.Class()
}
