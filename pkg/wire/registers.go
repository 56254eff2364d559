package wire

// FrameSize is the fixed size of every command and response frame.
const FrameSize = 64

// NameLength is the length of the device name field in a name response.
const NameLength = 16

// Operation codes (byte 0 of a command frame).
const (
	// OpWriteRegister writes a register value.
	OpWriteRegister byte = 0x02

	// OpReadRegister reads a register value.
	OpReadRegister byte = 0x03
)

// Register addresses (byte 1 of a command frame).
const (
	// RegRailSelect scopes subsequent rail-specific reads to one rail.
	// Written with OpWriteRegister; the selection is device-side state.
	RegRailSelect byte = 0x00

	// RegTemperature0 and RegTemperature1 are the two temperature probes.
	RegTemperature0 byte = 0x8D
	RegTemperature1 byte = 0x8E

	// RegInputVoltage reads the mains input voltage directly, without a
	// rail-select step.
	RegInputVoltage byte = 0x88

	// RegRailVoltage reads the voltage of the currently selected rail.
	RegRailVoltage byte = 0x8B

	// RegRailCurrent reads the current of the currently selected rail.
	RegRailCurrent byte = 0x8C

	// RegFanSpeed reads the PSU fan speed.
	RegFanSpeed byte = 0x90

	// RegRailPower reads the power of the currently selected rail.
	RegRailPower byte = 0x96

	// RegInputPower reads total input power directly.
	RegInputPower byte = 0xEE

	// RegDeviceName reads the device's display name.
	RegDeviceName byte = 0xFE
)
