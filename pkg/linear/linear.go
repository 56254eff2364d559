package linear

// Field layout of the 16-bit device word.
const (
	mantissaBits = 11
	mantissaMask = 1<<mantissaBits - 1 // low 11 bits

	// Two's-complement pivots for each field width.
	mantissaPivot = 1 << (mantissaBits - 1) // 1024
	mantissaWrap  = 1 << mantissaBits       // 2048
	exponentPivot = 16
	exponentWrap  = 32
)

// Word assembles the device word from the two payload bytes of a
// response frame. The device always sends the low-order byte first;
// this is fixed by the protocol, not by host endianness.
func Word(lo, hi byte) uint16 {
	return uint16(hi)<<8 | uint16(lo)
}

// Decode converts a device word into a signed milli-unit integer
// (millivolts, milliamps, or the power base unit before the caller's
// own scaling).
//
// Decode is a pure function: same input, same output, no side effects.
func Decode(word uint16) int {
	mantissa := int(word & mantissaMask)
	exponent := int(word >> mantissaBits)

	if mantissa >= mantissaPivot {
		mantissa -= mantissaWrap
	}
	// Device-private rule: round an odd mantissa up to the next even
	// value before applying the exponent.
	if mantissa&1 == 1 {
		mantissa++
	}
	if exponent >= exponentPivot {
		exponent -= exponentWrap
	}

	value := mantissa * 1000
	if exponent >= 0 {
		return value << uint(exponent)
	}
	// Go integer division truncates toward zero, which is the required
	// behavior for negative mantissas.
	return value / (1 << uint(-exponent))
}
