// Package linear decodes the 16-bit fixed-point words the PSU uses for
// voltage, current, and power readings.
//
// The format resembles the PMBus LINEAR11 encoding (11-bit mantissa,
// 5-bit exponent, both two's complement) but carries a device-private
// rounding rule: an odd mantissa is bumped to the next even value before
// scaling. The decode must be reproduced bit for bit; a generic LINEAR11
// implementation gives different results for odd mantissas.
package linear
