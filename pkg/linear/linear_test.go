package linear

import (
	"testing"
)

func TestDecode_KnownVectors(t *testing.T) {
	tests := []struct {
		name string
		word uint16
		want int
	}{
		{"zero", 0x0000, 0},
		// Mantissa 1 is odd and rounds up to 2 before scaling.
		{"mantissa one rounds to two", 0x0001, 2000},
		{"mantissa two", 0x0002, 2000},
		{"mantissa three rounds to four", 0x0003, 4000},
		// 1024 is the negative boundary: 1024 - 2048 = -1024.
		{"negative boundary", 0x0400, -1024000},
		{"minus two", 0x07FE, -2000},
		// Odd negative mantissa also rounds up: -3 -> -2.
		{"minus three rounds to minus two", 0x07FD, -2000},
		// Exponent 1 doubles: 10 * 1000 * 2.
		{"positive exponent", 0x080A, 20000},
		// Exponent -1 (31 in the field) halves: 10 * 1000 / 2.
		{"negative exponent", 0xF80A, 5000},
		// Negative mantissa with negative exponent truncates toward zero:
		// -10 * 1000 / 4 = -2500.
		{"negative mantissa negative exponent", 0xF7F6, -2500},
		// Largest positive: 1022 * 1000 * 2^15.
		{"max positive", 0x7BFE, 1022 * 1000 * 32768},
		// Typical +12V rail reading: mantissa 760, exponent -6 ->
		// 760 * 1000 / 64 = 11875 mV.
		{"typical rail voltage", 0xD2F8, 11875},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decode(tt.word); got != tt.want {
				t.Errorf("Decode(0x%04X) = %d, want %d", tt.word, got, tt.want)
			}
		})
	}
}

func TestDecode_Deterministic(t *testing.T) {
	// Decode is pure: every 16-bit input decodes the same way twice and
	// never panics.
	for w := 0; w <= 0xFFFF; w++ {
		first := Decode(uint16(w))
		second := Decode(uint16(w))
		if first != second {
			t.Fatalf("Decode(0x%04X) not deterministic: %d then %d", w, first, second)
		}
	}
}

func TestDecode_EvenMantissaAfterRounding(t *testing.T) {
	// After the round-up rule, the effective mantissa is always even, so
	// every decoded value at exponent 0 is a multiple of 2000.
	for m := 0; m < 2048; m++ {
		v := Decode(uint16(m))
		if v%2000 != 0 {
			t.Fatalf("Decode(%#x) = %d, not a multiple of 2000", m, v)
		}
	}
}

func TestWord(t *testing.T) {
	tests := []struct {
		lo, hi byte
		want   uint16
	}{
		{0x00, 0x00, 0x0000},
		{0x88, 0x00, 0x0088},
		{0x34, 0x12, 0x1234},
		{0xFF, 0xFF, 0xFFFF},
	}

	for _, tt := range tests {
		if got := Word(tt.lo, tt.hi); got != tt.want {
			t.Errorf("Word(0x%02X, 0x%02X) = 0x%04X, want 0x%04X", tt.lo, tt.hi, got, tt.want)
		}
	}
}
