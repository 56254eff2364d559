// Package sensor reads the PSU's measurement registers and converts
// the payloads to integer milli-units.
//
// Input-side quantities (mains voltage, total input power) live behind
// directly readable registers. Output-rail quantities are scoped by a
// device-side rail selection: the client writes the rail index to the
// select register, then reads the quantity register, and the two steps
// run under one session transaction so concurrent readers cannot
// interleave a different selection in between.
//
// The channel argument conventions differ per quantity and mirror the
// device's register map: voltage and power treat channel 0 as the
// mains input and channels 1-3 as rails +12V, +5V, and +3.3V (selected
// as channel-1), while current has no input-side probe and takes the
// rail index 0-2 directly.
package sensor
