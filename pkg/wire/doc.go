// Package wire defines the fixed-size command/response frame format of
// the Corsair Link PSU protocol: the cursor-based frame builder, the
// opcode and register constants, the response view, and the status byte
// taxonomy.
//
// Every exchange with the device is one 64-byte frame in each direction.
// A command frame carries the opcode in byte 0 and up to three argument
// bytes; the rest is zero padding. A response frame carries the status
// code in byte 0 and the payload in bytes 1-3. The transport delivers
// responses without any correlation identifier, so frame layout and
// strict request ordering are all the receiver has to go on.
package wire
