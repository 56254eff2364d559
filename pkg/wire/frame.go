package wire

// Command is one staged command frame: an opcode, a register (or first
// argument), and up to two further argument bytes.
type Command struct {
	Op   byte
	Reg  byte
	Args []byte
}

// ReadRegister builds a single-register read command.
func ReadRegister(reg byte) Command {
	return Command{Op: OpReadRegister, Reg: reg}
}

// WriteRegister builds a register write command with one argument byte.
func WriteRegister(reg, arg byte) Command {
	return Command{Op: OpWriteRegister, Reg: reg, Args: []byte{arg}}
}

// Builder composes command frames into a fixed 64-byte buffer using a
// cursor. The buffer is reused across frames: Reset rewinds the cursor
// and clears the padding, then fields are appended in order.
//
// Appending past the frame capacity never writes out of bounds; the
// extra bytes are dropped and the overflow is latched so a malformed
// frame can be detected before transmission.
//
// Builder is not safe for concurrent use; the owning session serializes
// access to it.
type Builder struct {
	buf      [FrameSize]byte
	cursor   int
	overflow bool
}

// Reset rewinds the cursor to the start of the frame and zeroes the
// buffer. Idempotent; called before composing each new frame.
func (b *Builder) Reset() {
	b.buf = [FrameSize]byte{}
	b.cursor = 0
	b.overflow = false
}

// AppendByte writes one byte at the cursor and advances it.
func (b *Builder) AppendByte(v byte) {
	if b.cursor >= FrameSize {
		b.overflow = true
		return
	}
	b.buf[b.cursor] = v
	b.cursor++
}

// AppendRegister appends an opcode and a register address.
func (b *Builder) AppendRegister(op, reg byte) {
	b.AppendByte(op)
	b.AppendByte(reg)
}

// AppendRegisterArg appends an opcode, a register address, and one
// argument byte.
func (b *Builder) AppendRegisterArg(op, reg, arg byte) {
	b.AppendRegister(op, reg)
	b.AppendByte(arg)
}

// AppendCommand stages a complete Command.
func (b *Builder) AppendCommand(cmd Command) {
	b.AppendRegister(cmd.Op, cmd.Reg)
	for _, a := range cmd.Args {
		b.AppendByte(a)
	}
}

// Len returns the cursor position: the number of meaningful bytes
// staged so far.
func (b *Builder) Len() int {
	return b.cursor
}

// Overflowed reports whether an append was dropped because the frame
// was full.
func (b *Builder) Overflowed() bool {
	return b.overflow
}

// Bytes returns the full zero-padded frame for transmission. The slice
// aliases the builder's buffer and is only valid until the next Reset.
func (b *Builder) Bytes() []byte {
	return b.buf[:]
}
