package riscv

import (
	"fmt"
	"strings"
)

// Packed encoding bit layout.
const (
	OPCODE_BITS  = 7
	FUNCT3_SHIFT = 7
	FUNCT3_BITS  = 3
	FUNCT7_SHIFT = 10
	FUNCT7_BITS  = 7
	FUNCT2_SHIFT = 10
	FUNCT2_BITS  = 2

	OPCODE_MASK = (1 << OPCODE_BITS) - 1
	FUNCT3_MASK = ((1 << FUNCT3_BITS) - 1) << FUNCT3_SHIFT
	FUNCT7_MASK = ((1 << FUNCT7_BITS) - 1) << FUNCT7_SHIFT
	FUNCT2_MASK = ((1 << FUNCT2_BITS) - 1) << FUNCT2_SHIFT
)

// Encoding is the packed integer that identifies an operation within its
// instruction format.
type Encoding uint32

// Pack builds an R-type encoding.
func Pack(opcode, funct3, funct7 uint32) Encoding {
	return Encoding((opcode & OPCODE_MASK) |
		((funct3 << FUNCT3_SHIFT) & FUNCT3_MASK) |
		((funct7 << FUNCT7_SHIFT) & FUNCT7_MASK))
}

// PackR4 builds an R4-type (3 source register) encoding.
func PackR4(opcode, funct3, funct2 uint32) Encoding {
	return Encoding((opcode & OPCODE_MASK) |
		((funct3 << FUNCT3_SHIFT) & FUNCT3_MASK) |
		((funct2 << FUNCT2_SHIFT) & FUNCT2_MASK))
}

// Opcode returns the base opcode.
func (enc Encoding) Opcode() uint32 {
	return uint32(enc) & OPCODE_MASK
}

// Funct3 returns the 3-bit function selector.
func (enc Encoding) Funct3() uint32 {
	return (uint32(enc) & FUNCT3_MASK) >> FUNCT3_SHIFT
}

// Funct7 returns the 7-bit function selector.
func (enc Encoding) Funct7() uint32 {
	return (uint32(enc) & FUNCT7_MASK) >> FUNCT7_SHIFT
}

// Funct2 returns the 2-bit function selector used by the R4 template.
func (enc Encoding) Funct2() uint32 {
	return (uint32(enc) & FUNCT2_MASK) >> FUNCT2_SHIFT
}

// Selector returns the function selector bits (everything above the
// opcode) as a single value.
func (enc Encoding) Selector() uint32 {
	return uint32(enc) >> OPCODE_BITS
}

// Space returns the custom opcode space of the encoding, if any.
func (enc Encoding) Space() (space Space, ok bool) {
	return SpaceOf(enc.Opcode())
}

// String returns the encoding as opcode/funct fields.
func (enc Encoding) String() string {
	return fmt.Sprintf("opcode=%v funct3=%v funct7=%v",
		Binary(enc.Opcode(), OPCODE_BITS),
		Binary(enc.Funct3(), FUNCT3_BITS),
		Binary(enc.Funct7(), FUNCT7_BITS))
}

// Binary renders the low width bits of value, most significant first.
func Binary(value uint32, width int) string {
	var sb strings.Builder
	for bit := width - 1; bit >= 0; bit-- {
		if value&(1<<bit) != 0 {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// Funct3Str returns funct3 as a TableGen binary literal.
func Funct3Str(enc Encoding) string {
	return "0b" + Binary(enc.Funct3(), FUNCT3_BITS)
}

// Funct7Str returns funct7 as a TableGen binary literal.
func Funct7Str(enc Encoding) string {
	return "0b" + Binary(enc.Funct7(), FUNCT7_BITS)
}

// Funct2Str returns funct2 as a TableGen binary literal.
func Funct2Str(enc Encoding) string {
	return "0b" + Binary(enc.Funct2(), FUNCT2_BITS)
}

// OpcodeStr returns the opcode as a TableGen binary literal.
func OpcodeStr(enc Encoding) string {
	return "0b" + Binary(enc.Opcode(), OPCODE_BITS)
}
