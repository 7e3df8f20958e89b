package riscv

import (
	"fmt"
)

// Word is a raw 32-bit RISC-V instruction word.
type Word uint32

// Register number of a general purpose register.
type Register uint32

// Opcode returns the base opcode, bits 0-6.
func (w Word) Opcode() uint32 {
	return uint32(w) & OPCODE_MASK
}

// Rd returns the destination register, bits 7-11.
func (w Word) Rd() Register {
	return Register((uint32(w) >> 7) & 0x1f)
}

// Funct3 returns bits 12-14.
func (w Word) Funct3() uint32 {
	return (uint32(w) >> 12) & 0x7
}

// Rs1 returns the first source register, bits 15-19.
func (w Word) Rs1() Register {
	return Register((uint32(w) >> 15) & 0x1f)
}

// Rs2 returns the second source register, bits 20-24.
func (w Word) Rs2() Register {
	return Register((uint32(w) >> 20) & 0x1f)
}

// Funct7 returns bits 25-31.
func (w Word) Funct7() uint32 {
	return (uint32(w) >> 25) & 0x7f
}

// Funct2 returns bits 25-26.
func (w Word) Funct2() uint32 {
	return (uint32(w) >> 25) & 0x3
}

// Rs3 returns the third source register of an R4 word, bits 27-31.
func (w Word) Rs3() Register {
	return Register((uint32(w) >> 27) & 0x1f)
}

// Fields of a decoded word.
type Fields struct {
	Opcode uint32
	Funct3 uint32
	Funct7 uint32
	Funct2 uint32
	Rd     Register
	Rs1    Register
	Rs2    Register
	Rs3    Register
}

// Decode extracts all of the word's fields.
func (w Word) Decode() Fields {
	return Fields{
		Opcode: w.Opcode(),
		Funct3: w.Funct3(),
		Funct7: w.Funct7(),
		Funct2: w.Funct2(),
		Rd:     w.Rd(),
		Rs1:    w.Rs1(),
		Rs2:    w.Rs2(),
		Rs3:    w.Rs3(),
	}
}

// Matches reports whether the word carries the selector of enc.
//
// For the custom-1 space only funct2 is compared, as the rest of the funct7
// bits hold rs3.
func (w Word) Matches(enc Encoding) bool {
	if w.Opcode() != enc.Opcode() || w.Funct3() != enc.Funct3() {
		return false
	}
	if enc.Opcode() == OPC_CUSTOM_1 {
		return w.Funct2() == enc.Funct2()
	}
	return w.Funct7() == enc.Funct7()
}

// MakeWordR builds an R-type word.
func MakeWordR(enc Encoding, rd, rs1, rs2 Register) Word {
	return Word((enc.Funct7() << 25) |
		((uint32(rs2) & 0x1f) << 20) |
		((uint32(rs1) & 0x1f) << 15) |
		(enc.Funct3() << 12) |
		((uint32(rd) & 0x1f) << 7) |
		enc.Opcode())
}

// MakeWordR4 builds an R4-type word.
func MakeWordR4(enc Encoding, rd, rs1, rs2, rs3 Register) Word {
	return Word(((uint32(rs3) & 0x1f) << 27) |
		(enc.Funct2() << 25) |
		((uint32(rs2) & 0x1f) << 20) |
		((uint32(rs1) & 0x1f) << 15) |
		(enc.Funct3() << 12) |
		((uint32(rd) & 0x1f) << 7) |
		enc.Opcode())
}

// MakeWordI builds an I-type word. Only the low 12 bits of imm are kept.
func MakeWordI(enc Encoding, rd, rs1 Register, imm int32) Word {
	return Word((uint32(imm&0xfff) << 20) |
		((uint32(rs1) & 0x1f) << 15) |
		(enc.Funct3() << 12) |
		((uint32(rd) & 0x1f) << 7) |
		enc.Opcode())
}

// MakeWordU builds a U-type word from the upper 20 bits of a value.
func MakeWordU(enc Encoding, rd Register, imm20 uint32) Word {
	return Word(((imm20 & 0xfffff) << 12) |
		((uint32(rd) & 0x1f) << 7) |
		enc.Opcode())
}

// ImmI returns the sign-extended I-type immediate, bits 20-31.
func (w Word) ImmI() int32 {
	return int32(w) >> 20
}

// ImmU returns the U-type immediate in place, bits 12-31.
func (w Word) ImmU() uint32 {
	return uint32(w) &^ 0xfff
}

// SplitImmediate splits a 32-bit value into the lui and addi immediates
// that rebuild it.
func SplitImmediate(value int32) (hi20 uint32, lo12 int32) {
	lo12 = (value << 20) >> 20
	hi20 = (uint32(value) - uint32(lo12)) >> 12
	return
}

// String returns the word in hex.
func (w Word) String() string {
	return fmt.Sprintf("0x%08X", uint32(w))
}

// abiNames are the ABI names of x0..x31.
var abiNames = [32]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

// String returns the ABI name of the register.
func (r Register) String() string {
	if int(r) < len(abiNames) {
		return abiNames[r]
	}
	return fmt.Sprintf("x%d", uint32(r))
}

// ParseRegister accepts xN or an ABI name ("fp" is an alias of s0).
func ParseRegister(name string) (reg Register, ok bool) {
	if name == "fp" {
		return 8, true
	}
	for n, abi := range abiNames {
		if name == abi || name == fmt.Sprintf("x%d", n) {
			return Register(n), true
		}
	}
	return
}
