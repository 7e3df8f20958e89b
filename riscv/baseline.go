package riscv

import "strings"

// Base opcodes of the RV32IM baseline.
const (
	OPC_OP     = uint32(0b0110011)
	OPC_OP_IMM = uint32(0b0010011)
	OPC_LOAD   = uint32(0b0000011)
	OPC_STORE  = uint32(0b0100011)
	OPC_BRANCH = uint32(0b1100011)
	OPC_JALR   = uint32(0b1100111)
	OPC_JAL    = uint32(0b1101111)
	OPC_LUI    = uint32(0b0110111)
	OPC_AUIPC  = uint32(0b0010111)
)

// RTypeOperations are the baseline register-register operations, by their
// operation-set names. None of them is ever a custom operation.
var RTypeOperations = map[string]Encoding{
	"add":     Pack(OPC_OP, 0b000, 0b0000000),
	"sub":     Pack(OPC_OP, 0b000, 0b0100000),
	"shl":     Pack(OPC_OP, 0b001, 0b0000000),
	"lt":      Pack(OPC_OP, 0b010, 0b0000000),
	"ltu":     Pack(OPC_OP, 0b011, 0b0000000),
	"xor":     Pack(OPC_OP, 0b100, 0b0000000),
	"shru":    Pack(OPC_OP, 0b101, 0b0000000),
	"shr":     Pack(OPC_OP, 0b101, 0b0100000),
	"ior":     Pack(OPC_OP, 0b110, 0b0000000),
	"and":     Pack(OPC_OP, 0b111, 0b0000000),
	"mul":     Pack(OPC_OP, 0b000, 0b0000001),
	"mulhi":   Pack(OPC_OP, 0b001, 0b0000001),
	"mulhisu": Pack(OPC_OP, 0b010, 0b0000001),
	"mulhiu":  Pack(OPC_OP, 0b011, 0b0000001),
	"div":     Pack(OPC_OP, 0b100, 0b0000001),
	"divu":    Pack(OPC_OP, 0b101, 0b0000001),
	"mod":     Pack(OPC_OP, 0b110, 0b0000001),
	"modu":    Pack(OPC_OP, 0b111, 0b0000001),
}

// ITypeOperations are the baseline register-immediate operations.
var ITypeOperations = map[string]Encoding{
	"addi":  Pack(OPC_OP_IMM, 0b000, 0),
	"slti":  Pack(OPC_OP_IMM, 0b010, 0),
	"sltiu": Pack(OPC_OP_IMM, 0b011, 0),
	"xori":  Pack(OPC_OP_IMM, 0b100, 0),
	"ori":   Pack(OPC_OP_IMM, 0b110, 0),
	"andi":  Pack(OPC_OP_IMM, 0b111, 0),
	"slli":  Pack(OPC_OP_IMM, 0b001, 0b0000000),
	"srli":  Pack(OPC_OP_IMM, 0b101, 0b0000000),
	"srai":  Pack(OPC_OP_IMM, 0b101, 0b0100000),
	"ldq":   Pack(OPC_LOAD, 0b000, 0),
	"ldh":   Pack(OPC_LOAD, 0b001, 0),
	"ldw":   Pack(OPC_LOAD, 0b010, 0),
	"ldqu":  Pack(OPC_LOAD, 0b100, 0),
	"ldhu":  Pack(OPC_LOAD, 0b101, 0),
	"callr": Pack(OPC_JALR, 0b000, 0),
}

// STypeOperations are the baseline stores.
var STypeOperations = map[string]Encoding{
	"stq": Pack(OPC_STORE, 0b000, 0),
	"sth": Pack(OPC_STORE, 0b001, 0),
	"stw": Pack(OPC_STORE, 0b010, 0),
}

// BTypeOperations are the baseline conditional branches.
var BTypeOperations = map[string]Encoding{
	"beq":  Pack(OPC_BRANCH, 0b000, 0),
	"bne":  Pack(OPC_BRANCH, 0b001, 0),
	"blt":  Pack(OPC_BRANCH, 0b100, 0),
	"bge":  Pack(OPC_BRANCH, 0b101, 0),
	"bltu": Pack(OPC_BRANCH, 0b110, 0),
	"bgeu": Pack(OPC_BRANCH, 0b111, 0),
}

// UTypeOperations are the baseline upper-immediate operations.
var UTypeOperations = map[string]Encoding{
	"lui":   Encoding(OPC_LUI),
	"auipc": Encoding(OPC_AUIPC),
}

// JTypeOperations are the baseline jumps.
var JTypeOperations = map[string]Encoding{
	"jal": Encoding(OPC_JAL),
}

// BaselineOperations returns the fixed operation table of a baseline-only
// format.
func BaselineOperations(formatName string) (ops map[string]Encoding, ok bool) {
	switch formatName {
	case R_TYPE_NAME:
		ops = RTypeOperations
	case I_TYPE_NAME:
		ops = ITypeOperations
	case S_TYPE_NAME:
		ops = STypeOperations
	case B_TYPE_NAME:
		ops = BTypeOperations
	case U_TYPE_NAME:
		ops = UTypeOperations
	case J_TYPE_NAME:
		ops = JTypeOperations
	default:
		return
	}
	ok = true
	return
}

// IsBaseline reports whether name is a baseline R-type operation, ignoring
// case.
func IsBaseline(name string) bool {
	_, ok := RTypeOperations[strings.ToLower(name)]
	return ok
}

// BaselineOf returns the baseline R-type operation a word encodes.
func BaselineOf(w Word) (name string, ok bool) {
	if w.Opcode() != OPC_OP {
		return
	}
	for name, enc := range RTypeOperations {
		if w.Matches(enc) {
			return name, true
		}
	}
	return "", false
}
