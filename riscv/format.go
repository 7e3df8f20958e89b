package riscv

import (
	"fmt"
)

// Base opcodes reserved for custom extensions.
const (
	OPC_CUSTOM_0 = uint32(0b0001011)
	OPC_CUSTOM_1 = uint32(0b0101011)
)

// Instruction format names, as used in machine descriptions.
const (
	R_TYPE_NAME   = "riscv_r_type"
	I_TYPE_NAME   = "riscv_i_type"
	S_TYPE_NAME   = "riscv_s_type"
	B_TYPE_NAME   = "riscv_b_type"
	U_TYPE_NAME   = "riscv_u_type"
	J_TYPE_NAME   = "riscv_j_type"
	R1R_TYPE_NAME = "riscv_r1r_type"
	R1_TYPE_NAME  = "riscv_r1_type"
	R3R_TYPE_NAME = "riscv_r3r_type"
)

// Space is a custom opcode space.
type Space int

//go:generate go tool stringer -linecomment -type=Space
const (
	CUSTOM_0 = Space(0) // custom-0
	CUSTOM_1 = Space(1) // custom-1
)

// Opcode returns the base opcode of the space.
func (space Space) Opcode() uint32 {
	if space == CUSTOM_1 {
		return OPC_CUSTOM_1
	}
	return OPC_CUSTOM_0
}

// TableGen returns the TableGen opcode record name of the space.
func (space Space) TableGen() string {
	if space == CUSTOM_1 {
		return "OPC_CUSTOM_1"
	}
	return "OPC_CUSTOM_0"
}

// SpaceOf returns the custom space of a base opcode.
func SpaceOf(opcode uint32) (space Space, ok bool) {
	switch opcode {
	case OPC_CUSTOM_0:
		return CUSTOM_0, true
	case OPC_CUSTOM_1:
		return CUSTOM_1, true
	}
	return
}

// Template is a backend instruction class.
type Template int

//go:generate go tool stringer -linecomment -type=Template
const (
	TEMPLATE_R1  = Template(0) // OARVR1
	TEMPLATE_R1R = Template(1) // OARVR1R
	TEMPLATE_R2R = Template(2) // OARVR2R
	TEMPLATE_R3R = Template(3) // OARVR3R
)

// Shape is the (#inputs, #outputs) arity of an operation.
type Shape struct {
	Inputs  int
	Outputs int
}

func (shape Shape) String() string {
	return fmt.Sprintf("(%d,%d)", shape.Inputs, shape.Outputs)
}

// Format describes an instruction format that can hold custom operations.
type Format struct {
	Name     string   // Format name.
	Shape    Shape    // Operation arity the format encodes.
	Template Template // Backend instruction class.
	Space    Space    // Opcode space of custom operations.
	Slots    int      // Number of selector values available.
	RoccF3   uint32   // Fixed funct3 in coprocessor mode.
}

// Formats is the closed table of custom-capable formats, in discovery order.
var Formats = [...]Format{
	{R_TYPE_NAME, Shape{2, 1}, TEMPLATE_R2R, CUSTOM_0, 1 << (FUNCT3_BITS + FUNCT7_BITS), 0b111},
	{R1R_TYPE_NAME, Shape{1, 1}, TEMPLATE_R1R, CUSTOM_0, 1 << (FUNCT3_BITS + FUNCT7_BITS), 0b110},
	{R1_TYPE_NAME, Shape{1, 0}, TEMPLATE_R1, CUSTOM_0, 1 << (FUNCT3_BITS + FUNCT7_BITS), 0b101},
	{R3R_TYPE_NAME, Shape{3, 1}, TEMPLATE_R3R, CUSTOM_1, 1 << (FUNCT3_BITS + FUNCT2_BITS), 0b100},
}

// FormatByName looks up a custom-capable format.
func FormatByName(name string) (format Format, ok bool) {
	for _, format = range Formats {
		if format.Name == name {
			return format, true
		}
	}
	return Format{}, false
}

// FormatByShape looks up the format that encodes an operation shape.
func FormatByShape(shape Shape) (format Format, ok bool) {
	for _, format = range Formats {
		if format.Shape == shape {
			return format, true
		}
	}
	return Format{}, false
}

// Operands lists the register operand names of the template, destination
// first.
func (template Template) Operands() []string {
	switch template {
	case TEMPLATE_R1:
		return []string{"rs1"}
	case TEMPLATE_R1R:
		return []string{"rd", "rs1"}
	case TEMPLATE_R2R:
		return []string{"rd", "rs1", "rs2"}
	case TEMPLATE_R3R:
		return []string{"rd", "rs1", "rs2", "rs3"}
	}
	return nil
}
