package custom

import (
	"strings"

	"github.com/ezrec/rvcustom/bem"
	"github.com/ezrec/rvcustom/riscv"
)

// NOT_FOUND is rendered for operations that are not custom operations.
const NOT_FOUND = "not found"

// Register field placeholder of a rendered encoding.
const placeholder = "00000"

// Encoder renders the instruction word bit pattern of custom operations.
type Encoder struct {
	ops *Ops
}

// NewEncoder discovers the custom operations of be.
func NewEncoder(be *bem.BinaryEncoding) *Encoder {
	return &Encoder{ops: Discover(be)}
}

// Ops returns the discovered operations.
func (enc *Encoder) Ops() *Ops {
	return enc.ops
}

// Render returns the 32 character binary string of an operation's
// instruction word with zeroed register fields, most significant bit first,
// or NOT_FOUND.
func (enc *Encoder) Render(name string) string {
	encoding, ok := enc.ops.Encoding(name)
	if !ok {
		return NOT_FOUND
	}

	var sb strings.Builder
	sb.WriteString(riscv.Binary(encoding.Funct7(), riscv.FUNCT7_BITS))
	sb.WriteString(placeholder) // rs2
	sb.WriteString(placeholder) // rs1
	sb.WriteString(riscv.Binary(encoding.Funct3(), riscv.FUNCT3_BITS))
	sb.WriteString(placeholder) // rd
	sb.WriteString(riscv.Binary(encoding.Opcode(), riscv.OPCODE_BITS))

	return sb.String()
}
