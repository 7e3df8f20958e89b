package bem

import (
	"log"
	"strings"

	"github.com/bits-and-blooms/bitset"

	"github.com/ezrec/rvcustom/machine"
	"github.com/ezrec/rvcustom/riscv"
)

// STDOUT_OPERATION is the debug output operation of the R1 format. It
// always takes the reserved selector 0 of the custom-0 space.
const STDOUT_OPERATION = "stdout"

// ROCC_FUNCT7_SLOTS is the number of funct7 values per format in
// coprocessor mode.
const ROCC_FUNCT7_SLOTS = 1 << riscv.FUNCT7_BITS

// Generator builds binary encoding maps from machine descriptions.
type Generator struct {
	Coprocessor bool // Encode custom operations as RoCC coprocessor instructions.
	Verbose     bool

	used     map[riscv.Space]*bitset.BitSet
	owner    map[uint32]string
	counter  map[riscv.Space]uint32
	perRocc  map[string]uint32
	encoding *BinaryEncoding
}

// Generate builds the binary encoding map of a machine.
func Generate(mach *machine.Machine, coprocessor bool) (be *BinaryEncoding, err error) {
	gen := &Generator{Coprocessor: coprocessor}
	return gen.Generate(mach)
}

// Generate builds the binary encoding map of a machine.
//
// Formats are emitted in machine order. Baseline operations take their
// fixed encodings; every other operation of a custom-capable format takes
// the next free function selector of the format's opcode space.
func (gen *Generator) Generate(mach *machine.Machine) (be *BinaryEncoding, err error) {
	gen.used = map[riscv.Space]*bitset.BitSet{
		riscv.CUSTOM_0: bitset.New(uint(1 << (riscv.FUNCT3_BITS + riscv.FUNCT7_BITS))),
		riscv.CUSTOM_1: bitset.New(uint(1 << (riscv.FUNCT3_BITS + riscv.FUNCT2_BITS))),
	}
	gen.owner = map[uint32]string{}
	gen.counter = map[riscv.Space]uint32{}
	gen.perRocc = map[string]uint32{}
	gen.encoding = &BinaryEncoding{Machine: mach.Name}

	if gen.Verbose {
		for _, name := range mach.Unimplemented() {
			log.Printf("bem: %v: no function unit", name)
		}
	}

	for _, otf := range mach.Formats {
		var format *InstructionFormat
		format, err = gen.format(otf)
		if err != nil {
			return
		}
		err = gen.encoding.AddInstructionFormat(format)
		if err != nil {
			return
		}
	}

	be = gen.encoding
	gen.encoding = nil
	return
}

func (gen *Generator) format(otf *machine.OperationTriggeredFormat) (format *InstructionFormat, err error) {
	format = NewInstructionFormat(otf.Name)
	if !addFields(format) {
		err = ErrFormat{Format: otf.Name, Err: ErrFormatUnknown}
		return
	}

	custom, isCustom := riscv.FormatByName(otf.Name)
	baseline, _ := riscv.BaselineOperations(otf.Name)

	for _, name := range otf.Operations {
		var encoding uint32
		if enc, ok := baseline[strings.ToLower(name)]; ok {
			encoding = uint32(enc)
		} else if !isCustom {
			err = ErrFormat{Format: otf.Name, Operation: name, Err: ErrNotBaseline}
			return
		} else {
			encoding, err = gen.allocate(custom, name)
			if err != nil {
				return
			}
		}

		err = format.AddOperation(name, encoding)
		if err != nil {
			return
		}

		if gen.Verbose {
			log.Printf("bem: %v %v %v", otf.Name, name, riscv.Encoding(encoding))
		}
	}

	return
}

// allocate hands out the next function selector of a custom operation.
func (gen *Generator) allocate(custom riscv.Format, name string) (encoding uint32, err error) {
	space := custom.Space
	opcode := space.Opcode()

	var selector uint32
	switch {
	case custom.Name == riscv.R1_TYPE_NAME && strings.EqualFold(name, STDOUT_OPERATION):
		selector = 0
	case gen.Coprocessor && space == riscv.CUSTOM_0:
		count := gen.perRocc[custom.Name]
		if count >= ROCC_FUNCT7_SLOTS {
			err = ErrFormat{Format: custom.Name, Operation: name, Err: ErrSelectorsExhausted}
			return
		}
		gen.perRocc[custom.Name] = count + 1
		selector = custom.RoccF3 | (count << riscv.FUNCT3_BITS)
	default:
		count := gen.counter[space]
		if count >= uint32(custom.Slots) {
			err = ErrFormat{Format: custom.Name, Operation: name, Err: ErrSelectorsExhausted}
			return
		}
		gen.counter[space] = count + 1
		selector = count
	}

	encoding = opcode | (selector << riscv.OPCODE_BITS)

	used := gen.used[space]
	if used.Test(uint(selector)) {
		alias := Alias{
			Format:   custom.Name,
			Encoding: encoding,
			First:    gen.owner[encoding],
			Second:   name,
		}
		gen.encoding.Aliases = append(gen.encoding.Aliases, alias)
		if gen.Verbose {
			log.Printf("bem: %v aliases %v", alias.Second, alias.First)
		}
		return
	}
	used.Set(uint(selector))
	gen.owner[encoding] = name

	return
}

// addFields builds the field tree of a known format.
func addFields(format *InstructionFormat) (ok bool) {
	addOpcode := func(funct int) {
		enc := format.AddEncoding("opcode").AddField(0, 0, 7).AddField(1, 12, 3)
		if funct > 0 {
			enc.AddField(2, 25, funct)
		}
	}

	switch format.Name {
	case riscv.R_TYPE_NAME:
		format.AddEncoding("rs1").AddField(0, 15, 5)
		format.AddEncoding("rs2").AddField(0, 20, 5)
		format.AddEncoding("rd").AddField(0, 7, 5)
		addOpcode(7)
	case riscv.R1R_TYPE_NAME:
		format.AddEncoding("rs1").AddField(0, 15, 5)
		format.AddEncoding("rd").AddField(0, 7, 5)
		addOpcode(7)
	case riscv.R1_TYPE_NAME:
		format.AddEncoding("rs1").AddField(0, 15, 5)
		addOpcode(7)
	case riscv.R3R_TYPE_NAME:
		format.AddEncoding("rs1").AddField(0, 15, 5)
		format.AddEncoding("rs2").AddField(0, 20, 5)
		format.AddEncoding("rs3").AddField(0, 27, 5)
		format.AddEncoding("rd").AddField(0, 7, 5)
		addOpcode(2)
	case riscv.I_TYPE_NAME:
		format.AddEncoding("rs1").AddField(0, 15, 5)
		format.AddEncoding("rd").AddField(0, 7, 5)
		format.AddEncoding("imm").AddField(0, 20, 12)
		addOpcode(0)
	case riscv.S_TYPE_NAME:
		format.AddEncoding("rs1").AddField(0, 15, 5)
		format.AddEncoding("rs2").AddField(0, 20, 5)
		format.AddEncoding("imm").AddField(0, 7, 5).AddField(1, 25, 7)
		addOpcode(0)
	case riscv.B_TYPE_NAME:
		format.AddEncoding("rs1").AddField(0, 15, 5)
		format.AddEncoding("rs2").AddField(0, 20, 5)
		format.AddEncoding("imm").AddField(0, 8, 4).AddField(1, 25, 6).AddField(2, 7, 1).AddField(3, 31, 1)
		addOpcode(0)
	case riscv.U_TYPE_NAME:
		format.AddEncoding("rd").AddField(0, 7, 5)
		format.AddEncoding("imm").AddField(0, 12, 20)
		format.AddEncoding("opcode").AddField(0, 0, 7)
	case riscv.J_TYPE_NAME:
		format.AddEncoding("rd").AddField(0, 7, 5)
		format.AddEncoding("imm").AddField(0, 21, 10).AddField(1, 20, 1).AddField(2, 12, 8).AddField(3, 31, 1)
		format.AddEncoding("opcode").AddField(0, 0, 7)
	default:
		return false
	}

	return true
}
