// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package asm

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"slices"
	"strings"

	"github.com/ezrec/rvcustom/custom"
	"github.com/ezrec/rvcustom/riscv"
	"github.com/ezrec/rvcustom/tdgen"
)

// Assembler is a single pass macro assembler for custom RISC-V
// instructions.
type Assembler struct {
	Verbose bool        // If set, verbosely logs the assembler actions.
	Ops     *custom.Ops // Custom operations of the target machine.
	Opcode  []Opcode    // List of generated opcodes.

	Label  map[string]uint32 // Map of labels to byte addresses.
	Equate map[string]string // Map of equates.
	Macro  map[string]*Macro // Map of macros.

	predefine  map[string]string
	expansions int
}

// register returns the register named by a word.
func (asm *Assembler) register(word string) (reg riscv.Register, err error) {
	reg, ok := riscv.ParseRegister(word)
	if !ok {
		err = ErrParseRegister(word)
	}
	return
}

// arity checks the operand count of an instruction.
func arity(words []string, count int) (err error) {
	switch {
	case len(words) < count:
		err = ErrOpcodeValueMissing
	case len(words) > count:
		err = ErrOpcodeExtraArgs
	}
	return
}

// registers parses exactly len(dst) register operands.
func (asm *Assembler) registers(words []string, dst ...*riscv.Register) (err error) {
	err = arity(words, len(dst))
	if err != nil {
		return
	}
	for n, word := range words {
		*dst[n], err = asm.register(word)
		if err != nil {
			return
		}
	}
	return
}

// currentPc gets the byte address of the next word.
func (asm *Assembler) currentPc() uint32 {
	if len(asm.Opcode) == 0 {
		return 0
	}

	last := asm.Opcode[len(asm.Opcode)-1]

	return last.Pc + uint32(len(last.Codes))*WORD_BYTES
}

// reset clears the state of a previous Parse.
func (asm *Assembler) reset() {
	clear(asm.Label)
	asm.Opcode = asm.Opcode[:0]
	asm.Macro = make(map[string]*Macro)
	asm.Equate = maps.Clone(sysEquate)
	maps.Copy(asm.Equate, asm.predefine)
	asm.expansions = 0
}

// assembleLine assembles one line of source text.
func (asm *Assembler) assembleLine(line string, lineno int) (err error) {
	words, err := asm.tokenize(line, lineno)
	if err != nil || len(words) == 0 {
		return
	}

	if macro, ok := asm.Macro[words[0]]; ok {
		return asm.expand(macro, words[1:])
	}

	return asm.parseWords(words, lineno)
}

// link resolves the labels referenced by .word directives. On failure the
// referencing opcode is returned.
func (asm *Assembler) link() (op *Opcode, err error) {
	for n := range asm.Opcode {
		op = &asm.Opcode[n]
		if len(op.LinkLabel) == 0 {
			continue
		}
		pc, ok := asm.Label[op.LinkLabel]
		if !ok {
			err = ErrLabelMissing(op.LinkLabel)
			return
		}
		op.Codes[len(op.Codes)-1] = riscv.Word(pc)
	}
	return nil, nil
}

// Parse parses an input stream into a Program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	var line string
	var lineno int
	var recording *Macro

	defer func() {
		if err != nil {
			err = ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	asm.reset()

	scanner := bufio.NewScanner(input)
	for scanner.Scan() {
		lineno++

		if asm.Verbose {
			log.Printf("asm: %v: %v", lineno, scanner.Text())
		}

		line, _, _ = strings.Cut(scanner.Text(), ";")
		line = strings.TrimSpace(line)

		fields := strings.Fields(line)
		directive := ""
		if len(fields) > 0 {
			directive = fields[0]
		}

		switch {
		case directive == ".macro":
			if recording != nil {
				err = ErrMacroNesting
				return
			}
			recording, err = asm.define(fields[1:], lineno)
		case directive == ".endm":
			if recording == nil {
				err = ErrMacroLonelyEndm
				return
			}
			recording = nil
		case recording != nil:
			recording.Body = append(recording.Body, line)
		default:
			err = asm.assembleLine(line, lineno)
		}
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	if recording != nil {
		err = ErrMacroLonely
		return
	}

	if op, lerr := asm.link(); lerr != nil {
		lineno = op.LineNo
		line = strings.Join(op.Words, " ")
		err = lerr
		return
	}

	prog = &Program{
		Opcodes: slices.Clone(asm.Opcode),
	}

	return
}

// operation finds the custom operation of a mnemonic. Both the bare
// operation name and its oa_ form are accepted.
func (asm *Assembler) operation(mnemonic string) (name string, format riscv.Format, ok bool) {
	if asm.Ops == nil {
		return
	}
	for op := range asm.Ops.All() {
		if strings.EqualFold(mnemonic, op) || mnemonic == tdgen.Mnemonic(op) {
			format, ok = asm.Ops.Format(op)
			return op, format, ok
		}
	}
	return
}

// immediate parses a signed value that fits in bits.
func (asm *Assembler) immediate(word string, bits int) (imm int32, err error) {
	value, err := asm.valueOf(word)
	if err != nil {
		return
	}
	imm = int32(value)
	limit := int32(1) << (bits - 1)
	if imm < -limit || imm >= limit {
		err = fmt.Errorf("%w: %v", ErrImmediateRange, word)
	}
	return
}

var (
	addi = riscv.ITypeOperations["addi"]
	lui  = riscv.UTypeOperations["lui"]
)

// parseWords encodes the words of one instruction or directive.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	var codes []riscv.Word
	var label string

	// no-op
	if len(words) == 0 {
		return
	}

	source := words

	defer func() {
		if err != nil || len(codes) == 0 {
			return
		}
		asm.Opcode = append(asm.Opcode, Opcode{
			LineNo:    lineno,
			Pc:        asm.currentPc(),
			Words:     source,
			Codes:     codes,
			LinkLabel: label,
		})
	}()

	// Pseudo-instructions
	switch {
	case len(words) == 1 && words[0] == "nop":
		words = []string{"addi", "zero", "zero", "0"}
	case len(words) == 3 && words[0] == "mv":
		words = []string{"addi", words[1], words[2], "0"}
	default:
		// unchanged
	}

	args := words[1:]

	if name, format, ok := asm.operation(words[0]); ok {
		enc, _ := asm.Ops.Encoding(name)
		var rd, rs1, rs2, rs3 riscv.Register
		switch format.Template {
		case riscv.TEMPLATE_R1:
			err = asm.registers(args, &rs1)
		case riscv.TEMPLATE_R1R:
			err = asm.registers(args, &rd, &rs1)
		case riscv.TEMPLATE_R2R:
			err = asm.registers(args, &rd, &rs1, &rs2)
		case riscv.TEMPLATE_R3R:
			err = asm.registers(args, &rd, &rs1, &rs2, &rs3)
		}
		if err != nil {
			return
		}
		if format.Template == riscv.TEMPLATE_R3R {
			codes = append(codes, riscv.MakeWordR4(enc, rd, rs1, rs2, rs3))
		} else {
			codes = append(codes, riscv.MakeWordR(enc, rd, rs1, rs2))
		}
		return
	}

	if enc, ok := riscv.RTypeOperations[words[0]]; ok {
		var rd, rs1, rs2 riscv.Register
		err = asm.registers(args, &rd, &rs1, &rs2)
		if err != nil {
			return
		}
		codes = append(codes, riscv.MakeWordR(enc, rd, rs1, rs2))
		return
	}

	switch words[0] {
	case ".word":
		if len(args) == 0 {
			err = ErrOpcodeValueMissing
			return
		}
		for n, arg := range args {
			var value uint32
			value, err = asm.valueOf(arg)
			if err == nil {
				codes = append(codes, riscv.Word(value))
				continue
			}
			// Only the last value may be a label.
			if n != len(args)-1 {
				return
			}
			err = nil
			codes = append(codes, 0)
			label = arg
		}
	case "addi":
		err = arity(args, 3)
		if err != nil {
			return
		}
		var rd, rs1 riscv.Register
		err = asm.registers(args[:2], &rd, &rs1)
		if err != nil {
			return
		}
		var imm int32
		imm, err = asm.immediate(args[2], 12)
		if err != nil {
			return
		}
		codes = append(codes, riscv.MakeWordI(addi, rd, rs1, imm))
	case "lui":
		err = arity(args, 2)
		if err != nil {
			return
		}
		var rd riscv.Register
		err = asm.registers(args[:1], &rd)
		if err != nil {
			return
		}
		var value uint32
		value, err = asm.valueOf(args[1])
		if err != nil {
			return
		}
		if value > 0xfffff {
			err = fmt.Errorf("%w: %v", ErrImmediateRange, args[1])
			return
		}
		codes = append(codes, riscv.MakeWordU(lui, rd, value))
	case "li":
		err = arity(args, 2)
		if err != nil {
			return
		}
		var rd riscv.Register
		err = asm.registers(args[:1], &rd)
		if err != nil {
			return
		}
		var value uint32
		value, err = asm.valueOf(args[1])
		if err != nil {
			return
		}
		hi20, lo12 := riscv.SplitImmediate(int32(value))
		if hi20 == 0 {
			codes = append(codes, riscv.MakeWordI(addi, rd, 0, lo12))
			return
		}
		codes = append(codes, riscv.MakeWordU(lui, rd, hi20))
		if lo12 != 0 {
			codes = append(codes, riscv.MakeWordI(addi, rd, rd, lo12))
		}
	default:
		err = ErrInstructionInvalid
		return
	}

	return
}
