// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"fmt"
	"iter"
	"log"
	"maps"

	"github.com/ezrec/rvcustom/asm"
	"github.com/ezrec/rvcustom/engine"
	"github.com/ezrec/rvcustom/internal"
	"github.com/ezrec/rvcustom/riscv"
)

const (
	REGISTERS = 32 // Number of general purpose registers.
)

var _emulator_defines = map[string]string{
	"REGISTERS": fmt.Sprintf("%v", REGISTERS),
}

// Emulator state. Register file + program + decode/execute engine.
type Emulator struct {
	Verbose bool           // If set, enables verbose logging.
	Engine  *engine.Engine // Decodes and executes custom instructions.
	Program *asm.Program   // Reference to the currently running program listing.

	Register [REGISTERS]uint64 // Register file; x0 always reads zero.
	Pc       uint32            // Byte address of the next instruction.
	Width    int               // Register width, 32 or 64.
	Ticks    int               // Instructions executed since a reset.
}

// NewEmulator creates a new emulator over an initialized engine. The
// register width follows the engine's machine.
func NewEmulator(e *engine.Engine) (emu *Emulator) {
	emu = &Emulator{
		Engine:  e,
		Program: &asm.Program{},
		Width:   32,
	}

	if mach := e.Machine(); mach != nil && mach.Is64Bit() {
		emu.Width = 64
	}

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	machine := map[string]string{
		"XLEN": fmt.Sprintf("%v", emu.Width),
	}
	return internal.IterSeq2Concat(maps.All(_emulator_defines), maps.All(machine))
}

// Reset the emulator state. The program is kept.
func (emu *Emulator) Reset() {
	clear(emu.Register[:])
	emu.Pc = 0
	emu.Ticks = 0
}

// LineNo returns the current line number for the executing opcode.
func (emu *Emulator) LineNo() int {
	dbg := emu.Program.Debug(emu.Pc)
	if dbg.Opcode == nil {
		return 0
	}
	return dbg.LineNo
}

// mask truncates a value to the register width.
func (emu *Emulator) mask(value uint64) uint64 {
	if emu.Width == 32 {
		return value & 0xffffffff
	}
	return value
}

// signExtend extends a 32-bit result to the register width.
func (emu *Emulator) signExtend(value uint32) uint64 {
	return emu.mask(uint64(int64(int32(value))))
}

func (emu *Emulator) read(reg riscv.Register) uint64 {
	return emu.Register[reg]
}

func (emu *Emulator) write(reg riscv.Register, value uint64) {
	if reg != 0 {
		emu.Register[reg] = emu.mask(value)
	}
}

// execute runs an operation through the engine at the register width.
func (emu *Emulator) execute(name string, inputs ...uint64) (outputs []uint64, err error) {
	if emu.Width == 64 {
		return emu.Engine.ExecuteInstruction64(name, inputs, len(inputs))
	}

	narrow := make([]uint32, len(inputs))
	for n, value := range inputs {
		narrow[n] = uint32(value)
	}
	results, err := emu.Engine.ExecuteInstruction32(name, narrow, len(narrow))
	if err != nil {
		return
	}
	outputs = make([]uint64, len(results))
	for n, value := range results {
		outputs[n] = uint64(value)
	}
	return
}

// custom executes a custom operation word.
func (emu *Emulator) custom(word riscv.Word) (err error) {
	name, err := emu.Engine.UnpackInstruction(uint32(word))
	if err != nil {
		return
	}

	format, ok := emu.Engine.Ops().Format(name)
	if !ok {
		err = ErrInstructionIllegal
		return
	}

	var inputs []uint64
	switch format.Template {
	case riscv.TEMPLATE_R1, riscv.TEMPLATE_R1R:
		inputs = []uint64{emu.read(word.Rs1())}
	case riscv.TEMPLATE_R2R:
		inputs = []uint64{emu.read(word.Rs1()), emu.read(word.Rs2())}
	case riscv.TEMPLATE_R3R:
		inputs = []uint64{emu.read(word.Rs1()), emu.read(word.Rs2()), emu.read(word.Rs3())}
	}

	outputs, err := emu.execute(name, inputs...)
	if err != nil {
		return
	}

	if emu.Verbose {
		log.Printf("emulator: %#x %v%v -> %v", emu.Pc, name, inputs, outputs)
	}

	if format.Template != riscv.TEMPLATE_R1 && len(outputs) > 0 {
		emu.write(word.Rd(), outputs[0])
	}

	return
}

// step executes a single instruction word.
func (emu *Emulator) step(word riscv.Word) (err error) {
	switch word.Opcode() {
	case riscv.OPC_CUSTOM_0, riscv.OPC_CUSTOM_1:
		err = emu.custom(word)
	case riscv.OPC_LUI:
		emu.write(word.Rd(), emu.signExtend(word.ImmU()))
	case riscv.OPC_OP_IMM:
		if word.Funct3() != riscv.ITypeOperations["addi"].Funct3() {
			err = ErrInstructionIllegal
			return
		}
		emu.write(word.Rd(), emu.read(word.Rs1())+uint64(int64(word.ImmI())))
	case riscv.OPC_OP:
		name, ok := riscv.BaselineOf(word)
		if !ok {
			err = ErrInstructionIllegal
			return
		}
		var outputs []uint64
		outputs, err = emu.execute(name, emu.read(word.Rs1()), emu.read(word.Rs2()))
		if err != nil {
			return
		}
		emu.write(word.Rd(), outputs[0])
	default:
		err = ErrInstructionIllegal
	}

	return
}

// Tick performs a single instruction of the emulator.
func (emu *Emulator) Tick() (done bool, err error) {
	pc := emu.Pc
	lineno := emu.LineNo()
	defer func() {
		if err != nil {
			err = &ErrRuntime{Pc: pc, LineNo: lineno, Err: err}
		}
	}()

	if emu.Width != 32 && emu.Width != 64 {
		err = ErrWidth
		return
	}

	if pc == emu.Program.Size() {
		done = true
		return
	}

	word, ok := emu.Program.Fetch(pc)
	if !ok {
		err = ErrPcInvalid
		return
	}

	err = emu.step(word)
	if err != nil {
		return
	}

	emu.Pc += asm.WORD_BYTES
	emu.Ticks++

	return
}

// Run ticks the emulator until the program ends.
func (emu *Emulator) Run() (err error) {
	for done := false; !done; {
		done, err = emu.Tick()
		if err != nil {
			return
		}
	}
	return
}
