package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/kr/pretty"
	"github.com/pkg/errors"

	"github.com/ezrec/rvcustom/asm"
	"github.com/ezrec/rvcustom/bem"
	"github.com/ezrec/rvcustom/custom"
	"github.com/ezrec/rvcustom/emulator"
	"github.com/ezrec/rvcustom/riscv"
	"github.com/ezrec/rvcustom/tdgen"
)

// cmdBem generates, saves or dumps a binary encoding map.
func (c *cli) cmdBem(flags *flag.FlagSet, args []string) (err error) {
	var output, input string
	var dump bool
	flags.StringVar(&output, "o", "", "write the binary encoding map to a "+bem.FILE_EXT+" file")
	flags.StringVar(&input, "i", "", "read a "+bem.FILE_EXT+" file instead of generating one")
	flags.BoolVar(&dump, "dump", false, "dump the binary encoding map structure")
	err = c.parse(flags, args)
	if err != nil {
		return
	}

	var be *bem.BinaryEncoding
	if len(input) != 0 {
		be, err = bem.ReadFile(input)
	} else {
		be, err = c.encoding()
	}
	if err != nil {
		return
	}

	if dump {
		spew.Fdump(c.stdout, be)
	} else {
		fmt.Fprintf(c.stdout, "machine %v\n", be.Machine)
		for format := range be.InstructionFormats() {
			fmt.Fprintf(c.stdout, "%v (%d bits)\n", format.Name, format.Width())
			for name, encoding := range format.Operations() {
				fmt.Fprintf(c.stdout, "  %-16v %v\n", name, riscv.Encoding(encoding))
			}
		}
	}

	if len(output) != 0 {
		err = be.WriteFile(output)
	}

	return
}

// cmdEncode renders the compact encoding of custom operations.
func (c *cli) cmdEncode(flags *flag.FlagSet, args []string) (err error) {
	err = c.parse(flags, args)
	if err != nil {
		return
	}

	be, err := c.encoding()
	if err != nil {
		return
	}

	enc := custom.NewEncoder(be)
	names := flags.Args()
	if len(names) == 0 {
		names = enc.Ops().Names()
	}

	for _, name := range names {
		text := enc.Render(name)
		if text == custom.NOT_FOUND {
			c.warn("%v: %v", name, text)
			continue
		}
		fmt.Fprintf(c.stdout, "%v %v\n", text, name)
	}

	return
}

// cmdTdgen generates the RISC-V backend description.
func (c *cli) cmdTdgen(flags *flag.FlagSet, args []string) (err error) {
	var output string
	flags.StringVar(&output, "o", "", "directory to write "+tdgen.BACKEND_FILE+" into")
	err = c.parse(flags, args)
	if err != nil {
		return
	}

	e, err := c.engine()
	if err != nil {
		return
	}
	defer e.Close()

	pool, err := e.Semantics()
	if err != nil {
		return
	}

	gen := &tdgen.RISCV{
		Encoding: e.Encoding(),
		Pool:     pool,
		WordSize: e.Machine().WordSize,
		Verbose:  c.verbose,
	}
	backend, err := gen.Generate()
	if err != nil {
		return
	}

	for _, diag := range backend.Diagnostics {
		c.warn("%v", diag)
	}

	if len(output) == 0 {
		_, err = backend.WriteTo(c.stdout)
		return
	}

	path, err := backend.WriteFile(output)
	if err != nil {
		return
	}
	if c.verbose {
		fmt.Fprintf(c.stderr, "%v\n", c.au.Green(path))
	}

	return
}

// cmdDecode decodes raw instruction words.
func (c *cli) cmdDecode(flags *flag.FlagSet, args []string) (err error) {
	err = c.parse(flags, args)
	if err != nil {
		return
	}
	if flags.NArg() == 0 {
		err = ErrArgs
		return
	}

	e, err := c.engine()
	if err != nil {
		return
	}
	defer e.Close()

	for _, arg := range flags.Args() {
		var value uint64
		value, err = strconv.ParseUint(arg, 0, 32)
		if err != nil {
			err = errors.Wrap(err, f("decoding %v", arg))
			return
		}

		word := riscv.Word(value)
		name, uerr := e.UnpackInstruction(uint32(word))
		if uerr != nil {
			fmt.Fprintf(c.stdout, "%v %v\n", word, c.au.Red(uerr.Error()))
		} else {
			fmt.Fprintf(c.stdout, "%v %v\n", word, name)
		}

		if c.verbose {
			fmt.Fprintf(c.stdout, "%# v\n", pretty.Formatter(word.Decode()))
		}
	}

	return
}

// cmdExec executes an operation on the given inputs.
func (c *cli) cmdExec(flags *flag.FlagSet, args []string) (err error) {
	var width int
	flags.IntVar(&width, "w", 0, "operand width, 32 or 64 (default: machine word size)")
	err = c.parse(flags, args)
	if err != nil {
		return
	}
	if flags.NArg() == 0 {
		err = ErrArgs
		return
	}

	e, err := c.engine()
	if err != nil {
		return
	}
	defer e.Close()

	if width == 0 {
		width = e.Machine().WordSize
	}

	name := flags.Arg(0)
	inputs := make([]uint64, 0, flags.NArg()-1)
	for _, arg := range flags.Args()[1:] {
		var value uint64
		value, err = strconv.ParseUint(arg, 0, 64)
		if err != nil {
			err = errors.Wrap(err, f("input %v", arg))
			return
		}
		inputs = append(inputs, value)
	}

	var outputs []uint64
	switch width {
	case 32:
		narrow := make([]uint32, len(inputs))
		for n, value := range inputs {
			narrow[n] = uint32(value)
		}
		var results []uint32
		results, err = e.ExecuteInstruction32(name, narrow, len(narrow))
		for _, value := range results {
			outputs = append(outputs, uint64(value))
		}
	case 64:
		outputs, err = e.ExecuteInstruction64(name, inputs, len(inputs))
	default:
		err = fmt.Errorf("%w: -w %d", emulator.ErrWidth, width)
	}
	if err != nil {
		return
	}

	for _, value := range outputs {
		fmt.Fprintf(c.stdout, "%d\n", value)
	}

	return
}

// assemble reads and assembles a source file for the machine.
func (c *cli) assemble(emu *emulator.Emulator, path string) (prog *asm.Program, err error) {
	inf, err := os.Open(path)
	if err != nil {
		return
	}
	defer inf.Close()

	assembler := &asm.Assembler{Verbose: c.verbose, Ops: emu.Engine.Ops()}
	for key, value := range emu.Defines() {
		assembler.Predefine(key, value)
	}

	prog, err = assembler.Parse(inf)
	if err != nil {
		err = errors.Wrap(err, path)
	}
	return
}

// cmdAsm assembles a source file into a listing or a raw binary.
func (c *cli) cmdAsm(flags *flag.FlagSet, args []string) (err error) {
	var output string
	flags.StringVar(&output, "o", "", "write the little-endian binary to a file")
	err = c.parse(flags, args)
	if err != nil {
		return
	}
	if flags.NArg() != 1 {
		err = ErrArgs
		return
	}

	e, err := c.engine()
	if err != nil {
		return
	}
	defer e.Close()

	prog, err := c.assemble(emulator.NewEmulator(e), flags.Arg(0))
	if err != nil {
		return
	}

	if len(output) == 0 {
		for _, op := range prog.Opcodes {
			for n, word := range op.Codes {
				source := ""
				if n == 0 {
					source = fmt.Sprintf("; %d: %v", op.LineNo, strings.Join(op.Words, " "))
				}
				fmt.Fprintf(c.stdout, "%08x: %v %v\n", op.Pc+uint32(n)*asm.WORD_BYTES, word, source)
			}
		}
		return
	}

	ouf, err := os.Create(output)
	if err != nil {
		return
	}
	defer ouf.Close()

	err = binary.Write(ouf, binary.LittleEndian, prog.Binary())
	return
}

// cmdRun assembles and runs a source file in the emulator.
func (c *cli) cmdRun(flags *flag.FlagSet, args []string) (err error) {
	var width int
	flags.IntVar(&width, "w", 0, "register width, 32 or 64 (default: machine word size)")
	err = c.parse(flags, args)
	if err != nil {
		return
	}
	if flags.NArg() != 1 {
		err = ErrArgs
		return
	}

	e, err := c.engine()
	if err != nil {
		return
	}
	defer e.Close()

	emu := emulator.NewEmulator(e)
	emu.Verbose = c.verbose
	if width != 0 {
		emu.Width = width
	}

	emu.Program, err = c.assemble(emu, flags.Arg(0))
	if err != nil {
		return
	}

	emu.Reset()
	err = emu.Run()
	if err != nil {
		return
	}

	for n, value := range emu.Register {
		if value != 0 {
			fmt.Fprintf(c.stdout, "%-4v %#x\n", riscv.Register(n), value)
		}
	}

	return
}
