// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/logrusorgru/aurora/v4"

	"github.com/ezrec/rvcustom/bem"
	"github.com/ezrec/rvcustom/engine"
	"github.com/ezrec/rvcustom/machine"
	"github.com/ezrec/rvcustom/translate"
)

var f = translate.From

var (
	ErrUsage   = errors.New(f("usage: rvcustom <bem|encode|tdgen|decode|exec|asm|run> [flags] [args]"))
	ErrMachine = errors.New(f("machine description (-m) is required"))
	ErrArgs    = errors.New(f("missing arguments"))
)

// cli is the state shared by all subcommands.
type cli struct {
	stdout io.Writer
	stderr io.Writer
	au     *aurora.Aurora

	machine string
	rocc    bool
	opsets  string
	verbose bool
	color   bool
}

type command func(c *cli, flags *flag.FlagSet, args []string) error

var commands = map[string]command{
	"bem":    (*cli).cmdBem,
	"encode": (*cli).cmdEncode,
	"tdgen":  (*cli).cmdTdgen,
	"decode": (*cli).cmdDecode,
	"exec":   (*cli).cmdExec,
	"asm":    (*cli).cmdAsm,
	"run":    (*cli).cmdRun,
}

// parse adds the common flags and parses the command line.
func (c *cli) parse(flags *flag.FlagSet, args []string) (err error) {
	flags.StringVar(&c.machine, "m", "", "machine description (.yaml)")
	flags.BoolVar(&c.rocc, "rocc", false, "encode custom operations as RoCC coprocessor instructions")
	flags.StringVar(&c.opsets, "ops", "", "operation module directories, "+string(os.PathListSeparator)+" separated")
	flags.BoolVar(&c.verbose, "v", false, "Verbose mode")
	flags.BoolVar(&c.color, "color", false, "colorize diagnostics")

	err = flags.Parse(args)
	if err != nil {
		return
	}

	c.au = aurora.New(aurora.WithColors(c.color))

	return
}

// warn prints a diagnostic.
func (c *cli) warn(format string, args ...any) {
	fmt.Fprintln(c.stderr, c.au.Yellow(fmt.Sprintf(format, args...)))
}

// load reads the machine description.
func (c *cli) load() (mach *machine.Machine, err error) {
	if len(c.machine) == 0 {
		err = ErrMachine
		return
	}
	return machine.Load(c.machine)
}

// encoding generates the binary encoding map of the machine.
func (c *cli) encoding() (be *bem.BinaryEncoding, err error) {
	mach, err := c.load()
	if err != nil {
		return
	}

	gen := &bem.Generator{Coprocessor: c.rocc, Verbose: c.verbose}
	be, err = gen.Generate(mach)
	if err != nil {
		return
	}

	for _, alias := range be.Aliases {
		c.warn("%v: %v aliases %v", alias.Format, alias.Second, alias.First)
	}

	return
}

// engine creates an initialized engine for the machine.
func (c *cli) engine() (e *engine.Engine, err error) {
	if len(c.machine) == 0 {
		err = ErrMachine
		return
	}

	opts := engine.Options{
		Verbose:     c.verbose,
		Coprocessor: c.rocc,
		Output:      c.stdout,
	}
	if len(c.opsets) != 0 {
		opts.OperationPaths = filepath.SplitList(c.opsets)
	}

	e = engine.New(opts)
	err = e.InitializeMachine(c.machine)
	if err != nil {
		e = nil
		return
	}

	for _, overwrite := range e.Ops().Overwrites() {
		c.warn("%v: %v found in more than one format", c.machine, overwrite.Name)
	}

	return
}

func run(args []string, stdout, stderr io.Writer) (err error) {
	if len(args) == 0 {
		err = ErrUsage
		return
	}

	cmd, ok := commands[args[0]]
	if !ok {
		names := slices.Sorted(maps.Keys(commands))
		err = fmt.Errorf("%w (unknown command %q, expected one of %v)", ErrUsage, args[0], strings.Join(names, ", "))
		return
	}

	c := &cli{stdout: stdout, stderr: stderr}
	flags := flag.NewFlagSet(args[0], flag.ContinueOnError)
	flags.SetOutput(stderr)

	return cmd(c, flags, args[1:])
}

func main() {
	err := run(os.Args[1:], os.Stdout, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%v: %v", filepath.Base(os.Args[0]), err)
	}
}
