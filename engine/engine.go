// Package engine decodes and executes custom instructions.
//
// An Engine is initialized from a machine description, after which raw
// instruction words can be decoded back to their custom operation, and
// operations can be executed by name at 32 or 64 bit width.
//
// An Engine is owned by a single caller; it does no locking.
package engine

import (
	"fmt"
	"io"
	"log"

	"github.com/ezrec/rvcustom/bem"
	"github.com/ezrec/rvcustom/custom"
	"github.com/ezrec/rvcustom/machine"
	"github.com/ezrec/rvcustom/osal"
	"github.com/ezrec/rvcustom/riscv"
)

// Options configures an Engine.
type Options struct {
	Verbose        bool      // If set, verbosely logs the engine actions.
	Coprocessor    bool      // Generate coprocessor (RoCC) encodings.
	OperationPaths []string  // Operation module directories; osal.SearchPaths() if empty.
	Output         io.Writer // Destination of operation output; nil discards.
}

// Engine is a decode/execute session.
type Engine struct {
	Options

	machine  *machine.Machine
	encoding *bem.BinaryEncoding
	ops      *custom.Ops
	pool     *osal.Pool
}

// New returns an uninitialized engine.
func New(opts Options) *Engine {
	return &Engine{Options: opts}
}

// Close releases all engine state, including the semantics registry.
func (e *Engine) Close() error {
	e.Reset()
	e.pool = nil
	return nil
}

// Reset drops the machine state. The semantics registry is kept.
func (e *Engine) Reset() {
	e.machine = nil
	e.encoding = nil
	e.ops = nil
}

// Initialized reports whether a machine is loaded.
func (e *Engine) Initialized() bool {
	return e.ops != nil && e.ops.Len() > 0
}

// Machine returns the loaded machine, or nil.
func (e *Engine) Machine() *machine.Machine {
	return e.machine
}

// Encoding returns the binary encoding map of the loaded machine, or nil.
func (e *Engine) Encoding() *bem.BinaryEncoding {
	return e.encoding
}

// Ops returns the custom operations of the loaded machine, or nil.
func (e *Engine) Ops() *custom.Ops {
	return e.ops
}

// Semantics returns the semantics registry, loading it on first use.
func (e *Engine) Semantics() (pool *osal.Pool, err error) {
	if e.pool != nil {
		return e.pool, nil
	}

	paths := e.OperationPaths
	if len(paths) == 0 {
		paths = osal.SearchPaths()
	}

	pool = osal.NewPool()
	pool.Verbose = e.Verbose
	err = pool.Load(paths...)
	if err != nil {
		pool = nil
		return
	}

	e.pool = pool
	return
}

// InitializeMachine loads a machine description and discovers its custom
// operations. On failure the engine is left uninitialized.
func (e *Engine) InitializeMachine(path string) (err error) {
	e.Reset()

	mach, err := machine.Load(path)
	if err != nil {
		err = ErrInit{Path: path, Err: fmt.Errorf("%w: %w", ErrLoad, err)}
		return
	}

	gen := &bem.Generator{Coprocessor: e.Coprocessor, Verbose: e.Verbose}
	be, err := gen.Generate(mach)
	if err != nil {
		err = ErrInit{Path: path, Err: fmt.Errorf("%w: %w", ErrGeneration, err)}
		return
	}
	if be.Empty() {
		err = ErrInit{Path: path, Err: ErrGeneration}
		return
	}

	ops := custom.Discover(be)
	if ops.Len() == 0 {
		err = ErrInit{Path: path, Err: ErrDiscovery}
		return
	}

	if e.Verbose {
		for _, overwrite := range ops.Overwrites() {
			log.Printf("engine: %v: %v found in more than one format", path, overwrite.Name)
		}
		for _, alias := range be.Aliases {
			log.Printf("engine: %v: %v aliases %v", path, alias.Second, alias.First)
		}
	}

	_, err = e.Semantics()
	if err != nil {
		err = ErrInit{Path: path, Err: fmt.Errorf("%w: %w", ErrLoad, err)}
		return
	}

	e.machine = mach
	e.encoding = be
	e.ops = ops

	if e.Verbose {
		log.Printf("engine: %v: %d custom operations", path, ops.Len())
	}

	return
}

// UnpackInstruction returns the name of the custom operation encoded in
// word. Operations are matched in discovery order, so the first of two
// aliased operations wins.
func (e *Engine) UnpackInstruction(word uint32) (name string, err error) {
	if !e.Initialized() {
		err = ErrUnpack{Word: word, Err: ErrEmptyState}
		return
	}

	w := riscv.Word(word)
	if _, ok := riscv.SpaceOf(w.Opcode()); !ok {
		err = ErrUnpack{Word: word, Err: ErrUnknownOpcode}
		return
	}

	for op, enc := range e.ops.All() {
		if w.Matches(enc) {
			name = op
			return
		}
	}

	err = ErrUnpack{Word: word, Err: ErrOperationNotFound}
	return
}

// Operation returns the semantics of a registered operation.
func (e *Engine) Operation(name string) (op *osal.Operation, err error) {
	pool, err := e.Semantics()
	if err != nil {
		err = ErrExecute{Operation: name, Err: fmt.Errorf("%w: %w", ErrLoad, err)}
		return
	}

	op, ok := pool.Operation(name)
	if !ok {
		err = ErrExecute{Operation: name, Err: ErrUnknownOperation}
	}
	return
}

// execute runs an operation on the first count inputs at the given width.
func (e *Engine) execute(name string, inputs []uint64, count int, width int) (outputs []uint64, err error) {
	op, err := e.Operation(name)
	if err != nil {
		return
	}

	count = min(count, len(inputs))
	if count < op.Inputs {
		err = ErrExecute{Operation: name, Err: ErrInsufficientInputs}
		return
	}

	ctx := &osal.Context{Width: width, Output: e.Output}
	outputs, err = op.Simulate(ctx, inputs[:op.Inputs]...)
	if err != nil {
		err = ErrExecute{Operation: name, Err: err}
		return
	}

	if e.Verbose {
		log.Printf("engine: %v%v -> %v", name, inputs[:op.Inputs], outputs)
	}

	return
}

// ExecuteInstruction32 executes an operation on 32-bit operands. Exactly as
// many values as the operation has outputs are returned.
func (e *Engine) ExecuteInstruction32(name string, inputs []uint32, count int) (outputs []uint32, err error) {
	wide := make([]uint64, len(inputs))
	for n, value := range inputs {
		wide[n] = uint64(value)
	}

	results, err := e.execute(name, wide, count, 32)
	if err != nil {
		return
	}

	outputs = make([]uint32, len(results))
	for n, value := range results {
		outputs[n] = uint32(value)
	}
	return
}

// ExecuteInstruction64 executes an operation on 64-bit operands.
func (e *Engine) ExecuteInstruction64(name string, inputs []uint64, count int) (outputs []uint64, err error) {
	return e.execute(name, inputs, count, 64)
}
