// Package osal is the operation semantics registry.
//
// Every operation has an arity, a trigger that computes its outputs from its
// inputs, and optionally a set of DAGs expressing it in terms of other
// operations. The base operation set is built in; custom operations are
// defined by Starlark modules:
//
//	operation(
//	    name = "crc_xor_shift",
//	    inputs = 2,
//	    outputs = 1,
//	    trigger = lambda crc, data: (crc << 8) ^ data,
//	    dags = [op("xor", op("shl", IN(1), 8), IN(2))],
//	)
package osal

import (
	"io"
	"math"
)

// Context is the simulation state shared by the triggers of one call.
type Context struct {
	Width  int       // Word width in bits, 32 or 64.
	Output io.Writer // Destination of trigger output; nil discards.
}

// Mask returns the all-ones value of the context width.
func (ctx *Context) Mask() uint64 {
	if ctx.Width >= 64 {
		return math.MaxUint64
	}
	return (uint64(1) << ctx.Width) - 1
}

// Signed interprets value as a two's complement number of the context
// width.
func (ctx *Context) Signed(value uint64) int64 {
	value &= ctx.Mask()
	if ctx.Width < 64 && value&(uint64(1)<<(ctx.Width-1)) != 0 {
		return int64(value) - int64(uint64(1)<<ctx.Width)
	}
	return int64(value)
}

func (ctx *Context) writer() io.Writer {
	if ctx.Output == nil {
		return io.Discard
	}
	return ctx.Output
}

// Behavior simulates an operation.
type Behavior interface {
	// SimulateTrigger reads the operation inputs from the start of values
	// and writes the outputs after them. The returned flag is false if the
	// trigger declined to produce a result.
	SimulateTrigger(values []uint64, ctx *Context) (ok bool, err error)
}

// Operation is a registered operation.
type Operation struct {
	Name        string
	Description string
	Inputs      int
	Outputs     int
	DAGs        []*DAG
	Behavior    Behavior
	Module      string // Module the operation was defined in; empty for the base set.
}

// Base reports whether the operation is a built in base operation.
func (op *Operation) Base() bool {
	return len(op.Module) == 0
}

// Simulate runs the operation's trigger on the given inputs.
//
// Exactly op.Inputs values are read from inputs, and exactly op.Outputs
// values, masked to the context width, are returned.
func (op *Operation) Simulate(ctx *Context, inputs ...uint64) (outputs []uint64, err error) {
	if ctx.Width != 32 && ctx.Width != 64 {
		err = ErrWidth
		return
	}
	if len(inputs) < op.Inputs {
		err = ErrTrigger{Operation: op.Name, Err: ErrOperands}
		return
	}
	if op.Behavior == nil {
		err = ErrTrigger{Operation: op.Name, Err: ErrTriggerMissing}
		return
	}

	values := make([]uint64, op.Inputs+op.Outputs)
	for n := range op.Inputs {
		values[n] = inputs[n] & ctx.Mask()
	}

	ok, err := op.Behavior.SimulateTrigger(values, ctx)
	if err != nil {
		err = ErrTrigger{Operation: op.Name, Err: err}
		return
	}
	if !ok {
		err = ErrTrigger{Operation: op.Name, Err: ErrTriggerResult}
		return
	}

	outputs = values[op.Inputs:]
	for n := range outputs {
		outputs[n] &= ctx.Mask()
	}

	return
}
