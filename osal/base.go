package osal

import (
	"fmt"
	"math/bits"
)

// baseFunc computes the single output of a base operation.
type baseFunc func(ctx *Context, in []uint64) uint64

type baseBehavior struct {
	inputs int
	fn     baseFunc
}

func (bb baseBehavior) SimulateTrigger(values []uint64, ctx *Context) (ok bool, err error) {
	out := bb.fn(ctx, values[:bb.inputs])
	if len(values) > bb.inputs {
		values[bb.inputs] = out & ctx.Mask()
	}
	return true, nil
}

func flag(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func shamt(ctx *Context, value uint64) uint {
	return uint(value) & uint(ctx.Width-1)
}

// mulhi returns the high word of the product, with the operands signed as
// requested.
func mulhi(ctx *Context, a, b uint64, aSigned, bSigned bool) uint64 {
	if ctx.Width == 32 {
		var x, y int64
		if aSigned {
			x = ctx.Signed(a)
		} else {
			x = int64(a)
		}
		if bSigned {
			y = ctx.Signed(b)
		} else {
			y = int64(b)
		}
		return uint64(x*y) >> 32
	}

	hi, _ := bits.Mul64(a, b)
	if aSigned && int64(a) < 0 {
		hi -= b
	}
	if bSigned && int64(b) < 0 {
		hi -= a
	}
	return hi
}

var baseOperations = []struct {
	name   string
	inputs int
	desc   string
	fn     baseFunc
}{
	{"add", 2, "addition", func(ctx *Context, in []uint64) uint64 { return in[0] + in[1] }},
	{"sub", 2, "subtraction", func(ctx *Context, in []uint64) uint64 { return in[0] - in[1] }},
	{"mul", 2, "multiplication, low word", func(ctx *Context, in []uint64) uint64 { return in[0] * in[1] }},
	{"mulhi", 2, "signed multiplication, high word", func(ctx *Context, in []uint64) uint64 {
		return mulhi(ctx, in[0], in[1], true, true)
	}},
	{"mulhiu", 2, "unsigned multiplication, high word", func(ctx *Context, in []uint64) uint64 {
		return mulhi(ctx, in[0], in[1], false, false)
	}},
	{"mulhisu", 2, "signed by unsigned multiplication, high word", func(ctx *Context, in []uint64) uint64 {
		return mulhi(ctx, in[0], in[1], true, false)
	}},
	{"div", 2, "signed division", func(ctx *Context, in []uint64) uint64 {
		a, b := ctx.Signed(in[0]), ctx.Signed(in[1])
		switch {
		case b == 0:
			return ctx.Mask()
		case b == -1:
			return uint64(-a)
		}
		return uint64(a / b)
	}},
	{"divu", 2, "unsigned division", func(ctx *Context, in []uint64) uint64 {
		if in[1] == 0 {
			return ctx.Mask()
		}
		return in[0] / in[1]
	}},
	{"mod", 2, "signed remainder", func(ctx *Context, in []uint64) uint64 {
		a, b := ctx.Signed(in[0]), ctx.Signed(in[1])
		switch {
		case b == 0:
			return in[0]
		case b == -1:
			return 0
		}
		return uint64(a % b)
	}},
	{"modu", 2, "unsigned remainder", func(ctx *Context, in []uint64) uint64 {
		if in[1] == 0 {
			return in[0]
		}
		return in[0] % in[1]
	}},
	{"shl", 2, "shift left", func(ctx *Context, in []uint64) uint64 { return in[0] << shamt(ctx, in[1]) }},
	{"shr", 2, "arithmetic shift right", func(ctx *Context, in []uint64) uint64 {
		return uint64(ctx.Signed(in[0]) >> shamt(ctx, in[1]))
	}},
	{"shru", 2, "logical shift right", func(ctx *Context, in []uint64) uint64 { return in[0] >> shamt(ctx, in[1]) }},
	{"rotl", 2, "rotate left", func(ctx *Context, in []uint64) uint64 {
		if ctx.Width == 32 {
			return uint64(bits.RotateLeft32(uint32(in[0]), int(shamt(ctx, in[1]))))
		}
		return bits.RotateLeft64(in[0], int(shamt(ctx, in[1])))
	}},
	{"rotr", 2, "rotate right", func(ctx *Context, in []uint64) uint64 {
		if ctx.Width == 32 {
			return uint64(bits.RotateLeft32(uint32(in[0]), -int(shamt(ctx, in[1]))))
		}
		return bits.RotateLeft64(in[0], -int(shamt(ctx, in[1])))
	}},
	{"and", 2, "bitwise and", func(ctx *Context, in []uint64) uint64 { return in[0] & in[1] }},
	{"ior", 2, "bitwise or", func(ctx *Context, in []uint64) uint64 { return in[0] | in[1] }},
	{"xor", 2, "bitwise exclusive or", func(ctx *Context, in []uint64) uint64 { return in[0] ^ in[1] }},
	{"eq", 2, "equal", func(ctx *Context, in []uint64) uint64 { return flag(in[0] == in[1]) }},
	{"ne", 2, "not equal", func(ctx *Context, in []uint64) uint64 { return flag(in[0] != in[1]) }},
	{"lt", 2, "signed less than", func(ctx *Context, in []uint64) uint64 {
		return flag(ctx.Signed(in[0]) < ctx.Signed(in[1]))
	}},
	{"le", 2, "signed less or equal", func(ctx *Context, in []uint64) uint64 {
		return flag(ctx.Signed(in[0]) <= ctx.Signed(in[1]))
	}},
	{"gt", 2, "signed greater than", func(ctx *Context, in []uint64) uint64 {
		return flag(ctx.Signed(in[0]) > ctx.Signed(in[1]))
	}},
	{"ge", 2, "signed greater or equal", func(ctx *Context, in []uint64) uint64 {
		return flag(ctx.Signed(in[0]) >= ctx.Signed(in[1]))
	}},
	{"ltu", 2, "unsigned less than", func(ctx *Context, in []uint64) uint64 { return flag(in[0] < in[1]) }},
	{"leu", 2, "unsigned less or equal", func(ctx *Context, in []uint64) uint64 { return flag(in[0] <= in[1]) }},
	{"gtu", 2, "unsigned greater than", func(ctx *Context, in []uint64) uint64 { return flag(in[0] > in[1]) }},
	{"geu", 2, "unsigned greater or equal", func(ctx *Context, in []uint64) uint64 { return flag(in[0] >= in[1]) }},
	{"neg", 1, "negation", func(ctx *Context, in []uint64) uint64 { return -in[0] }},
	{"not", 1, "bitwise not", func(ctx *Context, in []uint64) uint64 { return ^in[0] }},
	{"sxhw", 1, "sign extend half word", func(ctx *Context, in []uint64) uint64 { return uint64(int64(int16(in[0]))) }},
	{"sxqw", 1, "sign extend quarter word", func(ctx *Context, in []uint64) uint64 { return uint64(int64(int8(in[0]))) }},
}

// stdoutBehavior writes the low byte of its input to the context output.
type stdoutBehavior struct{}

func (stdoutBehavior) SimulateTrigger(values []uint64, ctx *Context) (ok bool, err error) {
	_, err = fmt.Fprintf(ctx.writer(), "%c", byte(values[0]))
	ok = err == nil
	return
}

// BaseOperations returns a fresh copy of the built in operation set.
func BaseOperations() (ops []*Operation) {
	for _, base := range baseOperations {
		ops = append(ops, &Operation{
			Name:        base.name,
			Description: base.desc,
			Inputs:      base.inputs,
			Outputs:     1,
			Behavior:    baseBehavior{inputs: base.inputs, fn: base.fn},
		})
	}

	ops = append(ops, &Operation{
		Name:        "stdout",
		Description: "write a character to the simulation output",
		Inputs:      1,
		Outputs:     0,
		Behavior:    stdoutBehavior{},
	})

	return
}
