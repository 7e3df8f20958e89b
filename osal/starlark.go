package osal

import (
	"fmt"
	"math/big"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Thread local key holding the *Context of a trigger call.
const contextKey = "osal.context"

// dagValue is a DAG node as seen by Starlark code.
type dagValue struct {
	node Node
}

var _ starlark.Value = dagValue{}

func (dv dagValue) String() string        { return dv.node.String() }
func (dv dagValue) Type() string          { return "dag" }
func (dv dagValue) Freeze()               {}
func (dv dagValue) Truth() starlark.Bool  { return starlark.True }
func (dv dagValue) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: dag") }

// toNode converts a Starlark DAG argument.
func toNode(value starlark.Value) (node Node, err error) {
	switch v := value.(type) {
	case dagValue:
		node = v.node
	case starlark.Int:
		i64, ok := v.Int64()
		if !ok {
			err = fmt.Errorf("dag constant %v out of range", v)
			return
		}
		node = &ConstantNode{Value: i64}
	default:
		err = fmt.Errorf("dag argument must be a dag or an int, not %v", value.Type())
	}
	return
}

// builtinIN implements IN(n).
func builtinIN(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (value starlark.Value, err error) {
	var operand int
	err = starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &operand)
	if err != nil {
		return
	}
	if operand < 1 {
		err = fmt.Errorf("%v: operand %d out of range", b.Name(), operand)
		return
	}
	value = dagValue{node: &TerminalNode{Operand: operand}}
	return
}

// builtinOp implements op(name, args...).
func builtinOp(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (value starlark.Value, err error) {
	if len(kwargs) != 0 || len(args) == 0 {
		err = fmt.Errorf("%v: expected op(name, args...)", b.Name())
		return
	}
	name, ok := starlark.AsString(args[0])
	if !ok || len(name) == 0 {
		err = fmt.Errorf("%v: operation name must be a string", b.Name())
		return
	}

	node := &OperationNode{Operation: strings.ToLower(name)}
	for _, arg := range args[1:] {
		var child Node
		child, err = toNode(arg)
		if err != nil {
			err = fmt.Errorf("%v: %w", b.Name(), err)
			return
		}
		node.Args = append(node.Args, child)
	}

	value = dagValue{node: node}
	return
}

func threadContext(thread *starlark.Thread, name string) (ctx *Context, err error) {
	ctx, ok := thread.Local(contextKey).(*Context)
	if !ok {
		err = fmt.Errorf("%v: only available inside a trigger", name)
	}
	return
}

// builtinWordBits implements word_bits().
func builtinWordBits(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (value starlark.Value, err error) {
	err = starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0)
	if err != nil {
		return
	}
	ctx, err := threadContext(thread, b.Name())
	if err != nil {
		return
	}
	value = starlark.MakeInt(ctx.Width)
	return
}

// builtinMask implements mask(value).
func builtinMask(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (value starlark.Value, err error) {
	var in starlark.Int
	err = starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &in)
	if err != nil {
		return
	}
	ctx, err := threadContext(thread, b.Name())
	if err != nil {
		return
	}
	value = starlark.MakeUint64(maskInt(in, ctx))
	return
}

// builtinSigned implements signed(value).
func builtinSigned(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (value starlark.Value, err error) {
	var in starlark.Int
	err = starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &in)
	if err != nil {
		return
	}
	ctx, err := threadContext(thread, b.Name())
	if err != nil {
		return
	}
	value = starlark.MakeInt64(ctx.Signed(maskInt(in, ctx)))
	return
}

// maskInt truncates a Starlark integer to the context width, two's
// complement.
func maskInt(in starlark.Int, ctx *Context) uint64 {
	mask := new(big.Int).SetUint64(ctx.Mask())
	return new(big.Int).And(in.BigInt(), mask).Uint64()
}

// starlarkBehavior calls a Starlark trigger function.
type starlarkBehavior struct {
	name    string
	inputs  int
	outputs int
	fn      starlark.Callable
}

func (sb *starlarkBehavior) SimulateTrigger(values []uint64, ctx *Context) (ok bool, err error) {
	thread := &starlark.Thread{
		Name: sb.name,
		Print: func(_ *starlark.Thread, msg string) {
			fmt.Fprintln(ctx.writer(), msg)
		},
	}
	thread.SetLocal(contextKey, ctx)

	args := make(starlark.Tuple, sb.inputs)
	for n := range sb.inputs {
		args[n] = starlark.MakeUint64(values[n])
	}

	result, err := starlark.Call(thread, sb.fn, args, nil)
	if err != nil {
		return
	}

	var results []starlark.Value
	switch r := result.(type) {
	case starlark.NoneType:
	case starlark.Int:
		results = []starlark.Value{r}
	case starlark.Tuple:
		results = r
	case *starlark.List:
		for n := range r.Len() {
			results = append(results, r.Index(n))
		}
	case starlark.Bool:
		// A bare boolean reports success or failure of an output-less
		// trigger.
		if sb.outputs == 0 {
			return bool(r), nil
		}
		results = []starlark.Value{starlark.MakeInt(int(b2i(bool(r))))}
	default:
		err = fmt.Errorf("%w: %v", ErrTriggerResult, result.Type())
		return
	}

	if len(results) != sb.outputs {
		err = fmt.Errorf("%w: %d results for %d outputs", ErrTriggerResult, len(results), sb.outputs)
		return
	}

	for n, value := range results {
		in, isInt := value.(starlark.Int)
		if !isInt {
			err = fmt.Errorf("%w: %v", ErrTriggerResult, value.Type())
			return
		}
		values[sb.inputs+n] = maskInt(in, ctx)
	}

	ok = true
	return
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// moduleLoader executes one Starlark operation module.
type moduleLoader struct {
	path string
	ops  []*Operation
}

// builtinOperation implements operation(...).
func (ml *moduleLoader) builtinOperation(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (value starlark.Value, err error) {
	var name, description string
	var inputs, outputs int
	var trigger starlark.Callable
	var dags *starlark.List

	err = starlark.UnpackArgs(b.Name(), args, kwargs,
		"name", &name,
		"inputs", &inputs,
		"outputs", &outputs,
		"trigger", &trigger,
		"dags?", &dags,
		"description?", &description,
	)
	if err != nil {
		return
	}

	if len(name) == 0 || inputs < 0 || outputs < 0 {
		err = fmt.Errorf("%w: %v", ErrOperationInvalid, name)
		return
	}

	op := &Operation{
		Name:        strings.ToLower(name),
		Description: description,
		Inputs:      inputs,
		Outputs:     outputs,
		Module:      ml.path,
		Behavior: &starlarkBehavior{
			name:    name,
			inputs:  inputs,
			outputs: outputs,
			fn:      trigger,
		},
	}

	if dags != nil {
		for n := range dags.Len() {
			node, ok := dags.Index(n).(dagValue)
			if !ok {
				err = fmt.Errorf("%w: %v dag %d is %v", ErrDagInvalid, name, n, dags.Index(n).Type())
				return
			}
			root, ok := node.node.(*OperationNode)
			if !ok {
				err = fmt.Errorf("%w: %v dag %d has no operation", ErrDagInvalid, name, n)
				return
			}
			dag := &DAG{Root: root}
			err = dag.Validate(inputs)
			if err != nil {
				err = fmt.Errorf("%w: %v dag %v", err, name, dag)
				return
			}
			op.DAGs = append(op.DAGs, dag)
		}
	}

	for _, other := range ml.ops {
		if other.Name == op.Name {
			err = fmt.Errorf("%w: %v", ErrOperationDuplicate, name)
			return
		}
	}

	ml.ops = append(ml.ops, op)

	value = starlark.None
	return
}

// exec runs the module source, collecting its operations.
func (ml *moduleLoader) exec(src any) (err error) {
	thread := &starlark.Thread{
		Name: ml.path,
		Load: func(_ *starlark.Thread, module string) (starlark.StringDict, error) {
			return nil, fmt.Errorf("load(%q) is not supported", module)
		},
	}

	opts := syntax.FileOptions{
		TopLevelControl: true,
		While:           true,
	}

	predeclared := starlark.StringDict{
		"operation": starlark.NewBuiltin("operation", ml.builtinOperation),
		"IN":        starlark.NewBuiltin("IN", builtinIN),
		"op":        starlark.NewBuiltin("op", builtinOp),
		"word_bits": starlark.NewBuiltin("word_bits", builtinWordBits),
		"mask":      starlark.NewBuiltin("mask", builtinMask),
		"signed":    starlark.NewBuiltin("signed", builtinSigned),
	}

	_, err = starlark.ExecFileOptions(&opts, thread, ml.path, src, predeclared)
	if err != nil {
		err = ErrModule{Path: ml.path, Err: err}
	}
	return
}
