// Package tdgen generates LLVM TableGen backend descriptions.
//
// The generic pattern engine turns operation DAGs into LLVM selection DAG
// patterns over the base operation set. The RISC-V generator binds the
// custom operations of a binary encoding map to instruction definitions and
// rewrites the generic patterns into RISC-V target syntax.
package tdgen

import (
	"fmt"
	"strings"

	"github.com/ezrec/rvcustom/osal"
)

// llvmPatterns maps base operations to LLVM selection DAG nodes. %N% is
// replaced by the N'th operand.
var llvmPatterns = map[string]string{
	"add":    "add %1%, %2%",
	"sub":    "sub %1%, %2%",
	"mul":    "mul %1%, %2%",
	"mulhi":  "mulhs %1%, %2%",
	"mulhiu": "mulhu %1%, %2%",
	"div":    "sdiv %1%, %2%",
	"divu":   "udiv %1%, %2%",
	"mod":    "srem %1%, %2%",
	"modu":   "urem %1%, %2%",
	"shl":    "shl %1%, %2%",
	"shr":    "sra %1%, %2%",
	"shru":   "srl %1%, %2%",
	"rotl":   "rotl %1%, %2%",
	"rotr":   "rotr %1%, %2%",
	"and":    "and %1%, %2%",
	"ior":    "or %1%, %2%",
	"xor":    "xor %1%, %2%",
	"eq":     "seteq %1%, %2%",
	"ne":     "setne %1%, %2%",
	"lt":     "setlt %1%, %2%",
	"le":     "setle %1%, %2%",
	"gt":     "setgt %1%, %2%",
	"ge":     "setge %1%, %2%",
	"ltu":    "setult %1%, %2%",
	"leu":    "setule %1%, %2%",
	"gtu":    "setugt %1%, %2%",
	"geu":    "setuge %1%, %2%",
	"neg":    "ineg %1%",
	"not":    "not %1%",
	"sxhw":   "sext_inreg %1%, i16",
	"sxqw":   "sext_inreg %1%, i8",
}

// LLVMOperationPattern returns the LLVM node pattern of a base operation.
func LLVMOperationPattern(name string) (pattern string, ok bool) {
	pattern, ok = llvmPatterns[strings.ToLower(name)]
	return
}

// RegisterClass returns the generic register class and value type of a
// word size.
func RegisterClass(wordSize int) (class string, vt string) {
	if wordSize == 64 {
		return "R64Regs", "i64"
	}
	return "R32IRegs", "i32"
}

// Matcher decides which operations can be expressed as LLVM patterns.
type Matcher struct {
	Pool *osal.Pool
}

// CanBeMatched reports whether op has an LLVM node, or a first DAG made only
// of matchable operations.
func (m *Matcher) CanBeMatched(op *osal.Operation) bool {
	return m.canBeMatched(op, map[string]bool{})
}

func (m *Matcher) canBeMatched(op *osal.Operation, visiting map[string]bool) bool {
	if _, ok := LLVMOperationPattern(op.Name); ok {
		return true
	}
	if len(op.DAGs) == 0 || visiting[op.Name] {
		return false
	}

	visiting[op.Name] = true
	defer delete(visiting, op.Name)

	return m.dagMatchable(op.DAGs[0], visiting)
}

func (m *Matcher) dagMatchable(dag *osal.DAG, visiting map[string]bool) bool {
	for _, node := range dag.Operations() {
		ref, ok := m.Pool.Operation(node.Operation)
		if !ok || !m.canBeMatched(ref, visiting) {
			return false
		}
	}
	return true
}

// MatchableDAGs returns every DAG of op made only of matchable operations.
func (m *Matcher) MatchableDAGs(op *osal.Operation) (dags []*osal.DAG) {
	for _, dag := range op.DAGs {
		visiting := map[string]bool{op.Name: true}
		if m.dagMatchable(dag, visiting) {
			dags = append(dags, dag)
		}
	}
	return
}

// TrivialDAG returns the DAG applying op directly to its inputs.
func TrivialDAG(op *osal.Operation) *osal.DAG {
	root := &osal.OperationNode{Operation: op.Name}
	for n := range op.Inputs {
		root.Args = append(root.Args, &osal.TerminalNode{Operand: n + 1})
	}
	return &osal.DAG{Root: root}
}

// OperationPattern renders a DAG of op as a generic LLVM pattern, for
// example:
//
//	(set R32IRegs:$op3, (xor (shl R32IRegs:$op1, (i32 8)), R32IRegs:$op2))
func (m *Matcher) OperationPattern(op *osal.Operation, dag *osal.DAG, wordSize int) (pattern string, err error) {
	class, _ := RegisterClass(wordSize)

	operands := make([]string, op.Inputs)
	for n := range operands {
		operands[n] = fmt.Sprintf("%s:$op%d", class, n+1)
	}

	body, err := m.render(dag.Root, operands, wordSize, map[string]bool{op.Name: true})
	if err != nil {
		err = ErrOperation{Name: op.Name, Err: err}
		return
	}

	pattern = fmt.Sprintf("(set %s:$op%d, %s)", class, op.Inputs+1, body)
	return
}

func (m *Matcher) render(node osal.Node, operands []string, wordSize int, visiting map[string]bool) (text string, err error) {
	_, vt := RegisterClass(wordSize)

	switch n := node.(type) {
	case *osal.TerminalNode:
		if n.Operand < 1 || n.Operand > len(operands) {
			err = ErrPatternArguments
			return
		}
		text = operands[n.Operand-1]
	case *osal.ConstantNode:
		text = fmt.Sprintf("(%s %d)", vt, n.Value)
	case *osal.OperationNode:
		args := make([]string, len(n.Args))
		for i, arg := range n.Args {
			args[i], err = m.render(arg, operands, wordSize, visiting)
			if err != nil {
				return
			}
		}
		text, err = m.expand(n.Operation, args, wordSize, visiting)
	default:
		err = ErrPatternArguments
	}

	return
}

// expand renders one operation applied to already rendered arguments.
func (m *Matcher) expand(name string, args []string, wordSize int, visiting map[string]bool) (text string, err error) {
	if pattern, ok := LLVMOperationPattern(name); ok {
		for n, arg := range args {
			placeholder := fmt.Sprintf("%%%d%%", n+1)
			if !strings.Contains(pattern, placeholder) {
				err = ErrPatternArguments
				return
			}
			pattern = strings.ReplaceAll(pattern, placeholder, arg)
		}
		if strings.Contains(pattern, "%") {
			err = ErrPatternArguments
			return
		}
		text = "(" + pattern + ")"
		return
	}

	ref, ok := m.Pool.Operation(name)
	if !ok {
		err = ErrOperation{Name: name, Err: ErrOperationMissing}
		return
	}
	if visiting[ref.Name] {
		err = ErrOperation{Name: name, Err: ErrPatternRecursion}
		return
	}
	if len(args) != ref.Inputs {
		err = ErrOperation{Name: name, Err: ErrPatternArguments}
		return
	}

	dags := m.MatchableDAGs(ref)
	if len(dags) == 0 {
		err = ErrOperation{Name: name, Err: ErrUnmatchable}
		return
	}

	visiting[ref.Name] = true
	defer delete(visiting, ref.Name)

	return m.render(dags[0].Root, args, wordSize, visiting)
}
