package osal

import (
	"fmt"
	"strings"
)

// Node is a node of an operation DAG.
type Node interface {
	fmt.Stringer
	node()
}

// TerminalNode refers to an operand of the enclosing operation. Operands
// are numbered from 1; inputs come first, then outputs.
type TerminalNode struct {
	Operand int
}

// ConstantNode is an integer literal.
type ConstantNode struct {
	Value int64
}

// OperationNode applies an operation to its argument nodes.
type OperationNode struct {
	Operation string
	Args      []Node
}

func (*TerminalNode) node()  {}
func (*ConstantNode) node()  {}
func (*OperationNode) node() {}

func (node *TerminalNode) String() string {
	return fmt.Sprintf("IN(%d)", node.Operand)
}

func (node *ConstantNode) String() string {
	return fmt.Sprintf("%d", node.Value)
}

func (node *OperationNode) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "op(%q", node.Operation)
	for _, arg := range node.Args {
		sb.WriteString(", ")
		sb.WriteString(arg.String())
	}
	sb.WriteString(")")
	return sb.String()
}

// DAG expresses an operation in terms of other operations. The root node
// computes the first output operand.
type DAG struct {
	Root *OperationNode
}

func (dag *DAG) String() string {
	return dag.Root.String()
}

// Operations returns the operation nodes of the DAG, parents before
// children.
func (dag *DAG) Operations() (nodes []*OperationNode) {
	var walk func(node *OperationNode)
	walk = func(node *OperationNode) {
		nodes = append(nodes, node)
		for _, arg := range node.Args {
			if child, ok := arg.(*OperationNode); ok {
				walk(child)
			}
		}
	}
	walk(dag.Root)
	return
}

// Validate checks that every terminal refers to an input of an operation
// with the given number of inputs.
func (dag *DAG) Validate(inputs int) (err error) {
	if dag.Root == nil {
		return ErrDagInvalid
	}
	var check func(node Node) error
	check = func(node Node) error {
		switch n := node.(type) {
		case *TerminalNode:
			if n.Operand < 1 || n.Operand > inputs {
				return ErrDagInvalid
			}
		case *OperationNode:
			if len(n.Operation) == 0 {
				return ErrDagInvalid
			}
			for _, arg := range n.Args {
				if err := check(arg); err != nil {
					return err
				}
			}
		case *ConstantNode:
		default:
			return ErrDagInvalid
		}
		return nil
	}
	return check(dag.Root)
}
