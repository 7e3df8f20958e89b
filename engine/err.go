package engine

import (
	"errors"

	"github.com/ezrec/rvcustom/riscv"
	"github.com/ezrec/rvcustom/translate"
)

var f = translate.From

var (
	// Initialization errors
	ErrLoad       = errors.New(f("machine description could not be loaded"))
	ErrGeneration = errors.New(f("binary encoding map is empty"))
	ErrDiscovery  = errors.New(f("no custom operations found"))

	// Decode errors
	ErrEmptyState         = errors.New(f("customOps map is empty. Did you initialize the machine first"))
	ErrUnknownOpcode      = errors.New(f("Unknown base opcode"))
	ErrOperationNotFound  = errors.New(f("Operation not found"))
	ErrUnknownOperation   = errors.New(f("No behavior implementation found for operation"))
	ErrInsufficientInputs = errors.New(f("Not enough input values"))
)

// ErrInit is an error initializing the engine from a machine description.
type ErrInit struct {
	Path string
	Err  error
}

func (err ErrInit) Error() string {
	return f("initialize %v: %v", err.Path, err.Err)
}

func (err ErrInit) Unwrap() error {
	return err.Err
}

// ErrUnpack is an error unpacking an instruction word.
type ErrUnpack struct {
	Word uint32
	Err  error
}

func (err ErrUnpack) Error() string {
	return f("unpack %v: %v", riscv.Word(err.Word).String(), err.Err)
}

func (err ErrUnpack) Unwrap() error {
	return err.Err
}

// ErrExecute is an error executing an operation.
type ErrExecute struct {
	Operation string
	Err       error
}

func (err ErrExecute) Error() string {
	return f("execute %v: %v", err.Operation, err.Err)
}

func (err ErrExecute) Unwrap() error {
	return err.Err
}
