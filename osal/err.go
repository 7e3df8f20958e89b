package osal

import (
	"errors"

	"github.com/ezrec/rvcustom/translate"
)

var f = translate.From

var (
	ErrOperationDuplicate = errors.New(f("operation duplicated"))
	ErrOperationInvalid   = errors.New(f("operation definition invalid"))
	ErrDagInvalid         = errors.New(f("dag invalid"))
	ErrTriggerResult      = errors.New(f("trigger result invalid"))
	ErrTriggerMissing     = errors.New(f("trigger missing"))
	ErrWidth              = errors.New(f("word width must be 32 or 64"))
	ErrOperands           = errors.New(f("operand count mismatch"))
)

// ErrModule is an error loading an operation module.
type ErrModule struct {
	Path string
	Err  error
}

func (err ErrModule) Error() string {
	return f("module %v: %v", err.Path, err.Err)
}

func (err ErrModule) Unwrap() error {
	return err.Err
}

// ErrTrigger is an error raised while simulating an operation.
type ErrTrigger struct {
	Operation string
	Err       error
}

func (err ErrTrigger) Error() string {
	return f("trigger %v: %v", err.Operation, err.Err)
}

func (err ErrTrigger) Unwrap() error {
	return err.Err
}
