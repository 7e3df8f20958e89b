package emulator

import (
	"errors"

	"github.com/ezrec/rvcustom/translate"
)

var f = translate.From

var (
	ErrInstructionIllegal = errors.New(f("illegal instruction"))
	ErrPcInvalid          = errors.New(f("pc outside of program"))
	ErrWidth              = errors.New(f("register width must be 32 or 64"))
)

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	Pc     uint32
	LineNo int
	Err    error
}

func (err *ErrRuntime) Error() string {
	return f("line %d (pc %#x) %v", err.LineNo, err.Pc, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
