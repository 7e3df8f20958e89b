package bem

import (
	"errors"

	"github.com/ezrec/rvcustom/translate"
)

var f = translate.From

var (
	ErrFormatDuplicate    = errors.New(f("instruction format duplicated"))
	ErrFormatUnknown      = errors.New(f("instruction format unknown"))
	ErrOperationDuplicate = errors.New(f("operation duplicated in format"))
	ErrNotBaseline        = errors.New(f("operation not in baseline format"))
	ErrSelectorsExhausted = errors.New(f("function selectors exhausted"))
	ErrDecode             = errors.New(f("binary encoding map malformed"))
)

// ErrFormat is an error in the context of an instruction format.
type ErrFormat struct {
	Format    string
	Operation string
	Err       error
}

func (err ErrFormat) Error() string {
	if len(err.Operation) == 0 {
		return f("format %v: %v", err.Format, err.Err)
	}
	return f("format %v operation %v: %v", err.Format, err.Operation, err.Err)
}

func (err ErrFormat) Unwrap() error {
	return err.Err
}
