package tdgen

import (
	"errors"

	"github.com/ezrec/rvcustom/translate"
)

var f = translate.From

var (
	ErrUnrepresentableShape = errors.New(f("no instruction template for operation shape"))
	ErrOperationMissing     = errors.New(f("operation not in semantics registry"))
	ErrUnsupportedArity     = errors.New(f("unsupported arity for pattern"))
	ErrUnmatchable          = errors.New(f("operation cannot be matched"))
	ErrPatternArguments     = errors.New(f("pattern argument count mismatch"))
	ErrPatternRecursion     = errors.New(f("pattern recursion"))
	ErrLiteral              = errors.New(f("malformed literal"))
	ErrWordSize             = errors.New(f("word size must be 32 or 64"))
)

// ErrOperation is an error generating the backend of one operation.
type ErrOperation struct {
	Name string
	Err  error
}

func (err ErrOperation) Error() string {
	return f("operation %v: %v", err.Name, err.Err)
}

func (err ErrOperation) Unwrap() error {
	return err.Err
}

// ErrLiteralText is a literal the pattern rewriter refused.
type ErrLiteralText string

func (err ErrLiteralText) Error() string {
	return f("'%v' is not a decimal literal", string(err))
}

func (err ErrLiteralText) Is(target error) bool {
	return target == ErrLiteral
}
