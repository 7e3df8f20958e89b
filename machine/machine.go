// Package machine loads processor machine descriptions.
//
// A machine description names the function units of a custom datapath, the
// operations they implement, and the operation-triggered instruction
// formats those operations are encoded in. Descriptions are YAML documents:
//
//	name: crc-accel
//	word-size: 32
//	function-units:
//	  - name: crc
//	    operations: [crc_xor_shift, reflect32]
//	formats:
//	  - name: riscv_r_type
//	    operations: [add, sub, crc_xor_shift]
//	  - name: riscv_r1r_type
//	    operations: [reflect32]
package machine

import (
	"bytes"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/pkg/errors"

	"github.com/ezrec/rvcustom/translate"
)

var f = translate.From

var (
	ErrWordSize = errors.New(f("word-size must be 32 or 64"))
	ErrEmpty    = errors.New(f("machine description is empty"))
	ErrFormat   = errors.New(f("format without a name"))
)

// FunctionUnit is a hardware unit implementing a set of operations.
type FunctionUnit struct {
	Name       string   `yaml:"name"`
	Operations []string `yaml:"operations"`
}

// OperationTriggeredFormat assigns operations to an instruction format.
type OperationTriggeredFormat struct {
	Name       string   `yaml:"name"`
	Operations []string `yaml:"operations"`
}

// OperationCount returns the number of operations in the format.
func (format *OperationTriggeredFormat) OperationCount() int {
	return len(format.Operations)
}

// OperationAtIndex returns the i'th operation of the format.
func (format *OperationTriggeredFormat) OperationAtIndex(i int) string {
	return format.Operations[i]
}

// Machine is a loaded machine description.
type Machine struct {
	Name          string                      `yaml:"name"`
	WordSize      int                         `yaml:"word-size"`
	FunctionUnits []FunctionUnit              `yaml:"function-units"`
	Formats       []*OperationTriggeredFormat `yaml:"formats"`

	Path string `yaml:"-"` // File the machine was loaded from, if any.
}

// Is64Bit reports whether the machine has 64-bit registers.
func (mach *Machine) Is64Bit() bool {
	return mach.WordSize == 64
}

// Format returns the named operation-triggered format.
func (mach *Machine) Format(name string) (format *OperationTriggeredFormat, ok bool) {
	idx := slices.IndexFunc(mach.Formats, func(f *OperationTriggeredFormat) bool {
		return f.Name == name
	})
	if idx < 0 {
		return
	}
	return mach.Formats[idx], true
}

// FunctionUnitOf returns the function unit implementing an operation.
func (mach *Machine) FunctionUnitOf(op string) (fu *FunctionUnit, ok bool) {
	for n := range mach.FunctionUnits {
		if slices.Contains(mach.FunctionUnits[n].Operations, op) {
			return &mach.FunctionUnits[n], true
		}
	}
	return
}

// Unimplemented lists, in format order, the format operations that no
// function unit implements.
func (mach *Machine) Unimplemented() (ops []string) {
	for _, format := range mach.Formats {
		for _, op := range format.Operations {
			if _, ok := mach.FunctionUnitOf(op); ok || slices.Contains(ops, op) {
				continue
			}
			ops = append(ops, op)
		}
	}
	return
}

// lower folds operation names to lower case.
func lower(ops []string) {
	for n, op := range ops {
		ops[n] = strings.ToLower(op)
	}
}

// Parse reads a machine description. Operation names are case-insensitive,
// and are folded to lower case.
func Parse(input io.Reader) (mach *Machine, err error) {
	data, err := io.ReadAll(input)
	if err != nil {
		err = errors.Wrap(err, f("reading machine description"))
		return
	}

	if len(bytes.TrimSpace(data)) == 0 {
		err = ErrEmpty
		return
	}

	mach = &Machine{}
	err = yaml.UnmarshalWithOptions(data, mach, yaml.Strict())
	if err != nil {
		mach = nil
		err = errors.Wrap(err, f("parsing machine description"))
		return
	}

	if mach.WordSize == 0 {
		mach.WordSize = 32
	}
	if mach.WordSize != 32 && mach.WordSize != 64 {
		mach = nil
		err = ErrWordSize
		return
	}

	for _, format := range mach.Formats {
		if format == nil || len(format.Name) == 0 {
			mach = nil
			err = ErrFormat
			return
		}
		lower(format.Operations)
	}

	for _, fu := range mach.FunctionUnits {
		lower(fu.Operations)
	}

	return
}

// Load reads a machine description file.
func Load(path string) (mach *Machine, err error) {
	inf, err := os.Open(path)
	if err != nil {
		err = errors.Wrap(err, f("loading machine %v", path))
		return
	}
	defer inf.Close()

	mach, err = Parse(inf)
	if err != nil {
		err = errors.Wrap(err, f("loading machine %v", path))
		return
	}

	mach.Path = path

	return
}
