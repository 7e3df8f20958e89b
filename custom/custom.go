// Package custom discovers the custom operations of a binary encoding map.
package custom

import (
	"iter"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/ezrec/rvcustom/bem"
	"github.com/ezrec/rvcustom/riscv"
)

// Overwrite records an operation found in more than one custom format.
type Overwrite struct {
	Name     string
	Previous uint32
	Encoding uint32
}

// Ops maps custom operation names to their packed encodings, in discovery
// order.
type Ops struct {
	ops        *orderedmap.OrderedMap[string, uint32]
	formats    map[string]string
	overwrites []Overwrite
}

// Discover collects the custom operations of the custom-capable formats.
//
// Formats are scanned in the fixed order of riscv.Formats, and each format's
// operations in declaration order. Formats missing from the map are skipped.
// A name found again in a later format takes the later encoding but keeps its
// original position.
func Discover(be *bem.BinaryEncoding) (ops *Ops) {
	ops = &Ops{
		ops:     orderedmap.New[string, uint32](),
		formats: map[string]string{},
	}
	if be == nil {
		return
	}

	for _, known := range riscv.Formats {
		format, ok := be.InstructionFormat(known.Name)
		if !ok {
			continue
		}
		for name, encoding := range format.Operations() {
			if riscv.IsBaseline(name) {
				continue
			}
			previous, found := ops.ops.Set(name, encoding)
			ops.formats[name] = known.Name
			if found {
				ops.overwrites = append(ops.overwrites, Overwrite{
					Name:     name,
					Previous: previous,
					Encoding: encoding,
				})
			}
		}
	}

	return
}

// Len is the number of custom operations.
func (ops *Ops) Len() int {
	return ops.ops.Len()
}

// Encoding returns the packed encoding of an operation.
func (ops *Ops) Encoding(name string) (encoding riscv.Encoding, ok bool) {
	value, ok := ops.ops.Get(name)
	encoding = riscv.Encoding(value)
	return
}

// Format returns the custom-capable format an operation was discovered in.
func (ops *Ops) Format(name string) (format riscv.Format, ok bool) {
	formatName, ok := ops.formats[name]
	if !ok {
		return
	}
	return riscv.FormatByName(formatName)
}

// Names returns the operation names in discovery order.
func (ops *Ops) Names() []string {
	names := make([]string, 0, ops.ops.Len())
	for pair := ops.ops.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// All iterates over the operations in discovery order.
func (ops *Ops) All() iter.Seq2[string, riscv.Encoding] {
	return func(yield func(string, riscv.Encoding) bool) {
		for pair := ops.ops.Oldest(); pair != nil; pair = pair.Next() {
			if !yield(pair.Key, riscv.Encoding(pair.Value)) {
				return
			}
		}
	}
}

// Overwrites lists the operations that were found in more than one format.
func (ops *Ops) Overwrites() []Overwrite {
	return ops.overwrites
}
