// Package bem models binary encoding maps.
//
// A binary encoding map describes how each instruction word shape is split
// into operation-triggered encodings and raw bit ranges, and which packed
// integer selects each operation within its shape.
package bem

import (
	"iter"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// OperationTriggeredField is a contiguous bit range of an encoding. Fields
// with different piece indices are parts of one value split across the
// instruction word.
type OperationTriggeredField struct {
	Piece int
	Start int
	Width int
}

// OperationTriggeredEncoding is a named sub-encoding of an instruction
// format.
type OperationTriggeredEncoding struct {
	Name   string
	Fields []OperationTriggeredField
}

// AddField appends a bit range to the encoding.
func (enc *OperationTriggeredEncoding) AddField(piece, start, width int) *OperationTriggeredEncoding {
	enc.Fields = append(enc.Fields, OperationTriggeredField{Piece: piece, Start: start, Width: width})
	return enc
}

// Width is the total number of bits of the encoding.
func (enc *OperationTriggeredEncoding) Width() (width int) {
	for _, field := range enc.Fields {
		width += field.Width
	}
	return
}

// InstructionFormat is one instruction word shape.
type InstructionFormat struct {
	Name      string
	Encodings []*OperationTriggeredEncoding

	operations *orderedmap.OrderedMap[string, uint32]
}

// NewInstructionFormat returns an empty format.
func NewInstructionFormat(name string) *InstructionFormat {
	return &InstructionFormat{
		Name:       name,
		operations: orderedmap.New[string, uint32](),
	}
}

// AddEncoding appends a new named sub-encoding.
func (format *InstructionFormat) AddEncoding(name string) (enc *OperationTriggeredEncoding) {
	enc = &OperationTriggeredEncoding{Name: name}
	format.Encodings = append(format.Encodings, enc)
	return
}

// Encoding returns the named sub-encoding.
func (format *InstructionFormat) Encoding(name string) (enc *OperationTriggeredEncoding, ok bool) {
	for _, enc = range format.Encodings {
		if enc.Name == name {
			return enc, true
		}
	}
	return nil, false
}

// Width is the sum of the sub-encoding widths.
func (format *InstructionFormat) Width() (width int) {
	for _, enc := range format.Encodings {
		width += enc.Width()
	}
	return
}

// AddOperation maps an operation to its packed encoding.
func (format *InstructionFormat) AddOperation(name string, encoding uint32) (err error) {
	if _, present := format.operations.Get(name); present {
		err = ErrFormat{Format: format.Name, Operation: name, Err: ErrOperationDuplicate}
		return
	}
	format.operations.Set(name, encoding)
	return
}

// Operation returns the packed encoding of an operation.
func (format *InstructionFormat) Operation(name string) (encoding uint32, ok bool) {
	return format.operations.Get(name)
}

// OperationCount is the number of operations in the format.
func (format *InstructionFormat) OperationCount() int {
	return format.operations.Len()
}

// Operations iterates over operation names and encodings in declaration
// order.
func (format *InstructionFormat) Operations() iter.Seq2[string, uint32] {
	return func(yield func(string, uint32) bool) {
		for pair := format.operations.Oldest(); pair != nil; pair = pair.Next() {
			if !yield(pair.Key, pair.Value) {
				return
			}
		}
	}
}

// Alias records two operations sharing one packed encoding.
type Alias struct {
	Format   string
	Encoding uint32
	First    string
	Second   string
}

// BinaryEncoding is a complete binary encoding map.
type BinaryEncoding struct {
	Machine string  // Name of the machine the map was generated for.
	Aliases []Alias // Encodings handed out more than once.

	formats []*InstructionFormat
}

// AddInstructionFormat appends a format. Format names are unique.
func (be *BinaryEncoding) AddInstructionFormat(format *InstructionFormat) (err error) {
	if _, ok := be.InstructionFormat(format.Name); ok {
		err = ErrFormat{Format: format.Name, Err: ErrFormatDuplicate}
		return
	}
	be.formats = append(be.formats, format)
	return
}

// InstructionFormat returns the named format.
func (be *BinaryEncoding) InstructionFormat(name string) (format *InstructionFormat, ok bool) {
	for _, format = range be.formats {
		if format.Name == name {
			return format, true
		}
	}
	return nil, false
}

// InstructionFormatCount is the number of formats.
func (be *BinaryEncoding) InstructionFormatCount() int {
	return len(be.formats)
}

// InstructionFormatAt returns the i'th format.
func (be *BinaryEncoding) InstructionFormatAt(i int) *InstructionFormat {
	return be.formats[i]
}

// InstructionFormats iterates over the formats in order.
func (be *BinaryEncoding) InstructionFormats() iter.Seq[*InstructionFormat] {
	return func(yield func(*InstructionFormat) bool) {
		for _, format := range be.formats {
			if !yield(format) {
				return
			}
		}
	}
}

// Width is the width of the widest format.
func (be *BinaryEncoding) Width() (width int) {
	for _, format := range be.formats {
		width = max(width, format.Width())
	}
	return
}

// Empty reports whether the map has no operations at all.
func (be *BinaryEncoding) Empty() bool {
	for _, format := range be.formats {
		if format.OperationCount() > 0 {
			return false
		}
	}
	return true
}
