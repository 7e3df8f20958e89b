package bem

import (
	"os"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
)

// FILE_EXT is the file extension of saved binary encoding maps.
const FILE_EXT = ".bem"

var cborEncMode = func() cbor.EncMode {
	encMode, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return encMode
}()

var cborDecMode = func() cbor.DecMode {
	decMode, err := cbor.DecOptions{
		IndefLength:      cbor.IndefLengthForbidden,
		MaxArrayElements: 1 << 16,
		MaxMapPairs:      1 << 16,
		MaxNestedLevels:  16,
	}.DecMode()
	if err != nil {
		panic(err)
	}
	return decMode
}()

type wireField struct {
	_     struct{} `cbor:",toarray"`
	Piece int
	Start int
	Width int
}

type wireEncoding struct {
	Name   string      `cbor:"1,keyasint"`
	Fields []wireField `cbor:"2,keyasint"`
}

type wireOperation struct {
	_        struct{} `cbor:",toarray"`
	Name     string
	Encoding uint32
}

type wireFormat struct {
	Name       string          `cbor:"1,keyasint"`
	Encodings  []wireEncoding  `cbor:"2,keyasint"`
	Operations []wireOperation `cbor:"3,keyasint"`
}

type wireAlias struct {
	_        struct{} `cbor:",toarray"`
	Format   string
	Encoding uint32
	First    string
	Second   string
}

type wireBinaryEncoding struct {
	Machine string       `cbor:"1,keyasint"`
	Formats []wireFormat `cbor:"2,keyasint"`
	Aliases []wireAlias  `cbor:"3,keyasint,omitempty"`
}

// Marshal encodes the map as deterministic CBOR.
func (be *BinaryEncoding) Marshal() (data []byte, err error) {
	wire := wireBinaryEncoding{Machine: be.Machine}

	for _, format := range be.formats {
		wf := wireFormat{Name: format.Name}
		for _, enc := range format.Encodings {
			we := wireEncoding{Name: enc.Name}
			for _, field := range enc.Fields {
				we.Fields = append(we.Fields, wireField{Piece: field.Piece, Start: field.Start, Width: field.Width})
			}
			wf.Encodings = append(wf.Encodings, we)
		}
		for name, encoding := range format.Operations() {
			wf.Operations = append(wf.Operations, wireOperation{Name: name, Encoding: encoding})
		}
		wire.Formats = append(wire.Formats, wf)
	}

	for _, alias := range be.Aliases {
		wire.Aliases = append(wire.Aliases, wireAlias{
			Format:   alias.Format,
			Encoding: alias.Encoding,
			First:    alias.First,
			Second:   alias.Second,
		})
	}

	return cborEncMode.Marshal(&wire)
}

// Unmarshal decodes a map encoded by Marshal.
func Unmarshal(data []byte) (be *BinaryEncoding, err error) {
	var wire wireBinaryEncoding
	err = cborDecMode.Unmarshal(data, &wire)
	if err != nil {
		err = errors.Wrap(ErrDecode, err.Error())
		return
	}

	decoded := &BinaryEncoding{Machine: wire.Machine}
	for _, wf := range wire.Formats {
		format := NewInstructionFormat(wf.Name)
		for _, we := range wf.Encodings {
			enc := format.AddEncoding(we.Name)
			for _, field := range we.Fields {
				enc.AddField(field.Piece, field.Start, field.Width)
			}
		}
		for _, op := range wf.Operations {
			err = format.AddOperation(op.Name, op.Encoding)
			if err != nil {
				err = errors.Wrap(ErrDecode, err.Error())
				return
			}
		}
		err = decoded.AddInstructionFormat(format)
		if err != nil {
			err = errors.Wrap(ErrDecode, err.Error())
			return
		}
	}

	for _, alias := range wire.Aliases {
		decoded.Aliases = append(decoded.Aliases, Alias{
			Format:   alias.Format,
			Encoding: alias.Encoding,
			First:    alias.First,
			Second:   alias.Second,
		})
	}

	be = decoded
	return
}

// WriteFile saves the map.
func (be *BinaryEncoding) WriteFile(path string) (err error) {
	data, err := be.Marshal()
	if err != nil {
		return
	}

	err = os.WriteFile(path, data, 0o644)
	if err != nil {
		err = errors.Wrap(err, f("writing %v", path))
	}
	return
}

// ReadFile loads a map saved by WriteFile.
func ReadFile(path string) (be *BinaryEncoding, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		err = errors.Wrap(err, f("reading %v", path))
		return
	}

	return Unmarshal(data)
}
