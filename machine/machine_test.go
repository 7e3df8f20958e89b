package machine

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	assert := assert.New(t)

	mach, err := Parse(strings.NewReader(`
name: tiny
function-units:
  - name: crc
    operations: [crc_xor_shift]
formats:
  - name: riscv_r_type
    operations: [add, crc_xor_shift]
  - name: riscv_r1r_type
    operations: [reflect32]
`))
	assert.NoError(err)
	assert.Equal("tiny", mach.Name)
	assert.Equal(32, mach.WordSize)
	assert.False(mach.Is64Bit())
	assert.Len(mach.Formats, 2)

	format, ok := mach.Format("riscv_r_type")
	assert.True(ok)
	assert.Equal(2, format.OperationCount())
	assert.Equal("crc_xor_shift", format.OperationAtIndex(1))

	_, ok = mach.Format("riscv_r3r_type")
	assert.False(ok)

	fu, ok := mach.FunctionUnitOf("crc_xor_shift")
	assert.True(ok)
	assert.Equal("crc", fu.Name)

	_, ok = mach.FunctionUnitOf("reflect32")
	assert.False(ok)
}

func TestParseCase(t *testing.T) {
	assert := assert.New(t)

	mach, err := Parse(strings.NewReader(`
name: Mixed
function-units:
  - name: CRC
    operations: [CRC_Xor_Shift]
formats:
  - name: riscv_r_type
    operations: [ADD, Xor, crc_xor_shift]
  - name: riscv_r1_type
    operations: [STDOUT]
`))
	assert.NoError(err)
	assert.Equal("Mixed", mach.Name)

	format, _ := mach.Format("riscv_r_type")
	assert.Equal([]string{"add", "xor", "crc_xor_shift"}, format.Operations)
	format, _ = mach.Format("riscv_r1_type")
	assert.Equal([]string{"stdout"}, format.Operations)

	fu, ok := mach.FunctionUnitOf("crc_xor_shift")
	assert.True(ok)
	assert.Equal("CRC", fu.Name)
}

func TestUnimplemented(t *testing.T) {
	assert := assert.New(t)

	mach, err := Load(filepath.Join("..", "data", "crc.yaml"))
	assert.NoError(err)
	assert.Equal([]string{"beq", "bne", "lui", "jal"}, mach.Unimplemented())

	mach, err = Parse(strings.NewReader(`
name: twice
function-units:
  - name: alu
    operations: [add]
formats:
  - name: riscv_r_type
    operations: [add, crc]
  - name: riscv_r1r_type
    operations: [crc, reflect]
`))
	assert.NoError(err)
	assert.Equal([]string{"crc", "reflect"}, mach.Unimplemented())

	mach, err = Parse(strings.NewReader("name: none\n"))
	assert.NoError(err)
	assert.Empty(mach.Unimplemented())
}

func TestParseErrors(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name   string
		input  string
		target error
	}){
		{"empty", "", ErrEmpty},
		{"blank", "  \n\n", ErrEmpty},
		{"word-size", "name: x\nword-size: 16\n", ErrWordSize},
		{"unnamed", "name: x\nformats:\n  - operations: [add]\n", ErrFormat},
	}

	for _, entry := range table {
		mach, err := Parse(strings.NewReader(entry.input))
		assert.Nil(mach, entry.name)
		assert.ErrorIs(err, entry.target, entry.name)
	}

	// Unknown keys are rejected.
	mach, err := Parse(strings.NewReader("name: x\nwordsize: 32\n"))
	assert.Nil(mach)
	assert.Error(err)

	// Malformed documents are rejected.
	mach, err = Parse(strings.NewReader("name: [x\n"))
	assert.Nil(mach)
	assert.Error(err)
}

func TestLoad(t *testing.T) {
	assert := assert.New(t)

	path := filepath.Join("..", "data", "crc.yaml")
	mach, err := Load(path)
	assert.NoError(err)
	assert.Equal("crc-accel", mach.Name)
	assert.Equal(path, mach.Path)

	format, ok := mach.Format("riscv_r3r_type")
	assert.True(ok)
	assert.Equal([]string{"cmov", "mac"}, format.Operations)

	dir := t.TempDir()
	wide := filepath.Join(dir, "wide.yaml")
	assert.NoError(os.WriteFile(wide, []byte("name: wide\nword-size: 64\n"), 0o644))
	mach, err = Load(wide)
	assert.NoError(err)
	assert.True(mach.Is64Bit())

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(err)
	assert.True(errors.Is(err, os.ErrNotExist))
}
