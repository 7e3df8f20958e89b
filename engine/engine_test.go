package engine

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"

	"github.com/ezrec/rvcustom/custom"
	"github.com/ezrec/rvcustom/riscv"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	fixtureMachine = filepath.Join("..", "data", "crc.yaml")
	fixtureOpset   = filepath.Join("..", "data", "opset")
)

func newFixture(t *testing.T) *Engine {
	e := New(Options{OperationPaths: []string{fixtureOpset}})
	if err := e.InitializeMachine(fixtureMachine); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

func writeMachine(t *testing.T, text string) string {
	path := filepath.Join(t.TempDir(), "machine.yaml")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExecuteFixture(t *testing.T) {
	assert := assert.New(t)

	e := newFixture(t)

	table := [](struct {
		name   string
		output uint64
	}){
		{"crc_xor_shift", 12820},
		{"reflect32", 1275068416},
		{"reflect8", 76},
	}

	for _, entry := range table {
		out32, err := e.ExecuteInstruction32(entry.name, []uint32{50, 20, 1280}, 3)
		assert.NoError(err, entry.name)
		assert.Equal([]uint32{uint32(entry.output)}, out32, entry.name)

		out64, err := e.ExecuteInstruction64(entry.name, []uint64{50, 20, 1280}, 3)
		assert.NoError(err, entry.name)
		assert.Equal([]uint64{entry.output}, out64, entry.name)
	}
}

func TestUnpackFixture(t *testing.T) {
	assert := assert.New(t)

	e := newFixture(t)

	table := [](struct {
		word uint32
		name string
		err  error
	}){
		{0x02732E8B, "crc_xor_shift", nil},
		{0x03D3338B, "reflect32", nil},
		{0x02734E8B, "reflect8", nil},
		{123456789, "", ErrUnknownOpcode},
		{42, "", ErrUnknownOpcode},
		{uint32(0xfffffdd2), "", ErrUnknownOpcode},
		{0x00000033, "", ErrUnknownOpcode},
		{0xfe00000b, "", ErrOperationNotFound},
		{0x0000102B, "mac", nil},
		{0xF800102B, "mac", nil},
	}

	for _, entry := range table {
		name, err := e.UnpackInstruction(entry.word)
		if entry.err != nil {
			assert.ErrorIs(err, entry.err, "%#x", entry.word)
			var eu ErrUnpack
			assert.ErrorAs(err, &eu)
			assert.Equal(entry.word, eu.Word)
			continue
		}
		assert.NoError(err, "%#x", entry.word)
		assert.Equal(entry.name, name, "%#x", entry.word)
	}
}

func TestRoundTrip(t *testing.T) {
	assert := assert.New(t)

	e := newFixture(t)

	for name, enc := range e.Ops().All() {
		var word riscv.Word
		if enc.Opcode() == riscv.OPC_CUSTOM_1 {
			word = riscv.MakeWordR4(enc, 5, 6, 7, 8)
		} else {
			word = riscv.MakeWordR(enc, 5, 6, 7)
		}
		decoded, err := e.UnpackInstruction(uint32(word))
		assert.NoError(err, name)
		assert.Equal(name, decoded)
	}

	// Rendered bit patterns unpack to their operation.
	encoder := custom.NewEncoder(e.Encoding())
	assert.Equal(18, encoder.Ops().Len())
	for _, name := range encoder.Ops().Names() {
		text := encoder.Render(name)
		word, err := strconv.ParseUint(text, 2, 32)
		if !assert.NoError(err, name) {
			continue
		}
		decoded, err := e.UnpackInstruction(uint32(word))
		assert.NoError(err, "%v %v", name, text)
		assert.Equal(name, decoded, text)
	}
}

func TestLifecycle(t *testing.T) {
	assert := assert.New(t)

	e := New(Options{OperationPaths: []string{fixtureOpset}})
	defer e.Close()

	assert.False(e.Initialized())
	_, err := e.UnpackInstruction(0x02732E8B)
	assert.ErrorIs(err, ErrEmptyState)

	assert.NoError(e.InitializeMachine(fixtureMachine))
	assert.True(e.Initialized())
	assert.Equal("crc-accel", e.Machine().Name)
	assert.NotNil(e.Encoding())

	name, err := e.UnpackInstruction(0x02732E8B)
	assert.NoError(err)
	assert.Equal("crc_xor_shift", name)

	e.Reset()
	e.Reset()
	assert.False(e.Initialized())
	assert.Nil(e.Machine())
	assert.Nil(e.Ops())
	_, err = e.UnpackInstruction(0x02732E8B)
	assert.ErrorIs(err, ErrEmptyState)

	// The semantics registry survives a reset.
	out, err := e.ExecuteInstruction32("crc_xor_shift", []uint32{50, 20}, 2)
	assert.NoError(err)
	assert.Equal([]uint32{12820}, out)

	assert.NoError(e.InitializeMachine(fixtureMachine))
	name, err = e.UnpackInstruction(0x03D3338B)
	assert.NoError(err)
	assert.Equal("reflect32", name)

	// A failed initialization leaves the engine uninitialized.
	err = e.InitializeMachine(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(err, ErrLoad)
	assert.False(e.Initialized())
	_, err = e.UnpackInstruction(0x03D3338B)
	assert.ErrorIs(err, ErrEmptyState)
}

func TestInitializeErrors(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name   string
		text   string
		target error
	}){
		{"malformed", "name: [x\n", ErrLoad},
		{"unknown-format", "name: x\nformats:\n  - name: vliw\n    operations: [a]\n", ErrGeneration},
		{"empty", "name: x\nformats:\n  - name: riscv_r_type\n", ErrGeneration},
		{"baseline-only", "name: x\nformats:\n  - name: riscv_r_type\n    operations: [add, sub]\n", ErrDiscovery},
	}

	for _, entry := range table {
		e := New(Options{OperationPaths: []string{fixtureOpset}})
		path := writeMachine(t, entry.text)
		err := e.InitializeMachine(path)
		assert.ErrorIs(err, entry.target, entry.name)
		var ei ErrInit
		if assert.ErrorAs(err, &ei, entry.name) {
			assert.Equal(path, ei.Path)
		}
		assert.False(e.Initialized(), entry.name)
	}

	// A broken operation module fails initialization.
	dir := t.TempDir()
	assert.NoError(os.WriteFile(filepath.Join(dir, "broken.star"), []byte("operation(\n"), 0o644))
	e := New(Options{OperationPaths: []string{dir}})
	err := e.InitializeMachine(fixtureMachine)
	assert.ErrorIs(err, ErrLoad)
	assert.False(e.Initialized())
}

func TestExecuteErrors(t *testing.T) {
	assert := assert.New(t)

	e := newFixture(t)

	_, err := e.ExecuteInstruction32("nonexistent", []uint32{1, 2}, 2)
	assert.ErrorIs(err, ErrUnknownOperation)
	var ee ErrExecute
	assert.ErrorAs(err, &ee)
	assert.Equal("nonexistent", ee.Operation)

	_, err = e.ExecuteInstruction64("nonexistent", []uint64{1, 2}, 2)
	assert.ErrorIs(err, ErrUnknownOperation)

	// Arity is checked against count, not the slice length.
	_, err = e.ExecuteInstruction32("crc_xor_shift", []uint32{50, 20, 1280}, 1)
	assert.ErrorIs(err, ErrInsufficientInputs)
	_, err = e.ExecuteInstruction64("crc_xor_shift", []uint64{50}, 2)
	assert.ErrorIs(err, ErrInsufficientInputs)
	_, err = e.ExecuteInstruction32("mac", nil, 0)
	assert.ErrorIs(err, ErrInsufficientInputs)
	_, err = e.ExecuteInstruction32("crc_xor_shift", []uint32{50, 20}, -1)
	assert.ErrorIs(err, ErrInsufficientInputs)
}

func TestExecuteWidths(t *testing.T) {
	assert := assert.New(t)

	e := newFixture(t)

	out32, err := e.ExecuteInstruction32("crc_xor_shift", []uint32{0x12345678, 0x9a}, 2)
	assert.NoError(err)
	assert.Equal([]uint32{0x345678<<8 ^ 0x9a}, out32)

	out64, err := e.ExecuteInstruction64("crc_xor_shift", []uint64{0x12345678, 0x9a}, 2)
	assert.NoError(err)
	assert.Equal([]uint64{0x1234567800 ^ 0x9a}, out64)

	out64, err = e.ExecuteInstruction64("add", []uint64{0xffffffffffffffff, 2}, 2)
	assert.NoError(err)
	assert.Equal([]uint64{1}, out64)

	out32, err = e.ExecuteInstruction32("mac", []uint32{3, 4, 5}, 3)
	assert.NoError(err)
	assert.Equal([]uint32{17}, out32)
}

func TestExecuteOutput(t *testing.T) {
	assert := assert.New(t)

	var buf bytes.Buffer
	e := New(Options{OperationPaths: []string{fixtureOpset}, Output: &buf})
	defer e.Close()

	out, err := e.ExecuteInstruction32("trace", []uint32{0xbeef}, 1)
	assert.NoError(err)
	assert.Empty(out)
	assert.Equal("trace: 0xbeef\n", buf.String())

	out, err = e.ExecuteInstruction32("stdout", []uint32{'!'}, 1)
	assert.NoError(err)
	assert.Empty(out)
	assert.Equal("trace: 0xbeef\n!", buf.String())
}

func TestCoprocessor(t *testing.T) {
	assert := assert.New(t)

	e := New(Options{OperationPaths: []string{fixtureOpset}, Coprocessor: true})
	defer e.Close()
	assert.NoError(e.InitializeMachine(fixtureMachine))

	enc, ok := e.Ops().Encoding("crc_xor_shift")
	assert.True(ok)
	assert.Equal(uint32(0b111), enc.Funct3())
	assert.Equal(uint32(10), enc.Funct7())

	name, err := e.UnpackInstruction(uint32(riscv.MakeWordR(enc, 1, 2, 3)))
	assert.NoError(err)
	assert.Equal("crc_xor_shift", name)
}

func FuzzUnpackInstruction(f *testing.F) {
	for _, seed := range []uint32{0x02732E8B, 0x03D3338B, 0x02734E8B, 123456789, 0, 0xffffffff, 0x0000102B} {
		f.Add(seed)
	}

	e := New(Options{OperationPaths: []string{fixtureOpset}})
	if err := e.InitializeMachine(fixtureMachine); err != nil {
		f.Fatal(err)
	}

	f.Fuzz(func(t *testing.T, word uint32) {
		name, err := e.UnpackInstruction(word)
		if err != nil {
			if !errors.Is(err, ErrUnknownOpcode) && !errors.Is(err, ErrOperationNotFound) {
				t.Fatalf("%#x: unexpected error %v", word, err)
			}
			return
		}
		enc, ok := e.Ops().Encoding(name)
		if !ok || !riscv.Word(word).Matches(enc) {
			t.Fatalf("%#x: decoded to %v which does not match", word, name)
		}
	})
}
