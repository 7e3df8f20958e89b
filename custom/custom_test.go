package custom

import (
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"github.com/ezrec/rvcustom/bem"
	"github.com/ezrec/rvcustom/machine"
	"github.com/ezrec/rvcustom/riscv"
)

func fixture(t *testing.T) *bem.BinaryEncoding {
	mach, err := machine.Load(filepath.Join("..", "data", "crc.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	be, err := bem.Generate(mach, false)
	if err != nil {
		t.Fatal(err)
	}
	return be
}

func generate(t *testing.T, text string) *bem.BinaryEncoding {
	mach, err := machine.Parse(strings.NewReader(text))
	if err != nil {
		t.Fatal(err)
	}
	be, err := bem.Generate(mach, false)
	if err != nil {
		t.Fatal(err)
	}
	return be
}

func TestDiscover(t *testing.T) {
	assert := assert.New(t)

	ops := Discover(fixture(t))
	assert.Equal([]string{
		"andn", "orn", "xnor", "rotl", "rotr", "min", "max", "minu", "maxu", "clmul", "crc_xor_shift",
		"reflect32", "reflect8", "cpop", "bswap32",
		"trace",
		"cmov", "mac",
	}, ops.Names())
	assert.Equal(18, ops.Len())
	assert.Empty(ops.Overwrites())

	enc, ok := ops.Encoding("crc_xor_shift")
	assert.True(ok)
	assert.Equal(riscv.Encoding(riscv.OPC_CUSTOM_0+(10<<7)), enc)

	_, ok = ops.Encoding("add")
	assert.False(ok)

	format, ok := ops.Format("mac")
	assert.True(ok)
	assert.Equal(riscv.TEMPLATE_R3R, format.Template)
	format, ok = ops.Format("reflect8")
	assert.True(ok)
	assert.Equal(riscv.R1R_TYPE_NAME, format.Name)
	_, ok = ops.Format("add")
	assert.False(ok)
	_, ok = ops.Encoding("ldw")
	assert.False(ok)

	var names []string
	for name := range ops.All() {
		names = append(names, name)
		if name == "xnor" {
			break
		}
	}
	assert.Equal([]string{"andn", "orn", "xnor"}, names)
}

func TestDiscoverDeterministic(t *testing.T) {
	assert := assert.New(t)

	be := fixture(t)
	first := Discover(be)
	for range 8 {
		again := Discover(be)
		assert.Equal(first.Names(), again.Names())
		for name, enc := range first.All() {
			other, ok := again.Encoding(name)
			assert.True(ok)
			assert.Equal(enc, other)
		}
	}
}

func TestDiscoverEdges(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(0, Discover(nil).Len())

	// Baseline-only maps have no custom operations.
	ops := Discover(generate(t, "name: base\nformats:\n  - name: riscv_r_type\n    operations: [add, sub]\n"))
	assert.Equal(0, ops.Len())

	// Baseline names are never custom, whatever the format.
	ops = Discover(generate(t, "name: base\nformats:\n  - name: riscv_r1r_type\n    operations: [add, neg1]\n"))
	assert.Equal([]string{"neg1"}, ops.Names())

	// A later format overwrites the encoding but keeps the position.
	ops = Discover(generate(t, `
name: twice
formats:
  - name: riscv_r_type
    operations: [twice, other]
  - name: riscv_r1r_type
    operations: [twice]
`))
	assert.Equal([]string{"twice", "other"}, ops.Names())
	enc, _ := ops.Encoding("twice")
	assert.Equal(riscv.Encoding(riscv.OPC_CUSTOM_0+(2<<7)), enc)
	assert.Equal([]Overwrite{{
		Name:     "twice",
		Previous: riscv.OPC_CUSTOM_0,
		Encoding: riscv.OPC_CUSTOM_0 + (2 << 7),
	}}, ops.Overwrites())
	format, _ := ops.Format("twice")
	assert.Equal(riscv.R1R_TYPE_NAME, format.Name)
}

func TestDiscoverCase(t *testing.T) {
	assert := assert.New(t)

	ops := Discover(generate(t, `
name: mixed
formats:
  - name: riscv_r_type
    operations: [ADD, Xor, crc_xor_shift]
  - name: riscv_r1_type
    operations: [STDOUT, trace]
`))
	assert.Equal([]string{"crc_xor_shift", "stdout", "trace"}, ops.Names())
	assert.Empty(ops.Overwrites())

	enc, _ := ops.Encoding("crc_xor_shift")
	assert.Equal(riscv.Encoding(riscv.OPC_CUSTOM_0), enc)
	enc, _ = ops.Encoding("stdout")
	assert.Equal(riscv.Encoding(riscv.OPC_CUSTOM_0), enc)
	enc, _ = ops.Encoding("trace")
	assert.Equal(riscv.Encoding(riscv.OPC_CUSTOM_0+(1<<7)), enc)

	// Maps read from elsewhere may keep upper case baseline names.
	format := bem.NewInstructionFormat(riscv.R1R_TYPE_NAME)
	assert.NoError(format.AddOperation("ADD", riscv.OPC_CUSTOM_0))
	assert.NoError(format.AddOperation("neg1", riscv.OPC_CUSTOM_0+(1<<7)))
	be := &bem.BinaryEncoding{Machine: "loaded"}
	assert.NoError(be.AddInstructionFormat(format))
	assert.Equal([]string{"neg1"}, Discover(be).Names())
}

func TestRender(t *testing.T) {
	assert := assert.New(t)

	enc := NewEncoder(fixture(t))
	assert.Equal(18, enc.Ops().Len())

	table := [](struct {
		name   string
		expect string
	}){
		{"crc_xor_shift", "00000010000000000010000000001011"},
		{"reflect32", "00000010000000000011000000001011"},
		{"andn", "00000000000000000000000000001011"},
		{"mac", "00000000000000000001000000101011"},
		{"add", NOT_FOUND},
		{"", NOT_FOUND},
	}

	for _, entry := range table {
		assert.Equal(entry.expect, enc.Render(entry.name), entry.name)
	}

	word, err := strconv.ParseUint(enc.Render("reflect8"), 2, 32)
	assert.NoError(err)
	assert.Equal(uint64(0x0200400B), word)
}

func TestRenderWidth(t *testing.T) {
	enc := NewEncoder(fixture(t))
	names := enc.Ops().Names()

	properties := gopter.NewProperties(nil)

	properties.Property("render is 32 binary digits or not found", prop.ForAll(
		func(name string) bool {
			text := enc.Render(name)
			if text == NOT_FOUND {
				return true
			}
			return len(text) == 32 && strings.Trim(text, "01") == ""
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)

	for _, name := range names {
		text := enc.Render(name)
		if len(text) != 32 || strings.Trim(text, "01") != "" {
			t.Errorf("%v: rendered %q", name, text)
		}
	}
}
