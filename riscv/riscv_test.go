package riscv

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestEncodingFields(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name   string
		enc    Encoding
		opcode uint32
		funct3 uint32
		funct7 uint32
		funct2 uint32
	}){
		{"add", Pack(OPC_OP, 0, 0), OPC_OP, 0, 0, 0},
		{"sub", Pack(OPC_OP, 0, 0x20), OPC_OP, 0, 0x20, 0},
		{"custom0_10", Encoding(OPC_CUSTOM_0 + (10 << 7)), OPC_CUSTOM_0, 2, 1, 1},
		{"custom0_11", Encoding(OPC_CUSTOM_0 + (11 << 7)), OPC_CUSTOM_0, 3, 1, 1},
		{"custom1_9", PackR4(OPC_CUSTOM_1, 1, 1), OPC_CUSTOM_1, 1, 1, 1},
		{"high", Encoding(0x1ffff), 0x7f, 0x7, 0x7f, 0x3},
	}

	for _, entry := range table {
		assert.Equal(entry.opcode, entry.enc.Opcode(), entry.name)
		assert.Equal(entry.funct3, entry.enc.Funct3(), entry.name)
		assert.Equal(entry.funct7, entry.enc.Funct7(), entry.name)
		assert.Equal(entry.funct2, entry.enc.Funct2(), entry.name)
	}
}

func TestFieldStrings(t *testing.T) {
	assert := assert.New(t)

	enc := Encoding(OPC_CUSTOM_0 + (10 << 7))
	assert.Equal("0b010", Funct3Str(enc))
	assert.Equal("0b0000001", Funct7Str(enc))
	assert.Equal("0b01", Funct2Str(enc))
	assert.Equal("0b0001011", OpcodeStr(enc))
	assert.Equal("opcode=0001011 funct3=010 funct7=0000001", enc.String())

	assert.Equal("", Binary(0xff, 0))
	assert.Equal("1010", Binary(0xa, 4))
}

func TestPackProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("Pack is inverted by field accessors", prop.ForAll(
		func(opcode, funct3, funct7 uint32) bool {
			enc := Pack(opcode, funct3, funct7)
			return enc.Opcode() == opcode && enc.Funct3() == funct3 && enc.Funct7() == funct7
		},
		gen.UInt32Range(0, 0x7f),
		gen.UInt32Range(0, 0x7),
		gen.UInt32Range(0, 0x7f),
	))

	properties.Property("PackR4 is inverted by field accessors", prop.ForAll(
		func(opcode, funct3, funct2 uint32) bool {
			enc := PackR4(opcode, funct3, funct2)
			return enc.Opcode() == opcode && enc.Funct3() == funct3 && enc.Funct2() == funct2
		},
		gen.UInt32Range(0, 0x7f),
		gen.UInt32Range(0, 0x7),
		gen.UInt32Range(0, 0x3),
	))

	properties.Property("R words match their encoding", prop.ForAll(
		func(selector uint32, rd, rs1, rs2 uint32) bool {
			enc := Encoding(OPC_CUSTOM_0 | (selector << 7))
			w := MakeWordR(enc, Register(rd), Register(rs1), Register(rs2))
			return w.Matches(enc) && w.Rd() == Register(rd) &&
				w.Rs1() == Register(rs1) && w.Rs2() == Register(rs2)
		},
		gen.UInt32Range(0, 1023),
		gen.UInt32Range(0, 31),
		gen.UInt32Range(0, 31),
		gen.UInt32Range(0, 31),
	))

	properties.Property("R4 words match their encoding", prop.ForAll(
		func(selector uint32, rs3 uint32) bool {
			enc := Encoding(OPC_CUSTOM_1 | (selector << 7))
			w := MakeWordR4(enc, 1, 2, 3, Register(rs3))
			return w.Matches(enc) && w.Rs3() == Register(rs3)
		},
		gen.UInt32Range(0, 31),
		gen.UInt32Range(0, 31),
	))

	properties.TestingRun(t)
}

func TestWordDecode(t *testing.T) {
	assert := assert.New(t)

	fields := Word(0x02732E8B).Decode()
	assert.Equal(Fields{
		Opcode: OPC_CUSTOM_0,
		Funct3: 2,
		Funct7: 1,
		Funct2: 1,
		Rd:     29,
		Rs1:    6,
		Rs2:    7,
		Rs3:    0,
	}, fields)

	assert.Equal("t4", fields.Rd.String())
	assert.Equal("0x02732E8B", Word(0x02732E8B).String())
	assert.True(Word(0x02732E8B).Matches(Encoding(OPC_CUSTOM_0 + (10 << 7))))
	assert.False(Word(0x02732E8B).Matches(Encoding(OPC_CUSTOM_0 + (11 << 7))))
}

func TestParseRegister(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name string
		reg  Register
		ok   bool
	}){
		{"x0", 0, true},
		{"zero", 0, true},
		{"t4", 29, true},
		{"x31", 31, true},
		{"fp", 8, true},
		{"s0", 8, true},
		{"x32", 0, false},
		{"r1", 0, false},
	}

	for _, entry := range table {
		reg, ok := ParseRegister(entry.name)
		assert.Equal(entry.ok, ok, entry.name)
		assert.Equal(entry.reg, reg, entry.name)
	}
}

func TestFormats(t *testing.T) {
	assert := assert.New(t)

	for _, format := range Formats {
		byName, ok := FormatByName(format.Name)
		assert.True(ok)
		assert.Equal(format, byName)

		byShape, ok := FormatByShape(format.Shape)
		assert.True(ok)
		assert.Equal(format, byShape)
	}

	_, ok := FormatByName(I_TYPE_NAME)
	assert.False(ok)

	_, ok = FormatByShape(Shape{2, 2})
	assert.False(ok)

	assert.Equal("OARVR3R", TEMPLATE_R3R.String())
	assert.Equal("custom-1", CUSTOM_1.String())
	assert.Equal(OPC_CUSTOM_1, CUSTOM_1.Opcode())
	assert.Equal("OPC_CUSTOM_0", CUSTOM_0.TableGen())
	assert.Equal([]string{"rd", "rs1", "rs2", "rs3"}, TEMPLATE_R3R.Operands())
}

func TestBaseline(t *testing.T) {
	assert := assert.New(t)

	assert.True(IsBaseline("add"))
	assert.False(IsBaseline("crc_xor_shift"))

	for _, name := range []string{R_TYPE_NAME, I_TYPE_NAME, S_TYPE_NAME, B_TYPE_NAME, U_TYPE_NAME, J_TYPE_NAME} {
		ops, ok := BaselineOperations(name)
		assert.True(ok, name)
		assert.NotEmpty(ops, name)
	}

	_, ok := BaselineOperations(R1R_TYPE_NAME)
	assert.False(ok)
}

func TestWordImmediates(t *testing.T) {
	assert := assert.New(t)

	addi := ITypeOperations["addi"]
	lui := UTypeOperations["lui"]

	// addi a0, zero, -1
	w := MakeWordI(addi, 10, 0, -1)
	assert.Equal(Word(0xFFF00513), w)
	assert.Equal(int32(-1), w.ImmI())
	assert.Equal(Register(10), w.Rd())

	// lui a1, 0x12345
	w = MakeWordU(lui, 11, 0x12345)
	assert.Equal(Word(0x123455B7), w)
	assert.Equal(uint32(0x12345000), w.ImmU())

	table := []int32{0, 1, -1, 2047, -2048, 2048, 0x12345FFF, -0x80000000, 0x7fffffff}
	for _, value := range table {
		hi20, lo12 := SplitImmediate(value)
		assert.True(lo12 >= -2048 && lo12 < 2048, "%#x", value)
		assert.Equal(uint32(value), (hi20<<12)+uint32(lo12), "%#x", value)
	}
}

func TestBaselineOf(t *testing.T) {
	assert := assert.New(t)

	for name, enc := range RTypeOperations {
		found, ok := BaselineOf(MakeWordR(enc, 1, 2, 3))
		assert.True(ok, name)
		assert.Equal(name, found)
	}

	_, ok := BaselineOf(Word(0x02732E8B))
	assert.False(ok)
	_, ok = BaselineOf(MakeWordR(Pack(OPC_OP, 0b000, 0b1111111), 1, 2, 3))
	assert.False(ok)
}
