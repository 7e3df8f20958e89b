package asm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/rvcustom/riscv"
)

func testProgram() *Program {
	return &Program{
		Opcodes: []Opcode{
			{LineNo: 1, Pc: 0, Words: []string{"li", "a0", "50"},
				Codes: []riscv.Word{0x03200513}},
			{LineNo: 2, Pc: 4, Words: []string{"li", "a1", "0x12345678"},
				Codes: []riscv.Word{0x123455B7, 0x67858593}},
			{LineNo: 4, Pc: 12, Words: []string{"oa_crc_xor_shift", "t4", "t1", "t2"},
				Codes: []riscv.Word{0x02732E8B}},
		},
	}
}

func TestProgramDebug(t *testing.T) {
	assert := assert.New(t)

	prog := testProgram()

	table := [](struct {
		pc     uint32
		lineno int
		index  int
	}){
		{0, 1, 0},
		{4, 2, 0},
		{8, 2, 1},
		{12, 4, 0},
		{14, 4, 0},
	}

	for _, entry := range table {
		dbg := prog.Debug(entry.pc)
		if !assert.NotNil(dbg.Opcode, "%v", entry.pc) {
			continue
		}
		assert.Equal(entry.lineno, dbg.LineNo, "%v", entry.pc)
		assert.Equal(entry.index, dbg.Index, "%v", entry.pc)
	}

	dbg := prog.Debug(16)
	assert.Nil(dbg.Opcode)
	assert.Equal(0, dbg.Index)
}

func TestProgramFetch(t *testing.T) {
	assert := assert.New(t)

	prog := testProgram()
	assert.Equal(uint32(16), prog.Size())

	word, ok := prog.Fetch(8)
	assert.True(ok)
	assert.Equal(riscv.Word(0x67858593), word)

	_, ok = prog.Fetch(2)
	assert.False(ok)
	_, ok = prog.Fetch(16)
	assert.False(ok)

	assert.Equal([]uint32{0x03200513, 0x123455B7, 0x67858593, 0x02732E8B}, prog.Binary())

	var pcs []uint32
	for pc := range prog.Words() {
		pcs = append(pcs, pc)
		if pc == 8 {
			break
		}
	}
	assert.Equal([]uint32{0, 4, 8}, pcs)

	empty := &Program{}
	assert.Nil(empty.Binary())
	_, ok = empty.Fetch(0)
	assert.False(ok)
}
