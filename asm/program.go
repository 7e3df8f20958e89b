package asm

import (
	"iter"

	"github.com/ezrec/rvcustom/riscv"
)

// WORD_BYTES is the size of an instruction word in bytes.
const WORD_BYTES = 4

// Opcode is a single assembled source line.
type Opcode struct {
	LineNo    int          // Source line number.
	Pc        uint32       // Byte address of the first word.
	Words     []string     // Source words, after equate substitution.
	Codes     []riscv.Word // Emitted instruction words.
	LinkLabel string       // Label to link into the last word, if any.
}

// Program is an assembled instruction stream.
type Program struct {
	Opcodes []Opcode
}

type Debug struct {
	*Opcode
	Index int
}

// Debug finds the source line of the word at pc.
func (prog *Program) Debug(pc uint32) (dbg Debug) {
	for n, op := range prog.Opcodes {
		end := op.Pc + uint32(len(op.Codes))*WORD_BYTES
		if pc >= op.Pc && pc < end {
			dbg = Debug{
				Opcode: &prog.Opcodes[n],
				Index:  int(pc-op.Pc) / WORD_BYTES,
			}
			break
		}
	}

	return
}

// Size returns the size of the program in bytes.
func (prog *Program) Size() (size uint32) {
	if len(prog.Opcodes) == 0 {
		return
	}
	last := prog.Opcodes[len(prog.Opcodes)-1]
	return last.Pc + uint32(len(last.Codes))*WORD_BYTES
}

// Fetch returns the word at pc.
func (prog *Program) Fetch(pc uint32) (word riscv.Word, ok bool) {
	if pc%WORD_BYTES != 0 {
		return
	}
	dbg := prog.Debug(pc)
	if dbg.Opcode == nil {
		return
	}
	return dbg.Codes[dbg.Index], true
}

func (prog *Program) Binary() (bins []uint32) {
	for _, word := range prog.Words() {
		bins = append(bins, uint32(word))
	}

	return
}

// Words iterates over the program words by address.
func (prog *Program) Words() iter.Seq2[uint32, riscv.Word] {
	return func(yield func(pc uint32, word riscv.Word) bool) {
		for _, op := range prog.Opcodes {
			for n, word := range op.Codes {
				if !yield(op.Pc+uint32(n)*WORD_BYTES, word) {
					return
				}
			}
		}
	}
}
