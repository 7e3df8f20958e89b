// Package asm implements an assembler for custom RISC-V instructions.
//
// Custom operations are written with their oa_ mnemonic (or bare operation
// name) followed by the register operands of their instruction template,
// destination first. A handful of baseline instructions (the R-type
// operations, addi, lui and the li, mv and nop pseudo-instructions) are
// available to set up operands.
//
// The assembler supports macros, labels, equates, and compile-time
// expression evaluation.
package asm
