// Package riscv holds the RISC-V instruction word vocabulary used by the
// custom-instruction toolchain.
//
// A custom operation is identified by a packed integer that carries its
// base opcode in bits 0-6, funct3 in bits 7-9 and funct7 in bits 10-16.
// Operations in the custom-1 opcode space only have room for a 2-bit funct2
// in bits 10-11, because the 3-register template spends the remaining bits
// of the word on rs3.
//
// The four instruction formats that may hold custom operations are kept in
// a single closed table, Formats, which both the encoding generator and the
// backend generator consult.
package riscv
