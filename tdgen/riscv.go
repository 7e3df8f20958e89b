package tdgen

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/ezrec/rvcustom/bem"
	"github.com/ezrec/rvcustom/custom"
	"github.com/ezrec/rvcustom/osal"
	"github.com/ezrec/rvcustom/riscv"
)

// BACKEND_FILE is the file name of the generated instruction info.
const BACKEND_FILE = "RISCVInstrInfoCustom.td"

// classDefinitions are the instruction classes used by the custom
// instruction definitions.
const classDefinitions = `/*
 * Generated by rvcustom
 */

class OARVInstR1<bits<7> funct7, bits<3> funct3, RISCVOpcode opcode,
    dag outs, dag ins, string opcodestr, string argstr>
    : RVInst<outs, ins, opcodestr, argstr, [], InstFormatOther> {
  bits<5> rs1;

  let Inst{31-25} = funct7;
  let Inst{24-20} = 0;
  let Inst{19-15} = rs1;
  let Inst{14-12} = funct3;
  let Inst{11-7} = 0;
  let Inst{6-0} = opcode.Value;
}

class OARVInstR1R<bits<7> funct7, bits<3> funct3, RISCVOpcode opcode,
    dag outs, dag ins, string opcodestr, string argstr>
    : RVInst<outs, ins, opcodestr, argstr, [], InstFormatOther> {
  bits<5> rs1;
  bits<5> rd;

  let Inst{31-25} = funct7;
  let Inst{24-20} = 0;
  let Inst{19-15} = rs1;
  let Inst{14-12} = funct3;
  let Inst{11-7} = rd;
  let Inst{6-0} = opcode.Value;
}

let hasSideEffects = 0, mayLoad = 0, mayStore = 0 in
class OARVR2R<bits<7> funct7, bits<3> funct3, RISCVOpcode opcode, string
             opcodestr, bit Commutable = 0>
    : RVInstR<funct7, funct3, opcode, (outs GPR:$rd), (ins GPR:$rs1,
              GPR:$rs2), opcodestr, "$rd, $rs1, $rs2"> {
  let isCommutable = Commutable;
}

let hasSideEffects = 0, mayLoad = 0, mayStore = 0 in
class OARVR3R<bits<2> funct2, bits<3> funct3, RISCVOpcode opcode, string
             opcodestr, bit Commutable = 0>
    : RVInstR4<funct2, funct3, opcode, (outs GPR:$rd), (ins GPR:$rs1,
              GPR:$rs2, GPR:$rs3), opcodestr, "$rd, $rs1, $rs2, $rs3"> {
  let isCommutable = Commutable;
}

let hasSideEffects = 0, mayLoad = 0, mayStore = 0 in
class OARVR1R<bits<7> funct7, bits<3> funct3, RISCVOpcode opcode, string
           opcodestr>
    : OARVInstR1R<funct7, funct3, opcode, (outs GPR:$rd), (ins GPR:$rs1),
              opcodestr, "$rd, $rs1"> {
}

let hasSideEffects = 1, mayLoad = 0, mayStore = 0 in
class OARVR1<bits<7> funct7, bits<3> funct3, RISCVOpcode opcode, string
           opcodestr>
    : OARVInstR1<funct7, funct3, opcode, (outs), (ins GPR:$rs1),
              opcodestr, "$rs1"> {
}
`

// Diagnostic reports an operation left out of the patterns.
type Diagnostic struct {
	Operation string
	Err       error
}

func (diag Diagnostic) String() string {
	return f("skipping pattern for %v: %v", diag.Operation, diag.Err)
}

// Backend is a generated backend description.
type Backend struct {
	Declarations string
	Patterns     string
	Diagnostics  []Diagnostic
}

// WriteTo writes the declarations followed by the patterns.
func (backend *Backend) WriteTo(w io.Writer) (n int64, err error) {
	written, err := io.WriteString(w, backend.Declarations)
	n += int64(written)
	if err != nil {
		return
	}
	written, err = io.WriteString(w, backend.Patterns)
	n += int64(written)
	return
}

// WriteFile writes the backend description into dir.
func (backend *Backend) WriteFile(dir string) (path string, err error) {
	path = filepath.Join(dir, BACKEND_FILE)

	outf, err := os.Create(path)
	if err != nil {
		err = errors.Wrap(err, f("creating %v", path))
		return
	}
	defer func() {
		cerr := outf.Close()
		if err == nil && cerr != nil {
			err = errors.Wrap(cerr, f("closing %v", path))
		}
	}()

	_, err = backend.WriteTo(outf)
	return
}

// RISCV generates the RISC-V backend description of a binary encoding map.
type RISCV struct {
	Encoding *bem.BinaryEncoding
	Pool     *osal.Pool
	WordSize int // 32 or 64
	Verbose  bool
}

// Generate renders the instruction declarations and selection patterns of
// every custom operation, in discovery order.
//
// An operation missing from the registry, or with a shape no instruction
// template can hold, fails the generation. Operations whose patterns cannot
// be rendered are only reported as diagnostics.
func (gen *RISCV) Generate() (backend *Backend, err error) {
	if gen.WordSize != 32 && gen.WordSize != 64 {
		err = ErrWordSize
		return
	}

	ops := custom.Discover(gen.Encoding)
	backend = &Backend{}

	var decl strings.Builder
	decl.WriteString(classDefinitions)
	for name, enc := range ops.All() {
		var line string
		line, err = gen.declaration(name, enc)
		if err != nil {
			backend = nil
			return
		}
		decl.WriteString(line)
	}
	backend.Declarations = decl.String()

	matcher := &Matcher{Pool: gen.Pool}
	var pats strings.Builder
	for name := range ops.All() {
		op, _ := gen.Pool.Operation(name)
		lines, perr := gen.patterns(matcher, op)
		if perr != nil {
			diag := Diagnostic{Operation: name, Err: perr}
			backend.Diagnostics = append(backend.Diagnostics, diag)
			if gen.Verbose {
				log.Printf("tdgen: %v", diag)
			}
			continue
		}
		for _, line := range lines {
			pats.WriteString(line)
		}
	}
	backend.Patterns = pats.String()

	return
}

// Template returns the instruction template of an operation.
func (gen *RISCV) Template(name string) (format riscv.Format, err error) {
	op, ok := gen.Pool.Operation(name)
	if !ok {
		err = ErrOperation{Name: name, Err: ErrOperationMissing}
		return
	}

	shape := riscv.Shape{Inputs: op.Inputs, Outputs: op.Outputs}
	format, ok = riscv.FormatByShape(shape)
	if !ok {
		err = ErrOperation{Name: name, Err: fmt.Errorf("%w %v", ErrUnrepresentableShape, shape)}
	}
	return
}

// symbol returns the instruction record name of an operation.
func symbol(name string) string {
	return "OA_" + strings.ToUpper(mnemonicBase(name))
}

// Mnemonic returns the assembler mnemonic of an operation.
func Mnemonic(name string) string {
	return "oa_" + strings.ToLower(mnemonicBase(name))
}

func mnemonicBase(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, name)
}

func (gen *RISCV) declaration(name string, enc riscv.Encoding) (line string, err error) {
	format, err := gen.Template(name)
	if err != nil {
		return
	}

	funct := riscv.Funct7Str(enc)
	if format.Template == riscv.TEMPLATE_R3R {
		// rs3 occupies the upper five bits of funct7.
		funct = riscv.Funct2Str(enc)
	}

	line = fmt.Sprintf("def %s : %v<%s, %s, %s, \"%s\">;\n",
		symbol(name), format.Template, funct, riscv.Funct3Str(enc),
		format.Space.TableGen(), Mnemonic(name))
	return
}

func (gen *RISCV) patterns(matcher *Matcher, op *osal.Operation) (lines []string, err error) {
	if op.Inputs < 1 || op.Inputs > 3 || op.Outputs != 1 {
		err = fmt.Errorf("%w %v", ErrUnsupportedArity, riscv.Shape{Inputs: op.Inputs, Outputs: op.Outputs})
		return
	}
	if !matcher.CanBeMatched(op) {
		err = ErrUnmatchable
		return
	}

	var dags []*osal.DAG
	if _, ok := LLVMOperationPattern(op.Name); ok || len(op.DAGs) == 0 {
		dags = []*osal.DAG{TrivialDAG(op)}
	} else {
		dags = matcher.MatchableDAGs(op)
	}

	operands := []string{"GPR:$rs1", "GPR:$rs2", "GPR:$rs3"}[:op.Inputs]

	for _, dag := range dags {
		var generic, target string
		generic, err = matcher.OperationPattern(op, dag, gen.WordSize)
		if err != nil {
			return
		}
		target, err = TransformPattern(generic, op.Inputs, gen.WordSize)
		if err != nil {
			return
		}
		lines = append(lines, fmt.Sprintf("def : Pat<(XLenVT %s, (%s %s)>;\n",
			target, symbol(op.Name), strings.Join(operands, ", ")))
	}

	return
}

// TransformPattern rewrites a generic pattern into RISC-V target syntax.
//
// The output operand is stripped, generic register operands become GPR
// source registers in order with the last one the destination, value types
// become XLenVT, and decimal literals become hexadecimal.
func TransformPattern(pattern string, inputs int, wordSize int) (target string, err error) {
	if inputs < 1 || inputs > 3 {
		err = ErrUnsupportedArity
		return
	}

	if pos := strings.Index(pattern, ","); pos >= 0 && pos+2 <= len(pattern) {
		pattern = pattern[pos+2:]
	}

	class, vt := RegisterClass(wordSize)
	pairs := []string{vt + " ", "XLenVT "}
	for n := 1; n <= inputs; n++ {
		pairs = append(pairs, fmt.Sprintf("%s:$op%d", class, n), fmt.Sprintf("(XLenVT GPR:$rs%d)", n))
	}
	pairs = append(pairs, fmt.Sprintf("%s:$op%d", class, inputs+1), "(XLenVT GPR:$rd)")
	pairs = append(pairs, "\n", "")

	pattern = strings.NewReplacer(pairs...).Replace(pattern)

	return DecimalsToHex(pattern, wordSize)
}

// DecimalsToHex rewrites every decimal literal following "XLenVT " into
// uppercase hexadecimal. Negative literals become two's complement at the
// word size.
//
// A literal must be an optional minus sign followed by decimal digits, and
// must fit the word size; anything else that starts like a number fails.
func DecimalsToHex(pattern string, wordSize int) (out string, err error) {
	const marker = "XLenVT "

	mask := uint64(1)<<32 - 1
	if wordSize == 64 {
		mask = ^uint64(0)
	}

	var sb strings.Builder
	rest := pattern
	for {
		pos := strings.Index(rest, marker)
		if pos < 0 {
			sb.WriteString(rest)
			break
		}
		sb.WriteString(rest[:pos+len(marker)])
		rest = rest[pos+len(marker):]

		end := literalEnd(rest)
		if end == 0 {
			continue
		}

		var value uint64
		value, err = parseLiteral(rest[:end], mask)
		if err != nil {
			return
		}
		fmt.Fprintf(&sb, "0x%X", value)
		rest = rest[end:]
	}

	out = sb.String()
	return
}

// literalEnd returns the length of the literal token at the start of s, or
// zero if s does not start like a number.
func literalEnd(s string) int {
	if len(s) == 0 || (s[0] != '-' && (s[0] < '0' || s[0] > '9')) {
		return 0
	}
	end := 1
	for end < len(s) && !strings.ContainsRune("), \t", rune(s[end])) {
		end++
	}
	return end
}

// parseLiteral accepts exactly -?[0-9]+ within the word mask.
func parseLiteral(text string, mask uint64) (value uint64, err error) {
	negative := text[0] == '-'
	digits := text
	if negative {
		digits = text[1:]
	}
	if len(digits) == 0 || len(digits) > 20 {
		err = ErrLiteralText(text)
		return
	}

	for _, c := range digits {
		if c < '0' || c > '9' {
			err = ErrLiteralText(text)
			return
		}
		next := value*10 + uint64(c-'0')
		if next/10 != value {
			err = ErrLiteralText(text)
			return
		}
		value = next
	}

	if negative {
		// The magnitude may be at most the sign bit of the word.
		if value > (mask>>1)+1 {
			err = ErrLiteralText(text)
			return
		}
		value = -value & mask
	} else if value > mask {
		err = ErrLiteralText(text)
		return
	}

	return
}
