// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package asm

import (
	"fmt"
	"maps"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Macro is a recorded .macro definition.
type Macro struct {
	Name   string   // Macro name.
	LineNo int      // Line number of the first body line.
	Params []string // Parameters, bound as equates while expanding.
	Body   []string // Body text, comments removed.
}

// System equates, defined before any predefine.
var sysEquate = map[string]string{
	"LINENO":     "0",
	"WORD_BYTES": strconv.Itoa(WORD_BYTES),
}

var (
	reCharacter  = regexp.MustCompile(`'\\?[^']'`)
	reExpression = regexp.MustCompile(`\$\([^\$]*\)`)
)

// Predefine sets an equate that is in scope for every Parse.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = make(map[string]string)
	}
	asm.predefine[equ] = value
}

// valueOf parses an integer literal. A leading ~ inverts the value.
func (asm *Assembler) valueOf(word string) (value uint32, err error) {
	text, invert := strings.CutPrefix(word, "~")
	v64, perr := strconv.ParseInt(text, 0, 33)
	if perr != nil || v64 < math.MinInt32 {
		err = ErrParseNumber(text)
		return
	}

	value = uint32(v64)
	if invert {
		value = ^value
	}
	return
}

// charLiteral replaces a quoted character with its code.
func charLiteral(text string) string {
	code, _, tail, err := strconv.UnquoteChar(text[1:len(text)-1], '\'')
	if err != nil || len(tail) != 0 {
		return text
	}
	return strconv.Itoa(int(code))
}

// evaluate computes a $(...) expression with the integer equates and the
// labels seen so far in scope.
func (asm *Assembler) evaluate(expr string) (value uint32, err error) {
	env := make(starlark.StringDict, len(asm.Equate)+len(asm.Label))
	for name, text := range asm.Equate {
		if number, nerr := asm.valueOf(text); nerr == nil {
			env[name] = starlark.MakeUint(uint(number))
		}
	}
	for name, pc := range asm.Label {
		env[name] = starlark.MakeUint(uint(pc))
	}

	thread := &starlark.Thread{Name: "asm"}
	result, err := starlark.EvalOptions(&syntax.FileOptions{}, thread, "$()", expr, env)
	if err != nil {
		return
	}

	number, ok := result.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	i64, ok := number.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}

	value = uint32(i64)
	return
}

func separator(r rune) bool {
	return r == ',' || unicode.IsSpace(r)
}

// tokenize expands the literals of a line and splits it into words.
// Directives and labels are consumed; what remains is an instruction or a
// macro invocation.
func (asm *Assembler) tokenize(line string, lineno int) (words []string, err error) {
	asm.Equate["LINENO"] = strconv.Itoa(lineno)

	line = reCharacter.ReplaceAllStringFunc(line, charLiteral)
	line = reExpression.ReplaceAllStringFunc(line, func(text string) string {
		value, eerr := asm.evaluate(text[2 : len(text)-1])
		if eerr != nil {
			if err == nil {
				err = eerr
			}
			return text
		}
		return fmt.Sprintf("%#v", value)
	})
	if err != nil {
		return
	}

	words = strings.FieldsFunc(line, separator)
	if len(words) == 0 {
		return
	}

	if words[0] == ".equ" {
		return nil, asm.equate(words[1:])
	}

	for n, word := range words {
		if value, ok := asm.Equate[word]; ok {
			words[n] = value
		}
	}

	for len(words) > 0 && strings.HasSuffix(words[0], ":") {
		err = asm.label(strings.TrimSuffix(words[0], ":"))
		if err != nil {
			return
		}
		words = words[1:]
	}

	return
}

// equate handles `.equ NAME VALUE`.
func (asm *Assembler) equate(args []string) (err error) {
	if len(args) != 2 {
		return ErrEquateSyntax
	}
	if _, ok := asm.Equate[args[0]]; ok {
		return ErrEquateDuplicate
	}
	asm.Equate[args[0]] = args[1]
	return
}

// label binds name to the address of the next word.
func (asm *Assembler) label(name string) (err error) {
	if _, ok := asm.Label[name]; ok {
		return ErrLabelDuplicate
	}
	if asm.Label == nil {
		asm.Label = make(map[string]uint32)
	}
	asm.Label[name] = asm.currentPc()
	return
}

// define starts recording `.macro NAME param...`.
func (asm *Assembler) define(fields []string, lineno int) (macro *Macro, err error) {
	if len(fields) == 0 {
		err = ErrMacroSyntax
		return
	}
	if _, ok := asm.Macro[fields[0]]; ok {
		err = ErrMacroDuplicate
		return
	}

	macro = &Macro{
		Name:   fields[0],
		LineNo: lineno + 1,
		Params: fields[1:],
	}
	asm.Macro[macro.Name] = macro
	return
}

// expand assembles the body of a macro with its parameters bound to args.
// An @ in the body is replaced by a prefix unique to this expansion, for
// local labels.
func (asm *Assembler) expand(macro *Macro, args []string) (err error) {
	if len(args) != len(macro.Params) {
		return ErrMacroSyntax
	}

	outer := maps.Clone(asm.Equate)
	defer func() { asm.Equate = outer }()
	for n, param := range macro.Params {
		asm.Equate[param] = args[n]
	}

	asm.expansions++
	local := fmt.Sprintf("%v_%d_", macro.Name, asm.expansions)

	for n, line := range macro.Body {
		lineno := macro.LineNo + n
		err = asm.assembleLine(strings.ReplaceAll(line, "@", local), lineno)
		if err != nil {
			return ErrMacro{Macro: macro.Name, Line: lineno, Err: err}
		}
	}

	return
}
