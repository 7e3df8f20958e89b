package main

import (
	"errors"
	"os"

	"github.com/ezrec/rvcustom/engine"
	"github.com/ezrec/rvcustom/translate"
)

var f = translate.From

var ErrOutputNull = errors.New(f("Output parameter is null"))

// VERBOSE_ENV enables verbose engine logging when set to a non-empty value.
const VERBOSE_ENV = "RVCUSTOM_VERBOSE"

// session is the process-scoped engine behind the exported functions.
var session = newSession()

func newSession() *engine.Engine {
	return engine.New(engine.Options{
		Verbose: len(os.Getenv(VERBOSE_ENV)) != 0,
		Output:  os.Stdout,
	})
}

// message renders an error for a C caller.
func message(prefix string, err error) string {
	return f("%v error: %v", prefix, err)
}

func initialize(path string) (err error) {
	err = session.InitializeMachine(path)
	return
}

func reset() {
	session.Reset()
}

func unpack(word uint32, hasOutput bool) (name string, err error) {
	if !hasOutput {
		err = ErrOutputNull
		return
	}
	return session.UnpackInstruction(word)
}

// first returns the first output of an operation, or zero when it has none.
func first[T uint32 | uint64](outputs []T) (value T) {
	if len(outputs) > 0 {
		value = outputs[0]
	}
	return
}

func execute32(name string, inputs []uint32, count int, hasOutput bool) (value uint32, err error) {
	if !hasOutput {
		err = ErrOutputNull
		return
	}
	outputs, err := session.ExecuteInstruction32(name, inputs, count)
	if err != nil {
		return
	}
	value = first(outputs)
	return
}

func execute64(name string, inputs []uint64, count int, hasOutput bool) (value uint64, err error) {
	if !hasOutput {
		err = ErrOutputNull
		return
	}
	outputs, err := session.ExecuteInstruction64(name, inputs, count)
	if err != nil {
		return
	}
	value = first(outputs)
	return
}
