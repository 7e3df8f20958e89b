// librvcustom is the C callable decode/execute library.
//
// Build with:
//
//	go build -buildmode=c-shared -o librvcustom.so ./cmd/librvcustom
//
// All functions return 0 on success and -1 on failure. On failure, *error
// is set to a message allocated with malloc(), which the caller frees.
// Strings returned through output parameters are also owned by the caller.
//
// The library holds one engine for the whole process and does no locking.
package main

/*
#include <stdint.h>
#include <stdlib.h>
*/
import "C"

import (
	"unsafe"
)

func fail(errp **C.char, prefix string, err error) C.int {
	if errp != nil {
		*errp = C.CString(message(prefix, err))
	}
	return -1
}

//export initializeMachine
func initializeMachine(path *C.char, errp **C.char) C.int {
	err := initialize(C.GoString(path))
	if err != nil {
		return fail(errp, "InitializeMachine", err)
	}
	return 0
}

//export resetMachine
func resetMachine() C.int {
	reset()
	return 0
}

//export unpackInstruction
func unpackInstruction(word C.uint32_t, name **C.char, errp **C.char) C.int {
	op, err := unpack(uint32(word), name != nil)
	if err != nil {
		return fail(errp, "UnpackInstruction", err)
	}
	*name = C.CString(op)
	return 0
}

//export executeInstruction32
func executeInstruction32(name *C.char, inputs *C.uint32_t, count C.uint32_t, output *C.uint32_t, errp **C.char) C.int {
	var values []uint32
	if inputs != nil && count > 0 {
		values = unsafe.Slice((*uint32)(unsafe.Pointer(inputs)), int(count))
	}

	value, err := execute32(C.GoString(name), values, int(count), output != nil)
	if err != nil {
		return fail(errp, "ExecuteInstruction", err)
	}
	*output = C.uint32_t(value)
	return 0
}

//export executeInstruction64
func executeInstruction64(name *C.char, inputs *C.uint64_t, count C.uint32_t, output *C.uint64_t, errp **C.char) C.int {
	var values []uint64
	if inputs != nil && count > 0 {
		values = unsafe.Slice((*uint64)(unsafe.Pointer(inputs)), int(count))
	}

	value, err := execute64(C.GoString(name), values, int(count), output != nil)
	if err != nil {
		return fail(errp, "ExecuteInstruction", err)
	}
	*output = C.uint64_t(value)
	return 0
}

func main() {}
