// Copyright 2024 movefuzz-go authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Command movefuzzworker is the DriverShim (§4.7): the native-ABI surface
// the libFuzzer-compatible engine links against. It is built with
// `go build -buildmode=c-archive` (or `c-shared`), exactly mirroring how
// Go's own fuzzing support bridges to libFuzzer in go_fuzzer_wrapper.go
// (vsrinivas-fuchsia's build/go package). All three exported symbols are
// thin cgo boundaries: they marshal C args into Go slices and delegate to
// internal/fuzzshim, which holds every bit of logic that needs no C
// toolchain to unit test.
package main

/*
#include <stddef.h>
#include <stdint.h>
#include <stdlib.h>

// LLVMFuzzerMutate is provided by the libFuzzer engine this archive is
// linked into; it is never defined in this module.
extern size_t LLVMFuzzerMutate(uint8_t *Data, size_t Size, size_t MaxSize);
*/
import "C"

import (
	"context"
	"os"
	"runtime/debug"
	"syscall"
	"unsafe"

	"github.com/LucaPoda/movefuzz-go/internal/fuzzshim"
	"github.com/LucaPoda/movefuzz-go/pkg/log"
)

func init() {
	// Wire fuzzshim's injectable Abort to a real process-level abort: a
	// SIGABRT to ourselves, the same signal libc's abort() raises, so the
	// engine's crash classification (which keys off termination signal)
	// sees what it expects. No cgo call to libc abort() is needed for
	// this — a self-signal is the portable equivalent and keeps the
	// dependency surface to the syscall package alone.
	fuzzshim.Abort = func() {
		debug.SetTraceback("all")
		syscall.Kill(os.Getpid(), syscall.SIGABRT)
		// Kill is asynchronous; block forever rather than falling through
		// to whatever the caller does next while the signal is pending.
		select {}
	}
	fuzzshim.NativeMutate = func(data []byte, size, maxSize int) int {
		if len(data) == 0 {
			return 0
		}
		n := C.LLVMFuzzerMutate((*C.uint8_t)(unsafe.Pointer(&data[0])), C.size_t(size), C.size_t(maxSize))
		return int(n)
	}
}

//export LLVMFuzzerInitialize
func LLVMFuzzerInitialize(argc *C.int, argv ***C.char) C.int {
	args := cStringArray(int(*argc), *argv)
	// args[0] is the process name by Unix convention; the driver's own
	// flags live after it, same as os.Args[1:] would.
	if len(args) > 0 {
		args = args[1:]
	}
	if err := fuzzshim.Initialise(context.Background(), args); err != nil {
		log.Fatalf("movefuzzworker: %v", err)
	}
	return 0
}

//export LLVMFuzzerTestOneInput
func LLVMFuzzerTestOneInput(data *C.uint8_t, size C.size_t) C.int {
	buf := goBytes(data, size)
	return C.int(fuzzshim.TestOneInput(context.Background(), buf))
}

//export LLVMFuzzerCustomMutator
func LLVMFuzzerCustomMutator(data *C.uint8_t, size, maxSize C.size_t, seed C.uint) C.size_t {
	buf := goBytesCap(data, size, maxSize)
	newSize := fuzzshim.FuzzerMutate(buf, int(size), int(maxSize))
	return C.size_t(newSize)
}

func goBytes(data *C.uint8_t, size C.size_t) []byte {
	if size == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(data)), int(size))
}

func goBytesCap(data *C.uint8_t, size, cap C.size_t) []byte {
	if cap == 0 {
		return nil
	}
	full := unsafe.Slice((*byte)(unsafe.Pointer(data)), int(cap))
	return full[:size:cap]
}

func cStringArray(argc int, argv **C.char) []string {
	if argc == 0 || argv == nil {
		return nil
	}
	ptrs := unsafe.Slice(argv, argc)
	out := make([]string, argc)
	for i, p := range ptrs {
		out[i] = C.GoString(p)
	}
	return out
}

func main() {}
