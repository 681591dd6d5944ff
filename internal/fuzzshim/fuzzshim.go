// Copyright 2024 movefuzz-go authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package fuzzshim holds the pure-Go logic behind DriverShim (§4.7): the
// one-time Runner construction, the per-input dispatch, the debug-dump
// branch, and the panic-to-abort boundary the engine's native ABI
// requires. It is deliberately free of cgo so it stays unit-testable
// without a C toolchain; cmd/movefuzzworker/shim.go is the thin cgo
// boundary that exports these entry points under the fixed libFuzzer
// symbol names and wires NativeMutate/Abort to the real OS primitives.
package fuzzshim

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/LucaPoda/movefuzz-go/config"
	"github.com/LucaPoda/movefuzz-go/pkg/log"
	"github.com/LucaPoda/movefuzz-go/runner"
)

// DebugPathEnvVar is the environment variable that, when set, redirects
// every per-input call into the debug-dump branch instead of executing
// the target (§6).
const DebugPathEnvVar = "MOVE_LIBFUZZER_DEBUG_PATH"

// Corpus is the two-valued status TestOneInput reports to the engine.
type Corpus int32

const (
	Keep   Corpus = 0
	Reject Corpus = -1
)

// Abort terminates the process the way the engine's crash-reporting
// expects: immediately, with no unwinding, so the current stack is what a
// post-mortem tool inspects. The default implementation exits with the
// conventional 128+SIGABRT status; cmd/movefuzzworker overrides this with
// a real process abort at startup. Exposed as a variable (rather than a
// hardwired os.Exit call) so tests can observe it fire without killing
// the test binary.
var Abort = func() { os.Exit(134) }

// NativeMutate, when non-nil, is cmd/movefuzzworker's cgo binding to the
// engine's own LLVMFuzzerMutate. Left nil in pure-Go builds and tests,
// where FuzzerMutate falls back to returning the input unmodified.
var NativeMutate func(data []byte, size, maxSize int) int

// previousPanicHook is an optional caller-installed hook chained before
// Abort, mirroring "composes with any pre-existing hook" (§5): Go has no
// native process-wide panic hook, so this package models the chain
// explicitly rather than through a runtime facility.
var previousPanicHook atomic.Pointer[func(recovered any)]

// SetPanicHook installs h to run (with whatever hook was previously
// installed still chained ahead of it) before every panic-triggered
// Abort. Passing nil clears it.
func SetPanicHook(h func(recovered any)) {
	if h == nil {
		previousPanicHook.Store(nil)
		return
	}
	chained := h
	if prev := previousPanicHook.Load(); prev != nil {
		chained = func(recovered any) { (*prev)(recovered); h(recovered) }
	}
	previousPanicHook.Store(&chained)
}

// singleton is the process-wide Runner plus the debug-dump path, built
// exactly once by Initialise and read by every TestOneInput call.
type singleton struct {
	runner        *runner.Runner
	debugDumpPath string
}

var global atomic.Pointer[singleton]

// Initialise parses the driver CLI out of args, resolves the debug-dump
// environment variable, and builds the Runner singleton. Any error here is
// a configuration error the caller (cmd/movefuzzworker) should report and
// exit non-zero on, before the engine's first input arrives (§7).
func Initialise(ctx context.Context, args []string) error {
	cfg, err := config.Parse(args)
	if err != nil {
		return fmt.Errorf("fuzzshim: parse driver CLI: %w", err)
	}
	log.SetVerbose(cfg.Verbose)

	r, err := runner.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("fuzzshim: build runner: %w", err)
	}

	s := &singleton{runner: r, debugDumpPath: os.Getenv(DebugPathEnvVar)}
	global.Store(s)
	return nil
}

// TestOneInput is the per-input entry point. When the debug-dump path is
// set it writes data's debug representation there and returns Keep
// without touching the Runner or the VM at all (§8, property 7). A panic
// anywhere beneath this call — in the core or in untrusted VM code — is
// recovered here, chained to any installed panic hook, and converted to
// Abort rather than allowed to unwind past this boundary (§7, §9).
func TestOneInput(ctx context.Context, data []byte) (result Corpus) {
	defer func() {
		if r := recover(); r != nil {
			if hook := previousPanicHook.Load(); hook != nil {
				(*hook)(r)
			}
			log.Logf(0, "fuzzshim: panic: %v", r)
			Abort()
			result = Reject
		}
	}()

	s := global.Load()
	if s == nil {
		panic("fuzzshim: TestOneInput called before a successful Initialise")
	}

	if s.debugDumpPath != "" {
		if err := writeDebugDump(s.debugDumpPath, data); err != nil {
			log.Logf(0, "fuzzshim: debug dump: %v", err)
		}
		return Keep
	}

	if classified := s.runner.Execute(ctx, data); classified != nil {
		msg := log.Truncate([]byte(classified.Message), crashMessageHead, crashMessageTail)
		log.Logf(0, "fuzzshim[%s]: crash: %s: %s (input length %d)", s.runner.ID(), classified.Kind, msg, len(data))
		Abort()
		return Reject
	}
	return Keep
}

// crashMessageHead and crashMessageTail bound how much of a classified
// crash's message reaches the process log: VM error messages can embed
// the offending input, which for a large corpus entry would otherwise
// make every crash line as unbounded as the input itself.
const (
	crashMessageHead = 256
	crashMessageTail = 256
)

// debugDumpHead and debugDumpTail bound the quoted rendering written by
// writeDebugDump, for the same reason: a multi-megabyte fuzzer input
// should not turn into a multi-megabyte dump file.
const (
	debugDumpHead = 4096
	debugDumpTail = 4096
)

// writeDebugDump renders data's debug text (Go's %q, a single-line,
// uniquely-decodable quoted string) to path, truncating/creating it as
// needed — the Go analogue of the original source's `{:?}` Debug dump.
func writeDebugDump(path string, data []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	rendered := log.Truncate([]byte(fmt.Sprintf("%q", data)), debugDumpHead, debugDumpTail)
	_, err = fmt.Fprintf(f, "%s\n", rendered)
	return err
}

// FuzzerMutate is the Go analogue of `libfuzzer::fuzzer_mutate`: it
// forwards to the engine's own native mutator (via NativeMutate, wired by
// cmd/movefuzzworker) and enforces the same invariants the original
// source asserts (§8, property 8). With no native mutator wired (pure-Go
// builds, unit tests) it is a harmless identity mutation returning size
// unchanged, so CustomMutator stays callable without a C toolchain.
func FuzzerMutate(data []byte, size, maxSize int) int {
	if size > len(data) {
		panic(fmt.Sprintf("fuzzshim: size %d exceeds buffer length %d", size, len(data)))
	}
	if maxSize > len(data) {
		panic(fmt.Sprintf("fuzzshim: max_size %d exceeds buffer length %d", maxSize, len(data)))
	}
	if NativeMutate == nil {
		return size
	}
	newSize := NativeMutate(data, size, maxSize)
	if newSize > len(data) {
		panic(fmt.Sprintf("fuzzshim: native mutator returned size %d exceeding buffer length %d", newSize, len(data)))
	}
	return newSize
}

// reset is test-only: it clears the process-wide singleton so repeated
// Initialise calls in separate test cases don't observe each other.
func reset() { global.Store(nil) }
