// Copyright 2024 movefuzz-go authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package runner holds the Runner singleton: the process-wide state built
// once during driver initialisation (loaded modules, recovered ABI, VM
// machine, coverage tap) and exercised once per fuzzer input thereafter.
package runner

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/LucaPoda/movefuzz-go/abi"
	"github.com/LucaPoda/movefuzz-go/config"
	"github.com/LucaPoda/movefuzz-go/coverage"
	"github.com/LucaPoda/movefuzz-go/fuzzerr"
	"github.com/LucaPoda/movefuzz-go/moduleio"
	"github.com/LucaPoda/movefuzz-go/modulestore"
	"github.com/LucaPoda/movefuzz-go/pkg/log"
	"github.com/LucaPoda/movefuzz-go/synth"
	"github.com/LucaPoda/movefuzz-go/vm"
)

// Runner is the process-wide fuzzing worker: the VM instance, the loaded
// modules, the recovered target ABI, and the coverage tap. Built exactly
// once during driver initialisation by New; every per-input call goes
// through Execute, serialised by a weight-1 semaphore so the rules around
// process-wide state access are satisfied even though the engine itself
// never calls Execute concurrently.
type Runner struct {
	// id distinguishes this worker's log lines and crash reports from
	// any sibling worker process sharing the same coverage-map
	// directory (the engine's -fork=N spawns several). It is generated
	// once per Runner (that is, once per process), not per invocation.
	id uuid.UUID

	gate *semaphore.Weighted

	machine *vm.Machine
	root    *vm.CompiledModule
	deps    []*vm.CompiledModule
	target  *abi.Target
	tap     *coverage.Tap
}

// New loads the root module and its siblings, recovers the target's ABI,
// and constructs the VM machine and coverage tap described by cfg. Every
// failure here is a configuration error the caller should treat as fatal
// (see DriverShim, §4.7): there is nothing useful a driver can do with a
// bad module path or an unresolvable target.
func New(ctx context.Context, cfg *config.Driver) (*Runner, error) {
	root, deps, err := moduleio.Load(ctx, cfg.ModulePath)
	if err != nil {
		return nil, fmt.Errorf("runner: load modules: %w", err)
	}

	all := append([]*vm.CompiledModule{root}, deps...)
	target, err := abi.Recover(all, cfg.TargetModule, cfg.TargetFunction)
	if err != nil {
		return nil, fmt.Errorf("runner: recover target ABI: %w", err)
	}

	id := uuid.New()

	if cfg.Coverage {
		if err := os.MkdirAll(cfg.CoverageMapDir, 0o755); err != nil {
			return nil, fmt.Errorf("runner: create coverage-map-dir: %w", err)
		}
	}
	tap := coverage.New(cfg.Coverage, cfg.CoverageMapDir)

	log.Logf(0, "runner[%s]: target %s::%s params=%s max_coverage=%d coverage=%v",
		id, cfg.TargetModule, cfg.TargetFunction, target.Params, target.MaxCoverage, tap.Enabled())

	return &Runner{
		id:      id,
		gate:    semaphore.NewWeighted(1),
		machine: vm.NewMachine(ctx),
		root:    root,
		deps:    deps,
		target:  target,
		tap:     tap,
	}, nil
}

// ID returns this Runner's process-instance identifier, used to
// disambiguate log lines and crash reports when several worker processes
// (the engine's -fork=N) share one coverage-map directory.
func (r *Runner) ID() uuid.UUID { return r.id }

// Close releases the underlying VM machine. Driver shutdown is not part of
// the engine's contract (the process is expected to exit or abort, not
// unwind cleanly), so this exists mainly for tests that build a Runner and
// want to free it deterministically.
func (r *Runner) Close(ctx context.Context) error {
	return r.machine.Close(ctx)
}

// MaxCoverage exposes the recovered target's bytecode length, per §9's
// "expose it but do not act on it" resolution of the ambiguous source
// behaviour.
func (r *Runner) MaxCoverage() int { return r.target.MaxCoverage }

// Execute is one ExecutionSession: it synthesises arguments from data,
// opens a fresh VM session against a freshly built ModuleStore, invokes the
// target, and classifies the outcome. A nil return means "keep" (§4.6); a
// non-nil return is the classified crash the caller (DriverShim) should
// report and abort on.
func (r *Runner) Execute(ctx context.Context, data []byte) *fuzzerr.Error {
	if err := r.gate.Acquire(ctx, 1); err != nil {
		return fuzzerr.Unknown(0, fmt.Sprintf("runner: acquire execution gate: %v", err))
	}
	defer r.gate.Release(1)

	if err := r.tap.Setup(); err != nil {
		log.Logf(0, "runner: coverage setup: %v", err)
	}

	values := synth.Synthesise(r.target.Params, data)
	logParseErrors(values)
	args := synth.EncodeArgs(values)

	store := modulestore.New(r.root, r.deps)
	modules := store.Modules()

	listener, closeListener, err := r.tap.OpenListener()
	if err != nil {
		log.Logf(0, "runner: open coverage listener: %v", err)
	}

	sess, err := r.machine.NewSession(ctx, modules[0], modules[1:], listener)
	if err != nil {
		if closeListener != nil {
			closeListener()
		}
		r.tap.OnFailure()
		return fuzzerr.Unknown(0, fmt.Sprintf("runner: open VM session: %v", err))
	}
	defer sess.Close(ctx)

	callErr := sess.Call(ctx, r.target.Function.Name, args)

	if closeListener != nil {
		if err := closeListener(); err != nil {
			log.Logf(0, "runner: close trace file: %v", err)
		}
	}

	if callErr == nil {
		if err := r.tap.OnSuccess(); err != nil {
			log.Logf(0, "runner: coverage export: %v", err)
		}
		return nil
	}
	if err := r.tap.OnFailure(); err != nil {
		log.Logf(0, "runner: coverage cleanup: %v", err)
	}
	return vm.Classify(callErr)
}

// logParseErrors walks a synthesised value tree and logs (but does not
// fail on) every AccountAddressParseError recorded during synthesis — the
// spec resolves this ambiguity as "benign log", not a crash (§9).
func logParseErrors(values []synth.Value) {
	for _, v := range values {
		if v.ParseError != nil {
			log.Logf(1, "runner: %v", v.ParseError)
		}
		if len(v.Elems) > 0 {
			logParseErrors(v.Elems)
		}
	}
}
