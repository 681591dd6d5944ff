// Copyright 2024 movefuzz-go authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package coverage implements CoverageTap: the per-invocation trace
// file lifecycle and its reduction into a persisted coverage map.
package coverage

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tetratelabs/wazero/experimental"

	"github.com/LucaPoda/movefuzz-go/pkg/log"
)

const (
	traceFileName = ".trace"
	mapFileName   = ".coverage_map.mvcov"

	// TraceEnvVar is the environment variable Setup publishes the
	// absolute trace-file path under. Nothing in this module reads it
	// back: the trace is written through the file OpenListener opens at
	// the same path. The variable name is carried over from the original
	// source so any external tooling built against it keeps working
	// unmodified.
	TraceEnvVar = "MOVE_VM_TRACE"
)

// Tap is CoverageTap. A disabled Tap is a complete no-op at every call site,
// so callers don't need to branch on whether coverage was requested.
type Tap struct {
	enabled bool
	dir     string
}

// New builds a Tap. dir must already exist if enabled is true — DriverShim
// is responsible for creating it during initialisation.
func New(enabled bool, dir string) *Tap {
	return &Tap{enabled: enabled, dir: dir}
}

func (t *Tap) Enabled() bool { return t.enabled }

func (t *Tap) tracePath() string { return filepath.Join(t.dir, traceFileName) }
func (t *Tap) mapPath() string   { return filepath.Join(t.dir, mapFileName) }

// Setup deletes any pre-existing trace file and publishes its path via
// TraceEnvVar, readying the tap for one invocation. No-op when disabled.
func (t *Tap) Setup() error {
	if !t.enabled {
		return nil
	}
	path := t.tracePath()
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("coverage: remove stale trace: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	return os.Setenv(TraceEnvVar, abs)
}

// OnSuccess reduces the trace file produced by a successful invocation into
// a coverage map, written (overwriting any previous map) alongside it.
// No-op when disabled.
func (t *Tap) OnSuccess() error {
	if !t.enabled {
		return nil
	}
	cm, err := ParseTrace(t.tracePath())
	if err != nil {
		log.Logf(0, "coverage: parse trace: %v", err)
		return err
	}
	return WriteMap(t.mapPath(), cm)
}

// OnFailure discards the trace file from a failed invocation; failing
// inputs are preserved by the engine's own crash artefact, not by the
// coverage map. No-op when disabled.
func (t *Tap) OnFailure() error {
	if !t.enabled {
		return nil
	}
	err := os.Remove(t.tracePath())
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("coverage: remove trace after failure: %w", err)
	}
	return nil
}

// OpenListener opens the trace file Setup just published the path of and
// wraps it in a ListenerFactory, handing both back so the caller (an
// ExecutionSession) can attach the factory to its vm.Session and close the
// file once the invocation is done. Returns (nil, nil, nil) when coverage
// is disabled, so callers don't need to branch on Enabled() themselves.
func (t *Tap) OpenListener() (experimental.FunctionListenerFactory, func() error, error) {
	if !t.enabled {
		return nil, nil, nil
	}
	f, err := os.Create(t.tracePath())
	if err != nil {
		return nil, nil, fmt.Errorf("coverage: open trace for writing: %w", err)
	}
	return NewListenerFactory(f), f.Close, nil
}

// Map is a coverage map keyed by (module name, function index), the
// function-entry granularity wazero's public listener API exposes in place
// of true per-instruction program-counter coverage.
type Map map[string]map[uint32]struct{}

// Add records one hit.
func (m Map) Add(module string, pc uint32) {
	set, ok := m[module]
	if !ok {
		set = make(map[uint32]struct{})
		m[module] = set
	}
	set[pc] = struct{}{}
}

// ParseTrace reads a newline-delimited "module_name program_counter" trace
// file into a Map.
func ParseTrace(path string) (Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cm := Map{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		var module string
		var pc uint32
		if _, err := fmt.Sscanf(line, "%s %d", &module, &pc); err != nil {
			log.Logf(1, "coverage: skipping malformed trace line %q: %v", line, err)
			continue
		}
		cm.Add(module, pc)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return cm, nil
}

// WriteMap persists a Map in the same newline-delimited format ParseTrace
// reads, so a coverage map can itself be replayed as a trace for tooling
// that merges maps across runs.
func WriteMap(path string, cm Map) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for module, pcs := range cm {
		for pc := range pcs {
			if _, err := fmt.Fprintf(w, "%s %d\n", module, pc); err != nil {
				return err
			}
		}
	}
	return w.Flush()
}
