// Copyright 2024 movefuzz-go authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package vm

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/experimental"
)

const (
	allocExport = "movefuzz_alloc"
	hostModule  = "movefuzz"
)

// Session is a single invocation's linkage scope: one wazero.Namespace with
// the dependency modules and the root module instantiated into it, plus the
// movefuzz host module the root imports to signal abnormal termination.
// A Session is single-use — build one per invocation and discard it.
type Session struct {
	machine *Machine
	ns      wazero.Namespace
	root    *CompiledModule
	rootMod api.Module

	// Listener, if set, is installed on every module instantiated into
	// this session so CoverageTap can observe function-entry boundaries.
	// nil means coverage is disabled for this invocation.
	Listener experimental.FunctionListenerFactory
}

// Close tears down the namespace and everything instantiated into it.
func (s *Session) Close(ctx context.Context) error {
	if s.ns == nil {
		return nil
	}
	return s.ns.Close(ctx)
}

func (s *Session) instantiate(ctx context.Context, cm *CompiledModule) error {
	compiled, err := s.machine.rt.CompileModule(ctx, cm.Bytes)
	if err != nil {
		return fmt.Errorf("vm: compile %s: %w", cm.SelfID, err)
	}

	icfg := wazero.NewModuleConfig().WithName(cm.SelfID.String())
	if s.Listener != nil {
		ctx = context.WithValue(ctx, experimental.FunctionListenerFactoryKey{}, s.Listener)
	}

	mod, err := s.ns.InstantiateModule(ctx, compiled, icfg)
	if err != nil {
		return err
	}
	if cm == s.root {
		s.rootMod = mod
	}
	return nil
}

// ensureHostModule registers the movefuzz host module (the single imported
// function "abort") into the namespace. It must exist before any dependency
// or root module that imports it is instantiated.
func (s *Session) ensureHostModule(ctx context.Context) error {
	_, err := s.ns.NewHostModuleBuilder(hostModule).
		NewFunctionBuilder().
		WithFunc(func(ctx context.Context, mod api.Module, code uint32) {
			mod.CloseWithExitCode(ctx, code)
		}).
		Export("abort").
		Instantiate(ctx)
	return err
}

// Call invokes one exported target function with pre-synthesised argument
// bytes. Arguments are written into the root module's own linear memory via
// its exported allocator, then the target is invoked with (ptr, len) — the
// fixed calling convention every compiled module's exports share. A nil
// return means the call completed normally; any non-nil error should be
// passed to Classify.
func (s *Session) Call(ctx context.Context, funcName string, args []byte) error {
	if s.rootMod == nil {
		return fmt.Errorf("vm: session has no root module instantiated")
	}

	alloc := s.rootMod.ExportedFunction(allocExport)
	if alloc == nil {
		return fmt.Errorf("vm: root module does not export %s", allocExport)
	}
	allocRes, err := alloc.Call(ctx, uint64(len(args)))
	if err != nil {
		return fmt.Errorf("vm: allocate %d bytes: %w", len(args), err)
	}
	ptr := uint32(allocRes[0])

	if len(args) > 0 {
		mem := s.rootMod.Memory()
		if mem == nil || !mem.Write(ptr, args) {
			return fmt.Errorf("vm: write %d bytes at offset %d out of bounds", len(args), ptr)
		}
	}

	target := s.rootMod.ExportedFunction(funcName)
	if target == nil {
		return fmt.Errorf("vm: target function not found: %s", funcName)
	}
	_, err = target.Call(ctx, uint64(ptr), uint64(len(args)))
	return err
}
