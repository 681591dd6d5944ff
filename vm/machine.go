// Copyright 2024 movefuzz-go authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package vm

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/experimental"
)

// Machine is the process-wide VM instance: one wazero.Runtime, reused
// across every invocation. It owns compilation (and wazero's compilation
// cache), not linkage — linkage is scoped to a fresh Session per call.
type Machine struct {
	rt wazero.Runtime
}

// NewMachine constructs the process-wide VM instance. Call once, during
// driver initialisation.
func NewMachine(ctx context.Context) *Machine {
	cfg := wazero.NewRuntimeConfig().WithCustomSections(true)
	return &Machine{rt: wazero.NewRuntimeWithConfig(ctx, cfg)}
}

// Close releases the underlying Wasm runtime and everything it compiled.
func (m *Machine) Close(ctx context.Context) error {
	return m.rt.Close(ctx)
}

// NewSession opens a fresh linkage scope for exactly one invocation: a new
// wazero.Namespace into which the dependency modules and the root module
// are instantiated, in that order, so the root's imports resolve against
// them. This is the Go analogue of "open a VM session against the store".
// listener, if non-nil, is attached before any module is instantiated so
// CoverageTap observes every function-entry boundary for this invocation;
// pass nil when coverage is disabled.
func (m *Machine) NewSession(ctx context.Context, root *CompiledModule, deps []*CompiledModule, listener experimental.FunctionListenerFactory) (*Session, error) {
	ns := m.rt.NewNamespace(ctx)
	sess := &Session{machine: m, ns: ns, root: root, Listener: listener}

	if err := sess.ensureHostModule(ctx); err != nil {
		ns.Close(ctx)
		return nil, fmt.Errorf("vm: register host module: %w", err)
	}

	for _, dep := range deps {
		if err := sess.instantiate(ctx, dep); err != nil {
			ns.Close(ctx)
			return nil, fmt.Errorf("vm: instantiate dependency %s: %w", dep.SelfID, err)
		}
	}
	if err := sess.instantiate(ctx, root); err != nil {
		ns.Close(ctx)
		return nil, fmt.Errorf("vm: instantiate root %s: %w", root.SelfID, err)
	}
	return sess, nil
}
