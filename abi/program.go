// Copyright 2024 movefuzz-go authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package abi recovers a callable target's signature from a set of compiled
// modules: it orders the modules by dependency, builds a small program-level
// model from their movefuzz-abi sections, and locates the one function the
// driver was asked to fuzz.
package abi

import (
	"fmt"

	"github.com/LucaPoda/movefuzz-go/vm"
)

// Program is the in-memory model AbiRecovery builds from a dependency-sorted
// module list: a lookup from self-id to module, preserving the sorted
// order so callers needing dependency-first iteration (e.g. vm.Machine's
// instantiation order) don't need to re-sort.
type Program struct {
	Ordered []*vm.CompiledModule
	byID    map[vm.SelfID]*vm.CompiledModule
}

// BuildProgram sorts modules into dependency order (see Sort) and indexes
// them by self-id.
func BuildProgram(modules []*vm.CompiledModule) (*Program, error) {
	ordered, err := Sort(modules)
	if err != nil {
		return nil, err
	}
	p := &Program{Ordered: ordered, byID: make(map[vm.SelfID]*vm.CompiledModule, len(ordered))}
	for _, m := range ordered {
		p.byID[m.SelfID] = m
	}
	return p, nil
}

// FindModule locates the module whose self-id's short name matches. Modules
// share the ordinary Move/Wasm convention of a unique short name per
// address, so a linear scan by name (rather than requiring callers to know
// the declaring address) is sufficient here.
func (p *Program) FindModule(name string) (*vm.CompiledModule, bool) {
	for _, m := range p.Ordered {
		if m.SelfID.Name == name {
			return m, true
		}
	}
	return nil, false
}

// Sort computes a dependency-first topological order over modules using
// their declared Imports. An import cycle is reported as an error — callers
// should treat it as fatal during driver initialisation, same as any other
// malformed module set.
func Sort(modules []*vm.CompiledModule) ([]*vm.CompiledModule, error) {
	byID := make(map[vm.SelfID]*vm.CompiledModule, len(modules))
	for _, m := range modules {
		byID[m.SelfID] = m
	}

	const (
		unvisited = iota
		visiting
		visited
	)
	state := make(map[vm.SelfID]int, len(modules))
	var out []*vm.CompiledModule

	var visit func(m *vm.CompiledModule) error
	visit = func(m *vm.CompiledModule) error {
		switch state[m.SelfID] {
		case visited:
			return nil
		case visiting:
			return fmt.Errorf("abi: import cycle detected at module %s", m.SelfID)
		}
		state[m.SelfID] = visiting
		for _, dep := range m.Imports {
			depModule, ok := byID[dep]
			if !ok {
				// The dependency isn't part of this module set (e.g. a
				// skipped, unparseable sibling file); resolution of it is
				// deferred to the VM, which reports MissingDependency.
				continue
			}
			if err := visit(depModule); err != nil {
				return err
			}
		}
		state[m.SelfID] = visited
		out = append(out, m)
		return nil
	}

	for _, m := range modules {
		if err := visit(m); err != nil {
			return nil, err
		}
	}
	return out, nil
}
