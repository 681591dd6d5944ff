// Copyright 2024 movefuzz-go authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package modulestore holds the set of modules (root plus dependencies) an
// ExecutionSession links against. It keeps each module's raw bytes (the
// bytes the module was deserialised from) and answers the three capability
// queries a VM link step needs: linkage resolution, module resolution, and
// resource resolution.
package modulestore

import (
	"github.com/LucaPoda/movefuzz-go/vm"
)

// Store is a self-id-keyed collection of compiled modules. Insertion order
// is preserved, so Modules() always lists the root first (runner.Execute
// relies on this to split the root from its dependencies); a duplicate
// self-id replaces the prior entry in place rather than appending a second
// one.
type Store struct {
	order   []vm.SelfID
	modules map[vm.SelfID]*vm.CompiledModule
}

// New builds a Store from the root module and its dependencies, in that
// order.
func New(root *vm.CompiledModule, deps []*vm.CompiledModule) *Store {
	s := &Store{modules: make(map[vm.SelfID]*vm.CompiledModule, len(deps)+1)}
	s.insert(root)
	for _, d := range deps {
		s.insert(d)
	}
	return s
}

func (s *Store) insert(cm *vm.CompiledModule) {
	if _, exists := s.modules[cm.SelfID]; !exists {
		s.order = append(s.order, cm.SelfID)
	}
	s.modules[cm.SelfID] = cm
}

// Modules returns every stored module in insertion order (duplicates
// collapsed to their latest value).
func (s *Store) Modules() []*vm.CompiledModule {
	out := make([]*vm.CompiledModule, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.modules[id])
	}
	return out
}

// ResolveLinkage satisfies the VM's linkage-resolution capability: the Go
// rewrite performs no address remapping, so this is always the identity
// mapping — a module's self-id is also the id its dependents import it
// under.
func (s *Store) ResolveLinkage(id vm.SelfID) (vm.SelfID, bool) {
	if _, ok := s.modules[id]; !ok {
		return vm.SelfID{}, false
	}
	return id, true
}

// ResolveModule satisfies the module-resolution capability: the raw bytes
// for a stored self-id, or absent.
func (s *Store) ResolveModule(id vm.SelfID) ([]byte, bool) {
	cm, ok := s.modules[id]
	if !ok {
		return nil, false
	}
	return cm.Bytes, true
}

// ResolveResource satisfies the resource-resolution capability. The fuzzer
// never seeds on-chain resource state, so this is always absent — kept as
// an explicit method (rather than omitted) so Store's shape documents all
// three capability sets the original source's module-manager traits
// require, even though only two carry real behaviour in this rewrite.
func (s *Store) ResolveResource(id vm.SelfID, tag string) ([]byte, bool) {
	return nil, false
}
