// Copyright 2024 movefuzz-go authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package abi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LucaPoda/movefuzz-go/vm"
)

func mod(name string, imports ...string) *vm.CompiledModule {
	ids := make([]vm.SelfID, len(imports))
	for i, n := range imports {
		ids[i] = vm.SelfID{Name: n}
	}
	return &vm.CompiledModule{SelfID: vm.SelfID{Name: name}, Imports: ids}
}

func TestSortOrdersDependenciesFirst(t *testing.T) {
	root := mod("root", "a", "b")
	a := mod("a", "b")
	b := mod("b")

	sorted, err := Sort([]*vm.CompiledModule{root, a, b})
	require.NoError(t, err)
	require.Len(t, sorted, 3)

	pos := map[string]int{}
	for i, m := range sorted {
		pos[m.SelfID.Name] = i
	}
	assert.Less(t, pos["b"], pos["a"])
	assert.Less(t, pos["a"], pos["root"])
}

func TestSortDetectsCycle(t *testing.T) {
	a := mod("a", "b")
	b := mod("b", "a")

	_, err := Sort([]*vm.CompiledModule{a, b})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestSortToleratesMissingDependency(t *testing.T) {
	root := mod("root", "ghost")
	sorted, err := Sort([]*vm.CompiledModule{root})
	require.NoError(t, err)
	require.Len(t, sorted, 1)
}

func TestBuildProgramFindModule(t *testing.T) {
	root := mod("root")
	p, err := BuildProgram([]*vm.CompiledModule{root})
	require.NoError(t, err)

	found, ok := p.FindModule("root")
	require.True(t, ok)
	assert.Equal(t, root, found)

	_, ok = p.FindModule("missing")
	assert.False(t, ok)
}
