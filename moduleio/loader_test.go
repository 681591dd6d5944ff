// Copyright 2024 movefuzz-go authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package moduleio

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const abiSectionName = "movefuzz-abi"

func appendULEB128(b []byte, v uint64) []byte {
	for {
		c := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b = append(b, c|0x80)
		} else {
			b = append(b, c)
			return b
		}
	}
}

func buildModule(t *testing.T, name string) []byte {
	t.Helper()
	abi := []byte(`{"address":[0],"name":"` + name + `","imports":[],"functions":[]}`)

	var out []byte
	out = append(out, 0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00)

	var content []byte
	content = appendULEB128(content, uint64(len(abiSectionName)))
	content = append(content, abiSectionName...)
	content = append(content, abi...)

	out = append(out, 0x00)
	out = appendULEB128(out, uint64(len(content)))
	out = append(out, content...)
	return out
}

func TestLoadRootAndDependencies(t *testing.T) {
	dir := t.TempDir()
	rootPath := filepath.Join(dir, "root.mvb")
	depPath := filepath.Join(dir, "dep.mvb")
	irrelevantPath := filepath.Join(dir, "notes.txt")

	require.NoError(t, os.WriteFile(rootPath, buildModule(t, "root"), 0o644))
	require.NoError(t, os.WriteFile(depPath, buildModule(t, "dep"), 0o644))
	require.NoError(t, os.WriteFile(irrelevantPath, []byte("hello"), 0o644))

	root, deps, err := Load(context.Background(), rootPath)
	require.NoError(t, err)
	assert.Equal(t, "root", root.SelfID.Name)
	require.Len(t, deps, 1)
	assert.Equal(t, "dep", deps[0].SelfID.Name)
}

func TestLoadSkipsUnparseableDependency(t *testing.T) {
	dir := t.TempDir()
	rootPath := filepath.Join(dir, "root.mvb")
	badDepPath := filepath.Join(dir, "broken.mvb")

	require.NoError(t, os.WriteFile(rootPath, buildModule(t, "root"), 0o644))
	require.NoError(t, os.WriteFile(badDepPath, []byte("not a module"), 0o644))

	root, deps, err := Load(context.Background(), rootPath)
	require.NoError(t, err)
	assert.Equal(t, "root", root.SelfID.Name)
	assert.Empty(t, deps)
}

func TestLoadFatalOnMissingRoot(t *testing.T) {
	_, _, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing.mvb"))
	require.Error(t, err)
}

func TestLoadFatalOnUndeserialisableRoot(t *testing.T) {
	dir := t.TempDir()
	rootPath := filepath.Join(dir, "root.mvb")
	require.NoError(t, os.WriteFile(rootPath, []byte("garbage"), 0o644))

	_, _, err := Load(context.Background(), rootPath)
	require.Error(t, err)
}
