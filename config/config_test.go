// Copyright 2024 movefuzz-go authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHappyPath(t *testing.T) {
	d, err := Parse([]string{
		"--module-path=/tmp/m.mvb",
		"--target-module=counter",
		"--target-function=bump",
		"-fork=4", "-rss_limit_mb=4096",
	})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/m.mvb", d.ModulePath)
	assert.Equal(t, "counter", d.TargetModule)
	assert.Equal(t, "bump", d.TargetFunction)
	assert.False(t, d.Coverage)
	assert.Equal(t, []string{"-fork=4", "-rss_limit_mb=4096"}, d.Extra)
}

func TestParseVerboseDefaultsToZero(t *testing.T) {
	d, err := Parse([]string{
		"--module-path=/tmp/m.mvb",
		"--target-module=counter",
		"--target-function=bump",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, d.Verbose)

	d, err = Parse([]string{
		"--module-path=/tmp/m.mvb",
		"--target-module=counter",
		"--target-function=bump",
		"--verbose=2",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, d.Verbose)
}

func TestParseCoverageRequiresDir(t *testing.T) {
	_, err := Parse([]string{
		"--module-path=/tmp/m.mvb",
		"--target-module=counter",
		"--target-function=bump",
		"--coverage",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "coverage-map-dir")
}

func TestParseMissingRequired(t *testing.T) {
	_, err := Parse([]string{"--target-module=counter"})
	require.Error(t, err)
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "worker.yaml")
	contents := "module_path: /tmp/m.mvb\ntarget_module: counter\ntarget_function: bump\ncoverage: true\ncoverage_map_dir: /tmp/cov\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	d, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "counter", d.TargetModule)
	assert.True(t, d.Coverage)
	assert.Equal(t, "/tmp/cov", d.CoverageMapDir)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/worker.yaml")
	require.Error(t, err)
}
