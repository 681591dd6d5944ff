// Copyright 2024 movefuzz-go authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package config parses the driver CLI (the flags the fuzzing engine hands
// to the worker before it takes over the input loop) and, for
// non-interactive invocations, an equivalent YAML file.
package config

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Driver is the parsed driver configuration: everything DriverShim needs
// to build the Runner, plus the trailing pass-through arguments the engine
// itself consumes.
type Driver struct {
	ModulePath     string   `yaml:"module_path"`
	TargetModule   string   `yaml:"target_module"`
	TargetFunction string   `yaml:"target_function"`
	Coverage       bool     `yaml:"coverage"`
	CoverageMapDir string   `yaml:"coverage_map_dir"`
	Verbose        int      `yaml:"verbose"`
	Extra          []string `yaml:"-"`
}

// Parse parses the driver's own flags out of args, per §6: --module-path,
// --target-module, --target-function, --coverage, --coverage-map-dir,
// --verbose. Every argument that is not one of these flags (engine flags
// such as -fork=4, corpus directories) is returned verbatim in Extra, in
// its original order, forwarded to the engine exactly as-is — the driver
// never interprets it.
func Parse(args []string) (*Driver, error) {
	fs := flag.NewFlagSet("movefuzzworker", flag.ContinueOnError)
	modulePath := fs.String("module-path", "", "path to the root compiled module")
	targetModule := fs.String("target-module", "", "name of the module declaring the target function")
	targetFunction := fs.String("target-function", "", "short name of the target function")
	coverage := fs.Bool("coverage", false, "enable coverage-map export")
	coverageMapDir := fs.String("coverage-map-dir", "", "directory to write .coverage_map.mvcov into (required iff --coverage)")
	verbose := fs.Int("verbose", 0, "maximum pkg/log verbosity level to print")

	var own, extra []string
	for i := 0; i < len(args); i++ {
		name, _, hasValue := strings.Cut(strings.TrimLeft(args[i], "-"), "=")
		if f := fs.Lookup(name); f == nil || !strings.HasPrefix(args[i], "-") {
			extra = append(extra, args[i])
		} else if _, isBool := f.Value.(interface{ IsBoolFlag() bool }); !hasValue && !isBool && i+1 < len(args) {
			own, i = append(own, args[i], args[i+1]), i+1
		} else {
			own = append(own, args[i])
		}
	}
	args = own

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	d := &Driver{
		ModulePath:     *modulePath,
		TargetModule:   *targetModule,
		TargetFunction: *targetFunction,
		Coverage:       *coverage,
		CoverageMapDir: *coverageMapDir,
		Verbose:        *verbose,
		Extra:          extra,
	}
	if err := d.validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// Load reads a Driver from a YAML file, for CI invocations that prefer a
// structured config over a long flag line. Extra (the engine pass-through
// list) has no YAML equivalent and is always empty when loaded this way.
func Load(path string) (*Driver, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var d Driver
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := d.validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return &d, nil
}

func (d *Driver) validate() error {
	if d.ModulePath == "" {
		return fmt.Errorf("config: --module-path is required")
	}
	if d.TargetModule == "" {
		return fmt.Errorf("config: --target-module is required")
	}
	if d.TargetFunction == "" {
		return fmt.Errorf("config: --target-function is required")
	}
	if d.Coverage && d.CoverageMapDir == "" {
		return fmt.Errorf("config: --coverage-map-dir is required when --coverage is set")
	}
	return nil
}
