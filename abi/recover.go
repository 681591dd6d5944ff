// Copyright 2024 movefuzz-go authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package abi

import (
	"fmt"

	"github.com/LucaPoda/movefuzz-go/prog"
	"github.com/LucaPoda/movefuzz-go/vm"
)

// Target is the recovered signature of the function the driver was asked to
// fuzz: its parameter schemas (for ValueSynthesiser) and its bytecode
// length, exposed as max_coverage for consumers that want to size a
// progress bar or a coverage-map allocation up front.
type Target struct {
	Module      *vm.CompiledModule
	Function    vm.FunctionABI
	Params      prog.Parameters
	MaxCoverage int
}

// Recover builds a Program from modules, then locates targetModule and
// targetFunction within it. Either lookup failing is fatal, matching the
// original source's behaviour: a driver given a module path with no such
// target has nothing useful to do.
func Recover(modules []*vm.CompiledModule, targetModule, targetFunction string) (*Target, error) {
	program, err := BuildProgram(modules)
	if err != nil {
		return nil, err
	}

	mod, ok := program.FindModule(targetModule)
	if !ok {
		return nil, fmt.Errorf("abi: target module not found: %s", targetModule)
	}

	fn, ok := mod.FindFunction(targetFunction)
	if !ok {
		return nil, fmt.Errorf("abi: target function not found: %s", targetFunction)
	}

	for _, p := range fn.Params {
		if err := validate(p); err != nil {
			return nil, fmt.Errorf("abi: %s::%s: %w", targetModule, targetFunction, err)
		}
	}

	return &Target{
		Module:      mod,
		Function:    fn,
		Params:      prog.Parameters(fn.Params),
		MaxCoverage: fn.BytecodeLen,
	}, nil
}

// validate rejects any schema outside the closed TypeSchema set. In
// practice the JSON decoder can only ever produce the kinds prog.Kind
// enumerates, but a corrupted or hand-crafted movefuzz-abi section could
// still claim an out-of-range kind number, so this is a defensive check
// rather than dead code.
func validate(t prog.TypeSchema) error {
	if t.IsPrimitive() {
		return nil
	}
	switch t.Kind {
	case prog.KindAddress, prog.KindSigner:
		return nil
	case prog.KindVector:
		if t.Elem == nil {
			return fmt.Errorf("vector parameter with no element schema")
		}
		return validate(*t.Elem)
	case prog.KindStruct:
		for _, f := range t.Fields {
			if err := validate(f); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("target function uses unsupported parameter type: %s", t.Kind)
	}
}
