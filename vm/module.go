// Copyright 2024 movefuzz-go authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package vm

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/tetratelabs/wazero"

	"github.com/LucaPoda/movefuzz-go/prog"
)

// abiSectionName is the custom Wasm section this package looks for on every
// compiled module. Raw Wasm function types can only express numeric value
// types, so the richer TypeSchema ABI (Address, Signer, Vector, Struct,
// U128, U256) is smuggled in as a JSON-encoded custom section instead.
const abiSectionName = "movefuzz-abi"

// SelfID identifies a module the way the VM language identifies it: by the
// declaring account address plus the module's short name.
type SelfID struct {
	Address [32]byte
	Name    string
}

func (id SelfID) String() string {
	return fmt.Sprintf("0x%s::%s", hex.EncodeToString(id.Address[:]), id.Name)
}

// FunctionABI is one exported function's recovered signature.
type FunctionABI struct {
	Name        string            `json:"name"`
	Params      []prog.TypeSchema `json:"params"`
	BytecodeLen int               `json:"bytecode_len"`
}

// abiSection is the on-disk shape of the movefuzz-abi custom section.
type abiSection struct {
	Address   [32]byte      `json:"address"`
	Name      string        `json:"name"`
	Imports   []SelfID      `json:"imports"`
	Functions []FunctionABI `json:"functions"`
}

// CompiledModule is the deserialised form of one on-disk module: its
// identity, its declared imports (used by AbiRecovery's topological sort),
// its function ABI table, and the raw bytes the VM actually loads.
type CompiledModule struct {
	SelfID    SelfID
	Imports   []SelfID
	Functions []FunctionABI
	Bytes     []byte
}

// FindFunction returns the first function (in declaration order) whose
// short name matches, mirroring the deterministic tie-break AbiRecovery
// requires when multiple functions share a name.
func (m *CompiledModule) FindFunction(name string) (FunctionABI, bool) {
	for _, f := range m.Functions {
		if f.Name == name {
			return f, true
		}
	}
	return FunctionABI{}, false
}

// Deserialize parses raw module bytes using the VM's own module decoder.
// It validates the binary is well-formed Wasm and extracts the ABI custom
// section; a module with no movefuzz-abi section, or a malformed one, is
// rejected since AbiRecovery has nothing to work with otherwise.
func Deserialize(ctx context.Context, raw []byte) (*CompiledModule, error) {
	cfg := wazero.NewRuntimeConfig().WithCustomSections(true)
	rt := wazero.NewRuntimeWithConfig(ctx, cfg)
	defer rt.Close(ctx)

	compiled, err := rt.CompileModule(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("vm: deserialize module: %w", err)
	}

	var sec abiSection
	found := false
	for _, s := range compiled.CustomSections() {
		if s.Name() == abiSectionName {
			if err := json.Unmarshal(s.Data(), &sec); err != nil {
				return nil, fmt.Errorf("vm: malformed %s section: %w", abiSectionName, err)
			}
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("vm: module has no %s custom section", abiSectionName)
	}

	return &CompiledModule{
		SelfID:    SelfID{Address: sec.Address, Name: sec.Name},
		Imports:   sec.Imports,
		Functions: sec.Functions,
		Bytes:     raw,
	}, nil
}
