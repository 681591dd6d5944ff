// Copyright 2024 movefuzz-go authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package moduleio reads compiled modules off disk: the root module named on
// the command line, plus any sibling modules its directory holds that the
// target may depend on.
package moduleio

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/LucaPoda/movefuzz-go/pkg/log"
	"github.com/LucaPoda/movefuzz-go/vm"
)

// CompiledExt is the on-disk extension this loader recognises as a compiled
// module file. The Rust source used `.mv`; the Go rewrite uses `.mvb`
// instead, to avoid colliding with unrelated `.mv` files a developer's
// machine may already have lying around (Markdown variants, editor scratch
// files, etc).
const CompiledExt = ".mvb"

// Load reads the root module at rootPath and every sibling `.mvb` file under
// its directory (recursively), deserialising each with the VM's module
// decoder. Failure to read or deserialise the root is returned as an error —
// callers are expected to treat this as fatal during driver initialisation.
// A dependency file that fails to deserialise is skipped with a warning; the
// walk does not stop for it.
func Load(ctx context.Context, rootPath string) (root *vm.CompiledModule, deps []*vm.CompiledModule, err error) {
	rootBytes, err := os.ReadFile(rootPath)
	if err != nil {
		return nil, nil, err
	}
	root, err = vm.Deserialize(ctx, rootBytes)
	if err != nil {
		return nil, nil, err
	}

	absRoot, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, nil, err
	}
	dir := filepath.Dir(absRoot)

	walkErr := filepath.Walk(dir, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			log.Logf(1, "moduleio: walk %s: %v", path, walkErr)
			return nil
		}
		if info.IsDir() {
			return nil
		}
		if strings.ToLower(filepath.Ext(path)) != CompiledExt {
			return nil
		}
		absPath, err := filepath.Abs(path)
		if err == nil && absPath == absRoot {
			return nil
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			log.Logf(0, "moduleio: skipping %s: %v", path, err)
			return nil
		}
		cm, err := vm.Deserialize(ctx, raw)
		if err != nil {
			log.Logf(0, "moduleio: skipping %s: %v", path, err)
			return nil
		}
		deps = append(deps, cm)
		return nil
	})
	if walkErr != nil {
		return nil, nil, walkErr
	}
	return root, deps, nil
}
