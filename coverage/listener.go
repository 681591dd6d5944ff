// Copyright 2024 movefuzz-go authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package coverage

import (
	"context"
	"fmt"
	"io"

	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/experimental"
)

// ListenerFactory builds a per-function tracer that writes one
// "module_name program_counter" line to w every time the function is
// entered, where program_counter is the function's index — the finest
// boundary wazero's public experimental.FunctionListener exposes, standing
// in for true per-instruction program-counter coverage.
type ListenerFactory struct {
	w io.Writer
}

// NewListenerFactory builds a ListenerFactory writing trace records to w.
// w is expected to be a *os.File opened at the path TraceEnvVar points to;
// the factory itself is agnostic to that, to keep it testable against a
// plain bytes.Buffer.
func NewListenerFactory(w io.Writer) *ListenerFactory {
	return &ListenerFactory{w: w}
}

func (f *ListenerFactory) NewListener(def api.FunctionDefinition) experimental.FunctionListener {
	return &functionTracer{w: f.w, module: def.ModuleName(), index: def.Index()}
}

type functionTracer struct {
	w      io.Writer
	module string
	index  uint32
}

func (t *functionTracer) Before(ctx context.Context, def api.FunctionDefinition, paramValues []uint64) context.Context {
	fmt.Fprintf(t.w, "%s %d\n", t.module, t.index)
	return ctx
}

func (t *functionTracer) After(ctx context.Context, def api.FunctionDefinition, err error, resultValues []uint64) {
}
