// Copyright 2024 movefuzz-go authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package coverage

import (
	"bytes"
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tetratelabs/wazero/api"
)

type stubDef struct {
	moduleName string
	index      uint32
}

func (d stubDef) ModuleName() string                          { return d.moduleName }
func (d stubDef) Index() uint32                                { return d.index }
func (d stubDef) Name() string                                 { return "" }
func (d stubDef) DebugName() string                            { return d.moduleName }
func (d stubDef) Import() (moduleName, name string, isImport bool) { return "", "", false }
func (d stubDef) ExportNames() []string                        { return nil }
func (d stubDef) GoFunc() *reflect.Value                       { return nil }
func (d stubDef) ParamTypes() []api.ValueType                  { return nil }
func (d stubDef) ParamNames() []string                         { return nil }
func (d stubDef) ResultTypes() []api.ValueType                 { return nil }

func TestListenerWritesTraceRecord(t *testing.T) {
	var buf bytes.Buffer
	factory := NewListenerFactory(&buf)
	listener := factory.NewListener(stubDef{moduleName: "counter", index: 3})

	ctx := listener.Before(context.Background(), nil, nil)
	listener.After(ctx, nil, nil, nil)

	assert.Equal(t, "counter 3\n", buf.String())
}
