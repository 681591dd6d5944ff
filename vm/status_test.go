// Copyright 2024 movefuzz-go authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package vm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tetratelabs/wazero/sys"

	"github.com/LucaPoda/movefuzz-go/fuzzerr"
)

func TestClassifyKnownStatuses(t *testing.T) {
	cases := []struct {
		code uint32
		want fuzzerr.Kind
	}{
		{StatusAborted, fuzzerr.KindAbort},
		{StatusArithmeticError, fuzzerr.KindArithmeticError},
		{StatusMemoryLimitExceeded, fuzzerr.KindMemoryLimitExceeded},
		{StatusOutOfGas, fuzzerr.KindOutOfGas},
		{StatusMissingDependency, fuzzerr.KindMissingDependency},
	}
	for _, c := range cases {
		got := Classify(sys.NewExitError(c.code))
		assert.Equal(t, c.want, got.Kind)
	}
}

func TestClassifyUnknownStatus(t *testing.T) {
	got := Classify(sys.NewExitError(99))
	assert.Equal(t, fuzzerr.KindUnknown, got.Kind)
	assert.Equal(t, uint32(99), got.NumericStatus)
}

func TestClassifyNonExitError(t *testing.T) {
	got := Classify(errors.New("unreachable"))
	assert.Equal(t, fuzzerr.KindUnknown, got.Kind)
	assert.Equal(t, uint32(0), got.NumericStatus)
}
