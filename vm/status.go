// Copyright 2024 movefuzz-go authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package vm

import (
	"errors"

	"github.com/tetratelabs/wazero/sys"

	"github.com/LucaPoda/movefuzz-go/fuzzerr"
)

// Abort status codes a target signals via the imported movefuzz.abort host
// call. These mirror the Move VM's own major status codes for the subset
// the spec gives a stable name to; anything else is Unknown.
const (
	StatusAborted             uint32 = 1
	StatusArithmeticError     uint32 = 2
	StatusMemoryLimitExceeded uint32 = 3
	StatusOutOfGas            uint32 = 4
	StatusMissingDependency   uint32 = 5
)

// Classify maps the error returned by a target invocation (see Session.Call)
// to the stable ErrorKind taxonomy. A nil err should never reach Classify;
// callers only invoke it on the error path.
func Classify(err error) *fuzzerr.Error {
	var exit *sys.ExitError
	if errors.As(err, &exit) {
		return classifyStatus(exit.ExitCode(), err.Error())
	}
	// Any other failure (trap: unreachable, out-of-bounds memory access,
	// stack exhaustion, ...) has no numeric status of its own.
	return fuzzerr.Unknown(0, err.Error())
}

func classifyStatus(code uint32, message string) *fuzzerr.Error {
	switch code {
	case StatusAborted:
		return fuzzerr.Abort(message)
	case StatusArithmeticError:
		return fuzzerr.Arithmetic(message)
	case StatusMemoryLimitExceeded:
		return fuzzerr.MemoryLimitExceeded(message)
	case StatusOutOfGas:
		return fuzzerr.OutOfGas(message)
	case StatusMissingDependency:
		return fuzzerr.MissingDependency(message)
	default:
		return fuzzerr.Unknown(code, message)
	}
}
