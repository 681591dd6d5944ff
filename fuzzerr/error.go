// Copyright 2024 movefuzz-go authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package fuzzerr defines the stable error taxonomy that per-invocation VM
// failures are classified into. It is a leaf package so that both the vm
// backend (which produces the classification) and the runner/driver layers
// (which consume it) can depend on it without a cycle.
package fuzzerr

import "fmt"

// Kind is the closed set of ways a target invocation can fail.
type Kind int

const (
	KindAbort Kind = iota
	KindArithmeticError
	KindMemoryLimitExceeded
	KindOutOfGas
	KindMissingDependency
	KindAccountAddressParseError
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindAbort:
		return "Abort"
	case KindArithmeticError:
		return "ArithmeticError"
	case KindMemoryLimitExceeded:
		return "MemoryLimitExceeded"
	case KindOutOfGas:
		return "OutOfGas"
	case KindMissingDependency:
		return "MissingDependency"
	case KindAccountAddressParseError:
		return "AccountAddressParseError"
	case KindUnknown:
		return "Unknown"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is a classified target-invocation failure. NumericStatus is only
// meaningful (and only ever non-zero) for KindUnknown, carried for
// forensic use by whoever inspects the crash artifact later.
type Error struct {
	Kind          Kind
	Message       string
	NumericStatus uint32
}

func (e *Error) Error() string {
	if e.Kind == KindUnknown {
		return fmt.Sprintf("%s - status=%d: %s", e.Kind, e.NumericStatus, e.Message)
	}
	return fmt.Sprintf("%s - %s", e.Kind, e.Message)
}

func Abort(message string) *Error {
	return &Error{Kind: KindAbort, Message: message}
}

func Arithmetic(message string) *Error {
	return &Error{Kind: KindArithmeticError, Message: message}
}

func MemoryLimitExceeded(message string) *Error {
	return &Error{Kind: KindMemoryLimitExceeded, Message: message}
}

func OutOfGas(message string) *Error {
	return &Error{Kind: KindOutOfGas, Message: message}
}

func MissingDependency(message string) *Error {
	return &Error{Kind: KindMissingDependency, Message: message}
}

func AccountAddressParseError(message string) *Error {
	return &Error{Kind: KindAccountAddressParseError, Message: message}
}

func Unknown(numericStatus uint32, message string) *Error {
	return &Error{Kind: KindUnknown, NumericStatus: numericStatus, Message: message}
}
