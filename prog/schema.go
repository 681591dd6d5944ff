// Copyright 2024 movefuzz-go authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package prog defines the closed set of fuzzable parameter shapes
// ("schemas") that a target function's arguments may take, and the
// operations that walk them.
package prog

import (
	"fmt"
	"strings"
)

// Kind identifies one of the shapes a TypeSchema can take.
type Kind int

const (
	KindBool Kind = iota
	KindU8
	KindU16
	KindU32
	KindU64
	KindU128
	KindU256
	KindAddress
	KindSigner
	KindVector
	KindStruct
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "Bool"
	case KindU8:
		return "U8"
	case KindU16:
		return "U16"
	case KindU32:
		return "U32"
	case KindU64:
		return "U64"
	case KindU128:
		return "U128"
	case KindU256:
		return "U256"
	case KindAddress:
		return "Address"
	case KindSigner:
		return "Signer"
	case KindVector:
		return "Vector"
	case KindStruct:
		return "Struct"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// TypeSchema is a tagged, recursive description of one parameter shape.
// Elem is only meaningful for KindVector; Fields only for KindStruct.
type TypeSchema struct {
	Kind   Kind
	Elem   *TypeSchema
	Fields []TypeSchema
}

// Width returns the number of little-endian bytes a primitive schema
// consumes from an unstructured byte stream. It panics for non-primitive
// kinds, since those have no fixed width.
func (t TypeSchema) Width() int {
	switch t.Kind {
	case KindBool, KindU8:
		return 1
	case KindU16:
		return 2
	case KindU32:
		return 4
	case KindU64:
		return 8
	case KindU128:
		return 16
	case KindU256:
		return 32
	default:
		panic(fmt.Sprintf("prog: Width called on non-primitive kind %v", t.Kind))
	}
}

// IsPrimitive reports whether t consumes a fixed number of bytes and has
// no sub-schemas.
func (t TypeSchema) IsPrimitive() bool {
	switch t.Kind {
	case KindBool, KindU8, KindU16, KindU32, KindU64, KindU128, KindU256:
		return true
	default:
		return false
	}
}

func Bool() TypeSchema { return TypeSchema{Kind: KindBool} }
func U8() TypeSchema { return TypeSchema{Kind: KindU8} }
func U16() TypeSchema { return TypeSchema{Kind: KindU16} }
func U32() TypeSchema { return TypeSchema{Kind: KindU32} }
func U64() TypeSchema { return TypeSchema{Kind: KindU64} }
func U128() TypeSchema { return TypeSchema{Kind: KindU128} }
func U256() TypeSchema { return TypeSchema{Kind: KindU256} }
func Address() TypeSchema { return TypeSchema{Kind: KindAddress} }
func Signer() TypeSchema { return TypeSchema{Kind: KindSigner} }

// Vector builds a schema for a variable-length homogeneous sequence of elem.
func Vector(elem TypeSchema) TypeSchema {
	e := elem
	return TypeSchema{Kind: KindVector, Elem: &e}
}

// Struct builds a schema for an ordered, positional sequence of fields.
// Field names are not preserved: the synthesiser treats structs purely
// positionally, matching the ABI recovery step that produced them.
func Struct(fields ...TypeSchema) TypeSchema {
	return TypeSchema{Kind: KindStruct, Fields: fields}
}

// Equal reports deep structural equality.
func (t TypeSchema) Equal(other TypeSchema) bool {
	if t.Kind != other.Kind {
		return false
	}
	switch t.Kind {
	case KindVector:
		if t.Elem == nil || other.Elem == nil {
			return t.Elem == other.Elem
		}
		return t.Elem.Equal(*other.Elem)
	case KindStruct:
		if len(t.Fields) != len(other.Fields) {
			return false
		}
		for i := range t.Fields {
			if !t.Fields[i].Equal(other.Fields[i]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

func (t TypeSchema) String() string {
	switch t.Kind {
	case KindVector:
		return fmt.Sprintf("Vector(%s)", t.Elem.String())
	case KindStruct:
		parts := make([]string, len(t.Fields))
		for i, f := range t.Fields {
			parts[i] = f.String()
		}
		return fmt.Sprintf("Struct([%s])", strings.Join(parts, ", "))
	default:
		return t.Kind.String()
	}
}

// Parameters is a display helper for an ordered list of schemas, mirroring
// how a target function's signature is rendered in diagnostics.
type Parameters []TypeSchema

func (p Parameters) String() string {
	parts := make([]string, len(p))
	for i, t := range p {
		parts[i] = t.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
