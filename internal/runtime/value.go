// Package runtime holds the pieces of lumen that the compiler and the VM
// both reach into directly: the tagged Value representation, the heap object
// header and its variants, the open-addressed string table, and the
// bytecode Chunk that ties them together. They are kept in one package
// because they share a single allocation discipline (see Heap in heap.go) —
// splitting them across packages would just move an import cycle around,
// since a Class's method table and an Instance's fields both need to hold
// Values that may themselves be Objects of any of these kinds.
package runtime

import (
	"fmt"
	"math"
)

// Kind discriminates the variants of Value. Unlike the C original, Go gives
// us a tagged struct instead of a union, so Kind just picks which field of
// Value is meaningful.
type Kind byte

const (
	KindNil Kind = iota
	KindBool
	KindNumber
	KindObj
)

// Value is lumen's tagged runtime value. It is passed by copy everywhere
// (the value stack is a plain []Value), so it stays small: a Kind byte, a
// float64 (numbers and booleans) and an Object interface (heap objects).
type Value struct {
	Kind   Kind
	number float64
	obj    Object
}

// Nil is the unit value.
var Nil = Value{Kind: KindNil}

// Bool wraps a boolean as a Value.
func Bool(b bool) Value {
	n := 0.0
	if b {
		n = 1
	}
	return Value{Kind: KindBool, number: n}
}

// Number wraps a float64 as a Value.
func Number(n float64) Value {
	return Value{Kind: KindNumber, number: n}
}

// ObjVal wraps a heap object as a Value.
func ObjVal(o Object) Value {
	return Value{Kind: KindObj, obj: o}
}

func (v Value) IsNil() bool    { return v.Kind == KindNil }
func (v Value) IsBool() bool   { return v.Kind == KindBool }
func (v Value) IsNumber() bool { return v.Kind == KindNumber }
func (v Value) IsObj() bool    { return v.Kind == KindObj }

func (v Value) AsBool() bool      { return v.number != 0 }
func (v Value) AsNumber() float64 { return v.number }
func (v Value) AsObj() Object     { return v.obj }

func (v Value) IsObjKind(k ObjKind) bool { return v.Kind == KindObj && v.obj.Kind() == k }

// Truthy implements lumen's truthiness rule: nil and false are falsey,
// everything else — including 0 and the empty string — is truthy.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindNil:
		return false
	case KindBool:
		return v.AsBool()
	default:
		return true
	}
}

// Equal implements Value equality per spec: nil equals nil, bools and
// numbers compare by value (NaN is unequal to itself), and objects compare
// by identity — except strings, which compare equal iff they are the same
// interned handle (so identity comparison is in fact all that's needed once
// strings are interned).
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNil:
		return true
	case KindBool:
		return v.AsBool() == o.AsBool()
	case KindNumber:
		return v.number == o.number
	case KindObj:
		return v.obj == o.obj
	default:
		return false
	}
}

// String renders a Value the way `print` does: numbers use Go's shortest
// round-trip formatting, objects delegate to their own String method.
func (v Value) String() string {
	switch v.Kind {
	case KindNil:
		return "nil"
	case KindBool:
		if v.AsBool() {
			return "true"
		}
		return "false"
	case KindNumber:
		return formatNumber(v.number)
	case KindObj:
		return v.obj.String()
	default:
		return "<invalid value>"
	}
}

func formatNumber(n float64) string {
	if math.IsNaN(n) {
		return "nan"
	}
	if math.IsInf(n, 1) {
		return "inf"
	}
	if math.IsInf(n, -1) {
		return "-inf"
	}
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		return fmt.Sprintf("%d", int64(n))
	}
	return fmt.Sprintf("%g", n)
}
