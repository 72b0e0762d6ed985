package ir

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidDataType is returned by ParseDataType for unrecognized names.
var ErrInvalidDataType = errors.New("ir: invalid data type")

// TypeCode is the element kind of a DataType.
type TypeCode uint8

const (
	// TypeInt is a signed integer.
	TypeInt TypeCode = iota
	// TypeUInt is an unsigned integer.
	TypeUInt
	// TypeFloat is an IEEE floating point number.
	TypeFloat
	// TypeBool is a boolean stored in one byte.
	TypeBool
	// TypeHandle is an opaque pointer-sized handle.
	TypeHandle
)

var typeCodeNames = [...]string{
	TypeInt:    "int",
	TypeUInt:   "uint",
	TypeFloat:  "float",
	TypeBool:   "bool",
	TypeHandle: "handle",
}

// String returns the lowercase name of the code.
func (c TypeCode) String() string {
	if int(c) < len(typeCodeNames) {
		return typeCodeNames[c]
	}
	return fmt.Sprintf("TypeCode(%d)", c)
}

// DataType is the element type of an allocation.
// Lanes > 1 describes a short vector of Bits-wide elements.
type DataType struct {
	Code  TypeCode
	Bits  uint8
	Lanes uint16
}

// Int returns a signed integer type of the given width.
func Int(bits uint8) DataType { return DataType{Code: TypeInt, Bits: bits, Lanes: 1} }

// UInt returns an unsigned integer type of the given width.
func UInt(bits uint8) DataType { return DataType{Code: TypeUInt, Bits: bits, Lanes: 1} }

// Float returns a floating point type of the given width.
func Float(bits uint8) DataType { return DataType{Code: TypeFloat, Bits: bits, Lanes: 1} }

// Bool returns the one-byte boolean type.
func Bool() DataType { return DataType{Code: TypeBool, Bits: 8, Lanes: 1} }

// WithLanes returns t widened to the given number of lanes.
func (t DataType) WithLanes(lanes uint16) DataType {
	t.Lanes = lanes
	return t
}

// Bytes returns the storage size of one element, rounded up to whole bytes.
func (t DataType) Bytes() int64 {
	lanes := int64(t.Lanes)
	if lanes == 0 {
		lanes = 1
	}
	return (int64(t.Bits)*lanes + 7) / 8
}

// String formats the type as "float32", "int8x4" or "bool".
func (t DataType) String() string {
	var sb strings.Builder
	sb.WriteString(t.Code.String())
	if t.Code != TypeBool {
		sb.WriteString(strconv.Itoa(int(t.Bits)))
	}
	if t.Lanes > 1 {
		sb.WriteByte('x')
		sb.WriteString(strconv.Itoa(int(t.Lanes)))
	}
	return sb.String()
}

// ParseDataType parses the format produced by DataType.String.
func ParseDataType(s string) (DataType, error) {
	name, lanesStr, hasLanes := strings.Cut(s, "x")
	lanes := uint16(1)
	if hasLanes {
		n, err := strconv.ParseUint(lanesStr, 10, 16)
		if err != nil || n == 0 {
			return DataType{}, fmt.Errorf("%w: %q", ErrInvalidDataType, s)
		}
		lanes = uint16(n)
	}

	if name == "bool" {
		return Bool().WithLanes(lanes), nil
	}

	for code, prefix := range typeCodeNames {
		if TypeCode(code) == TypeBool || !strings.HasPrefix(name, prefix) {
			continue
		}
		bits, err := strconv.ParseUint(name[len(prefix):], 10, 8)
		if err != nil || bits == 0 {
			continue
		}
		return DataType{Code: TypeCode(code), Bits: uint8(bits), Lanes: lanes}, nil
	}
	return DataType{}, fmt.Errorf("%w: %q", ErrInvalidDataType, s)
}
