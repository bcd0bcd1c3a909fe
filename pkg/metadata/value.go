package metadata

import (
	"math"
	"strconv"
)

// Value is the raw 32-bit payload of a variable. Float variables store IEEE
// bits and int and enum variables store the integer, so a Value can be
// compared and serialized without knowing its type.
type Value uint32

func FloatValue(f float32) Value { return Value(math.Float32bits(f)) }
func IntValue(i int32) Value     { return Value(uint32(i)) }

func (v Value) Float() float32 { return math.Float32frombits(uint32(v)) }
func (v Value) Int() int32     { return int32(v) }

// VariableType selects how a Value is interpreted.
type VariableType uint8

const (
	Float VariableType = iota
	Int
	Enum
)

func (t VariableType) String() string {
	switch t {
	case Float:
		return "float"
	case Int:
		return "int"
	case Enum:
		return "enum"
	}
	return "unknown(" + strconv.Itoa(int(t)) + ")"
}
