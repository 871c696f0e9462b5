package backend

import (
	"math"
	"strconv"
	"strings"
)

// Kind is the runtime tag of a Value
type Kind uint8

// The zero Kind marks a value that was never written. Instructions that read
// such a value trap
const (
	KindInvalid Kind = iota
	KindInt
	KindDouble
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindDouble:
		return "double"
	case KindString:
		return "string"
	default:
		return "invalid"
	}
}

// Value is a tagged runtime datum. Only the field matching Kind is meaningful.
// Strings are held as ids into the program's ConstantPool
type Value struct {
	Kind   Kind
	Int    int64
	Double float64
	Const  ConstID
}

// IntValue wraps a 64-bit integer
func IntValue(i int64) Value {
	return Value{Kind: KindInt, Int: i}
}

// DoubleValue wraps a 64-bit float
func DoubleValue(d float64) Value {
	return Value{Kind: KindDouble, Double: d}
}

// StringValue wraps a constant pool id
func StringValue(id ConstID) Value {
	return Value{Kind: KindString, Const: id}
}

// formatInt renders an int as a decimal number with a leading minus sign for
// negative values
func formatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}

// formatDouble renders a double using the shortest representation that
// round-trips. Integral values keep a ".0" suffix so they can be told apart
// from ints
func formatDouble(d float64) string {
	switch {
	case math.IsNaN(d):
		return "nan"
	case math.IsInf(d, 1):
		return "inf"
	case math.IsInf(d, -1):
		return "-inf"
	}

	s := strconv.FormatFloat(d, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}

	return s
}

// compareInts returns -1, 0 or 1
func compareInts(a, b int64) int64 {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// compareDoubles returns -1, 0 or 1 using a total order where NaN is equal to
// itself and greater than every other value. -0.0 and 0.0 are equal
func compareDoubles(a, b float64) int64 {
	aNaN, bNaN := math.IsNaN(a), math.IsNaN(b)

	switch {
	case aNaN && bNaN:
		return 0
	case aNaN:
		return 1
	case bNaN:
		return -1
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// doubleToInt truncates toward zero. NaN converts to 0 and out of range
// values saturate at the int64 bounds
func doubleToInt(d float64) int64 {
	switch {
	case math.IsNaN(d):
		return 0
	case d >= math.MaxInt64:
		return math.MaxInt64
	case d <= math.MinInt64:
		return math.MinInt64
	default:
		return int64(d)
	}
}
