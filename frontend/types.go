package frontend

// Type is one of the built-in static types of the language. Every variable,
// parameter and expression is assigned exactly one of these types by the
// translator
type Type int

// Built-in types. TypeInvalid is the zero value and is never produced by a
// successful type lookup
const (
	TypeInvalid Type = iota
	TypeInt
	TypeDouble
	TypeString
	TypeVoid
)

func (t Type) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeDouble:
		return "double"
	case TypeString:
		return "string"
	case TypeVoid:
		return "void"
	default:
		return "invalid"
	}
}

// IsNumeric returns true for types that support arithmetic and ordering
func (t Type) IsNumeric() bool {
	return t == TypeInt || t == TypeDouble
}

// LookupType maps a type keyword to its Type. The second return value is false
// if the name does not describe a built-in type
func LookupType(name string) (Type, bool) {
	switch name {
	case "int":
		return TypeInt, true
	case "double":
		return TypeDouble, true
	case "string":
		return TypeString, true
	case "void":
		return TypeVoid, true
	default:
		return TypeInvalid, false
	}
}
