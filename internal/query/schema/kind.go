// Package schema describes the types a query ranges over: the fixed set of
// primitive kinds, complex entity types with case-insensitive property
// tables, and the conversion rules between them.
//
// Types are defined once (usually at startup) and then shared read-only by
// the parser, the IR factories and the translator.
package schema

import "fmt"

// Kind is the primitive type tag carried by every IR node.
type Kind int

const (
	KindBinary Kind = iota
	KindBoolean
	KindByte
	KindDateTime
	KindDecimal
	KindDouble
	KindSingle
	KindGuid
	KindInt16
	KindInt32
	KindInt64
	KindSByte
	KindString
	KindTime
	KindDateTimeOffset

	// Non-primitive tags
	KindNull
	KindType
	KindComplex

	// KindCollection never appears on IR nodes. Host expressions use it for
	// query sources and constant arrays.
	KindCollection
)

// KindNames maps kinds to their display names
var KindNames = map[Kind]string{
	KindBinary:         "Binary",
	KindBoolean:        "Boolean",
	KindByte:           "Byte",
	KindDateTime:       "DateTime",
	KindDecimal:        "Decimal",
	KindDouble:         "Double",
	KindSingle:         "Single",
	KindGuid:           "Guid",
	KindInt16:          "Int16",
	KindInt32:          "Int32",
	KindInt64:          "Int64",
	KindSByte:          "SByte",
	KindString:         "String",
	KindTime:           "Time",
	KindDateTimeOffset: "DateTimeOffset",
	KindNull:           "Null",
	KindType:           "Type",
	KindComplex:        "Complex",
	KindCollection:     "Collection",
}

// String returns the display name of the kind
func (k Kind) String() string {
	if name, ok := KindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsPrimitive reports whether the kind is one of the Edm primitive kinds.
func (k Kind) IsPrimitive() bool {
	return k >= KindBinary && k <= KindDateTimeOffset
}

// IsNumeric reports whether arithmetic is defined for the kind.
func (k Kind) IsNumeric() bool {
	switch k {
	case KindByte, KindSByte, KindInt16, KindInt32, KindInt64,
		KindSingle, KindDouble, KindDecimal:
		return true
	}
	return false
}

// IsIntegral reports whether the kind is an integer kind.
func (k Kind) IsIntegral() bool {
	switch k {
	case KindByte, KindSByte, KindInt16, KindInt32, KindInt64:
		return true
	}
	return false
}

// isValue reports whether the kind has a distinct nullable variant.
// String, Binary and complex values are references and accept null as-is.
func (k Kind) isValue() bool {
	return k.IsPrimitive() && k != KindString && k != KindBinary
}
