package host

import "fmt"

// BinaryOp enumerates host binary operators
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSubtract
	OpMultiply
	OpDivide
	OpModulo
	OpEqual
	OpNotEqual
	OpLessThan
	OpLessThanOrEqual
	OpGreaterThan
	OpGreaterThanOrEqual
	OpAndAlso
	OpOrElse
	OpAnd
	OpOr
	OpCoalesce
)

var binaryOpSymbols = map[BinaryOp]string{
	OpAdd:                "+",
	OpSubtract:           "-",
	OpMultiply:           "*",
	OpDivide:             "/",
	OpModulo:             "%",
	OpEqual:              "==",
	OpNotEqual:           "!=",
	OpLessThan:           "<",
	OpLessThanOrEqual:    "<=",
	OpGreaterThan:        ">",
	OpGreaterThanOrEqual: ">=",
	OpAndAlso:            "&&",
	OpOrElse:             "||",
	OpAnd:                "&",
	OpOr:                 "|",
	OpCoalesce:           "??",
}

// String returns the operator symbol
func (op BinaryOp) String() string {
	if s, ok := binaryOpSymbols[op]; ok {
		return s
	}
	return fmt.Sprintf("BinaryOp(%d)", int(op))
}

// IsComparison reports whether the operator yields a boolean comparison
func (op BinaryOp) IsComparison() bool {
	return op >= OpEqual && op <= OpGreaterThanOrEqual
}

// IsLogical reports whether the operator is a boolean connective
func (op BinaryOp) IsLogical() bool {
	return op >= OpAndAlso && op <= OpOr
}

// UnaryOp enumerates host unary operators
type UnaryOp int

const (
	OpNot UnaryOp = iota
	OpNegate
)

// String returns the operator symbol
func (op UnaryOp) String() string {
	switch op {
	case OpNot:
		return "!"
	case OpNegate:
		return "-"
	}
	return fmt.Sprintf("UnaryOp(%d)", int(op))
}

// QueryOp enumerates the query operators
type QueryOp int

const (
	Where QueryOp = iota
	Select
	OrderBy
	OrderByDescending
	ThenBy
	ThenByDescending
	Skip
	Take
	Any
	All
	Count
	LongCount
	First
	FirstOrDefault
	Single
	SingleOrDefault
	Min
	Max
	Contains
)

// QueryOpNames maps query operators to their names
var QueryOpNames = map[QueryOp]string{
	Where:             "Where",
	Select:            "Select",
	OrderBy:           "OrderBy",
	OrderByDescending: "OrderByDescending",
	ThenBy:            "ThenBy",
	ThenByDescending:  "ThenByDescending",
	Skip:              "Skip",
	Take:              "Take",
	Any:               "Any",
	All:               "All",
	Count:             "Count",
	LongCount:         "LongCount",
	First:             "First",
	FirstOrDefault:    "FirstOrDefault",
	Single:            "Single",
	SingleOrDefault:   "SingleOrDefault",
	Min:               "Min",
	Max:               "Max",
	Contains:          "Contains",
}

// String returns the operator name
func (op QueryOp) String() string {
	if name, ok := QueryOpNames[op]; ok {
		return name
	}
	return fmt.Sprintf("QueryOp(%d)", int(op))
}

// IsTerminal reports whether the operator produces a value rather than a
// sequence
func (op QueryOp) IsTerminal() bool {
	return op >= Any
}
