package ir

import "fmt"

// BinaryOperator enumerates the binary operators of the wire grammar
type BinaryOperator int

const (
	OpOr BinaryOperator = iota
	OpAnd
	OpEq
	OpNe
	OpGt
	OpGe
	OpLt
	OpLe
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
)

var binaryOperatorNames = map[BinaryOperator]string{
	OpOr:  "or",
	OpAnd: "and",
	OpEq:  "eq",
	OpNe:  "ne",
	OpGt:  "gt",
	OpGe:  "ge",
	OpLt:  "lt",
	OpLe:  "le",
	OpAdd: "add",
	OpSub: "sub",
	OpMul: "mul",
	OpDiv: "div",
	OpMod: "mod",
}

// String returns the wire keyword of the operator
func (op BinaryOperator) String() string {
	if name, ok := binaryOperatorNames[op]; ok {
		return name
	}
	return fmt.Sprintf("BinaryOperator(%d)", int(op))
}

// Precedence returns the binding strength of the operator; higher binds
// tighter.
func (op BinaryOperator) Precedence() int {
	switch op {
	case OpOr:
		return 1
	case OpAnd:
		return 2
	case OpEq, OpNe, OpGt, OpGe, OpLt, OpLe:
		return 3
	case OpAdd, OpSub:
		return 4
	case OpMul, OpDiv, OpMod:
		return 5
	}
	return 0
}

// IsLogical reports whether op is and/or
func (op BinaryOperator) IsLogical() bool { return op == OpAnd || op == OpOr }

// IsComparison reports whether op is an equality or relational operator
func (op BinaryOperator) IsComparison() bool { return op >= OpEq && op <= OpLe }

// IsEquality reports whether op is eq/ne
func (op BinaryOperator) IsEquality() bool { return op == OpEq || op == OpNe }

// IsArithmetic reports whether op is add/sub/mul/div/mod
func (op BinaryOperator) IsArithmetic() bool { return op >= OpAdd && op <= OpMod }

// UnaryOperator enumerates the unary operators of the wire grammar
type UnaryOperator int

const (
	OpNot UnaryOperator = iota
)

// String returns the wire keyword of the operator
func (op UnaryOperator) String() string {
	if op == OpNot {
		return "not"
	}
	return fmt.Sprintf("UnaryOperator(%d)", int(op))
}
