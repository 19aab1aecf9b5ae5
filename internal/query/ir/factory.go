package ir

import (
	"fmt"
	"math"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"

	qerrors "github.com/conduit-lang/wirequery/internal/query/errors"
	"github.com/conduit-lang/wirequery/internal/query/schema"
)

// NewBinary builds a binary node. Operands of different types converge
// through one implicit conversion of one side; the factory inserts the
// Convert node.
func NewBinary(left Node, op BinaryOperator, right Node) (*Binary, error) {
	if left == nil || right == nil {
		return nil, fmt.Errorf("%w: %s requires two operands", qerrors.ErrTypeMismatch, op)
	}

	if op.IsLogical() {
		if left.Type() != schema.Boolean || right.Type() != schema.Boolean {
			return nil, fmt.Errorf("%w: %s requires non-nullable %s operands, got %s and %s",
				qerrors.ErrTypeMismatch, op, schema.Boolean, left.Type(), right.Type())
		}
		return &Binary{op: op, left: left, right: right, typ: schema.Boolean}, nil
	}

	l, r, err := converge(left, right)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	typ := l.Type()

	switch {
	case op.IsArithmetic():
		if !typ.IsNumeric() {
			return nil, fmt.Errorf("%w: %s is not defined for %s", qerrors.ErrTypeMismatch, op, typ)
		}
		return &Binary{op: op, left: l, right: r, typ: typ}, nil
	case op.IsEquality():
		if typ.Kind() == schema.KindCollection {
			return nil, fmt.Errorf("%w: %s is not defined for %s", qerrors.ErrTypeMismatch, op, typ)
		}
	default:
		if !ordered(typ) {
			return nil, fmt.Errorf("%w: %s is not defined for %s", qerrors.ErrTypeMismatch, op, typ)
		}
	}
	return &Binary{op: op, left: l, right: r, typ: schema.Boolean}, nil
}

func ordered(t *schema.Type) bool {
	return t.IsPrimitive() && t.Kind() != schema.KindBinary
}

// converge makes both operands the same type with at most one conversion.
// When both directions are possible the nullable side wins.
func converge(left, right Node) (Node, Node, error) {
	lt, rt := left.Type(), right.Type()
	if lt.Equal(rt) {
		return left, right, nil
	}

	toLeft := schema.ImplicitlyConvertible(rt, lt)
	toRight := schema.ImplicitlyConvertible(lt, rt)

	switch {
	case toLeft && toRight:
		if lt.IsNullable() || rt.Kind() == schema.KindNull {
			return left, &Convert{operand: right, typ: lt}, nil
		}
		return &Convert{operand: left, typ: rt}, right, nil
	case toLeft:
		return left, &Convert{operand: right, typ: lt}, nil
	case toRight:
		return &Convert{operand: left, typ: rt}, right, nil
	}
	return nil, nil, fmt.Errorf("%w: operands %s and %s are not compatible", qerrors.ErrTypeMismatch, lt, rt)
}

// NewNot builds a logical negation.
func NewNot(operand Node) (*Unary, error) {
	if operand == nil {
		return nil, fmt.Errorf("%w: not requires an operand", qerrors.ErrTypeMismatch)
	}
	if operand.Type().NonNullable() != schema.Boolean {
		return nil, fmt.Errorf("%w: not requires a %s operand, got %s",
			qerrors.ErrTypeMismatch, schema.Boolean, operand.Type())
	}
	return &Unary{op: OpNot, operand: operand, typ: operand.Type()}, nil
}

// NewConvert converts operand to target. Converting to the operand's own
// type returns the operand unchanged.
func NewConvert(operand Node, target *schema.Type) (Node, error) {
	if operand == nil || target == nil {
		return nil, fmt.Errorf("%w: conversion requires an operand and a target", qerrors.ErrInvalidConversion)
	}
	from := operand.Type()
	if from.Equal(target) {
		return operand, nil
	}
	if target.Kind() == schema.KindCollection || target.Kind() == schema.KindNull {
		return nil, fmt.Errorf("%w: cannot convert to %s", qerrors.ErrInvalidConversion, target)
	}
	if !schema.ExplicitlyConvertible(from, target) && !target.IsAssignableFrom(from) {
		return nil, fmt.Errorf("%w: %s to %s", qerrors.ErrInvalidConversion, from, target)
	}
	return &Convert{operand: operand, typ: target}, nil
}

// NewConstant builds a literal of the given type. Values are represented as:
//
//	Null, any nullable type: nil
//	Binary: []byte          Boolean: bool
//	Byte: uint8             SByte: int8
//	Int16: int16            Int32: int32          Int64: int64
//	Single: float32         Double: float64       Decimal: *apd.Decimal
//	Guid: uuid.UUID         DateTime, DateTimeOffset: time.Time
//	Time: time.Duration     String: string        Type: *schema.Type
func NewConstant(value any, typ *schema.Type) (*Constant, error) {
	if typ == nil {
		return nil, fmt.Errorf("%w: constant without a type", qerrors.ErrInvalidValue)
	}
	if value == nil {
		if typ.Kind() != schema.KindNull && !typ.AcceptsNull() {
			return nil, fmt.Errorf("%w: null is not a value of %s", qerrors.ErrInvalidValue, typ)
		}
		return &Constant{typ: typ}, nil
	}

	ok := false
	switch typ.Kind() {
	case schema.KindBinary:
		_, ok = value.([]byte)
	case schema.KindBoolean:
		_, ok = value.(bool)
	case schema.KindByte:
		_, ok = value.(uint8)
	case schema.KindSByte:
		_, ok = value.(int8)
	case schema.KindInt16:
		_, ok = value.(int16)
	case schema.KindInt32:
		_, ok = value.(int32)
	case schema.KindInt64:
		_, ok = value.(int64)
	case schema.KindSingle:
		_, ok = value.(float32)
	case schema.KindDouble:
		_, ok = value.(float64)
	case schema.KindDecimal:
		var d *apd.Decimal
		d, ok = value.(*apd.Decimal)
		ok = ok && d != nil
	case schema.KindGuid:
		_, ok = value.(uuid.UUID)
	case schema.KindDateTime, schema.KindDateTimeOffset:
		_, ok = value.(time.Time)
	case schema.KindTime:
		_, ok = value.(time.Duration)
	case schema.KindString:
		_, ok = value.(string)
	case schema.KindType:
		var t *schema.Type
		t, ok = value.(*schema.Type)
		ok = ok && t != nil
	}
	if !ok {
		return nil, fmt.Errorf("%w: %T is not a value of %s", qerrors.ErrInvalidValue, value, typ)
	}
	if typ.Kind() == schema.KindDateTime {
		value = wireDateTime(value.(time.Time))
	}
	return &Constant{value: value, typ: typ}, nil
}

// wireDateTime keeps what a datetime literal can carry: the instant in
// UTC, to 100ns.
func wireDateTime(t time.Time) time.Time {
	return t.UTC().Truncate(DateTimeTick)
}

// ConstantOf builds a non-nullable literal, inferring its type from the Go
// value. Plain ints become Int32 when they fit and Int64 otherwise.
func ConstantOf(value any) (*Constant, error) {
	switch v := value.(type) {
	case nil:
		return &Constant{typ: schema.Null}, nil
	case bool:
		return NewConstant(v, schema.Boolean)
	case uint8:
		return NewConstant(v, schema.Byte)
	case int8:
		return NewConstant(v, schema.SByte)
	case int16:
		return NewConstant(v, schema.Int16)
	case int32:
		return NewConstant(v, schema.Int32)
	case int64:
		return NewConstant(v, schema.Int64)
	case int:
		if v >= math.MinInt32 && v <= math.MaxInt32 {
			return NewConstant(int32(v), schema.Int32)
		}
		return NewConstant(int64(v), schema.Int64)
	case float32:
		return NewConstant(v, schema.Single)
	case float64:
		return NewConstant(v, schema.Double)
	case *apd.Decimal:
		return NewConstant(v, schema.Decimal)
	case apd.Decimal:
		return NewConstant(&v, schema.Decimal)
	case uuid.UUID:
		return NewConstant(v, schema.Guid)
	case time.Time:
		return NewConstant(v, schema.DateTime)
	case time.Duration:
		return NewConstant(v, schema.Time)
	case string:
		return NewConstant(v, schema.String)
	case []byte:
		return NewConstant(v, schema.Binary)
	case *schema.Type:
		return NewConstant(v, schema.TypeRef)
	}
	return nil, fmt.Errorf("%w: no constant representation for %T", qerrors.ErrInvalidValue, value)
}

// MustConstant is ConstantOf for values known to be representable.
func MustConstant(value any) *Constant {
	c, err := ConstantOf(value)
	if err != nil {
		panic(err)
	}
	return c
}

// NewMember resolves name as a property of the instance's type, or of root
// when instance is nil. Property names match case-insensitively.
func NewMember(instance *Member, root *schema.Type, name string) (*Member, error) {
	owner := root
	if instance != nil {
		owner = instance.Type()
	}
	if owner == nil {
		return nil, fmt.Errorf("%w: %s has no declaring type", qerrors.ErrUnknownProperty, name)
	}
	prop, ok := owner.Property(name)
	if !ok {
		return nil, fmt.Errorf("%w: type %s has no property %s", qerrors.ErrUnknownProperty, owner, name)
	}
	return &Member{instance: instance, prop: prop}, nil
}

// MemberOf builds the member chain for a property path starting at the root.
func MemberOf(path []*schema.Property) (*Member, error) {
	if len(path) == 0 {
		return nil, fmt.Errorf("%w: empty member path", qerrors.ErrUnknownProperty)
	}
	var m *Member
	for i, p := range path {
		if i > 0 {
			owner := path[i-1].Type
			if declared, ok := owner.Property(p.Name); !ok || declared != p {
				return nil, fmt.Errorf("%w: type %s has no property %s", qerrors.ErrUnknownProperty, owner, p.Name)
			}
		}
		m = &Member{instance: m, prop: p}
	}
	return m, nil
}

// NewSortKey builds a $orderby entry.
func NewSortKey(expr Node, descending bool) (*SortKey, error) {
	if expr == nil {
		return nil, fmt.Errorf("%w: sort key without expression", qerrors.ErrTypeMismatch)
	}
	if !ordered(expr.Type()) {
		return nil, fmt.Errorf("%w: cannot order by %s", qerrors.ErrTypeMismatch, expr.Type())
	}
	return &SortKey{expr: expr, descending: descending}, nil
}

// NewSelectColumn resolves a $select entry against root. An empty path
// with wildcard set is the bare "*"; a non-empty wildcard path must end at
// a complex member.
func NewSelectColumn(root *schema.Type, names []string, wildcard bool) (*SelectColumn, error) {
	if len(names) == 0 {
		if !wildcard {
			return nil, fmt.Errorf("%w: empty select column", qerrors.ErrUnknownProperty)
		}
		return &SelectColumn{wildcard: true, typ: root}, nil
	}

	path := make([]*schema.Property, 0, len(names))
	owner := root
	for _, name := range names {
		prop, ok := owner.Property(name)
		if !ok {
			return nil, fmt.Errorf("%w: type %s has no property %s", qerrors.ErrUnknownProperty, owner, name)
		}
		path = append(path, prop)
		owner = prop.Type
	}
	return selectColumn(path, wildcard)
}

// SelectColumnOf builds the $select entry for a member chain.
func SelectColumnOf(m *Member, wildcard bool) (*SelectColumn, error) {
	return selectColumn(m.Path(), wildcard)
}

func selectColumn(path []*schema.Property, wildcard bool) (*SelectColumn, error) {
	last := path[len(path)-1].Type
	if wildcard && last.Kind() != schema.KindComplex {
		return nil, fmt.Errorf("%w: /* requires a complex member, %s is %s",
			qerrors.ErrTypeMismatch, path[len(path)-1].Name, last)
	}
	return &SelectColumn{path: path, wildcard: wildcard, typ: last}, nil
}
