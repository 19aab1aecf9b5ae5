package schema

import (
	"fmt"
	"strings"
)

// Type is the host representation type of a value. Primitive types are
// canonical singletons, so primitive types may be compared by pointer.
// Complex types are identified by pointer as well; two complex types that
// happen to share a name are different types.
type Type struct {
	name     string
	kind     Kind
	nullable bool

	// nonNull and nullableVariant link the two variants of a value kind
	nonNull         *Type
	nullableVariant *Type

	elem *Type // collections only
	base *Type // complex types only

	props       []*Property
	byName      map[string]*Property // lower-cased names
	conversions []*Type              // user-declared implicit conversions
}

// Property is a declared member of a complex type.
type Property struct {
	Name  string
	Type  *Type
	Owner *Type
	ID    PropertyID
}

// String returns Owner.Name
func (p *Property) String() string {
	if p.Owner == nil {
		return p.Name
	}
	return p.Owner.Name() + "." + p.Name
}

func newPrimitive(kind Kind) *Type {
	t := &Type{name: "Edm." + kind.String(), kind: kind}
	t.nonNull = t
	if kind.isValue() {
		t.nullableVariant = &Type{name: t.name, kind: kind, nullable: true, nonNull: t}
		t.nullableVariant.nullableVariant = t.nullableVariant
	} else {
		t.nullableVariant = t
	}
	return t
}

// Primitive types
var (
	Binary         = newPrimitive(KindBinary)
	Boolean        = newPrimitive(KindBoolean)
	Byte           = newPrimitive(KindByte)
	DateTime       = newPrimitive(KindDateTime)
	Decimal        = newPrimitive(KindDecimal)
	Double         = newPrimitive(KindDouble)
	Single         = newPrimitive(KindSingle)
	Guid           = newPrimitive(KindGuid)
	Int16          = newPrimitive(KindInt16)
	Int32          = newPrimitive(KindInt32)
	Int64          = newPrimitive(KindInt64)
	SByte          = newPrimitive(KindSByte)
	String         = newPrimitive(KindString)
	Time           = newPrimitive(KindTime)
	DateTimeOffset = newPrimitive(KindDateTimeOffset)

	// Null is the type of the null literal.
	Null = &Type{name: "Null", kind: KindNull}
	// TypeRef is the type of a type-reference literal (the argument of cast/isof).
	TypeRef = &Type{name: "Type", kind: KindType}
)

func init() {
	for _, t := range []*Type{Null, TypeRef} {
		t.nonNull = t
		t.nullableVariant = t
	}
}

var primitives = []*Type{
	Binary, Boolean, Byte, DateTime, Decimal, Double, Single, Guid,
	Int16, Int32, Int64, SByte, String, Time, DateTimeOffset,
}

// Primitives returns the primitive types in kind order.
func Primitives() []*Type {
	out := make([]*Type, len(primitives))
	copy(out, primitives)
	return out
}

// PrimitiveOf returns the non-nullable primitive type for a kind.
func PrimitiveOf(kind Kind) (*Type, bool) {
	if !kind.IsPrimitive() {
		return nil, false
	}
	return primitives[kind-KindBinary], true
}

// PrimitiveByName resolves an Edm display name such as "Edm.Int32".
// Matching is case-insensitive.
func PrimitiveByName(name string) (*Type, bool) {
	for _, t := range primitives {
		if strings.EqualFold(t.name, name) {
			return t, true
		}
	}
	return nil, false
}

// NewComplex creates an empty complex type. Properties are added with
// AddProperty while the schema is being defined.
func NewComplex(name string) *Type {
	t := &Type{
		name:   name,
		kind:   KindComplex,
		byName: make(map[string]*Property),
	}
	t.nonNull = t
	t.nullableVariant = t
	return t
}

// CollectionOf returns a collection type with the given element type.
func CollectionOf(elem *Type) *Type {
	t := &Type{
		name: "Collection(" + elem.String() + ")",
		kind: KindCollection,
		elem: elem,
	}
	t.nonNull = t
	t.nullableVariant = t
	return t
}

// AddProperty declares a property on a complex type. It panics when the
// receiver is not complex or the name is already declared, both of which
// are schema definition mistakes.
func (t *Type) AddProperty(name string, typ *Type) *Type {
	if t.kind != KindComplex {
		panic(fmt.Sprintf("cannot add property %s to non-complex type %s", name, t.name))
	}
	if typ == nil {
		panic(fmt.Sprintf("property %s.%s has no type", t.name, name))
	}
	key := strings.ToLower(name)
	if _, exists := t.byName[key]; exists {
		panic(fmt.Sprintf("property %s already declared on %s", name, t.name))
	}
	p := &Property{Name: name, Type: typ, Owner: t}
	t.props = append(t.props, p)
	t.byName[key] = p
	return t
}

// Extends records base as the base type of t.
func (t *Type) Extends(base *Type) *Type {
	if t.kind != KindComplex || base.kind != KindComplex {
		panic(fmt.Sprintf("%s cannot extend %s", t.name, base.name))
	}
	t.base = base
	return t
}

// DeclareConversion records a user-declared implicit conversion from t to target.
func (t *Type) DeclareConversion(target *Type) *Type {
	t.conversions = append(t.conversions, target)
	return t
}

// Name returns the type name without a nullability marker.
func (t *Type) Name() string { return t.name }

// Kind returns the type tag.
func (t *Type) Kind() Kind { return t.kind }

// Elem returns the element type of a collection.
func (t *Type) Elem() *Type { return t.elem }

// Base returns the base type of a complex type.
func (t *Type) Base() *Type { return t.base }

// IsNullable reports whether t is the nullable variant of a value kind.
func (t *Type) IsNullable() bool { return t.nullable }

// AcceptsNull reports whether null is a legal value of t.
func (t *Type) AcceptsNull() bool {
	return t.nullable || !t.kind.isValue()
}

// Nullable returns the nullable variant of a value kind, or t itself.
func (t *Type) Nullable() *Type { return t.nullableVariant }

// NonNullable returns the non-nullable variant of t.
func (t *Type) NonNullable() *Type { return t.nonNull }

// IsPrimitive reports whether t is a primitive type (either variant).
func (t *Type) IsPrimitive() bool { return t.kind.IsPrimitive() }

// IsNumeric reports whether t is a numeric primitive (either variant).
func (t *Type) IsNumeric() bool { return t.kind.IsNumeric() }

// Properties returns the declared properties including inherited ones,
// base type first.
func (t *Type) Properties() []*Property {
	var out []*Property
	if t.base != nil {
		out = append(out, t.base.Properties()...)
	}
	return append(out, t.props...)
}

// Property resolves a property name case-insensitively, walking base types.
func (t *Type) Property(name string) (*Property, bool) {
	for cur := t; cur != nil; cur = cur.base {
		if cur.byName == nil {
			return nil, false
		}
		if p, ok := cur.byName[strings.ToLower(name)]; ok {
			return p, true
		}
	}
	return nil, false
}

// Equal reports whether two types are the same type.
func (t *Type) Equal(other *Type) bool {
	if t == other {
		return true
	}
	if t == nil || other == nil {
		return false
	}
	if t.kind != KindCollection || other.kind != KindCollection {
		return false
	}
	return t.elem.Equal(other.elem)
}

// DerivesFrom reports whether t is other or inherits from it.
func (t *Type) DerivesFrom(other *Type) bool {
	for cur := t; cur != nil; cur = cur.base {
		if cur.Equal(other) {
			return true
		}
	}
	return false
}

// IsAssignableFrom reports whether a value of type other can be stored in
// a location of type t without conversion: identity, nullable wrapping and
// upcasts.
func (t *Type) IsAssignableFrom(other *Type) bool {
	if t.Equal(other) {
		return true
	}
	if other.kind == KindNull {
		return t.AcceptsNull()
	}
	if t.nullable && t.nonNull.Equal(other) {
		return true
	}
	return t.kind == KindComplex && other.DerivesFrom(t)
}

// String returns the name, suffixed with "?" for nullable variants.
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	if t.nullable {
		return t.name + "?"
	}
	return t.name
}
