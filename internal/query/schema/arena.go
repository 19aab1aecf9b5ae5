package schema

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
)

// PropertyID identifies an interned property descriptor.
type PropertyID uint32

type propertyKey struct {
	owner *Type
	name  string
}

// Arena interns synthesized property descriptors keyed by (owner, name).
// Interned entries live for the lifetime of the process. Concurrent callers
// racing to intern the same key converge on one canonical descriptor.
type Arena struct {
	props  sync.Map // propertyKey -> *Property
	shapes sync.Map // shape signature -> *Type
	nextID atomic.Uint32
}

// DefaultArena is the process-wide arena used for anonymous projection types.
var DefaultArena = &Arena{}

// Intern returns the canonical descriptor for (owner, name), creating it
// with type typ when absent. The type of an existing entry is not changed.
func (a *Arena) Intern(owner *Type, name string, typ *Type) *Property {
	key := propertyKey{owner: owner, name: name}
	if existing, ok := a.props.Load(key); ok {
		return existing.(*Property)
	}
	candidate := &Property{
		Name:  name,
		Type:  typ,
		Owner: owner,
		ID:    PropertyID(a.nextID.Add(1)),
	}
	actual, _ := a.props.LoadOrStore(key, candidate)
	return actual.(*Property)
}

// Field names one member of an anonymous type.
type Field struct {
	Name string
	Type *Type
}

// Anonymous returns the anonymous complex type with exactly the given
// members in order. Two calls with the same shape return the same type.
func (a *Arena) Anonymous(fields ...Field) *Type {
	sig := shapeSignature(fields)
	if existing, ok := a.shapes.Load(sig); ok {
		return existing.(*Type)
	}

	candidate := NewComplex("<>Anonymous" + sig)
	for _, f := range fields {
		p := a.Intern(candidate, f.Name, f.Type)
		candidate.props = append(candidate.props, p)
		candidate.byName[strings.ToLower(f.Name)] = p
	}
	actual, _ := a.shapes.LoadOrStore(sig, candidate)
	return actual.(*Type)
}

func shapeSignature(fields []Field) string {
	var b strings.Builder
	b.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(f.Name)
		b.WriteByte(':')
		b.WriteString(typeSignature(f.Type))
	}
	b.WriteByte('}')
	return b.String()
}

func typeSignature(t *Type) string {
	switch t.Kind() {
	case KindComplex:
		return fmt.Sprintf("%s@%p", t.Name(), t)
	case KindCollection:
		return "Collection(" + typeSignature(t.Elem()) + ")"
	default:
		return t.String()
	}
}
