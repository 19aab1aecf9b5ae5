package schema

// widening lists the direct implicit numeric conversions of each kind.
// ImplicitlyConvertible closes over these transitively.
var widening = map[Kind][]Kind{
	KindSByte:  {KindInt16},
	KindByte:   {KindInt16},
	KindInt16:  {KindInt32},
	KindInt32:  {KindInt64},
	KindInt64:  {KindSingle, KindDecimal},
	KindSingle: {KindDouble},
}

func implicitTargets(t *Type) []*Type {
	var out []*Type
	for _, k := range widening[t.kind] {
		if target, ok := PrimitiveOf(k); ok {
			out = append(out, target)
		}
	}
	for _, c := range t.conversions {
		out = append(out, c.NonNullable())
	}
	return out
}

// ImplicitlyConvertible reports whether a value of type from converts to
// type to without an explicit cast. The relation covers identity, numeric
// widening, nullable wrapping and unwrapping and user-declared conversions,
// all transitively. Null converts to every type except itself.
func ImplicitlyConvertible(from, to *Type) bool {
	if from == nil || to == nil {
		return false
	}
	if from.Equal(to) {
		return true
	}
	if from.kind == KindNull {
		return to.kind != KindNull
	}
	if to.kind == KindNull || to.kind == KindType || from.kind == KindType {
		return false
	}

	target := to.NonNullable()
	seen := make(map[*Type]bool)
	queue := []*Type{from.NonNullable()}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.Equal(target) {
			return true
		}
		if seen[cur] {
			continue
		}
		seen[cur] = true
		queue = append(queue, implicitTargets(cur)...)
	}
	return false
}

// ExplicitlyConvertible reports whether a cast from one type to another is
// legal: any implicit conversion, any numeric-to-numeric conversion and
// downcasts between complex types.
func ExplicitlyConvertible(from, to *Type) bool {
	if ImplicitlyConvertible(from, to) {
		return true
	}
	if from == nil || to == nil {
		return false
	}
	if from.IsNumeric() && to.IsNumeric() {
		return true
	}
	return from.kind == KindComplex && to.kind == KindComplex && to.DerivesFrom(from)
}

// ConversionRank scores how well an argument of type from fits a parameter
// of type to: 0 for an exact match, 1 for an implicit conversion and -1
// when it does not fit.
func ConversionRank(from, to *Type) int {
	switch {
	case from.Equal(to):
		return 0
	case ImplicitlyConvertible(from, to):
		return 1
	default:
		return -1
	}
}
