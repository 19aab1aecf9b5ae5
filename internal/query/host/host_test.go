package host_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/wirequery/internal/query/host"
	"github.com/conduit-lang/wirequery/internal/query/schema"
	"github.com/conduit-lang/wirequery/internal/query/testmodel"
)

func TestQueryableBuildsChain(t *testing.T) {
	m := testmodel.New()
	items := host.NewSource("items", m.Item)

	q := host.From(items).
		Where(func(x host.Expr) host.Expr { return host.Gt(host.Prop(x, "Price"), host.Const(20)) }).
		OrderBy(func(x host.Expr) host.Expr { return host.Prop(x, "Name") }).
		Skip(5).
		Take(10)

	assert.Equal(t, "items.Where(x => (x.Price > 20)).OrderBy(x => x.Name).Skip(5).Take(10)", q.String())
	assert.Same(t, m.Item, q.Elem())

	call, ok := q.Expr().(*host.QueryCall)
	require.True(t, ok)
	assert.Equal(t, host.Take, call.Op())
	assert.Equal(t, schema.KindCollection, call.Type().Kind())
	assert.Same(t, m.Item, host.ElemType(call))
}

func TestSelectChangesElementType(t *testing.T) {
	m := testmodel.New()
	q := host.From(host.NewSource("items", m.Item)).
		Select(func(x host.Expr) host.Expr { return host.Path(x, "B", "Label") })

	assert.Same(t, schema.String, q.Elem())

	anon := host.From(host.NewSource("items", m.Item)).
		Select(func(x host.Expr) host.Expr {
			return host.NewObject(host.F("id", host.Prop(x, "Id")), host.F("name", host.Prop(x, "Name")))
		})
	again := host.From(host.NewSource("items", m.Item)).
		Select(func(x host.Expr) host.Expr {
			return host.NewObject(host.F("id", host.Prop(x, "Int")), host.F("name", host.Prop(x, "Name")))
		})
	assert.Same(t, anon.Elem(), again.Elem(), "same shape shares one anonymous type")
	_, ok := anon.Elem().Property("name")
	assert.True(t, ok)
}

func TestTerminalTypes(t *testing.T) {
	m := testmodel.New()
	q := host.From(host.NewSource("items", m.Item))
	price := func(x host.Expr) host.Expr { return host.Prop(x, "Price") }
	flag := func(x host.Expr) host.Expr { return host.Prop(x, "Flag") }

	tests := []struct {
		expr host.Expr
		want *schema.Type
	}{
		{q.Any(), schema.Boolean},
		{q.All(flag), schema.Boolean},
		{q.Count(), schema.Int32},
		{q.LongCountWhere(flag), schema.Int64},
		{q.First(), m.Item},
		{q.MaxOf(price), schema.Decimal},
		{q.Select(price).Contains(host.Const(1)), schema.Boolean},
	}
	for _, tt := range tests {
		t.Run(tt.expr.String(), func(t *testing.T) {
			assert.Same(t, tt.want, tt.expr.Type())
		})
	}
}

func TestSpecialMembersAreInterned(t *testing.T) {
	m := testmodel.New()
	x := host.Param("x", m.Item)

	length := host.Prop(host.Prop(x, "Name"), "Length")
	assert.Same(t, schema.Int32, length.Type())
	assert.True(t, host.IsSpecialMember(length))
	assert.Same(t, length.Property(), host.Prop(host.Path(x, "B", "Label"), "Length").Property())

	year := host.Prop(host.Prop(x, "Created"), "Year")
	assert.Same(t, schema.Int32, year.Type())

	hasValue := host.Prop(host.Prop(x, "NullableInt"), "HasValue")
	assert.Same(t, schema.Boolean, hasValue.Type())
	value := host.Prop(host.Prop(x, "NullableInt"), "Value")
	assert.Same(t, schema.Int32, value.Type())

	assert.False(t, host.IsSpecialMember(host.Prop(x, "Name")))
}

func TestBuilderPanicsOnUnknownNames(t *testing.T) {
	m := testmodel.New()
	x := host.Param("x", m.Item)

	assert.Panics(t, func() { host.Prop(x, "Nope") })
	assert.Panics(t, func() { host.Prop(host.Prop(x, "Int"), "Length") })
	assert.Panics(t, func() { host.Invoke(host.Prop(x, "Name"), "Frobnicate") })
	assert.Panics(t, func() { host.Invoke(host.Prop(x, "Int"), "ToLower") })
	assert.Panics(t, func() { host.Invoke(host.Prop(x, "Name"), "StartsWith") })
}

func TestBinaryTyping(t *testing.T) {
	m := testmodel.New()
	x := host.Param("x", m.Item)

	assert.Same(t, schema.Int64, host.Add(host.Prop(x, "Int"), host.Prop(x, "Long")).Type())
	assert.Same(t, schema.Int64, host.Add(host.Prop(x, "Long"), host.Prop(x, "Int")).Type())
	assert.Same(t, schema.Int32.Nullable(), host.Add(host.Prop(x, "NullableInt"), host.Const(1)).Type())
	assert.Same(t, schema.Boolean, host.Eq(host.Prop(x, "Name"), host.Const("a")).Type())
}

func TestSubstituteAndRewrite(t *testing.T) {
	m := testmodel.New()
	x := host.Param("x", m.Item)
	y := host.Param("y", m.Item)

	body := host.And(host.Prop(x, "Flag"), host.Gt(host.Prop(x, "Int"), host.Const(1)))
	out := host.Substitute(body, x, y)
	assert.Equal(t, "(y.Flag && (y.Int > 1))", out.String())
	assert.Equal(t, "(x.Flag && (x.Int > 1))", body.String(), "input is unchanged")

	same, err := host.Rewrite(body, func(e host.Expr) (host.Expr, error) { return e, nil })
	require.NoError(t, err)
	assert.Same(t, body, same)

	assert.Same(t, x, host.RootParameter(host.Path(x, "B", "C", "Value")))
	assert.Nil(t, host.RootParameter(host.Const(1)))
}

func TestFormat(t *testing.T) {
	m := testmodel.New()
	x := host.Param("a", m.Item)

	tests := []struct {
		expr host.Expr
		want string
	}{
		{host.Invoke(host.Prop(x, "Name"), "StartsWith", host.Const("O'N")), `a.Name.StartsWith("O'N")`},
		{host.Not(host.Prop(x, "Flag")), "!a.Flag"},
		{host.Negate(host.Prop(x, "Int")), "-a.Int"},
		{host.In(host.Array(schema.Int32, 1, 2), host.Prop(x, "Int")), "ArrayContains([1, 2], a.Int)"},
		{host.Cond(host.Prop(x, "Flag"), host.Const(1), host.Const(2)), "(a.Flag ? 1 : 2)"},
		{host.NewObject(host.F("n", host.Prop(x, "Name"))), "new { n = a.Name }"},
		{host.ConvertTo(host.Prop(x, "Int"), schema.Int64), "Convert(a.Int, Edm.Int64)"},
		{host.TypedConst(nil, schema.Int32.Nullable()), "null"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, host.Format(tt.expr))
		})
	}
}
