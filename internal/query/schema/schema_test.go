package schema_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/wirequery/internal/query/schema"
	"github.com/conduit-lang/wirequery/internal/query/testmodel"
)

func TestPrimitiveVariants(t *testing.T) {
	nullable := schema.Int32.Nullable()

	assert.True(t, nullable.IsNullable())
	assert.Same(t, nullable, schema.Int32.Nullable(), "nullable variant must be canonical")
	assert.Same(t, schema.Int32, nullable.NonNullable())
	assert.Equal(t, "Edm.Int32?", nullable.String())
	assert.Equal(t, "Edm.Int32", nullable.Name())

	// reference kinds have no separate nullable variant
	assert.Same(t, schema.String, schema.String.Nullable())
	assert.True(t, schema.String.AcceptsNull())
	assert.False(t, schema.Int32.AcceptsNull())
}

func TestPrimitiveByName(t *testing.T) {
	got, ok := schema.PrimitiveByName("edm.datetime")
	require.True(t, ok)
	assert.Same(t, schema.DateTime, got)

	_, ok = schema.PrimitiveByName("Edm.Nope")
	assert.False(t, ok)
}

func TestPropertyLookupIsCaseInsensitive(t *testing.T) {
	m := testmodel.New()

	p, ok := m.Item.Property("price")
	require.True(t, ok)
	assert.Equal(t, "Price", p.Name)
	assert.Same(t, schema.Decimal, p.Type)

	_, ok = m.Item.Property("missing")
	assert.False(t, ok)

	// inherited
	p, ok = m.SpecialItem.Property("NAME")
	require.True(t, ok)
	assert.Same(t, m.Item, p.Owner)
}

func TestAddPropertyPanicsOnDuplicate(t *testing.T) {
	typ := schema.NewComplex("Model.Dup").AddProperty("A", schema.Int32)
	assert.Panics(t, func() { typ.AddProperty("a", schema.String) })
}

func TestImplicitlyConvertible(t *testing.T) {
	money := schema.NewComplex("Model.Money").DeclareConversion(schema.Decimal)

	tests := []struct {
		name string
		from *schema.Type
		to   *schema.Type
		want bool
	}{
		{"identity", schema.Int32, schema.Int32, true},
		{"int32 to int64", schema.Int32, schema.Int64, true},
		{"int32 to double is transitive", schema.Int32, schema.Double, true},
		{"int32 to decimal", schema.Int32, schema.Decimal, true},
		{"byte to int32", schema.Byte, schema.Int32, true},
		{"int64 to int32", schema.Int64, schema.Int32, false},
		{"double to decimal", schema.Double, schema.Decimal, false},
		{"single to double", schema.Single, schema.Double, true},
		{"wrap", schema.Int32, schema.Int32.Nullable(), true},
		{"unwrap", schema.Int32.Nullable(), schema.Int32, true},
		{"wrap and widen", schema.Int32, schema.Int64.Nullable(), true},
		{"null to int", schema.Null, schema.Int32, true},
		{"null to string", schema.Null, schema.String, true},
		{"null to null", schema.Null, schema.Null, true},
		{"string to int", schema.String, schema.Int32, false},
		{"declared conversion", money, schema.Decimal, true},
		{"declared conversion wraps", money, schema.Decimal.Nullable(), true},
		{"type ref", schema.TypeRef, schema.String, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, schema.ImplicitlyConvertible(tt.from, tt.to))
		})
	}
}

func TestNullNotConvertibleToNullType(t *testing.T) {
	// Equal types short-circuit; the pseudo-type rule only matters for the
	// Null -> other direction.
	assert.False(t, schema.ImplicitlyConvertible(schema.Int32, schema.Null))
}

func TestExplicitlyConvertible(t *testing.T) {
	m := testmodel.New()

	assert.True(t, schema.ExplicitlyConvertible(schema.Double, schema.Int32))
	assert.True(t, schema.ExplicitlyConvertible(m.Item, m.SpecialItem))
	assert.False(t, schema.ExplicitlyConvertible(schema.String, schema.Int32))
}

func TestIsAssignableFrom(t *testing.T) {
	m := testmodel.New()

	assert.True(t, m.Item.IsAssignableFrom(m.SpecialItem))
	assert.False(t, m.SpecialItem.IsAssignableFrom(m.Item))
	assert.True(t, schema.Int32.Nullable().IsAssignableFrom(schema.Int32))
	assert.True(t, schema.String.IsAssignableFrom(schema.Null))
	assert.False(t, schema.Int32.IsAssignableFrom(schema.Null))
}

func TestConversionRank(t *testing.T) {
	assert.Equal(t, 0, schema.ConversionRank(schema.Double, schema.Double))
	assert.Equal(t, 1, schema.ConversionRank(schema.Int32, schema.Double))
	assert.Equal(t, -1, schema.ConversionRank(schema.String, schema.Double))
}

func TestRegistryResolve(t *testing.T) {
	m := testmodel.New()

	got, ok := m.Registry.Resolve("Edm.String")
	require.True(t, ok)
	assert.Same(t, schema.String, got)

	got, ok = m.Registry.Resolve("model.specialitem")
	require.True(t, ok)
	assert.Same(t, m.SpecialItem, got)

	_, ok = m.Registry.Resolve("Model.Unknown")
	assert.False(t, ok)
}

func TestCollectionEquality(t *testing.T) {
	m := testmodel.New()

	assert.True(t, schema.CollectionOf(m.Item).Equal(schema.CollectionOf(m.Item)))
	assert.False(t, schema.CollectionOf(m.Item).Equal(schema.CollectionOf(m.Bravo)))
	assert.Equal(t, "Collection(Edm.Int32)", schema.CollectionOf(schema.Int32).Name())
}

func TestArenaInternConcurrent(t *testing.T) {
	arena := &schema.Arena{}
	owner := schema.NewComplex("Model.Row")

	const workers = 32
	results := make([]*schema.Property, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = arena.Intern(owner, "Total", schema.Int64)
		}(i)
	}
	wg.Wait()

	for _, p := range results {
		assert.Same(t, results[0], p)
	}

	assert.NotZero(t, results[0].ID)

	// a later intern under another type keeps the existing entry
	again := arena.Intern(owner, "Total", schema.String)
	assert.Same(t, results[0], again)
	assert.Same(t, schema.Int64, again.Type)
}

func TestArenaAnonymousShapes(t *testing.T) {
	arena := &schema.Arena{}

	a := arena.Anonymous(schema.Field{Name: "x", Type: schema.Int32}, schema.Field{Name: "y", Type: schema.String})
	b := arena.Anonymous(schema.Field{Name: "x", Type: schema.Int32}, schema.Field{Name: "y", Type: schema.String})
	c := arena.Anonymous(schema.Field{Name: "x", Type: schema.Int64})

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)

	p, ok := a.Property("Y")
	require.True(t, ok)
	assert.Same(t, schema.String, p.Type)
	assert.Len(t, a.Properties(), 2)
}
