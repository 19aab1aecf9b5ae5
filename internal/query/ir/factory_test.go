package ir_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	qerrors "github.com/conduit-lang/wirequery/internal/query/errors"
	"github.com/conduit-lang/wirequery/internal/query/ir"
	"github.com/conduit-lang/wirequery/internal/query/schema"
	"github.com/conduit-lang/wirequery/internal/query/testmodel"
)

func TestNewBinaryTypes(t *testing.T) {
	m := testmodel.New()
	item := m.Item

	tests := []struct {
		name    string
		left    ir.Node
		op      ir.BinaryOperator
		right   ir.Node
		want    *schema.Type
		wantErr bool
	}{
		{"arithmetic keeps operand type", member(t, item, "Int"), ir.OpAdd, ir.MustConstant(1), schema.Int32, false},
		{"arithmetic widens", member(t, item, "Long"), ir.OpMul, member(t, item, "Int"), schema.Int64, false},
		{"nullable side wins", member(t, item, "NullableInt"), ir.OpAdd, ir.MustConstant(1), schema.Int32.Nullable(), false},
		{"comparison yields boolean", member(t, item, "Price"), ir.OpLe, ir.MustConstant(3), schema.Boolean, false},
		{"string equality", member(t, item, "Name"), ir.OpEq, ir.MustConstant("x"), schema.Boolean, false},
		{"string ordering", member(t, item, "Name"), ir.OpGt, ir.MustConstant("x"), schema.Boolean, false},
		{"logical", member(t, item, "Flag"), ir.OpAnd, ir.MustConstant(false), schema.Boolean, false},
		{"logical rejects nullable", member(t, item, "NullableFlag"), ir.OpOr, ir.MustConstant(true), nil, true},
		{"arithmetic on strings", member(t, item, "Name"), ir.OpAdd, ir.MustConstant("x"), nil, true},
		{"incompatible operands", member(t, item, "Name"), ir.OpEq, ir.MustConstant(1), nil, true},
		{"ordering complex values", member(t, item, "B"), ir.OpLt, member(t, item, "B"), nil, true},
		{"equality on complex values", member(t, item, "B"), ir.OpEq, ir.MustConstant(nil), schema.Boolean, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := ir.NewBinary(tt.left, tt.op, tt.right)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, qerrors.ErrTypeMismatch))
				return
			}
			require.NoError(t, err)
			assert.Same(t, tt.want, b.Type())
			assert.True(t, b.Left().Type().Equal(b.Right().Type()) || tt.op.IsLogical())
		})
	}
}

func TestNewBinaryInsertsOneConversion(t *testing.T) {
	m := testmodel.New()

	b := binary(t, member(t, m.Item, "Long"), ir.OpEq, member(t, m.Item, "Int"))
	_, leftConverted := b.Left().(*ir.Convert)
	conv, rightConverted := b.Right().(*ir.Convert)

	assert.False(t, leftConverted)
	require.True(t, rightConverted)
	assert.Same(t, schema.Int64, conv.Type())
	assert.True(t, conv.Implicit())
}

func TestNewNot(t *testing.T) {
	m := testmodel.New()

	n, err := ir.NewNot(member(t, m.Item, "NullableFlag"))
	require.NoError(t, err)
	assert.Same(t, schema.Boolean.Nullable(), n.Type())

	_, err = ir.NewNot(member(t, m.Item, "Int"))
	assert.True(t, errors.Is(err, qerrors.ErrTypeMismatch))
}

func TestNewConvert(t *testing.T) {
	m := testmodel.New()
	d := member(t, m.Item, "Double")

	same, err := ir.NewConvert(d, schema.Double)
	require.NoError(t, err)
	assert.Same(t, d, same)

	narrowed, err := ir.NewConvert(d, schema.Int32)
	require.NoError(t, err)
	assert.False(t, narrowed.(*ir.Convert).Implicit())

	_, err = ir.NewConvert(member(t, m.Item, "Name"), schema.Int32)
	assert.True(t, errors.Is(err, qerrors.ErrInvalidConversion))

	// upcast and downcast between related complex types
	special, err := ir.NewConstant(nil, m.SpecialItem)
	require.NoError(t, err)
	up, err := ir.NewConvert(special, m.Item)
	require.NoError(t, err)
	assert.Same(t, m.Item, up.Type())

	down, err := ir.NewConvert(up, m.SpecialItem)
	require.NoError(t, err)
	assert.Same(t, m.SpecialItem, down.Type())

	_, err = ir.NewConvert(special, m.Bravo)
	assert.Error(t, err)
}

func TestNewConstant(t *testing.T) {
	_, err := ir.NewConstant(int64(1), schema.Int32)
	assert.True(t, errors.Is(err, qerrors.ErrInvalidValue))

	_, err = ir.NewConstant(nil, schema.Int32)
	assert.True(t, errors.Is(err, qerrors.ErrInvalidValue))

	c, err := ir.NewConstant(nil, schema.Int32.Nullable())
	require.NoError(t, err)
	assert.True(t, c.IsNull())

	c, err = ir.ConstantOf(math.MaxInt32 + 1)
	require.NoError(t, err)
	assert.Same(t, schema.Int64, c.Type())

	c, err = ir.ConstantOf(7)
	require.NoError(t, err)
	assert.Same(t, schema.Int32, c.Type())
	assert.Equal(t, int32(7), c.Value())

	_, err = ir.ConstantOf(struct{}{})
	assert.Error(t, err)
}

func TestNewConstantDateTimePrecision(t *testing.T) {
	precise := time.Date(2024, 3, 1, 12, 30, 5, 123_456_789, time.FixedZone("", 3600))

	c, err := ir.NewConstant(precise, schema.DateTime)
	require.NoError(t, err)
	got := c.Value().(time.Time)
	assert.Equal(t, time.UTC, got.Location())
	assert.Equal(t, 123_456_700, got.Nanosecond())
	assert.Equal(t, "datetime'2024-03-01T11:30:05.1234567'", c.String())

	// offsets keep their full precision
	c, err = ir.NewConstant(precise, schema.DateTimeOffset)
	require.NoError(t, err)
	assert.Equal(t, precise, c.Value())
}

func TestMembers(t *testing.T) {
	m := testmodel.New()

	chain := member(t, m.Item, "b", "c", "VALUE")
	assert.Equal(t, "B/C/Value", chain.String())
	assert.Same(t, schema.Int32, chain.Type())
	assert.Len(t, chain.Path(), 3)

	_, err := ir.NewMember(nil, m.Item, "Nope")
	assert.True(t, errors.Is(err, qerrors.ErrUnknownProperty))

	// members of a derived type see inherited properties
	inherited := member(t, m.SpecialItem, "Price")
	assert.Same(t, schema.Decimal, inherited.Type())

	rebuilt, err := ir.MemberOf(chain.Path())
	require.NoError(t, err)
	assert.True(t, ir.Equal(chain, rebuilt))
}

func TestNewSelectColumn(t *testing.T) {
	m := testmodel.New()

	_, err := ir.NewSelectColumn(m.Item, []string{"Name"}, true)
	assert.True(t, errors.Is(err, qerrors.ErrTypeMismatch), "scalar wildcard")

	_, err = ir.NewSelectColumn(m.Item, nil, false)
	assert.Error(t, err)

	_, err = ir.NewSelectColumn(m.Item, []string{"B", "Missing"}, false)
	assert.True(t, errors.Is(err, qerrors.ErrUnknownProperty))

	col, err := ir.SelectColumnOf(member(t, m.Item, "B"), true)
	require.NoError(t, err)
	assert.Equal(t, "B/*", col.String())
	assert.False(t, col.IsStar())
}

func TestNewSortKeyRejectsUnordered(t *testing.T) {
	m := testmodel.New()

	_, err := ir.NewSortKey(member(t, m.Item, "B"), false)
	assert.True(t, errors.Is(err, qerrors.ErrTypeMismatch))
}

func TestQueryWith(t *testing.T) {
	m := testmodel.New()
	filter := binary(t, member(t, m.Item, "Id"), ir.OpEq, ir.MustConstant(1))

	q, err := ir.NewQuery(m.Item, ir.WithFilter(filter), ir.WithTop(5))
	require.NoError(t, err)

	next, err := q.With(ir.WithSkip(2))
	require.NoError(t, err)

	assert.Same(t, q.Filter(), next.Filter())
	top, ok := next.Top()
	assert.True(t, ok)
	assert.Equal(t, 5, top)
	assert.Equal(t, 2, next.Skip())
	assert.Equal(t, 0, q.Skip(), "original is unchanged")

	cleared, err := next.With(ir.WithoutTop())
	require.NoError(t, err)
	_, ok = cleared.Top()
	assert.False(t, ok)

	_, err = q.With(ir.WithTop(-1))
	assert.True(t, errors.Is(err, qerrors.ErrInvalidValue))
	_, err = q.With(ir.WithSkip(-3))
	assert.True(t, errors.Is(err, qerrors.ErrInvalidValue))
	_, err = q.With(ir.WithFilter(member(t, m.Item, "Int")))
	assert.True(t, errors.Is(err, qerrors.ErrTypeMismatch))
}
