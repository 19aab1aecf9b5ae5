package ir

import (
	"fmt"

	qerrors "github.com/conduit-lang/wirequery/internal/query/errors"
	"github.com/conduit-lang/wirequery/internal/query/schema"
)

// InlineCount selects whether the server reports the total row count
type InlineCount int

const (
	InlineCountNone InlineCount = iota
	InlineCountAllPages
)

// String returns the $inlinecount value
func (c InlineCount) String() string {
	if c == InlineCountAllPages {
		return "allpages"
	}
	return "none"
}

// Query aggregates the options of one request against a root element type.
type Query struct {
	elem        *schema.Type
	filter      Node
	orderBy     []*SortKey
	top         *int
	skip        int
	selectCols  []*SelectColumn
	format      string
	inlineCount InlineCount
}

func (*Query) node()                {}
func (*Query) Kind() NodeKind       { return KindQuery }
func (q *Query) Type() *schema.Type { return q.elem }
func (q *Query) Tag() schema.Kind   { return q.elem.Kind() }
func (q *Query) String() string     { return Render(q) }

// ElementType returns the root element type
func (q *Query) ElementType() *schema.Type { return q.elem }

// Filter returns the $filter predicate, or nil
func (q *Query) Filter() Node { return q.filter }

// OrderBy returns a copy of the sort keys
func (q *Query) OrderBy() []*SortKey {
	out := make([]*SortKey, len(q.orderBy))
	copy(out, q.orderBy)
	return out
}

// Top returns the $top value and whether one is set
func (q *Query) Top() (int, bool) {
	if q.top == nil {
		return 0, false
	}
	return *q.top, true
}

// Skip returns the $skip value
func (q *Query) Skip() int { return q.skip }

// Select returns a copy of the select columns
func (q *Query) Select() []*SelectColumn {
	out := make([]*SelectColumn, len(q.selectCols))
	copy(out, q.selectCols)
	return out
}

// Format returns the $format value
func (q *Query) Format() string { return q.format }

// InlineCount returns the $inlinecount option
func (q *Query) InlineCount() InlineCount { return q.inlineCount }

// QueryOption overrides one field of a query
type QueryOption func(*Query) error

// WithFilter sets the filter; nil clears it
func WithFilter(filter Node) QueryOption {
	return func(q *Query) error {
		if filter != nil && filter.Type().NonNullable() != schema.Boolean {
			return fmt.Errorf("%w: filter must be %s, got %s", qerrors.ErrTypeMismatch, schema.Boolean, filter.Type())
		}
		q.filter = filter
		return nil
	}
}

// WithOrderBy replaces the sort keys
func WithOrderBy(keys ...*SortKey) QueryOption {
	return func(q *Query) error {
		for _, k := range keys {
			if k == nil {
				return fmt.Errorf("%w: nil sort key", qerrors.ErrInvalidValue)
			}
		}
		q.orderBy = append([]*SortKey(nil), keys...)
		return nil
	}
}

// WithTop sets $top
func WithTop(top int) QueryOption {
	return func(q *Query) error {
		if top < 0 {
			return fmt.Errorf("%w: top must be non-negative, got %d", qerrors.ErrInvalidValue, top)
		}
		q.top = &top
		return nil
	}
}

// WithoutTop clears $top
func WithoutTop() QueryOption {
	return func(q *Query) error {
		q.top = nil
		return nil
	}
}

// WithSkip sets $skip
func WithSkip(skip int) QueryOption {
	return func(q *Query) error {
		if skip < 0 {
			return fmt.Errorf("%w: skip must be non-negative, got %d", qerrors.ErrInvalidValue, skip)
		}
		q.skip = skip
		return nil
	}
}

// WithSelect replaces the select columns
func WithSelect(cols ...*SelectColumn) QueryOption {
	return func(q *Query) error {
		for _, c := range cols {
			if c == nil {
				return fmt.Errorf("%w: nil select column", qerrors.ErrInvalidValue)
			}
		}
		q.selectCols = append([]*SelectColumn(nil), cols...)
		return nil
	}
}

// WithFormat sets $format
func WithFormat(format string) QueryOption {
	return func(q *Query) error {
		q.format = format
		return nil
	}
}

// WithInlineCount sets $inlinecount
func WithInlineCount(c InlineCount) QueryOption {
	return func(q *Query) error {
		q.inlineCount = c
		return nil
	}
}

// NewQuery builds a query over elem.
func NewQuery(elem *schema.Type, opts ...QueryOption) (*Query, error) {
	if elem == nil {
		return nil, fmt.Errorf("%w: query without element type", qerrors.ErrInvalidValue)
	}
	q := &Query{elem: elem}
	for _, opt := range opts {
		if err := opt(q); err != nil {
			return nil, err
		}
	}
	return q, nil
}

// With returns a copy of q with the given fields replaced. Unspecified
// fields are shared with q.
func (q *Query) With(opts ...QueryOption) (*Query, error) {
	cp := *q
	for _, opt := range opts {
		if err := opt(&cp); err != nil {
			return nil, err
		}
	}
	return &cp, nil
}
