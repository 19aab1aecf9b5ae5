// Package wire encodes IR queries as URL query strings and decodes them
// back. Option values embed the expression grammar handled by the parser
// package.
package wire

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	qerrors "github.com/conduit-lang/wirequery/internal/query/errors"
	"github.com/conduit-lang/wirequery/internal/query/ir"
	"github.com/conduit-lang/wirequery/internal/query/parser"
	"github.com/conduit-lang/wirequery/internal/query/schema"
)

// System query option names
const (
	Filter      = "$filter"
	OrderBy     = "$orderby"
	Top         = "$top"
	Skip        = "$skip"
	Select      = "$select"
	Format      = "$format"
	InlineCount = "$inlinecount"
)

var known = map[string]bool{
	Filter: true, OrderBy: true, Top: true, Skip: true,
	Select: true, Format: true, InlineCount: true,
}

// Encode renders q as a URL query string. Options appear in the fixed
// order $filter, $orderby, $top, $skip, $select, $format, $inlinecount and
// spaces are escaped as %20.
func Encode(q *ir.Query) string {
	params := ir.Params(q)
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.Name + "=" + Escape(p.Value)
	}
	return strings.Join(parts, "&")
}

// Escape query-escapes an option value using %20 for spaces
func Escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

type config struct {
	registry *schema.Registry
	maxTop   int
}

// Option configures Decode
type Option func(*config)

// WithRegistry resolves type names in cast and isof
func WithRegistry(r *schema.Registry) Option {
	return func(c *config) { c.registry = r }
}

// WithMaxTop rejects $top values above n. Zero means unlimited.
func WithMaxTop(n int) Option {
	return func(c *config) { c.maxTop = n }
}

// DecodeString parses a raw query string such as
// "$filter=Price%20gt%2020&$top=5" into a query over root.
func DecodeString(root *schema.Type, raw string, opts ...Option) (*ir.Query, error) {
	values, err := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	if err != nil {
		return nil, qerrors.NewParseError(qerrors.ErrInvalidOption, 0, raw, err.Error())
	}
	return Decode(root, values, opts...)
}

// Decode builds a query over root from decoded URL values. Parameters not
// starting with "$" are ignored; unknown system options are rejected.
func Decode(root *schema.Type, values url.Values, opts ...Option) (*ir.Query, error) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	var popts []parser.Option
	if cfg.registry != nil {
		popts = append(popts, parser.WithRegistry(cfg.registry))
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	var qopts []ir.QueryOption
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if !strings.HasPrefix(name, "$") {
			continue
		}
		key := strings.ToLower(name)
		if !known[key] {
			return nil, invalidOption(name, "", "unknown query option")
		}
		if len(values[name]) > 1 {
			return nil, invalidOption(name, values[name][1], "option given more than once")
		}
		// option names are case-insensitive, so $filter and $FILTER collide
		if seen[key] {
			return nil, invalidOption(name, values.Get(name), "option given more than once")
		}
		seen[key] = true
		value := values.Get(name)

		switch key {
		case Filter:
			f, err := parser.ParseFilter(root, value, popts...)
			if err != nil {
				return nil, err
			}
			qopts = append(qopts, ir.WithFilter(f))
		case OrderBy:
			keys, err := parser.ParseSortKeys(root, value, popts...)
			if err != nil {
				return nil, err
			}
			qopts = append(qopts, ir.WithOrderBy(keys...))
		case Top:
			n, err := count(name, value)
			if err != nil {
				return nil, err
			}
			if cfg.maxTop > 0 && n > cfg.maxTop {
				return nil, invalidOption(name, value, fmt.Sprintf("exceeds the maximum of %d", cfg.maxTop))
			}
			qopts = append(qopts, ir.WithTop(n))
		case Skip:
			n, err := count(name, value)
			if err != nil {
				return nil, err
			}
			qopts = append(qopts, ir.WithSkip(n))
		case Select:
			cols, err := parser.ParseSelectColumns(root, value, popts...)
			if err != nil {
				return nil, err
			}
			qopts = append(qopts, ir.WithSelect(cols...))
		case Format:
			qopts = append(qopts, ir.WithFormat(value))
		case InlineCount:
			switch strings.ToLower(value) {
			case "allpages":
				qopts = append(qopts, ir.WithInlineCount(ir.InlineCountAllPages))
			case "none", "":
				qopts = append(qopts, ir.WithInlineCount(ir.InlineCountNone))
			default:
				return nil, invalidOption(name, value, "expected allpages or none")
			}
		}
	}

	return ir.NewQuery(root, qopts...)
}

func count(name, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, invalidOption(name, value, "expected a non-negative integer")
	}
	return n, nil
}

func invalidOption(name, value, message string) *qerrors.ParseError {
	return qerrors.NewParseError(qerrors.ErrInvalidOption, 0, value, name+": "+message)
}
