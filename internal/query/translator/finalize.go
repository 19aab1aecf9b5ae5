package translator

import (
	"errors"
	"fmt"

	"github.com/spf13/cast"

	"github.com/conduit-lang/wirequery/internal/query/host"
	"github.com/conduit-lang/wirequery/internal/query/residual"
)

// Finalizer turns the rows returned for a translated query into the value
// the host query produces. count is the inline count reported by the
// server, if one was requested.
type Finalizer func(rows []map[string]any, count *int64) (any, error)

// Errors reported by finalizers
var (
	ErrNoElements         = errors.New("sequence contains no elements")
	ErrMoreThanOneElement = errors.New("sequence contains more than one element")
	ErrMissingCount       = errors.New("response carries no inline count")
)

func (s *session) finalizer(program *residual.Program) Finalizer {
	terminal, hasTerminal, negate := s.terminal, s.hasTerminal, s.negate
	countSkip := int64(s.countSkip)
	var countTop *int64
	if s.countTop != nil {
		n := int64(*s.countTop)
		countTop = &n
	}

	return func(rows []map[string]any, count *int64) (any, error) {
		values := make([]any, len(rows))
		for i, row := range rows {
			if program == nil {
				values[i] = row
				continue
			}
			v, err := program.Run(row)
			if err != nil {
				return nil, err
			}
			values[i] = v
		}

		var out any = values
		if hasTerminal {
			var err error
			if out, err = reduce(terminal, values, count, countSkip, countTop); err != nil {
				return nil, err
			}
		}

		if negate {
			b, ok := out.(bool)
			if !ok {
				return nil, fmt.Errorf("cannot negate %T result", out)
			}
			out = !b
		}
		return out, nil
	}
}

func reduce(op host.QueryOp, values []any, count *int64, skip int64, top *int64) (any, error) {
	switch op {
	case host.Any:
		return len(values) > 0, nil
	case host.First, host.FirstOrDefault:
		if len(values) == 0 {
			if op == host.First {
				return nil, ErrNoElements
			}
			return nil, nil
		}
		return values[0], nil
	case host.Single, host.SingleOrDefault:
		switch {
		case len(values) > 1:
			return nil, ErrMoreThanOneElement
		case len(values) == 1:
			return values[0], nil
		case op == host.Single:
			return nil, ErrNoElements
		}
		return nil, nil
	case host.Count, host.LongCount:
		if count == nil {
			return nil, ErrMissingCount
		}
		n := max(0, *count-skip)
		if top != nil {
			n = min(n, *top)
		}
		if op == host.Count {
			return cast.ToInt32E(n)
		}
		return n, nil
	}
	return nil, fmt.Errorf("no finalizer for %s", op)
}
