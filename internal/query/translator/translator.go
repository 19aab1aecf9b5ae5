// Package translator reduces a host query tree to an IR query plus a
// residual client-side finalizer.
//
// The operator chain is walked from its source outwards. Filters, sort
// keys and paging map onto the IR query; Select stages are recorded by the
// path translator and surface as the $select list and a client-side
// projection; terminal operators adjust $top/$inlinecount and install a
// finalizer that post-processes the materialized rows.
package translator

import (
	"fmt"

	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/conduit-lang/wirequery/internal/query/canon"
	qerrors "github.com/conduit-lang/wirequery/internal/query/errors"
	"github.com/conduit-lang/wirequery/internal/query/host"
	"github.com/conduit-lang/wirequery/internal/query/ir"
	"github.com/conduit-lang/wirequery/internal/query/paths"
	"github.com/conduit-lang/wirequery/internal/query/residual"
	"github.com/conduit-lang/wirequery/internal/query/schema"
)

// Result is a translated query
type Result struct {
	// Query is the server-side part
	Query *ir.Query
	// Root is the captured query source
	Root *host.Source
	// Projection maps a raw row to the projected value; nil without Select
	Projection *host.Lambda
	// Finalizer turns the materialized rows into the host result
	Finalizer Finalizer
}

// Translator translates host query trees. It holds no per-query state and
// may be shared.
type Translator struct {
	logger *zap.Logger
}

// Option configures a Translator
type Option func(*Translator)

// WithLogger sets the logger used for debug tracing
func WithLogger(logger *zap.Logger) Option {
	return func(t *Translator) { t.logger = logger }
}

// New creates a translator
func New(opts ...Option) *Translator {
	t := &Translator{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// stage is the position of the translation in the operator order
type stage int

const (
	stageStart stage = iota
	stageFiltered
	stageSorted
	stagePaginated
)

func (s stage) String() string {
	switch s {
	case stageStart:
		return "start"
	case stageFiltered:
		return "filter"
	case stageSorted:
		return "sort"
	case stagePaginated:
		return "paging"
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// session is the state of one Translate call
type session struct {
	root  *host.Source
	paths *paths.Translator
	stage stage

	filter ir.Node
	group  []*ir.SortKey // keys of the latest OrderBy and its ThenBys
	prior  []*ir.SortKey // keys of earlier OrderBys, now secondary
	top    *int
	skip   int

	terminal    host.QueryOp
	hasTerminal bool
	negate      bool
	countTop    *int
	countSkip   int
}

// Translate canonicalizes e and reduces it to a Result.
func (t *Translator) Translate(e host.Expr) (*Result, error) {
	res, err := t.translate(e)
	if err != nil {
		t.logger.Debug("query translation failed",
			zap.String("host", host.Format(e)),
			zap.Error(err))
		return nil, err
	}
	t.logger.Debug("query translated",
		zap.String("host", host.Format(e)),
		zap.String("query", res.Query.String()),
		zap.Bool("projection", res.Projection != nil))
	return res, nil
}

func (t *Translator) translate(e host.Expr) (*Result, error) {
	canonical, err := canon.Canonicalize(e)
	if err != nil {
		return nil, err
	}

	s := &session{}
	body := canonical
	for {
		u, ok := body.(*host.Unary)
		if !ok || u.Op() != host.OpNot || !negatable(u.Operand()) {
			break
		}
		s.negate = !s.negate
		body = u.Operand()
	}

	if err := s.chain(body); err != nil {
		return nil, err
	}

	q, err := s.build()
	if err != nil {
		return nil, err
	}

	proj, err := s.paths.FinalProjection()
	if err != nil {
		return nil, err
	}
	var program *residual.Program
	if proj != nil {
		if program, err = residual.Compile(proj); err != nil {
			return nil, err
		}
	}

	return &Result{
		Query:      q,
		Root:       s.root,
		Projection: proj,
		Finalizer:  s.finalizer(program),
	}, nil
}

// negatable reports whether a Not over e wraps a query result
func negatable(e host.Expr) bool {
	switch x := e.(type) {
	case *host.QueryCall:
		return x.Op().IsTerminal()
	case *host.Unary:
		return x.Op() == host.OpNot && negatable(x.Operand())
	}
	return false
}

func (s *session) build() (*ir.Query, error) {
	var opts []ir.QueryOption
	if s.filter != nil {
		opts = append(opts, ir.WithFilter(s.filter))
	}
	if keys := s.orderBy(); len(keys) > 0 {
		opts = append(opts, ir.WithOrderBy(keys...))
	}
	if s.top != nil {
		opts = append(opts, ir.WithTop(*s.top))
	}
	if s.skip > 0 {
		opts = append(opts, ir.WithSkip(s.skip))
	}
	if s.paths.Depth() > 0 {
		cols, err := s.paths.SelectColumns()
		if err != nil {
			return nil, err
		}
		opts = append(opts, ir.WithSelect(cols...))
	}
	if s.hasTerminal && (s.terminal == host.Count || s.terminal == host.LongCount) {
		opts = append(opts, ir.WithInlineCount(ir.InlineCountAllPages))
	}
	q, err := ir.NewQuery(s.root.Elem(), opts...)
	return q, qerrors.WrapCompile(err)
}

func (s *session) orderBy() []*ir.SortKey {
	keys := make([]*ir.SortKey, 0, len(s.group)+len(s.prior))
	keys = append(keys, s.group...)
	return append(keys, s.prior...)
}

// chain translates the operator chain ending at e, innermost first.
func (s *session) chain(e host.Expr) error {
	switch x := e.(type) {
	case *host.Constant:
		src, ok := x.Source()
		if !ok {
			return qerrors.Compilef(qerrors.ErrUnsupportedConstruct,
				"a query must start at a source, got %s", host.Format(e))
		}
		return s.capture(src)
	case *host.QueryCall:
		if err := s.chain(x.Source()); err != nil {
			return err
		}
		if s.hasTerminal {
			return qerrors.Compilef(qerrors.ErrUnsupportedConstruct,
				"%s cannot follow %s", x.Op(), s.terminal)
		}
		return s.apply(x)
	}
	return qerrors.Compilef(qerrors.ErrUnsupportedConstruct,
		"%s is not a query", host.Format(e))
}

func (s *session) capture(src *host.Source) error {
	if s.root != nil {
		return qerrors.Compilef(qerrors.ErrNestedQuery, "nested query structures are not supported")
	}
	s.root = src
	s.paths = paths.New(src.Elem(), s.translate)
	return nil
}

func (s *session) apply(qc *host.QueryCall) error {
	op := qc.Op()
	switch op {
	case host.Where:
		if s.stage > stageFiltered {
			return outOfOrder(op, s.stage)
		}
		pred, err := s.lambdaBody(qc)
		if err != nil {
			return err
		}
		return s.where(pred)

	case host.Select:
		l, ok := qc.Lambda()
		if !ok {
			return malformed(qc)
		}
		s.paths.RegisterProjection(l)
		return nil

	case host.OrderBy, host.OrderByDescending, host.ThenBy, host.ThenByDescending:
		if s.stage == stagePaginated {
			return outOfOrder(op, s.stage)
		}
		if (op == host.ThenBy || op == host.ThenByDescending) && s.stage != stageSorted {
			return qerrors.Compilef(qerrors.ErrOperatorOrder, "%s requires a preceding OrderBy", op)
		}
		body, err := s.lambdaBody(qc)
		if err != nil {
			return err
		}
		return s.orderKey(op, body)

	case host.Skip, host.Take:
		n, err := countArg(qc)
		if err != nil {
			return err
		}
		if op == host.Skip {
			s.skip += n
			if s.top != nil {
				s.setTop(max(0, *s.top-n))
			}
		} else {
			s.limit(n)
		}
		s.stage = stagePaginated
		return nil

	case host.Any, host.First, host.FirstOrDefault:
		s.limit(1)
	case host.Single, host.SingleOrDefault:
		s.limit(2)
	case host.Count, host.LongCount:
		s.countTop, s.countSkip = s.top, s.skip
		s.setTop(0)
	default:
		return qerrors.Compilef(qerrors.ErrUnsupportedConstruct, "%s has no wire form", op)
	}

	if qc.NumArgs() != 0 {
		return malformed(qc)
	}
	s.terminal, s.hasTerminal = op, true
	return nil
}

func (s *session) setTop(n int) { s.top = &n }

// limit keeps the smaller of the current top and n
func (s *session) limit(n int) {
	if s.top == nil || n < *s.top {
		s.setTop(n)
	}
}

func (s *session) where(body host.Expr) error {
	pred, err := s.value(body)
	if err != nil {
		return err
	}
	if pred.Type().NonNullable() != schema.Boolean {
		return qerrors.Compilef(qerrors.ErrIncompatibleOperands,
			"predicate %s is %s, not Boolean", host.Format(body), pred.Type())
	}
	if s.filter != nil {
		combined, err := ir.NewBinary(s.filter, ir.OpAnd, pred)
		if err != nil {
			return qerrors.WrapCompile(err)
		}
		pred = combined
	}
	s.filter = pred
	s.stage = stageFiltered
	return nil
}

func (s *session) orderKey(op host.QueryOp, body host.Expr) error {
	expr, err := s.value(body)
	if err != nil {
		return err
	}
	desc := op == host.OrderByDescending || op == host.ThenByDescending
	key, err := ir.NewSortKey(expr, desc)
	if err != nil {
		return qerrors.WrapCompile(err)
	}

	switch op {
	case host.OrderBy, host.OrderByDescending:
		// A later OrderBy is a stable re-sort: its key becomes primary.
		s.prior = append(append([]*ir.SortKey(nil), s.group...), s.prior...)
		s.group = []*ir.SortKey{key}
	default:
		s.group = append(s.group, key)
	}
	s.stage = stageSorted
	return nil
}

func (s *session) lambdaBody(qc *host.QueryCall) (host.Expr, error) {
	l, ok := qc.Lambda()
	if !ok {
		return nil, malformed(qc)
	}
	return l.Body(), nil
}

func countArg(qc *host.QueryCall) (int, error) {
	if qc.NumArgs() != 1 {
		return 0, malformed(qc)
	}
	c, ok := qc.Arg(0).(*host.Constant)
	if !ok {
		return 0, qerrors.Compilef(qerrors.ErrUnsupportedConstruct,
			"%s requires a constant count", qc.Op())
	}
	n, err := cast.ToIntE(c.Value())
	if err != nil || n < 0 {
		return 0, qerrors.Compilef(qerrors.ErrUnsupportedConstruct,
			"%s requires a non-negative count, got %v", qc.Op(), c.Value())
	}
	return n, nil
}

func outOfOrder(op host.QueryOp, after stage) error {
	return qerrors.Compilef(qerrors.ErrOperatorOrder, "%s cannot be applied after %s", op, after)
}

func malformed(qc *host.QueryCall) error {
	return qerrors.Compilef(qerrors.ErrUnsupportedConstruct,
		"malformed %s call: %s", qc.Op(), host.Format(qc))
}
