// Package paths translates lambda parameters and member chains to IR.
//
// Every Select stage pushes a path map: a dictionary from member paths of
// the projected value to the IR expression that computes them. Later
// stages resolve their parameter references through the top map, so that
// t => t.x > 5 after Select(a => new { x = a.B.Id + 2 }) becomes
// (B/Id add 2) gt 5. The leaf member paths read by the final map become
// the $select list.
package paths

import (
	"strings"

	qerrors "github.com/conduit-lang/wirequery/internal/query/errors"
	"github.com/conduit-lang/wirequery/internal/query/host"
	"github.com/conduit-lang/wirequery/internal/query/ir"
	"github.com/conduit-lang/wirequery/internal/query/projection"
	"github.com/conduit-lang/wirequery/internal/query/schema"
)

// TranslateFunc translates an arbitrary host expression in the current
// context. The orchestrator supplies it; this package calls back into it
// for projection bodies and the instances of built-in members.
type TranslateFunc func(host.Expr) (ir.Node, error)

// Binding is one path map entry. A nil Node with a nil Err is the query
// root itself. Err is reported only when the entry is used server-side.
type Binding struct {
	Node  ir.Node
	Err   error
	Reads [][]*schema.Property // root-relative paths; an empty path is the whole row
}

type pathMap struct {
	keys    []string
	entries map[string]*Binding
}

func (m *pathMap) put(key string, b *Binding) {
	if _, ok := m.entries[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.entries[key] = b
}

// Translator holds the projection stack of one translation session.
type Translator struct {
	root      *schema.Type
	translate TranslateFunc
	stack     []*pathMap
	lambdas   []*host.Lambda
}

// New creates a translator for queries over root
func New(root *schema.Type, translate TranslateFunc) *Translator {
	return &Translator{root: root, translate: translate}
}

// Depth returns the number of registered projections
func (t *Translator) Depth() int { return len(t.stack) }

// Parameter translates a bare parameter reference. With no projection it
// is the root row, returned as (nil, nil).
func (t *Translator) Parameter(p *host.Parameter) (ir.Node, error) {
	b := t.Bind(p)
	return b.Node, b.Err
}

var dateFunctions = map[string]ir.Function{
	"Year":   ir.FnYear,
	"Month":  ir.FnMonth,
	"Day":    ir.FnDay,
	"Hour":   ir.FnHour,
	"Minute": ir.FnMinute,
	"Second": ir.FnSecond,
}

// Member translates a member access.
func (t *Translator) Member(m *host.Member) (ir.Node, error) {
	if host.IsSpecialMember(m) {
		return t.special(m)
	}
	if host.RootParameter(m) != nil {
		b := t.Bind(m)
		return b.Node, b.Err
	}

	if obj, ok := m.Instance().(*host.New); ok {
		value, ok := obj.Field(m.Name())
		if !ok {
			return nil, qerrors.Compilef(qerrors.ErrUninitializedMember,
				"member %s accessed but never initialized", m.Name())
		}
		return t.translate(value)
	}

	inst, err := t.translate(m.Instance())
	if err != nil {
		return nil, err
	}
	im, ok := inst.(*ir.Member)
	if !ok {
		return nil, qerrors.Compilef(qerrors.ErrInvalidMember,
			"member %s of a computed value cannot be translated", m.Name())
	}
	out, err := ir.NewMember(im, nil, m.Name())
	return out, qerrors.WrapCompile(err)
}

func (t *Translator) special(m *host.Member) (ir.Node, error) {
	inst, err := t.translate(m.Instance())
	if err != nil {
		return nil, err
	}
	if inst == nil {
		return nil, qerrors.Compilef(qerrors.ErrUntranslatableParameter,
			"member %s of the root row cannot be translated", m.Name())
	}

	var out ir.Node
	owner := m.Instance().Type()
	switch name := m.Name(); {
	case name == "HasValue":
		out, err = ir.NewBinary(inst, ir.OpNe, ir.MustConstant(nil))
	case name == "Value":
		out, err = ir.NewConvert(inst, owner.NonNullable())
	case name == "Length":
		out, err = ir.NewCall(ir.FnLength, []ir.Node{inst})
	default:
		fn, ok := dateFunctions[name]
		if !ok {
			return nil, qerrors.Compilef(qerrors.ErrInvalidMember, "member %s of %s has no wire form", name, owner)
		}
		out, err = ir.NewCall(fn, []ir.Node{inst})
	}
	if err != nil {
		return nil, qerrors.WrapCompile(err)
	}
	return out, nil
}

// Bind resolves a parameter or a chain of declared members rooted at a
// parameter. The longest prefix of the chain present in the top path map
// is used and the remaining steps are appended as member accesses.
func (t *Translator) Bind(e host.Expr) Binding {
	var path []*schema.Property
	for cur := e; ; {
		m, ok := cur.(*host.Member)
		if !ok {
			break
		}
		path = append([]*schema.Property{m.Property()}, path...)
		cur = m.Instance()
	}

	if len(t.stack) == 0 {
		return t.extend(&Binding{Reads: [][]*schema.Property{nil}}, path)
	}

	top := t.stack[len(t.stack)-1]
	for k := len(path); k >= 0; k-- {
		b, ok := top.entries[key(path[:k])]
		if !ok {
			continue
		}
		if k == len(path) {
			return *b
		}
		return t.extend(b, path[k:])
	}

	if len(path) == 0 {
		return Binding{Err: qerrors.Compilef(qerrors.ErrUntranslatableParameter,
			"parameter cannot be expressed after the projection")}
	}
	return Binding{Err: qerrors.Compilef(qerrors.ErrUninitializedMember,
		"member %s accessed but never initialized", key(path))}
}

func (t *Translator) extend(base *Binding, steps []*schema.Property) Binding {
	if len(steps) == 0 {
		return *base
	}
	if base.Err != nil {
		return Binding{Err: base.Err, Reads: base.Reads}
	}

	var cur *ir.Member
	switch n := base.Node.(type) {
	case nil:
	case *ir.Member:
		cur = n
	default:
		return Binding{
			Err: qerrors.Compilef(qerrors.ErrInvalidMember,
				"member %s of a computed value cannot be translated", steps[0].Name),
			Reads: base.Reads,
		}
	}

	for _, p := range steps {
		next, err := ir.NewMember(cur, t.root, p.Name)
		if err != nil {
			return Binding{Err: qerrors.WrapCompile(err)}
		}
		cur = next
	}
	return Binding{Node: cur, Reads: [][]*schema.Property{cur.Path()}}
}

func key(path []*schema.Property) string {
	names := make([]string, len(path))
	for i, p := range path {
		names[i] = p.Name
	}
	return strings.Join(names, "/")
}

// RegisterProjection translates the body of a Select lambda into a new
// path map and pushes it. Anonymous objects are flattened so that every
// initialized member gets its own entry.
func (t *Translator) RegisterProjection(l *host.Lambda) {
	m := &pathMap{entries: make(map[string]*Binding)}
	t.flatten(m, nil, l.Body())
	t.stack = append(t.stack, m)
	t.lambdas = append(t.lambdas, l)
}

func (t *Translator) flatten(m *pathMap, prefix []string, body host.Expr) {
	if obj, ok := body.(*host.New); ok {
		var reads [][]*schema.Property
		for _, f := range obj.Fields() {
			child := append(append([]string(nil), prefix...), f.Name)
			t.flatten(m, child, f.Value)
			reads = append(reads, m.entries[strings.Join(child, "/")].Reads...)
		}
		m.put(strings.Join(prefix, "/"), &Binding{
			Err: qerrors.Compilef(qerrors.ErrUnsupportedConstruct,
				"an anonymous object cannot be used in a server-side expression"),
			Reads: reads,
		})
		return
	}

	node, err := t.translate(body)
	m.put(strings.Join(prefix, "/"), &Binding{Node: node, Err: err, Reads: t.reads(body)})
}

// reads collects the root-relative member paths read by the parameter
// chains in e.
func (t *Translator) reads(e host.Expr) [][]*schema.Property {
	var out [][]*schema.Property
	host.Walk(e, func(n host.Expr) bool {
		switch x := n.(type) {
		case *host.Parameter:
			out = append(out, t.Bind(x).Reads...)
			return false
		case *host.Member:
			if host.IsSpecialMember(x) || host.RootParameter(x) == nil {
				return true
			}
			out = append(out, t.Bind(x).Reads...)
			return false
		}
		return true
	})
	return out
}

// FinalProjection composes every registered Select lambda into one
// lambda over the root row. It is nil when no projection was registered.
func (t *Translator) FinalProjection() (*host.Lambda, error) {
	return projection.Compose(t.lambdas)
}

// ReferencedPaths returns the minimal set of root-relative paths read by
// the final projection, in first-use order. A read of the whole row
// subsumes everything; a read of a complex member subsumes the paths
// below it.
func (t *Translator) ReferencedPaths() [][]*schema.Property {
	if len(t.stack) == 0 {
		return nil
	}
	top := t.stack[len(t.stack)-1]

	var all [][]*schema.Property
	seen := make(map[string]bool)
	for _, k := range top.keys {
		for _, r := range top.entries[k].Reads {
			if len(r) == 0 {
				return [][]*schema.Property{nil}
			}
			if rk := key(r); !seen[rk] {
				seen[rk] = true
				all = append(all, r)
			}
		}
	}

	out := all[:0:0]
	for _, r := range all {
		if !subsumed(r, all) {
			out = append(out, r)
		}
	}
	return out
}

func subsumed(r []*schema.Property, all [][]*schema.Property) bool {
	for _, other := range all {
		if len(other) >= len(r) || other[len(other)-1].Type.Kind() != schema.KindComplex {
			continue
		}
		prefix := true
		for i := range other {
			if other[i] != r[i] {
				prefix = false
				break
			}
		}
		if prefix {
			return true
		}
	}
	return false
}

// SelectColumns returns the $select list for the final projection.
func (t *Translator) SelectColumns() ([]*ir.SelectColumn, error) {
	var cols []*ir.SelectColumn
	for _, p := range t.ReferencedPaths() {
		if len(p) == 0 {
			star, err := ir.NewSelectColumn(t.root, nil, true)
			if err != nil {
				return nil, qerrors.WrapCompile(err)
			}
			cols = append(cols, star)
			continue
		}
		m, err := ir.MemberOf(p)
		if err != nil {
			return nil, qerrors.WrapCompile(err)
		}
		col, err := ir.SelectColumnOf(m, m.Type().Kind() == schema.KindComplex)
		if err != nil {
			return nil, qerrors.WrapCompile(err)
		}
		cols = append(cols, col)
	}
	return cols, nil
}
