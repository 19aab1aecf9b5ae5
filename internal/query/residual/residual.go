// Package residual compiles the client-side part of a query (the composed
// projection) into an expr-lang program that runs over materialized rows.
//
// Rows are map[string]any keyed by property name; complex members are
// nested maps. The projection parameter is bound to the variable "it" and
// every host constant is passed as a variable rather than spliced into the
// program text.
package residual

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/google/uuid"
	"github.com/spf13/cast"

	qerrors "github.com/conduit-lang/wirequery/internal/query/errors"
	"github.com/conduit-lang/wirequery/internal/query/host"
	"github.com/conduit-lang/wirequery/internal/query/schema"
)

// Program is a compiled projection
type Program struct {
	source  string
	consts  map[string]any
	program *vm.Program
}

// Source returns the expr-lang text of the program
func (p *Program) Source() string { return p.source }

// Run evaluates the projection for one row
func (p *Program) Run(row map[string]any) (any, error) {
	env := make(map[string]any, len(p.consts)+1)
	for k, v := range p.consts {
		env[k] = v
	}
	env["it"] = row
	out, err := expr.Run(p.program, env)
	if err != nil {
		return nil, fmt.Errorf("evaluating projection %s: %w", p.source, err)
	}
	return out, nil
}

// Compile translates l into an expr-lang program.
func Compile(l *host.Lambda) (*Program, error) {
	g := &generator{param: l.Param(), consts: make(map[string]any)}
	var sb strings.Builder
	if err := g.gen(&sb, l.Body()); err != nil {
		return nil, err
	}
	src := sb.String()

	program, err := expr.Compile(src,
		expr.Function("substring", substring),
		expr.Function("datepart", datepart),
		expr.Function("idiv", idiv),
		expr.AllowUndefinedVariables(),
	)
	if err != nil {
		return nil, qerrors.Compilef(qerrors.ErrUnsupportedConstruct, "projection %s: %v", src, err)
	}
	return &Program{source: src, consts: g.consts, program: program}, nil
}

type generator struct {
	param  *host.Parameter
	consts map[string]any
}

func (g *generator) constant(v any) string {
	name := "_c" + strconv.Itoa(len(g.consts))
	g.consts[name] = runtimeValue(v)
	return name
}

// runtimeValue maps IR constant representations to the shapes rows
// carry after JSON decoding.
func runtimeValue(v any) any {
	switch x := v.(type) {
	case *apd.Decimal:
		f, err := x.Float64()
		if err != nil {
			return x.String()
		}
		return f
	case uuid.UUID:
		return x.String()
	case int8, int16, int32, uint8:
		return cast.ToInt(x)
	case float32:
		return float64(x)
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = runtimeValue(item)
		}
		return out
	}
	return v
}

var binaryOps = map[host.BinaryOp]string{
	host.OpAdd:                "+",
	host.OpSubtract:           "-",
	host.OpMultiply:           "*",
	host.OpDivide:             "/",
	host.OpModulo:             "%",
	host.OpEqual:              "==",
	host.OpNotEqual:           "!=",
	host.OpLessThan:           "<",
	host.OpLessThanOrEqual:    "<=",
	host.OpGreaterThan:        ">",
	host.OpGreaterThanOrEqual: ">=",
	host.OpAndAlso:            "&&",
	host.OpOrElse:             "||",
	host.OpAnd:                "&&",
	host.OpOr:                 "||",
	host.OpCoalesce:           "??",
}

// simple string methods map onto expr-lang builtins taking the receiver
// as their first argument
var builtins = map[string]string{
	"StartsWith": "hasPrefix",
	"EndsWith":   "hasSuffix",
	"IndexOf":    "indexOf",
	"Replace":    "replace",
	"Substring":  "substring",
	"ToLower":    "lower",
	"ToUpper":    "upper",
	"Trim":       "trim",
	"Round":      "round",
	"Floor":      "floor",
	"Ceiling":    "ceil",
}

func (g *generator) gen(sb *strings.Builder, e host.Expr) error {
	switch x := e.(type) {
	case *host.Parameter:
		if x != g.param {
			return unsupported(e)
		}
		sb.WriteString("it")
	case *host.Constant:
		if _, ok := x.Source(); ok {
			return qerrors.Compilef(qerrors.ErrNestedQuery, "nested query structures are not supported")
		}
		sb.WriteString(g.constant(x.Value()))
	case *host.Member:
		return g.member(sb, x)
	case *host.Binary:
		if x.Op() == host.OpDivide && integral(x.Left()) && integral(x.Right()) {
			return g.join(sb, "idiv(", ", ", ")", x.Left(), x.Right())
		}
		op, ok := binaryOps[x.Op()]
		if !ok {
			return unsupported(e)
		}
		return g.join(sb, "(", " "+op+" ", ")", x.Left(), x.Right())
	case *host.Unary:
		if x.Op() == host.OpNot {
			return g.join(sb, "!(", "", ")", x.Operand())
		}
		return g.join(sb, "-(", "", ")", x.Operand())
	case *host.Convert:
		return g.convert(sb, x)
	case *host.Call:
		return g.call(sb, x)
	case *host.Condition:
		return g.join(sb, "(", "", ")", x.Test(), x.IfTrue(), x.IfFalse())
	case *host.New:
		sb.WriteByte('{')
		for i, f := range x.Fields() {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(strconv.Quote(f.Name) + ": ")
			if err := g.gen(sb, f.Value); err != nil {
				return err
			}
		}
		sb.WriteByte('}')
	default:
		return unsupported(e)
	}
	return nil
}

// join writes open, the operands separated by sep, and close. A
// three-operand join with an empty separator is the ternary.
func (g *generator) join(sb *strings.Builder, open, sep, close string, operands ...host.Expr) error {
	sb.WriteString(open)
	for i, o := range operands {
		if i > 0 {
			switch {
			case sep != "":
				sb.WriteString(sep)
			case i == 1:
				sb.WriteString(" ? ")
			default:
				sb.WriteString(" : ")
			}
		}
		if err := g.gen(sb, o); err != nil {
			return err
		}
	}
	sb.WriteString(close)
	return nil
}

func (g *generator) member(sb *strings.Builder, m *host.Member) error {
	if !host.IsSpecialMember(m) {
		if err := g.gen(sb, m.Instance()); err != nil {
			return err
		}
		sb.WriteString("?." + m.Name())
		return nil
	}

	switch name := m.Name(); name {
	case "Length":
		return g.join(sb, "len(", "", ")", m.Instance())
	case "HasValue":
		return g.join(sb, "(", "", " != nil)", m.Instance())
	case "Value":
		return g.gen(sb, m.Instance())
	default:
		sb.WriteString("datepart(" + strconv.Quote(name) + ", ")
		if err := g.gen(sb, m.Instance()); err != nil {
			return err
		}
		sb.WriteByte(')')
	}
	return nil
}

func (g *generator) convert(sb *strings.Builder, c *host.Convert) error {
	target := c.Type()
	if target.IsNullable() || target.NonNullable().Equal(c.Operand().Type().NonNullable()) {
		return g.gen(sb, c.Operand())
	}
	switch {
	case target.Kind().IsIntegral():
		return g.join(sb, "int(", "", ")", c.Operand())
	case target.IsNumeric():
		return g.join(sb, "float(", "", ")", c.Operand())
	case target.Kind() == schema.KindString:
		return g.join(sb, "string(", "", ")", c.Operand())
	}
	return g.gen(sb, c.Operand())
}

func (g *generator) call(sb *strings.Builder, c *host.Call) error {
	args := c.Args()
	if recv := c.Receiver(); recv != nil {
		args = append([]host.Expr{recv}, args...)
	}

	switch c.Method() {
	case "Contains":
		return g.join(sb, "(", " contains ", ")", args...)
	case "Concat":
		return g.join(sb, "(", " + ", ")", args...)
	case "ArrayContains":
		return g.join(sb, "(", " in ", ")", args[1], args[0])
	}

	fn, ok := builtins[c.Method()]
	if !ok {
		return unsupported(c)
	}
	sb.WriteString(fn + "(")
	for i, a := range args {
		if i > 0 {
			sb.WriteString(", ")
		}
		if err := g.gen(sb, a); err != nil {
			return err
		}
	}
	sb.WriteByte(')')
	return nil
}

func integral(e host.Expr) bool {
	return e.Type().Kind().IsIntegral()
}

// idiv divides integers truncating toward zero; expr-lang's "/" always
// yields a float.
func idiv(params ...any) (any, error) {
	if len(params) != 2 {
		return nil, fmt.Errorf("idiv takes 2 arguments, got %d", len(params))
	}
	if params[0] == nil || params[1] == nil {
		return nil, nil
	}
	a, err := cast.ToInt64E(params[0])
	if err != nil {
		return nil, err
	}
	b, err := cast.ToInt64E(params[1])
	if err != nil {
		return nil, err
	}
	if b == 0 {
		return nil, fmt.Errorf("integer division by zero")
	}
	return int(a / b), nil
}

func unsupported(e host.Expr) error {
	return qerrors.Compilef(qerrors.ErrUnsupportedConstruct,
		"%s %s cannot be evaluated client-side", e.Kind(), host.Format(e))
}

func substring(params ...any) (any, error) {
	if len(params) < 2 || len(params) > 3 {
		return nil, fmt.Errorf("substring takes 2 or 3 arguments, got %d", len(params))
	}
	s, err := cast.ToStringE(params[0])
	if err != nil {
		return nil, err
	}
	start, err := cast.ToIntE(params[1])
	if err != nil {
		return nil, err
	}
	runes := []rune(s)
	if start < 0 || start > len(runes) {
		return nil, fmt.Errorf("substring start %d out of range", start)
	}
	end := len(runes)
	if len(params) == 3 {
		n, err := cast.ToIntE(params[2])
		if err != nil {
			return nil, err
		}
		if n < 0 || start+n > len(runes) {
			return nil, fmt.Errorf("substring length %d out of range", n)
		}
		end = start + n
	}
	return string(runes[start:end]), nil
}

func datepart(params ...any) (any, error) {
	if len(params) != 2 {
		return nil, fmt.Errorf("datepart takes 2 arguments, got %d", len(params))
	}
	part, _ := params[0].(string)
	t, err := cast.ToTimeE(params[1])
	if err != nil {
		return nil, err
	}
	switch part {
	case "Year":
		return t.Year(), nil
	case "Month":
		return int(t.Month()), nil
	case "Day":
		return t.Day(), nil
	case "Hour":
		return t.Hour(), nil
	case "Minute":
		return t.Minute(), nil
	case "Second":
		return t.Second(), nil
	}
	return nil, fmt.Errorf("unknown date part %q", part)
}
