package ir

import (
	"fmt"
	"strings"

	qerrors "github.com/conduit-lang/wirequery/internal/query/errors"
	"github.com/conduit-lang/wirequery/internal/query/schema"
)

// Function enumerates the catalog functions of the wire grammar
type Function int

const (
	FnSubstringOf Function = iota
	FnEndsWith
	FnStartsWith
	FnLength
	FnIndexOf
	FnReplace
	FnSubstring
	FnToLower
	FnToUpper
	FnTrim
	FnConcat
	FnDay
	FnHour
	FnMinute
	FnMonth
	FnSecond
	FnYear
	FnRound
	FnFloor
	FnCeiling
	FnIsOf
	FnCast
)

// FunctionNames maps functions to their wire names
var FunctionNames = map[Function]string{
	FnSubstringOf: "substringof",
	FnEndsWith:    "endswith",
	FnStartsWith:  "startswith",
	FnLength:      "length",
	FnIndexOf:     "indexof",
	FnReplace:     "replace",
	FnSubstring:   "substring",
	FnToLower:     "tolower",
	FnToUpper:     "toupper",
	FnTrim:        "trim",
	FnConcat:      "concat",
	FnDay:         "day",
	FnHour:        "hour",
	FnMinute:      "minute",
	FnMonth:       "month",
	FnSecond:      "second",
	FnYear:        "year",
	FnRound:       "round",
	FnFloor:       "floor",
	FnCeiling:     "ceiling",
	FnIsOf:        "isof",
	FnCast:        "cast",
}

var functionsByName = func() map[string]Function {
	m := make(map[string]Function, len(FunctionNames))
	for fn, name := range FunctionNames {
		m[name] = fn
	}
	return m
}()

// String returns the wire name of the function
func (f Function) String() string {
	if name, ok := FunctionNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Function(%d)", int(f))
}

// IsTypeIndexed reports whether the function takes a trailing type
// reference that determines its result (cast, isof).
func (f Function) IsTypeIndexed() bool { return f == FnCast || f == FnIsOf }

// LookupFunction finds a function by wire name, case-insensitively
func LookupFunction(name string) (Function, bool) {
	fn, ok := functionsByName[strings.ToLower(name)]
	return fn, ok
}

// Signature is one registered overload. A nil Return means the result is
// determined by the trailing type argument.
type Signature struct {
	Function Function
	Params   []*schema.Type
	Return   *schema.Type
}

// String renders the signature as name(T1, T2) T
func (s Signature) String() string {
	params := make([]string, len(s.Params))
	for i, p := range s.Params {
		if p == anyInstance {
			params[i] = "any"
		} else {
			params[i] = p.String()
		}
	}
	ret := "T"
	if s.Return != nil {
		ret = s.Return.String()
	}
	return fmt.Sprintf("%s(%s) %s", s.Function, strings.Join(params, ", "), ret)
}

// anyInstance marks a parameter accepting any instance expression.
var anyInstance = schema.NewComplex("<any>")

func sig(fn Function, ret *schema.Type, params ...*schema.Type) Signature {
	return Signature{Function: fn, Params: params, Return: ret}
}

var signatures = func() map[Function][]Signature {
	str, i32, b := schema.String, schema.Int32, schema.Boolean
	m := map[Function][]Signature{
		FnSubstringOf: {sig(FnSubstringOf, b, str, str)},
		FnEndsWith:    {sig(FnEndsWith, b, str, str)},
		FnStartsWith:  {sig(FnStartsWith, b, str, str)},
		FnLength:      {sig(FnLength, i32, str)},
		FnIndexOf:     {sig(FnIndexOf, i32, str, str)},
		FnReplace:     {sig(FnReplace, str, str, str, str)},
		FnSubstring: {
			sig(FnSubstring, str, str, i32),
			sig(FnSubstring, str, str, i32, i32),
		},
		FnToLower: {sig(FnToLower, str, str)},
		FnToUpper: {sig(FnToUpper, str, str)},
		FnTrim:    {sig(FnTrim, str, str)},
		FnConcat:  {sig(FnConcat, str, str, str)},
		FnIsOf: {
			sig(FnIsOf, b, schema.TypeRef),
			sig(FnIsOf, b, anyInstance, schema.TypeRef),
		},
		FnCast: {
			sig(FnCast, nil, schema.TypeRef),
			sig(FnCast, nil, anyInstance, schema.TypeRef),
		},
	}
	for _, fn := range []Function{FnDay, FnHour, FnMinute, FnMonth, FnSecond, FnYear} {
		m[fn] = []Signature{
			sig(fn, i32, schema.DateTime),
			sig(fn, i32, schema.DateTimeOffset),
		}
	}
	for _, fn := range []Function{FnRound, FnFloor, FnCeiling} {
		m[fn] = []Signature{
			sig(fn, schema.Double, schema.Double),
			sig(fn, schema.Decimal, schema.Decimal),
		}
	}
	return m
}()

// Signatures returns the registered overloads of fn
func Signatures(fn Function) []Signature {
	out := make([]Signature, len(signatures[fn]))
	copy(out, signatures[fn])
	return out
}

func paramRank(arg, param *schema.Type) int {
	if param == anyInstance {
		if arg.Kind() == schema.KindType || arg.Kind() == schema.KindCollection {
			return -1
		}
		return 0
	}
	return schema.ConversionRank(arg, param)
}

// Resolve picks the overload of fn for the argument types. A candidate
// scores 0 when every argument matches exactly and 1 when some argument
// needs an implicit conversion. The unique lowest score wins.
func Resolve(fn Function, args []*schema.Type) (Signature, error) {
	best := -1
	var winners []Signature

	for _, s := range signatures[fn] {
		if len(s.Params) != len(args) {
			continue
		}
		score := 0
		for i, p := range s.Params {
			r := paramRank(args[i], p)
			if r < 0 {
				score = -1
				break
			}
			if r > score {
				score = r
			}
		}
		switch {
		case score < 0:
			continue
		case best < 0 || score < best:
			best = score
			winners = []Signature{s}
		case score == best:
			winners = append(winners, s)
		}
	}

	switch len(winners) {
	case 0:
		return Signature{}, fmt.Errorf("%w: %s(%s)", qerrors.ErrNoMatch, fn, typeList(args))
	case 1:
		return winners[0], nil
	default:
		return Signature{}, fmt.Errorf("%w: %s(%s) matches %d overloads",
			qerrors.ErrAmbiguous, fn, typeList(args), len(winners))
	}
}

func typeList(types []*schema.Type) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	return strings.Join(names, ", ")
}

// NewCall resolves the overload of fn and builds the call, converting
// arguments that matched through an implicit conversion.
func NewCall(fn Function, args []Node) (*Call, error) {
	types := make([]*schema.Type, len(args))
	for i, a := range args {
		if a == nil {
			return nil, fmt.Errorf("%w: %s argument %d is missing", qerrors.ErrNoMatch, fn, i)
		}
		types[i] = a.Type()
	}

	s, err := Resolve(fn, types)
	if err != nil {
		return nil, err
	}

	converted := make([]Node, len(args))
	for i, a := range args {
		p := s.Params[i]
		if p == anyInstance || a.Type().Equal(p) {
			converted[i] = a
			continue
		}
		converted[i] = &Convert{operand: a, typ: p}
	}

	ret := s.Return
	if fn.IsTypeIndexed() {
		target, err := typeArgument(fn, converted)
		if err != nil {
			return nil, err
		}
		if fn == FnCast {
			ret = target
		} else {
			ret = schema.Boolean
		}
	}
	return &Call{fn: fn, args: converted, typ: ret}, nil
}

func typeArgument(fn Function, args []Node) (*schema.Type, error) {
	last, ok := args[len(args)-1].(*Constant)
	if !ok {
		return nil, fmt.Errorf("%w: %s requires a type literal as its last argument", qerrors.ErrNoMatch, fn)
	}
	target, _ := last.Value().(*schema.Type)
	if target == nil {
		return nil, fmt.Errorf("%w: %s requires a type literal as its last argument", qerrors.ErrNoMatch, fn)
	}
	if fn == FnCast && len(args) == 2 {
		from := args[0].Type()
		if !schema.ExplicitlyConvertible(from, target) && !target.IsAssignableFrom(from) {
			return nil, fmt.Errorf("%w: cannot cast %s to %s", qerrors.ErrInvalidConversion, from, target)
		}
	}
	return target, nil
}

// TypeLiteral builds the type-reference constant used by cast and isof.
func TypeLiteral(t *schema.Type) *Constant {
	return &Constant{value: t, typ: schema.TypeRef}
}
