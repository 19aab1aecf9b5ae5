package host

import (
	"fmt"
	"strconv"
	"strings"
)

// Format renders a host tree in a compact C#-like notation, for logs and
// error messages.
func Format(e Expr) string {
	var sb strings.Builder
	format(&sb, e)
	return sb.String()
}

func format(sb *strings.Builder, e Expr) {
	switch x := e.(type) {
	case nil:
		sb.WriteString("<nil>")
	case *Parameter:
		sb.WriteString(x.name)
	case *Constant:
		switch v := x.value.(type) {
		case *Source:
			sb.WriteString(v.name)
		case string:
			sb.WriteString(strconv.Quote(v))
		case nil:
			sb.WriteString("null")
		case []any:
			sb.WriteByte('[')
			for i, item := range v {
				if i > 0 {
					sb.WriteString(", ")
				}
				fmt.Fprint(sb, item)
			}
			sb.WriteByte(']')
		default:
			fmt.Fprint(sb, v)
		}
	case *Member:
		format(sb, x.instance)
		sb.WriteByte('.')
		sb.WriteString(x.prop.Name)
	case *Binary:
		sb.WriteByte('(')
		format(sb, x.left)
		sb.WriteString(" " + x.op.String() + " ")
		format(sb, x.right)
		sb.WriteByte(')')
	case *Unary:
		sb.WriteString(x.op.String())
		format(sb, x.operand)
	case *Convert:
		sb.WriteString("Convert(")
		format(sb, x.operand)
		sb.WriteString(", " + x.typ.String() + ")")
	case *Call:
		if x.receiver != nil {
			format(sb, x.receiver)
			sb.WriteByte('.')
		}
		sb.WriteString(x.method)
		formatArgs(sb, x.args)
	case *Condition:
		sb.WriteByte('(')
		format(sb, x.test)
		sb.WriteString(" ? ")
		format(sb, x.ifTrue)
		sb.WriteString(" : ")
		format(sb, x.ifFalse)
		sb.WriteByte(')')
	case *Lambda:
		sb.WriteString(x.param.name + " => ")
		format(sb, x.body)
	case *New:
		sb.WriteString("new {")
		for i, f := range x.fields {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(" " + f.Name + " = ")
			format(sb, f.Value)
		}
		sb.WriteString(" }")
	case *QueryCall:
		format(sb, x.source)
		sb.WriteString("." + x.op.String())
		formatArgs(sb, x.args)
	default:
		fmt.Fprintf(sb, "<%T>", e)
	}
}

func formatArgs(sb *strings.Builder, args []Expr) {
	sb.WriteByte('(')
	for i, a := range args {
		if i > 0 {
			sb.WriteString(", ")
		}
		format(sb, a)
	}
	sb.WriteByte(')')
}
