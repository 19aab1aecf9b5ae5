package ir

import (
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"

	"github.com/conduit-lang/wirequery/internal/query/schema"
)

// Wire layouts for date literals. DateTimeLayoutSeconds is used whenever
// the value has a non-zero second or fraction.
const (
	DateTimeLayout        = "2006-01-02T15:04"
	DateTimeLayoutSeconds = "2006-01-02T15:04:05.9999999"

	// DateTimeTick is the finest datetime literal precision
	DateTimeTick = 100 * time.Nanosecond
)

// Render writes n in the wire grammar. Filters, sort keys and select
// columns render as the text of their query option; a Query renders as
// its unescaped option string.
func Render(n Node) string {
	var sb strings.Builder
	render(&sb, n)
	return sb.String()
}

func render(sb *strings.Builder, n Node) {
	switch x := n.(type) {
	case nil:
		return
	case *Binary:
		operand(sb, x.left)
		sb.WriteByte(' ')
		sb.WriteString(x.op.String())
		sb.WriteByte(' ')
		operand(sb, x.right)
	case *Unary:
		sb.WriteString(x.op.String())
		sb.WriteByte(' ')
		operand(sb, x.operand)
	case *Call:
		sb.WriteString(x.fn.String())
		sb.WriteByte('(')
		for i, a := range x.args {
			if i > 0 {
				sb.WriteString(", ")
			}
			render(sb, a)
		}
		sb.WriteByte(')')
	case *Constant:
		sb.WriteString(FormatLiteral(x.value, x.typ))
	case *Member:
		for i, p := range x.Path() {
			if i > 0 {
				sb.WriteByte('/')
			}
			sb.WriteString(p.Name)
		}
	case *Convert:
		if x.Implicit() {
			render(sb, x.operand)
			return
		}
		sb.WriteString(FnCast.String())
		sb.WriteByte('(')
		render(sb, x.operand)
		sb.WriteString(", ")
		sb.WriteString(FormatLiteral(x.typ.NonNullable(), schema.TypeRef))
		sb.WriteByte(')')
	case *SortKey:
		render(sb, x.expr)
		if x.descending {
			sb.WriteString(" desc")
		}
	case *SelectColumn:
		for i, p := range x.path {
			if i > 0 {
				sb.WriteByte('/')
			}
			sb.WriteString(p.Name)
		}
		if x.wildcard {
			if len(x.path) > 0 {
				sb.WriteByte('/')
			}
			sb.WriteByte('*')
		}
	case *Query:
		for i, p := range Params(x) {
			if i > 0 {
				sb.WriteByte('&')
			}
			sb.WriteString(p.Name)
			sb.WriteByte('=')
			sb.WriteString(p.Value)
		}
	}
}

// operand renders a child of an operator, parenthesizing nested operator
// applications. Implicit conversions are looked through.
func operand(sb *strings.Builder, n Node) {
	inner := n
	for {
		c, ok := inner.(*Convert)
		if !ok || !c.Implicit() {
			break
		}
		inner = c.operand
	}
	switch inner.(type) {
	case *Binary, *Unary:
		sb.WriteByte('(')
		render(sb, inner)
		sb.WriteByte(')')
	default:
		render(sb, inner)
	}
}

// RenderSortKeys renders a $orderby value
func RenderSortKeys(keys []*SortKey) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = Render(k)
	}
	return strings.Join(parts, ",")
}

// RenderSelect renders a $select value
func RenderSelect(cols []*SelectColumn) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = Render(c)
	}
	return strings.Join(parts, ",")
}

// Param is one rendered query option.
type Param struct {
	Name  string
	Value string
}

// Params returns the query options of q in wire order, omitting options
// that hold their default value.
func Params(q *Query) []Param {
	var out []Param
	if q.filter != nil {
		out = append(out, Param{"$filter", Render(q.filter)})
	}
	if len(q.orderBy) > 0 {
		out = append(out, Param{"$orderby", RenderSortKeys(q.orderBy)})
	}
	if q.top != nil {
		out = append(out, Param{"$top", strconv.Itoa(*q.top)})
	}
	if q.skip > 0 {
		out = append(out, Param{"$skip", strconv.Itoa(q.skip)})
	}
	if len(q.selectCols) > 0 {
		out = append(out, Param{"$select", RenderSelect(q.selectCols)})
	}
	if q.format != "" {
		out = append(out, Param{"$format", q.format})
	}
	if q.inlineCount != InlineCountNone {
		out = append(out, Param{"$inlinecount", q.inlineCount.String()})
	}
	return out
}

// FormatLiteral renders a constant value of the given type.
func FormatLiteral(value any, typ *schema.Type) string {
	if value == nil {
		return "null"
	}
	switch v := value.(type) {
	case bool:
		return strconv.FormatBool(v)
	case uint8:
		return strconv.FormatUint(uint64(v), 10)
	case int8:
		return strconv.FormatInt(int64(v), 10)
	case int16:
		return strconv.FormatInt(int64(v), 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10) + "L"
	case float32:
		return formatFloat(float64(v), 32) + "f"
	case float64:
		s := formatFloat(v, 64)
		if !strings.ContainsAny(s, ".eEIN") {
			s += ".0"
		}
		return s
	case *apd.Decimal:
		return v.Text('f') + "M"
	case uuid.UUID:
		return "guid'" + v.String() + "'"
	case time.Time:
		if typ != nil && typ.Kind() == schema.KindDateTimeOffset {
			return "datetimeoffset'" + v.Format(time.RFC3339Nano) + "'"
		}
		layout := DateTimeLayout
		if v.Second() != 0 || v.Nanosecond() != 0 {
			layout = DateTimeLayoutSeconds
		}
		return "datetime'" + v.Format(layout) + "'"
	case time.Duration:
		return "time'" + FormatDuration(v) + "'"
	case string:
		return quote(v)
	case []byte:
		return "X'" + strings.ToUpper(hex.EncodeToString(v)) + "'"
	case *schema.Type:
		return quote(v.Name())
	}
	return fmt.Sprintf("%v", value)
}

func formatFloat(f float64, bits int) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "INF"
	case math.IsInf(f, -1):
		return "-INF"
	}
	return strconv.FormatFloat(f, 'g', -1, bits)
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// FormatDuration renders d as an ISO 8601 day-time duration (PnDTnHnMn.nS).
func FormatDuration(d time.Duration) string {
	var sb strings.Builder
	if d < 0 {
		sb.WriteByte('-')
		d = -d
	}
	sb.WriteByte('P')
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	if days > 0 {
		sb.WriteString(strconv.FormatInt(int64(days), 10))
		sb.WriteByte('D')
	}
	if d == 0 {
		if days == 0 {
			sb.WriteString("T0S")
		}
		return sb.String()
	}
	sb.WriteByte('T')
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	if hours > 0 {
		sb.WriteString(strconv.FormatInt(int64(hours), 10))
		sb.WriteByte('H')
	}
	if minutes > 0 {
		sb.WriteString(strconv.FormatInt(int64(minutes), 10))
		sb.WriteByte('M')
	}
	if d > 0 {
		secs := strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
		sb.WriteString(secs)
		sb.WriteByte('S')
	}
	return sb.String()
}
