// Package lexer tokenizes wire-grammar expressions ($filter, $orderby and
// $select values) into a stream of tokens for the parser.
package lexer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"

	qerrors "github.com/conduit-lang/wirequery/internal/query/errors"
)

// rule is one entry of the literal grammar table. guarded rules only match
// when the next character is not a word character, so that "eqx" stays an
// identifier and "1.5fx" is rejected instead of splitting.
type rule struct {
	typ     TokenType
	re      *regexp.Regexp
	guarded bool
	decode  func(m []string) (any, error)
}

func newRule(typ TokenType, pattern string, guarded bool, decode func(m []string) (any, error)) rule {
	return rule{typ: typ, re: regexp.MustCompile(`^(?:` + pattern + `)`), guarded: guarded, decode: decode}
}

func keyword(typ TokenType, word string) rule {
	return newRule(typ, regexp.QuoteMeta(word), true, nil)
}

func punct(typ TokenType, char string) rule {
	return newRule(typ, regexp.QuoteMeta(char), false, nil)
}

// rules is tried in order; the first match wins. The suffixed numeric
// forms come before double and int32 because their prefixes overlap.
var rules = []rule{
	newRule(TOKEN_NULL, `null`, true, func([]string) (any, error) { return nil, nil }),
	newRule(TOKEN_BINARY, `(?:binary|X)'[0-9A-Fa-f]*'`, false, decodeBinary),
	newRule(TOKEN_BOOLEAN, `true|false`, true, func(m []string) (any, error) { return m[0] == "true", nil }),
	newRule(TOKEN_DATETIME, `datetime'([^']*)'`, false, decodeDateTime),
	newRule(TOKEN_DATETIMEOFFSET, `datetimeoffset'([^']*)'`, false, decodeDateTimeOffset),
	newRule(TOKEN_TIME, `time'([^']*)'`, false, decodeTime),
	newRule(TOKEN_INT64, `(-?\d+)[Ll]`, true, decodeInt64),
	newRule(TOKEN_DECIMAL, `(-?\d+(?:\.\d+)?)[Mm]`, true, decodeDecimal),
	newRule(TOKEN_SINGLE, `(-?\d+(?:\.\d+)?(?:[eE][+-]?\d+)?)[fF]`, true, decodeSingle),
	newRule(TOKEN_DOUBLE, `-?(?:\d+\.\d+(?:[eE][+-]?\d+)?|\d+[eE][+-]?\d+)`, true, decodeDouble),
	newRule(TOKEN_INT32, `-?\d+`, true, decodeInt32),
	newRule(TOKEN_GUID, `guid'([^']*)'`, false, decodeGuid),
	newRule(TOKEN_STRING, `'((?:[^']|'')*)'`, false, decodeString),

	keyword(TOKEN_EQ, "eq"),
	keyword(TOKEN_NE, "ne"),
	keyword(TOKEN_GT, "gt"),
	keyword(TOKEN_GE, "ge"),
	keyword(TOKEN_LT, "lt"),
	keyword(TOKEN_LE, "le"),
	keyword(TOKEN_AND, "and"),
	keyword(TOKEN_OR, "or"),
	keyword(TOKEN_NOT, "not"),
	keyword(TOKEN_ADD, "add"),
	keyword(TOKEN_SUB, "sub"),
	keyword(TOKEN_MUL, "mul"),
	keyword(TOKEN_DIV, "div"),
	keyword(TOKEN_MOD, "mod"),
	keyword(TOKEN_ASC, "asc"),
	keyword(TOKEN_DESC, "desc"),

	punct(TOKEN_LPAREN, "("),
	punct(TOKEN_RPAREN, ")"),
	punct(TOKEN_COMMA, ","),
	punct(TOKEN_SLASH, "/"),
	punct(TOKEN_STAR, "*"),

	newRule(TOKEN_IDENTIFIER, `[A-Za-z_][A-Za-z0-9_]*`, false, nil),
	newRule(TOKEN_WHITESPACE, `\s+`, false, nil),
	newRule(TOKEN_ERROR, `(?s).`, false, nil),
}

// Lexer tokenizes one wire-grammar expression.
//
// Lexer instances are not safe for concurrent use; create one per input.
type Lexer struct {
	source string
	pos    int
	tokens []Token
}

// New creates a new Lexer for the given input
func New(source string) *Lexer {
	return &Lexer{source: source}
}

// Tokenize is a shorthand for New(source).ScanTokens()
func Tokenize(source string) ([]Token, error) {
	return New(source).ScanTokens()
}

// ScanTokens tokenizes the whole input. Whitespace is dropped and the
// stream always ends with a TOKEN_EOF token. The first lexical error stops
// scanning and is returned as a *errors.ParseError.
func (l *Lexer) ScanTokens() ([]Token, error) {
	for l.pos < len(l.source) {
		tok, err := l.scanToken()
		if err != nil {
			return nil, err
		}
		if tok.Type != TOKEN_WHITESPACE {
			l.tokens = append(l.tokens, tok)
		}
		l.pos += len(tok.Lexeme)
	}

	l.tokens = append(l.tokens, Token{Type: TOKEN_EOF, Pos: len(l.source)})
	return l.tokens, nil
}

func (l *Lexer) scanToken() (Token, error) {
	rest := l.source[l.pos:]
	for _, r := range rules {
		m := r.re.FindStringSubmatch(rest)
		if m == nil {
			continue
		}
		if r.guarded && len(m[0]) < len(rest) && isWordChar(rest[len(m[0])]) {
			continue
		}

		tok := Token{Type: r.typ, Lexeme: m[0], Pos: l.pos}
		switch {
		case r.typ == TOKEN_ERROR:
			return tok, l.errorFor(m[0])
		case r.decode != nil:
			v, err := r.decode(m)
			if err != nil {
				code := qerrors.ErrMalformedLiteral
				if r.typ == TOKEN_BINARY {
					code = qerrors.ErrUnsupportedLiteral
				}
				pe := qerrors.NewParseError(code, l.pos, m[0], err.Error())
				pe.Err = err
				return tok, pe
			}
			tok.Literal = v
		}
		return tok, nil
	}
	// unreachable: the catch-all rule matches any character
	return Token{}, qerrors.NewParseError(qerrors.ErrUnknownToken, l.pos, rest, "unexpected input")
}

func (l *Lexer) errorFor(char string) error {
	if char == "'" {
		return qerrors.NewParseError(qerrors.ErrUnknownToken, l.pos, char, "unterminated string literal")
	}
	return qerrors.NewParseError(qerrors.ErrUnknownToken, l.pos, char, fmt.Sprintf("unexpected character %q", char))
}

func isWordChar(c byte) bool {
	return c == '_' || ('0' <= c && c <= '9') || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func decodeBinary([]string) (any, error) {
	return nil, fmt.Errorf("binary literals are not supported")
}

// Typed literal rules match any quoted body so that a malformed body is
// reported as such; these patterns then check the body itself.
var (
	dateTimeBody = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}(?::\d{2}(?:\.\d{1,7})?)?$`)
	guidBody     = regexp.MustCompile(`^[0-9A-Fa-f]{8}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{12}$`)
)

func decodeDateTime(m []string) (any, error) {
	if !dateTimeBody.MatchString(m[1]) {
		return nil, fmt.Errorf("invalid datetime %q, expected YYYY-MM-DDThh:mm[:ss[.fffffff]]", m[1])
	}
	layout := "2006-01-02T15:04"
	if len(m[1]) > len(layout) {
		layout = "2006-01-02T15:04:05"
	}
	t, err := time.Parse(layout, m[1])
	if err != nil {
		return nil, fmt.Errorf("invalid datetime: %w", err)
	}
	return t, nil
}

func decodeDateTimeOffset(m []string) (any, error) {
	t, err := time.Parse(time.RFC3339Nano, m[1])
	if err != nil {
		return nil, fmt.Errorf("invalid datetimeoffset: %w", err)
	}
	return t, nil
}

func decodeTime(m []string) (any, error) {
	return ParseDuration(m[1])
}

func decodeInt64(m []string) (any, error) {
	v, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid int64: %w", err)
	}
	return v, nil
}

func decodeInt32(m []string) (any, error) {
	v, err := strconv.ParseInt(m[0], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid int32: %w", err)
	}
	return int32(v), nil
}

func decodeDecimal(m []string) (any, error) {
	d, _, err := apd.NewFromString(m[1])
	if err != nil {
		return nil, fmt.Errorf("invalid decimal: %w", err)
	}
	return d, nil
}

func decodeSingle(m []string) (any, error) {
	v, err := strconv.ParseFloat(m[1], 32)
	if err != nil {
		return nil, fmt.Errorf("invalid single: %w", err)
	}
	return float32(v), nil
}

func decodeDouble(m []string) (any, error) {
	v, err := strconv.ParseFloat(m[0], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid double: %w", err)
	}
	return v, nil
}

func decodeGuid(m []string) (any, error) {
	if !guidBody.MatchString(m[1]) {
		return nil, fmt.Errorf("invalid guid %q", m[1])
	}
	return uuid.Parse(m[1])
}

func decodeString(m []string) (any, error) {
	return strings.ReplaceAll(m[1], "''", "'"), nil
}

var durationPattern = regexp.MustCompile(`^(-)?P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)(?:\.(\d{1,9}))?S)?)?$`)

// ParseDuration parses an ISO 8601 day-time duration such as P1DT2H3M4.5S.
func ParseDuration(s string) (time.Duration, error) {
	m := durationPattern.FindStringSubmatch(s)
	if m == nil || s == "P" || s == "-P" || strings.HasSuffix(s, "T") {
		return 0, fmt.Errorf("invalid duration %q", s)
	}

	var d time.Duration
	units := []time.Duration{24 * time.Hour, time.Hour, time.Minute, time.Second}
	for i, unit := range units {
		if m[i+2] == "" {
			continue
		}
		n, err := strconv.ParseInt(m[i+2], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", s, err)
		}
		d += time.Duration(n) * unit
	}
	if frac := m[6]; frac != "" {
		nanos, _ := strconv.ParseInt(frac+strings.Repeat("0", 9-len(frac)), 10, 64)
		d += time.Duration(nanos)
	}
	if m[1] == "-" {
		d = -d
	}
	return d, nil
}
