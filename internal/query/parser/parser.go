// Package parser implements the wire-grammar parser. It turns the token
// stream of a $filter, $orderby or $select value into typed IR using
// recursive descent with one generic loop per binary precedence tier.
package parser

import (
	"fmt"

	qerrors "github.com/conduit-lang/wirequery/internal/query/errors"
	"github.com/conduit-lang/wirequery/internal/query/ir"
	"github.com/conduit-lang/wirequery/internal/query/lexer"
	"github.com/conduit-lang/wirequery/internal/query/schema"
)

// Parser transforms a token stream into IR rooted at one element type
type Parser struct {
	tokens   []lexer.Token
	current  int
	root     *schema.Type
	registry *schema.Registry
}

// Option configures a Parser
type Option func(*Parser)

// WithRegistry resolves non-primitive type names in cast and isof
func WithRegistry(r *schema.Registry) Option {
	return func(p *Parser) { p.registry = r }
}

// New creates a parser for tokens produced by the lexer. The stream must
// end with a TOKEN_EOF token.
func New(root *schema.Type, tokens []lexer.Token, opts ...Option) *Parser {
	p := &Parser{tokens: tokens, root: root}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func newFromText(root *schema.Type, text string, opts []Option) (*Parser, error) {
	tokens, err := lexer.Tokenize(text)
	if err != nil {
		return nil, err
	}
	return New(root, tokens, opts...), nil
}

// Parse parses a $filter value into a query over root
func Parse(root *schema.Type, text string, opts ...Option) (*ir.Query, error) {
	filter, err := ParseFilter(root, text, opts...)
	if err != nil {
		return nil, err
	}
	return ir.NewQuery(root, ir.WithFilter(filter))
}

// ParseFilter parses a boolean predicate over root
func ParseFilter(root *schema.Type, text string, opts ...Option) (ir.Node, error) {
	p, err := newFromText(root, text, opts)
	if err != nil {
		return nil, err
	}
	start := p.peek()
	expr, err := p.ParseExpression()
	if err != nil {
		return nil, err
	}
	if err := p.expectEnd(); err != nil {
		return nil, err
	}
	if expr.Type().NonNullable() != schema.Boolean {
		return nil, qerrors.NewParseError(qerrors.ErrInvalidExpression, start.Pos, start.Lexeme,
			fmt.Sprintf("filter must be %s, got %s", schema.Boolean, expr.Type()))
	}
	return expr, nil
}

// ParseSortKeys parses a comma-separated $orderby value. Empty text
// yields no keys.
func ParseSortKeys(root *schema.Type, text string, opts ...Option) ([]*ir.SortKey, error) {
	p, err := newFromText(root, text, opts)
	if err != nil {
		return nil, err
	}
	var keys []*ir.SortKey
	for !p.isAtEnd() {
		if len(keys) > 0 {
			if _, err := p.consume(lexer.TOKEN_COMMA, "expected ',' between sort keys"); err != nil {
				return nil, err
			}
		}
		key, err := p.parseSortKey()
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// ParseSelectColumns parses a comma-separated $select value. Empty text
// yields no columns.
func ParseSelectColumns(root *schema.Type, text string, opts ...Option) ([]*ir.SelectColumn, error) {
	p, err := newFromText(root, text, opts)
	if err != nil {
		return nil, err
	}
	var cols []*ir.SelectColumn
	for !p.isAtEnd() {
		if len(cols) > 0 {
			if _, err := p.consume(lexer.TOKEN_COMMA, "expected ',' between select columns"); err != nil {
				return nil, err
			}
		}
		col, err := p.parseSelectColumn()
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	return cols, nil
}

// parseSortKey parses expression [asc|desc]
func (p *Parser) parseSortKey() (*ir.SortKey, error) {
	start := p.peek()
	expr, err := p.ParseExpression()
	if err != nil {
		return nil, err
	}
	desc := false
	if p.match(lexer.TOKEN_DESC) {
		desc = true
	} else {
		p.match(lexer.TOKEN_ASC)
	}
	key, err := ir.NewSortKey(expr, desc)
	if err != nil {
		return nil, qerrors.WrapParse(err, start.Pos, start.Lexeme)
	}
	return key, nil
}

// parseSelectColumn parses "*", a member path, or a member path ending
// in "/*"
func (p *Parser) parseSelectColumn() (*ir.SelectColumn, error) {
	start := p.peek()
	if p.match(lexer.TOKEN_STAR) {
		return ir.NewSelectColumn(p.root, nil, true)
	}

	name, err := p.consume(lexer.TOKEN_IDENTIFIER, "expected a property name or '*'")
	if err != nil {
		return nil, err
	}
	names := []string{name.Lexeme}
	wildcard := false
	for p.match(lexer.TOKEN_SLASH) {
		if p.match(lexer.TOKEN_STAR) {
			wildcard = true
			break
		}
		next, err := p.consume(lexer.TOKEN_IDENTIFIER, "expected a property name or '*' after '/'")
		if err != nil {
			return nil, err
		}
		names = append(names, next.Lexeme)
	}

	col, err := ir.NewSelectColumn(p.root, names, wildcard)
	if err != nil {
		return nil, qerrors.WrapParse(err, start.Pos, start.Lexeme)
	}
	return col, nil
}

// Token stream navigation

// peek returns the current token without advancing
func (p *Parser) peek() lexer.Token {
	return p.peekAt(0)
}

// peekAt returns the token offset positions ahead, or EOF past the end
func (p *Parser) peekAt(offset int) lexer.Token {
	i := p.current + offset
	if i >= len(p.tokens) {
		if len(p.tokens) == 0 {
			return lexer.Token{Type: lexer.TOKEN_EOF}
		}
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[i]
}

// previous returns the most recently consumed token
func (p *Parser) previous() lexer.Token {
	if p.current == 0 || len(p.tokens) == 0 {
		return lexer.Token{Type: lexer.TOKEN_EOF}
	}
	return p.tokens[p.current-1]
}

// advance consumes the current token and returns it
func (p *Parser) advance() lexer.Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

// check returns true if the current token matches the given type
func (p *Parser) check(tokenType lexer.TokenType) bool {
	return p.peek().Type == tokenType
}

// match consumes the token if it matches any of the given types
func (p *Parser) match(types ...lexer.TokenType) bool {
	for _, t := range types {
		if p.check(t) && t != lexer.TOKEN_EOF {
			p.advance()
			return true
		}
	}
	return false
}

// consume advances if the next token matches, otherwise returns an error
func (p *Parser) consume(tokenType lexer.TokenType, message string) (lexer.Token, error) {
	if p.check(tokenType) {
		return p.advance(), nil
	}
	return lexer.Token{}, p.unexpected(message)
}

// isAtEnd returns true if we've reached the end of the token stream
func (p *Parser) isAtEnd() bool {
	return p.peek().Type == lexer.TOKEN_EOF
}

func (p *Parser) expectEnd() error {
	if !p.isAtEnd() {
		return p.unexpected("expected end of expression")
	}
	return nil
}

// unexpected reports the current token as out of place
func (p *Parser) unexpected(message string) *qerrors.ParseError {
	tok := p.peek()
	if tok.Type == lexer.TOKEN_EOF {
		return qerrors.NewParseError(qerrors.ErrUnexpectedToken, tok.Pos, "",
			message+", got end of input")
	}
	return qerrors.NewParseError(qerrors.ErrUnexpectedToken, tok.Pos, tok.Lexeme,
		fmt.Sprintf("%s, got %s", message, tok.Type))
}
