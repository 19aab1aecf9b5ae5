package parser

import (
	"fmt"

	qerrors "github.com/conduit-lang/wirequery/internal/query/errors"
	"github.com/conduit-lang/wirequery/internal/query/ir"
	"github.com/conduit-lang/wirequery/internal/query/lexer"
	"github.com/conduit-lang/wirequery/internal/query/schema"
)

// tier maps the operator tokens of one precedence level to IR operators
type tier map[lexer.TokenType]ir.BinaryOperator

// tiers lists the binary precedence levels, loosest first. Moving an
// operator between levels only touches this table.
var tiers = []tier{
	{lexer.TOKEN_OR: ir.OpOr},
	{lexer.TOKEN_AND: ir.OpAnd},
	{
		lexer.TOKEN_EQ: ir.OpEq,
		lexer.TOKEN_NE: ir.OpNe,
		lexer.TOKEN_GT: ir.OpGt,
		lexer.TOKEN_GE: ir.OpGe,
		lexer.TOKEN_LT: ir.OpLt,
		lexer.TOKEN_LE: ir.OpLe,
	},
	{
		lexer.TOKEN_ADD: ir.OpAdd,
		lexer.TOKEN_SUB: ir.OpSub,
	},
	{
		lexer.TOKEN_MUL: ir.OpMul,
		lexer.TOKEN_DIV: ir.OpDiv,
		lexer.TOKEN_MOD: ir.OpMod,
	},
}

// literalTypes gives the IR type of each literal token
var literalTypes = map[lexer.TokenType]*schema.Type{
	lexer.TOKEN_NULL:           schema.Null,
	lexer.TOKEN_BOOLEAN:        schema.Boolean,
	lexer.TOKEN_DATETIME:       schema.DateTime,
	lexer.TOKEN_DATETIMEOFFSET: schema.DateTimeOffset,
	lexer.TOKEN_TIME:           schema.Time,
	lexer.TOKEN_INT64:          schema.Int64,
	lexer.TOKEN_DECIMAL:        schema.Decimal,
	lexer.TOKEN_SINGLE:         schema.Single,
	lexer.TOKEN_DOUBLE:         schema.Double,
	lexer.TOKEN_INT32:          schema.Int32,
	lexer.TOKEN_GUID:           schema.Guid,
	lexer.TOKEN_STRING:         schema.String,
}

// ParseExpression parses one expression starting at the current token
func (p *Parser) ParseExpression() (ir.Node, error) {
	return p.parseTier(0)
}

// parseTier left-associates operands of tiers[level] while the next
// token is one of its operators
func (p *Parser) parseTier(level int) (ir.Node, error) {
	if level == len(tiers) {
		return p.parseUnary()
	}

	left, err := p.parseTier(level + 1)
	if err != nil {
		return nil, err
	}
	for {
		op, ok := tiers[level][p.peek().Type]
		if !ok {
			return left, nil
		}
		operator := p.advance()
		right, err := p.parseTier(level + 1)
		if err != nil {
			return nil, err
		}
		left, err = ir.NewBinary(left, op, right)
		if err != nil {
			return nil, qerrors.WrapParse(err, operator.Pos, operator.Lexeme)
		}
	}
}

// parseUnary handles not
func (p *Parser) parseUnary() (ir.Node, error) {
	if !p.match(lexer.TOKEN_NOT) {
		return p.parseSimple()
	}
	operator := p.previous()
	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	n, err := ir.NewNot(operand)
	if err != nil {
		return nil, qerrors.WrapParse(err, operator.Pos, operator.Lexeme)
	}
	return n, nil
}

// parseSimple handles groups, literals, calls and member chains
func (p *Parser) parseSimple() (ir.Node, error) {
	tok := p.peek()

	switch {
	case tok.Type == lexer.TOKEN_LPAREN:
		p.advance()
		expr, err := p.ParseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(lexer.TOKEN_RPAREN, "expected ')'"); err != nil {
			return nil, err
		}
		return expr, nil

	case tok.Type.IsLiteral():
		p.advance()
		return p.literal(tok)

	case tok.Type == lexer.TOKEN_IDENTIFIER:
		if p.peekAt(1).Type == lexer.TOKEN_LPAREN {
			return p.parseCall()
		}
		return p.parseMemberChain()
	}

	return nil, p.unexpected("expected an expression")
}

func (p *Parser) literal(tok lexer.Token) (ir.Node, error) {
	typ, ok := literalTypes[tok.Type]
	if !ok {
		return nil, qerrors.NewParseError(qerrors.ErrUnsupportedLiteral, tok.Pos, tok.Lexeme,
			fmt.Sprintf("%s literals are not supported", tok.Type))
	}
	c, err := ir.NewConstant(tok.Literal, typ)
	if err != nil {
		return nil, qerrors.NewParseError(qerrors.ErrMalformedLiteral, tok.Pos, tok.Lexeme, err.Error())
	}
	return c, nil
}

// parseMemberChain reads Name(/Name)* against the root element type. A
// trailing "/*" is left for the select-column production.
func (p *Parser) parseMemberChain() (ir.Node, error) {
	tok := p.advance()
	m, err := ir.NewMember(nil, p.root, tok.Lexeme)
	if err != nil {
		return nil, qerrors.WrapParse(err, tok.Pos, tok.Lexeme)
	}

	for p.check(lexer.TOKEN_SLASH) && p.peekAt(1).Type == lexer.TOKEN_IDENTIFIER {
		p.advance()
		tok = p.advance()
		m, err = ir.NewMember(m, nil, tok.Lexeme)
		if err != nil {
			return nil, qerrors.WrapParse(err, tok.Pos, tok.Lexeme)
		}
	}
	return m, nil
}

// parseCall parses name(arg, ...) and resolves the overload
func (p *Parser) parseCall() (ir.Node, error) {
	name := p.advance()
	fn, ok := ir.LookupFunction(name.Lexeme)
	if !ok {
		return nil, qerrors.NewParseError(qerrors.ErrUnknownFunction, name.Pos, name.Lexeme,
			fmt.Sprintf("unknown function %s", name.Lexeme))
	}
	p.advance() // (

	var args []ir.Node
	var last lexer.Token
	if !p.check(lexer.TOKEN_RPAREN) {
		for {
			last = p.peek()
			arg, err := p.ParseExpression()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if !p.match(lexer.TOKEN_COMMA) {
				break
			}
		}
	}
	if _, err := p.consume(lexer.TOKEN_RPAREN, fmt.Sprintf("expected ')' after %s arguments", fn)); err != nil {
		return nil, err
	}

	if fn.IsTypeIndexed() && len(args) > 0 {
		t, err := p.typeReference(args[len(args)-1], last)
		if err != nil {
			return nil, err
		}
		args[len(args)-1] = ir.TypeLiteral(t)
	}

	call, err := ir.NewCall(fn, args)
	if err != nil {
		return nil, qerrors.WrapParse(err, name.Pos, name.Lexeme)
	}
	return call, nil
}

// typeReference re-reads the string argument of cast/isof as a type name:
// an Edm primitive first, then the registry, then the root type itself.
func (p *Parser) typeReference(arg ir.Node, tok lexer.Token) (*schema.Type, error) {
	c, ok := arg.(*ir.Constant)
	name, isString := "", false
	if ok {
		name, isString = c.Value().(string)
	}
	if !isString {
		return nil, qerrors.NewParseError(qerrors.ErrBadTypeReference, tok.Pos, tok.Lexeme,
			"expected a quoted type name")
	}

	if t, ok := schema.PrimitiveByName(name); ok {
		return t, nil
	}
	if p.registry != nil {
		if t, ok := p.registry.Lookup(name); ok {
			return t, nil
		}
	}
	if p.root != nil && p.root.Name() == name {
		return p.root, nil
	}
	return nil, qerrors.NewParseError(qerrors.ErrBadTypeReference, tok.Pos, tok.Lexeme,
		fmt.Sprintf("unknown type %s", name))
}
