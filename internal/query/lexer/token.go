package lexer

import "fmt"

// TokenType represents the type of a token in the wire grammar
type TokenType int

const (
	// TOKEN_EOF marks the end of the token stream.
	TOKEN_EOF TokenType = iota
	// TOKEN_ERROR is the catch-all for characters no other rule accepts.
	TOKEN_ERROR
	// TOKEN_WHITESPACE is produced by the scanner and filtered before parsing.
	TOKEN_WHITESPACE

	// Literals
	TOKEN_NULL           // null
	TOKEN_BINARY         // X'CAFE' (not supported)
	TOKEN_BOOLEAN        // true, false
	TOKEN_DATETIME       // datetime'2024-03-01T12:30'
	TOKEN_DATETIMEOFFSET // datetimeoffset'2024-03-01T12:30:00Z'
	TOKEN_TIME           // time'PT1H'
	TOKEN_INT64          // 42L
	TOKEN_DECIMAL        // 1.5M
	TOKEN_SINGLE         // 1.5f
	TOKEN_DOUBLE         // 1.5, 1e10
	TOKEN_INT32          // 42
	TOKEN_GUID           // guid'...'
	TOKEN_STRING         // 'it''s'

	// Keyword operators
	TOKEN_EQ
	TOKEN_NE
	TOKEN_GT
	TOKEN_GE
	TOKEN_LT
	TOKEN_LE
	TOKEN_AND
	TOKEN_OR
	TOKEN_NOT
	TOKEN_ADD
	TOKEN_SUB
	TOKEN_MUL
	TOKEN_DIV
	TOKEN_MOD
	TOKEN_ASC
	TOKEN_DESC

	// Punctuation
	TOKEN_LPAREN // (
	TOKEN_RPAREN // )
	TOKEN_COMMA  // ,
	TOKEN_SLASH  // /
	TOKEN_STAR   // *

	TOKEN_IDENTIFIER
)

// TokenTypeNames maps token types to their string representations
var TokenTypeNames = map[TokenType]string{
	TOKEN_EOF:            "EOF",
	TOKEN_ERROR:          "ERROR",
	TOKEN_WHITESPACE:     "WHITESPACE",
	TOKEN_NULL:           "NULL",
	TOKEN_BINARY:         "BINARY",
	TOKEN_BOOLEAN:        "BOOLEAN",
	TOKEN_DATETIME:       "DATETIME",
	TOKEN_DATETIMEOFFSET: "DATETIMEOFFSET",
	TOKEN_TIME:           "TIME",
	TOKEN_INT64:          "INT64",
	TOKEN_DECIMAL:        "DECIMAL",
	TOKEN_SINGLE:         "SINGLE",
	TOKEN_DOUBLE:         "DOUBLE",
	TOKEN_INT32:          "INT32",
	TOKEN_GUID:           "GUID",
	TOKEN_STRING:         "STRING",
	TOKEN_EQ:             "EQ",
	TOKEN_NE:             "NE",
	TOKEN_GT:             "GT",
	TOKEN_GE:             "GE",
	TOKEN_LT:             "LT",
	TOKEN_LE:             "LE",
	TOKEN_AND:            "AND",
	TOKEN_OR:             "OR",
	TOKEN_NOT:            "NOT",
	TOKEN_ADD:            "ADD",
	TOKEN_SUB:            "SUB",
	TOKEN_MUL:            "MUL",
	TOKEN_DIV:            "DIV",
	TOKEN_MOD:            "MOD",
	TOKEN_ASC:            "ASC",
	TOKEN_DESC:           "DESC",
	TOKEN_LPAREN:         "LPAREN",
	TOKEN_RPAREN:         "RPAREN",
	TOKEN_COMMA:          "COMMA",
	TOKEN_SLASH:          "SLASH",
	TOKEN_STAR:           "STAR",
	TOKEN_IDENTIFIER:     "IDENTIFIER",
}

// String returns the string representation of a TokenType
func (t TokenType) String() string {
	if name, ok := TokenTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// IsLiteral reports whether tokens of this type carry a decoded value
func (t TokenType) IsLiteral() bool {
	return t >= TOKEN_NULL && t <= TOKEN_STRING
}

// Token is a lexical token of the wire grammar
type Token struct {
	Type    TokenType // The type of the token
	Lexeme  string    // The raw text of the token
	Literal any       // The decoded value (for literals)
	Pos     int       // Byte offset in the input
}

// String returns a string representation of the token
func (t Token) String() string {
	if t.Literal != nil {
		return fmt.Sprintf("%s '%s' (%v) at %d", t.Type, t.Lexeme, t.Literal, t.Pos)
	}
	return fmt.Sprintf("%s '%s' at %d", t.Type, t.Lexeme, t.Pos)
}
