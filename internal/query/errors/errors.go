// Package errors defines the two error kinds raised by the query compiler:
// ParseError for malformed or ambiguous wire text and CompileError for host
// query trees that cannot be expressed in the wire grammar. Both wrap the
// catalog sentinels so callers can test causes with errors.Is.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code
type ErrorCode string

// Parse error codes (PRS001-099)
const (
	// ErrUnknownToken indicates a character sequence that is not a token
	ErrUnknownToken ErrorCode = "PRS001"
	// ErrUnexpectedToken indicates a token of the wrong kind
	ErrUnexpectedToken ErrorCode = "PRS002"
	// ErrUnknownFunction indicates a call to a function that is not in the catalog
	ErrUnknownFunction ErrorCode = "PRS003"
	// ErrUnknownPropertyName indicates a member name the current type does not declare
	ErrUnknownPropertyName ErrorCode = "PRS004"
	// ErrBadTypeReference indicates an unresolvable cast/isof type argument
	ErrBadTypeReference ErrorCode = "PRS005"
	// ErrMalformedLiteral indicates a literal whose text cannot be decoded
	ErrMalformedLiteral ErrorCode = "PRS006"
	// ErrUnsupportedLiteral indicates a recognised but unsupported literal
	ErrUnsupportedLiteral ErrorCode = "PRS007"
	// ErrInvalidExpression indicates a well-formed expression the IR rejects
	ErrInvalidExpression ErrorCode = "PRS008"
	// ErrInvalidOption indicates a malformed $-parameter value
	ErrInvalidOption ErrorCode = "PRS009"
)

// Compile error codes (CMP100-199)
const (
	// ErrUnsupportedConstruct indicates a host construct with no wire form
	ErrUnsupportedConstruct ErrorCode = "CMP101"
	// ErrNestedQuery indicates a second query root in one tree
	ErrNestedQuery ErrorCode = "CMP102"
	// ErrOperatorOrder indicates filter/sort/paging applied out of order
	ErrOperatorOrder ErrorCode = "CMP103"
	// ErrFunctionResolution indicates an ambiguous or absent signature match
	ErrFunctionResolution ErrorCode = "CMP104"
	// ErrIncompatibleOperands indicates binary operands that cannot converge
	ErrIncompatibleOperands ErrorCode = "CMP105"
	// ErrInvalidNegation indicates negation of a non-numeric operand
	ErrInvalidNegation ErrorCode = "CMP106"
	// ErrUninitializedMember indicates a member read but never set in its projection
	ErrUninitializedMember ErrorCode = "CMP107"
	// ErrUntranslatableParameter indicates a parameter with no meaning in context
	ErrUntranslatableParameter ErrorCode = "CMP108"
	// ErrInvalidMember indicates a member access the IR rejects
	ErrInvalidMember ErrorCode = "CMP109"
	// ErrIllegalConversion indicates a conversion the catalog rejects
	ErrIllegalConversion ErrorCode = "CMP110"
)

// Catalog sentinels returned by the IR factories. Parse and compile errors
// wrap them.
var (
	ErrNoMatch           = errors.New("no matching signature")
	ErrAmbiguous         = errors.New("ambiguous signature match")
	ErrTypeMismatch      = errors.New("type mismatch")
	ErrUnknownProperty   = errors.New("unknown property")
	ErrInvalidConversion = errors.New("invalid conversion")
	ErrInvalidValue      = errors.New("invalid value")
)

// ParseError reports malformed or ambiguous wire text.
type ParseError struct {
	Code     ErrorCode
	Message  string
	Position int    // byte offset into the parsed text, 0-indexed
	Near     string // the offending lexeme, if any
	Err      error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.Near != "" {
		return fmt.Sprintf("parse error at %d: %s (near '%s')", e.Position, e.Message, e.Near)
	}
	return fmt.Sprintf("parse error at %d: %s", e.Position, e.Message)
}

// Unwrap returns the underlying catalog error, if any
func (e *ParseError) Unwrap() error { return e.Err }

// NewParseError creates a parse error at a position
func NewParseError(code ErrorCode, position int, near, message string) *ParseError {
	return &ParseError{Code: code, Message: message, Position: position, Near: near}
}

// WrapParse converts a catalog error into a parse error
func WrapParse(err error, position int, near string) *ParseError {
	code := ErrInvalidExpression
	if errors.Is(err, ErrUnknownProperty) {
		code = ErrUnknownPropertyName
	}
	return &ParseError{Code: code, Message: err.Error(), Position: position, Near: near, Err: err}
}

// CompileError reports a host query tree that cannot be expressed.
type CompileError struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error implements the error interface
func (e *CompileError) Error() string {
	return fmt.Sprintf("compile error %s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying catalog error, if any
func (e *CompileError) Unwrap() error { return e.Err }

// Compilef creates a compile error with a formatted message
func Compilef(code ErrorCode, format string, args ...any) *CompileError {
	return &CompileError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WrapCompile converts a catalog error into a compile error. Errors that
// already are compile errors pass through unchanged.
func WrapCompile(err error) error {
	if err == nil {
		return nil
	}
	var ce *CompileError
	if errors.As(err, &ce) {
		return err
	}
	code := ErrUnsupportedConstruct
	switch {
	case errors.Is(err, ErrNoMatch), errors.Is(err, ErrAmbiguous):
		code = ErrFunctionResolution
	case errors.Is(err, ErrTypeMismatch):
		code = ErrIncompatibleOperands
	case errors.Is(err, ErrUnknownProperty):
		code = ErrInvalidMember
	case errors.Is(err, ErrInvalidConversion):
		code = ErrIllegalConversion
	}
	return &CompileError{Code: code, Message: err.Error(), Err: err}
}

// IsParseError reports whether err is or wraps a ParseError
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// IsCompileError reports whether err is or wraps a CompileError
func IsCompileError(err error) bool {
	var ce *CompileError
	return errors.As(err, &ce)
}

// CodeOf returns the code of a parse or compile error, or "" otherwise
func CodeOf(err error) ErrorCode {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Code
	}
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}
