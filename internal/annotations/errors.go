package annotations

import (
	stderrors "errors"

	"github.com/toyz/annoroute/internal/errors"
)

// SyntaxError is returned for malformed annotations and parameter lists
type SyntaxError = errors.SyntaxError

var (
	// ErrUnbalancedParens is the cause of a parameter list missing its closing ')'
	ErrUnbalancedParens = stderrors.New("unbalanced parentheses")
	// ErrUnmatchedBracket is the cause of a closing bracket without its opener
	ErrUnmatchedBracket = stderrors.New("unmatched bracket")
	// ErrUnclosedBracket is the cause of an opening bracket that is never closed
	ErrUnclosedBracket = stderrors.New("unclosed bracket")
	// ErrUnterminatedString is the cause of a quote that is never closed
	ErrUnterminatedString = stderrors.New("unterminated string")
	// ErrExpectedAssignment is the cause of a non-leading parameter without name=value
	ErrExpectedAssignment = stderrors.New("expected name=value")
	// ErrInvalidLiteral is the cause of a parameter value outside the literal grammar
	ErrInvalidLiteral = stderrors.New("invalid literal")
)

func newSyntaxError(cause error, token string, position int, loc SourceLocation) *SyntaxError {
	return errors.NewSyntaxErrorWithToken("annotation syntax error", token, position).
		WithLocation(loc).
		WithCause(cause)
}
