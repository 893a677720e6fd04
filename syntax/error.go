package syntax

import "fmt"

// ErrorCode describes why a pattern failed to parse.
// The code text is the human-readable message.
type ErrorCode string

const (
	ErrMissingParen          ErrorCode = "missing closing )"
	ErrUnexpectedParen       ErrorCode = "unexpected )"
	ErrMissingBracket        ErrorCode = "missing closing ]"
	ErrInvalidCharRange      ErrorCode = "invalid character class range"
	ErrInvalidCharClass      ErrorCode = "invalid character class"
	ErrInvalidEscape         ErrorCode = "invalid escape sequence"
	ErrInvalidRepeatOp       ErrorCode = "invalid nested repetition operator"
	ErrMissingRepeatArgument ErrorCode = "missing argument to repetition operator"
	ErrInvalidRepeatSize     ErrorCode = "invalid repeat count"
	ErrInvalidNamedCapture   ErrorCode = "invalid named capture"
	ErrDuplicateName         ErrorCode = "duplicate capture group name"
	ErrInvalidPerlOp         ErrorCode = "invalid or unsupported Perl syntax"
	ErrInvalidUTF8           ErrorCode = "invalid UTF-8"
	ErrUnknownClass          ErrorCode = "unknown Unicode class"
	ErrLookaround            ErrorCode = "lookaround assertions are not supported"
	ErrBackreference         ErrorCode = "backreferences are not supported"
	ErrUndefinedGroup        ErrorCode = "reference to undefined group"
	ErrNestingDepth          ErrorCode = "expression nests too deeply"
	ErrPatternTooLarge       ErrorCode = "expression too large"
)

// String returns the message for the code.
func (c ErrorCode) String() string {
	return string(c)
}

// Error is returned for any malformed pattern.
// Pos is the byte offset into the pattern where the problem was detected;
// Expr is the offending fragment.
type Error struct {
	Code ErrorCode
	Pos  int
	Expr string
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Expr == "" {
		return fmt.Sprintf("error parsing regexp: %s at offset %d", e.Code, e.Pos)
	}
	return fmt.Sprintf("error parsing regexp: %s at offset %d: `%s`", e.Code, e.Pos, e.Expr)
}

// Position returns the byte offset of the error in the pattern.
func (e *Error) Position() int {
	return e.Pos
}

// Message returns the error description without the position.
func (e *Error) Message() string {
	return string(e.Code)
}
