package gsdb

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSyntax matches every *ParseError via errors.Is.
	ErrSyntax = errors.New("syntax error")

	ErrNotFound          = errors.New("not found")
	ErrNoWriteFunc       = errors.New("database has no write function")
	ErrDuplicateDatabase = errors.New("database already registered")
	ErrWriteFuncPanicked = errors.New("write function panicked")
)

// ErrorCode identifies a grammar violation.
type ErrorCode int

const (
	UnterminatedString ErrorCode = iota + 1
	ExpectedOpenQuote
	ExpectedOpenBrace
	ExpectedOpenParen
	ExpectedComma
	ExpectedStartData
	ExpectedSemicolon
	ExpectedRecordData
	ExpectedCommentEnd
	UnexpectedEOF
)

var errorMessages = [...]string{
	UnterminatedString: "Unterminated string",
	ExpectedOpenQuote:  `Expected opening quote ('"')`,
	ExpectedOpenBrace:  "Expected opening brace ('{')",
	ExpectedOpenParen:  "Expected opening parenthesis ('(')",
	ExpectedComma:      "Expected comma (',')",
	ExpectedStartData:  `Expected data begin ('"', '(' or '{')`,
	ExpectedSemicolon:  "Expected semicolon (';')",
	ExpectedRecordData: "Expected record data",
	ExpectedCommentEnd: `Expected comment end ("*/")`,
	UnexpectedEOF:      "Unexpected end of file",
}

func (c ErrorCode) String() string {
	if c <= 0 || int(c) >= len(errorMessages) {
		return fmt.Sprintf("ErrorCode(%d)", int(c))
	}
	return errorMessages[c]
}

// ParseError describes where and why a database file failed to parse.
type ParseError struct {
	Name   string
	Line   int
	Column int
	Code   ErrorCode
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %v", e.Name, e.Line, e.Column, e.Code)
}

func (e *ParseError) Is(target error) bool {
	return target == ErrSyntax
}

// UnclosedObjectsError is returned when a write function leaves nested
// objects open. It always indicates a bug in the write function.
type UnclosedObjectsError struct {
	Name  string
	Count int
}

func (e *UnclosedObjectsError) Error() string {
	return fmt.Sprintf("writing %s failed, %d unclosed objects", e.Name, e.Count)
}

// DatabaseError wraps a failure of a database-level operation (read, write,
// rename) with the database name.
type DatabaseError struct {
	Name string
	Op   string
	Msg  string
	Err  error
}

func dbErrf(name, op string, err error, format string, args ...any) error {
	return &DatabaseError{name, op, fmt.Sprintf(format, args...), err}
}

func (e *DatabaseError) Unwrap() error {
	return e.Err
}

func (e *DatabaseError) Error() string {
	var buf strings.Builder
	buf.WriteString(e.Name)
	if e.Op != "" {
		buf.WriteString(": ")
		buf.WriteString(e.Op)
	}
	if e.Msg != "" {
		buf.WriteString(": ")
		buf.WriteString(e.Msg)
	}
	if e.Err != nil {
		buf.WriteString(": ")
		buf.WriteString(e.Err.Error())
	}
	return buf.String()
}
