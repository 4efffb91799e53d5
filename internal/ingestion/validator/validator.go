// Package validator implements the optional strict word check applied by the
// producer before a line is handed to the indexing worker. A valid word is a
// non-empty line of printable UTF-8 with no whitespace.
package validator

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

const maxWordLength = 1024

type Reason string

const (
	ReasonEmpty        Reason = "empty"
	ReasonWhitespace   Reason = "contains whitespace"
	ReasonNonPrintable Reason = "contains non-printable characters"
	ReasonTooLong      Reason = "too long"
)

// ValidationError names the rejected line and why.
type ValidationError struct {
	Line   string
	Reason Reason
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("rejected line %q: %s", e.Line, e.Reason)
}

// ValidateWord returns a *ValidationError if line is not a single printable
// word.
func ValidateWord(line string) error {
	if line == "" {
		return &ValidationError{Line: line, Reason: ReasonEmpty}
	}
	if len(line) > maxWordLength {
		return &ValidationError{Line: line[:32] + "...", Reason: ReasonTooLong}
	}
	if !utf8.ValidString(line) {
		return &ValidationError{Line: line, Reason: ReasonNonPrintable}
	}
	for _, r := range line {
		if unicode.IsSpace(r) {
			return &ValidationError{Line: line, Reason: ReasonWhitespace}
		}
		if !unicode.IsPrint(r) {
			return &ValidationError{Line: line, Reason: ReasonNonPrintable}
		}
	}
	return nil
}
