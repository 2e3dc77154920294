package parser

import (
	"fmt"
	"strings"
)

// FieldError is a single schema violation at a JSON path.
type FieldError struct {
	Field   string
	Message string
}

// ParseError is returned when a model response cannot be turned into the
// expected payload. Raw keeps the response text for diagnostics.
type ParseError struct {
	Payload string
	Raw     string
	Fields  []FieldError
	Err     error
}

func (e *ParseError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "parse %s payload", e.Payload)
	if e.Err != nil {
		fmt.Fprintf(&sb, ": %v", e.Err)
	}
	for i, field := range e.Fields {
		if i == 0 {
			sb.WriteString(":")
		} else {
			sb.WriteString(";")
		}
		fmt.Fprintf(&sb, " %s: %s", field.Field, field.Message)
	}
	return sb.String()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
