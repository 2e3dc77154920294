// Package parser turns raw model output into typed payloads. Every payload is
// checked against its JSON schema before it is decoded, so a response either
// yields a complete value or a *ParseError.
package parser

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spigell/ai-recruiter/internal/completion"
	"github.com/xeipuuv/gojsonschema"
)

// Payload is implemented by every structured response the interview flow expects.
type Payload interface {
	Schema() completion.Schema
	check() []FieldError
}

// Parse extracts the JSON object from raw, validates it against the schema
// of T and decodes it.
func Parse[T Payload](raw string) (T, error) {
	var out T
	schema := out.Schema()

	fail := func(err error, fields ...FieldError) (T, error) {
		var zero T
		return zero, &ParseError{Payload: schema.Name, Raw: raw, Fields: fields, Err: err}
	}

	cleaned := ExtractJSON(raw)
	if cleaned == "" {
		return fail(errors.New("no JSON object found in response"))
	}

	var document map[string]any
	if err := json.Unmarshal([]byte(cleaned), &document); err != nil {
		return fail(err)
	}

	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema.Definition), gojsonschema.NewGoLoader(document))
	if err != nil {
		return fail(err)
	}
	if !result.Valid() {
		fields := make([]FieldError, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			field := desc.Field()
			if field == "" {
				field = "(root)"
			}
			fields = append(fields, FieldError{Field: field, Message: desc.Description()})
		}
		return fail(nil, fields...)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{Result: &out})
	if err != nil {
		return fail(err)
	}
	if err := decoder.Decode(document); err != nil {
		return fail(err)
	}

	if fields := out.check(); len(fields) > 0 {
		return fail(nil, fields...)
	}

	return out, nil
}

// ExtractJSON strips markdown fences and surrounding prose and returns the
// first top-level JSON object in raw, or an empty string.
func ExtractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.TrimSpace(strings.Trim(raw, "`"))

	start := strings.Index(raw, "{")
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return raw[start : i+1]
			}
		}
	}

	return ""
}
