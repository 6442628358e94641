// Package extraction turns raw language-model output into a validated ExtractedRecord.
package extraction

import (
	"strings"

	"workflow_server/core/domain"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

// MaxScanBytes bounds the balanced-brace search for a JSON object embedded in prose.
const MaxScanBytes = 64 * 1024

// ParseResult is the outcome of parsing one model payload.
type ParseResult struct {
	Record domain.ExtractedRecord
	// Degraded is set when at least one field fell back to its default.
	Degraded bool
	// Unparseable is set when no JSON object could be recovered at all.
	Unparseable bool
	// Recovered is set when the object had to be cut out of surrounding text.
	Recovered       bool
	DefaultedFields []string
}

// Parser is total over its input: Parse always returns a usable record.
// It is safe for concurrent use.
type Parser struct {
	validate *validator.Validate
}

// NewParser creates a parser.
func NewParser() *Parser {
	return &Parser{validate: validator.New()}
}

var defaultParser = NewParser()

// Parse parses raw with a shared parser.
func Parse(raw string) ParseResult {
	return defaultParser.Parse(raw)
}

// Parse decodes raw into an ExtractedRecord, defaulting each missing or malformed field individually.
func (p *Parser) Parse(raw string) ParseResult {
	text := StripCodeFence(raw)

	obj, ok := decodeObject(text)
	recovered := false
	if !ok {
		if span, found := FirstBalancedObject(text, MaxScanBytes); found {
			obj, ok = decodeObject(span)
			recovered = ok
		}
	}

	if !ok {
		return ParseResult{
			Record:      domain.DefaultRecord(),
			Degraded:    true,
			Unparseable: true,
			DefaultedFields: []string{
				domain.FieldSummary,
				domain.FieldCustomerName,
				domain.FieldTopic,
				domain.FieldUrgency,
			},
		}
	}

	res := ParseResult{Recovered: recovered}
	fallback := func(field string) {
		res.Degraded = true
		res.DefaultedFields = append(res.DefaultedFields, field)
	}

	if s, ok := stringField(obj, domain.FieldSummary); ok {
		res.Record.Summary = s
	} else {
		res.Record.Summary = domain.DefaultSummary
		fallback(domain.FieldSummary)
	}

	if s, ok := stringField(obj, domain.FieldCustomerName); ok {
		res.Record.CustomerName = s
	} else {
		res.Record.CustomerName = domain.DefaultCustomerName
		fallback(domain.FieldCustomerName)
	}

	if s, ok := stringField(obj, domain.FieldTopic); ok {
		res.Record.Topic = s
	} else {
		res.Record.Topic = domain.DefaultTopic
		fallback(domain.FieldTopic)
	}

	res.Record.Urgency = domain.DefaultUrgency
	if s, ok := stringField(obj, domain.FieldUrgency); ok {
		if u, known := domain.ParseUrgency(s); known {
			res.Record.Urgency = u
		} else {
			fallback(domain.FieldUrgency)
		}
	} else {
		fallback(domain.FieldUrgency)
	}

	// Invariant: every field set, urgency within the enum.
	if err := p.validate.Struct(res.Record); err != nil {
		res.Record = domain.DefaultRecord()
		res.Degraded = true
	}

	return res
}

// StripCodeFence removes a surrounding markdown code fence (```json ... ```), if any.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)

	switch {
	case strings.HasPrefix(s, "```json"):
		s = strings.TrimPrefix(s, "```json")
	case strings.HasPrefix(s, "```JSON"):
		s = strings.TrimPrefix(s, "```JSON")
	case strings.HasPrefix(s, "```"):
		s = strings.TrimPrefix(s, "```")
	default:
		return s
	}

	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// FirstBalancedObject returns the first brace-balanced {...} span of s, looking at no more
// than limit bytes. Braces inside JSON string literals are ignored.
func FirstBalancedObject(s string, limit int) (string, bool) {
	if limit > 0 && len(s) > limit {
		s = s[:limit]
	}

	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}

	return "", false
}

func decodeObject(s string) (map[string]any, bool) {
	if s == "" {
		return nil, false
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	obj, ok := v.(map[string]any)
	return obj, ok
}

func stringField(obj map[string]any, key string) (string, bool) {
	v, ok := obj[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}
