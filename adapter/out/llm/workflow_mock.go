package llm

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"workflow_server/core/domain"

	"github.com/goccy/go-json"
)

const mockSummaryMaxRunes = 120

// Phrases checked in order; "not urgent" must be seen before "urgent".
var (
	lowUrgencyPhrases  = []string{"not urgent", "no rush", "whenever you can", "when you get a chance", "low priority"}
	highUrgencyPhrases = []string{"urgent", "asap", "immediately", "emergency", "right away", "critical"}
)

var topicKeywords = []struct {
	topic    string
	keywords []string
}{
	{"Billing", []string{"invoice", "refund", "charged", "charge", "payment", "billing", "subscription"}},
	{"Technical Issue", []string{"login", "log in", "password", "error", "bug", "crash", "broken", "not working"}},
	{"Feature Request", []string{"feature", "would be great", "suggest", "could you add"}},
}

// Capitalized words that open greetings, sign-offs or addresses rather than names.
var nameStopwords = map[string]bool{
	"hi": true, "hello": true, "hey": true, "dear": true, "thanks": true, "thank": true,
	"regards": true, "best": true, "sincerely": true, "cheers": true, "kind": true,
	"the": true, "my": true, "our": true, "your": true, "this": true, "please": true,
	"support": true, "team": true, "customer": true, "service": true, "i": true,
	"we": true, "it": true, "urgent": true, "asap": true,
}

// MockExtractor derives a deterministic payload from simple text heuristics.
// It performs no I/O.
type MockExtractor struct{}

// NewMockExtractor creates a mock extractor.
func NewMockExtractor() *MockExtractor {
	return &MockExtractor{}
}

func (e *MockExtractor) Mode() domain.Mode { return domain.ModeMock }

func (e *MockExtractor) Provider() string { return "mock" }

// Extract returns a JSON object with the four extraction fields.
func (e *MockExtractor) Extract(_ context.Context, emailText string) (string, error) {
	rec := domain.ExtractedRecord{
		Summary:      mockSummary(emailText),
		CustomerName: candidateName(emailText),
		Topic:        guessTopic(emailText),
		Urgency:      guessUrgency(emailText),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func guessUrgency(text string) domain.Urgency {
	lower := strings.ToLower(text)
	for _, p := range lowUrgencyPhrases {
		if strings.Contains(lower, p) {
			return domain.UrgencyLow
		}
	}
	for _, p := range highUrgencyPhrases {
		if strings.Contains(lower, p) {
			return domain.UrgencyHigh
		}
	}
	return domain.UrgencyMedium
}

func guessTopic(text string) string {
	lower := strings.ToLower(text)
	for _, group := range topicKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(lower, kw) {
				return group.topic
			}
		}
	}
	return domain.DefaultTopic
}

// candidateName returns the last pair of adjacent capitalized words, since signatures
// usually close the email. Falls back to "Unknown".
func candidateName(text string) string {
	tokens := strings.Fields(text)
	name := domain.DefaultCustomerName

	for i := 0; i+1 < len(tokens); i++ {
		first := tokens[i]
		// A name cannot span a sentence or clause break.
		if strings.ContainsAny(first, ".,!?:;") {
			continue
		}
		second := strings.TrimRight(tokens[i+1], ".,!?:;")
		if isNameWord(first) && isNameWord(second) {
			name = first + " " + second
		}
	}
	return name
}

func isNameWord(w string) bool {
	if utf8.RuneCountInString(w) < 2 || nameStopwords[strings.ToLower(w)] {
		return false
	}
	for i, r := range w {
		if i == 0 {
			if !unicode.IsUpper(r) {
				return false
			}
			continue
		}
		if !unicode.IsLetter(r) && r != '-' && r != '\'' {
			return false
		}
	}
	return true
}

func mockSummary(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.IndexAny(text, ".!?\n"); i >= 0 {
		text = text[:i]
	}
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return "Mock summary: customer email received"
	}
	if utf8.RuneCountInString(text) > mockSummaryMaxRunes {
		text = string([]rune(text)[:mockSummaryMaxRunes]) + "..."
	}
	return "Mock summary: " + text
}
