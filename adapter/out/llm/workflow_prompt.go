// Package llm implements the extraction clients that ask a language model for a JSON summary of an email.
package llm

import "fmt"

// SystemPrompt frames the model as a JSON-only extractor.
const SystemPrompt = "You are a helpful assistant that extracts structured information from customer support emails. Always respond with valid JSON only."

// Default sampling parameters: short structured output, near-deterministic.
const (
	DefaultMaxTokens   = 300
	DefaultTemperature = 0.3
)

// BuildPrompt embeds the email verbatim into the fixed extraction instructions.
func BuildPrompt(emailText string) string {
	return fmt.Sprintf(`You are an AI assistant helping a customer support team.
Analyze the following email and extract key information.

Email:
%s

Please respond with ONLY a JSON object in this exact format:
{
    "summary": "A brief 1-2 sentence summary of the email",
    "customer_name": "The customer's name (or 'Unknown' if not found)",
    "topic": "The main topic/category (e.g., Technical Issue, Billing, Feature Request)",
    "urgency": "high, medium, or low based on the email content"
}

Do not include any other text, just the JSON object.`, emailText)
}
