package domain

import "strings"

// Mode selects whether the pipeline talks to real services or to deterministic substitutes.
type Mode string

const (
	ModeLive Mode = "live"
	ModeMock Mode = "mock"
)

// Urgency is the three-valued priority assigned to an email.
type Urgency string

const (
	UrgencyHigh   Urgency = "high"
	UrgencyMedium Urgency = "medium"
	UrgencyLow    Urgency = "low"
)

// ParseUrgency matches s case-insensitively; anything else yields (UrgencyMedium, false).
func ParseUrgency(s string) (Urgency, bool) {
	switch Urgency(strings.ToLower(strings.TrimSpace(s))) {
	case UrgencyHigh:
		return UrgencyHigh, true
	case UrgencyMedium:
		return UrgencyMedium, true
	case UrgencyLow:
		return UrgencyLow, true
	}
	return UrgencyMedium, false
}

// Defaults applied per field when the model output is missing or malformed.
const (
	DefaultSummary      = "No summary available"
	DefaultCustomerName = "Unknown"
	DefaultTopic        = "General Inquiry"
	DefaultUrgency      = UrgencyMedium
)

// Field names shared by the prompt, the parser and the sheet columns.
const (
	FieldSummary      = "summary"
	FieldCustomerName = "customer_name"
	FieldTopic        = "topic"
	FieldUrgency      = "urgency"
)

// ExtractedRecord is the structured result of analysing one email. Every field is always set.
type ExtractedRecord struct {
	Summary      string  `json:"summary" validate:"required"`
	CustomerName string  `json:"customer_name" validate:"required"`
	Topic        string  `json:"topic" validate:"required"`
	Urgency      Urgency `json:"urgency" validate:"required,oneof=high medium low"`
}

// DefaultRecord returns a record made entirely of defaults.
func DefaultRecord() ExtractedRecord {
	return ExtractedRecord{
		Summary:      DefaultSummary,
		CustomerName: DefaultCustomerName,
		Topic:        DefaultTopic,
		Urgency:      DefaultUrgency,
	}
}

// SinkResult is the outcome of one append attempt. RowNumber is nil whenever Success is false.
type SinkResult struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	RowNumber    *int   `json:"row_number,omitempty"`
	ReferenceURL string `json:"reference_url,omitempty"`
}

// SinkFailure builds a failed SinkResult.
func SinkFailure(message string) SinkResult {
	return SinkResult{Success: false, Message: message}
}

// SinkSuccess builds a successful SinkResult for the given row.
func SinkSuccess(message string, row int, url string) SinkResult {
	return SinkResult{Success: true, Message: message, RowNumber: &row, ReferenceURL: url}
}

// PipelineEnvelope is the single result returned for one processed email.
// Success=true always carries ExtractedData; TaskCreated may still report a failed append.
type PipelineEnvelope struct {
	Success         bool             `json:"success"`
	ExtractedData   *ExtractedRecord `json:"extracted_data"`
	TaskCreated     *SinkResult      `json:"task_created"`
	Error           *string          `json:"error"`
	ErrorCode       string           `json:"error_code,omitempty"`
	Message         string           `json:"message,omitempty"`
	Mode            Mode             `json:"mode"`
	Degraded        bool             `json:"degraded"`
	DefaultedFields []string         `json:"defaulted_fields,omitempty"`
}

// FailedEnvelope builds an envelope for a run that produced no extracted data.
func FailedEnvelope(mode Mode, code, cause string) *PipelineEnvelope {
	return &PipelineEnvelope{
		Success:   false,
		Error:     &cause,
		ErrorCode: code,
		Mode:      mode,
	}
}

// HealthStatus reports how the process is configured.
type HealthStatus struct {
	Status           string `json:"status"`
	Mode             Mode   `json:"mode"`
	MockMode         bool   `json:"mock_mode"`
	LLMProvider      string `json:"llm_provider"`
	LLMConfigured    bool   `json:"llm_configured"`
	SheetsConfigured bool   `json:"sheets_configured"`
}
