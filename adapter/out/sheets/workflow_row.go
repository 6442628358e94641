// Package sheets provides Record Sinks that append extracted records to a Google spreadsheet.
package sheets

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
	"unicode/utf8"

	"workflow_server/core/domain"
)

const (
	TimestampLayout         = "2006-01-02 15:04:05"
	DefaultOriginalMaxChars = 500
	DefaultSheetName        = "Sheet1"
	DefaultSpreadsheetID    = "mock-spreadsheet-id"
)

// Header is the expected first row of the target worksheet.
var Header = []string{"Timestamp", "Customer Name", "Topic", "Urgency", "Summary", "Original Email"}

// SpreadsheetURL returns the browsable locator for a spreadsheet id.
func SpreadsheetURL(spreadsheetID string) string {
	return "https://docs.google.com/spreadsheets/d/" + spreadsheetID
}

// BuildRow lays out one record in header order.
func BuildRow(now time.Time, rec domain.ExtractedRecord, originalText string, maxChars int) []interface{} {
	return []interface{}{
		now.Format(TimestampLayout),
		rec.CustomerName,
		rec.Topic,
		string(rec.Urgency),
		rec.Summary,
		truncateRunes(originalText, maxChars),
	}
}

func truncateRunes(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

// "Sheet1!A7:F7", "'My Sheet'!A12:F12"
var updatedRangeRow = regexp.MustCompile(`![A-Za-z]+(\d+)(?::[A-Za-z]+\d+)?$`)

// parseRowNumber extracts the first row index from an A1 range returned by an append.
func parseRowNumber(updatedRange string) (int, error) {
	m := updatedRangeRow.FindStringSubmatch(updatedRange)
	if m == nil {
		return 0, fmt.Errorf("unexpected updated range %q", updatedRange)
	}
	return strconv.Atoi(m[1])
}
