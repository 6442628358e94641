package sheets

import (
	"context"
	"sync"

	"workflow_server/core/domain"
)

// RowCounter hands out monotonically increasing row numbers starting at 1.
// One counter is owned per sink, so independent sinks never share state.
type RowCounter struct {
	mu   sync.Mutex
	last int
}

// NewRowCounter creates a counter whose first Next returns 1.
func NewRowCounter() *RowCounter {
	return &RowCounter{}
}

// Next returns the next row number.
func (c *RowCounter) Next() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last++
	return c.last
}

// Current returns the last number handed out, 0 if none.
func (c *RowCounter) Current() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// MockSink simulates appends without any network I/O.
type MockSink struct {
	counter *RowCounter
	url     string
}

// NewMockSink creates a mock sink. A nil counter gets a fresh one.
func NewMockSink(spreadsheetID string, counter *RowCounter) *MockSink {
	if counter == nil {
		counter = NewRowCounter()
	}
	if spreadsheetID == "" {
		spreadsheetID = DefaultSpreadsheetID
	}
	return &MockSink{counter: counter, url: SpreadsheetURL(spreadsheetID)}
}

func (s *MockSink) Mode() domain.Mode { return domain.ModeMock }

func (s *MockSink) Name() string { return "mock-sheet" }

func (s *MockSink) Append(_ context.Context, _ domain.ExtractedRecord, _ string) domain.SinkResult {
	return domain.SinkSuccess("Task created in mock mode", s.counter.Next(), s.url)
}
