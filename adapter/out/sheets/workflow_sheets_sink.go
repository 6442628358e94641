package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"workflow_server/core/domain"
	"workflow_server/pkg/apperr"
	"workflow_server/pkg/logger"
	"workflow_server/pkg/resilience"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Config configures the Google Sheets sink.
type Config struct {
	CredentialsJSON  []byte // service-account key
	SpreadsheetID    string
	SheetName        string
	OriginalMaxChars int
	HTTPClient       *http.Client // base transport under the OAuth2 layer
	Breaker          *resilience.Breaker

	// Endpoint overrides the API root and skips authentication. Used against local fakes.
	Endpoint string
	Now      func() time.Time
}

// SheetsSink appends one row per record to a worksheet.
type SheetsSink struct {
	svc           *sheets.Service
	spreadsheetID string
	sheetName     string
	maxChars      int
	url           string
	breaker       *resilience.Breaker
	now           func() time.Time
}

// NewSheetsSink builds an authenticated Sheets client. It makes no network call.
func NewSheetsSink(ctx context.Context, cfg Config) (*SheetsSink, error) {
	if cfg.SpreadsheetID == "" {
		return nil, apperr.ConfigError("SPREADSHEET_ID is required")
	}
	if cfg.SheetName == "" {
		cfg.SheetName = DefaultSheetName
	}
	if cfg.OriginalMaxChars == 0 {
		cfg.OriginalMaxChars = DefaultOriginalMaxChars
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	base := cfg.HTTPClient
	if base == nil {
		base = http.DefaultClient
	}

	var opts []option.ClientOption
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint), option.WithHTTPClient(base))
	} else {
		jwtCfg, err := google.JWTConfigFromJSON(cfg.CredentialsJSON, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, apperr.ConfigError("invalid GOOGLE_SHEETS_CREDS").WithError(err)
		}
		authCtx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
		opts = append(opts, option.WithHTTPClient(jwtCfg.Client(authCtx)))
	}

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, apperr.ConfigError("failed to create sheets client").WithError(err)
	}

	return &SheetsSink{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     cfg.SheetName,
		maxChars:      cfg.OriginalMaxChars,
		url:           SpreadsheetURL(cfg.SpreadsheetID),
		breaker:       cfg.Breaker,
		now:           cfg.Now,
	}, nil
}

func (s *SheetsSink) Mode() domain.Mode { return domain.ModeLive }

func (s *SheetsSink) Name() string { return "google-sheets" }

// Append writes one row. Any failure is reported in the result, never returned.
func (s *SheetsSink) Append(ctx context.Context, rec domain.ExtractedRecord, originalText string) domain.SinkResult {
	row := BuildRow(s.now(), rec, originalText, s.maxChars)

	updatedRange, err := resilience.Execute(s.breaker, func() (string, error) {
		resp, err := s.svc.Spreadsheets.Values.
			Append(s.spreadsheetID, s.a1Range("A:F"), &sheets.ValueRange{Values: [][]interface{}{row}}).
			ValueInputOption("USER_ENTERED").
			InsertDataOption("INSERT_ROWS").
			Context(ctx).
			Do()
		if err != nil {
			return "", err
		}
		if resp.Updates == nil {
			return "", errors.New("append response carried no update summary")
		}
		return resp.Updates.UpdatedRange, nil
	})
	if err != nil {
		appErr := apperr.SinkUnavailable(s.Name(), err)
		logger.WithContext(ctx).WithError(err).WithField("sink", s.Name()).Warn("sheet append failed")
		return domain.SinkFailure(fmt.Sprintf("%s: %s", appErr.Message, describe(err)))
	}

	rowNumber, err := parseRowNumber(updatedRange)
	if err != nil {
		// The row is written; only its position is unknown.
		logger.WithContext(ctx).WithError(err).WithField("sink", s.Name()).Warn("could not determine appended row")
		return domain.SinkResult{Success: true, Message: "Task created successfully", ReferenceURL: s.url}
	}

	return domain.SinkSuccess("Task created successfully", rowNumber, s.url)
}

// Verify checks that the worksheet is reachable and carries the expected header row.
func (s *SheetsSink) Verify(ctx context.Context) error {
	vr, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.a1Range("A1:F1")).Context(ctx).Do()
	if err != nil {
		return apperr.SinkUnavailable(s.Name(), err).WithDetail("reason", describe(err))
	}

	if len(vr.Values) == 0 {
		return apperr.ConfigError(fmt.Sprintf("sheet %q has no header row", s.sheetName))
	}
	got := vr.Values[0]
	for i, want := range Header {
		if i >= len(got) || !strings.EqualFold(strings.TrimSpace(fmt.Sprint(got[i])), want) {
			return apperr.ConfigError(fmt.Sprintf("sheet %q header column %d should be %q", s.sheetName, i+1, want))
		}
	}
	return nil
}

func (s *SheetsSink) a1Range(cells string) string {
	name := s.sheetName
	if strings.ContainsAny(name, " '!") {
		name = "'" + strings.ReplaceAll(name, "'", "''") + "'"
	}
	return name + "!" + cells
}

func describe(err error) string {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if gerr.Message != "" {
			return fmt.Sprintf("%d %s", gerr.Code, gerr.Message)
		}
		return fmt.Sprintf("%d %s", gerr.Code, http.StatusText(gerr.Code))
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timed out"
	}
	if resilience.IsRejection(err) {
		return "sheets temporarily unavailable"
	}
	return err.Error()
}
