// internal/sheets/service.go
package sheets

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/oauth2/google"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/zeccol/marketlist/internal/domain"
)

const defaultRequestsPerSecond = 0.8

// Service wraps the Google Sheets API behind TableStore. All calls go through
// a client-side limiter so a sequential run stays under the per-minute quota
// without per-item sleeps.
type Service struct {
	srv     *sheets.Service
	limiter *rate.Limiter
}

// NewService builds a Service from service-account credentials JSON.
func NewService(credentialsJSON string, requestsPerSecond float64) (*Service, error) {
	config, err := google.JWTConfigFromJSON(
		[]byte(credentialsJSON),
		sheets.SpreadsheetsScope,
	)
	if err != nil {
		return nil, fmt.Errorf("unable to parse service account credentials: %w", err)
	}

	client := config.Client(context.Background())

	srv, err := sheets.NewService(context.Background(), option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets client: %w", err)
	}

	if requestsPerSecond <= 0 {
		requestsPerSecond = defaultRequestsPerSecond
	}

	return &Service{
		srv:     srv,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}, nil
}

// ReadTable fetches a whole worksheet and splits it into header and rows.
// Stray quote characters are stripped from every cell, matching how the
// upstream sheets were populated.
func (s *Service) ReadTable(ctx context.Context, spreadsheetID, worksheet string) (*Table, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := s.srv.Spreadsheets.Values.Get(spreadsheetID, worksheet).Context(ctx).Do()
	if err != nil {
		return nil, wrapAPIError(worksheet, err)
	}

	if len(resp.Values) == 0 {
		return nil, &domain.DataSourceError{
			Table: worksheet,
			Err:   fmt.Errorf("worksheet is empty"),
		}
	}

	table := &Table{Header: cleanRow(resp.Values[0])}
	for _, raw := range resp.Values[1:] {
		table.Rows = append(table.Rows, cleanRow(raw))
	}
	return table, nil
}

// AppendRow appends a single row after the worksheet's existing content.
func (s *Service) AppendRow(ctx context.Context, spreadsheetID, worksheet string, row []string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	values := make([]interface{}, len(row))
	for i, cell := range row {
		values[i] = cell
	}

	_, err := s.srv.Spreadsheets.Values.Append(
		spreadsheetID,
		worksheet,
		&sheets.ValueRange{Values: [][]interface{}{values}},
	).ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return wrapAPIError(worksheet, err)
	}
	return nil
}

// ClearRange blanks a cell range (e.g. "A4:E200") on the worksheet.
func (s *Service) ClearRange(ctx context.Context, spreadsheetID, worksheet, cellRange string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	rangeRef := fmt.Sprintf("%s!%s", worksheet, cellRange)
	_, err := s.srv.Spreadsheets.Values.Clear(
		spreadsheetID,
		rangeRef,
		&sheets.ClearValuesRequest{},
	).Context(ctx).Do()
	if err != nil {
		return wrapAPIError(worksheet, err)
	}
	return nil
}

func cleanRow(raw []interface{}) []string {
	row := make([]string, len(raw))
	for i, cell := range raw {
		row[i] = strings.TrimSpace(strings.ReplaceAll(fmt.Sprint(cell), `"`, ""))
	}
	return row
}

// wrapAPIError maps service throttling to RateLimitError and everything else
// to DataSourceError so callers can distinguish retry-after from broken data.
func wrapAPIError(worksheet string, err error) error {
	if apiErr, ok := err.(*googleapi.Error); ok && apiErr.Code == 429 {
		return &domain.RateLimitError{Err: err}
	}
	return &domain.DataSourceError{Table: worksheet, Err: err}
}

var columnNameSanitizer = strings.NewReplacer(" ", "", "_", "", ".", "", "-", "", "/", "", "%", "")

func normalizeColumnName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	return columnNameSanitizer.Replace(name)
}
