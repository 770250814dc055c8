package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/Veraticus/binwise/internal/common"
	"github.com/Veraticus/binwise/internal/service"
)

const (
	reportSheetTitle = "Scans"
	reportColumns    = 9
	// Zero-based column holding rupiah amounts in the details section.
	valueColumn = 6
)

// ReportWriter writes a scan report somewhere.
type ReportWriter interface {
	Write(ctx context.Context, report Report) error
}

// Writer implements ReportWriter for Google Sheets.
type Writer struct {
	service *sheets.Service
	logger  *slog.Logger
	config  Config
}

// NewWriter creates a new Google Sheets report writer.
func NewWriter(ctx context.Context, config Config, logger *slog.Logger) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	srv, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Writer{
		config:  config,
		service: srv,
		logger:  logger,
	}, nil
}

// Write replaces the report sheet's contents with the report.
func (w *Writer) Write(ctx context.Context, report Report) error {
	w.logger.Info("Starting report export",
		"user_id", report.UserID,
		"scans", len(report.Scans))

	spreadsheetID, err := w.getOrCreateSpreadsheet(ctx)
	if err != nil {
		return fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	if clearErr := w.clearSheet(ctx, spreadsheetID); clearErr != nil {
		return fmt.Errorf("failed to clear sheet: %w", clearErr)
	}

	values := prepareReportData(report, w.location())

	retryOpts := service.RetryOptions{
		MaxAttempts:  max(w.config.RetryAttempts, 1),
		InitialDelay: w.config.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}

	err = common.WithRetry(ctx, func() error {
		return w.writeData(ctx, spreadsheetID, values)
	}, retryOpts)
	if err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}

	if w.config.EnableFormatting {
		err = common.WithRetry(ctx, func() error {
			return w.applyFormatting(ctx, spreadsheetID, len(values))
		}, retryOpts)
		if err != nil {
			w.logger.Warn("Failed to apply formatting", "error", err)
		}
	}

	w.logger.Info("Report export completed",
		"spreadsheet_id", spreadsheetID,
		"rows_written", len(values))
	return nil
}

func (w *Writer) location() *time.Location {
	if w.config.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(w.config.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func createSheetsService(ctx context.Context, config Config) (*sheets.Service, error) {
	var tokenSource oauth2.TokenSource

	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath) // #nosec G304
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}
		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		oauthConfig := newOAuthConfig(config.ClientID, config.ClientSecret, "")
		tokenSource = oauthConfig.TokenSource(ctx, &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		})
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(oauth2.NewClient(ctx, tokenSource)))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}
	return srv, nil
}

func (w *Writer) getOrCreateSpreadsheet(ctx context.Context) (string, error) {
	if w.config.SpreadsheetID != "" {
		if _, err := w.service.Spreadsheets.Get(w.config.SpreadsheetID).Context(ctx).Do(); err != nil {
			return "", fmt.Errorf("unable to access spreadsheet %s: %w", w.config.SpreadsheetID, err)
		}
		return w.config.SpreadsheetID, nil
	}

	spreadsheet := &sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{
			Title:    w.config.SpreadsheetName,
			TimeZone: w.config.TimeZone,
		},
		Sheets: []*sheets.Sheet{
			{Properties: &sheets.SheetProperties{Title: reportSheetTitle}},
		},
	}

	created, err := w.service.Spreadsheets.Create(spreadsheet).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to create spreadsheet: %w", err)
	}

	w.logger.Info("Created new spreadsheet",
		"id", created.SpreadsheetId,
		"url", created.SpreadsheetUrl)
	return created.SpreadsheetId, nil
}

func (w *Writer) clearSheet(ctx context.Context, spreadsheetID string) error {
	_, err := w.service.Spreadsheets.Values.Clear(spreadsheetID, "A:Z", &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

// prepareReportData lays the report out as rows: a title, the profile
// summary, the category breakdown and then one row per scan, newest first.
func prepareReportData(report Report, loc *time.Location) [][]any {
	values := make([][]any, 0, 16+len(report.Categories)+len(report.Scans))

	period := "no scans"
	if !report.DateRange.Start.IsZero() {
		period = fmt.Sprintf("%s - %s",
			report.DateRange.Start.In(loc).Format("2 Jan 2006"),
			report.DateRange.End.In(loc).Format("2 Jan 2006"))
	}
	name := report.DisplayName
	if name == "" {
		name = report.UserID
	}

	values = append(values,
		[]any{"Scan Report", name, period},
		[]any{},
		[]any{"Summary"},
		[]any{"Level", string(report.Tier)},
		[]any{"Total Points", report.TotalPoints},
		[]any{"Scans", len(report.Scans)},
		[]any{"Weight (kg)", report.TotalKg},
		[]any{"Estimated Value (Rp)", report.TotalValue.IntPart()},
		[]any{"CO2 Avoided (kg)", report.Impact.CO2Kg},
		[]any{"Trees Saved", report.Impact.TreesSaved},
		[]any{"Water Saved (L)", report.Impact.WaterLiters},
		[]any{},
		[]any{"Category Breakdown"},
		[]any{"Category", "Count", "Weight (kg)", "Value (Rp)"},
	)

	for _, c := range report.Categories {
		values = append(values, []any{c.Category, c.Count, c.WeightKg, c.Value.IntPart()})
	}

	values = append(values,
		[]any{},
		[]any{"Scan Details"},
		[]any{"Date", "Item", "Category", "Weight (kg)", "Points", "Price (Rp/kg)", "Value (Rp)", "Status", "Note"},
	)

	for _, s := range report.Scans {
		values = append(values, []any{
			s.Date.In(loc).Format("2006-01-02 15:04"),
			s.Item,
			s.Category,
			s.WeightKg,
			s.Points,
			s.PricePerKg.IntPart(),
			s.Value.IntPart(),
			s.Status,
			s.Note,
		})
	}

	return values
}

func (w *Writer) writeData(ctx context.Context, spreadsheetID string, values [][]any) error {
	for i := 0; i < len(values); i += w.config.BatchSize {
		end := min(i+w.config.BatchSize, len(values))
		batch := values[i:end]

		rangeStr := fmt.Sprintf("%s!A%d", reportSheetTitle, i+1)
		_, err := w.service.Spreadsheets.Values.Update(spreadsheetID, rangeStr, &sheets.ValueRange{Values: batch}).
			ValueInputOption("USER_ENTERED").
			Context(ctx).
			Do()
		if err != nil {
			return fmt.Errorf("failed to write batch starting at row %d: %w", i+1, err)
		}

		w.logger.Debug("Wrote batch", "start_row", i+1, "rows", len(batch))
	}
	return nil
}

func (w *Writer) applyFormatting(ctx context.Context, spreadsheetID string, totalRows int) error {
	bold := func(startRow, endRow, endCol int64, size int64) *sheets.Request {
		return &sheets.Request{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					StartRowIndex:    startRow,
					EndRowIndex:      endRow,
					StartColumnIndex: 0,
					EndColumnIndex:   endCol,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{Bold: true, FontSize: size},
					},
				},
				Fields: "userEnteredFormat.textFormat",
			},
		}
	}

	requests := []*sheets.Request{
		bold(0, 1, 3, 14),
		bold(2, int64(totalRows), 1, 10),
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					StartRowIndex:    0,
					EndRowIndex:      int64(totalRows),
					StartColumnIndex: valueColumn,
					EndColumnIndex:   valueColumn + 1,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						NumberFormat: &sheets.NumberFormat{Type: "CURRENCY", Pattern: `"Rp"#,##0`},
					},
				},
				Fields: "userEnteredFormat.numberFormat",
			},
		},
		{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   reportColumns,
				},
			},
		},
		{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					GridProperties: &sheets.GridProperties{FrozenRowCount: 1},
				},
				Fields: "gridProperties.frozenRowCount",
			},
		},
	}

	_, err := w.service.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	return err
}
