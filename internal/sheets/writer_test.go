package sheets

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/binwise/internal/history"
	"github.com/Veraticus/binwise/internal/model"
)

func reportFixture() (model.UserProfile, history.Summary) {
	profile := model.UserProfile{
		ID:           "alice",
		DisplayName:  "Alice",
		Level:        model.TierSilver,
		TotalPoints:  1500,
		TotalWasteKg: 150,
	}

	base := time.Date(2024, 5, 1, 2, 0, 0, 0, time.UTC)
	entries := []model.ScanHistoryEntry{
		{
			Timestamp:        base,
			WeightKg:         0.3,
			PointsEarned:     3,
			ProcessingStatus: model.StatusPending,
			Result: model.ScanResult{
				Category:            model.CategoryPlastic,
				ItemName:            "Botol",
				EstimatedPricePerKg: 3500,
			},
		},
		{
			Timestamp:        base.Add(48 * time.Hour),
			WeightKg:         1.1,
			PointsEarned:     11,
			ProcessingStatus: model.StatusDone,
			Note:             "setor",
			Result: model.ScanResult{
				Category:            model.CategoryPaper,
				ItemName:            "Kardus",
				EstimatedPricePerKg: 2000,
			},
		},
	}
	return profile, history.FilterAndSummarize(entries, history.Filter{})
}

func TestBuildReport(t *testing.T) {
	profile, summary := reportFixture()
	report := BuildReport(profile, summary)

	assert.Equal(t, "alice", report.UserID)
	assert.Equal(t, model.TierSilver, report.Tier)
	assert.Equal(t, 15, report.Impact.TreesSaved)
	require.Len(t, report.Scans, 2)
	require.Len(t, report.Categories, 2)

	// Newest first.
	assert.Equal(t, "Kardus", report.Scans[0].Item)
	assert.True(t, decimal.NewFromInt(2200).Equal(report.Scans[0].Value))
	assert.True(t, decimal.NewFromInt(1050).Equal(report.Scans[1].Value))
	assert.True(t, decimal.NewFromInt(3250).Equal(report.TotalValue))

	assert.Equal(t, summary.Entries[1].Timestamp, report.DateRange.Start)
	assert.Equal(t, summary.Entries[0].Timestamp, report.DateRange.End)
}

func TestPrepareReportData(t *testing.T) {
	profile, summary := reportFixture()
	loc, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)

	values := prepareReportData(BuildReport(profile, summary), loc)

	assert.Equal(t, []any{"Scan Report", "Alice", "1 May 2024 - 3 May 2024"}, values[0])
	assert.Equal(t, []any{"Total Points", 1500}, values[4])
	assert.Equal(t, []any{"Estimated Value (Rp)", int64(3250)}, values[7])

	last := values[len(values)-1]
	require.Len(t, last, reportColumns)
	assert.Equal(t, "2024-05-01 09:00", last[0])
	assert.Equal(t, "Botol", last[1])
	assert.Equal(t, int64(1050), last[valueColumn])
}

func TestPrepareReportDataEmpty(t *testing.T) {
	report := BuildReport(model.UserProfile{ID: "bob"}, history.Summary{})
	values := prepareReportData(report, time.UTC)

	assert.Equal(t, []any{"Scan Report", "bob", "no scans"}, values[0])
	assert.Equal(t, []any{"Date", "Item", "Category", "Weight (kg)", "Points", "Price (Rp/kg)", "Value (Rp)", "Status", "Note"}, values[len(values)-1])
}

func TestMockWriter(t *testing.T) {
	mock := NewMockWriter()
	var _ ReportWriter = mock

	require.NoError(t, mock.Write(context.Background(), Report{UserID: "alice"}))
	mock.SetWriteError(errors.New("quota"))
	assert.Error(t, mock.Write(context.Background(), Report{UserID: "bob"}))

	calls := mock.GetWriteCalls()
	require.Len(t, calls, 2)
	assert.NoError(t, calls[0].Error)
	assert.Equal(t, "bob", mock.LastReport.UserID)
}

func TestCallbackHandler(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantCode string
		wantErr  bool
		status   int
	}{
		{name: "success", query: "?state=s1&code=abc", wantCode: "abc", status: http.StatusOK},
		{name: "state mismatch", query: "?state=evil&code=abc", wantErr: true, status: http.StatusBadRequest},
		{name: "denied", query: "?state=s1&error=access_denied", wantErr: true, status: http.StatusBadRequest},
		{name: "missing code", query: "?state=s1", wantErr: true, status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := make(chan callbackResult, 1)
			rec := httptest.NewRecorder()
			callbackHandler("s1", results).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback"+tt.query, nil))

			assert.Equal(t, tt.status, rec.Code)
			res := <-results
			if tt.wantErr {
				assert.Error(t, res.err)
			} else {
				require.NoError(t, res.err)
				assert.Equal(t, tt.wantCode, res.code)
			}
		})
	}
}
