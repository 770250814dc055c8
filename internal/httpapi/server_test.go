package httpapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/binwise/internal/common"
	"github.com/Veraticus/binwise/internal/engine"
	"github.com/Veraticus/binwise/internal/history"
	"github.com/Veraticus/binwise/internal/model"
	"github.com/Veraticus/binwise/internal/service"
	"github.com/Veraticus/binwise/internal/testutil"
	"github.com/Veraticus/binwise/internal/wastebank"
)

type testServer struct {
	*httptest.Server
	db         *testutil.TestDB
	classifier *engine.MockClassifier
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithStorage(t, nil)
}

// newTestServerWithStorage wraps the test database with wrap when it is
// not nil, so tests can inject storage failures.
func newTestServerWithStorage(t *testing.T, wrap func(service.Storage) service.Storage) *testServer {
	t.Helper()

	db := testutil.SetupTestDB(t, testutil.User("alice"), testutil.User("bob"))
	banks, err := wastebank.DefaultSeed()
	require.NoError(t, err)
	require.NoError(t, db.Storage.SaveWasteBanks(context.Background(), banks))

	var store service.Storage = db.Storage
	if wrap != nil {
		store = wrap(store)
	}

	classifier := engine.NewMockClassifier()
	cfg := engine.DefaultConfig()
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg.Clock = func() time.Time { return time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC) }
	eng := engine.NewWithConfig(store, classifier, cfg)

	srv := New(eng, db.Storage, WithLogger(cfg.Logger))
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)

	return &testServer{Server: ts, db: db, classifier: classifier}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, ts.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func decodeError(t *testing.T, data []byte) errorResponse {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(data, &resp))
	return resp
}

func plasticResult() model.ScanResult {
	return model.ScanResult{
		IsWaste:             true,
		Category:            model.CategoryPlastic,
		ItemName:            "Botol plastik PET",
		EstimatedPricePerKg: 3500,
		ConfidenceScore:     92,
	}
}

func TestAnalyze(t *testing.T) {
	ts := newTestServer(t)

	t.Run("raw base64", func(t *testing.T) {
		resp, data := ts.do(t, http.MethodPost, "/api/analyze", analyzeRequest{
			Image:    base64.StdEncoding.EncodeToString([]byte("a plastic bottle")),
			MIMEType: "image/jpeg",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

		var result model.ScanResult
		require.NoError(t, json.Unmarshal(data, &result))
		assert.Equal(t, model.CategoryPlastic, result.Category)
		assert.True(t, result.IsWaste)
	})

	t.Run("data URL", func(t *testing.T) {
		img := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("banana peel"))
		resp, data := ts.do(t, http.MethodPost, "/api/analyze", analyzeRequest{Image: img})
		require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

		calls := ts.classifier.GetCalls()
		require.NotEmpty(t, calls)
		assert.Equal(t, "image/png", calls[len(calls)-1].Image.MIMEType)
	})

	t.Run("invalid base64", func(t *testing.T) {
		resp, data := ts.do(t, http.MethodPost, "/api/analyze", analyzeRequest{Image: "%%%"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "bad_request", decodeError(t, data).Code)
	})

	t.Run("classifier failure", func(t *testing.T) {
		ts.classifier.SetError(errors.New("model unavailable"))
		defer ts.classifier.SetError(nil)

		resp, data := ts.do(t, http.MethodPost, "/api/analyze", analyzeRequest{
			Image: base64.StdEncoding.EncodeToString([]byte("bottle")),
		})
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
		assert.Equal(t, "classification_failed", decodeError(t, data).Code)
	})
}

func TestCreateScanAndProfile(t *testing.T) {
	ts := newTestServer(t)

	resp, data := ts.do(t, http.MethodPost, "/api/users/alice/scans", createScanRequest{
		Result:   plasticResult(),
		WeightKg: 2.5,
		Note:     "from the kitchen",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))

	var created createScanResponse
	require.NoError(t, json.Unmarshal(data, &created))
	assert.NotEmpty(t, created.Entry.ID)
	assert.Equal(t, 25, created.Entry.PointsEarned)
	assert.Equal(t, 25, created.Profile.TotalPoints)
	assert.False(t, created.LeveledUp)
	assert.InDelta(t, 6.25, created.Impact.CO2Kg, 1e-9)

	stored := ts.db.MustGetProfile("alice")
	assert.Equal(t, 25, stored.TotalPoints)
	assert.Equal(t, 1, stored.TotalScanCount)

	resp, data = ts.do(t, http.MethodGet, "/api/users/alice/profile", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	var view engine.ProfileView
	require.NoError(t, json.Unmarshal(data, &view))
	assert.Equal(t, model.TierBronze, view.Level.Tier)
	assert.Equal(t, 975, view.PointsToNext)

	resp, data = ts.do(t, http.MethodGet, "/api/users/alice/ledger", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	var ledger []model.PointTransaction
	require.NoError(t, json.Unmarshal(data, &ledger))
	require.Len(t, ledger, 1)
	assert.Equal(t, created.Entry.ID, ledger[0].ScanID)
}

func TestCreateScanRejections(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		path   string
		body   createScanRequest
		status int
		code   string
	}{
		{
			name:   "zero weight",
			path:   "/api/users/alice/scans",
			body:   createScanRequest{Result: plasticResult(), WeightKg: 0},
			status: http.StatusUnprocessableEntity,
			code:   "invalid_weight",
		},
		{
			name:   "negative weight",
			path:   "/api/users/alice/scans",
			body:   createScanRequest{Result: plasticResult(), WeightKg: -1},
			status: http.StatusUnprocessableEntity,
			code:   "invalid_weight",
		},
		{
			name:   "weight beyond limit",
			path:   "/api/users/alice/scans",
			body:   createScanRequest{Result: plasticResult(), WeightKg: 1e19},
			status: http.StatusUnprocessableEntity,
			code:   "invalid_weight",
		},
		{
			name:   "unknown user",
			path:   "/api/users/nobody/scans",
			body:   createScanRequest{Result: plasticResult(), WeightKg: 1},
			status: http.StatusNotFound,
			code:   "not_found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, data := ts.do(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode, string(data))
			assert.Equal(t, tt.code, decodeError(t, data).Code)
		})
	}

	assert.Equal(t, 0, ts.db.MustGetProfile("alice").TotalScanCount)
}

func TestCreateScanKeepsNonWasteFlag(t *testing.T) {
	ts := newTestServer(t)

	resp, data := ts.do(t, http.MethodPost, "/api/users/alice/scans", createScanRequest{
		Result:   model.ScanResult{ItemName: "Kucing", IsWaste: false},
		WeightKg: 1,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))

	var created createScanResponse
	require.NoError(t, json.Unmarshal(data, &created))
	assert.False(t, created.Entry.Result.IsWaste)
	assert.Equal(t, model.CategoryResidual, created.Entry.Result.Category)
	assert.Equal(t, 10, created.Entry.PointsEarned)

	resp, data = ts.do(t, http.MethodGet, "/api/users/alice/history/"+created.Entry.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	var stored model.ScanHistoryEntry
	require.NoError(t, json.Unmarshal(data, &stored))
	assert.False(t, stored.Result.IsWaste)
	assert.Equal(t, 1, ts.db.MustGetProfile("alice").TotalScanCount)
}

// partialStorage hides RecordScan and fails profile updates so the engine
// takes the non-atomic path and reports a partial save.
type partialStorage struct {
	service.Storage
}

func (p partialStorage) UpdateProfile(context.Context, string, model.ProfileUpdate) error {
	return errors.New("write quota exceeded")
}

func TestCreateScanPartialSave(t *testing.T) {
	ts := newTestServerWithStorage(t, func(s service.Storage) service.Storage {
		return partialStorage{Storage: s}
	})

	resp, data := ts.do(t, http.MethodPost, "/api/users/alice/scans", createScanRequest{
		Result:   plasticResult(),
		WeightKg: 1,
	})
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	errResp := decodeError(t, data)
	assert.Equal(t, "partial_save", errResp.Code)
	require.NotEmpty(t, errResp.EntryID)

	entry, err := ts.db.Storage.GetHistoryEntry(context.Background(), errResp.EntryID)
	require.NoError(t, err)
	assert.Equal(t, "alice", entry.UserID)
	assert.Equal(t, 0, ts.db.MustGetProfile("alice").TotalPoints)
}

func TestHistoryEndpoints(t *testing.T) {
	ts := newTestServer(t)
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	bottle := ts.db.MustAddScan(testutil.Scan("alice", "Botol plastik", model.CategoryPlastic, 2, base))
	ts.db.MustAddScan(testutil.Scan("alice", "Kardus", model.CategoryPaper, 1, base.Add(time.Hour)))
	bobs := ts.db.MustAddScan(testutil.Scan("bob", "Kaleng", model.CategoryMetal, 1, base))

	t.Run("filter by category and search", func(t *testing.T) {
		resp, data := ts.do(t, http.MethodGet, "/api/users/alice/history?category=plastik&q=botol", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

		var summary history.Summary
		require.NoError(t, json.Unmarshal(data, &summary))
		require.Equal(t, 1, summary.Count)
		assert.Equal(t, bottle, summary.Entries[0].ID)
		assert.InDelta(t, 7000, summary.TotalValue, 1e-9)
	})

	t.Run("unknown category", func(t *testing.T) {
		resp, _ := ts.do(t, http.MethodGet, "/api/users/alice/history?category=glass", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("update status and note", func(t *testing.T) {
		status, note := "selesai", "dropped off"
		resp, data := ts.do(t, http.MethodPatch, "/api/users/alice/history/"+bottle, updateEntryRequest{
			ProcessingStatus: &status,
			Note:             &note,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

		var entry model.ScanHistoryEntry
		require.NoError(t, json.Unmarshal(data, &entry))
		assert.Equal(t, model.StatusDone, entry.ProcessingStatus)
		assert.Equal(t, "dropped off", entry.Note)
	})

	t.Run("invalid status", func(t *testing.T) {
		status := "lost"
		resp, _ := ts.do(t, http.MethodPatch, "/api/users/alice/history/"+bottle, updateEntryRequest{ProcessingStatus: &status})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("enrich", func(t *testing.T) {
		resp, data := ts.do(t, http.MethodPost, "/api/users/alice/history/"+bottle+"/enrich", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

		var entry model.ScanHistoryEntry
		require.NoError(t, json.Unmarshal(data, &entry))
		assert.Contains(t, entry.ExpandedSuggestion, "Botol plastik")
	})

	t.Run("other users entry is hidden", func(t *testing.T) {
		resp, _ := ts.do(t, http.MethodGet, "/api/users/alice/history/"+bobs, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		resp, _ = ts.do(t, http.MethodDelete, "/api/users/alice/history/"+bobs, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("delete", func(t *testing.T) {
		resp, _ := ts.do(t, http.MethodDelete, "/api/users/alice/history/"+bottle, nil)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp, _ = ts.do(t, http.MethodGet, "/api/users/alice/history/"+bottle, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestCreateUser(t *testing.T) {
	ts := newTestServer(t)

	resp, data := ts.do(t, http.MethodPost, "/api/users", createUserRequest{ID: "carol", Email: "carol@example.com"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))

	var profile model.UserProfile
	require.NoError(t, json.Unmarshal(data, &profile))
	assert.Equal(t, "carol", profile.ID)
	assert.Equal(t, model.TierBronze, profile.Level)

	resp, data = ts.do(t, http.MethodPost, "/api/users", createUserRequest{ID: "carol"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "already_exists", decodeError(t, data).Code)

	resp, _ = ts.do(t, http.MethodPost, "/api/users", map[string]string{"id": "dave", "role": "admin"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestNearestBanks(t *testing.T) {
	ts := newTestServer(t)

	resp, data := ts.do(t, http.MethodGet, "/api/banks/nearest?lat=-6.24&lng=106.80&category=organik&limit=2", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

	var ranked []wastebank.Ranked
	require.NoError(t, json.Unmarshal(data, &ranked))
	require.NotEmpty(t, ranked)
	assert.LessOrEqual(t, len(ranked), 2)
	for i, r := range ranked {
		assert.True(t, r.Bank.Accepts(model.CategoryOrganic), r.Bank.Name)
		if i > 0 {
			assert.GreaterOrEqual(t, r.DistanceKm, ranked[i-1].DistanceKm)
		}
	}

	for _, query := range []string{"lat=abc&lng=1", "lat=-6&lng=200", "lat=1&lng=1&limit=0", "lat=1&lng=1&category=kaca"} {
		resp, _ := ts.do(t, http.MethodGet, "/api/banks/nearest?"+query, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, query)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("wrapped: %w", common.ErrInvalidWeight), http.StatusUnprocessableEntity},
		{&common.PartialSaveError{EntryID: "e1", Err: errors.New("boom")}, http.StatusInternalServerError},
		{fmt.Errorf("%w: %w", common.ErrPersistenceFailed, common.ErrNotFound), http.StatusNotFound},
		{common.ErrPersistenceFailed, http.StatusInternalServerError},
		{errors.New("unexpected"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		status, _ := statusFor(tt.err)
		assert.Equal(t, tt.status, status, tt.err.Error())
	}
}
