package httpapi

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Veraticus/binwise/internal/engine"
	"github.com/Veraticus/binwise/internal/history"
	"github.com/Veraticus/binwise/internal/model"
	"github.com/Veraticus/binwise/internal/scoring"
	"github.com/Veraticus/binwise/internal/wastebank"
)

const smallBodyLimit = 64 << 10

type analyzeRequest struct {
	Image    string `json:"image"`
	MIMEType string `json:"mime_type"`
}

type createUserRequest struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	PhotoRef    string `json:"photo_ref"`
}

type createScanRequest struct {
	Location *model.Location  `json:"location"`
	ImageRef string           `json:"image_ref"`
	Note     string           `json:"note"`
	Result   model.ScanResult `json:"result"`
	WeightKg float64          `json:"weight_kg"`
}

type createScanResponse struct {
	Entry     model.ScanHistoryEntry `json:"entry"`
	Profile   model.UserProfile      `json:"profile"`
	Level     scoring.Level          `json:"level"`
	Impact    scoring.Impact         `json:"impact"`
	LeveledUp bool                   `json:"leveled_up"`
}

type updateEntryRequest struct {
	ProcessingStatus *string `json:"processing_status"`
	Note             *string `json:"note"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	// base64 inflates by 4/3; leave room for the JSON envelope.
	limit := int64(s.maxImageBytes)*4/3 + smallBodyLimit
	if err := decodeJSON(w, r, limit, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	image, err := decodeImage(req.Image, req.MIMEType)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(image.Data) > s.maxImageBytes {
		s.writeError(w, r, fmt.Errorf("%w: image exceeds %d bytes", errBadRequest, s.maxImageBytes))
		return
	}

	result, err := s.engine.Classify(r.Context(), image)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

// decodeImage accepts raw base64 or a data URL such as
// "data:image/png;base64,....". A MIME type in the data URL wins.
func decodeImage(raw, mimeType string) (model.ScanImage, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return model.ScanImage{}, fmt.Errorf("%w: image is required", errBadRequest)
	}

	if rest, ok := strings.CutPrefix(raw, "data:"); ok {
		header, payload, found := strings.Cut(rest, ",")
		if !found || !strings.HasSuffix(header, ";base64") {
			return model.ScanImage{}, fmt.Errorf("%w: malformed data URL", errBadRequest)
		}
		if mt := strings.TrimSuffix(header, ";base64"); mt != "" {
			mimeType = mt
		}
		raw = payload
	}

	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return model.ScanImage{}, fmt.Errorf("%w: image is not valid base64: %w", errBadRequest, err)
	}
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return model.ScanImage{MIMEType: mimeType, Data: data}, nil
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(w, r, smallBodyLimit, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	profile, err := s.engine.Register(r.Context(), model.UserProfile{
		ID:          strings.TrimSpace(req.ID),
		Email:       req.Email,
		DisplayName: req.DisplayName,
		PhotoRef:    req.PhotoRef,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, profile)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	view, err := s.engine.Profile(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	txns, err := s.engine.Ledger(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if txns == nil {
		txns = []model.PointTransaction{}
	}
	s.writeJSON(w, http.StatusOK, txns)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	category, ok := history.ParseCategoryFilter(q.Get("category"))
	if !ok {
		s.writeError(w, r, fmt.Errorf("%w: unknown category %q", errBadRequest, q.Get("category")))
		return
	}

	summary, err := s.engine.History(r.Context(), chi.URLParam(r, "userID"), history.Filter{
		Search:   strings.TrimSpace(q.Get("q")),
		Category: category,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleCreateScan(w http.ResponseWriter, r *http.Request) {
	var req createScanRequest
	if err := decodeJSON(w, r, smallBodyLimit, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	entry, pending, err := s.engine.Record(r.Context(), engine.ScanInput{
		UserID:   chi.URLParam(r, "userID"),
		Location: req.Location,
		ImageRef: req.ImageRef,
		Note:     req.Note,
		Result:   req.Result,
		WeightKg: req.WeightKg,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, createScanResponse{
		Entry:     entry,
		Profile:   pending.Profile,
		Level:     pending.Level,
		Impact:    scoring.EstimateImpact(pending.Profile.TotalWasteKg),
		LeveledUp: pending.LeveledUp(),
	})
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := s.engine.Entry(r.Context(), chi.URLParam(r, "userID"), chi.URLParam(r, "entryID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	var req updateEntryRequest
	if err := decodeJSON(w, r, smallBodyLimit, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	var update model.HistoryUpdate
	if req.ProcessingStatus != nil {
		status, ok := model.ParseProcessingStatus(*req.ProcessingStatus)
		if !ok {
			s.writeError(w, r, fmt.Errorf("%w: unknown processing status %q", errBadRequest, *req.ProcessingStatus))
			return
		}
		update.ProcessingStatus = &status
	}
	update.Note = req.Note

	entry, err := s.engine.UpdateEntry(r.Context(), chi.URLParam(r, "userID"), chi.URLParam(r, "entryID"), update)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.DeleteEntry(r.Context(), chi.URLParam(r, "userID"), chi.URLParam(r, "entryID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEnrichEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := s.engine.Enrich(r.Context(), chi.URLParam(r, "userID"), chi.URLParam(r, "entryID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleNearestBanks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	lng, errLng := strconv.ParseFloat(q.Get("lng"), 64)
	if errLat != nil || errLng != nil || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		s.writeError(w, r, fmt.Errorf("%w: lat and lng must be valid coordinates", errBadRequest))
		return
	}

	category, ok := history.ParseCategoryFilter(q.Get("category"))
	if !ok {
		s.writeError(w, r, fmt.Errorf("%w: unknown category %q", errBadRequest, q.Get("category")))
		return
	}

	limit := defaultNearestLimit
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.writeError(w, r, fmt.Errorf("%w: limit must be a positive integer", errBadRequest))
			return
		}
		limit = n
	}

	banks, err := s.banks.GetWasteBanks(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ranked := wastebank.Nearest(banks, model.Coordinates{Latitude: lat, Longitude: lng}, wastebank.Query{
		Category:     category,
		Limit:        limit,
		VerifiedOnly: q.Get("verified") == "true",
	})
	s.writeJSON(w, http.StatusOK, ranked)
}
