package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/Veraticus/binwise/internal/common"
	"github.com/Veraticus/binwise/internal/storage"
)

var errBadRequest = errors.New("bad request")

type errorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	EntryID string `json:"entry_id,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("Failed to encode response", "error", err)
	}
}

// statusFor maps an engine or storage error onto an HTTP status and a
// stable machine-readable code.
func statusFor(err error) (int, string) {
	var partial *common.PartialSaveError
	switch {
	case errors.As(err, &partial):
		return http.StatusInternalServerError, "partial_save"
	case errors.Is(err, common.ErrInvalidWeight):
		return http.StatusUnprocessableEntity, "invalid_weight"
	case errors.Is(err, common.ErrClassificationFailed):
		return http.StatusBadGateway, "classification_failed"
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, common.ErrAlreadyExists):
		return http.StatusConflict, "already_exists"
	case errors.Is(err, errBadRequest),
		errors.Is(err, storage.ErrInvalidStatus),
		errors.Is(err, storage.ErrInvalidProfile),
		errors.Is(err, storage.ErrEmptyString):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, common.ErrPersistenceFailed):
		return http.StatusInternalServerError, "persistence_failed"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	resp := errorResponse{Error: err.Error(), Code: code}

	var partial *common.PartialSaveError
	if errors.As(err, &partial) {
		resp.EntryID = partial.EntryID
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", "path", r.URL.Path, "status", status, "error", err)
	} else {
		s.logger.Debug("Request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	s.writeJSON(w, status, resp)
}

// decodeJSON reads a single JSON object bounded by limit bytes.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, dst any) error {
	body := http.MaxBytesReader(w, r.Body, limit)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %w", errBadRequest, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: body must contain a single JSON object", errBadRequest)
	}
	return nil
}
