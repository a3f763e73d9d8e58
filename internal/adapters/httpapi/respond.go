package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"peoplenet/internal/adapters/exports"
	"peoplenet/internal/blob"
	"peoplenet/pkg/domain"
)

type errorBody struct {
	Error  string              `json:"error"`
	Fields []domain.FieldError `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: message})
}

// errorResponse maps service errors onto status codes. Anything unclassified
// is a store failure and is reported without detail.
func errorResponse(err error) (int, errorBody) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		msg := verr.Message
		if msg == "" {
			msg = "validation failed"
		}
		return http.StatusBadRequest, errorBody{Error: msg, Fields: verr.Fields}
	case domain.IsNotFound(err):
		return http.StatusNotFound, errorBody{Error: err.Error()}
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, errorBody{Error: domain.ErrConflict.Error()}
	case errors.Is(err, exports.ErrUnsupportedFormat):
		return http.StatusBadRequest, errorBody{Error: err.Error()}
	case errors.Is(err, exports.ErrQueueFull):
		return http.StatusServiceUnavailable, errorBody{Error: err.Error()}
	case errors.Is(err, blob.ErrNotFound):
		return http.StatusNotFound, errorBody{Error: "artifact not found"}
	}
	return http.StatusInternalServerError, errorBody{Error: "internal server error"}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, body := errorResponse(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "request_id", RequestID(r.Context()), "error", err)
	}
	writeJSON(w, status, body)
}
