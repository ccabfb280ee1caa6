package httpapi

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"log/slog"
)

const defaultPageSize = 50

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Default().Error("failed to encode response", "err", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func respondList(w http.ResponseWriter, items any, count int) {
	respondJSON(w, http.StatusOK, map[string]any{
		"data":  items,
		"count": count,
	})
}

// parsePage reads offset and limit query parameters. ok is false when a response was written.
func parsePage(w http.ResponseWriter, query url.Values) (offset, limit int, ok bool) {
	offset, limit = 0, defaultPageSize
	if v := query.Get("offset"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			respondError(w, http.StatusBadRequest, "invalid offset parameter")
			return 0, 0, false
		}
		offset = parsed
	}
	if v := query.Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			respondError(w, http.StatusBadRequest, "invalid limit parameter")
			return 0, 0, false
		}
		limit = parsed
	}
	return offset, limit, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON payload")
		return false
	}
	return true
}
