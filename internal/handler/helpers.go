package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/dukerupert/weeklycart/internal/model"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps the domain error kinds onto HTTP statuses: unknown ids
// are 404, validation and import problems are the caller's fault,
// everything else is ours.
func writeError(w http.ResponseWriter, err error) {
	var nferr *model.NotFoundError
	if errors.As(err, &nferr) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": nferr.Error()})
		return
	}
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": verr.Message})
		return
	}
	var ierr *model.ImportError
	if errors.As(err, &ierr) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": ierr.Message})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

func parseItemIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("item_id"), 10, 64)
}
