package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/reponseashimwe/ml-pipeline-database/internal/domain"

	"go.uber.org/zap"
)

// maxBodyBytes request body cap
const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// queryInt returns def when the parameter is absent and a validation error when it is not an integer.
func queryInt(r *http.Request, name string, def int) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, nil
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, domain.Invalid(name, "must be an integer")
	}
	return i, nil
}

func parseID(s, field string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Invalid(field, "must be a positive integer")
	}
	return id, nil
}

func readBodyJSON(r *http.Request, maxBytes int64, out any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return domain.Invalid("body", "invalid JSON: "+err.Error())
	}
	return nil
}

// writeError maps error kinds to HTTP statuses. Dependency and persistence details stay in the log.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, FailFields(verr.Error(), verr.Fields))
			return
		}
		writeJSON(w, http.StatusBadRequest, Fail(err.Error()))
	case domain.KindNotFound:
		writeJSON(w, http.StatusNotFound, Fail(err.Error()))
	case domain.KindConflict:
		writeJSON(w, http.StatusConflict, Fail(err.Error()))
	case domain.KindDependency:
		logger.Error("Classifier dependency failed", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, Fail("diagnosis service unavailable"))
	default:
		logger.Error("Request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("internal server error"))
	}
}
