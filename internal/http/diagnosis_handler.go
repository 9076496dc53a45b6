package httpapi

import (
	"net/http"
	"strings"

	"github.com/reponseashimwe/ml-pipeline-database/internal/service"

	"go.uber.org/zap"
)

const diagnosisPath = "/api/v1/diagnosis"

// DiagnosisHandler /api/v1/diagnosis plus the health endpoints
type DiagnosisHandler struct {
	diagnoses *service.DiagnosisService
	logger    *zap.Logger
}

func NewDiagnosisHandler(diagnoses *service.DiagnosisService, logger *zap.Logger) *DiagnosisHandler {
	return &DiagnosisHandler{diagnoses: diagnoses, logger: logger}
}

func (h *DiagnosisHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, diagnosisPath), "/")
	switch {
	case rest == "latest":
		h.GetLatestDiagnosis(w, r)
	case rest != "" && !strings.Contains(rest, "/"):
		h.ListDiagnoses(w, r, rest)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// GetLatestDiagnosis ?child_id= is optional
func (h *DiagnosisHandler) GetLatestDiagnosis(w http.ResponseWriter, r *http.Request) {
	d, err := h.diagnoses.GetLatestDiagnosis(r.Context(), r.URL.Query().Get("child_id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(d))
}

func (h *DiagnosisHandler) ListDiagnoses(w http.ResponseWriter, r *http.Request, rawID string) {
	id, err := parseID(rawID, "measurement_id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	items, err := h.diagnoses.ListDiagnoses(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(items))
}

func (h *DiagnosisHandler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]string{"status": "ok"}))
}

func (h *DiagnosisHandler) DatabaseStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	st, err := h.diagnoses.DatabaseStatus(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(st))
}
