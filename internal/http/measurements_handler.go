package httpapi

import (
	"net/http"
	"strings"

	"github.com/reponseashimwe/ml-pipeline-database/internal/service"

	"go.uber.org/zap"
)

const measurementsPath = "/api/v1/measurements"

// MeasurementsHandler /api/v1/measurements
type MeasurementsHandler struct {
	measurements *service.MeasurementService
	logger       *zap.Logger
}

func NewMeasurementsHandler(measurements *service.MeasurementService, logger *zap.Logger) *MeasurementsHandler {
	return &MeasurementsHandler{measurements: measurements, logger: logger}
}

func (h *MeasurementsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, measurementsPath), "/")

	switch {
	case rest == "" && r.Method == http.MethodPost:
		h.CreateMeasurement(w, r)
	case rest == "":
		w.WriteHeader(http.StatusMethodNotAllowed)
	case strings.Contains(rest, "/"):
		w.WriteHeader(http.StatusNotFound)
	case r.Method == http.MethodGet:
		h.GetMeasurement(w, r, rest)
	case r.Method == http.MethodPut:
		h.UpdateMeasurement(w, r, rest)
	case r.Method == http.MethodDelete:
		h.DeleteMeasurement(w, r, rest)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *MeasurementsHandler) CreateMeasurement(w http.ResponseWriter, r *http.Request) {
	var body createMeasurementBody
	if err := readBodyJSON(r, maxBodyBytes, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := validateStruct(body); err != nil {
		writeError(w, h.logger, err)
		return
	}

	m, err := h.measurements.CreateMeasurement(r.Context(), service.CreateMeasurementRequest{
		ChildID:          body.ChildID,
		MeasurementInput: body.input(),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(m))
}

func (h *MeasurementsHandler) GetMeasurement(w http.ResponseWriter, r *http.Request, rawID string) {
	id, err := parseID(rawID, "measurement_id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	m, err := h.measurements.GetMeasurement(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(m))
}

func (h *MeasurementsHandler) UpdateMeasurement(w http.ResponseWriter, r *http.Request, rawID string) {
	id, err := parseID(rawID, "measurement_id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var body measurementBody
	if err := readBodyJSON(r, maxBodyBytes, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := validateStruct(body); err != nil {
		writeError(w, h.logger, err)
		return
	}

	m, err := h.measurements.UpdateMeasurement(r.Context(), service.UpdateMeasurementRequest{
		MeasurementID:    id,
		MeasurementInput: body.input(),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(m))
}

func (h *MeasurementsHandler) DeleteMeasurement(w http.ResponseWriter, r *http.Request, rawID string) {
	id, err := parseID(rawID, "measurement_id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.measurements.DeleteMeasurement(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]int64{"measurement_id": id}))
}
