package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/reponseashimwe/ml-pipeline-database/internal/service"

	"go.uber.org/zap"
)

const childrenPath = "/api/v1/children"

// ChildrenHandler /api/v1/children
type ChildrenHandler struct {
	children     *service.ChildService
	measurements *service.MeasurementService
	logger       *zap.Logger
}

func NewChildrenHandler(children *service.ChildService, measurements *service.MeasurementService, logger *zap.Logger) *ChildrenHandler {
	return &ChildrenHandler{
		children:     children,
		measurements: measurements,
		logger:       logger,
	}
}

func (h *ChildrenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, childrenPath), "/")
	parts := strings.Split(rest, "/")

	switch {
	case rest == "" && r.Method == http.MethodGet:
		h.ListChildren(w, r)
	case rest == "" && r.Method == http.MethodPost:
		h.CreateChild(w, r)
	case rest == "":
		w.WriteHeader(http.StatusMethodNotAllowed)
	case rest == "export" && r.Method == http.MethodGet:
		h.ExportChildren(w, r)
	case len(parts) == 1 && r.Method == http.MethodGet:
		h.GetChild(w, r, parts[0])
	case len(parts) == 1 && r.Method == http.MethodPut:
		h.UpdateChild(w, r, parts[0])
	case len(parts) == 1 && r.Method == http.MethodDelete:
		h.DeleteChild(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "measurements" && r.Method == http.MethodGet:
		h.ListMeasurements(w, r, parts[0])
	case len(parts) <= 2:
		w.WriteHeader(http.StatusMethodNotAllowed)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *ChildrenHandler) CreateChild(w http.ResponseWriter, r *http.Request) {
	var body createChildBody
	if err := readBodyJSON(r, maxBodyBytes, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := validateStruct(body); err != nil {
		writeError(w, h.logger, err)
		return
	}

	req := service.CreateChildRequest{ChildID: body.ChildID, Gender: body.Gender}
	if body.Measurement != nil {
		if err := validateStruct(body.Measurement); err != nil {
			writeError(w, h.logger, err)
			return
		}
		in := body.Measurement.input()
		req.InitialMeasurement = &in
	}

	resp, err := h.children.CreateChild(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(resp))
}

func (h *ChildrenHandler) ListChildren(w http.ResponseWriter, r *http.Request) {
	page, err := readPage(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	q := r.URL.Query()
	resp, err := h.children.ListChildren(r.Context(), service.ListChildrenRequest{
		Skip:           page.Skip,
		Limit:          page.Limit,
		StuntingStatus: q.Get("stunting_status"),
		WastingStatus:  q.Get("wasting_status"),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

func (h *ChildrenHandler) GetChild(w http.ResponseWriter, r *http.Request, childID string) {
	child, err := h.children.GetChild(r.Context(), childID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(child))
}

func (h *ChildrenHandler) UpdateChild(w http.ResponseWriter, r *http.Request, childID string) {
	var body updateChildBody
	if err := readBodyJSON(r, maxBodyBytes, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := validateStruct(body); err != nil {
		writeError(w, h.logger, err)
		return
	}

	child, err := h.children.UpdateChild(r.Context(), service.UpdateChildRequest{ChildID: childID, Gender: body.Gender})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(child))
}

func (h *ChildrenHandler) DeleteChild(w http.ResponseWriter, r *http.Request, childID string) {
	if err := h.children.DeleteChild(r.Context(), childID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]string{"child_id": childID}))
}

func (h *ChildrenHandler) ListMeasurements(w http.ResponseWriter, r *http.Request, childID string) {
	page, err := readPage(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	resp, err := h.measurements.ListMeasurements(r.Context(), service.ListMeasurementsRequest{
		ChildID: childID,
		Skip:    page.Skip,
		Limit:   page.Limit,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

func (h *ChildrenHandler) ExportChildren(w http.ResponseWriter, r *http.Request) {
	children, err := h.children.ExportChildren(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	data, err := GenerateChildrenExport(children)
	if err != nil {
		h.logger.Error("Failed to generate children export", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to generate export"))
		return
	}

	filename := fmt.Sprintf("children-%s.xlsx", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// readPage reads skip/limit; limit defaults to 100
func readPage(r *http.Request) (pageQuery, error) {
	skip, err := queryInt(r, "skip", 0)
	if err != nil {
		return pageQuery{}, err
	}
	limit, err := queryInt(r, "limit", service.DefaultLimit)
	if err != nil {
		return pageQuery{}, err
	}
	page := pageQuery{Skip: skip, Limit: limit}
	return page, validateStruct(page)
}
