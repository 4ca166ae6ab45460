package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"sunburst/internal/config"
	apperrors "sunburst/internal/errors"
	"sunburst/internal/metrics"
	"sunburst/internal/services"
	api "sunburst/pkg/contracts/api/v1"
)

// ChartHandler serves the chart-building API.
type ChartHandler struct {
	cfg      *config.Config
	service  *services.ChartService
	metrics  *metrics.Metrics
	errors   *apperrors.ErrorHandler
	validate *validator.Validate
	logger   *slog.Logger
}

// NewChartHandler creates the handler with its collaborators.
func NewChartHandler(cfg *config.Config, svc *services.ChartService, m *metrics.Metrics, eh *apperrors.ErrorHandler, logger *slog.Logger) *ChartHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChartHandler{
		cfg:      cfg,
		service:  svc,
		metrics:  m,
		errors:   eh,
		validate: validator.New(),
		logger:   logger.With(slog.String("handler", "charts")),
	}
}

// Upload handles POST /api/upload (multipart form, field "file").
func (h *ChartHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.Upload.MaxSizeBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		h.metrics.RecordUpload(false)
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.errors.HandleError(w, r, apperrors.ErrPayloadTooLarge)
			return
		}
		h.errors.HandleError(w, r, apperrors.ErrValidation("file", "A file is required in the 'file' form field"))
		return
	}
	defer file.Close()

	stored, err := h.service.SaveUpload(header.Filename, file)
	if err != nil {
		h.metrics.RecordUpload(false)
		h.errors.HandleError(w, r, err)
		return
	}

	h.metrics.RecordUpload(true)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, api.UploadResponse{
		Message:  "File uploaded successfully",
		FilePath: stored,
	})
}

// Analyze handles POST /api/analyze.
func (h *ChartHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req api.AnalyzeRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errors.HandleError(w, r, apperrors.ErrInvalidRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.errors.HandleError(w, r, validationError(err))
		return
	}

	resp, err := h.service.Analyze(r.Context(), req)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	h.metrics.RecordAnalysis()
	render.JSON(w, r, resp)
}

// FileInfo handles GET /api/file-info?filePath=...&headerRow=N&skipRows=N.
func (h *ChartHandler) FileInfo(w http.ResponseWriter, r *http.Request) {
	fileName := r.URL.Query().Get("filePath")
	headerRow := queryInt(r, "headerRow", 0)
	skipRows := queryInt(r, "skipRows", 0)

	resp, err := h.service.FileInfo(r.Context(), fileName, headerRow, skipRows)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, resp)
}

// ValidateColumns handles POST /api/validate-columns.
func (h *ChartHandler) ValidateColumns(w http.ResponseWriter, r *http.Request) {
	var req api.ValidateColumnsRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errors.HandleError(w, r, apperrors.ErrInvalidRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.errors.HandleError(w, r, validationError(err))
		return
	}

	resp, err := h.service.ValidateColumns(r.Context(), req)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, resp)
}

// Process handles POST /api/process. Generic requests stream progress as
// server-sent events; legacy requests run synchronously and return the
// report metadata.
func (h *ChartHandler) Process(w http.ResponseWriter, r *http.Request) {
	var req api.ProcessRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errors.HandleError(w, r, apperrors.ErrInvalidRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.errors.HandleError(w, r, validationError(err))
		return
	}

	if req.Generic() {
		h.processGeneric(w, r, req)
		return
	}
	if req.ClientName == "" {
		h.errors.HandleError(w, r, apperrors.ErrValidation("chartName",
			"Provide chartName, treeOrder and valueColumn for a generic chart, or clientName for a fixed-schema report"))
		return
	}
	h.processLegacy(w, r, req)
}

func (h *ChartHandler) processLegacy(w http.ResponseWriter, r *http.Request, req api.ProcessRequest) {
	start := time.Now()
	meta, err := h.service.ProcessLegacy(r.Context(), req)
	if err != nil {
		h.metrics.RecordChart("legacy", false, time.Since(start))
		h.errors.HandleError(w, r, err)
		return
	}

	h.metrics.RecordChart("legacy", true, time.Since(start))
	render.JSON(w, r, meta)
}

// Data handles GET /api/data?session_id=... and returns the raw artifact.
func (h *ChartHandler) Data(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.Data(r.Context(), r.URL.Query().Get("session_id"))
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Write(data)
}

// reservedTableParams are the query parameters that configure paging; every
// other parameter is treated as a column filter.
var reservedTableParams = map[string]struct{}{
	"session_id": {}, "page": {}, "items_per_page": {}, "paginate": {},
}

// TableDataQuery handles GET /api/table-data. Unreserved query parameters
// become column equality filters.
func (h *ChartHandler) TableDataQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	req := api.TableDataRequest{
		SessionID:    q.Get("session_id"),
		Page:         queryInt(r, "page", 1),
		ItemsPerPage: queryInt(r, "items_per_page", 20),
		Paginate:     q.Get("paginate") != "false",
		Filters:      make(map[string]string),
	}
	for key, values := range q {
		if _, reserved := reservedTableParams[key]; reserved || len(values) == 0 {
			continue
		}
		req.Filters[key] = values[0]
	}

	h.tableData(w, r, req)
}

// TableDataBody handles POST /api/table-data with a JSON body.
func (h *ChartHandler) TableDataBody(w http.ResponseWriter, r *http.Request) {
	var req api.TableDataRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errors.HandleError(w, r, apperrors.ErrInvalidRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.errors.HandleError(w, r, validationError(err))
		return
	}
	h.tableData(w, r, req)
}

func (h *ChartHandler) tableData(w http.ResponseWriter, r *http.Request, req api.TableDataRequest) {
	resp, err := h.service.TableData(r.Context(), req)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, resp)
}

// validationError converts a validator failure into the API's structured
// validation error, naming the first offending field.
func validationError(err error) *apperrors.APIError {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return apperrors.ErrValidation(fe.Field(), fmt.Sprintf("failed %q validation", fe.Tag()))
	}
	return apperrors.ErrValidationFailed
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
