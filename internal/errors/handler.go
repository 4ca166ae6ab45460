package errors

import (
	"context"
	goerrors "errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"sunburst/internal/infrastructure"
)

// ErrorHandler provides centralized error handling for HTTP handlers.
type ErrorHandler struct {
	logger *slog.Logger
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *slog.Logger) *ErrorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ErrorHandler{
		logger: logger.With(slog.String("component", "error_handler")),
	}
}

// HandleError logs the error with request context and writes the structured
// response. Unknown error values are reported as internal server errors so no
// internals leak to the caller.
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	traceID := infrastructure.GetTraceID(r.Context())

	h.logger.ErrorContext(r.Context(), "request failed",
		slog.String("error", err.Error()),
		slog.String("trace_id", traceID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	var apiErr *APIError
	if goerrors.As(err, &apiErr) {
		render.Render(w, r, NewErrorResponse(apiErr))
		return
	}

	var analysisErr *AnalysisError
	if goerrors.As(err, &analysisErr) {
		render.Render(w, r, NewAnalysisErrorResponse(analysisErr, statusForAnalysisError(analysisErr)))
		return
	}

	switch {
	case goerrors.Is(err, context.Canceled):
		render.Render(w, r, NewErrorResponse(New(499, "REQUEST_CANCELLED", "Request was cancelled")))
	case goerrors.Is(err, context.DeadlineExceeded):
		render.Render(w, r, NewErrorResponse(New(http.StatusGatewayTimeout, "TIMEOUT", "Request timed out")))
	default:
		render.Render(w, r, NewErrorResponse(ErrInternalServer))
	}
}

func statusForAnalysisError(err *AnalysisError) int {
	switch err.Code {
	case CodeFileNotFound:
		return http.StatusNotFound
	case CodeAnalysisFailed:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
