package errors

import (
	"net/http"

	"github.com/go-chi/render"
)

// AnalysisError is the structured failure shape of the file analyzer. It
// carries a stable code, a user-facing message, and remediation suggestions.
type AnalysisError struct {
	Code             string   `json:"code"`
	UserMessage      string   `json:"user_message"`
	Suggestions      []string `json:"suggestions"`
	TechnicalDetails string   `json:"technical_details,omitempty"`
}

// Error implements the error interface
func (e *AnalysisError) Error() string {
	return e.UserMessage
}

// Analyzer error codes
const (
	CodeEmptyFile       = "EMPTY_FILE"
	CodeAnalysisFailed  = "ANALYSIS_FAILED"
	CodeMissingFilePath = "MISSING_FILE_PATH"
	CodeFileNotFound    = "FILE_NOT_FOUND"
)

// NewEmptyFileError reports a file with no readable data.
func NewEmptyFileError() *AnalysisError {
	return &AnalysisError{
		Code:        CodeEmptyFile,
		UserMessage: "The file appears to be empty or has no readable data.",
		Suggestions: []string{
			"Check that the file contains data",
			"Try opening the file in Excel to verify it's valid",
			"Try uploading a different file",
		},
	}
}

// NewAnalysisFailedError wraps an underlying read failure.
func NewAnalysisFailedError(err error) *AnalysisError {
	return &AnalysisError{
		Code:        CodeAnalysisFailed,
		UserMessage: "Unable to analyze file: " + err.Error(),
		Suggestions: []string{
			"Check that the file is a valid CSV or Excel file",
			"Try opening the file in Excel to verify it's not corrupted",
			"Try re-exporting the file from your source system",
		},
		TechnicalDetails: err.Error(),
	}
}

// NewMissingFilePathError reports a request without a file reference.
func NewMissingFilePathError() *AnalysisError {
	return &AnalysisError{
		Code:        CodeMissingFilePath,
		UserMessage: "No file path provided for analysis.",
		Suggestions: []string{"Please upload a file first"},
	}
}

// NewUploadNotFoundError reports a stale file reference.
func NewUploadNotFoundError() *AnalysisError {
	return &AnalysisError{
		Code:        CodeFileNotFound,
		UserMessage: "The uploaded file could not be found.",
		Suggestions: []string{
			"Try uploading the file again",
			"Check that the file was uploaded successfully",
		},
	}
}

// AnalysisErrorResponse is the HTTP envelope for analyzer failures.
type AnalysisErrorResponse struct {
	Success bool           `json:"success"`
	Err     *AnalysisError `json:"error"`

	statusCode int
}

// NewAnalysisErrorResponse wraps an analysis error for rendering.
func NewAnalysisErrorResponse(err *AnalysisError, statusCode int) *AnalysisErrorResponse {
	if statusCode == 0 {
		statusCode = http.StatusBadRequest
	}
	return &AnalysisErrorResponse{Err: err, statusCode: statusCode}
}

// Render implements the render.Renderer interface
func (e *AnalysisErrorResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.statusCode)
	return nil
}
