package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"sunburst/internal/operations"
	api "sunburst/pkg/contracts/api/v1"
	"sunburst/pkg/contracts/domain"
)

// processGeneric starts the build job and streams its progress to the
// client as server-sent events. Each event is a JSON-encoded
// domain.ProgressEvent; the terminal event carries done or error and ends
// the stream.
func (h *ChartHandler) processGeneric(w http.ResponseWriter, r *http.Request, req api.ProcessRequest) {
	start := time.Now()

	job, err := h.service.Process(r.Context(), req)
	if err != nil {
		h.metrics.RecordChart("generic", false, time.Since(start))
		h.errors.HandleError(w, r, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.errors.HandleError(w, r, fmt.Errorf("streaming unsupported by connection"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	var failed bool
	err = operations.Consume(r.Context(), job.Events(), h.cfg.Processing.ProgressTimeout, func(ev domain.ProgressEvent) error {
		if ev.Error != "" {
			failed = true
		}
		return writeEvent(w, flusher, ev)
	})
	if err != nil {
		// client went away or progress stalled; the job keeps its own
		// context and finishes or times out on its own
		h.logger.WarnContext(r.Context(), "progress stream interrupted",
			slog.String("job_id", job.ID),
			slog.String("error", err.Error()))
		job.Cancel()
		h.metrics.RecordChart("generic", false, time.Since(start))
		return
	}

	h.metrics.RecordChart("generic", !failed, time.Since(start))
}

func writeEvent(w http.ResponseWriter, flusher http.Flusher, ev domain.ProgressEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
