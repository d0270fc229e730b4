package web

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"fileproof/internal/service"
)

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// handleValidate accepts a multipart upload and starts an asynchronous
// validation run. The response carries the session ID; progress and the
// report are fetched through the session endpoints.
//
// Form fields:
//   - file:       the file to validate (required)
//   - delimiter:  pin the field separator instead of auto-detecting
//   - duplicates: "true" enables duplicate row detection
//   - max_errors: cap on recorded errors and warnings
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Validation.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		writeError(w, http.StatusBadRequest, "file too large or invalid form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	opts := service.Options{
		MaxErrors: s.cfg.Validation.MaxErrors,
	}

	if v := r.FormValue("delimiter"); v != "" {
		d, err := parseDelimiter(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		opts.Delimiter = d
	}
	if v := r.FormValue("duplicates"); v != "" {
		opts.CheckDuplicates, _ = strconv.ParseBool(v)
	}
	if v := r.FormValue("max_errors"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "max_errors must be a positive integer")
			return
		}
		opts.MaxErrors = n
	}

	// Stream the upload straight into the spool file, no io.ReadAll.
	sessionID, err := s.service.Start(header.Filename, file, opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	recordStarted(header.Filename)
	go s.observeCompletion(sessionID)

	writeJSON(w, map[string]string{"session_id": sessionID})
}

// observeCompletion waits for the run to finish and records its outcome.
func (s *Server) observeCompletion(sessionID string) {
	report, err := s.service.Result(sessionID)
	if err != nil {
		recordCompleted("failed", 0)
		return
	}
	recordCompleted(outcomeFor(report.Cancelled, report.Passed), report.TotalRows)
}

// handleProgress streams validation progress via Server-Sent Events.
// Supports resumption via lastEventId query parameter for reconnection.
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "missing session ID")
		return
	}

	// The event ID is the progress percentage, allowing clients to skip
	// already-received events after reconnection
	lastEventIDStr := r.URL.Query().Get("lastEventId")
	var lastEventID int
	if lastEventIDStr != "" {
		lastEventID, _ = strconv.Atoi(lastEventIDStr)
	}

	progressCh, err := s.service.SubscribeProgress(sessionID)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	for {
		select {
		case progress, ok := <-progressCh:
			if !ok {
				// Channel closed - run finished
				fmt.Fprintf(w, "event: complete\ndata: {}\n\n")
				flusher.Flush()
				return
			}

			currentPercent := int(progress.Percent)

			// Skip events that were already sent (for resumption)
			if lastEventIDStr != "" && currentPercent <= lastEventID {
				continue
			}

			data, _ := json.Marshal(progress)
			fmt.Fprintf(w, "id: %d\nevent: progress\ndata: %s\n\n", currentPercent, data)
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// handleCancel raises the run's cancellation flag.
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "missing session ID")
		return
	}

	if err := s.service.Cancel(sessionID); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"cancelled"}`))
}

// handleResult returns the finished report as JSON. Blocks until the
// run completes.
func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "missing session ID")
		return
	}

	report, err := s.service.Result(sessionID)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, report)
}

// handleReport returns the finished report in its plain text rendering.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "missing session ID")
		return
	}

	report, err := s.service.Result(sessionID)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(report.Render()))
}

// handleErrorsCSV exports the run's errors as a CSV download.
func (s *Server) handleErrorsCSV(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "missing session ID")
		return
	}

	report, err := s.service.Result(sessionID)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("validation_errors_%s.csv", timestamp)
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	if err := report.WriteErrorsCSV(w); err != nil {
		// Headers are already sent, just log
		slog.Error("csv export failed", "session_id", sessionID, "error", err)
	}
}

// parseDelimiter maps a form value to a single delimiter byte. Named
// values cover characters that are awkward to send literally.
func parseDelimiter(v string) (byte, error) {
	switch v {
	case "\\t", "tab":
		return '\t', nil
	}
	if len(v) != 1 || v[0] > 0x7f {
		return 0, fmt.Errorf("delimiter must be a single ASCII character")
	}
	return v[0], nil
}
