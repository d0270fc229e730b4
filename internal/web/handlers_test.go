package web

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fileproof/internal/config"
	"fileproof/internal/service"
	"fileproof/internal/validate"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 0},
		Validation: config.ValidationConfig{
			MaxFileSize: 10 << 20,
			MaxErrors:   1000,
		},
		Rate:    config.RateLimitConfig{Enabled: false},
		Logging: config.LoggingConfig{Level: "error", Format: "text"},
	}
	return NewServer(cfg, service.New(t.TempDir()))
}

// multipartBody builds a multipart form with a file part and extra fields.
func multipartBody(t *testing.T, fileName, content string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = io.WriteString(fw, content)
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

// startValidation posts a file and returns the session ID.
func startValidation(t *testing.T, s *Server, fileName, content string, fields map[string]string) string {
	t.Helper()
	body, contentType := multipartBody(t, fileName, content, fields)
	req := httptest.NewRequest(http.MethodPost, "/api/validate", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp["session_id"])
	return resp["session_id"]
}

func TestValidateEndpoint(t *testing.T) {
	s := newTestServer(t)

	id := startValidation(t, s, "ok.csv", "a,b,c\n1,2,3\n", nil)

	req := httptest.NewRequest(http.MethodGet, "/api/validate/"+id+"/result", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var report validate.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.True(t, report.Passed)
	assert.Equal(t, "ok.csv", report.FileName)
	assert.Equal(t, 2, report.TotalRows)
}

func TestValidateRejectsMissingFile(t *testing.T) {
	s := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("duplicates", "true"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/validate", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "no file provided")
}

func TestValidateRejectsBadDelimiter(t *testing.T) {
	s := newTestServer(t)

	body, contentType := multipartBody(t, "a.csv", "a,b\n", map[string]string{"delimiter": ",,"})
	req := httptest.NewRequest(http.MethodPost, "/api/validate", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestValidateRejectsBadMaxErrors(t *testing.T) {
	s := newTestServer(t)

	body, contentType := multipartBody(t, "a.csv", "a,b\n", map[string]string{"max_errors": "-1"})
	req := httptest.NewRequest(http.MethodPost, "/api/validate", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "max_errors")
}

func TestValidateWithOptions(t *testing.T) {
	s := newTestServer(t)

	id := startValidation(t, s, "dup.csv", "h1|h2\nx|y\nx|y\n", map[string]string{
		"delimiter":  "|",
		"duplicates": "true",
	})

	req := httptest.NewRequest(http.MethodGet, "/api/validate/"+id+"/result", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var report validate.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "|", report.Delimiter)
	assert.Len(t, report.Duplicates, 2)
}

func TestResultUnknownSession(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/validate/does-not-exist/result", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCancelUnknownSession(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/validate/does-not-exist/cancel", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCancelEndpoint(t *testing.T) {
	s := newTestServer(t)

	id := startValidation(t, s, "ok.csv", "a,b\n1,2\n", nil)

	req := httptest.NewRequest(http.MethodPost, "/api/validate/"+id+"/cancel", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"cancelled"}`, rec.Body.String())
}

func TestReportEndpoint(t *testing.T) {
	s := newTestServer(t)

	id := startValidation(t, s, "ok.csv", "a,b\n1,2\n", nil)

	req := httptest.NewRequest(http.MethodGet, "/api/validate/"+id+"/report", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, rec.Body.String(), "DATA FILE VALIDATION REPORT")
	assert.Contains(t, rec.Body.String(), "VALIDATION RESULT: PASSED")
}

func TestErrorsCSVEndpoint(t *testing.T) {
	s := newTestServer(t)

	id := startValidation(t, s, "bad.csv", "a,b,c\n1,2\n", nil)

	req := httptest.NewRequest(http.MethodGet, "/api/validate/"+id+"/errors.csv", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, rec.Body.String(), "Row Number,Error Type,Description,Row Content Preview")
	assert.Contains(t, rec.Body.String(), "COLUMN_COUNT_MISMATCH")
}

func TestProgressStream(t *testing.T) {
	s := newTestServer(t)

	id := startValidation(t, s, "ok.csv", "a,b\n1,2\n", nil)

	// Let the run finish so the subscription drains and closes promptly.
	reqResult := httptest.NewRequest(http.MethodGet, "/api/validate/"+id+"/result", nil)
	s.Router().ServeHTTP(httptest.NewRecorder(), reqResult)

	req := httptest.NewRequest(http.MethodGet, "/api/validate/"+id+"/progress", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	body := rec.Body.String()
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Contains(t, body, "event: progress")
	assert.Contains(t, body, "event: complete")
}

func TestProgressUnknownSession(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/validate/does-not-exist/progress", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSecurityHeaders(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)

	assert.True(t, rl.allow("10.0.0.1"))
	assert.True(t, rl.allow("10.0.0.1"))
	assert.False(t, rl.allow("10.0.0.1"))
	// Other IPs are unaffected
	assert.True(t, rl.allow("10.0.0.2"))
}

func TestParseDelimiter(t *testing.T) {
	tests := []struct {
		in      string
		want    byte
		wantErr bool
	}{
		{",", ',', false},
		{"|", '|', false},
		{"tab", '\t', false},
		{`\t`, '\t', false},
		{";", ';', false},
		{"", 0, true},
		{",,", 0, true},
	}
	for _, tt := range tests {
		got, err := parseDelimiter(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}
