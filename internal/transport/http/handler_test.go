package http

import (
	"bufio"
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sunburst/internal/config"
	"sunburst/internal/metrics"
	"sunburst/internal/services"
	api "sunburst/pkg/contracts/api/v1"
	"sunburst/pkg/contracts/domain"
)

const salesCSV = `region,country,product,revenue
EMEA,Germany,Widgets,100
EMEA,Germany,Gadgets,50
EMEA,France,Widgets,80
APAC,Japan,Widgets,120
APAC,Japan,Gadgets,30
APAC,China,Widgets,90
LATAM,Brazil,Widgets,60
LATAM,Brazil,Gadgets,40
EMEA,France,Gadgets,20
APAC,China,Gadgets,10
LATAM,Chile,Widgets,70
EMEA,Germany,Sprockets,25
`

func newTestServer(t *testing.T) (*httptest.Server, *config.Config) {
	return newTestServerTuned(t, nil)
}

// newTestServerTuned lets a test adjust the config before the router is built.
func newTestServerTuned(t *testing.T, tune func(*config.Config)) (*httptest.Server, *config.Config) {
	t.Helper()
	dir := t.TempDir()

	cfg := &config.Config{}
	cfg.Paths.DataDir = dir
	cfg.Paths.UploadDir = filepath.Join(dir, "raw")
	cfg.Processing.PreviewRows = 10
	cfg.Processing.MaxCountedRows = 100000
	cfg.Processing.ProfileRows = 1000
	cfg.Processing.ProgressBuffer = 64
	cfg.Processing.ProgressTimeout = 5 * time.Second
	cfg.Processing.OperationTimeout = time.Minute
	cfg.Processing.Palette = "ocean"
	cfg.Upload.MaxSizeBytes = 1 << 20
	cfg.Upload.RateRPS = 100
	cfg.Upload.RateBurst = 100
	require.NoError(t, os.MkdirAll(cfg.Paths.UploadDir, 0o755))
	if tune != nil {
		tune(cfg)
	}

	svc, err := services.NewChartService(cfg, nil, nil)
	require.NoError(t, err)

	srv := httptest.NewServer(NewRouter(cfg, svc, metrics.New(), nil))
	t.Cleanup(srv.Close)
	return srv, cfg
}

// uploadFile posts content as a multipart upload and returns the stored name.
func uploadFile(t *testing.T, srv *httptest.Server, name, content string) string {
	t.Helper()

	resp := postMultipart(t, srv, name, content)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var uploaded api.UploadResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&uploaded))
	require.NotEmpty(t, uploaded.FilePath)
	return uploaded.FilePath
}

func postJSON(t *testing.T, srv *httptest.Server, path string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := http.Post(srv.URL+path, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	return resp
}

func TestUploadEndpoint(t *testing.T) {
	srv, cfg := newTestServer(t)

	stored := uploadFile(t, srv, "sales.csv", salesCSV)
	assert.True(t, strings.HasSuffix(stored, ".csv"))

	_, err := os.Stat(cfg.UploadPath(stored))
	assert.NoError(t, err)
}

func TestUploadRejectsUnknownType(t *testing.T) {
	srv, _ := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "script.sh")
	require.NoError(t, err)
	part.Write([]byte("#!/bin/sh"))
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/api/upload", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAnalyzeEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	stored := uploadFile(t, srv, "sales.csv", salesCSV)

	resp := postJSON(t, srv, "/api/analyze", api.AnalyzeRequest{FilePath: stored})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var analyzed api.AnalyzeResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&analyzed))
	assert.True(t, analyzed.Success)
	assert.Equal(t, 0, analyzed.SuggestedHeaderRow)
	assert.False(t, analyzed.IsSecurityReport)
}

func TestAnalyzeMissingBodyField(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv, "/api/analyze", map[string]string{})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestFileInfoEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	stored := uploadFile(t, srv, "sales.csv", salesCSV)

	resp, err := http.Get(srv.URL + "/api/file-info?filePath=" + stored)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var info api.FileInfoResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	assert.Equal(t, 12, info.RowCount)
	assert.Len(t, info.Columns, 4)
}

func TestValidateColumnsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	stored := uploadFile(t, srv, "sales.csv", salesCSV)

	resp := postJSON(t, srv, "/api/validate-columns", api.ValidateColumnsRequest{
		FilePath:    stored,
		TreeOrder:   []string{"region", "country", "product"},
		ValueColumn: "revenue",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var validated api.ValidateColumnsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&validated))
	assert.True(t, validated.Valid)
}

func TestProcessStreamsProgress(t *testing.T) {
	srv, cfg := newTestServer(t)
	stored := uploadFile(t, srv, "sales.csv", salesCSV)

	resp := postJSON(t, srv, "/api/process", api.ProcessRequest{
		FilePath:    stored,
		ChartName:   "Revenue",
		TreeOrder:   []string{"region", "country", "product"},
		ValueColumn: "revenue",
		SessionID:   "sess-http",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	var events []domain.ProgressEvent
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev domain.ProgressEvent
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev))
		events = append(events, ev)
	}

	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.True(t, last.Done)
	assert.Empty(t, last.Error)

	_, err := os.Stat(cfg.ArtifactPath("sess-http"))
	assert.NoError(t, err)
}

func TestProcessRejectsAmbiguousMode(t *testing.T) {
	srv, _ := newTestServer(t)
	stored := uploadFile(t, srv, "sales.csv", salesCSV)

	resp := postJSON(t, srv, "/api/process", api.ProcessRequest{FilePath: stored})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDataEndpoint(t *testing.T) {
	srv, cfg := newTestServer(t)

	artifact := []byte(`{"chart_name":"Revenue","data":{"name":"Revenue","value":850,"children":[]}}`)
	require.NoError(t, os.WriteFile(cfg.ArtifactPath("sess-d"), artifact, 0o644))

	resp, err := http.Get(srv.URL + "/api/data?session_id=sess-d")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "Revenue", payload["chart_name"])
}

func TestDataEndpointNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/data?session_id=nothing")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTableDataQueryFilters(t *testing.T) {
	srv, cfg := newTestServer(t)
	stored := uploadFile(t, srv, "sales.csv", salesCSV)

	meta := domain.ChartMetadata{
		ChartName:   "Revenue",
		TreeOrder:   []string{"region", "country", "product"},
		ValueColumn: "revenue",
		SourceFile:  stored,
	}
	data, err := json.Marshal(meta)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(cfg.ArtifactPath("sess-t"), data, 0o644))

	resp, err := http.Get(srv.URL + "/api/table-data?session_id=sess-t&paginate=false&region=EMEA")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var page api.TableDataResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	assert.Equal(t, 5, page.Total)
	for _, row := range page.Data {
		assert.Equal(t, "EMEA", row["region"])
	}
}

func TestHealthAndMetrics(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	metricsResp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer metricsResp.Body.Close()
	assert.Equal(t, http.StatusOK, metricsResp.StatusCode)
}

func TestRequestIDHeader(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

// postMultipart posts content as a multipart upload without asserting status.
func postMultipart(t *testing.T, srv *httptest.Server, name, content string) *http.Response {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/api/upload", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	return resp
}

func decodeErrorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body struct {
		Error struct {
			ErrorCode string `json:"error_code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.Error.ErrorCode
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	srv, _ := newTestServerTuned(t, func(cfg *config.Config) {
		cfg.Upload.MaxSizeBytes = 512
	})

	resp := postMultipart(t, srv, "big.csv", strings.Repeat("a,b,c\n", 200))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	assert.Equal(t, "PAYLOAD_TOO_LARGE", decodeErrorCode(t, resp))
}

func TestUploadRateLimited(t *testing.T) {
	srv, _ := newTestServerTuned(t, func(cfg *config.Config) {
		cfg.Upload.RateRPS = 0.01
		cfg.Upload.RateBurst = 1
	})

	uploadFile(t, srv, "sales.csv", salesCSV)

	resp := postMultipart(t, srv, "sales.csv", salesCSV)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "60", resp.Header.Get("Retry-After"))
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", decodeErrorCode(t, resp))
}
