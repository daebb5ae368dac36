package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andresuchdata/draftq-processor/internal/api/middleware"
	"github.com/andresuchdata/draftq-processor/internal/poller"
	"github.com/andresuchdata/draftq-processor/internal/service"
	"github.com/andresuchdata/draftq-processor/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBucket = "draftq"

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) (*gin.Engine, *storage.MemoryStorage) {
	t.Helper()
	mem := storage.NewMemoryStorage("")
	links := httptest.NewServer(mem)
	t.Cleanup(links.Close)
	mem.SetBaseURL(links.URL)

	p := poller.New(mem, poller.Options{Timeout: 100 * time.Millisecond, Interval: 20 * time.Millisecond})
	svc := service.NewProcessService(mem, p, nil, nil, service.ProcessConfig{
		Bucket:     testBucket,
		ScratchDir: t.TempDir(),
	})
	return NewRouter(&Services{ProcessService: svc}, []string{"*"}), mem
}

func doJSON(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHome(t *testing.T) {
	router, _ := newTestRouter(t)
	w := doJSON(router, http.MethodGet, "/", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]any{"service": "DraftQ Processor", "status": "running"}, decode(t, w))
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestProcess_Success(t *testing.T) {
	router, mem := newTestRouter(t)
	mem.Put(testBucket, "in/1/input.pdf", []byte("%PDF"), "application/pdf")

	w := doJSON(router, http.MethodPost, "/process", `{"s3_key":"in/1/input.pdf"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "Excel BOQ generated successfully", body["message"])
	assert.Equal(t, "in/1/output.xlsx", body["output_key"])
	url, _ := body["download_url"].(string)
	assert.Contains(t, url, "in/1/output.xlsx")

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	got, _ := io.ReadAll(resp.Body)
	stored, _ := mem.Get(testBucket, "in/1/output.xlsx")
	assert.Equal(t, stored, got)
}

func TestProcess_MissingKey(t *testing.T) {
	router, mem := newTestRouter(t)

	for _, body := range []string{`{}`, `{"s3_key":""}`, `{"file_key":"in/1/input.pdf"}`, ``, `not json`} {
		w := doJSON(router, http.MethodPost, "/process", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.NotEmpty(t, decode(t, w)["error"], body)
	}
	assert.Zero(t, mem.TotalCalls())
}

func TestProcess_NotFound(t *testing.T) {
	router, mem := newTestRouter(t)

	w := doJSON(router, http.MethodPost, "/process", `{"s3_key":"in/404/input.pdf"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "File not found in S3 after waiting", decode(t, w)["error"])
	assert.Zero(t, mem.Calls("upload"))
}

func TestProcess_BackendError(t *testing.T) {
	router, mem := newTestRouter(t)
	mem.Put(testBucket, "in/1/input.pdf", []byte("x"), "")
	mem.FailOn("upload", assert.AnError)

	w := doJSON(router, http.MethodPost, "/process", `{"s3_key":"in/1/input.pdf"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, decode(t, w), "error")
}

func TestJobs(t *testing.T) {
	router, mem := newTestRouter(t)
	mem.Put(testBucket, "in/1/input.pdf", []byte("x"), "")
	require.Equal(t, http.StatusOK, doJSON(router, http.MethodPost, "/process", `{"s3_key":"in/1/input.pdf"}`).Code)

	w := doJSON(router, http.MethodGet, "/jobs?limit=5", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, 1, body["count"])
	jobs := body["jobs"].([]any)
	assert.Equal(t, "succeeded", jobs[0].(map[string]any)["status"])
}

func TestJobs_RecordsRejectedKeys(t *testing.T) {
	router, _ := newTestRouter(t)
	w := doJSON(router, http.MethodPost, "/process", `{"s3_key":"  "}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing 's3_key' in JSON body", decode(t, w)["error"])

	body := decode(t, doJSON(router, http.MethodGet, "/jobs", ""))
	assert.EqualValues(t, 1, body["count"])
	jobs := body["jobs"].([]any)
	assert.Equal(t, "invalid", jobs[0].(map[string]any)["status"])
}

func TestHealthAndRequestID(t *testing.T) {
	router := NewRouter(nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(middleware.RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc-123", w.Header().Get(middleware.RequestIDHeader))
}

func TestNormalizeAllowedOrigins(t *testing.T) {
	origins, all := normalizeAllowedOrigins([]string{"http://a.test, http://b.test", " "})
	assert.False(t, all)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, origins)

	_, all = normalizeAllowedOrigins([]string{"*"})
	assert.True(t, all)
}
