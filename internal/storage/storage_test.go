package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorage_StatDistinguishesMissing(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStorage("http://example.invalid")

	_, err := m.StatObject(ctx, "b", "in/1/input.pdf")
	assert.ErrorIs(t, err, ErrNotFound)

	m.Put("b", "in/1/input.pdf", []byte("%PDF"), "application/pdf")
	info, err := m.StatObject(ctx, "b", "in/1/input.pdf")
	require.NoError(t, err)
	assert.Equal(t, int64(4), info.Size)

	denied := errors.New("access denied")
	m.FailOn("stat", denied)
	_, err = m.StatObject(ctx, "b", "in/1/input.pdf")
	assert.ErrorIs(t, err, denied)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 3, m.Calls("stat"))
}

func TestMemoryStorage_DownloadUpload(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	m := NewMemoryStorage("http://example.invalid")
	m.Put("b", "src", []byte("payload"), "")

	dest := filepath.Join(dir, "nested", "src.bin")
	require.NoError(t, m.DownloadObject(ctx, "b", "src", dest))
	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(got))

	require.NoError(t, m.UploadObject(ctx, "b", "dst", dest, "text/plain"))
	stored, ok := m.Get("b", "dst")
	require.True(t, ok)
	assert.Equal(t, "payload", string(stored))

	assert.ErrorIs(t, m.DownloadObject(ctx, "b", "missing", dest), ErrNotFound)
}

func TestMemoryStorage_PresignedLinkRoundTrip(t *testing.T) {
	m := NewMemoryStorage("")
	srv := httptest.NewServer(m)
	defer srv.Close()
	m.SetBaseURL(srv.URL)

	m.Put("b", "in/1/output.xlsx", []byte("xlsx-bytes"), "application/octet-stream")
	link, err := m.PresignGetObject(context.Background(), "b", "in/1/output.xlsx", time.Hour)
	require.NoError(t, err)
	assert.Contains(t, link, "/b/in/1/output.xlsx?")

	resp, err := http.Get(link)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "xlsx-bytes", string(body))

	tampered := strings.Replace(link, "output.xlsx", "input.pdf", 1)
	resp2, err := http.Get(tampered)
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp2.StatusCode)
}

func TestMemoryStorage_ExpiredLink(t *testing.T) {
	m := NewMemoryStorage("")
	srv := httptest.NewServer(m)
	defer srv.Close()
	m.SetBaseURL(srv.URL)
	m.Put("b", "k", []byte("x"), "")

	link, err := m.PresignGetObject(context.Background(), "b", "k", time.Second)
	require.NoError(t, err)

	m.SetClock(func() time.Time { return time.Now().Add(time.Hour) })
	resp, err := http.Get(link)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		in       string
		ssl      bool
		wantHost string
		wantSSL  bool
	}{
		{"s3.amazonaws.com", true, "s3.amazonaws.com", true},
		{"http://localhost:9000", true, "localhost:9000", false},
		{"https://minio.internal/", false, "minio.internal", true},
		{"//storage.local:9000/", false, "storage.local:9000", false},
	}
	for _, tt := range tests {
		host, ssl, err := normalizeEndpoint(tt.in, tt.ssl)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.wantHost, host, tt.in)
		assert.Equal(t, tt.wantSSL, ssl, tt.in)
	}

	_, _, err := normalizeEndpoint("  ", true)
	assert.Error(t, err)
}
