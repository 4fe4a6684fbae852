package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/courtroom-viz/internal/types"
)

func fastOptions() *Options {
	opts := DefaultOptions()
	opts.InitialBackoff = time.Millisecond
	return opts
}

func TestURL_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html><body><h1>Incident Report</h1></body></html>"))
	}))
	defer server.Close()

	result, err := URL(context.Background(), server.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, server.URL, result.URL)
	assert.Contains(t, string(result.Body), "<h1>Incident Report</h1>")
	assert.Equal(t, http.StatusOK, result.StatusCode)
}

func TestURL_InvalidURL(t *testing.T) {
	for _, raw := range []string{"not-a-valid-url", "ftp://example.com/report.pdf"} {
		_, err := URL(context.Background(), raw, nil)
		require.Error(t, err)

		var fetchErr *Error
		assert.ErrorAs(t, err, &fetchErr)
		assert.Contains(t, err.Error(), "invalid URL")
	}
}

func TestURL_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	result, err := URL(context.Background(), server.URL, fastOptions())
	require.Error(t, err)
	assert.NotNil(t, result) // Result is returned even on error
	assert.Equal(t, http.StatusNotFound, result.StatusCode)
	assert.EqualValues(t, 1, calls.Load())

	var fetchErr *Error
	assert.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, err.Error(), "404")
}

func TestURL_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("witness statement"))
	}))
	defer server.Close()

	result, err := URL(context.Background(), server.URL, fastOptions())
	require.NoError(t, err)
	assert.Equal(t, "witness statement", string(result.Body))
	assert.EqualValues(t, 3, calls.Load())
}

func TestURL_GivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := URL(context.Background(), server.URL, fastOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.EqualValues(t, DefaultRetries+1, calls.Load())
}

func TestURL_TooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(make([]byte, 64))
	}))
	defer server.Close()

	opts := fastOptions()
	opts.MaxBytes = 16
	_, err := URL(context.Background(), server.URL, opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds 16 bytes")
}

func TestDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body><p>Docket entry 14</p></body></html>"))
	}))
	defer server.Close()

	doc, err := Document(context.Background(), server.URL+"/dockets/14", nil)
	require.NoError(t, err)
	assert.Equal(t, "14.html", doc.Filename)
	assert.Equal(t, types.MediaHTML, doc.Kind)
	assert.Contains(t, string(doc.Data), "Docket entry 14")
}

func TestDocumentName(t *testing.T) {
	tests := []struct {
		url         string
		contentType string
		want        string
	}{
		{"https://example.com/reports/police.pdf", "application/octet-stream", "police.pdf"},
		{"https://example.com/reports/police", "application/pdf", "police.pdf"},
		{"https://example.com/", "text/html", "example.com.html"},
		{"https://example.com/photos/scene", "image/jpeg", "scene.jpg"},
		{"https://example.com/notes", "", "notes"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, DocumentName(tt.url, tt.contentType))
		})
	}
}
