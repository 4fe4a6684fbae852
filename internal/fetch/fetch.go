// Package fetch retrieves remote case documents (hosted reports, docket pages,
// evidence photos) so they can be analyzed like uploaded files.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/jonathan/courtroom-viz/internal/types"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; CourtroomViz/1.0)"

// DefaultMaxBytes caps the size of a fetched document
const DefaultMaxBytes = 25 << 20

// DefaultRetries is how many times a transient failure is retried
const DefaultRetries = 2

// Result holds the raw content from a URL fetch.
type Result struct {
	URL         string
	Body        []byte
	ContentType string
	StatusCode  int
}

// Error represents an error during URL fetching.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures the fetch behavior.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
	MaxBytes  int64
	// Retries applies to network errors and 5xx responses
	Retries        int
	InitialBackoff time.Duration
	Client         *http.Client
	// BlockPrivate refuses connections to loopback, private, link-local and
	// other non-public addresses. Client's transport is replaced when set.
	BlockPrivate bool
}

// DefaultOptions returns sensible defaults for fetching.
func DefaultOptions() *Options {
	return &Options{
		Timeout:        DefaultTimeout,
		UserAgent:      DefaultUserAgent,
		MaxBytes:       DefaultMaxBytes,
		Retries:        DefaultRetries,
		InitialBackoff: time.Second,
	}
}

// URL retrieves the body of a URL, retrying transient failures.
func URL(ctx context.Context, urlStr string, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	// Validate URL
	parsedURL, err := url.Parse(urlStr)
	if err != nil || parsedURL.Host == "" || (parsedURL.Scheme != "http" && parsedURL.Scheme != "https") {
		return nil, &Error{
			URL:     urlStr,
			Message: "invalid URL",
			Cause:   err,
		}
	}

	client := opts.Client
	switch {
	case opts.BlockPrivate:
		client = publicClient(client, opts.Timeout)
	case client == nil:
		client = &http.Client{Timeout: opts.Timeout}
	}

	b := backoff.NewExponentialBackOff()
	if opts.InitialBackoff > 0 {
		b.InitialInterval = opts.InitialBackoff
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(max(opts.Retries, 0))), ctx)

	var result *Result
	err = backoff.Retry(func() error {
		var attemptErr error
		result, attemptErr = fetchOnce(ctx, client, urlStr, opts)
		return attemptErr
	}, policy)
	if err != nil {
		var fetchErr *Error
		if errors.As(err, &fetchErr) {
			return result, fetchErr
		}
		return result, &Error{URL: urlStr, Message: "HTTP request failed", Cause: err}
	}
	return result, nil
}

func fetchOnce(ctx context.Context, client *http.Client, urlStr string, opts *Options) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, backoff.Permanent(&Error{
			URL:     urlStr,
			Message: "failed to create request",
			Cause:   err,
		})
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	req.Header.Set("User-Agent", userAgent)
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, ErrBlockedAddress) {
			return nil, backoff.Permanent(&Error{URL: urlStr, Message: "HTTP request failed", Cause: err})
		}
		return nil, &Error{URL: urlStr, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to read response body", Cause: err}
	}

	result := &Result{
		URL:         urlStr,
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
	}

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return result, &Error{URL: urlStr, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		return result, backoff.Permanent(&Error{URL: urlStr, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode)})
	case int64(len(body)) > maxBytes:
		return nil, backoff.Permanent(&Error{URL: urlStr, Message: fmt.Sprintf("document exceeds %d bytes", maxBytes)})
	case len(body) == 0:
		return result, backoff.Permanent(&Error{URL: urlStr, Message: "empty response body"})
	}
	return result, nil
}

// Document fetches a URL and returns it as a case document
func Document(ctx context.Context, urlStr string, opts *Options) (types.Document, error) {
	result, err := URL(ctx, urlStr, opts)
	if err != nil {
		return types.Document{}, err
	}
	return types.NewDocument(DocumentName(urlStr, result.ContentType), result.Body), nil
}

var contentTypeExtensions = map[string]string{
	"text/html":       ".html",
	"text/plain":      ".txt",
	"application/pdf": ".pdf",
	"image/png":       ".png",
	"image/jpeg":      ".jpg",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ".docx",
}

// DocumentName derives a filename from the URL path, adding an extension from
// the content type when the path has none.
func DocumentName(urlStr, contentType string) string {
	name := ""
	fromHost := false
	if u, err := url.Parse(urlStr); err == nil {
		name = path.Base(u.Path)
		if name == "/" || name == "." {
			name = u.Hostname()
			fromHost = true
		}
	}
	if name == "" {
		name = "document"
	}
	if !fromHost && path.Ext(name) != "" && !strings.HasSuffix(name, ".") {
		return name
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return name
	}
	return name + contentTypeExtensions[mediaType]
}
