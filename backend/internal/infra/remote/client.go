/*
 * @Author: NEFU AB-IN
 * @Date: 2025-10-14 15:26:09
 * @FilePath: \pssuai-admin\backend\internal\infra\remote\client.go
 * @LastEditTime: 2025-10-20 17:02:33
 */
package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html/charset"
)

const (
	// UserAgent identifies this backend to the upstream service.
	UserAgent = "pssuai-admin/1.0"

	defaultTimeout = 20 * time.Second
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Client issues single-attempt calls against the facility-access API.
type Client struct {
	baseURL string
	http    *resty.Client
}

// Option customises Client.
type Option func(*clientOptions)

type clientOptions struct {
	httpClient *http.Client
	logger     resty.Logger
}

// WithHTTPClient routes calls through the given http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *clientOptions) {
		o.httpClient = hc
	}
}

// WithLogger sends resty's own diagnostics to logger (a *zap.SugaredLogger fits).
func WithLogger(logger resty.Logger) Option {
	return func(o *clientOptions) {
		o.logger = logger
	}
}

// NewClient builds a client rooted at baseURL. Retries stay disabled.
func NewClient(baseURL string, opts ...Option) *Client {
	var o clientOptions
	for _, opt := range opts {
		opt(&o)
	}

	var rc *resty.Client
	if o.httpClient != nil {
		rc = resty.NewWithClient(o.httpClient)
	} else {
		rc = resty.New()
	}
	base := strings.TrimRight(baseURL, "/")
	rc.SetBaseURL(base).
		SetRetryCount(0).
		SetHeader("User-Agent", UserAgent).
		SetHeader("Accept", "application/json")
	if o.logger != nil {
		rc.SetLogger(o.logger)
	}

	return &Client{baseURL: base, http: rc}
}

// BaseURL returns the normalized upstream root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Fetch GETs path and classifies the answer as rows, a remote error or a transport error.
func (c *Client) Fetch(ctx context.Context, path string, timeout time.Duration) FetchResult {
	ctx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	resp, err := c.http.R().SetContext(ctx).Get(path)
	if err != nil {
		return TransportErrorResult(err.Error())
	}

	body := resp.Body()
	if !resp.IsSuccess() {
		return RemoteErrorResult(strconv.Itoa(resp.StatusCode()), string(body))
	}

	value, err := decodeJSON(body)
	if err != nil {
		value, err = decodeText(body, resp.Header().Get("Content-Type"))
		if err != nil {
			return TransportErrorResult(fmt.Sprintf("invalid JSON from %s: %v", path, err))
		}
	}

	rows, err := NormalizeValue(value)
	if err != nil {
		return RemoteErrorResult(StatusShapeError, err.Error())
	}
	return RowsResult(rows)
}

// Delete issues a single DELETE and returns the status and a short body excerpt.
func (c *Client) Delete(ctx context.Context, path string, timeout time.Duration) (int, string, error) {
	ctx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	resp, err := c.http.R().SetContext(ctx).Delete(path)
	if err != nil {
		return 0, "", err
	}
	return resp.StatusCode(), string(resp.Body()), nil
}

// RawResponse is a fully buffered upstream answer.
type RawResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Get GETs path and buffers the whole answer, whatever its status.
func (c *Client) Get(ctx context.Context, path string, timeout time.Duration) (*RawResponse, error) {
	ctx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	resp, err := c.http.R().SetContext(ctx).Get(path)
	if err != nil {
		return nil, err
	}
	return &RawResponse{
		StatusCode: resp.StatusCode(),
		Header:     resp.Header().Clone(),
		Body:       resp.Body(),
	}, nil
}

// decodeText re-reads body as text in its declared (or sniffed) charset and parses that.
func decodeText(body []byte, contentType string) (any, error) {
	reader, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return nil, fmt.Errorf("decode charset: %w", err)
	}
	text, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}
	text = bytes.TrimPrefix(text, utf8BOM)
	return decodeJSON(bytes.TrimSpace(text))
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return context.WithTimeout(ctx, timeout)
}
