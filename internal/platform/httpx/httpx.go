package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/yungbote/subsets-backend/internal/platform/apierr"
	"github.com/yungbote/subsets-backend/internal/platform/ctxutil"
)

type HTTPStatusCoder interface {
	HTTPStatusCode() int
}

// Observer is notified once per outbound call; status is 0 on transport errors.
type Observer func(target, method string, status int, elapsed time.Duration)

// Client performs single-attempt JSON calls against one upstream.
type Client struct {
	HTTP    *http.Client
	Target  string
	Observe Observer
}

func New(target string, timeout time.Duration, obs Observer) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		HTTP:    &http.Client{Timeout: timeout},
		Target:  target,
		Observe: obs,
	}
}

func IsSuccess(code int) bool {
	return code >= 200 && code <= 299
}

// StatusOf extracts the upstream status from err, 0 when err carries none.
func StatusOf(err error) int {
	var sc HTTPStatusCoder
	if errors.As(err, &sc) {
		return sc.HTTPStatusCode()
	}
	return 0
}

// Do sends body (JSON encoded when non-nil) and returns the raw answer.
// Non-2xx answers are returned as *apierr.UpstreamError together with the body.
func (c *Client) Do(ctx context.Context, method, url string, body any) (int, []byte, error) {
	op := fmt.Sprintf("%s %s", method, url)

	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("encode request body for %s: %w", op, err)
		}
		buf = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), method, url, buf)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if td := ctxutil.GetTraceData(ctx); td != nil && td.RequestID != "" {
		req.Header.Set("X-Request-Id", td.RequestID)
	}

	start := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		c.observe(method, 0, time.Since(start))
		return 0, nil, apierr.UpstreamCause(op, err)
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	c.observe(method, resp.StatusCode, time.Since(start))
	if readErr != nil {
		return resp.StatusCode, nil, apierr.UpstreamCause(op, readErr)
	}
	if !IsSuccess(resp.StatusCode) {
		return resp.StatusCode, raw, apierr.Upstream(op, resp.StatusCode, raw)
	}
	return resp.StatusCode, raw, nil
}

// GetJSON decodes a successful GET answer into out.
func (c *Client) GetJSON(ctx context.Context, url string, out any) error {
	_, raw, err := c.Do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apierr.UpstreamCause("decode "+url, err)
	}
	return nil
}

func (c *Client) observe(method string, status int, d time.Duration) {
	if c.Observe != nil {
		c.Observe(c.Target, method, status, d)
	}
}
