package lds

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yungbote/subsets-backend/internal/platform/apierr"
	"github.com/yungbote/subsets-backend/internal/platform/envutil"
	"github.com/yungbote/subsets-backend/internal/platform/httpx"
	"github.com/yungbote/subsets-backend/internal/platform/logger"
)

const (
	DefaultURL       = "http://localhost:9090"
	DefaultNamespace = "ns"
)

type Config struct {
	URL       string
	Namespace string
	Timeout   time.Duration
}

func ConfigFromEnv() Config {
	return Config{
		URL:       envutil.String("LDS_URL", DefaultURL),
		Namespace: envutil.String("LDS_NAMESPACE", DefaultNamespace),
		Timeout:   envutil.Seconds("HTTP_CLIENT_TIMEOUT_SECONDS", 30*time.Second),
	}
}

// Client talks to a linked data store exposing documents as {url}/{namespace}/{collection}/{id}.
type Client struct {
	log  *logger.Logger
	base string
	ns   string
	http *httpx.Client
}

func New(log *logger.Logger, cfg Config, obs httpx.Observer) (*Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if base == "" {
		base = DefaultURL
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("invalid LDS_URL %q: %w", base, err)
	}
	ns := strings.Trim(strings.TrimSpace(cfg.Namespace), "/")
	if ns == "" {
		ns = DefaultNamespace
	}
	return &Client{
		log:  log.With("client", "lds"),
		base: base,
		ns:   ns,
		http: httpx.New("lds", cfg.Timeout, obs),
	}, nil
}

func (c *Client) collectionURL(collection string) string {
	return fmt.Sprintf("%s/%s/%s", c.base, c.ns, url.PathEscape(collection))
}

func (c *Client) documentURL(collection, id string) string {
	return c.collectionURL(collection) + "/" + url.PathEscape(id)
}

// Get returns the document, or apierr.ErrNotFound when the store answers 404.
func (c *Client) Get(ctx context.Context, collection, id string) (json.RawMessage, error) {
	status, raw, err := c.http.Do(ctx, http.MethodGet, c.documentURL(collection, id), nil)
	if status == http.StatusNotFound {
		return nil, apierr.NotFound(collection, id)
	}
	if err != nil {
		return nil, err
	}
	doc, err := unwrapSingle(raw)
	if err != nil {
		return nil, apierr.UpstreamCause("decode "+collection+"/"+id, err)
	}
	if doc == nil {
		return nil, apierr.NotFound(collection, id)
	}
	return doc, nil
}

// Some store versions wrap single documents in an array.
func unwrapSingle(raw []byte) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}
	if !strings.HasPrefix(trimmed, "[") {
		return json.RawMessage(trimmed), nil
	}
	var arr []json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &arr); err != nil {
		return nil, err
	}
	if len(arr) == 0 {
		return nil, nil
	}
	return arr[0], nil
}

func (c *Client) List(ctx context.Context, collection string) ([]json.RawMessage, error) {
	status, raw, err := c.http.Do(ctx, http.MethodGet, c.collectionURL(collection), nil)
	if status == http.StatusNotFound {
		return []json.RawMessage{}, nil
	}
	if err != nil {
		return nil, err
	}
	out := []json.RawMessage{}
	if strings.TrimSpace(string(raw)) == "" {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, apierr.UpstreamCause("decode "+collection, err)
	}
	return out, nil
}

func (c *Client) Put(ctx context.Context, collection, id string, doc json.RawMessage) error {
	_, _, err := c.http.Do(ctx, http.MethodPut, c.documentURL(collection, id), doc)
	if err != nil {
		c.log.Warn("lds put failed", "collection", collection, "id", id, "error", err)
	}
	return err
}

func (c *Client) Delete(ctx context.Context, collection, id string) error {
	status, _, err := c.http.Do(ctx, http.MethodDelete, c.documentURL(collection, id), nil)
	if status == http.StatusNotFound {
		return apierr.NotFound(collection, id)
	}
	return err
}

func (c *Client) Schema(ctx context.Context, collection string) (json.RawMessage, error) {
	status, raw, err := c.http.Do(ctx, http.MethodGet, c.collectionURL(collection)+"/?schema", nil)
	if status == http.StatusNotFound {
		return nil, apierr.NotFound("schema", collection)
	}
	if err != nil {
		return nil, err
	}
	return json.RawMessage(raw), nil
}

func (c *Client) Ready(ctx context.Context) error {
	_, _, err := c.http.Do(ctx, http.MethodGet, c.base+"/health/ready", nil)
	return err
}
