// Package toolrunner bridges assistant tool calls to the trade-analytics
// tool runner HTTP service.
package toolrunner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mentord/pkg/logger"
)

// DefaultPathPrefix is the tool runner's route prefix.
const DefaultPathPrefix = "/api/mentor"

// DefaultTimeout bounds each tool runner request.
const DefaultTimeout = 30 * time.Second

// ErrConnectionFailed indicates the tool runner was unreachable.
var ErrConnectionFailed = errors.New("failed to connect to tool runner")

// Config holds the settings for a tool runner client.
type Config struct {
	BaseURL    string
	PathPrefix string
	Timeout    time.Duration
}

// Client dispatches tool calls to the tool runner. Safe for concurrent use.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient creates a tool runner client.
func NewClient(cfg Config) *Client {
	prefix := cfg.PathPrefix
	if prefix == "" {
		prefix = DefaultPathPrefix
	}
	prefix = strings.TrimRight(prefix, "/")
	if prefix != "" && !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + prefix,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Dispatch invokes the named tool with the given (already normalized)
// arguments and returns the tool runner's JSON result.
//
// An unrecognized tool name is not an error: it returns a structured
// unknown-tool payload so the assistant can react to it conversationally.
// HTTP and parse failures are returned as errors carrying a code prefix
// (tool_http_<status>, tool_response_not_json) or the runner's own
// error/detail fields.
func (c *Client) Dispatch(ctx context.Context, name string, args map[string]any) (json.RawMessage, error) {
	if !KnownTool(name) {
		payload, _ := json.Marshal(map[string]string{"error": "Unknown tool: " + name})
		return payload, nil
	}

	body, status, err := c.post(ctx, name, args)
	if err != nil {
		return nil, err
	}

	ok := status >= 200 && status < 300
	if json.Valid(body) {
		if ok {
			return body, nil
		}
		if name == ToolGetEndpointData {
			return c.endpointDataFallback(ctx, args)
		}
		return nil, runnerError(body)
	}
	return nil, transportError(status, ok, body)
}

// endpointDataFallback retries get_endpoint_data exactly once with a
// minimized argument set. Large field selections are the usual reason the
// first call fails; keys_only is always cheap to serve.
func (c *Client) endpointDataFallback(ctx context.Context, args map[string]any) (json.RawMessage, error) {
	fallback := map[string]any{"keys_only": true}
	if name, ok := args["name"]; ok {
		fallback["name"] = name
	}

	logger.Warn().
		Interface("fallback", fallback).
		Msg("get_endpoint_data failed, retrying with keys_only")

	body, status, err := c.post(ctx, ToolGetEndpointData, fallback)
	if err != nil {
		return nil, err
	}

	ok := status >= 200 && status < 300
	if json.Valid(body) {
		if ok {
			return body, nil
		}
		return nil, runnerError(body)
	}
	return nil, transportError(status, ok, body)
}

// post sends a JSON POST to the tool's endpoint and returns the raw body.
func (c *Client) post(ctx context.Context, name string, args map[string]any) ([]byte, int, error) {
	payload, err := json.Marshal(args)
	if err != nil {
		return nil, 0, fmt.Errorf("marshal tool arguments: %w", err)
	}

	url := c.endpoint + "/" + name
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, 0, err
		}
		return nil, 0, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read tool response: %w", err)
	}

	logger.Debug().
		Str("tool", name).
		Str("url", url).
		RawJSON("payload", payload).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Str("preview", snippet(body)).
		Msg("tool runner call")

	return body, resp.StatusCode, nil
}

// runnerError extracts the runner's error/detail fields from a JSON error body.
func runnerError(body []byte) error {
	var e struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	_ = json.Unmarshal(body, &e)
	if e.Error == "" {
		e.Error = "tool_error"
	}
	if e.Detail == "" {
		e.Detail = "unknown error"
	}
	return fmt.Errorf("%s: %s", e.Error, e.Detail)
}

// transportError builds an error for a non-JSON body, distinguishing
// HTTP-level failure from parse failure.
func transportError(status int, ok bool, body []byte) error {
	if !ok {
		return fmt.Errorf("tool_http_%d: %s", status, snippet(body))
	}
	return fmt.Errorf("tool_response_not_json: %s", snippet(body))
}

func snippet(body []byte) string {
	s := string(body)
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
