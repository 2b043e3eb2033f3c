package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ginjaninja78/inflightpayment/internal/logging"
	"github.com/ginjaninja78/inflightpayment/internal/types"
)

// Client sends the customer payload to the upsert endpoint.
//
// There is no retry: one PUT per run, bounded by the configured timeout.
type Client struct {
	endpoint string
	http     *http.Client
	out      io.Writer
	logger   logging.Logger
}

// Response is the outcome of an upsert call.
type Response struct {
	StatusCode int
	Status     string

	// Body is the decoded JSON response body, or nil when the body is empty
	// or not JSON.
	Body interface{}

	// Err summarizes a non-2xx response; nil on success.
	Err *HTTPError
}

// OK reports whether the endpoint accepted the payload.
func (r *Response) OK() bool {
	return r != nil && r.StatusCode/100 == 2
}

// New constructs a client for endpoint. Outcome lines are printed to out and
// logged.
func New(endpoint string, timeout time.Duration, out io.Writer, logger logging.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if out == nil {
		out = io.Discard
	}
	return &Client{
		endpoint: strings.TrimSpace(endpoint),
		http:     &http.Client{Timeout: timeout},
		out:      out,
		logger:   logger,
	}
}

// Endpoint returns the target URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Upsert PUTs payload as JSON. The parsed response is returned for any HTTP
// status; only transport failures (connection, timeout, unreadable body)
// return an error.
func (c *Client) Upsert(ctx context.Context, payload []types.PayloadEntry) (*Response, error) {
	if payload == nil {
		payload = []types.PayloadEntry{}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("PUT %s (%d bytes)", c.endpoint, len(body))

	resp, err := c.http.Do(req)
	if err != nil {
		c.fail("Failed to send in-flight payment data. Error: %v", err)
		return nil, fmt.Errorf("upsert: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		c.fail("Failed to read API response. Status code: %d", resp.StatusCode)
		return nil, fmt.Errorf("read upsert response: %w", err)
	}

	out := &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       decodeBody(b),
	}

	if out.OK() {
		msg := "In-flight payment data sent successfully to the API."
		c.logger.Info("%s", msg)
		fmt.Fprintln(c.out, msg)
		return out, nil
	}

	out.Err = newHTTPError("upsert", resp, b)
	c.fail("Failed to send in-flight payment data. Status code: %d", resp.StatusCode)
	c.logger.Debug("%v", out.Err)
	return out, nil
}

func (c *Client) fail(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	c.logger.Error("%s", msg)
	fmt.Fprintln(c.out, msg)
}

func decodeBody(b []byte) interface{} {
	if len(bytes.TrimSpace(b)) == 0 {
		return nil
	}
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return nil
	}
	return v
}
