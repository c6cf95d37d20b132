package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"emaihl-library/internal/pkg/metrics"
)

// Client talks to a remote record gateway over HTTP
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient creates a gateway client for endpoint url.
// A nil httpClient uses http.DefaultClient; cancellation comes from the request context.
func NewClient(url string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		url:        url,
		httpClient: httpClient,
	}
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Execute posts req to the remote gateway. Non-2xx answers become *APIError.
func (c *Client) Execute(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	res, err := c.execute(ctx, req)
	metrics.RecordGatewayOp(string(req.Action), req.Collection, err, time.Since(start))
	return res, err
}

func (c *Client) execute(ctx context.Context, req Request) (*Result, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode gateway request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var body errorBody
		_ = json.NewDecoder(resp.Body).Decode(&body)
		msg := body.Error
		if msg == "" {
			msg = body.Message
		}
		return nil, &APIError{Status: resp.StatusCode, Message: msg}
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode gateway response: %w", err)
	}
	return &result, nil
}
