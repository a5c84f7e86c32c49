// Package social is the client for the opaque posting service: broadcasting
// a public alert, listing replies to it, and posting responses.
package social

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const httpTimeout = 15 * time.Second

// Client talks to the posting service over HTTP. The service is an external
// collaborator; individual call timeouts live on the underlying transport and
// this client never retries.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// New creates a client for the posting service at baseURL. If token is
// non-empty it is sent as a bearer token on every request.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: httpTimeout},
	}
}

// BroadcastRequest is the outbound alert payload. Lat/Lng are included when
// the caller knows them; ImageB64 carries the detection frame when one was
// captured.
type BroadcastRequest struct {
	Lat      *float64 `json:"lat,omitempty"`
	Lng      *float64 `json:"lng,omitempty"`
	RadiusKm float64  `json:"radius_km"`
	Message  string   `json:"message"`
	ImageB64 string   `json:"image,omitempty"`
}

// BroadcastResult identifies the published alert post.
type BroadcastResult struct {
	ID string `json:"id"`
}

// Mention is one inbound reply to the alert post.
type Mention struct {
	ID         string `json:"id"`
	Author     string `json:"author"`
	Text       string `json:"text"`
	ThreadRoot string `json:"thread_root"`
}

// Broadcast publishes the alert post.
func (c *Client) Broadcast(ctx context.Context, req *BroadcastRequest) (*BroadcastResult, error) {
	var out BroadcastResult
	if err := c.post(ctx, "/v1/broadcasts", req, &out); err != nil {
		return nil, fmt.Errorf("social: broadcast: %w", err)
	}
	return &out, nil
}

// Mentions lists replies to the alert post, in the order the service returns
// them. sinceID narrows the listing when non-empty.
func (c *Client) Mentions(ctx context.Context, sinceID string) ([]Mention, error) {
	u := c.baseURL + "/v1/mentions"
	if sinceID != "" {
		u += "?since_id=" + url.QueryEscape(sinceID)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("social: create request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("social: list mentions: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkStatus(resp); err != nil {
		return nil, fmt.Errorf("social: list mentions: %w", err)
	}

	var out struct {
		Mentions []Mention `json:"mentions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("social: decode mentions: %w", err)
	}
	return out.Mentions, nil
}

// Reply posts text as a response to the given mention, threading it under
// the mention's root post.
func (c *Client) Reply(ctx context.Context, m Mention, text string) error {
	req := map[string]string{
		"in_reply_to": m.ID,
		"thread_root": m.ThreadRoot,
		"text":        text,
	}
	if err := c.post(ctx, "/v1/replies", req, nil); err != nil {
		return fmt.Errorf("social: reply: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.client.Do(httpReq) //nolint:gosec // G704: baseURL is from trusted config, not user input
	if err != nil {
		return fmt.Errorf("post: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkStatus(resp); err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("service returned %d: %s", resp.StatusCode, string(respBody))
}
