package claude

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New("test-key", "claude-sonnet-test",
		option.WithBaseURL(srv.URL),
		option.WithMaxRetries(0),
	)
}

func TestGenerate_ReturnsText(t *testing.T) {
	t.Parallel()

	var gotBody map[string]any
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("x-api-key = %q, want test-key", r.Header.Get("x-api-key"))
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":   "msg_1",
			"type": "message",
			"role": "assistant",
			"content": []map[string]any{
				{"type": "text", "text": "Crews are responding. "},
				{"type": "text", "text": "Please keep your distance."},
			},
			"model":       "claude-sonnet-test",
			"stop_reason": "end_turn",
			"usage":       map[string]any{"input_tokens": 20, "output_tokens": 10},
		})
	})

	got, err := c.Generate(context.Background(), "you are a crisis bot", "what is happening?")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	want := "Crews are responding. Please keep your distance."
	if got != want {
		t.Errorf("Generate() = %q, want %q", got, want)
	}
	if gotBody["model"] != "claude-sonnet-test" {
		t.Errorf("model = %v, want claude-sonnet-test", gotBody["model"])
	}
}

func TestGenerate_APIError(t *testing.T) {
	t.Parallel()

	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"api_error","message":"overloaded"}}`))
	})

	if _, err := c.Generate(context.Background(), "sys", "prompt"); err == nil {
		t.Fatal("expected error from API failure")
	}
}

func TestGenerate_EmptyResponse(t *testing.T) {
	t.Parallel()

	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":          "msg_2",
			"type":        "message",
			"role":        "assistant",
			"content":     []map[string]any{},
			"model":       "claude-sonnet-test",
			"stop_reason": "end_turn",
			"usage":       map[string]any{"input_tokens": 5, "output_tokens": 0},
		})
	})

	if _, err := c.Generate(context.Background(), "sys", "prompt"); err == nil {
		t.Fatal("expected error for a response without text")
	}
}
