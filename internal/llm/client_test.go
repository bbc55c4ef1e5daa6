package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Gytisw/agentlog/internal/entity"
)

func fakeBackend(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
}

func testState() *entity.BrowserState {
	return &entity.BrowserState{
		URL:        "https://example.com",
		Title:      "Example",
		DOMSummary: "[1] <a> link",
	}
}

func TestStepEmptyChoicesIsError(t *testing.T) {
	srv := fakeBackend(t, `{"id":"chatcmpl-1","object":"chat.completion","created":0,"model":"m","choices":[]}`)
	defer srv.Close()

	c := New(Options{APIKey: "test", Model: "m", BaseURL: srv.URL, Timeout: 5 * time.Second}, nil)

	_, err := c.Step(context.Background(), testState(), "task")
	if err == nil {
		t.Fatal("expected an error for a response without choices")
	}
	if !strings.Contains(err.Error(), "no choices") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStepParsesToolCalls(t *testing.T) {
	srv := fakeBackend(t, `{
		"id": "chatcmpl-2",
		"object": "chat.completion",
		"created": 0,
		"model": "m",
		"choices": [{
			"index": 0,
			"finish_reason": "tool_calls",
			"message": {
				"role": "assistant",
				"content": "clicking the first link",
				"tool_calls": [{
					"id": "call_1",
					"type": "function",
					"function": {"name": "click", "arguments": "{\"id\": 1}"}
				}]
			}
		}]
	}`)
	defer srv.Close()

	c := New(Options{APIKey: "test", Model: "m", BaseURL: srv.URL, Timeout: 5 * time.Second}, nil)

	calls, err := c.Step(context.Background(), testState(), "task")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	if calls[0].Name != "click" {
		t.Errorf("expected click, got %s", calls[0].Name)
	}
	if calls[0].Reasoning != "clicking the first link" {
		t.Errorf("reasoning not attached: %q", calls[0].Reasoning)
	}
	if id, _ := calls[0].Args["id"].(int); id != 1 {
		t.Errorf("id not coerced to int: %v", calls[0].Args["id"])
	}
}
