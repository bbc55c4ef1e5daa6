package llm

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/openai/openai-go/v3"

	"github.com/Gytisw/agentlog/internal/entity"
)

// extractContent marshals any message union to JSON and pulls the text out.
// Works for system, user and assistant messages alike.
func extractContent(t *testing.T, msg openai.ChatCompletionMessageParamUnion) string {
	t.Helper()
	bytes, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("failed to marshal message: %v", err)
	}

	var temp struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal(bytes, &temp); err != nil {
		t.Fatalf("failed to unmarshal message content: %v", err)
	}
	return temp.Content
}

func TestConstructMessagesFirstStep(t *testing.T) {
	task := "Find the cheapest flight"
	history := []entity.ActionRecord{}
	state := &entity.BrowserState{
		URL:        "https://example.com",
		Title:      "Example",
		DOMSummary: "[1] <input> Search",
	}

	msgs := ConstructMessages(task, history, state)

	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}

	sysContent := extractContent(t, msgs[0])
	if !strings.Contains(sysContent, "autonomous browser agent") {
		t.Error("system prompt mismatch")
	}

	userContent := extractContent(t, msgs[1])
	if !strings.Contains(userContent, "CURRENT TASK: Find the cheapest flight") {
		t.Error("task missing in prompt")
	}
	if !strings.Contains(userContent, "example.com") {
		t.Error("URL missing in prompt")
	}
	if strings.Contains(userContent, "PREVIOUS ACTIONS LOG") {
		t.Error("history should be empty on first step")
	}
}

func TestConstructMessagesWithHistory(t *testing.T) {
	task := "Delete spam"
	history := []entity.ActionRecord{
		{
			Reasoning: "The first message looks like spam",
			Action:    "click",
			Args:      `{"id": 15}`,
			Result:    "ok",
		},
	}
	state := &entity.BrowserState{
		URL:        "https://mail.example.com",
		Title:      "Inbox",
		DOMSummary: "[1] <text> Inbox is empty",
	}

	msgs := ConstructMessages(task, history, state)

	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}

	historyContent := extractContent(t, msgs[1])
	if !strings.Contains(historyContent, "PREVIOUS ACTIONS LOG") {
		t.Error("history header missing")
	}
	if !strings.Contains(historyContent, "The first message looks like spam") {
		t.Error("reasoning missing from history")
	}

	finalMsg := extractContent(t, msgs[2])
	if strings.Contains(finalMsg, "The first message looks like spam") {
		t.Error("history leaked into current state message")
	}
	if !strings.Contains(finalMsg, "Inbox is empty") {
		t.Error("current DOM missing")
	}
}
