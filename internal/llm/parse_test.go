package llm

import "testing"

func TestParseToolCallsEmpty(t *testing.T) {
	calls, err := ParseToolCalls("just talking", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != nil {
		t.Fatalf("expected nil, got %v", calls)
	}
}

func TestParseToolCallsAttachesReasoning(t *testing.T) {
	calls, err := ParseToolCalls("I will fill the form", []RawToolCall{
		{Name: "type", Arguments: `{"id": 3, "text": "hello"}`},
		{Name: "click", Arguments: `{"id": 5}`},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(calls))
	}
	for _, c := range calls {
		if c.Reasoning != "I will fill the form" {
			t.Errorf("reasoning not attached to %s", c.Name)
		}
	}
}

func TestParseToolCallsCoercesID(t *testing.T) {
	calls, err := ParseToolCalls("", []RawToolCall{
		{Name: "click", Arguments: `{"id": 42}`},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id, ok := calls[0].Args["id"].(int)
	if !ok {
		t.Fatalf("id should be int, got %T", calls[0].Args["id"])
	}
	if id != 42 {
		t.Fatalf("expected 42, got %d", id)
	}
}

func TestParseToolCallsBadJSON(t *testing.T) {
	_, err := ParseToolCalls("", []RawToolCall{
		{Name: "click", Arguments: `{"id": `},
	})
	if err == nil {
		t.Fatal("expected error for malformed arguments")
	}
}
