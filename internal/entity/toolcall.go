package entity

// ToolCall is the model's intent to perform one action, parsed from the
// LLM's tool-call response.
type ToolCall struct {
	Name      string         // click, type, navigate, ...
	Args      map[string]any // decoded JSON arguments
	Reasoning string         // chain-of-thought text preceding the call
}
