package llm

import (
	"encoding/json"
	"fmt"

	"github.com/Gytisw/agentlog/internal/entity"
)

// RawToolCall is the SDK-independent shape of one tool call as the model
// returned it: a name and a JSON argument string.
type RawToolCall struct {
	Name      string
	Arguments string
}

// ParseToolCalls decodes raw tool calls into entity.ToolCall values. The
// content preceding the calls is the model's chain of thought and is
// attached to every call in the batch. JSON numbers arrive as float64, so
// "id" is coerced to int here once instead of at every use site.
func ParseToolCalls(content string, calls []RawToolCall) ([]entity.ToolCall, error) {
	if len(calls) == 0 {
		return nil, nil
	}

	result := make([]entity.ToolCall, 0, len(calls))
	for _, tc := range calls {
		args := make(map[string]any)
		if tc.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil {
				return nil, fmt.Errorf("parse arguments for %s: %w", tc.Name, err)
			}
		}

		if idVal, ok := args["id"]; ok {
			if f, ok := idVal.(float64); ok {
				args["id"] = int(f)
			}
		}

		result = append(result, entity.ToolCall{
			Name:      tc.Name,
			Args:      args,
			Reasoning: content,
		})
	}

	return result, nil
}
