package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"

	"github.com/Gytisw/agentlog/internal/entity"
)

const systemPrompt = `You are an autonomous browser agent. Your goal is to control the browser efficiently.

### PROTOCOL:
1. Analyze the DOM.
2. Plan your actions.
3. Execute actions through tools.
4. Finish by calling "submit_task_result".

### BATCHING:
You can return several tool calls in one response.

WHEN TO BATCH:
- Ticking several checkboxes.
- Filling a large form (first name, then last name, then email).
- Sequences like [type(1), type(2), click(3)].

WHEN NOT TO BATCH:
- If an action changes the URL or reloads the page (following a link, a "Search" or "Sign in" button).
- RULE: a page-changing action must be the ONLY or the LAST call in the batch.

### RESPONSE FORMAT:
- Do not describe actions in prose. Return tool calls directly:
  [click(10), click(11), click(12)]

### IMPORTANT:
- Never announce completion in text. Use the "submit_task_result" tool.
- Element IDs change after every page reload.
`

// ConstructMessages builds the full message chain for one model step:
// system prompt, action history (as a JSONL block the model reads but will
// not imitate), then the current task and browser state. Pure function,
// easy to test.
func ConstructMessages(task string, history []entity.ActionRecord, state *entity.BrowserState) []openai.ChatCompletionMessageParamUnion {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(systemPrompt),
	}

	if len(history) > 0 {
		var b strings.Builder
		b.WriteString("PREVIOUS ACTIONS LOG (Read-Only Context):\n")

		for i, record := range history {
			logEntry := map[string]any{
				"step":    i + 1,
				"thought": record.Reasoning,
				"action":  record.Action,
				"args":    record.Args,
				"result":  record.Result,
			}
			jsonBytes, _ := json.Marshal(logEntry)
			b.WriteString(string(jsonBytes) + "\n")
		}

		messages = append(messages, openai.UserMessage(b.String()))
	}

	userContent := fmt.Sprintf(
		"CURRENT TASK: %s\n\n"+
			"CURRENT BROWSER STATE:\n"+
			"URL: %s\n"+
			"Title: %s\n\n"+
			"DOM STRUCTURE (Interactive Elements):\n%s",
		task,
		state.URL,
		state.Title,
		state.DOMSummary,
	)
	messages = append(messages, openai.UserMessage(userContent))

	return messages
}
