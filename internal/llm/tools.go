package llm

import "github.com/openai/openai-go/v3"

// defineTools declares the action vocabulary the model may use. Keys match
// what the orchestrator's executor understands.
func defineTools() []openai.ChatCompletionToolUnionParam {
	return []openai.ChatCompletionToolUnionParam{
		openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        "click",
			Description: openai.String("Click an element (link, button, checkbox)."),
			Parameters: openai.FunctionParameters{
				"type": "object",
				"properties": map[string]any{
					"id": map[string]any{
						"type":        "integer",
						"description": "Element ID from the DOM (the number in square brackets).",
					},
				},
				"required": []string{"id"},
			},
		}),

		openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        "type",
			Description: openai.String("Type text into an input field."),
			Parameters: openai.FunctionParameters{
				"type": "object",
				"properties": map[string]any{
					"id": map[string]any{
						"type":        "integer",
						"description": "ID of the input or textarea element.",
					},
					"text": map[string]any{
						"type":        "string",
						"description": "Text to type.",
					},
				},
				"required": []string{"id", "text"},
			},
		}),

		openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        "submit_task_result",
			Description: openai.String("Call this to submit the final report and finish the task."),
			Parameters: openai.FunctionParameters{
				"type": "object",
				"properties": map[string]any{
					"final_report": map[string]any{
						"type":        "string",
						"description": "Detailed task outcome for the user.",
					},
				},
				"required": []string{"final_report"},
			},
		}),

		openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        "press",
			Description: openai.String("Press a special key (for example Enter after typing)."),
			Parameters: openai.FunctionParameters{
				"type": "object",
				"properties": map[string]any{
					"key": map[string]any{
						"type":        "string",
						"description": "Key name.",
						// Closed list so the model does not invent key names.
						"enum": []string{"Enter", "Backspace", "Escape", "Tab", "Delete", "ArrowDown", "ArrowUp"},
					},
				},
				"required": []string{"key"},
			},
		}),

		openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        "scroll",
			Description: openai.String("Scroll the page when the needed element is not visible."),
			Parameters: openai.FunctionParameters{
				"type": "object",
				"properties": map[string]any{
					"direction": map[string]any{
						"type":        "string",
						"description": "Scroll direction.",
						"enum":        []string{"up", "down"},
					},
				},
				"required": []string{"direction"},
			},
		}),

		openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        "navigate",
			Description: openai.String("Go to a specific URL. Use only to start or when a link is not clickable."),
			Parameters: openai.FunctionParameters{
				"type": "object",
				"properties": map[string]any{
					"url": map[string]any{
						"type":        "string",
						"description": "Full URL (for example https://example.com).",
					},
				},
				"required": []string{"url"},
			},
		}),

		openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        "memorize",
			Description: openai.String("Save an important fact to memory (for example an email's content or a task status)."),
			Parameters: openai.FunctionParameters{
				"type": "object",
				"properties": map[string]any{
					"info": map[string]any{
						"type":        "string",
						"description": "Fact or data to remember.",
					},
				},
				"required": []string{"info"},
			},
		}),
	}
}
