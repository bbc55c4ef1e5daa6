// Package agent runs the orchestration loop: ask the model for actions,
// execute them through the browser, feed the results back. Every decision
// the model makes is recorded as a model-intent event before it is executed.
package agent

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Gytisw/agentlog/internal/entity"
	"github.com/Gytisw/agentlog/internal/intercept"
	"github.com/Gytisw/agentlog/internal/logsink"
)

// Brain decides the next actions from the current browser state.
type Brain interface {
	Reset()
	Step(ctx context.Context, state *entity.BrowserState, task string) ([]entity.ToolCall, error)
	RecordAction(call entity.ToolCall, result string)
}

// Sentinel tool names that end a task.
const (
	toolDone   = "done"
	toolSubmit = "submit_task_result"
)

const defaultMaxSteps = 30

// Orchestrator connects the Brain and the Browser.
type Orchestrator struct {
	browser  intercept.Browser
	brain    Brain
	sink     logsink.Emitter
	maxSteps int

	// pacing hooks, shortened in tests
	stepDelay func(tool string, batch int)
	retryWait time.Duration
}

// New creates an orchestrator. The browser is expected to already be
// wrapped by the interceptor so every executed command lands in the log.
func New(b intercept.Browser, brain Brain, sink logsink.Emitter) *Orchestrator {
	return &Orchestrator{
		browser:   b,
		brain:     brain,
		sink:      sink,
		maxSteps:  defaultMaxSteps,
		stepDelay: defaultStepDelay,
		retryWait: 2 * time.Second,
	}
}

// WithMaxSteps overrides the runaway-loop cap.
func (o *Orchestrator) WithMaxSteps(n int) *Orchestrator {
	if n > 0 {
		o.maxSteps = n
	}
	return o
}

// RunTask drives one task to completion: sentinel call, step cap, or
// context cancellation.
func (o *Orchestrator) RunTask(ctx context.Context, task string) error {
	o.brain.Reset()

	for step := 1; step <= o.maxSteps; step++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		state, err := o.browser.Observe()
		if err != nil {
			return fmt.Errorf("observe: %w", err)
		}

		toolCalls, err := o.brain.Step(ctx, state, task)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// Transient model failures are retried on the next step.
			o.sink.Emit(entity.LogEvent{
				Time:    time.Now(),
				Level:   entity.LevelWarn,
				Source:  entity.SourceModelIntent,
				Message: "model step failed",
				Fields:  map[string]any{"step": step, "error": err.Error()},
			})
			sleepCtx(ctx, o.retryWait)
			continue
		}

		if len(toolCalls) == 0 {
			// The model returned no actions; give it another look.
			sleepCtx(ctx, o.retryWait)
			continue
		}

		done := false
		for _, call := range toolCalls {
			o.sink.Emit(entity.LogEvent{
				Time:    time.Now(),
				Level:   entity.LevelInfo,
				Source:  entity.SourceModelIntent,
				Message: call.Name,
				Fields: map[string]any{
					"step":      step,
					"args":      call.Args,
					"reasoning": call.Reasoning,
				},
			})

			result := o.executeTool(call)
			o.brain.RecordAction(call, result)

			if call.Name == toolSubmit || call.Name == toolDone {
				done = true
			}

			o.stepDelay(call.Name, len(toolCalls))
		}

		if done {
			return nil
		}
	}

	return fmt.Errorf("step limit reached (%d) without task completion", o.maxSteps)
}

// executeTool routes one tool call to the browser and renders the outcome
// as the string the model's history will show.
func (o *Orchestrator) executeTool(call entity.ToolCall) string {
	var err error

	switch call.Name {
	case "click":
		if id, ok := getInt(call.Args, "id"); ok {
			err = o.browser.Click(id)
		} else {
			err = fmt.Errorf("missing or invalid 'id'")
		}

	case "type":
		id, okID := getInt(call.Args, "id")
		text, okText := getString(call.Args, "text")
		if okID && okText {
			err = o.browser.Type(id, text)
		} else {
			err = fmt.Errorf("missing 'id' or 'text'")
		}

	case "read_text":
		if id, ok := getInt(call.Args, "id"); ok {
			var text string
			text, err = o.browser.ReadText(id)
			if err == nil {
				return text
			}
		} else {
			err = fmt.Errorf("missing or invalid 'id'")
		}

	case "scroll":
		dir, ok := getString(call.Args, "direction")
		if !ok {
			dir = "down"
		}
		err = o.browser.Scroll(dir)

	case "navigate":
		if url, ok := getString(call.Args, "url"); ok {
			err = o.browser.Navigate(url)
		} else {
			err = fmt.Errorf("missing 'url'")
		}

	case "press":
		if key, ok := getString(call.Args, "key"); ok {
			err = o.browser.PressKey(normalizeKey(key))
		} else {
			err = fmt.Errorf("missing 'key'")
		}

	case "go_back":
		err = o.browser.GoBack()

	case "close_tab":
		err = o.browser.CloseTab()

	case "memorize":
		if info, ok := getString(call.Args, "info"); ok {
			return fmt.Sprintf("Saved to memory: %s", info)
		}
		return "Saved info."

	case toolDone, toolSubmit:
		// Accept the key variants models actually produce.
		for _, key := range []string{"final_report", "answer", "result"} {
			if v, ok := getString(call.Args, key); ok && v != "" {
				return fmt.Sprintf("DONE: %s", v)
			}
		}
		return "Task completed."

	default:
		return fmt.Sprintf("Error: unknown tool '%s'", call.Name)
	}

	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}
	return "ok"
}

// defaultStepDelay paces actions: page-changing ones get time to settle,
// batched micro-actions run almost back to back.
func defaultStepDelay(tool string, batch int) {
	switch tool {
	case "click", "press":
		if batch > 1 {
			time.Sleep(100 * time.Millisecond)
		} else {
			time.Sleep(2 * time.Second)
		}
	case "type":
		time.Sleep(50 * time.Millisecond)
	case "navigate":
		time.Sleep(3 * time.Second)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// normalizeKey maps the tool-schema key names (Enter, ArrowDown) onto the
// browser layer's lowercase names.
func normalizeKey(key string) string {
	switch key {
	case "Enter":
		return "enter"
	case "Escape":
		return "escape"
	case "Tab":
		return "tab"
	case "Backspace", "Delete":
		return "backspace"
	case "ArrowDown":
		return "arrow_down"
	case "ArrowUp":
		return "arrow_up"
	}
	return key
}

func getInt(args map[string]any, key string) (int, bool) {
	val, ok := args[key]
	if !ok || val == nil {
		return 0, false
	}
	switch v := val.(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case string:
		// Models sometimes quote numbers: "123" or "123.0".
		if i, err := strconv.Atoi(v); err == nil {
			return i, true
		}
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return int(f), true
		}
	}
	return 0, false
}

func getString(args map[string]any, key string) (string, bool) {
	val, ok := args[key]
	if !ok {
		return "", false
	}
	s, ok := val.(string)
	return s, ok
}
