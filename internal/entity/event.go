package entity

import "time"

// Level is the severity of a log event.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Source tags where an event originated relative to the model/browser seam.
type Source string

const (
	// SourceModelIntent marks what the model decided to do.
	SourceModelIntent Source = "model-intent"
	// SourceAutomationFact marks what the automation layer actually did.
	SourceAutomationFact Source = "automation-fact"
	// SourceNetwork marks page-level traffic observed under the automation layer.
	SourceNetwork Source = "network"
)

// LogEvent is a single structured record written to the action log.
type LogEvent struct {
	Time    time.Time      `json:"ts"`
	Level   Level          `json:"level"`
	Source  Source         `json:"source"`
	Message string         `json:"msg"`
	Fields  map[string]any `json:"fields,omitempty"`
}
