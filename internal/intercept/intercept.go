// Package intercept wraps the browser-automation layer so every command the
// agent issues is recorded as an automation-fact event. It is a plain
// wrap-and-delegate decorator: the wrapped implementation is never mutated,
// results and errors pass through unchanged.
package intercept

import (
	"time"

	"github.com/Gytisw/agentlog/internal/entity"
	"github.com/Gytisw/agentlog/internal/logsink"
	"github.com/Gytisw/agentlog/internal/metrics"
)

// Browser is the capability contract of the automation layer.
type Browser interface {
	Observe() (*entity.BrowserState, error)
	Click(id int) error
	Type(id int, text string) error
	ReadText(id int) (string, error)
	Scroll(direction string) error
	Navigate(url string) error
	GoBack() error
	CloseTab() error
	PressKey(key string) error
	PageInfo() (url string, targetID string)
	Close()
}

// Logged decorates a Browser, emitting one event per delegated call.
type Logged struct {
	next Browser
	sink logsink.Emitter

	// verbose attaches sensitive payloads (typed text) to events.
	verbose bool
}

// New wraps next. With verbose, typed text is recorded verbatim; otherwise
// only its length is.
func New(next Browser, sink logsink.Emitter, verbose bool) *Logged {
	return &Logged{next: next, sink: sink, verbose: verbose}
}

func (l *Logged) record(method string, start time.Time, err error, fields map[string]any) {
	if fields == nil {
		fields = make(map[string]any, 2)
	}
	fields["duration_ms"] = time.Since(start).Milliseconds()
	level := entity.LevelInfo
	if err != nil {
		fields["outcome"] = err.Error()
		level = entity.LevelError
	} else {
		fields["outcome"] = "ok"
	}
	l.sink.Emit(entity.LogEvent{
		Time:    time.Now(),
		Level:   level,
		Source:  entity.SourceAutomationFact,
		Message: method,
		Fields:  fields,
	})
	metrics.ObserveAction(method, err)
}

func (l *Logged) Observe() (*entity.BrowserState, error) {
	start := time.Now()
	state, err := l.next.Observe()
	fields := map[string]any{}
	if state != nil {
		// The DOM dump itself stays out of the log; its size is enough.
		fields["url"] = state.URL
		fields["title"] = state.Title
		fields["dom_bytes"] = len(state.DOMSummary)
	}
	l.record("observe", start, err, fields)
	return state, err
}

func (l *Logged) Click(id int) error {
	start := time.Now()
	err := l.next.Click(id)
	l.record("click", start, err, map[string]any{"id": id})
	return err
}

func (l *Logged) Type(id int, text string) error {
	start := time.Now()
	err := l.next.Type(id, text)
	fields := map[string]any{"id": id, "text_len": len(text)}
	if l.verbose {
		fields["text"] = text
	}
	l.record("type", start, err, fields)
	return err
}

func (l *Logged) ReadText(id int) (string, error) {
	start := time.Now()
	text, err := l.next.ReadText(id)
	l.record("read_text", start, err, map[string]any{"id": id, "text_len": len(text)})
	return text, err
}

func (l *Logged) Scroll(direction string) error {
	start := time.Now()
	err := l.next.Scroll(direction)
	l.record("scroll", start, err, map[string]any{"direction": direction})
	return err
}

func (l *Logged) Navigate(url string) error {
	start := time.Now()
	err := l.next.Navigate(url)
	l.record("navigate", start, err, map[string]any{"url": url})
	return err
}

func (l *Logged) GoBack() error {
	start := time.Now()
	err := l.next.GoBack()
	l.record("go_back", start, err, nil)
	return err
}

func (l *Logged) CloseTab() error {
	start := time.Now()
	err := l.next.CloseTab()
	l.record("close_tab", start, err, nil)
	return err
}

func (l *Logged) PressKey(key string) error {
	start := time.Now()
	err := l.next.PressKey(key)
	l.record("press", start, err, map[string]any{"key": key})
	return err
}

func (l *Logged) PageInfo() (string, string) {
	// Pure read of cached page identity; not worth an event.
	return l.next.PageInfo()
}

func (l *Logged) Close() {
	start := time.Now()
	l.next.Close()
	l.record("close", start, nil, nil)
}
