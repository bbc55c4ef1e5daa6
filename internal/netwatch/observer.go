// Package netwatch subscribes to the automation layer's network event stream
// and turns page-level request/response pairs into network-source log
// events. Protocol-control traffic (devtools, extension and data: schemes)
// is separated from real page traffic and dropped unless configured in.
package netwatch

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/Gytisw/agentlog/internal/entity"
	"github.com/Gytisw/agentlog/internal/logsink"
	"github.com/Gytisw/agentlog/internal/metrics"
)

// Config controls the observer.
type Config struct {
	Capture    bool         `yaml:"capture"`
	LogControl bool         `yaml:"log_control"`
	Rules      []RuleConfig `yaml:"rules"`
}

// Validate compiles the filter rules, surfacing bad expressions early.
func (c Config) Validate() error {
	_, err := compileRules(c.Rules)
	return err
}

type pendingRequest struct {
	method       string
	url          string
	resourceType string
	start        time.Time
}

// Observer watches the active page's network activity. The agent switches
// tabs as part of normal operation (a click opening a new tab, dead-tab
// recovery), so the observer is re-attachable: Watch replaces any previous
// subscription with one on the new page.
type Observer struct {
	sink logsink.Emitter

	rules      []rule
	logControl bool

	mu      sync.Mutex
	pending map[proto.NetworkRequestID]pendingRequest
	cancel  context.CancelFunc
	done    chan struct{}
}

// New builds an observer. Rules are compiled here; pages are attached with
// Watch.
func New(sink logsink.Emitter, cfg Config) (*Observer, error) {
	rules, err := compileRules(cfg.Rules)
	if err != nil {
		return nil, err
	}
	return &Observer{
		sink:       sink,
		rules:      rules,
		logControl: cfg.LogControl,
		pending:    make(map[proto.NetworkRequestID]pendingRequest),
	}, nil
}

// Watch enables network events on page and begins consuming them on a
// goroutine, detaching from the previously watched page first. Called again
// whenever the active tab changes.
func (o *Observer) Watch(ctx context.Context, page *rod.Page) error {
	o.detach()

	ctx, cancel := context.WithCancel(ctx)
	pageCtx := page.Context(ctx)
	if err := (proto.NetworkEnable{}).Call(pageCtx); err != nil {
		cancel()
		return fmt.Errorf("netwatch: enable network events: %w", err)
	}

	wait := pageCtx.EachEvent(
		func(e *proto.NetworkRequestWillBeSent) { o.onRequest(e) },
		func(e *proto.NetworkResponseReceived) { o.onResponse(e) },
		func(e *proto.NetworkLoadingFailed) { o.onFailed(e) },
	)

	done := make(chan struct{})
	o.mu.Lock()
	o.cancel = cancel
	o.done = done
	// Requests started on the old page can no longer complete here.
	o.pending = make(map[proto.NetworkRequestID]pendingRequest)
	o.mu.Unlock()

	go func() {
		defer close(done)
		wait()
	}()
	return nil
}

// Stop detaches from the currently watched page. Safe to call without a
// prior Watch.
func (o *Observer) Stop() {
	o.detach()
}

func (o *Observer) detach() {
	o.mu.Lock()
	cancel, done := o.cancel, o.done
	o.cancel, o.done = nil, nil
	o.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
}

func (o *Observer) onRequest(e *proto.NetworkRequestWillBeSent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pending[e.RequestID] = pendingRequest{
		method:       e.Request.Method,
		url:          e.Request.URL,
		resourceType: string(e.Type),
		start:        time.Now(),
	}
}

func (o *Observer) onResponse(e *proto.NetworkResponseReceived) {
	o.mu.Lock()
	req, ok := o.pending[e.RequestID]
	delete(o.pending, e.RequestID)
	o.mu.Unlock()

	rec := entity.NetworkRecord{
		RequestID:    string(e.RequestID),
		Method:       req.method,
		URL:          e.Response.URL,
		ResourceType: req.resourceType,
		Status:       e.Response.Status,
		Control:      isControl(e.Response.URL),
	}
	if ok {
		rec.Duration = time.Since(req.start)
	}
	o.emit(rec)
}

func (o *Observer) onFailed(e *proto.NetworkLoadingFailed) {
	o.mu.Lock()
	req, ok := o.pending[e.RequestID]
	delete(o.pending, e.RequestID)
	o.mu.Unlock()
	if !ok {
		return
	}

	o.sink.Emit(entity.LogEvent{
		Time:    time.Now(),
		Level:   entity.LevelWarn,
		Source:  entity.SourceNetwork,
		Message: "request failed",
		Fields: map[string]any{
			"method": req.method,
			"url":    req.url,
			"type":   req.resourceType,
			"error":  e.ErrorText,
		},
	})
}

// emit classifies, filters and writes one completed response.
func (o *Observer) emit(rec entity.NetworkRecord) {
	class := "page"
	if rec.Control {
		class = "control"
	}
	metrics.ObserveNetwork(class)

	if rec.Control && !o.logControl {
		return
	}

	if !decide(o.rules, RuleEnv{
		Method:       rec.Method,
		URL:          rec.URL,
		ResourceType: rec.ResourceType,
		Status:       rec.Status,
	}) {
		return
	}

	level := entity.LevelInfo
	if rec.Control {
		level = entity.LevelDebug
	}

	o.sink.Emit(entity.LogEvent{
		Time:    time.Now(),
		Level:   level,
		Source:  entity.SourceNetwork,
		Message: "response",
		Fields: map[string]any{
			"method":      rec.Method,
			"url":         rec.URL,
			"type":        rec.ResourceType,
			"status":      rec.Status,
			"control":     rec.Control,
			"duration_ms": rec.Duration.Milliseconds(),
		},
	})
}

// controlSchemes are URL prefixes of automation/protocol-control traffic as
// opposed to page-level traffic.
var controlSchemes = []string{
	"devtools://",
	"chrome://",
	"chrome-extension://",
	"chrome-error://",
	"chrome-search://",
	"about:",
	"data:",
}

func isControl(url string) bool {
	for _, scheme := range controlSchemes {
		if strings.HasPrefix(url, scheme) {
			return true
		}
	}
	return false
}
