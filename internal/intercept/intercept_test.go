package intercept

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gytisw/agentlog/internal/entity"
)

type memEmitter struct {
	mu     sync.Mutex
	events []entity.LogEvent
}

func (m *memEmitter) Emit(ev entity.LogEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
}

// fakeBrowser records calls and returns scripted results.
type fakeBrowser struct {
	calls   []string
	err     error
	state   *entity.BrowserState
	text    string
	lastArg any
}

func (f *fakeBrowser) Observe() (*entity.BrowserState, error) {
	f.calls = append(f.calls, "observe")
	return f.state, f.err
}
func (f *fakeBrowser) Click(id int) error {
	f.calls = append(f.calls, "click")
	f.lastArg = id
	return f.err
}
func (f *fakeBrowser) Type(id int, text string) error {
	f.calls = append(f.calls, "type")
	f.lastArg = text
	return f.err
}
func (f *fakeBrowser) ReadText(id int) (string, error) {
	f.calls = append(f.calls, "read_text")
	return f.text, f.err
}
func (f *fakeBrowser) Scroll(direction string) error {
	f.calls = append(f.calls, "scroll")
	return f.err
}
func (f *fakeBrowser) Navigate(url string) error {
	f.calls = append(f.calls, "navigate")
	f.lastArg = url
	return f.err
}
func (f *fakeBrowser) GoBack() error {
	f.calls = append(f.calls, "go_back")
	return f.err
}
func (f *fakeBrowser) CloseTab() error {
	f.calls = append(f.calls, "close_tab")
	return f.err
}
func (f *fakeBrowser) PressKey(key string) error {
	f.calls = append(f.calls, "press")
	return f.err
}
func (f *fakeBrowser) PageInfo() (string, string) { return "https://example.com", "t1" }
func (f *fakeBrowser) Close()                     { f.calls = append(f.calls, "close") }

func TestClickDelegatesAndEmits(t *testing.T) {
	fb := &fakeBrowser{}
	mem := &memEmitter{}
	b := New(fb, mem, false)

	require.NoError(t, b.Click(7))

	assert.Equal(t, []string{"click"}, fb.calls)
	assert.Equal(t, 7, fb.lastArg)

	require.Len(t, mem.events, 1)
	ev := mem.events[0]
	assert.Equal(t, "click", ev.Message)
	assert.Equal(t, entity.SourceAutomationFact, ev.Source)
	assert.Equal(t, entity.LevelInfo, ev.Level)
	assert.Equal(t, 7, ev.Fields["id"])
	assert.Equal(t, "ok", ev.Fields["outcome"])
	assert.Contains(t, ev.Fields, "duration_ms")
}

func TestErrorPassesThrough(t *testing.T) {
	boom := errors.New("element 7 not found")
	fb := &fakeBrowser{err: boom}
	mem := &memEmitter{}
	b := New(fb, mem, false)

	err := b.Click(7)
	require.ErrorIs(t, err, boom)

	require.Len(t, mem.events, 1)
	assert.Equal(t, entity.LevelError, mem.events[0].Level)
	assert.Equal(t, "element 7 not found", mem.events[0].Fields["outcome"])
}

func TestTypeRedactsUnlessVerbose(t *testing.T) {
	fb := &fakeBrowser{}
	mem := &memEmitter{}

	b := New(fb, mem, false)
	require.NoError(t, b.Type(3, "hunter2"))
	require.Len(t, mem.events, 1)
	assert.NotContains(t, mem.events[0].Fields, "text")
	assert.Equal(t, 7, mem.events[0].Fields["text_len"])

	verbose := New(fb, mem, true)
	require.NoError(t, verbose.Type(3, "hunter2"))
	require.Len(t, mem.events, 2)
	assert.Equal(t, "hunter2", mem.events[1].Fields["text"])
}

func TestObserveLogsSummaryNotDOM(t *testing.T) {
	fb := &fakeBrowser{state: &entity.BrowserState{
		URL:        "https://example.com",
		Title:      "Example",
		DOMSummary: "[1] <input> Search\n[2] <button> Go\n",
	}}
	mem := &memEmitter{}
	b := New(fb, mem, false)

	state, err := b.Observe()
	require.NoError(t, err)
	assert.Equal(t, fb.state, state)

	require.Len(t, mem.events, 1)
	ev := mem.events[0]
	assert.Equal(t, "https://example.com", ev.Fields["url"])
	assert.Equal(t, "Example", ev.Fields["title"])
	assert.Equal(t, len(fb.state.DOMSummary), ev.Fields["dom_bytes"])
	assert.NotContains(t, ev.Fields, "dom")
}

func TestOneEventPerCall(t *testing.T) {
	fb := &fakeBrowser{}
	mem := &memEmitter{}
	b := New(fb, mem, false)

	_ = b.Navigate("https://example.com")
	_ = b.Scroll("down")
	_ = b.PressKey("enter")
	_ = b.GoBack()
	_ = b.CloseTab()
	b.Close()

	assert.Len(t, mem.events, 6)
}
