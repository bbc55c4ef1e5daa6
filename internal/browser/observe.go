package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/Gytisw/agentlog/internal/entity"
)

// Observe snapshots the active page: URL, title and a numbered summary of
// interactive elements. It recovers from a dead tab by switching to another
// open one, or creating a fresh one when everything is closed. JS timeouts
// degrade to a stub state instead of failing, so the loop keeps moving.
func (s *Service) Observe() (*entity.BrowserState, error) {
	if s.currentPage != nil {
		if _, err := s.currentPage.Info(); err != nil {
			s.log.Warnf("browser: current tab is dead, looking for a live one")
			s.currentPage = nil
		}
	}
	if s.currentPage == nil {
		pages, err := s.browser.Pages()
		if err == nil && len(pages) > 0 {
			s.log.Infof("browser: switched to another open tab")
			s.setCurrentPage(pages[0])
		} else {
			s.log.Infof("browser: all tabs closed, creating a new one")
			page, err := s.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
			if err != nil {
				return nil, fmt.Errorf("browser: revive: %w", err)
			}
			s.setCurrentPage(page)
		}
	}

	s.elementMap = make(map[int]*rod.Element)

	info, err := s.currentPage.Info()
	if err != nil {
		return nil, fmt.Errorf("browser: page info: %w", err)
	}

	// Short stabilization only; slow pages are handled by the JS timeout.
	tryWaitStable(s.currentPage, 2*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := s.currentPage.Context(ctx).Eval(observeElementsScript)
	if err != nil {
		s.log.Warnf("browser: DOM scan failed: %v", err)
		return &entity.BrowserState{
			URL:        info.URL,
			Title:      info.Title,
			DOMSummary: "Page is loading... (JS timed out)",
		}, nil
	}

	jsonString := res.Value.String()
	if jsonString == "" || jsonString == "null" {
		return &entity.BrowserState{
			URL:        info.URL,
			Title:      info.Title,
			DOMSummary: "Page is empty",
		}, nil
	}

	var elements []scanElement
	if err := json.Unmarshal([]byte(jsonString), &elements); err != nil {
		return nil, fmt.Errorf("browser: decode DOM scan: %w", err)
	}

	return &entity.BrowserState{
		URL:        info.URL,
		Title:      info.Title,
		DOMSummary: buildDOMSummary(elements),
	}, nil
}

// scanElement is one entry of the JSON array the DOM scan script returns.
type scanElement struct {
	ID          int    `json:"id"`
	Tag         string `json:"tag"`
	Text        string `json:"text"`
	Interactive bool   `json:"interactive"`
}

// buildDOMSummary renders the numbered element list shown to the model. The
// summary is built from the scan alone; elements are resolved lazily at
// click/type time, which keeps Observe fast. A scan that hit the item cap is
// marked truncated.
func buildDOMSummary(elements []scanElement) string {
	var sb strings.Builder
	for _, el := range elements {
		if el.Interactive {
			sb.WriteString(fmt.Sprintf("[%d] <%s> %s\n", el.ID, el.Tag, el.Text))
		} else {
			sb.WriteString(fmt.Sprintf("    <%s> %s\n", el.Tag, el.Text))
		}
	}
	if len(elements) >= maxObserveItems {
		sb.WriteString("\n... (truncated) ...\n")
	}

	summary := sb.String()
	if summary == "" {
		return "No elements found"
	}
	return summary
}

// element resolves an ID to its DOM element, via cache or the data-agent-id
// attribute the scan left behind.
func (s *Service) element(id int) (*rod.Element, error) {
	if el, ok := s.elementMap[id]; ok {
		return el, nil
	}

	selector := fmt.Sprintf("[data-agent-id='%d']", id)
	el, err := s.currentPage.Timeout(2 * time.Second).Element(selector)
	if err != nil {
		return nil, fmt.Errorf("element %d not found: %w", id, err)
	}

	s.elementMap[id] = el
	return el, nil
}

// tryWaitStable bounds WaitStable, which can block past its own timeout on
// pages that never settle.
func tryWaitStable(page *rod.Page, timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		page.Timeout(timeout).WaitStable(500 * time.Millisecond)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
	}
}
