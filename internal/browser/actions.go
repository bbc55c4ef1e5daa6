package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
)

// Click clicks the element with the given ID. Falls back to a JS click when
// the native one fails, then follows any tab the click opened.
func (s *Service) Click(id int) error {
	el, err := s.element(id)
	if err != nil {
		return err
	}

	pagesBefore, _ := s.browser.Pages()
	existingIDs := make(map[string]bool)
	for _, p := range pagesBefore {
		if info, err := p.Info(); err == nil {
			existingIDs[string(info.TargetID)] = true
		}
	}

	highlightCtx, highlightCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer highlightCancel()
	_, _ = el.Context(highlightCtx).Eval(highlightClickScript)

	clickCtx, clickCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer clickCancel()

	if err := el.Context(clickCtx).Click(proto.InputMouseButtonLeft, 1); err != nil {
		s.log.Warnf("browser: native click failed (%v), trying JS", err)
		if jsErr := s.forceClickJS(el); jsErr != nil {
			return fmt.Errorf("click: all methods failed: %w", jsErr)
		}
	}

	if newPage := s.waitForNewTab(existingIDs, 3*time.Second); newPage != nil {
		s.log.Infof("browser: click opened a new tab: %s", safeGetURL(newPage))
		s.activatePage(newPage)
	} else {
		s.safeWaitLoad(2 * time.Second)
	}

	// DOM changed; cached elements are stale.
	s.elementMap = make(map[int]*rod.Element)

	return nil
}

func (s *Service) forceClickJS(el *rod.Element) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	_, err := el.Context(ctx).Eval(`() => {
		this.click();
		this.dispatchEvent(new MouseEvent('click', {bubbles: true}));
	}`)
	return err
}

// Type replaces the content of the element with the given text.
func (s *Service) Type(id int, text string) error {
	el, err := s.element(id)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, _ = el.Context(ctx).Eval(highlightTypeScript)

	// Select existing text first so the input replaces, not appends.
	if err := el.SelectAllText(); err != nil {
		s.log.Debugf("browser: select all text: %v", err)
	}

	if err := el.Input(text); err != nil {
		return fmt.Errorf("type: %w", err)
	}

	s.elementMap = make(map[int]*rod.Element)
	return nil
}

// ReadText returns the visible text of an element, capped at 5000 bytes.
func (s *Service) ReadText(id int) (string, error) {
	el, err := s.element(id)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, _ = el.Context(ctx).Eval(`() => { this.style.border = "3px dashed orange" }`)

	val, err := el.Context(ctx).Eval(`() => {
		return this.innerText || this.textContent || this.value || "";
	}`)
	if err != nil {
		return "", fmt.Errorf("read text: %w", err)
	}

	text := val.Value.String()
	if len(text) > 5000 {
		text = text[:5000] + "...(truncated)"
	}
	return text, nil
}

// Scroll scrolls the page roughly one viewport up or down.
func (s *Service) Scroll(direction string) error {
	script := scrollDownScript
	if direction == "up" {
		script = scrollUpScript
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	_, err := s.currentPage.Context(ctx).Eval(script)

	time.Sleep(500 * time.Millisecond)

	s.elementMap = make(map[int]*rod.Element)
	return err
}

// CloseTab closes the active tab and activates the most recent remaining one.
func (s *Service) CloseTab() error {
	pages, err := s.browser.Pages()
	if err != nil {
		return err
	}
	if len(pages) <= 1 {
		return fmt.Errorf("cannot close the only tab, use navigate instead")
	}

	s.currentPage.Close()

	newPages, _ := s.browser.Pages()
	if len(newPages) == 0 {
		return fmt.Errorf("all tabs closed")
	}

	s.activatePage(newPages[len(newPages)-1])
	s.elementMap = make(map[int]*rod.Element)
	return nil
}

// GoBack navigates one history entry back.
func (s *Service) GoBack() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.currentPage.Context(ctx).NavigateBack(); err != nil {
		return err
	}

	s.safeWaitLoad(3 * time.Second)
	s.elementMap = make(map[int]*rod.Element)
	return nil
}

// PressKey presses a named special key.
func (s *Service) PressKey(keyName string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	_ = s.currentPage.Context(ctx).WaitStable(300 * time.Millisecond)

	var k input.Key
	switch keyName {
	case "enter":
		k = input.Enter
	case "escape":
		k = input.Escape
	case "tab":
		k = input.Tab
	case "backspace":
		k = input.Backspace
	case "arrow_down":
		k = input.ArrowDown
	case "arrow_up":
		k = input.ArrowUp
	case "space":
		k = input.Space
	default:
		return fmt.Errorf("unsupported key: %s", keyName)
	}

	if err := s.currentPage.Keyboard.Press(k); err != nil {
		return err
	}

	time.Sleep(500 * time.Millisecond)

	s.elementMap = make(map[int]*rod.Element)
	return nil
}

// Navigate loads a URL in the active tab.
func (s *Service) Navigate(url string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := s.currentPage.Context(ctx).Navigate(url); err != nil {
		return err
	}

	s.safeWaitLoad(5 * time.Second)

	s.elementMap = make(map[int]*rod.Element)
	return nil
}

func (s *Service) waitForNewTab(existingIDs map[string]bool, timeout time.Duration) *rod.Page {
	deadline := time.After(timeout)
	ticker := time.NewTicker(300 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-deadline:
			return nil
		case <-ticker.C:
			pages, err := s.browser.Pages()
			if err != nil {
				continue
			}
			for _, p := range pages {
				info, err := p.Info()
				if err != nil {
					continue
				}
				if !existingIDs[string(info.TargetID)] {
					return p
				}
			}
		}
	}
}

// safeWaitLoad bounds WaitLoad and absorbs the panics rod raises when the
// tab disappears mid-wait.
func (s *Service) safeWaitLoad(timeout time.Duration) {
	done := make(chan bool, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.log.Warnf("browser: panic while waiting for load: %v", r)
			}
			done <- true
		}()

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		s.currentPage.Context(ctx).WaitLoad()
	}()

	select {
	case <-done:
	case <-time.After(timeout + time.Second):
		s.log.Warnf("browser: page load timed out, continuing")
	}
}

func (s *Service) activatePage(page *rod.Page) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Warnf("browser: activate tab: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	page.Context(ctx).Activate()
	s.setCurrentPage(page)

	s.safeWaitLoad(3 * time.Second)
}

func safeGetURL(page *rod.Page) string {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	info, err := page.Context(ctx).Info()
	if err != nil {
		return "<url unavailable>"
	}
	return info.URL
}
