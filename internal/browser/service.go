// Package browser drives a real Chromium instance through rod. It exposes
// the capability set the agent needs (observe, click, type, navigate, ...)
// and keeps a numbered map of interactive elements so the model can address
// them by short IDs instead of selectors.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"go.uber.org/zap"
)

// Service owns the browser connection and the active tab.
type Service struct {
	browser      *rod.Browser
	currentPage  *rod.Page
	elementMap   map[int]*rod.Element // ID -> element cache, invalidated on DOM changes
	onPageChange func(*rod.Page)
	log          *zap.SugaredLogger
}

// Options configure the browser launch.
type Options struct {
	Headless    bool
	UserDataDir string
}

// New launches a stealth browser page and connects to it.
func New(ctx context.Context, opts Options, log *zap.SugaredLogger) (*Service, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if opts.UserDataDir == "" {
		opts.UserDataDir = "user_data"
	}

	launch := launcher.New().
		Leakless(true).
		Headless(opts.Headless).
		UserDataDir(opts.UserDataDir)

	controlURL, err := launch.Launch()
	if err != nil {
		return nil, fmt.Errorf("browser: launch: %w", err)
	}

	b := rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("browser: connect: %w", err)
	}

	page, err := stealth.Page(b)
	if err != nil {
		return nil, fmt.Errorf("browser: stealth page: %w", err)
	}

	scale := 1.0
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:  1920,
		Height: 1080,
		Scale:  &scale,
		Mobile: false,
	}); err != nil {
		log.Warnf("browser: set viewport: %v", err)
	}

	page.Timeout(10 * time.Second)

	return &Service{
		browser:     b,
		currentPage: page,
		elementMap:  make(map[int]*rod.Element),
		log:         log,
	}, nil
}

// Page returns the active tab. The network observer attaches to it.
func (s *Service) Page() *rod.Page {
	return s.currentPage
}

// OnPageChange registers a callback fired whenever the active tab changes:
// a click opening a new tab, a tab close, or dead-tab recovery. The network
// observer uses it to follow the agent across tabs.
func (s *Service) OnPageChange(fn func(*rod.Page)) {
	s.onPageChange = fn
}

// setCurrentPage is the single place the active tab is swapped. It resets
// the element cache and notifies the page-change callback.
func (s *Service) setCurrentPage(page *rod.Page) {
	s.currentPage = page
	s.elementMap = make(map[int]*rod.Element)
	if s.onPageChange != nil {
		s.onPageChange(page)
	}
}

// PageInfo returns the active tab's URL and target ID, empty on failure.
func (s *Service) PageInfo() (string, string) {
	if s.currentPage == nil {
		return "", ""
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	info, err := s.currentPage.Context(ctx).Info()
	if err != nil {
		return "", ""
	}
	return info.URL, string(info.TargetID)
}

// Close shuts the browser down.
func (s *Service) Close() {
	if s.browser == nil {
		return
	}
	if err := s.browser.Close(); err != nil {
		s.log.Warnf("browser: close: %v", err)
	}
}
