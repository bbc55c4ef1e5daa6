// Package application wires the pieces together and runs the interactive
// task loop.
package application

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-rod/rod"

	"github.com/Gytisw/agentlog/internal/agent"
	"github.com/Gytisw/agentlog/internal/browser"
	"github.com/Gytisw/agentlog/internal/config"
	"github.com/Gytisw/agentlog/internal/intercept"
	"github.com/Gytisw/agentlog/internal/llm"
	"github.com/Gytisw/agentlog/internal/logsink"
	"github.com/Gytisw/agentlog/internal/metrics"
	"github.com/Gytisw/agentlog/internal/netwatch"
)

// Run starts the agent REPL: read a task from stdin, drive it through the
// orchestrator, repeat until exit or ctx cancellation.
func Run(ctx context.Context, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	sink, err := logsink.New(cfg.Log)
	if err != nil {
		return err
	}
	defer sink.Sync()
	log := sink.Logger()

	log.Infof("starting agentlog (model=%s, base_url=%s)", cfg.LLM.Model, cfg.LLM.BaseURL)

	if cfg.Metrics.Listen != "" {
		srv := metrics.Serve(cfg.Metrics.Listen, func(err error) {
			log.Errorf("metrics listener: %v", err)
		})
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		log.Infof("metrics on http://%s/metrics", cfg.Metrics.Listen)
	}

	log.Infof("launching browser (headless=%v)", cfg.Browser.Headless)
	browserSvc, err := browser.New(ctx, browser.Options{
		Headless:    cfg.Browser.Headless,
		UserDataDir: cfg.Browser.UserDataDir,
	}, log)
	if err != nil {
		return fmt.Errorf("browser launch: %w", err)
	}
	defer browserSvc.Close()

	if cfg.Network.Capture {
		observer, err := netwatch.New(sink, cfg.Network)
		if err != nil {
			return err
		}
		if err := observer.Watch(ctx, browserSvc.Page()); err != nil {
			return err
		}
		defer observer.Stop()

		// Follow the agent when it switches tabs so capture never goes dark.
		browserSvc.OnPageChange(func(p *rod.Page) {
			if err := observer.Watch(ctx, p); err != nil {
				log.Warnf("network capture: re-attach: %v", err)
			}
		})
	}

	brain := llm.New(llm.Options{
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
		BaseURL: cfg.LLM.BaseURL,
		Timeout: time.Duration(cfg.LLM.RequestTimeout) * time.Second,
	}, log)

	logged := intercept.New(browserSvc, sink, sink.Verbose())
	orchestrator := agent.New(logged, brain, sink).WithMaxSteps(cfg.Agent.MaxSteps)

	fmt.Println("==================================================")
	fmt.Println("🤖 agent online, browser ready")
	fmt.Println("   (type 'exit', 'quit' or Ctrl+C to leave)")
	fmt.Println("==================================================")

	reader := bufio.NewReader(os.Stdin)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		fmt.Print("\n💬 enter a task > ")
		task, err := reader.ReadString('\n')
		if err != nil {
			return nil // EOF
		}

		task = strings.TrimSpace(task)
		if task == "" {
			continue
		}
		if task == "exit" || task == "quit" {
			log.Infof("shutting down")
			return nil
		}

		log.Infof("task accepted: %q", task)
		if err := orchestrator.RunTask(ctx, task); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Errorf("task failed: %v", err)
			continue
		}
		log.Infof("task finished, ready for the next one")
	}
}
