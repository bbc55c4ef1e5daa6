package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Gytisw/agentlog/internal/application"
	"github.com/Gytisw/agentlog/internal/config"
	"github.com/Gytisw/agentlog/internal/tailer"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "agentlog",
		Short:         "LLM browser agent with a durable action log",
		Long:          "agentlog drives a browser from an LLM and records model intents,\nexecuted automation commands and page network traffic as structured events.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to the YAML config file")

	root.AddCommand(newRunCmd(&configPath))
	root.AddCommand(newTailCmd(&configPath))
	root.AddCommand(newVersionCmd())

	return root
}

func newRunCmd(configPath *string) *cobra.Command {
	var (
		headless bool
		logFile  string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the agent REPL",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("headless") {
				cfg.Browser.Headless = headless
			}
			if logFile != "" {
				cfg.Log.File.Path = logFile
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return application.Run(ctx, cfg)
		},
	}
	cmd.Flags().BoolVar(&headless, "headless", false, "run the browser without a window")
	cmd.Flags().StringVar(&logFile, "log-file", "", "override the action log path")
	return cmd
}

func newTailCmd(configPath *string) *cobra.Command {
	var (
		file      string
		filter    string
		fromStart bool
	)

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Follow the action log",
		Long: `Follow the NDJSON action log, optionally filtered by an expression over
Level, Source, Message and Fields, e.g.:

  agentlog tail --filter 'Source == "network" && Fields["status"] >= 400'
  agentlog tail --filter 'Message == "click" && Fields["outcome"] != "ok"'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				cfg, err := config.Load(*configPath)
				if err != nil {
					return err
				}
				file = cfg.Log.File.Path
			}
			if file == "" {
				return fmt.Errorf("no log file configured; pass --file")
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			err := tailer.Follow(ctx, tailer.Options{
				File:      file,
				Filter:    filter,
				FromStart: fromStart,
			}, os.Stdout)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "log file to follow (default: from config)")
	cmd.Flags().StringVar(&filter, "filter", "", "expr filter expression")
	cmd.Flags().BoolVar(&fromStart, "from-start", false, "read the whole file instead of only new lines")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("agentlog %s\n", version)
		},
	}
}
