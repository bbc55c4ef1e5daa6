// Package tailer follows the NDJSON action log and prints events matching
// an optional expr filter. It survives rotation (reopen) and skips lines it
// cannot decode instead of dying on them.
package tailer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/nxadm/tail"
)

// Options configure a follow session.
type Options struct {
	File   string
	Filter string // expr expression over FilterEnv; empty matches everything
	// FromStart reads the whole file instead of only new lines.
	FromStart bool
}

// FilterEnv is what a filter expression sees for each decoded event.
type FilterEnv struct {
	Level   string
	Source  string
	Message string
	Fields  map[string]any
}

// CompileFilter compiles a filter expression. Empty means match-all (nil
// program).
func CompileFilter(filter string) (*vm.Program, error) {
	if filter == "" {
		return nil, nil
	}
	program, err := expr.Compile(filter, expr.Env(FilterEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("tailer: compile filter: %w", err)
	}
	return program, nil
}

// Match evaluates the filter against one event. A nil program matches.
func Match(program *vm.Program, env FilterEnv) bool {
	if program == nil {
		return true
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return false
	}
	matched, ok := out.(bool)
	return ok && matched
}

// reserved keys the sink's JSON encoder writes alongside the payload.
var reservedKeys = map[string]bool{
	"ts": true, "level": true, "msg": true, "source": true,
}

// DecodeLine parses one NDJSON line into a FilterEnv plus its timestamp.
// Returns false for lines that are not valid event JSON.
func DecodeLine(line string) (FilterEnv, string, bool) {
	var m map[string]any
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		return FilterEnv{}, "", false
	}

	env := FilterEnv{Fields: make(map[string]any)}
	env.Level, _ = m["level"].(string)
	env.Source, _ = m["source"].(string)
	env.Message, _ = m["msg"].(string)
	ts, _ := m["ts"].(string)

	if env.Message == "" && env.Level == "" {
		return FilterEnv{}, "", false
	}

	for k, v := range m {
		if !reservedKeys[k] {
			env.Fields[k] = v
		}
	}
	return env, ts, true
}

// FormatEvent renders one event for the console.
func FormatEvent(env FilterEnv, ts string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %-5s [%s] %s", ts, strings.ToUpper(env.Level), env.Source, env.Message)

	keys := make([]string, 0, len(env.Fields))
	for k := range env.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, env.Fields[k])
	}
	return b.String()
}

// Follow tails the file until ctx is cancelled, writing matching events to
// out. Malformed lines produce a one-line warning and are skipped.
func Follow(ctx context.Context, opts Options, out io.Writer) error {
	program, err := CompileFilter(opts.Filter)
	if err != nil {
		return err
	}

	cfg := tail.Config{
		Follow:    true,
		ReOpen:    true, // keep following across rotation
		MustExist: false,
		Poll:      true, // inotify is not available everywhere
		Logger:    tail.DiscardingLogger,
	}
	if !opts.FromStart {
		cfg.Location = &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd}
	}

	t, err := tail.TailFile(opts.File, cfg)
	if err != nil {
		return fmt.Errorf("tailer: tail %s: %w", opts.File, err)
	}
	defer t.Cleanup()

	for {
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case line, ok := <-t.Lines:
			if !ok {
				return nil
			}
			if line.Err != nil {
				fmt.Fprintf(out, "! read error: %v\n", line.Err)
				continue
			}
			if strings.TrimSpace(line.Text) == "" {
				continue
			}
			env, ts, ok := DecodeLine(line.Text)
			if !ok {
				fmt.Fprintf(out, "! skipping malformed line\n")
				continue
			}
			if Match(program, env) {
				fmt.Fprintln(out, FormatEvent(env, ts))
			}
		}
	}
}
