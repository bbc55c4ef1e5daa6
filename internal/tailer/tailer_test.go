package tailer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeLine(t *testing.T) {
	env, ts, ok := DecodeLine(`{"ts":"2026-08-25T10:00:00.000+0000","level":"info","msg":"click","source":"automation-fact","id":7,"outcome":"ok"}`)
	require.True(t, ok)
	assert.Equal(t, "info", env.Level)
	assert.Equal(t, "automation-fact", env.Source)
	assert.Equal(t, "click", env.Message)
	assert.Equal(t, "2026-08-25T10:00:00.000+0000", ts)
	assert.Equal(t, float64(7), env.Fields["id"])
	assert.Equal(t, "ok", env.Fields["outcome"])
	assert.NotContains(t, env.Fields, "level")
	assert.NotContains(t, env.Fields, "ts")
}

func TestDecodeLineMalformed(t *testing.T) {
	_, _, ok := DecodeLine("not json at all")
	assert.False(t, ok)

	_, _, ok = DecodeLine(`{"unrelated": true}`)
	assert.False(t, ok)
}

func TestCompileFilterEmpty(t *testing.T) {
	program, err := CompileFilter("")
	require.NoError(t, err)
	assert.Nil(t, program)
	assert.True(t, Match(program, FilterEnv{}))
}

func TestCompileFilterBadExpression(t *testing.T) {
	_, err := CompileFilter("Level ==")
	require.Error(t, err)
}

func TestMatchFilter(t *testing.T) {
	program, err := CompileFilter(`Source == "network" && Level != "debug"`)
	require.NoError(t, err)

	assert.True(t, Match(program, FilterEnv{Source: "network", Level: "info"}))
	assert.False(t, Match(program, FilterEnv{Source: "network", Level: "debug"}))
	assert.False(t, Match(program, FilterEnv{Source: "model-intent", Level: "info"}))
}

func TestMatchFilterOnFields(t *testing.T) {
	program, err := CompileFilter(`Message == "click" && Fields["outcome"] != "ok"`)
	require.NoError(t, err)

	assert.True(t, Match(program, FilterEnv{
		Message: "click",
		Fields:  map[string]any{"outcome": "element 7 not found"},
	}))
	assert.False(t, Match(program, FilterEnv{
		Message: "click",
		Fields:  map[string]any{"outcome": "ok"},
	}))
}

func TestFormatEvent(t *testing.T) {
	out := FormatEvent(FilterEnv{
		Level:   "info",
		Source:  "automation-fact",
		Message: "click",
		Fields:  map[string]any{"outcome": "ok", "id": 7},
	}, "2026-08-25T10:00:00")

	assert.Equal(t, "2026-08-25T10:00:00 INFO  [automation-fact] click id=7 outcome=ok", out)
}
