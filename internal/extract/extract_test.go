package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "github.com/sathyaincampus/software-engineering-agents/internal/errors"
)

func TestStructured_DirectJSON(t *testing.T) {
	e := New(0)
	v, env := e.Structured(`{"app_ideas": ["a", "b"]}`)
	require.Nil(t, env)
	m, ok := v.(map[string]any)
	require.True(t, ok)
	assert.Len(t, m["app_ideas"], 2)
}

func TestStructured_FencedJSON(t *testing.T) {
	e := New(0)
	text := "Here are your ideas:\n```json\n{\"title\": \"Todo App\"}\n```\nLet me know!"
	v, env := e.Structured(text)
	require.Nil(t, env)
	assert.Equal(t, map[string]any{"title": "Todo App"}, v)
}

func TestStructured_GenericFence(t *testing.T) {
	e := New(0)
	text := "```\n[1, 2, 3]\n```"
	v, env := e.Structured(text)
	require.Nil(t, env)
	assert.Equal(t, []any{float64(1), float64(2), float64(3)}, v)
}

func TestStructured_PrefersJSONFence(t *testing.T) {
	e := New(0)
	text := "```\nnot json\n```\n```json\n{\"ok\": true}\n```"
	v, env := e.Structured(text)
	require.Nil(t, env)
	assert.Equal(t, map[string]any{"ok": true}, v)
}

func TestStructured_Empty(t *testing.T) {
	e := New(0)
	for _, text := range []string{"", "   ", "\n\t"} {
		v, env := e.Structured(text)
		assert.Nil(t, v)
		require.NotNil(t, env)
		assert.Equal(t, perrors.TypeEmptyResponse, env.ErrorType)
	}
}

func TestStructured_ParseFailureCarriesRawOutput(t *testing.T) {
	e := New(0)
	v, env := e.Structured("I could not produce JSON, sorry.")
	assert.Nil(t, v)
	require.NotNil(t, env)
	assert.Equal(t, perrors.TypeParseFailure, env.ErrorType)
	assert.Equal(t, "I could not produce JSON, sorry.", env.RawOutput)
}

func TestStructured_RawOutputTruncated(t *testing.T) {
	e := New(10)
	_, env := e.Structured(strings.Repeat("x", 50))
	require.NotNil(t, env)
	assert.Len(t, env.RawOutput, 10)
}

func TestStructured_NoDoubleWrap(t *testing.T) {
	e := New(0)
	v, env := e.Structured(`{"error": "x"}`)
	require.Nil(t, env)
	assert.Equal(t, map[string]any{"error": "x"}, v)
}

func TestDocument_MarkdownFence(t *testing.T) {
	e := New(0)
	text := "Sure!\n```markdown\n# PRD\n\nSome content.\n```"
	assert.Equal(t, "# PRD\n\nSome content.", e.Document(text))
}

func TestDocument_NoFenceReturnsTrimmed(t *testing.T) {
	e := New(0)
	assert.Equal(t, "# PRD", e.Document("  # PRD\n"))
}
