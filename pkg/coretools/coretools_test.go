package coretools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selma/toolforge/pkg/registry"
)

func TestRegisterBuiltins(t *testing.T) {
	reg := registry.New()
	require.NoError(t, RegisterBuiltins(reg))

	for _, name := range []string{"echo", "clock", "keywords", "word_count", "summary"} {
		tool, ok := reg.Get(name)
		require.True(t, ok, "builtin %s missing", name)
		assert.NotNil(t, tool.Handler)
		assert.NotEmpty(t, tool.Category)
		assert.NotEmpty(t, tool.Keywords)
	}

	t.Run("nil registry rejected", func(t *testing.T) {
		assert.Error(t, RegisterBuiltins(nil))
	})

	t.Run("double registration rejected", func(t *testing.T) {
		assert.Error(t, RegisterBuiltins(reg))
	})
}

func TestBuiltinHandlers(t *testing.T) {
	reg := registry.New()
	require.NoError(t, RegisterBuiltins(reg))

	run := func(name, query string) interface{} {
		tool, ok := reg.Get(name)
		require.True(t, ok)
		out, err := tool.Handler(context.Background(), query, nil)
		require.NoError(t, err)
		return out
	}

	assert.Equal(t, "hello there", run("echo", "hello there"))
	assert.NotEmpty(t, run("clock", "what time is it"))
	assert.Equal(t, "broadband, plans", run("keywords", "what are the broadband plans"))
	assert.Equal(t, "3 words", run("word_count", "one two three"))
	assert.Contains(t, run("summary", "compare the broadband plans"), "significant terms")
}

func TestSummaryDependsOnKeywords(t *testing.T) {
	reg := registry.New()
	require.NoError(t, RegisterBuiltins(reg))

	assert.Equal(t, []string{"keywords"}, reg.Dependencies("summary"))
	assert.Equal(t, []string{"word_count"}, reg.Fallbacks("summary"))
}
