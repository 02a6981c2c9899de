package toolmanager

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deepcli/internal/tools"
)

func stubFactory(name string) Factory {
	return func(ctx context.Context) (tools.Tool, error) {
		return &stubTool{name: name}, nil
	}
}

func TestRegistryRegisterAndLookup(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register("alpha", stubFactory("alpha")))

	factory, ok := registry.Lookup("alpha")
	require.True(t, ok)
	tool, err := factory(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alpha", tool.Name())

	_, ok = registry.Lookup("missing")
	assert.False(t, ok)
}

func TestRegistryKeysAreCaseInsensitive(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register("LLMQueryTool", stubFactory("x")))

	_, ok := registry.Lookup("llmquerytool")
	assert.True(t, ok)
	_, ok = registry.Lookup("LLMQUERYTOOL")
	assert.True(t, ok)
	assert.Equal(t, []string{"llmquerytool"}, registry.Keys())
}

func TestRegistryRejectsBadInput(t *testing.T) {
	registry := NewRegistry()
	assert.Error(t, registry.Register("", stubFactory("x")))
	assert.Error(t, registry.Register("x", nil))
	assert.Equal(t, 0, registry.Len())
}

func TestRegistryKeysPreserveOrder(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register("charlie", stubFactory("charlie")))
	require.NoError(t, registry.Register("alpha", stubFactory("alpha")))
	require.NoError(t, registry.Register("bravo", stubFactory("bravo")))

	assert.Equal(t, []string{"charlie", "alpha", "bravo"}, registry.Keys())
	assert.Equal(t, []string{"alpha", "bravo", "charlie"}, registry.SortedKeys())
}

func TestRegistryRejectsDuplicateKey(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register("alpha", stubFactory("first")))
	assert.Error(t, registry.Register("alpha", stubFactory("second")))
	assert.Error(t, registry.Register("ALPHA", stubFactory("second")))

	assert.Equal(t, []string{"alpha"}, registry.Keys())
	factory, ok := registry.Lookup("alpha")
	require.True(t, ok)
	tool, err := factory(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", tool.Name())
}
