package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedRegistersProviderAndToolModels(t *testing.T) {
	reg, err := Seed([]string{"gpt-3.5-turbo", " gpt-4 ", ""})
	require.NoError(t, err)

	chat, found := reg.Get("gpt-3.5-turbo")
	require.True(t, found)
	assert.True(t, chat.Has(CapChat))
	assert.True(t, chat.Has(CapCompletion))
	assert.Equal(t, 16385, chat.ContextLength)

	four, found := reg.Get("gpt-4")
	require.True(t, found)
	assert.Equal(t, 8192, four.ContextLength)

	for id, capability := range map[string]Capability{
		"git-analyzer":      CapGit,
		"git-diff-analyzer": CapGit,
		"filesystem":        CapFilesystem,
		"prometheus":        CapPrometheus,
	} {
		model, found := reg.Get(id)
		require.True(t, found, id)
		assert.True(t, model.Has(capability), id)
	}

	// Tool models follow the provider models in listing order.
	models := reg.List()
	require.Len(t, models, 6)
	assert.Equal(t, "gpt-3.5-turbo", models[0].ID)
	assert.Equal(t, "prometheus", models[len(models)-1].ID)
}

func TestSeedRejectsDuplicateProviderModels(t *testing.T) {
	_, err := Seed([]string{"gpt-4", "gpt-4"})
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestSeedUnknownModelGetsDefaultContext(t *testing.T) {
	reg, err := Seed([]string{"qwen3"})
	require.NoError(t, err)
	model, found := reg.Get("qwen3")
	require.True(t, found)
	assert.Equal(t, defaultContextLength, model.ContextLength)
}
