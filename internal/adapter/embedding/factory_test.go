package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"vendorrag/config"
)

func TestNewFromConfig(t *testing.T) {
	cfg := config.DefaultConfig().Embedding

	e, err := NewFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "hash", e.ModelName())
	assert.Equal(t, cfg.Dimension, e.Dimension())

	cfg.Provider = "ollama"
	cfg.Model = "all-minilm"
	e, err = NewFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, 384, e.Dimension())

	cfg.Provider = "carrier-pigeon"
	_, err = NewFromConfig(cfg)
	assert.Error(t, err)
}
