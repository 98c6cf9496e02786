package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 13, EstimateTokens("one two three four five six seven eight nine ten"))
	assert.Equal(t, 4, EstimateTokens("  fresh   sourdough  daily "))
}

func TestCountTokensFallsBackForUnknownModel(t *testing.T) {
	n, exact := CountTokens("definitely-not-a-model", "one two three four five six seven eight nine ten", zap.NewNop())
	assert.False(t, exact)
	assert.Equal(t, 13, n)
}

func TestPromptsMentionStructure(t *testing.T) {
	p := BlogPrompt("Bakery", "Austin", "Sourdough trends", "casual")
	assert.Contains(t, p, "Be locally relevant to Austin")
	assert.Contains(t, p, "Include industry-specific insights for Bakery")
	assert.Contains(t, p, "3-4 main sections with subheadings")
	assert.Contains(t, p, "A clear conclusion with call-to-action")

	assert.Contains(t, SystemPrompt(), "expert content writer specializing in local business blogging")
}
