package services

import (
	"testing"
	"time"

	"scholar-export/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(provider string) *config.Config {
	return &config.Config{
		MaxResults:             7,
		ImpactFactorBase:       10,
		SearchProvider:         provider,
		SearchPageSize:         10,
		SemanticScholarBaseURL: "http://localhost",
		OpenAlexBaseURL:        "http://localhost",
		CrossrefBaseURL:        "http://localhost",
		HTTPTimeout:            time.Second,
		CrossrefRPS:            1,
		SearchRPS:              1,
	}
}

func TestNewStack(t *testing.T) {
	for _, name := range []string{"semanticscholar", "OpenAlex"} {
		stack, err := NewStack(testConfig(name), zap.NewNop())
		require.NoError(t, err)
		assert.Equal(t, 7, stack.Pipeline.DefaultMax)
		assert.Len(t, stack.Health.Targets, 2)
	}
}

func TestNewSearchProvider_Unknown(t *testing.T) {
	_, err := NewSearchProvider(testConfig("scholar"), zap.NewNop())
	assert.Error(t, err)
}
