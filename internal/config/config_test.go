package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPostgresDSN = "postgres://localhost/test"

func TestLoad_MissingRequired(t *testing.T) {
	_, err := Load()
	require.Error(t, err)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("POSTGRES_DSN", testPostgresDSN)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, testPostgresDSN, cfg.PostgresDSN)
	assert.Equal(t, "local", cfg.AppEnv)
	assert.InDelta(t, 0.75, cfg.SimilarityThreshold, 0.0001)
	assert.Equal(t, 5, cfg.ClaimWorkerBatchSize)
	assert.Equal(t, "openai", cfg.AdjudicatorBackend)
	assert.Equal(t, 50, cfg.TGFetchLimit)
}

func TestAuthoritativeDomainList(t *testing.T) {
	cfg := &Config{AuthoritativeDomains: " who.int, pib.gov.in ,,reuters.com"}
	assert.Equal(t, []string{"who.int", "pib.gov.in", "reuters.com"}, cfg.AuthoritativeDomainList())

	empty := &Config{}
	assert.Nil(t, empty.AuthoritativeDomainList())
}

func TestChannelList(t *testing.T) {
	cfg := &Config{TGChannels: " altnews_in, boomlive ,,pib_fact_check"}
	assert.Equal(t, []string{"altnews_in", "boomlive", "pib_fact_check"}, cfg.ChannelList())

	empty := &Config{}
	assert.Nil(t, empty.ChannelList())
}
