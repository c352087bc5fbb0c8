package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-data-pipeline/internal/config"
	"travel-data-pipeline/internal/domain"
	"travel-data-pipeline/internal/publish"
)

func TestOpenSinks_MemoryAndFile(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSinks(ctx, config.SinksConfig{
		UseMemory: true,
		OutputDir: filepath.Join(t.TempDir(), "out"),
	}, zerolog.Nop())
	require.NoError(t, err)
	defer s.Close()

	require.Len(t, s.Publisher, 2)
	require.NotNil(t, s.Rates)
	require.NotNil(t, s.Runs)

	rec := domain.CombinedCurrencyRecord{DataType: domain.DataTypeExchangeRate, CycleID: "c1", CountryCode3: "USA"}
	require.NoError(t, s.Publisher.PublishRates(ctx, []domain.CombinedCurrencyRecord{rec}))

	stored, err := s.Rates.GetByCycle(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestOpenSinks_NoneConfigured(t *testing.T) {
	_, err := OpenSinks(context.Background(), config.SinksConfig{}, zerolog.Nop())
	assert.ErrorIs(t, err, publish.ErrNoPublishers)
}

func TestNewCycles(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	s, err := OpenSinks(context.Background(), config.SinksConfig{UseMemory: true}, zerolog.Nop())
	require.NoError(t, err)
	defer s.Close()

	c := NewCycles(cfg, nil, s, nil, zerolog.Nop())
	require.NotNil(t, c.Rates)
	require.NotNil(t, c.Trends)
}
