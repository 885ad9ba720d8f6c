package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	assert := assert.New(t)
	for _, key := range []string{"PORT", "MAX_GAME_TURNS", "INITIAL_PFH", "SACRIFICE_COST", "WINNING_PFH", "MAX_CONSECUTIVE_LOSSES"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(8080, cfg.Port)
	assert.Equal(20, cfg.MaxGameTurns)
	assert.Equal(100, cfg.InitialPFH)
	assert.Equal(14, cfg.SacrificeCost)
	assert.Equal(280, cfg.WinningPFH)
	assert.Equal(3, cfg.MaxConsecutiveLosses)
}

func TestLoadFromEnvironment(t *testing.T) {
	assert := assert.New(t)
	t.Setenv("PORT", "9000")
	t.Setenv("MAX_GAME_TURNS", "10")
	t.Setenv("WINNING_PFH", "not-a-number")

	cfg := Load()
	assert.Equal(9000, cfg.Port)
	assert.Equal(10, cfg.MaxGameTurns)
	assert.Equal(280, cfg.WinningPFH, "Unparseable values fall back to the default")
}

func TestRulesMapping(t *testing.T) {
	cfg := Config{
		InitialPFH:           50,
		SacrificeCost:        7,
		MaxGameTurns:         5,
		WinningPFH:           140,
		MaxConsecutiveLosses: 2,
	}
	rules := cfg.Rules()
	assert.Equal(t, 50, rules.InitialPFH)
	assert.Equal(t, 7, rules.SacrificeCost)
	assert.Equal(t, 5, rules.MaxTurns)
	assert.Equal(t, 140, rules.WinningPFH)
	assert.Equal(t, 2, rules.MaxConsecutiveLosses)
}
