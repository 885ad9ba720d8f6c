package config

import (
	"os"
	"strconv"

	_ "github.com/joho/godotenv/autoload"

	"github.com/kossichris/jeu-fa-api/internal/game"
)

// Config holds everything the server reads from the environment.
// Defaults match the reference deployment of the Fà rules.
type Config struct {
	Port        int
	DatabaseURL string

	// Game rules
	MaxGameTurns         int
	InitialPFH           int
	SacrificeCost        int
	WinningPFH           int
	MaxConsecutiveLosses int
}

func Load() Config {
	return Config{
		Port:                 envInt("PORT", 8080),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		MaxGameTurns:         envInt("MAX_GAME_TURNS", 20),
		InitialPFH:           envInt("INITIAL_PFH", 100),
		SacrificeCost:        envInt("SACRIFICE_COST", 14),
		WinningPFH:           envInt("WINNING_PFH", 280),
		MaxConsecutiveLosses: envInt("MAX_CONSECUTIVE_LOSSES", 3),
	}
}

// Rules maps the environment values onto the engine's rule set.
func (c Config) Rules() game.Rules {
	return game.Rules{
		InitialPFH:           c.InitialPFH,
		SacrificeCost:        c.SacrificeCost,
		MaxTurns:             c.MaxGameTurns,
		WinningPFH:           c.WinningPFH,
		MaxConsecutiveLosses: c.MaxConsecutiveLosses,
	}
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
