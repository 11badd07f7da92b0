package main

import (
	"os"
	"strconv"

	"github.com/massung/chip16emu/chip16"
)

// Config holds the small set of knobs the CLI exposes, generalized from
// the teacher's flag-driven ETI boolean into a struct instead of package
// globals.
type Config struct {
	ROM      string
	LogLevel string
	Speed    int
	StartPC  uint16
}

func defaultConfig() Config {
	return Config{
		ROM:      envOr("CHIP16_ROM", ""),
		LogLevel: envOr("CHIP16_LOG_LEVEL", "info"),
		Speed:    envOrInt("CHIP16_SPEED", chip16.InstructionsPerFrame),
		StartPC:  0,
	}
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
