// Package config assembles runtime settings from TASKORA_* environment
// variables into one injectable struct. Nothing in the service reads the
// environment directly.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config carries every runtime setting the service needs.
type Config struct {
	Addr        string
	GRPCAddr    string
	DatabaseDSN string

	AuthSecret string
	TokenTTL   time.Duration

	ArgonTime        uint32
	ArgonMemoryKiB   uint32
	ArgonParallelism uint8

	RateBurst     int
	RatePerSecond float64
	MaxBodyBytes  int64
}

// FromEnv reads the TASKORA_* variables and validates the result. A missing
// signing secret is fatal: the service must never fall back to a default key.
func FromEnv() (Config, error) {
	cfg := Config{
		Addr:        envString("TASKORA_ADDR", ":8080"),
		GRPCAddr:    envString("TASKORA_GRPC_ADDR", ":9090"),
		DatabaseDSN: os.Getenv("TASKORA_PG_DSN"),
		AuthSecret:  os.Getenv("TASKORA_AUTH_SECRET"),
	}
	if cfg.AuthSecret == "" {
		return Config{}, fmt.Errorf("TASKORA_AUTH_SECRET is required")
	}

	ttlMinutes, err := envInt("TASKORA_TOKEN_TTL_MINUTES", 30)
	if err != nil {
		return Config{}, err
	}
	if ttlMinutes <= 0 {
		return Config{}, fmt.Errorf("TASKORA_TOKEN_TTL_MINUTES must be positive")
	}
	cfg.TokenTTL = time.Duration(ttlMinutes) * time.Minute

	argonTime, err := envInt("TASKORA_ARGON_TIME", 2)
	if err != nil {
		return Config{}, err
	}
	argonMemory, err := envInt("TASKORA_ARGON_MEMORY_KIB", 64*1024)
	if err != nil {
		return Config{}, err
	}
	argonParallelism, err := envInt("TASKORA_ARGON_PARALLELISM", 4)
	if err != nil {
		return Config{}, err
	}
	if argonTime <= 0 || argonMemory <= 0 || argonParallelism <= 0 || argonParallelism > 255 {
		return Config{}, fmt.Errorf("argon2 cost settings out of range")
	}
	cfg.ArgonTime = uint32(argonTime)
	cfg.ArgonMemoryKiB = uint32(argonMemory)
	cfg.ArgonParallelism = uint8(argonParallelism)

	cfg.RateBurst, err = envInt("TASKORA_RATE_BURST", 20)
	if err != nil {
		return Config{}, err
	}
	cfg.RatePerSecond, err = envFloat("TASKORA_RATE_PER_SECOND", 10)
	if err != nil {
		return Config{}, err
	}
	maxBody, err := envInt("TASKORA_MAX_BODY_BYTES", 1<<20)
	if err != nil {
		return Config{}, err
	}
	cfg.MaxBodyBytes = int64(maxBody)
	return cfg, nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func envFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}
