package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort         string
	Asset           string
	Fiat            string
	RefreshInterval time.Duration // also the freshness window
	MaxSnapshotAge  time.Duration
	TopOffers       int
	FetchRows       int
	FetchTimeout    time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, reading from environment directly")
	}

	return &Config{
		AppPort:         getEnv("APP_PORT", "3001"),
		Asset:           getEnv("ASSET", "USDT"),
		Fiat:            getEnv("FIAT", "VND"),
		RefreshInterval: getEnvDuration("REFRESH_INTERVAL", 10*time.Minute),
		MaxSnapshotAge:  getEnvDuration("MAX_SNAPSHOT_AGE", 30*time.Minute),
		TopOffers:       getEnvInt("TOP_OFFERS", 5),
		FetchRows:       getEnvInt("FETCH_ROWS", 10),
		FetchTimeout:    getEnvDuration("FETCH_TIMEOUT", 30*time.Second),
	}
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("invalid %s=%q, using default %d", key, value, fallback)
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("invalid %s=%q, using default %s", key, value, fallback)
		return fallback
	}
	return d
}
