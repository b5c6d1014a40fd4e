package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

func New() Config {
	return Config{
		BasePath: requireEnv("BASE_PATH"),
		Postgresql: Postgresql{
			Host:         requireEnv("DATABASE_HOST"),
			Port:         requireEnvAsInt("DATABASE_PORT"),
			Username:     requireEnv("DATABASE_USERNAME"),
			Password:     requireEnv("DATABASE_PASSWORD"),
			DatabaseName: requireEnv("DATABASE_NAME"),
		},
		Discord: Discord{
			Token: requireEnv("DISCORD_TOKEN"),
		},
		Potluck: Potluck{
			DefaultTimezone: envOrDefault("DEFAULT_TIMEZONE", "America/New_York"),
			EditWindow:      envAsDurationOrDefault("MESSAGE_EDIT_WINDOW", 15*time.Minute),
			RefreshDelay:    envAsDurationOrDefault("DISPLAY_REFRESH_DELAY", 100*time.Millisecond),
		},
	}
}

type Config struct {
	BasePath   string
	Postgresql Postgresql
	Discord    Discord
	Potluck    Potluck
}

type Postgresql struct {
	Host         string
	Port         int
	Username     string
	Password     string
	DatabaseName string
}

type Discord struct {
	Token string
}

// Potluck holds the tunables of the potluck engine. EditWindow is the
// platform's bound on in-place message edits; RefreshDelay is the pause
// between a claim mutation and the display refresh.
type Potluck struct {
	DefaultTimezone string
	EditWindow      time.Duration
	RefreshDelay    time.Duration
}

func requireEnv(key string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		log.Fatalf("Can't find environment variable: %s\n", key)
	}
	return value
}

func requireEnvAsInt(key string) int {
	valueStr := requireEnv(key)
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Fatalf("Can't parse value as integer: %s", err.Error())
	}
	return value
}

func envOrDefault(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func envAsDurationOrDefault(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		log.Fatal(fmt.Sprintf("Can't parse value of %s as duration: %s", key, err.Error()))
	}
	return duration
}
