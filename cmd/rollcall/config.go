package main

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sicko7947/rollcall"
	"github.com/sicko7947/rollcall/store"
)

// Config is the server configuration read from the environment
type Config struct {
	Port     string
	LogLevel zerolog.Level
	Store    store.Config
	Records  rollcall.StoreConfig
}

func get(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

// LoadConfig reads .env when present, then the process environment
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using process environment")
	}

	kind, err := store.ParseKind(get("STORE_BACKEND", string(store.DefaultConfig.Kind)))
	if err != nil {
		return nil, err
	}

	level, err := zerolog.ParseLevel(get("LOG_LEVEL", "info"))
	if err != nil {
		level = zerolog.InfoLevel
	}

	autoCreate, err := strconv.ParseBool(get("AUTO_CREATE_MEETING", "true"))
	if err != nil {
		autoCreate = rollcall.DefaultStoreConfig.AutoCreate
	}

	return &Config{
		Port:     get("PORT", "5000"),
		LogLevel: level,
		Store: store.Config{
			Kind:             kind,
			DataDir:          get("DATA_DIR", store.DefaultConfig.DataDir),
			DynamoDBTable:    get("DYNAMODB_TABLE", store.DefaultConfig.DynamoDBTable),
			DynamoDBEndpoint: get("DYNAMODB_ENDPOINT", ""),
			MongoURI:         get("MONGODB_URI", ""),
			MongoDatabase:    get("MONGODB_DATABASE", store.DefaultConfig.MongoDatabase),
		},
		Records: rollcall.StoreConfig{
			DefaultAgenda: get("DEFAULT_AGENDA", rollcall.DefaultStoreConfig.DefaultAgenda),
			AutoCreate:    autoCreate,
		},
	}, nil
}
