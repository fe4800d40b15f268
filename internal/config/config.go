package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	MongoURI       string
	DBName         string
	JWTSecret      string
	AccessTokenTTL time.Duration
	BcryptCost     int
	LogLevel       string
	CORSOrigins    []string
	PublicDir      string

	KafkaBrokers    []string
	KafkaOrderTopic string

	RepairInterval time.Duration
	RepairGrace    time.Duration
}

// Load reads .env (when present) and the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	cfg := Config{
		Port:            getEnvOrDefault("PORT", "5000"),
		MongoURI:        getEnvOrDefault("MONGO_URI", ""),
		DBName:          getEnvOrDefault("DB_NAME", "marketplace"),
		JWTSecret:       getEnvOrDefault("JWT_SECRET", ""),
		AccessTokenTTL:  getDurationEnv("ACCESS_TOKEN_TTL", 3*24*60, time.Minute),
		BcryptCost:      getIntEnv("BCRYPT_COST", 10),
		LogLevel:        getEnvOrDefault("LOG_LEVEL", "info"),
		CORSOrigins:     getListEnv("CORS_ORIGINS"),
		PublicDir:       getEnvOrDefault("PUBLIC_DIR", "./public"),
		KafkaBrokers:    getListEnv("KAFKA_BROKERS"),
		KafkaOrderTopic: getEnvOrDefault("KAFKA_ORDER_TOPIC", "orders"),
		RepairInterval:  getDurationEnv("REPAIR_INTERVAL", 60, time.Second),
		RepairGrace:     getDurationEnv("REPAIR_GRACE", 30, time.Second),
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error
	if c.MongoURI == "" {
		errs = append(errs, errors.New("MONGO_URI is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	return errors.Join(errs...)
}
