package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	MongoURI    string
	MongoDBName string

	RedisAddr     string
	RedisPassword string

	PGHost            string
	PGPort            int
	PGUser            string
	PGPassword        string
	PGName            string
	MigrationsDirPath string

	KafkaBrokers []string

	JWTSecret string
	JWTExpiry time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using system environment variables")
	}

	pgPort, err := strconv.Atoi(getEnv("PG_PORT", "5432"))
	if err != nil {
		log.Fatalf("invalid PG_PORT: %v", err)
	}

	jwtExpiry, err := time.ParseDuration(getEnv("JWT_EXPIRY", "24h"))
	if err != nil {
		log.Fatalf("invalid JWT_EXPIRY: %v", err)
	}

	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,

		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName: getEnv("MONGO_DB_NAME", "fmart"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		PGHost:            getEnv("PG_HOST", "localhost"),
		PGPort:            pgPort,
		PGUser:            getEnv("PG_USER", "postgres"),
		PGPassword:        getEnv("PG_PASSWORD", "postgres"),
		PGName:            getEnv("PG_NAME", "fmart"),
		MigrationsDirPath: getEnv("MIGRATIONS_DIR", "./migrations"),

		KafkaBrokers: strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),

		JWTSecret: getEnv("JWT_SECRET", "secret"),
		JWTExpiry: jwtExpiry,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
