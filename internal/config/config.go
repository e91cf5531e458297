package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config agrupa la configuración necesaria para correr la aplicación.
type Config struct {
	Port           string
	DatabaseURL    string
	LogLevel       slog.Level
	RequestTimeout time.Duration
	AutoMigrate    bool

	// Tracing queda deshabilitado si OTLPEndpoint está vacío.
	OTLPEndpoint string
	OTLPInsecure bool
	ServiceName  string
}

// loadDotEnv es un hook para tests.
var loadDotEnv = func() error {
	return godotenv.Load()
}

// Load lee variables de entorno (y un .env opcional) y valida lo mínimo indispensable.
func Load() (Config, error) {
	// godotenv no pisa variables ya definidas en el entorno.
	if err := loadDotEnv(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}
	// Normalizamos por si alguien manda ":8080"
	port = strings.TrimPrefix(port, ":")

	databaseURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if databaseURL == "" {
		return Config{}, fmt.Errorf("missing required env var: DATABASE_URL")
	}

	logLevel := slog.LevelInfo
	if value := strings.TrimSpace(os.Getenv("LOG_LEVEL")); value != "" {
		if err := logLevel.UnmarshalText([]byte(value)); err != nil {
			return Config{}, fmt.Errorf("invalid LOG_LEVEL %q: %w", value, err)
		}
	}

	requestTimeout := 10 * time.Second
	if value := strings.TrimSpace(os.Getenv("REQUEST_TIMEOUT")); value != "" {
		parsed, err := time.ParseDuration(value)
		if err != nil || parsed <= 0 {
			return Config{}, fmt.Errorf("invalid REQUEST_TIMEOUT %q", value)
		}
		requestTimeout = parsed
	}

	autoMigrate, err := boolEnv("AUTO_MIGRATE")
	if err != nil {
		return Config{}, err
	}

	otlpInsecure, err := boolEnv("OTEL_EXPORTER_OTLP_INSECURE")
	if err != nil {
		return Config{}, err
	}

	serviceName := strings.TrimSpace(os.Getenv("OTEL_SERVICE_NAME"))
	if serviceName == "" {
		serviceName = "inventory-pos-api"
	}

	return Config{
		Port:           port,
		DatabaseURL:    databaseURL,
		LogLevel:       logLevel,
		RequestTimeout: requestTimeout,
		AutoMigrate:    autoMigrate,
		OTLPEndpoint:   strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
		OTLPInsecure:   otlpInsecure,
		ServiceName:    serviceName,
	}, nil
}

// boolEnv devuelve false si la variable no está definida.
func boolEnv(name string) (bool, error) {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return false, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", name, value, err)
	}
	return parsed, nil
}
