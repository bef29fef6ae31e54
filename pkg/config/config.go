package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreFirebase = "firebase"
	StoreMemory   = "memory"
)

type Config struct {
	ServerPort          string
	Environment         string
	FirebaseProject     string
	FirebaseDatabaseURL string
	ServiceAccountJSON  string
	ServiceAccountPath  string
	StorageBucket       string
	ChatStore           string
	PollInterval        time.Duration
	TypingTimeout       time.Duration
	WelcomeMessage      string
	AdminUIDs           []string
	AllowedOrigins      []string
	PushNotifications   bool
	LogFile             string
	MetricsNamespace    string
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		ServerPort:          getEnv("SERVER_PORT", "8080"),
		Environment:         getEnv("ENVIRONMENT", "development"),
		FirebaseProject:     getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseDatabaseURL: getEnv("FIREBASE_DATABASE_URL", ""),
		ServiceAccountJSON:  getEnv("FIREBASE_SERVICE_ACCOUNT_JSON", ""),
		ServiceAccountPath:  getEnv("FIREBASE_SERVICE_ACCOUNT_PATH", "./firebase-adminsdk.json"),
		StorageBucket:       getEnv("STORAGE_BUCKET", ""),
		ChatStore:           getEnv("CHAT_STORE", StoreFirebase),
		PollInterval:        getEnvAsMillis("CHAT_POLL_INTERVAL_MS", 1000),
		TypingTimeout:       getEnvAsMillis("TYPING_TIMEOUT_MS", 3000),
		WelcomeMessage:      getEnv("WELCOME_MESSAGE", "Hello! Thanks for visiting the portfolio. How can I help you?"),
		AdminUIDs:           getEnvAsList("ADMIN_UIDS"),
		AllowedOrigins:      getEnvAsList("ALLOWED_ORIGINS"),
		PushNotifications:   getEnvAsBool("PUSH_NOTIFICATIONS", true),
		LogFile:             getEnv("LOG_FILE", ""),
		MetricsNamespace:    getEnv("METRICS_NAMESPACE", "portfoliochat"),
	}

	return config, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsMillis(key string, defaultValue int64) time.Duration {
	ms := getEnvAsInt64(key, defaultValue)
	if ms <= 0 {
		ms = defaultValue
	}
	return time.Duration(ms) * time.Millisecond
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		b, err := strconv.ParseBool(value)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
