package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const DefaultTimezone = "America/Los_Angeles"

type Config struct {
	Port        string
	Environment string
	LogLevel    string
	LogFormat   string // "console" or "json"
	InstanceID  string
	FrontendURL string

	DatabaseURL string

	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	// Single-user deployments bootstrap this account on start
	OwnerEmail    string
	OwnerPassword string
	OwnerName     string

	// Static key accepted on the capture endpoint (shortcuts, voice assistants)
	CaptureAPIKey     string
	CaptureRatePerMin int
	CaptureBurst      int
	Timezone          string
	Location          *time.Location

	AIProvider    string
	GeminiApiKey  string
	GeminiModel   string
	OllamaBaseURL string
	OllamaModel   string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRefreshToken string // OAuth refresh token for Gmail and Calendar
	GoogleCredentials  string // service account file, used by Pub/Sub and Calendar
	GoogleProjectID    string
	GooglePubSubTopic  string
	CalendarID         string

	FirebaseCredentials string

	ChromaAPIKey   string
	ChromaTenant   string
	ChromaDatabase string

	DigestSender      string
	DigestRecipient   string
	MorningDigestSpec string
	NightDigestSpec   string
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	tz := getEnv("TIMEZONE", DefaultTimezone)

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "console"),
		InstanceID:  getEnv("INSTANCE_ID", hostname()),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		DatabaseURL: getEnv("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=lifeos port=5432 sslmode=disable"),

		JWTSecret:        getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		JWTAccessExpiry:  getEnvDuration("JWT_ACCESS_EXPIRY", 15*time.Minute),
		JWTRefreshExpiry: getEnvDuration("JWT_REFRESH_EXPIRY", 168*time.Hour),

		OwnerEmail:    getEnv("OWNER_EMAIL", ""),
		OwnerPassword: getEnv("OWNER_PASSWORD", ""),
		OwnerName:     getEnv("OWNER_NAME", "Owner"),

		CaptureAPIKey:     getEnv("CAPTURE_API_KEY", ""),
		CaptureRatePerMin: getEnvInt("CAPTURE_RATE_PER_MINUTE", 30),
		CaptureBurst:      getEnvInt("CAPTURE_BURST", 5),
		Timezone:          tz,
		Location:          loadLocation(tz),

		AIProvider:    getEnv("AI_PROVIDER", "auto"),
		GeminiApiKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		OllamaBaseURL: getEnv("OLLAMA_BASE_URL", ""),
		OllamaModel:   getEnv("OLLAMA_MODEL", "llama3"),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRefreshToken: getEnv("GOOGLE_REFRESH_TOKEN", ""),
		GoogleCredentials:  getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		GoogleProjectID:    getEnv("GOOGLE_PROJECT_ID", ""),
		GooglePubSubTopic:  getEnv("GOOGLE_PUBSUB_TOPIC", "lifeos-item-changes"),
		CalendarID:         getEnv("GOOGLE_CALENDAR_ID", "primary"),

		FirebaseCredentials: getEnv("FIREBASE_CREDENTIALS", ""),

		ChromaAPIKey:   getEnv("CHROMA_API_KEY", ""),
		ChromaTenant:   getEnv("CHROMA_TENANT", ""),
		ChromaDatabase: getEnv("CHROMA_DATABASE", ""),

		DigestSender:      getEnv("DIGEST_SENDER", ""),
		DigestRecipient:   getEnv("DIGEST_RECIPIENT", getEnv("OWNER_EMAIL", "")),
		MorningDigestSpec: getEnv("MORNING_DIGEST_CRON", "0 0 7 * * *"),
		NightDigestSpec:   getEnv("NIGHT_DIGEST_CRON", "0 0 21 * * *"),
	}
}

// IsProduction reports whether APP_ENV is production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
		log.Warn().Str("key", key).Str("value", value).Msg("[Config] invalid integer, using default")
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
		log.Warn().Str("key", key).Str("value", value).Msg("[Config] invalid duration, using default")
	}
	return defaultValue
}

func loadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Warn().Err(err).Str("timezone", name).Msg("[Config] unknown timezone, falling back to UTC")
		return time.UTC
	}
	return loc
}

func hostname() string {
	if h, err := os.Hostname(); err == nil && h != "" {
		return h
	}
	return "lifeos"
}
