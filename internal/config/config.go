package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         string
	DBDSN        string
	TemplatesDir string
	LogFile      string
	LogLevel     string
	CORSOrigins  string

	RedisAddr     string
	RedisPassword string
	MongoURI      string
	MongoDB       string
	KafkaBrokers  []string
	KafkaTopic    string
	CloudinaryURL string

	CartDebounce   time.Duration
	CartFreshness  time.Duration
	CartSessionTTL time.Duration

	ClearCartOnReservation bool
	CookieSecure           bool

	AdminEmail    string
	AdminPassword string
}

func Load() Config {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	return Config{
		Port:         getEnv("PORT", "8080"),
		DBDSN:        getEnv("DB_DSN", "techstore.db"),
		TemplatesDir: getEnv("TEMPLATES_DIR", "./web/templates"),
		LogFile:      getEnv("LOG_FILE", ""),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		CORSOrigins:  getEnv("CORS_ORIGINS", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		MongoURI:      getEnv("MONGO_URI", ""),
		MongoDB:       getEnv("MONGO_DB", "techstore"),
		KafkaBrokers:  getList("KAFKA_BROKERS"),
		KafkaTopic:    getEnv("KAFKA_TOPIC", "reservations"),
		CloudinaryURL: getEnv("CLOUDINARY_URL", ""),

		CartDebounce:   getDuration("CART_DEBOUNCE", 100*time.Millisecond),
		CartFreshness:  getDuration("CART_FRESHNESS", 5*time.Minute),
		CartSessionTTL: getDuration("CART_SESSION_TTL", 24*time.Hour),

		ClearCartOnReservation: getBool("CLEAR_CART_ON_RESERVATION", true),
		CookieSecure:           getBool("COOKIE_SECURE", false),

		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
	}
}

// Fields is what gets logged at startup. Secrets stay out of it.
func (c Config) Fields() map[string]any {
	return map[string]any{
		"port":          c.Port,
		"db_dsn":        c.DBDSN,
		"log_file":      c.LogFile,
		"redis":         c.RedisAddr != "",
		"mongo":         c.MongoURI != "",
		"kafka":         len(c.KafkaBrokers) > 0,
		"cloudinary":    c.CloudinaryURL != "",
		"cart_debounce": c.CartDebounce.String(),
		"cart_ttl":      c.CartSessionTTL.String(),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return defaultValue
	}
	return d
}

func getBool(key string, defaultValue bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultValue
	}
	return b
}

func getList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
