package config

import (
	"os"
	"strings"
)

type Config struct {
	Env  string
	Port string

	MongoURI      string
	MongoDatabase string

	GeminiAPIKey string

	AllowedOrigins []string
}

// Load reads the configuration from the environment. Call godotenv.Load
// first if a .env file should be honored.
func Load() Config {
	cfg := Config{
		Env:  getenv("APP_ENV", "development"),
		Port: getenv("API_PORT", "8080"),

		MongoURI:      getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: getenv("MONGO_DATABASE", "calmana"),

		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
	}

	origins := getenv("ALLOWED_ORIGINS", "*")
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}

	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
