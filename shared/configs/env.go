package configs

import (
	"os"

	"github.com/joho/godotenv"
)

type Envs struct {
	Port           string
	AllowedOrigins string
	PostgresURL    string
	GeminiAPIKey   string
	GeminiModel    string
	GinMode        string
	Debug          bool
}

// Load reads a .env file when present, then the process environment.
func Load() Envs {
	godotenv.Load()

	envs := Envs{
		Port:           os.Getenv("PORT"),
		AllowedOrigins: os.Getenv("ALLOWED_ORIGINS"),
		PostgresURL:    os.Getenv("POSTGRES_URL"),
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		GeminiModel:    os.Getenv("GEMINI_MODEL"),
		GinMode:        os.Getenv("GIN_MODE"),
		Debug:          os.Getenv("DEBUG") == "true",
	}
	if envs.Port == "" {
		envs.Port = "3000"
	}
	return envs
}
