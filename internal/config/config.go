package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Ai       AIConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string

	// UploadDir is where uploaded images land on disk; AssetRoot is the
	// directory relative image URLs (/uploads/...) resolve against.
	UploadDir string
	AssetRoot string
}

type DatabaseConfig struct {
	Connection string
}

type AuthConfig struct {
	JWTSecret string
}

type AIConfig struct {
	BaseURL        string
	APIKey         string
	Model          string
	MaxTokens      int
	Temperature    float64
	RequestTimeout time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3001"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3001"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			UploadDir:          getEnv("UPLOAD_DIR", "./uploads"),
			AssetRoot:          getEnv("ASSET_ROOT", "."),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-in-production"),
		},
		Ai: AIConfig{
			BaseURL:        getEnv("AI_BASE_URL", "https://dashscope.aliyuncs.com/compatible-mode/v1"),
			APIKey:         getEnv("AI_API_KEY", ""),
			Model:          getEnv("AI_MODEL", "qwen-vl-plus"),
			MaxTokens:      getEnvAsInt("AI_MAX_TOKENS", 500),
			Temperature:    getEnvAsFloat("AI_TEMPERATURE", 0.7),
			RequestTimeout: time.Duration(getEnvAsInt("AI_TIMEOUT_SECONDS", 60)) * time.Second,
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}
