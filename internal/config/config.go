package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var AppEnv Config

type Config struct {
	MongoURI              string
	DBName                string
	JWTSecret             string
	AccessTokenTTL        time.Duration
	UploadDir             string
	MaxFileSize           int64
	MaxPrescriptionFiles  int
	FreeDeliveryThreshold float64
	StandardDeliveryFee   float64
	AdminEmail            string
	AdminPassword         string
}

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}
	AppEnv = Config{
		MongoURI:              getEnvOrDefault("MONGO_URI", ""),
		DBName:                getEnvOrDefault("DB_NAME", "pharmacy"),
		JWTSecret:             getEnvOrDefault("JWT_SECRET", ""),
		AccessTokenTTL:        getDurationEnv("ACCESS_TOKEN_TTL", 7*24*60, time.Minute),
		UploadDir:             getEnvOrDefault("UPLOAD_DIR", "./uploads"),
		MaxFileSize:           getInt64Env("MAX_FILE_SIZE", 5<<20),
		MaxPrescriptionFiles:  getIntEnv("MAX_PRESCRIPTION_FILES", 5),
		FreeDeliveryThreshold: getFloatEnv("FREE_DELIVERY_THRESHOLD", 5000),
		StandardDeliveryFee:   getFloatEnv("DELIVERY_FEE", 300),
		AdminEmail:            getEnvOrDefault("ADMIN_EMAIL", "admin@vpharmacy.lk"),
		AdminPassword:         getEnvOrDefault("ADMIN_PASSWORD", ""),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int, unit time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return time.Duration(parsed) * unit
		}
	}
	return time.Duration(defaultValue) * unit
}

func getIntEnv(key string, defaultValue int) int {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil && parsed >= 0 {
			return parsed
		}
	}
	return defaultValue
}
