package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost        string
	DBUser        string
	DBPassword    string
	DBName        string
	DBPort        string
	AppPort       string
	AppEnv        string
	JWTSecret     string
	QRCodeSecret  string
	AllowedOrigin string
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:        os.Getenv("DB_HOST"),
		DBUser:        os.Getenv("DB_USER"),
		DBPassword:    os.Getenv("DB_PASSWORD"),
		DBName:        os.Getenv("DB_NAME"),
		DBPort:        os.Getenv("DB_PORT"),
		AppPort:       getenv("APP_PORT", "5000"),
		AppEnv:        os.Getenv("APP_ENV"),
		JWTSecret:     getenv("JWT_SECRET", "fallback-secret"),
		QRCodeSecret:  os.Getenv("QRCODE_SECRET"),
		AllowedOrigin: getenv("FRONTEND_URL", "http://localhost:3000"),
	}

	// QR scanners in the field verify tokens signed with the JWT secret
	// whenever no dedicated key is configured.
	if cfg.QRCodeSecret == "" {
		cfg.QRCodeSecret = cfg.JWTSecret
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
