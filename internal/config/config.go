package config

import (
	"log"
	"os"
)

type Config struct {
	Port     string
	DBDSN    string
	MediaDir string
	LogFile  string
	BaseURL  string

	MidtransServerKey string
	MidtransClientKey string
	MidtransEnv       string // sandbox | production

	TikTokURL    string
	InstagramURL string
}

func Load() Config {
	cfg := Config{
		Port:              getenv("PORT", "8080"),
		DBDSN:             getenv("DB_DSN", "devstore.db"), // sqlite file in project root
		MediaDir:          getenv("MEDIA_DIR", "./web/media"),
		LogFile:           getenv("LOG_FILE", "./devstore.log"),
		BaseURL:           getenv("BASE_URL", "http://localhost:8080"),
		MidtransServerKey: os.Getenv("MIDTRANS_SERVER_KEY"),
		MidtransClientKey: os.Getenv("MIDTRANS_CLIENT_KEY"),
		MidtransEnv:       getenv("MIDTRANS_ENV", "sandbox"),
		TikTokURL:         getenv("TIKTOK_URL", "https://www.tiktok.com/@devstore"),
		InstagramURL:      getenv("INSTAGRAM_URL", "https://www.instagram.com/devstore"),
	}
	log.Printf("[config] PORT=%s DB_DSN=%s MEDIA_DIR=%s LOG_FILE=%s MIDTRANS_ENV=%s",
		cfg.Port, cfg.DBDSN, cfg.MediaDir, cfg.LogFile, cfg.MidtransEnv)
	if cfg.MidtransServerKey == "" {
		log.Printf("[config] MIDTRANS_SERVER_KEY empty; payment sessions will fail until set")
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
