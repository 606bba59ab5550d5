package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	DBDSN          string
	LogFile        string
	ReservationTTL time.Duration
	SweepInterval  time.Duration
	Retention      time.Duration // 0 disables the terminal-row purge
	AMQPURL        string        // "" disables event publishing
	EventsQueue    string
}

func Load() Config {
	_ = godotenv.Load() // optional .env for local runs

	cfg := Config{
		Port:           getenv("PORT", "8080"),
		DBDSN:          getenv("DB_DSN", "vendora.db"), // sqlite file in project root
		LogFile:        getenv("LOG_FILE", "./vendora.log"),
		ReservationTTL: getdur("RESERVATION_TIMEOUT", 15*time.Minute),
		SweepInterval:  getdur("SWEEP_INTERVAL", time.Minute),
		Retention:      getdur("RESERVATION_RETENTION", 720*time.Hour),
		AMQPURL:        getenv("AMQP_URL", ""),
		EventsQueue:    getenv("EVENTS_QUEUE", "reservation.events"),
	}
	log.Printf("[config] PORT=%s DB_DSN=%s RESERVATION_TIMEOUT=%s SWEEP_INTERVAL=%s RESERVATION_RETENTION=%s AMQP=%t",
		cfg.Port, cfg.DBDSN, cfg.ReservationTTL, cfg.SweepInterval, cfg.Retention, cfg.AMQPURL != "")
	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getdur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		log.Printf("[config] ignoring %s=%q: want a non-negative duration", key, v)
		return def
	}
	return d
}
