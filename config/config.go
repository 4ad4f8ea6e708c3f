package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every tunable the server reads from the environment.
// Defaults mirror the production mini-app: 40s card selection, 2.5s
// between draws, 7s winner screen, 80% of the pot paid out.
type Config struct {
	Port        string
	DatabaseURL string

	Stakes            []int
	SelectionWindow   time.Duration
	WinnerWindow      time.Duration
	DrawInterval      time.Duration
	MinCards          int
	MaxCardsPerPlayer int
	PayoutFraction    float64
	CardExclusive     bool
	CornersWin        bool

	AllowedOrigins []string
}

// Load reads .env (if present) and the environment into a Config.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[INFO] No .env file found, reading environment variables")
	}

	cfg := &Config{
		Port:              getEnv("PORT", "4000"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		Stakes:            getIntList("STAKES", []int{10, 20, 50, 100}),
		SelectionWindow:   time.Duration(getInt("SELECTION_SECONDS", 40)) * time.Second,
		WinnerWindow:      time.Duration(getInt("WINNER_SECONDS", 7)) * time.Second,
		DrawInterval:      time.Duration(getInt("DRAW_INTERVAL_MS", 2500)) * time.Millisecond,
		MinCards:          getInt("MIN_CARDS", 2),
		MaxCardsPerPlayer: getInt("MAX_CARDS_PER_PLAYER", 2),
		PayoutFraction:    getFloat("PAYOUT_FRACTION", 0.8),
		CardExclusive:     getBool("CARD_EXCLUSIVE", true),
		CornersWin:        getBool("CORNERS_WIN", false),
		AllowedOrigins:    getList("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("[FATAL] DATABASE_URL is required in .env or environment")
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("[FATAL] %s must be an integer, got %q", key, v)
	}
	return n
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Fatalf("[FATAL] %s must be a number, got %q", key, v)
	}
	return f
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Fatalf("[FATAL] %s must be true or false, got %q", key, v)
	}
	return b
}

func getList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	out := []string{}
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getIntList(key string, fallback []int) []int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	out := []int{}
	for _, p := range strings.Split(v, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			log.Fatalf("[FATAL] %s must be a comma-separated list of integers, got %q", key, v)
		}
		out = append(out, n)
	}
	return out
}
