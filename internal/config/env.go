package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Seat identity model for a deployment. Exactly one mode is active at a
// time; the inventory service enforces it uniformly.
const (
	SeatModeCounted  = "counted"
	SeatModeAssigned = "assigned"
)

type Env struct {
	AppAddr string
	GinMode string

	DBDSN string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret string

	SeatMode        string
	ReserveTimeout  time.Duration
	PublishAttempts int
	PublishBackoff  time.Duration
	DispatchBuffer  int
}

func LoadEnv() Env {
	// .env is optional; deployments normally set the environment directly.
	_ = godotenv.Load()

	appAddr := strings.TrimSpace(os.Getenv("APP_ADDR"))
	if appAddr == "" {
		appAddr = ":8080"
	}

	dsn := strings.TrimSpace(os.Getenv("DB_DSN"))
	if dsn == "" {
		dsn = "root:@tcp(127.0.0.1:3306)/busbook?parseTime=true&loc=Local&charset=utf8mb4&timeout=5s&readTimeout=30s&writeTimeout=30s"
	}

	redisAddr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if redisAddr == "" {
		redisAddr = "127.0.0.1:6379"
	}

	seatMode := strings.TrimSpace(strings.ToLower(os.Getenv("SEAT_MODE")))
	if seatMode != SeatModeAssigned {
		seatMode = SeatModeCounted
	}

	return Env{
		AppAddr:         appAddr,
		GinMode:         strings.TrimSpace(os.Getenv("GIN_MODE")),
		DBDSN:           dsn,
		RedisAddr:       redisAddr,
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		RedisDB:         envInt("REDIS_DB", 0),
		JWTSecret:       strings.TrimSpace(os.Getenv("JWT_SECRET")),
		SeatMode:        seatMode,
		ReserveTimeout:  envDuration("RESERVE_TIMEOUT", 3*time.Second),
		PublishAttempts: envInt("PUBLISH_ATTEMPTS", 3),
		PublishBackoff:  envDuration("PUBLISH_BACKOFF", 100*time.Millisecond),
		DispatchBuffer:  envInt("DISPATCH_BUFFER", 256),
	}
}

func envInt(key string, def int) int {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
