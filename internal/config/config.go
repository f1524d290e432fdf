package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App struct {
		Name string
		Env  string
	}

	API struct {
		Host string
		Port string
	}

	DB struct {
		Host     string
		Port     int
		User     string
		Password string
		Name     string
		SSLMode  string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	Exotel struct {
		SID      string
		Token    string
		APIURL   string
		FlowHost string
		Sender   string
		CallerID string
		Timeout  time.Duration
		RPS      float64
		Burst    int

		// SMSStatusCallback is handed to Exotel with every outbox send.
		SMSStatusCallback string
	}

	Scheduler struct {
		Interval     time.Duration
		BatchTimeout time.Duration
		AutoStart    bool
	}

	Worker struct {
		BatchSize         int
		MaxWorkers        int
		PerMessageTimeout time.Duration
	}

	Cache struct {
		DetailsTTL time.Duration
	}
}

func New() *Config {
	_ = godotenv.Load()

	cfg := &Config{}

	// App
	cfg.App.Name = getEnv("APP_NAME", "exotel-gateway")
	cfg.App.Env = getEnv("APP_ENV", "development")

	// API
	cfg.API.Host = getEnv("API_HOST", "0.0.0.0")
	cfg.API.Port = getEnv("API_PORT", "8080")

	// DB
	cfg.DB.Host = getEnv("DB_HOST", "db")
	cfg.DB.Port = getInt("DB_PORT", 5432)
	cfg.DB.User = getEnv("DB_USER", "exotel")
	cfg.DB.Password = getEnv("DB_PASSWORD", "exotel")
	cfg.DB.Name = getEnv("DB_NAME", "exotel_outbox")
	cfg.DB.SSLMode = getEnv("DB_SSLMODE", "disable")

	// Redis
	cfg.Redis.Addr = getEnv("REDIS_ADDR", "redis:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getInt("REDIS_DB", 0)

	// Exotel account
	cfg.Exotel.SID = getEnv("EXOTEL_SID", "")
	cfg.Exotel.Token = getEnv("EXOTEL_TOKEN", "")
	cfg.Exotel.APIURL = getEnv("EXOTEL_API_URL", "https://twilix.exotel.in")
	cfg.Exotel.FlowHost = getEnv("EXOTEL_FLOW_HOST", "my.exotel.in")
	cfg.Exotel.Sender = getEnv("EXOTEL_SENDER", "")
	cfg.Exotel.CallerID = getEnv("EXOTEL_CALLER_ID", "")
	cfg.Exotel.SMSStatusCallback = getEnv("EXOTEL_SMS_STATUS_CALLBACK", "")
	cfg.Exotel.Timeout = getDuration("EXOTEL_TIMEOUT", 30*time.Second)
	cfg.Exotel.RPS = getFloat("EXOTEL_RPS", 0)
	cfg.Exotel.Burst = getInt("EXOTEL_BURST", 1)

	// Scheduler
	cfg.Scheduler.Interval = getDuration("SCHEDULER_INTERVAL", 5*time.Second)
	cfg.Scheduler.BatchTimeout = getDuration("SCHEDULER_BATCH_TIMEOUT", 30*time.Second)
	cfg.Scheduler.AutoStart = isTruthy(getEnv("SCHEDULER_AUTOSTART", "true"))

	// Outbox processing
	cfg.Worker.BatchSize = getInt("MESSAGE_BATCH_SIZE", 100)
	cfg.Worker.MaxWorkers = getInt("MESSAGE_MAX_WORKERS", 4)
	cfg.Worker.PerMessageTimeout = getDuration("MESSAGE_PER_MESSAGE_TIMEOUT", 10*time.Second)

	// Cache
	cfg.Cache.DetailsTTL = getDuration("DETAILS_CACHE_TTL", 30*time.Second)

	return cfg
}

// Validate reports settings the gateway cannot start without.
func (c *Config) Validate() error {
	var missing []string
	if c.Exotel.SID == "" {
		missing = append(missing, "EXOTEL_SID")
	}
	if c.Exotel.Token == "" {
		missing = append(missing, "EXOTEL_TOKEN")
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: missing required env: %s", strings.Join(missing, ", "))
	}
	return nil
}

// IsProduction is true when APP_ENV is "production" or "prod".
func (c *Config) IsProduction() bool {
	switch strings.ToLower(c.App.Env) {
	case "production", "prod":
		return true
	}
	return false
}

func getEnv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func getInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getFloat(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}
