// Package config reads service settings from the environment, loading a
// .env file first when one exists.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"game-rewards-engine/games"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Port           string
	DatabaseURL    string
	GatewayToken   string
	AllowedOrigins []string

	SeedSecret     string
	DailyPointsCap int64
	Cooldowns      map[games.Kind]time.Duration
	SessionGrace   time.Duration
	DayLocation    *time.Location
	SlotsSpinCost  int64

	QuotaServiceURL   string
	QuotaServiceToken string
	QuotaPerPoint     decimal.Decimal
	ExchangeMinPoints int64
	ReconcileInterval time.Duration

	R2 R2Config
}

// R2Config is the move-log archive target. Archiving is off unless every
// credential field is set.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
}

func (r R2Config) Enabled() bool {
	return r.AccountID != "" && r.AccessKeyID != "" && r.AccessKeySecret != "" && r.Bucket != ""
}

var defaultCooldowns = map[games.Kind]time.Duration{
	games.KindPairs:   30 * time.Second,
	games.KindLinkUp:  30 * time.Second,
	games.KindPinball: 60 * time.Second,
	games.KindSlots:   3 * time.Second,
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv, applying defaults for unset keys.
func FromEnv(getenv func(string) string) (*Config, error) {
	env := reader{getenv: getenv}

	cfg := &Config{
		Port:              env.str("PORT", "5200"),
		DatabaseURL:       getenv("DATABASE_URL"),
		GatewayToken:      getenv("GAME_SERVICE_TOKEN"),
		AllowedOrigins:    splitList(env.str("ALLOWED_ORIGINS", "http://localhost:3000")),
		SeedSecret:        getenv("SEED_SECRET"),
		DailyPointsCap:    env.int64("DAILY_POINTS_CAP", 2000),
		SessionGrace:      env.duration("SESSION_GRACE", 30*time.Second),
		SlotsSpinCost:     env.int64("SLOTS_SPIN_COST", 10),
		QuotaServiceURL:   strings.TrimRight(getenv("QUOTA_SERVICE_URL"), "/"),
		QuotaServiceToken: getenv("QUOTA_SERVICE_TOKEN"),
		QuotaPerPoint:     env.decimal("QUOTA_PER_POINT", decimal.RequireFromString("0.002")),
		ExchangeMinPoints: env.int64("EXCHANGE_MIN_POINTS", 100),
		ReconcileInterval: env.duration("RECONCILE_INTERVAL", time.Minute),
		R2: R2Config{
			AccountID:       getenv("CLOUDFLARE_ACCOUNT_ID"),
			AccessKeyID:     getenv("R2_ACCESS_KEY_ID"),
			AccessKeySecret: getenv("R2_ACCESS_KEY_SECRET"),
			Bucket:          getenv("R2_BUCKET_NAME"),
		},
	}

	cfg.Cooldowns = make(map[games.Kind]time.Duration, len(defaultCooldowns))
	for kind, def := range defaultCooldowns {
		cfg.Cooldowns[kind] = env.duration("COOLDOWN_"+strings.ToUpper(string(kind)), def)
	}

	loc, err := time.LoadLocation(env.str("DAY_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("DAY_TIMEZONE: %w", err)
	}
	cfg.DayLocation = loc

	if env.err != nil {
		return nil, env.err
	}
	if cfg.DailyPointsCap < 0 {
		return nil, fmt.Errorf("DAILY_POINTS_CAP must not be negative, got %d", cfg.DailyPointsCap)
	}
	if cfg.SlotsSpinCost <= 0 || cfg.ExchangeMinPoints <= 0 {
		return nil, fmt.Errorf("SLOTS_SPIN_COST and EXCHANGE_MIN_POINTS must be positive")
	}
	if !cfg.QuotaPerPoint.IsPositive() {
		return nil, fmt.Errorf("QUOTA_PER_POINT must be positive, got %s", cfg.QuotaPerPoint)
	}
	return cfg, nil
}

// Validate checks the settings the server cannot run without.
func (c *Config) Validate() error {
	var missing []string
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.GatewayToken == "" {
		missing = append(missing, "GAME_SERVICE_TOKEN")
	}
	if c.SeedSecret == "" {
		missing = append(missing, "SEED_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// reader keeps the first parse error so FromEnv can report it once.
type reader struct {
	getenv func(string) string
	err    error
}

func (r *reader) str(key, def string) string {
	if v := strings.TrimSpace(r.getenv(key)); v != "" {
		return v
	}
	return def
}

func (r *reader) int64(key string, def int64) int64 {
	v := strings.TrimSpace(r.getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return n
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(r.getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	if d < 0 {
		r.fail(key, v, fmt.Errorf("negative duration"))
		return def
	}
	return d
}

func (r *reader) decimal(key string, def decimal.Decimal) decimal.Decimal {
	v := strings.TrimSpace(r.getenv(key))
	if v == "" {
		return def
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return d
}

func (r *reader) fail(key, value string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("%s=%q: %w", key, value, err)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
