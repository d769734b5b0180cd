package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // embedded zone database for minimal images

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"daily-tracker/internal/model"
)

const (
	defaultDatabaseURL  = "data/daily_tracker.db"
	defaultTimezone     = "Asia/Tehran"
	defaultNudgeTime    = "09:00"
	defaultWellnessTime = "10:00"
	defaultWellnessURL  = "https://shealth.samsung.com/deepLink?sc_id=tracker.medication&action=view&destination=home.sleep"
	defaultWorkers      = 8
	maxConfigFileSize   = 1024 * 1024
)

var (
	// ErrMissingToken is returned when TELEGRAM_TOKEN is empty.
	ErrMissingToken = errors.New("TELEGRAM_TOKEN is required")
	// ErrNoUsers is returned when no USERn_ID/USERn_NAME pair is configured.
	ErrNoUsers = errors.New("no users configured: set USER1_ID and USER1_NAME")
)

// UserEntry is one allowlisted user as written in the YAML file.
type UserEntry struct {
	ID   int64  `koanf:"id"`
	Name string `koanf:"name"`
}

// Config keeps runtime settings for the bot.
type Config struct {
	TelegramToken string      `koanf:"telegram_token"`
	DatabaseURL   string      `koanf:"database_url"`
	Timezone      string      `koanf:"timezone"`
	NudgeTime     string      `koanf:"nudge_time"`
	WellnessTime  string      `koanf:"wellness_time"`
	WellnessURL   string      `koanf:"wellness_url"`
	MetricsAddr   string      `koanf:"metrics_addr"`
	LogLevel      string      `koanf:"log_level"`
	LogFormat     string      `koanf:"log_format"`
	Workers       int         `koanf:"workers"`
	Users         []UserEntry `koanf:"users"`

	Location *time.Location `koanf:"-"`
}

// Load reads configuration from the optional YAML file named by CONFIG_FILE,
// then environment variables, then applies defaults.
func Load() (Config, error) {
	return LoadWithFile(strings.TrimSpace(os.Getenv("CONFIG_FILE")))
}

// LoadWithFile is Load with an explicit YAML path; an empty path skips the
// file.
func LoadWithFile(path string) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		content, err := readConfigFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// Flat keys: TELEGRAM_TOKEN -> telegram_token, USER1_ID -> user1_id.
	if err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(s)
	}), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	envUsers, err := usersFromEnv(k)
	if err != nil {
		return Config{}, err
	}
	cfg.Users = append(cfg.Users, envUsers...)

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Registry builds the immutable user allowlist.
func (c Config) Registry() *model.Registry {
	users := make([]model.User, 0, len(c.Users))
	for _, u := range c.Users {
		users = append(users, model.User{ID: u.ID, Name: u.Name})
	}
	return model.NewRegistry(users)
}

// Validate checks required settings and resolves the timezone.
func (c *Config) Validate() error {
	if c.TelegramToken == "" {
		return ErrMissingToken
	}
	if len(c.Users) == 0 {
		return ErrNoUsers
	}
	for _, u := range c.Users {
		if u.ID == 0 || strings.TrimSpace(u.Name) == "" {
			return fmt.Errorf("invalid user entry %+v: id and name are required", u)
		}
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	for _, t := range []string{c.NudgeTime, c.WellnessTime} {
		if _, _, err := ParseClock(t); err != nil {
			return err
		}
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	c.Location = loc
	return nil
}

// ParseClock parses a HH:MM wall-clock time.
func ParseClock(value string) (int, int, error) {
	parts := strings.Split(value, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", value)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", value)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", value)
	}
	return hour, minute, nil
}

// usersFromEnv reads USER1_ID/USER1_NAME, USER2_ID/USER2_NAME, ... and stops
// at the first incomplete pair.
func usersFromEnv(k *koanf.Koanf) ([]UserEntry, error) {
	var users []UserEntry
	for i := 1; ; i++ {
		rawID := strings.TrimSpace(k.String(fmt.Sprintf("user%d_id", i)))
		name := strings.TrimSpace(k.String(fmt.Sprintf("user%d_name", i)))
		if rawID == "" || name == "" {
			return users, nil
		}
		id, err := strconv.ParseInt(rawID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user id for USER%d_ID: %q", i, rawID)
		}
		users = append(users, UserEntry{ID: id, Name: name})
	}
}

func applyDefaults(cfg *Config) {
	cfg.TelegramToken = strings.TrimSpace(cfg.TelegramToken)
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = defaultDatabaseURL
	}
	if cfg.Timezone == "" {
		cfg.Timezone = defaultTimezone
	}
	if cfg.NudgeTime == "" {
		cfg.NudgeTime = defaultNudgeTime
	}
	if cfg.WellnessTime == "" {
		cfg.WellnessTime = defaultWellnessTime
	}
	if cfg.WellnessURL == "" {
		cfg.WellnessURL = defaultWellnessURL
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "json"
	}
	if cfg.Workers == 0 {
		cfg.Workers = defaultWorkers
	}
}

func readConfigFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat config file: %w", err)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file %s is larger than %d bytes", path, maxConfigFileSize)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return content, nil
}
