package sys

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported values for STORE_DRIVER.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverBolt     = "bolt"
	DriverRedis    = "redis"
	DriverMongo    = "mongo"
	DriverJSON     = "json"
)

var storeDrivers = []string{DriverSQLite, DriverPostgres, DriverBolt, DriverRedis, DriverMongo, DriverJSON}

type Config struct {
	Token            string
	GuildID          string
	DefaultChannelID string
	Silent           bool

	StoreDriver  string
	DatabasePath string
	DatabaseURL  string
	RedisURL     string
	MongoURI     string
	BoltPath     string
	DataFile     string
	ChannelsPath string

	Location        *time.Location
	ResetHour       int
	WeeklyResetDay  time.Weekday
	AlertMinutes    []int
	BossHours       []int
	AlertWindow     time.Duration
	DefaultNames    []string
	StatusRotations bool
}

// LoadConfig initializes the configuration from environment variables.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	folder := "."
	if info, err := os.Stat("data"); err == nil && info.IsDir() {
		folder = "./data"
	}
	project := GetProjectName()

	silent, _ := strconv.ParseBool(os.Getenv("SILENT"))

	cfg := &Config{
		Token:            os.Getenv("DISCORD_TOKEN"),
		GuildID:          os.Getenv("GUILD_ID"),
		DefaultChannelID: os.Getenv("DEFAULT_CHANNEL_ID"),
		Silent:           silent,
		StoreDriver:      strings.ToLower(getString("STORE_DRIVER", DriverSQLite)),
		DatabasePath:     getString("DATABASE_PATH", filepath.Join(folder, project+".db")),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         getString("REDIS_URL", "redis://localhost:6379/0"),
		MongoURI:         getString("MONGODB_URI", "mongodb://localhost:27017"),
		BoltPath:         getString("BOLT_PATH", filepath.Join(folder, project+".bolt")),
		DataFile:         getString("DATA_FILE", filepath.Join(folder, "user_data.json")),
		ChannelsPath:     getString("CHANNELS_PATH", filepath.Join(folder, "channels.json")),
		StatusRotations:  getBool("STATUS_ROTATION", true),
		DefaultNames:     splitList(os.Getenv("DEFAULT_CHARACTERS")),
	}

	var err error
	if cfg.Location, err = time.LoadLocation(getString("TIMEZONE", "Asia/Seoul")); err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	if cfg.ResetHour, err = strconv.Atoi(getString("RESET_HOUR", "6")); err != nil {
		return nil, fmt.Errorf("invalid RESET_HOUR: %w", err)
	}
	if cfg.WeeklyResetDay, err = ParseWeekday(getString("WEEKLY_RESET_DAY", "monday")); err != nil {
		return nil, err
	}
	if cfg.AlertMinutes, err = parseInts(getString("ALERT_MINUTES", "55")); err != nil {
		return nil, fmt.Errorf("invalid ALERT_MINUTES: %w", err)
	}
	if cfg.BossHours, err = parseInts(getString("BOSS_HOURS", "12,18,20,22")); err != nil {
		return nil, fmt.Errorf("invalid BOSS_HOURS: %w", err)
	}
	if cfg.AlertWindow, err = time.ParseDuration(getString("ALERT_WINDOW", "8m")); err != nil {
		return nil, fmt.Errorf("invalid ALERT_WINDOW: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Silent {
		SetSilentMode(true)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Token == "" {
		return fmt.Errorf(MsgConfigMissingToken)
	}
	if c.GuildID != "" && (len(c.GuildID) < 17 || len(c.GuildID) > 20) {
		return fmt.Errorf("invalid GUILD_ID: must be a valid Snowflake")
	}
	if !slices.Contains(storeDrivers, c.StoreDriver) {
		return fmt.Errorf("invalid STORE_DRIVER %q: expected one of %s", c.StoreDriver, strings.Join(storeDrivers, ", "))
	}
	if c.ResetHour < 0 || c.ResetHour > 23 {
		return fmt.Errorf("invalid RESET_HOUR %d: must be 0-23", c.ResetHour)
	}
	for _, m := range c.AlertMinutes {
		if m < 0 || m > 59 {
			return fmt.Errorf("invalid ALERT_MINUTES entry %d: must be 0-59", m)
		}
	}
	for _, h := range c.BossHours {
		if h < 0 || h > 23 {
			return fmt.Errorf("invalid BOSS_HOURS entry %d: must be 0-23", h)
		}
	}
	if c.AlertWindow <= 0 {
		return fmt.Errorf("invalid ALERT_WINDOW: must be positive")
	}
	return nil
}

// ParseWeekday accepts English day names ("monday", "mon") or 0-6 with Sunday as 0.
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n > 6 {
			return 0, fmt.Errorf("invalid WEEKLY_RESET_DAY %q", s)
		}
		return time.Weekday(n), nil
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || s == name[:3] {
			return d, nil
		}
	}
	return 0, fmt.Errorf("invalid WEEKLY_RESET_DAY %q", s)
}

func GetProjectName() string {
	exePath, err := os.Executable()
	projectName := "bot"
	if err == nil {
		projectName = filepath.Base(exePath)
		projectName = strings.TrimSuffix(projectName, ".exe")

		if projectName == "main" || strings.HasPrefix(projectName, "go_build_") || strings.HasSuffix(projectName, ".test") {
			if modData, err := os.ReadFile("go.mod"); err == nil {
				lines := strings.Split(string(modData), "\n")
				if len(lines) > 0 && strings.HasPrefix(lines[0], "module ") {
					parts := strings.Split(lines[0], "/")
					projectName = strings.TrimSpace(parts[len(parts)-1])
				}
			}
		}
	}
	return projectName
}

func getString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
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

func parseInts(s string) ([]int, error) {
	var out []int
	for _, part := range splitList(s) {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}
