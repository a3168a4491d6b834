package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DBPath      string
	DatabaseURL string // when set, runs are recorded to Postgres instead of SQLite
	StoreFile   string
	LogPath     string
	Scheduler   SchedulerConfig
	Monitor     MonitorConfig
	Notifier    NotifierConfig
}

type SchedulerConfig struct {
	Interval time.Duration
	Cron     string
}

// MonitorConfig tunes probe pacing and timeouts. Values are loaded from
// monitor.yaml when present, otherwise defaults apply.
type MonitorConfig struct {
	ProbeDelayMS      int `yaml:"probe_delay_ms"`
	StaticTimeoutSec  int `yaml:"static_timeout_sec"`
	BrowserTimeoutSec int `yaml:"browser_timeout_sec"`
	SettleDelayMS     int `yaml:"settle_delay_ms"`
	NotifyRetries     int `yaml:"notify_retries"`
	NotifyDelaySec    int `yaml:"notify_delay_sec"`
}

type NotifierConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPass     string
	FromAddress  string
	ToAddress    string
	SlackWebhook string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DBPath:      getEnv("DB_PATH", "store_status.db"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		StoreFile:   getEnv("STORE_FILE", "branch_urls.json"),
		LogPath:     getEnv("LOG_PATH", "monitor.log"),
		Scheduler: SchedulerConfig{
			Cron: os.Getenv("SCHEDULE_CRON"),
		},
		Monitor: MonitorConfig{
			ProbeDelayMS:      500,
			StaticTimeoutSec:  10,
			BrowserTimeoutSec: 60,
			SettleDelayMS:     3000,
			NotifyRetries:     3,
			NotifyDelaySec:    10,
		},
		Notifier: NotifierConfig{
			SMTPHost:     getEnv("SMTP_HOST", "smtp.gmail.com"),
			SMTPPort:     getEnvInt("SMTP_PORT", 587),
			SMTPUser:     os.Getenv("SMTP_USER"),
			SMTPPass:     os.Getenv("SMTP_PASS"),
			FromAddress:  getEnv("FROM_ADDRESS", os.Getenv("SMTP_USER")),
			ToAddress:    os.Getenv("TO_ADDRESS"),
			SlackWebhook: os.Getenv("SLACK_WEBHOOK"),
		},
	}

	if interval := os.Getenv("CHECK_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil {
			cfg.Scheduler.Interval = d
		}
	}

	if err := cfg.loadMonitorConfig(getEnv("MONITOR_CONFIG", "monitor.yaml")); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadMonitorConfig(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if err := yaml.Unmarshal(data, &c.Monitor); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// MissingFieldsError reports every absent configuration field at once.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "missing notifier configuration: " + strings.Join(e.Fields, ", ")
}

// Validate checks the notifier configuration for completeness before any
// probing starts. When no Slack webhook is configured, email delivery is
// required and all of its fields must be present.
func (n *NotifierConfig) Validate() error {
	if n.SlackWebhook != "" {
		return nil
	}

	var missing []string
	if n.SMTPHost == "" {
		missing = append(missing, "SMTP_HOST")
	}
	if n.SMTPPort == 0 {
		missing = append(missing, "SMTP_PORT")
	}
	if n.SMTPUser == "" {
		missing = append(missing, "SMTP_USER")
	}
	if n.SMTPPass == "" {
		missing = append(missing, "SMTP_PASS")
	}
	if n.ToAddress == "" {
		missing = append(missing, "TO_ADDRESS")
	}
	if len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}
	return nil
}

// LoadStoreURLs reads the external store list document: {"urls": [...]}.
func LoadStoreURLs(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read store list %s: %w", path, err)
	}

	var doc struct {
		URLs []string `json:"urls"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse store list %s: %w", path, err)
	}
	if len(doc.URLs) == 0 {
		return nil, fmt.Errorf("store list %s contains no urls", path)
	}
	return doc.URLs, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
