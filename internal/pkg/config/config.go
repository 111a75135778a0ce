package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Postgres   PostgresConfig   `yaml:"postgres"`
	Logging    LoggingConfig    `yaml:"logging"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Scraper    ScraperConfig    `yaml:"scraper"`
	Scorer     ScorerConfig     `yaml:"scorer"`
	Decision   DecisionConfig   `yaml:"decision"`
	Scanner    ScannerConfig    `yaml:"scanner"`
	Commentary CommentaryConfig `yaml:"commentary"`
	Reconciler ReconcilerConfig `yaml:"reconciler"`
	Reporter   ReporterConfig   `yaml:"reporter"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`  // optional JSON log file
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"` // usually set via TELEGRAM_BOT_TOKEN
	ChatID   int64  `yaml:"chat_id"`
}

type ScraperConfig struct {
	BaseURL        string        `yaml:"base_url"`
	UserAgent      string        `yaml:"user_agent"`
	Timeout        time.Duration `yaml:"timeout"`
	RequestsPerSec float64       `yaml:"requests_per_sec"` // upstream politeness limit
	UseChromedp    bool          `yaml:"use_chromedp"`     // headless fallback when blocked
}

type ScorerConfig struct {
	WeightsPath string `yaml:"weights_path"`
}

// DecisionConfig carries the acceptance policy. Thresholds change often in
// tuning, so everything is a config knob; no policy constant is hard-coded.
type DecisionConfig struct {
	MinComboProb     float64       `yaml:"min_combo_prob"`     // accept when best exacta prob >= this
	MinBoatProb      float64       `yaml:"min_boat_prob"`      // or best boat aggregate prob >= this
	UseValueGate     bool          `yaml:"use_value_gate"`     // additionally require odds*prob >= min_expected_value
	MinExpectedValue float64       `yaml:"min_expected_value"`
	Window           time.Duration `yaml:"window"` // accept only within this long before the deadline
}

type ScannerConfig struct {
	Interval      time.Duration `yaml:"interval"`
	Workers       int           `yaml:"workers"`
	Venues        int           `yaml:"venues"`
	RacesPerVenue int           `yaml:"races_per_venue"`
	Cutoff        string        `yaml:"cutoff"` // "HH:MM" JST, scanning stops for the day after this
}

type CommentaryConfig struct {
	Enabled bool          `yaml:"enabled"`
	BaseURL string        `yaml:"base_url"`
	Model   string        `yaml:"model"`
	APIKey  string        `yaml:"api_key"` // usually set via GROQ_API_KEY
	Timeout time.Duration `yaml:"timeout"`
}

type ReconcilerConfig struct {
	Interval time.Duration `yaml:"interval"`
	Stake    int           `yaml:"stake"` // yen per pick
	Cutoff   string        `yaml:"cutoff"`
}

type ReporterConfig struct {
	Hours             []int `yaml:"hours"`               // JST checkpoint hours, e.g. [13, 18, 23]
	FinalGraceMinutes int   `yaml:"final_grace_minutes"` // wait into the last hour so evening races can settle
}

func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyDefaults()
	config.applyEnv()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Scraper.Timeout == 0 {
		c.Scraper.Timeout = 15 * time.Second
	}
	if c.Scraper.RequestsPerSec == 0 {
		c.Scraper.RequestsPerSec = 1
	}
	if c.Decision.MinExpectedValue == 0 {
		c.Decision.MinExpectedValue = 1.0
	}
	if c.Decision.Window == 0 {
		c.Decision.Window = 40 * time.Minute
	}
	if c.Scanner.Interval == 0 {
		c.Scanner.Interval = 5 * time.Minute
	}
	if c.Scanner.Workers == 0 {
		c.Scanner.Workers = 8
	}
	if c.Scanner.Venues == 0 {
		c.Scanner.Venues = 24
	}
	if c.Scanner.RacesPerVenue == 0 {
		c.Scanner.RacesPerVenue = 12
	}
	if c.Scanner.Cutoff == "" {
		c.Scanner.Cutoff = "21:30"
	}
	if c.Commentary.Timeout == 0 {
		c.Commentary.Timeout = 10 * time.Second
	}
	if c.Reconciler.Interval == 0 {
		c.Reconciler.Interval = 10 * time.Minute
	}
	if c.Reconciler.Stake == 0 {
		c.Reconciler.Stake = 1000
	}
	if c.Reconciler.Cutoff == "" {
		c.Reconciler.Cutoff = "23:30"
	}
	if len(c.Reporter.Hours) == 0 {
		c.Reporter.Hours = []int{13, 18, 23}
	}
	if c.Reporter.FinalGraceMinutes == 0 {
		c.Reporter.FinalGraceMinutes = 5
	}
}

// applyEnv lets secrets come from the environment instead of the yaml file.
func (c *Config) applyEnv() {
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.Postgres.DSN = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("GROQ_API_KEY"); v != "" {
		c.Commentary.APIKey = v
	}
}

// ParseCutoff turns a "HH:MM" cutoff into the wall-clock boundary in JST for
// the day now falls on.
func ParseCutoff(cutoff string, now time.Time) (time.Time, error) {
	t, err := time.Parse("15:04", cutoff)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid cutoff %q: %w", cutoff, err)
	}
	jstNow := now.In(jst)
	return time.Date(jstNow.Year(), jstNow.Month(), jstNow.Day(), t.Hour(), t.Minute(), 0, 0, jst), nil
}

var jst = time.FixedZone("JST", 9*60*60)
