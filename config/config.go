// Package config provides configuration management for the lead generator.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	OllamaURL   string
	OllamaModel string
	LLMAPIKey   string
	Temperature float64
	MaxTurns    int

	City       string
	LeadCount  int
	OutputFile string

	FetchTimeout  time.Duration
	SearchTimeout time.Duration
	SearchURL     string
	SearchRate    float64

	LogLevel string

	GoogleClientID      string
	GoogleSecret        string
	GoogleRedirectURL   string
	GoogleTokenFile     string
	SheetsSpreadsheetID string
	SheetsRange         string

	TelegramToken  string
	TelegramChatID int64
}

// envNames maps each key to the environment variables consulted for it, in
// priority order. The unprefixed names are kept for compatibility with
// existing Ollama and Google setups.
var envNames = map[string][]string{
	"ollama_url":            {"LEADGEN_OLLAMA_URL", "OLLAMA_URL"},
	"ollama_model":          {"LEADGEN_OLLAMA_MODEL", "OLLAMA_MODEL"},
	"llm_api_key":           {"LEADGEN_LLM_API_KEY", "LLM_API_KEY"},
	"temperature":           {"LEADGEN_TEMPERATURE"},
	"max_turns":             {"LEADGEN_MAX_TURNS"},
	"city":                  {"LEADGEN_CITY"},
	"lead_count":            {"LEADGEN_LEAD_COUNT"},
	"output_file":           {"LEADGEN_OUTPUT_FILE"},
	"fetch_timeout":         {"LEADGEN_FETCH_TIMEOUT"},
	"search_timeout":        {"LEADGEN_SEARCH_TIMEOUT"},
	"search_url":            {"LEADGEN_SEARCH_URL"},
	"search_rate":           {"LEADGEN_SEARCH_RATE"},
	"log_level":             {"LEADGEN_LOG_LEVEL", "LOG_LEVEL"},
	"google_client_id":      {"LEADGEN_GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_ID"},
	"google_client_secret":  {"LEADGEN_GOOGLE_CLIENT_SECRET", "GOOGLE_CLIENT_SECRET"},
	"google_redirect_url":   {"LEADGEN_GOOGLE_REDIRECT_URL", "GOOGLE_REDIRECT_URL"},
	"google_token_file":     {"LEADGEN_GOOGLE_TOKEN_FILE", "GOOGLE_TOKEN_FILE"},
	"sheets_spreadsheet_id": {"LEADGEN_SHEETS_SPREADSHEET_ID"},
	"sheets_range":          {"LEADGEN_SHEETS_RANGE"},
	"telegram_token":        {"LEADGEN_TELEGRAM_TOKEN", "TELEGRAM_BOT_TOKEN"},
	"telegram_chat_id":      {"LEADGEN_TELEGRAM_CHAT_ID", "TELEGRAM_CHAT_ID"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ollama_url", "http://localhost:11434/api/chat")
	v.SetDefault("ollama_model", "qwen3-coder:30b")
	v.SetDefault("temperature", 0.1)
	v.SetDefault("max_turns", 25)
	v.SetDefault("city", "Vancouver, British Columbia")
	v.SetDefault("lead_count", 5)
	v.SetDefault("output_file", "leads_output.txt")
	v.SetDefault("fetch_timeout", 10*time.Second)
	v.SetDefault("search_timeout", 15*time.Second)
	v.SetDefault("search_url", "https://html.duckduckgo.com/html/")
	v.SetDefault("search_rate", 1.0)
	v.SetDefault("log_level", "info")
	v.SetDefault("google_redirect_url", "urn:ietf:wg:oauth:2.0:oob")
	v.SetDefault("google_token_file", "google_token.json")
	v.SetDefault("sheets_range", "Leads!A1")
}

// Load reads configuration from defaults, an optional leadgen.yaml in the
// working directory, and environment variables, in increasing precedence.
func Load() (*Config, error) {
	return load("")
}

// LoadFile is Load with an explicit config file path.
func LoadFile(path string) (*Config, error) {
	return load(path)
}

func load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	for key, names := range envNames {
		args := append([]string{key}, names...)
		if err := v.BindEnv(args...); err != nil {
			return nil, fmt.Errorf("binding env for %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		// Only leadgen.yaml / leadgen.yml; a bare "leadgen" is the binary.
		v.SetConfigName("leadgen")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{
		OllamaURL:           v.GetString("ollama_url"),
		OllamaModel:         v.GetString("ollama_model"),
		LLMAPIKey:           v.GetString("llm_api_key"),
		Temperature:         v.GetFloat64("temperature"),
		MaxTurns:            v.GetInt("max_turns"),
		City:                strings.TrimSpace(v.GetString("city")),
		LeadCount:           v.GetInt("lead_count"),
		OutputFile:          v.GetString("output_file"),
		FetchTimeout:        v.GetDuration("fetch_timeout"),
		SearchTimeout:       v.GetDuration("search_timeout"),
		SearchURL:           v.GetString("search_url"),
		SearchRate:          v.GetFloat64("search_rate"),
		LogLevel:            v.GetString("log_level"),
		GoogleClientID:      v.GetString("google_client_id"),
		GoogleSecret:        v.GetString("google_client_secret"),
		GoogleRedirectURL:   v.GetString("google_redirect_url"),
		GoogleTokenFile:     v.GetString("google_token_file"),
		SheetsSpreadsheetID: v.GetString("sheets_spreadsheet_id"),
		SheetsRange:         v.GetString("sheets_range"),
		TelegramToken:       v.GetString("telegram_token"),
		TelegramChatID:      v.GetInt64("telegram_chat_id"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the run cannot work with.
func (c *Config) Validate() error {
	switch {
	case c.OllamaURL == "":
		return errors.New("ollama_url is required")
	case c.OllamaModel == "":
		return errors.New("ollama_model is required")
	case c.City == "":
		return errors.New("city is required")
	case c.LeadCount <= 0:
		return fmt.Errorf("lead_count must be positive, got %d", c.LeadCount)
	case c.MaxTurns <= 0:
		return fmt.Errorf("max_turns must be positive, got %d", c.MaxTurns)
	case c.OutputFile == "":
		return errors.New("output_file is required")
	case c.FetchTimeout <= 0 || c.SearchTimeout <= 0:
		return errors.New("fetch_timeout and search_timeout must be positive")
	case c.SearchRate <= 0:
		return fmt.Errorf("search_rate must be positive, got %v", c.SearchRate)
	}
	return nil
}

// CityName is the short form of City used in the user task, e.g.
// "Vancouver" for "Vancouver, British Columbia".
func (c *Config) CityName() string {
	name, _, _ := strings.Cut(c.City, ",")
	return strings.TrimSpace(name)
}

// SheetsEnabled reports whether a spreadsheet export is configured.
func (c *Config) SheetsEnabled() bool {
	return c.SheetsSpreadsheetID != "" && c.GoogleClientID != "" && c.GoogleSecret != ""
}

// TelegramEnabled reports whether a Telegram summary is configured.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}
