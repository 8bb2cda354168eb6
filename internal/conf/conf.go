package conf

import (
	"os"
	"path/filepath"
	"strconv"
)

// Config represents application configuration
type Config struct {
	// AI configuration (analysis + reply generation)
	AI AIConfig

	// Signal source configuration
	Signals SignalConfig

	// Decision configuration
	Decision DecisionConfig

	// Review workflow configuration
	Review ReviewConfig

	// Transport configuration
	Transports TransportConfig

	// Accumulator configuration
	Accumulator AccumulatorConfig

	// Ops API configuration
	Ops OpsConfig

	// Debug mode
	Debug bool
}

// AIConfig contains the model endpoint configuration
type AIConfig struct {
	APIKey           string
	BaseURL          string
	Model            string
	BusinessDataPath string
}

// SignalConfig contains scorer weights and credentials
type SignalConfig struct {
	CalendarWeight float64
	TrelloWeight   float64
	PriceWeight    float64

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRefreshToken string
	CalendarID         string

	TrelloAPIKey  string
	TrelloToken   string
	TrelloBoardID string
}

// DecisionConfig contains the auto-send gate
type DecisionConfig struct {
	AutoThreshold int
	HoursStart    int
	HoursEnd      int
	Timezone      string
}

// ReviewConfig contains draft storage and notification settings
type ReviewConfig struct {
	DraftDBPath string

	// OwnerChatID is the chat where review notifications land
	OwnerChatID string
	// OwnerUserID marks the operator's own messages for the self-filter
	OwnerUserID string

	DraftMaxAgeH int
}

// TransportConfig contains the two send identities
type TransportConfig struct {
	PrimaryAppID       string
	PrimaryAppSecret   string
	SecondaryAppID     string
	SecondaryAppSecret string
}

// AccumulatorConfig contains per-chat buffer settings
type AccumulatorConfig struct {
	BufferCap     int
	WindowSeconds int
	IdleMinutes   int
}

// OpsConfig contains the operator HTTP API settings
type OpsConfig struct {
	Port int
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	draftDBPath := os.Getenv("DRAFT_DB_PATH")
	if draftDBPath == "" {
		homeDir, _ := os.UserHomeDir()
		draftDBPath = filepath.Join(homeDir, ".secretary", "drafts.db")
	}

	businessDataPath := os.Getenv("BUSINESS_DATA_PATH")
	if businessDataPath == "" {
		businessDataPath = "business_data.txt"
	}

	return &Config{
		AI: AIConfig{
			APIKey:           os.Getenv("AI_API_KEY"),
			BaseURL:          envStr("AI_BASE_URL", "https://api.perplexity.ai"),
			Model:            envStr("AI_MODEL", "sonar"),
			BusinessDataPath: businessDataPath,
		},
		Signals: SignalConfig{
			CalendarWeight: envFloat("CALENDAR_WEIGHT", 0.20),
			TrelloWeight:   envFloat("TRELLO_WEIGHT", 0.10),
			PriceWeight:    envFloat("PRICE_LIST_WEIGHT", 0.10),

			GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
			GoogleRefreshToken: os.Getenv("GOOGLE_REFRESH_TOKEN"),
			CalendarID:         envStr("GOOGLE_CALENDAR_ID", "primary"),

			TrelloAPIKey:  os.Getenv("TRELLO_API_KEY"),
			TrelloToken:   os.Getenv("TRELLO_TOKEN"),
			TrelloBoardID: os.Getenv("TRELLO_BOARD_ID"),
		},
		Decision: DecisionConfig{
			AutoThreshold: envInt("AUTO_THRESHOLD", 90),
			HoursStart:    envInt("OPERATING_HOURS_START", 9),
			HoursEnd:      envInt("OPERATING_HOURS_END", 18),
			Timezone:      envStr("OPERATING_TZ", "Europe/Kyiv"),
		},
		Review: ReviewConfig{
			DraftDBPath:  draftDBPath,
			OwnerChatID:  os.Getenv("OWNER_CHAT_ID"),
			OwnerUserID:  os.Getenv("OWNER_USER_ID"),
			DraftMaxAgeH: envInt("DRAFT_MAX_AGE_HOURS", 72),
		},
		Transports: TransportConfig{
			PrimaryAppID:       os.Getenv("PRIMARY_APP_ID"),
			PrimaryAppSecret:   os.Getenv("PRIMARY_APP_SECRET"),
			SecondaryAppID:     os.Getenv("SECONDARY_APP_ID"),
			SecondaryAppSecret: os.Getenv("SECONDARY_APP_SECRET"),
		},
		Accumulator: AccumulatorConfig{
			BufferCap:     envInt("CHAT_BUFFER_CAP", 50),
			WindowSeconds: envInt("ACCUMULATE_WINDOW_SECONDS", 7),
			IdleMinutes:   envInt("CHAT_IDLE_MINUTES", 720),
		},
		Ops: OpsConfig{
			Port: envInt("OPS_API_PORT", 8790),
		},
		Debug: os.Getenv("DEBUG") == "true",
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Transports.PrimaryAppID == "" || c.Transports.PrimaryAppSecret == "" {
		return &ConfigError{Field: "PRIMARY_APP_ID/PRIMARY_APP_SECRET", Message: "required"}
	}
	if c.AI.APIKey == "" {
		return &ConfigError{Field: "AI_API_KEY", Message: "required"}
	}
	if c.Review.OwnerChatID == "" {
		return &ConfigError{Field: "OWNER_CHAT_ID", Message: "required"}
	}
	if c.Decision.HoursStart < 0 || c.Decision.HoursStart > 23 ||
		c.Decision.HoursEnd < 0 || c.Decision.HoursEnd > 24 {
		return &ConfigError{Field: "OPERATING_HOURS_START/END", Message: "out of range"}
	}
	if c.Decision.HoursStart == c.Decision.HoursEnd {
		return &ConfigError{Field: "OPERATING_HOURS_START/END", Message: "empty window"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}

func envStr(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func envInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return def
}
