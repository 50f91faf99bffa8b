package model

import "time"

// ================ Config ================
type LLMConfig struct {
	Provider string `envconfig:"LLM_PROVIDER" default:"gemini"`
	APIKey   string `envconfig:"LLM_API_KEY"`
	BaseURL  string `envconfig:"LLM_BASE_URL"`
}

// AgentModelConfig configures the reasoning model that selects tools.
type AgentModelConfig struct {
	Model       string  `envconfig:"AGENT_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"AGENT_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"AGENT_TEMPERATURE" default:"0"`
}

// ToolModelConfig configures the model used for single-prompt completions inside adapters.
type ToolModelConfig struct {
	Model       string  `envconfig:"TOOL_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens   int     `envconfig:"TOOL_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"TOOL_TEMPERATURE" default:"0"`
}

type ConversationConfig struct {
	TTL        time.Duration `envconfig:"CONVERSATION_TTL" default:"24h"`
	Checkpoint struct {
		Backend  string `envconfig:"CHECKPOINT_BACKEND" default:"memory"`
		BoltPath string `envconfig:"CHECKPOINT_BOLT_PATH" default:"data/checkpoints.db"`
	}
	Tools struct {
		MaxCalls int `envconfig:"CONVERSATION_TOOL_MAX_CALLS" default:"10"`
	}
}

type PromptConfig struct {
	StoreName string `envconfig:"PROMPT_STORE_NAME" default:"Grocer"`
	// AgentPrompt replaces the embedded system prompt when set.
	AgentPrompt string `envconfig:"AGENT_PROMPT"`
}

type IndexConfig struct {
	ProductIndex string `envconfig:"PRODUCT_INDEX" default:"Product"`
	RecipeIndex  string `envconfig:"RECIPE_INDEX" default:"Recipe"`
}

// CatalogConfig lists the allow-listed catalog function patterns, e.g. "genai.data.*".
type CatalogConfig struct {
	Functions []string `envconfig:"CATALOG_FUNCTIONS" default:"genai.data.*"`
}

type SQLAgentConfig struct {
	MaxAttempts int           `envconfig:"SQL_AGENT_MAX_ATTEMPTS" default:"3"`
	MaxRows     int           `envconfig:"SQL_AGENT_MAX_ROWS" default:"100"`
	MaxBytes    int           `envconfig:"SQL_AGENT_MAX_BYTES" default:"16384"`
	Timeout     time.Duration `envconfig:"SQL_AGENT_TIMEOUT" default:"10s"`
}

type EmailConfig struct {
	Host              string `envconfig:"SMTP_HOST" default:"smtp.gmail.com"`
	Port              int    `envconfig:"SMTP_PORT" default:"465"`
	Username          string `envconfig:"SMTP_USERNAME"`
	Password          string `envconfig:"SMTP_PASSWORD"`
	Sender            string `envconfig:"SENDER_EMAIL"`
	Subject           string `envconfig:"EMAIL_SUBJECT" default:"Grocery List"`
	OverrideRecipient bool   `envconfig:"EMAIL_OVERRIDE_RECIPIENT" default:"true"`
}

type WeatherConfig struct {
	GeocoderURL string        `envconfig:"NOMINATIM_URL" default:"https://nominatim.openstreetmap.org"`
	ArchiveURL  string        `envconfig:"OPEN_METEO_URL" default:"https://archive-api.open-meteo.com"`
	UserAgent   string        `envconfig:"WEATHER_USER_AGENT" default:"grocer-assistant"`
	Timeout     time.Duration `envconfig:"HTTP_TIMEOUT" default:"15s"`
}

type ServerConfig struct {
	Addr             string `envconfig:"SERVER_ADDR" default:":8080"`
	ShowToolActivity bool   `envconfig:"SHOW_TOOL_ACTIVITY" default:"false"`
}
