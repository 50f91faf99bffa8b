package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/grocer-core-poc/server/internal/agent/model"
	"github.com/grocer-core-poc/server/internal/core"
	pkgredis "github.com/grocer-core-poc/server/pkg/redis"
	pkgsqlite "github.com/grocer-core-poc/server/pkg/sqlite"
	pkgweaviate "github.com/grocer-core-poc/server/pkg/weaviate"
)

// App defines every configurable parameter of the service, sourced from
// environment variables (loaded from .env for local runs). It is built once at
// process start and handed to constructors by reference.
type App struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// Infrastructure
	Redis    pkgredis.Config
	SQLite   pkgsqlite.Config
	Weaviate pkgweaviate.Config

	// LLM provider
	LLM       model.LLMConfig
	Agent     model.AgentModelConfig
	ToolModel model.ToolModelConfig

	// Agent configs
	Conversation model.ConversationConfig
	Prompt       model.PromptConfig
	Index        model.IndexConfig
	Catalog      model.CatalogConfig
	SQLAgent     model.SQLAgentConfig
	Email        model.EmailConfig
	Weather      model.WeatherConfig
	Server       model.ServerConfig
}

// Env returns the parsed deployment environment.
func (a *App) Env() core.Environment {
	return core.ParseEnvironment(a.Environment)
}

// Load reads envFile when present and processes the environment into App.
func Load(envFile string) (*App, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	var cfg App
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}
	return &cfg, nil
}
