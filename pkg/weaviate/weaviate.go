package weaviate

import (
	"errors"

	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/auth"
)

type Config struct {
	Host   string `split_words:"true"`
	Scheme string `split_words:"true" default:"http"`
	APIKey string `split_words:"true"`
}

func (c *Config) New() (*weaviate.Client, error) {
	if c.Host == "" {
		return nil, errors.New("weaviate host is empty")
	}
	cfg := weaviate.Config{
		Host:   c.Host,
		Scheme: c.Scheme,
	}
	if c.APIKey != "" {
		cfg.AuthConfig = auth.ApiKey{Value: c.APIKey}
	}
	return weaviate.NewClient(cfg)
}
