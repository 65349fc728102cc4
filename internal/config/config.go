// Package config loads the agent's runtime configuration from an optional
// YAML file, environment variables and a .env file, in ascending order of
// precedence for the environment.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Model   ModelConfig   `mapstructure:"model"`
	Agent   AgentConfig   `mapstructure:"agent"`
	Logging LoggingConfig `mapstructure:"logging"`
	Storage StorageConfig `mapstructure:"storage"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// ReadTimeout and WriteTimeout are in seconds.
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
	// RequestTimeout caps one whole /chat request in seconds, tool
	// rounds included.
	RequestTimeout int `mapstructure:"request_timeout"`
}

// ModelConfig identifies the upstream model endpoint. APIKey also binds to
// the conventional OPENAI_API_KEY variable.
type ModelConfig struct {
	Name    string `mapstructure:"name"`
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

type AgentConfig struct {
	MaxRounds    int    `mapstructure:"max_rounds"`
	SystemPrompt string `mapstructure:"system_prompt"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// Load reads configuration from cfgFile (or ./config.yaml when empty),
// overlaid with WEBAGENT_-prefixed environment variables. A missing config
// file is not an error; the defaults cover a local run.
func Load(cfgFile string) (*Config, error) {
	// A .env file is a convenience for local runs; absence is fine.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("WEBAGENT")
	v.AutomaticEnv()

	// The API key and base URL also honour the conventional variables.
	_ = v.BindEnv("model.api_key", "WEBAGENT_MODEL_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("model.base_url", "WEBAGENT_MODEL_BASE_URL", "OPENAI_BASE_URL")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 150)
	v.SetDefault("server.request_timeout", 120)

	v.SetDefault("model.name", "gpt-4o-mini")

	v.SetDefault("agent.max_rounds", 5)
	v.SetDefault("agent.system_prompt",
		"You are a helpful assistant with access to web search and page fetching tools. "+
			"Use them when a question needs current or external information, and answer "+
			"from your own knowledge otherwise.")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("storage.path", "./data/usage.db")
}

// Addr returns the host:port the HTTP server should listen on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
