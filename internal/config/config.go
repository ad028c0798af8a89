package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	AppConfig *AppConfig
	Settings  *Settings `ignored:"true"`
}

type AppConfig struct {
	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`
	Debug        bool   `envconfig:"DEBUG" default:"false"`
	SettingsFile string `envconfig:"SETTINGS_FILE" default:"config.json"`
	RunLogFile   string `envconfig:"RUN_LOG_FILE" default:"challenge_replayer.log"`
	TraceFile    string `envconfig:"TRACE_FILE" default:""`
}

func GetConfig() (*Config, error) {
	_ = godotenv.Load()

	var conf Config

	if err := envconfig.Process("", &conf); err != nil {
		return nil, fmt.Errorf("read config from env vars: %w", err)
	}

	settings, err := LoadSettings(conf.AppConfig.SettingsFile)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	conf.Settings = settings

	return &conf, nil
}
