package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"challenge-replayer/internal/entity"

	"github.com/spf13/viper"
)

// Range is a [Min, Max] interval in seconds as written in the settings file.
type Range struct {
	Min float64 `mapstructure:"min" json:"min"`
	Max float64 `mapstructure:"max" json:"max"`
}

func (r Range) Delay() entity.DelayRange {
	return entity.DelayRange{
		Min: seconds(r.Min),
		Max: seconds(r.Max),
	}
}

// Settings is the operator-editable JSON settings file.
type Settings struct {
	ChromeProfilePath string  `mapstructure:"chrome_profile_path"`
	TypingSpeed       Range   `mapstructure:"typing_speed"`
	HumanDelays       Range   `mapstructure:"human_delays"`
	PreClickDelays    Range   `mapstructure:"pre_click_delays"`
	RetryAttempts     int     `mapstructure:"retry_attempts"`
	OllamaEnabled     bool    `mapstructure:"ollama_enabled"`
	OllamaURL         string  `mapstructure:"ollama_url"`
	OllamaModel       string  `mapstructure:"ollama_model"`
	Headless          bool    `mapstructure:"headless"`
	Timeout           int     `mapstructure:"timeout"`
	ReplayMode        string  `mapstructure:"replay_mode"`
	TypoRate          float64 `mapstructure:"typo_rate"`
	MinOpDelay        float64 `mapstructure:"min_op_delay"`
	FormatCode        bool    `mapstructure:"format_code"`
	AutoRun           bool    `mapstructure:"auto_run"`
	StrictPanelCheck  bool    `mapstructure:"strict_panel_check"`
	BatchMax          int     `mapstructure:"batch_max"`

	path string
}

// Path is the file the settings were read from.
func (s *Settings) Path() string {
	return s.path
}

func (s *Settings) ElementTimeout() time.Duration {
	return time.Duration(s.Timeout) * time.Second
}

func (s *Settings) Mode() entity.ReplayMode {
	return entity.ParseReplayMode(s.ReplayMode)
}

func (s *Settings) OpDelayFloor() time.Duration {
	return seconds(s.MinOpDelay)
}

func DefaultSettings() map[string]any {
	return map[string]any{
		"chrome_profile_path":  "",
		"typing_speed.min":     0.05,
		"typing_speed.max":     0.15,
		"human_delays.min":     1.0,
		"human_delays.max":     3.0,
		"pre_click_delays.min": 0.8,
		"pre_click_delays.max": 1.5,
		"retry_attempts":       3,
		"ollama_enabled":       false,
		"ollama_url":           "http://localhost:11434",
		"ollama_model":         "codellama",
		"headless":             false,
		"timeout":              30,
		"replay_mode":          string(entity.ReplayModeChunked),
		"typo_rate":            0.0,
		"min_op_delay":         0.02,
		"format_code":          false,
		"auto_run":             false,
		"strict_panel_check":   false,
		"batch_max":            10,
	}
}

// LoadSettings reads the JSON settings file at path. A missing file is
// created with the defaults, which are then used.
func LoadSettings(path string) (*Settings, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	for key, value := range DefaultSettings() {
		v.SetDefault(key, value)
	}

	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("stat settings file: %w", err)
		}

		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create settings dir: %w", err)
			}
		}

		if err := v.WriteConfigAs(path); err != nil {
			return nil, fmt.Errorf("write default settings: %w", err)
		}
	} else if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read settings file: %w", err)
	}

	var settings Settings

	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}

	settings.path = path

	if err := settings.Validate(); err != nil {
		return nil, err
	}

	return &settings, nil
}

func (s *Settings) Validate() error {
	var problems []string

	if s.TypingSpeed.Min < 0 || s.TypingSpeed.Max < s.TypingSpeed.Min {
		problems = append(problems, "typing_speed must satisfy 0 <= min <= max")
	}

	if s.HumanDelays.Min < 0 || s.HumanDelays.Max < s.HumanDelays.Min {
		problems = append(problems, "human_delays must satisfy 0 <= min <= max")
	}

	if s.PreClickDelays.Min < 0 || s.PreClickDelays.Max < s.PreClickDelays.Min {
		problems = append(problems, "pre_click_delays must satisfy 0 <= min <= max")
	}

	if s.Timeout <= 0 {
		problems = append(problems, "timeout must be positive")
	}

	if s.TypoRate < 0 || s.TypoRate > 1 {
		problems = append(problems, "typo_rate must be within [0, 1]")
	}

	if !entity.ParseReplayMode(s.ReplayMode).Valid() {
		problems = append(problems, fmt.Sprintf("unknown replay_mode %q", s.ReplayMode))
	}

	if s.OllamaEnabled && s.OllamaURL == "" {
		problems = append(problems, "ollama_url is required when ollama_enabled is set")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid settings: %s", strings.Join(problems, "; "))
	}

	return nil
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
