package master

import (
	"fmt"
	"os"

	"github.com/core-tools/hsu-buttons/pkg/buttons"
	"github.com/core-tools/hsu-buttons/pkg/errors"
	"github.com/core-tools/hsu-buttons/pkg/gpio"
	"github.com/core-tools/hsu-buttons/pkg/logging"
	"github.com/core-tools/hsu-buttons/pkg/process"

	"gopkg.in/yaml.v3"
)

// Compiled-in defaults, used as-is when no configuration file is given
const (
	DefaultChip     = "gpiochip0"
	DefaultConsumer = "hsu-buttons"

	DefaultLoggerBinary  = "datalogger"
	DefaultStreamBinary  = "rtsp-simple-server"
	DefaultCaptureBinary = "bombuscv"

	DefaultLoggerLine  = 27
	DefaultStreamLine  = 22
	DefaultCaptureLine = 17
)

// Config represents the top-level configuration file structure
type Config struct {
	GPIO      GPIOConfig          `yaml:"gpio"`
	Processes ProcessesConfig     `yaml:"processes"`
	Buttons   ButtonsConfig       `yaml:"buttons"`
	Logging   logging.ZapConfig   `yaml:"logging"`
	Toggle    ToggleDefaultConfig `yaml:"toggle"`
}

type GPIOConfig struct {
	Chip     string `yaml:"chip"`
	Consumer string `yaml:"consumer,omitempty"`
}

// ProcessesConfig names the executables driven by the buttons. Names are
// resolved on PATH and matched by executable base name.
type ProcessesConfig struct {
	Logger  string `yaml:"logger"`
	Stream  string `yaml:"stream"`
	Capture string `yaml:"capture"`
}

type ButtonsConfig struct {
	Logger  ButtonConfig `yaml:"logger"`
	Stream  ButtonConfig `yaml:"stream"`
	Capture ButtonConfig `yaml:"capture"`
}

type ButtonConfig struct {
	Line *int   `yaml:"line,omitempty"` // Pointer so that line 0 can be configured
	Pull string `yaml:"pull,omitempty"`
	Edge string `yaml:"edge,omitempty"`
}

// ToggleDefaultConfig holds the logger output mode assumed at startup.
type ToggleDefaultConfig struct {
	LoggerInitial bool `yaml:"logger_initial"`
}

// DefaultConfig returns the configuration the daemon runs with when no file is given.
func DefaultConfig() *Config {
	config := &Config{}
	if err := setConfigDefaults(config); err != nil {
		panic(err)
	}
	return config
}

// LoadConfigFromFile loads configuration from a YAML file. Fields left
// out of the file keep their defaults.
func LoadConfigFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.NewIOError("failed to read configuration file", err).WithContext("filename", filename)
	}

	return ParseConfig(data, filename)
}

func ParseConfig(data []byte, filename string) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.NewValidationError("failed to parse YAML configuration", err).WithContext("filename", filename)
	}

	if err := setConfigDefaults(&config); err != nil {
		return nil, errors.NewValidationError("failed to apply configuration defaults", err)
	}

	return &config, nil
}

// setConfigDefaults applies default values to configuration
func setConfigDefaults(config *Config) error {
	if config.GPIO.Chip == "" {
		config.GPIO.Chip = DefaultChip
	}
	if config.GPIO.Consumer == "" {
		config.GPIO.Consumer = DefaultConsumer
	}

	if config.Processes.Logger == "" {
		config.Processes.Logger = DefaultLoggerBinary
	}
	if config.Processes.Stream == "" {
		config.Processes.Stream = DefaultStreamBinary
	}
	if config.Processes.Capture == "" {
		config.Processes.Capture = DefaultCaptureBinary
	}

	setButtonDefaults(&config.Buttons.Logger, DefaultLoggerLine)
	setButtonDefaults(&config.Buttons.Stream, DefaultStreamLine)
	setButtonDefaults(&config.Buttons.Capture, DefaultCaptureLine)

	defaults := logging.DefaultZapConfig()
	if config.Logging.Level == "" {
		config.Logging.Level = defaults.Level
	}
	if config.Logging.Format == "" {
		config.Logging.Format = defaults.Format
	}
	if config.Logging.Output == "" {
		config.Logging.Output = defaults.Output
	}

	return nil
}

func setButtonDefaults(button *ButtonConfig, line int) {
	if button.Line == nil {
		button.Line = &line
	}
	// Buttons pull the line high and short it on press
	if button.Pull == "" {
		button.Pull = string(gpio.PullUp)
	}
	if button.Edge == "" {
		button.Edge = string(gpio.EdgeRising)
	}
}

// ValidateConfig validates the entire configuration structure
func ValidateConfig(config *Config) error {
	if config == nil {
		return errors.NewValidationError("configuration cannot be nil", nil)
	}

	if config.GPIO.Chip == "" {
		return errors.NewValidationError("GPIO chip cannot be empty", nil)
	}

	binaries := map[string]string{
		"logger":  config.Processes.Logger,
		"stream":  config.Processes.Stream,
		"capture": config.Processes.Capture,
	}
	for role, binary := range binaries {
		if err := process.ValidateBinaryName(binary); err != nil {
			return errors.NewValidationError(fmt.Sprintf("invalid %s process name", role), err)
		}
	}
	if config.Processes.Stream == config.Processes.Capture {
		return errors.NewValidationError("stream and capture processes must differ", nil).
			WithContext("binary", config.Processes.Stream)
	}

	seenLines := make(map[int]string)
	for _, channel := range config.channelsUnchecked() {
		line := channel.Line.Line
		if err := ValidateLine(line); err != nil {
			return errors.NewValidationError(fmt.Sprintf("invalid line for %s button", channel.ID), err)
		}
		if prev, exists := seenLines[line]; exists {
			return errors.NewValidationError(
				fmt.Sprintf("GPIO line %d used by both %s and %s buttons", line, prev, channel.ID),
				nil,
			)
		}
		seenLines[line] = channel.ID
	}

	for id, button := range map[string]ButtonConfig{
		"logger":  config.Buttons.Logger,
		"stream":  config.Buttons.Stream,
		"capture": config.Buttons.Capture,
	} {
		if _, err := gpio.ParsePull(button.Pull); err != nil {
			return errors.NewValidationError(fmt.Sprintf("invalid pull mode for %s button", id), err)
		}
		if _, err := gpio.ParseEdge(button.Edge); err != nil {
			return errors.NewValidationError(fmt.Sprintf("invalid edge for %s button", id), err)
		}
	}

	if err := logging.ValidateZapConfig(config.Logging); err != nil {
		return errors.NewValidationError("invalid logging configuration", err)
	}

	return nil
}

// Channels returns the three button channels in join order: logger,
// stream, capture.
func (c *Config) Channels() ([]buttons.Channel, error) {
	if err := ValidateConfig(c); err != nil {
		return nil, err
	}
	return c.channelsUnchecked(), nil
}

func (c *Config) channelsUnchecked() []buttons.Channel {
	build := func(id string, button ButtonConfig, binary string, kind buttons.ActionKind) buttons.Channel {
		pull, _ := gpio.ParsePull(button.Pull)
		edge, _ := gpio.ParseEdge(button.Edge)
		line := -1
		if button.Line != nil {
			line = *button.Line
		}
		return buttons.Channel{
			ID: id,
			Line: gpio.LineConfig{
				Line:  line,
				Pull:  pull,
				Edge:  edge,
				Label: binary,
			},
			Action: kind,
		}
	}

	return []buttons.Channel{
		build("logger", c.Buttons.Logger, c.Processes.Logger, buttons.ActionToggleLoggerBehavior),
		build("stream", c.Buttons.Stream, c.Processes.Stream, buttons.ActionToggleStreamProcess),
		build("capture", c.Buttons.Capture, c.Processes.Capture, buttons.ActionToggleCaptureProcess),
	}
}
