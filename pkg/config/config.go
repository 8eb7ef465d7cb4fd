// Package config loads bridge configuration. Values come from three layers:
// coded defaults, an optional YAML file, and environment variables, each
// overriding the previous. Configuration is fixed at process start.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so values like "15s" decode from both YAML
// and environment variables.
type Duration time.Duration

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// UnmarshalText implements encoding.TextUnmarshaler for env parsing.
func (d *Duration) UnmarshalText(b []byte) error {
	parsed, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

// Config holds everything the bridge needs to run.
type Config struct {
	TelegramToken  string `env:"TELEGRAM_TOKEN" yaml:"telegram_token"`
	TelegramChatID int64  `env:"TELEGRAM_CHAT_ID" yaml:"telegram_chat_id"`

	BrokerHost     string `env:"MQTT_BROKER" yaml:"mqtt_broker"`
	BrokerPort     int    `env:"MQTT_PORT" yaml:"mqtt_port"`
	BrokerUsername string `env:"MQTT_USER" yaml:"mqtt_user"`
	BrokerPassword string `env:"MQTT_PASS" yaml:"mqtt_pass"`
	ClientID       string `env:"MQTT_CLIENT_ID" yaml:"mqtt_client_id"`

	// OutputTopics are the broker filters forwarded to the chat.
	OutputTopics []string `env:"MQTT_TOPICS_OUTPUT" envSeparator:"," yaml:"mqtt_topics_output"`
	// InputTopic receives chat messages from the authorized sender.
	InputTopic string `env:"MQTT_TOPIC_INPUT" yaml:"mqtt_topic_input"`
	// StatusTopic carries the retained online/offline availability state.
	// Empty disables it.
	StatusTopic string `env:"MQTT_TOPIC_STATUS" yaml:"mqtt_topic_status"`

	FetchTimeout Duration `env:"FETCH_TIMEOUT" yaml:"fetch_timeout"`
	LogLevel     string   `env:"LOG_LEVEL" yaml:"log_level"`
}

// Default returns the coded defaults, before any file or env overlay.
func Default() *Config {
	return &Config{
		BrokerHost:   "localhost",
		BrokerPort:   1883,
		ClientID:     "mqttgram",
		OutputTopics: []string{"telegram/output/#", "mt32/#"},
		InputTopic:   "telegram/input",
		StatusTopic:  "telegram/bridge/status",
		FetchTimeout: Duration(15 * time.Second),
		LogLevel:     "info",
	}
}

// Load builds the effective configuration. path may be empty (no file).
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// normalize trims topic strings and drops empty filter entries so a value
// like "a/#, b/#" behaves as expected.
func (c *Config) normalize() {
	topics := make([]string, 0, len(c.OutputTopics))
	for _, t := range c.OutputTopics {
		t = strings.TrimSpace(t)
		if t != "" {
			topics = append(topics, t)
		}
	}
	c.OutputTopics = topics
	c.InputTopic = strings.TrimSpace(c.InputTopic)
	c.StatusTopic = strings.TrimSpace(c.StatusTopic)
}

// Validate rejects configurations the bridge cannot start with.
func (c *Config) Validate() error {
	if c.TelegramToken == "" {
		return errors.New("config: TELEGRAM_TOKEN is required")
	}
	if c.TelegramChatID == 0 {
		return errors.New("config: TELEGRAM_CHAT_ID is required")
	}
	if c.BrokerHost == "" {
		return errors.New("config: broker host must not be empty")
	}
	if c.BrokerPort <= 0 || c.BrokerPort > 65535 {
		return fmt.Errorf("config: invalid broker port %d", c.BrokerPort)
	}
	if len(c.OutputTopics) == 0 {
		return errors.New("config: at least one output topic filter is required")
	}
	if c.InputTopic == "" {
		return errors.New("config: input topic must not be empty")
	}
	if c.FetchTimeout <= 0 {
		return errors.New("config: fetch timeout must be positive")
	}
	return nil
}

// BrokerURL returns the broker endpoint in the form the MQTT client dials.
func (c *Config) BrokerURL() string {
	return fmt.Sprintf("tcp://%s:%d", c.BrokerHost, c.BrokerPort)
}
