package protocol

import (
	"strings"
	"time"

	"github.com/turtacn/Tether/pkg/consts"
)

// Config represents the root configuration of a Tether console
type Config struct {
	Version       string              `yaml:"version"`
	Server        ServerConfig        `yaml:"server"`
	Channel       ChannelConfig       `yaml:"channel"`
	Bootstrap     BootstrapConfig     `yaml:"bootstrap"`
	Messages      Messages            `yaml:"messages"`
	Observability ObservabilityConfig `yaml:"observability"`
	Simulator     SimulatorConfig     `yaml:"simulator"`
}

type ServerConfig struct {
	BaseURL        string `yaml:"base_url"`   // e.g. http://localhost:8080
	AccessKey      string `yaml:"access_key"` // Rendered into the entry page by the server
	CGIPrefix      string `yaml:"cgi_prefix"`
	RequestTimeout string `yaml:"request_timeout"`
}

type ChannelConfig struct {
	Path             string `yaml:"path"`
	RetryInterval    string `yaml:"retry_interval"`
	MaxRetry         int    `yaml:"max_retry"`
	HandshakeTimeout string `yaml:"handshake_timeout"`
}

type BootstrapConfig struct {
	IdentityTimeout string `yaml:"identity_timeout"`
}

type ObservabilityConfig struct {
	MetricsPort string `yaml:"metrics_port"`
	LogLevel    string `yaml:"log_level"`
}

type SimulatorConfig struct {
	Listen       string `yaml:"listen"`
	AccessKey    string `yaml:"access_key"`
	PushInterval string `yaml:"push_interval"`
	// StrictChannel requires the session key on the state channel upgrade.
	StrictChannel bool `yaml:"strict_channel"`
}

// Messages is the operator-facing text. Every field can be overridden from
// the config file, which is how non-English consoles are configured.
type Messages struct {
	Retrying        string `yaml:"retrying"`
	Unavailable     string `yaml:"unavailable"`
	ServerRestarted string `yaml:"server_restarted"`
	AnotherTab      string `yaml:"another_tab"`
	Terminated      string `yaml:"terminated"`
	RequestFailed   string `yaml:"request_failed"`
	GenerateFailed  string `yaml:"generate_failed"`
	StartFailed     string `yaml:"start_failed"`
	UpdateFailed    string `yaml:"update_failed"`
}

const howToRestart = " In order to restart the application, close the console and run the application (double click the exe file) again."

// DefaultMessages returns the English message catalog.
func DefaultMessages() Messages {
	return Messages{
		Retrying:        "Trying to restart the application...",
		Unavailable:     "The application is unavailable. If it has already stopped, you need to restart it." + howToRestart,
		ServerRestarted: "The application has restarted. This page will be reloaded.",
		AnotherTab:      "Another browser tab should have opened. This tab is terminated.",
		Terminated:      "The application has been terminated." + howToRestart,
		RequestFailed:   "The application failed to complete the process. Please check whether the application is running.",
		GenerateFailed:  "Can not generate a start key. The signaling server failed to authorize this application or is unavailable.",
		StartFailed:     "Can not start signaling. The signaling server failed to validate the input start key or is unavailable.",
		UpdateFailed:    "The application failed to update the existing access token. The input access token may be invalid.",
	}
}

// Default returns a Config pointing at a server on localhost:8080.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills every empty field with its default.
func (c *Config) ApplyDefaults() {
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = "http://localhost:8080"
	}
	c.Server.BaseURL = strings.TrimSuffix(c.Server.BaseURL, "/")
	if c.Server.CGIPrefix == "" {
		c.Server.CGIPrefix = consts.DefaultCGIPrefix
	}
	if c.Channel.Path == "" {
		c.Channel.Path = consts.DefaultStatePath
	}
	if c.Channel.MaxRetry <= 0 {
		c.Channel.MaxRetry = consts.DefaultMaxRetry
	}
	if c.Observability.LogLevel == "" {
		c.Observability.LogLevel = "info"
	}
	if c.Simulator.Listen == "" {
		c.Simulator.Listen = "127.0.0.1:8080"
	}

	d := DefaultMessages()
	fill := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	fill(&c.Messages.Retrying, d.Retrying)
	fill(&c.Messages.Unavailable, d.Unavailable)
	fill(&c.Messages.ServerRestarted, d.ServerRestarted)
	fill(&c.Messages.AnotherTab, d.AnotherTab)
	fill(&c.Messages.Terminated, d.Terminated)
	fill(&c.Messages.RequestFailed, d.RequestFailed)
	fill(&c.Messages.GenerateFailed, d.GenerateFailed)
	fill(&c.Messages.StartFailed, d.StartFailed)
	fill(&c.Messages.UpdateFailed, d.UpdateFailed)
}

func (c *ChannelConfig) RetryIntervalDuration() time.Duration {
	return ParseDuration(c.RetryInterval, consts.DefaultRetryInterval)
}

func (c *ChannelConfig) HandshakeTimeoutDuration() time.Duration {
	return ParseDuration(c.HandshakeTimeout, consts.DefaultHandshakeTimeout)
}

func (c *BootstrapConfig) IdentityTimeoutDuration() time.Duration {
	return ParseDuration(c.IdentityTimeout, consts.DefaultIdentityTimeout)
}

func (c *ServerConfig) RequestTimeoutDuration() time.Duration {
	return ParseDuration(c.RequestTimeout, consts.DefaultRequestTimeout)
}

func (c *SimulatorConfig) PushIntervalDuration() time.Duration {
	return ParseDuration(c.PushInterval, consts.DefaultPushInterval)
}

// ParseDuration parses s, falling back to def when s is empty, malformed
// or not positive.
func ParseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// Personal.AI order the ending
