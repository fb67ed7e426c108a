package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/vango-dev/bind/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "bind.json"

	// DefaultPort is the default server port.
	DefaultPort = 3000

	// DefaultHost is the default server host.
	DefaultHost = "localhost"

	// DefaultWSPath is the default live session endpoint.
	DefaultWSPath = "/_bind/live"

	// DefaultMaxMessageSize is the default WebSocket read limit in bytes.
	DefaultMaxMessageSize = 64 * 1024

	// DefaultEventQueue is the default per-session task queue size.
	DefaultEventQueue = 256

	// DefaultIdentityAttr is the default identity attribute.
	DefaultIdentityAttr = "data-rx-id"

	// DefaultMetricsPath is the default metrics endpoint.
	DefaultMetricsPath = "/metrics"
)

// Duration is a time.Duration written as a Go duration string in JSON.
type Duration time.Duration

// D returns the duration as a time.Duration.
func (d Duration) D() time.Duration {
	return time.Duration(d)
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Config represents the complete bind.json configuration.
type Config struct {
	// Server contains HTTP and live session settings.
	Server ServerConfig `json:"server"`

	// Render contains reactive graph settings.
	Render RenderConfig `json:"render"`

	// Metrics contains Prometheus settings.
	Metrics MetricsConfig `json:"metrics"`

	// Publish contains S3 slot publishing settings.
	Publish PublishConfig `json:"publish"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains HTTP and live session settings.
type ServerConfig struct {
	// Host is the host to bind to.
	Host string `json:"host,omitempty"`

	// Port is the port to listen on.
	Port int `json:"port,omitempty"`

	// WSPath is the WebSocket endpoint for live sessions.
	WSPath string `json:"wsPath,omitempty"`

	// ReadTimeout closes sessions idle for longer than this.
	ReadTimeout Duration `json:"readTimeout,omitempty"`

	// WriteTimeout bounds each WebSocket write.
	WriteTimeout Duration `json:"writeTimeout,omitempty"`

	// MaxMessageSize is the largest client message accepted.
	MaxMessageSize int64 `json:"maxMessageSize,omitempty"`

	// EventQueue is the per-session task queue size.
	EventQueue int `json:"eventQueue,omitempty"`
}

// RenderConfig contains reactive graph settings.
type RenderConfig struct {
	// SlowRenderThreshold is the render latency reported as slow.
	SlowRenderThreshold Duration `json:"slowRenderThreshold,omitempty"`

	// SweepInterval is how often the identity registry is swept.
	SweepInterval Duration `json:"sweepInterval,omitempty"`

	// IdentityAttr is the attribute identity lists are written to.
	IdentityAttr string `json:"identityAttr,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled exposes the metrics endpoint.
	Enabled bool `json:"enabled"`

	// Namespace is the metrics namespace.
	Namespace string `json:"namespace,omitempty"`

	// Path is the metrics endpoint path.
	Path string `json:"path,omitempty"`
}

// PublishConfig contains S3 slot publishing settings.
type PublishConfig struct {
	// Bucket is the destination bucket. Empty disables publishing.
	Bucket string `json:"bucket,omitempty"`

	// Prefix is prepended to every object key.
	Prefix string `json:"prefix,omitempty"`

	// Region is the bucket region.
	Region string `json:"region,omitempty"`

	// Endpoint overrides the S3 endpoint, e.g. for MinIO.
	Endpoint string `json:"endpoint,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	c := &Config{Metrics: MetricsConfig{Enabled: true}}
	c.applyDefaults()
	return c
}

// Load reads configuration from the specified directory.
// It looks for bind.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("C002").
				WithDetail("No " + ConfigFileName + " found in " + filepath.Dir(path)).
				WithSuggestion("Create " + ConfigFileName + " or run without --config to use defaults")
		}
		return nil, errors.New("C002").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("C001").
			WithDetail("Failed to parse " + ConfigFileName + ": " + err.Error()).
			WithSuggestion("Check that " + ConfigFileName + " is valid JSON with duration strings such as \"16ms\"")
	}

	cfg.configPath = path
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("C001").Wrap(err)
	}

	// Add newline at end of file
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("C002").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	// Server
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.WSPath == "" {
		c.Server.WSPath = DefaultWSPath
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = Duration(60 * time.Second)
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = Duration(10 * time.Second)
	}
	if c.Server.MaxMessageSize == 0 {
		c.Server.MaxMessageSize = DefaultMaxMessageSize
	}
	if c.Server.EventQueue == 0 {
		c.Server.EventQueue = DefaultEventQueue
	}

	// Render
	if c.Render.SlowRenderThreshold == 0 {
		c.Render.SlowRenderThreshold = Duration(16 * time.Millisecond)
	}
	if c.Render.SweepInterval == 0 {
		c.Render.SweepInterval = Duration(30 * time.Second)
	}
	if c.Render.IdentityAttr == "" {
		c.Render.IdentityAttr = DefaultIdentityAttr
	}

	// Metrics
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "bind"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch {
	case c.Server.Port < 0 || c.Server.Port > 65535:
		return errors.New("C001").WithDetail("server.port must be between 0 and 65535")
	case !strings.HasPrefix(c.Server.WSPath, "/"):
		return errors.New("C001").WithDetail("server.wsPath must start with /")
	case !strings.HasPrefix(c.Metrics.Path, "/"):
		return errors.New("C001").WithDetail("metrics.path must start with /")
	case c.Metrics.Enabled && c.Metrics.Path == c.Server.WSPath:
		return errors.New("C001").WithDetail("metrics.path and server.wsPath must differ")
	case c.Server.MaxMessageSize < 0 || c.Server.EventQueue < 0:
		return errors.New("C001").WithDetail("server limits must not be negative")
	case c.Render.SweepInterval < 0 || c.Render.SlowRenderThreshold < 0:
		return errors.New("C001").WithDetail("render durations must not be negative")
	case strings.ContainsAny(c.Render.IdentityAttr, " \"'=<>/"):
		return errors.New("C001").WithDetailf("render.identityAttr %q is not a valid attribute name", c.Render.IdentityAttr)
	}
	return nil
}

// Address returns the listen address.
func (c *Config) Address() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

// URL returns the base URL of the server.
func (c *Config) URL() string {
	return "http://" + c.Address()
}

// PublishEnabled reports whether slot publishing is configured.
func (c *Config) PublishEnabled() bool {
	return c.Publish.Bucket != ""
}
