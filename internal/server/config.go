package server

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

const (
	DefaultAddress  = "0.0.0.0"
	DefaultPort     = 8080
	DefaultLogLevel = "info"
	DefaultDSN      = "sqlite://database/blackjack_data.db"
	DefaultStrategy = "basic_strategy"
	DefaultCertFile = "certs/cert.pem"
	DefaultKeyFile  = "certs/key.pem"
)

// Config represents the complete advisor configuration
type Config struct {
	Server   *ServerSettings   `hcl:"server,block"`
	Store    *StoreSettings    `hcl:"store,block"`
	Strategy *StrategySettings `hcl:"strategy,block"`
}

// ServerSettings contains listener and logging configuration
type ServerSettings struct {
	Address           string       `hcl:"address,optional"`
	Port              int          `hcl:"port,optional"`
	LogLevel          string       `hcl:"log_level,optional"`
	LegacyActionNames bool         `hcl:"legacy_action_names,optional"`
	TLS               *TLSSettings `hcl:"tls,block"`
}

// TLSSettings names the certificate pair served over HTTPS
type TLSSettings struct {
	CertFile string `hcl:"cert_file,optional"`
	KeyFile  string `hcl:"key_file,optional"`
}

// StoreSettings selects the recording database
type StoreSettings struct {
	DSN string `hcl:"dsn,optional"`
}

// StrategySettings selects the strategy used when a request names none
type StrategySettings struct {
	Default string `hcl:"default,optional"`
}

// DefaultConfig returns the configuration used when no file is present
func DefaultConfig() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// LoadConfig loads configuration from an HCL file. A missing file yields the
// defaults.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Server == nil {
		c.Server = &ServerSettings{}
	}
	if c.Server.Address == "" {
		c.Server.Address = DefaultAddress
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = DefaultLogLevel
	}
	if c.Server.TLS == nil {
		c.Server.TLS = &TLSSettings{}
	}
	if c.Server.TLS.CertFile == "" {
		c.Server.TLS.CertFile = DefaultCertFile
	}
	if c.Server.TLS.KeyFile == "" {
		c.Server.TLS.KeyFile = DefaultKeyFile
	}

	if c.Store == nil {
		c.Store = &StoreSettings{}
	}
	if c.Store.DSN == "" {
		c.Store.DSN = DefaultDSN
	}

	if c.Strategy == nil {
		c.Strategy = &StrategySettings{}
	}
	if c.Strategy.Default == "" {
		c.Strategy.Default = DefaultStrategy
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	switch strings.ToLower(c.Server.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Server.LogLevel)
	}

	if strings.TrimSpace(c.Store.DSN) == "" {
		return fmt.Errorf("store dsn must be set")
	}

	if strings.TrimSpace(c.Strategy.Default) == "" {
		return fmt.Errorf("default strategy must be set")
	}

	return nil
}

// GetServerAddress returns the full listen address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// TLSFiles returns the certificate and key paths when both exist on disk
func (c *Config) TLSFiles() (certFile, keyFile string, ok bool) {
	certFile, keyFile = c.Server.TLS.CertFile, c.Server.TLS.KeyFile
	if _, err := os.Stat(certFile); err != nil {
		return certFile, keyFile, false
	}
	if _, err := os.Stat(keyFile); err != nil {
		return certFile, keyFile, false
	}
	return certFile, keyFile, true
}
