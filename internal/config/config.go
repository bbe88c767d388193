package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Azure     AzureConfig     `yaml:"azure"`
	Server    ServerConfig    `yaml:"server"`
	Transport TransportConfig `yaml:"transport"`
	Log       LogConfig       `yaml:"log"`
	Audit     AuditConfig     `yaml:"audit"`
}

type AzureConfig struct {
	Organization string `yaml:"organization"`
	Project      string `yaml:"project"`
	Token        string `yaml:"token"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type TransportConfig struct {
	Mode string `yaml:"mode"` // "stdio" or "http"
}

type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

type AuditConfig struct {
	DBPath string `yaml:"db_path"`
}

// Load reads configuration from an optional YAML file and environment
// variables. Missing organization, project, or token is a startup
// error, not a per-call one.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8001,
		},
		Transport: TransportConfig{
			Mode: "stdio",
		},
		Log: LogConfig{
			Level: "info",
		},
		Audit: AuditConfig{
			DBPath: "boards-audit.db",
		},
	}

	if path := os.Getenv("BOARDS_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)

	if portStr := os.Getenv("BOARDS_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid BOARDS_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	// New naming first, then the legacy URL form with the service
	// prefix stripped.
	if org := os.Getenv("AZURE_DEVOPS_ORGANIZATION"); org != "" {
		cfg.Azure.Organization = org
	} else if orgURL := os.Getenv("AZURE_DEVOPS_ORGANIZATION_URL"); orgURL != "" {
		cfg.Azure.Organization = strings.TrimSuffix(
			strings.TrimPrefix(orgURL, "https://dev.azure.com/"), "/")
	}
	if project := os.Getenv("AZURE_DEVOPS_PROJECT"); project != "" {
		cfg.Azure.Project = project
	}
	if token := os.Getenv("AZURE_DEVOPS_TOKEN"); token != "" {
		cfg.Azure.Token = token
	} else if pat := os.Getenv("AZURE_DEVOPS_PAT"); pat != "" {
		cfg.Azure.Token = pat
	}

	if host := os.Getenv("BOARDS_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if mode := os.Getenv("BOARDS_TRANSPORT"); mode != "" {
		cfg.Transport.Mode = mode
	}
	if level := os.Getenv("BOARDS_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if logPath := os.Getenv("BOARDS_LOG_PATH"); logPath != "" {
		cfg.Log.Path = logPath
	}
	if dbPath := os.Getenv("BOARDS_AUDIT_DB_PATH"); dbPath != "" {
		cfg.Audit.DBPath = dbPath
	}
}

func (c Config) validate() error {
	var missing []string
	if c.Azure.Organization == "" {
		missing = append(missing, "AZURE_DEVOPS_ORGANIZATION or AZURE_DEVOPS_ORGANIZATION_URL")
	}
	if c.Azure.Project == "" {
		missing = append(missing, "AZURE_DEVOPS_PROJECT")
	}
	if c.Azure.Token == "" {
		missing = append(missing, "AZURE_DEVOPS_TOKEN or AZURE_DEVOPS_PAT")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	if c.Transport.Mode != "stdio" && c.Transport.Mode != "http" {
		return fmt.Errorf("invalid transport mode %q: must be stdio or http", c.Transport.Mode)
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
