package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config application configuration structure
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	NATS     NATSConfig     `yaml:"nats"`
	Auth     AuthConfig     `yaml:"auth"`
	Chain    ChainConfig    `yaml:"chain"`
	CORS     CORSConfig     `yaml:"cors"`
	Admin    AdminConfig    `yaml:"admin"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig server configuration
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig database configuration. An empty DSN selects the in-memory
// store/log/role registry (useful for local development and tests).
type DatabaseConfig struct {
	DSN    string `yaml:"dsn"`
	Driver string `yaml:"driver"`
}

// NATSConfig message broker configuration. Disabled when URL is empty.
type NATSConfig struct {
	URL           string `yaml:"url"`
	Timeout       int    `yaml:"timeout"`
	ReconnectWait int    `yaml:"reconnect_wait"`
	MaxReconnects int    `yaml:"max_reconnects"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

// AuthConfig JWT and admin TOTP configuration
type AuthConfig struct {
	JWTSecret       string `yaml:"jwtSecret"`
	TokenTTLHours   int    `yaml:"tokenTtlHours"`
	AdminTOTPSecret string `yaml:"adminTotpSecret"`
}

// ChainConfig system bootstrap parameters for the batch ledger
type ChainConfig struct {
	// Owner is the bootstrap owner account (hex address). The owner
	// implicitly holds the admin role and is the only path to granting it.
	Owner string `yaml:"owner"`
}

// CORSConfig CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowedOrigins"`
	AllowCredentials bool     `yaml:"allowCredentials"`
	MaxAge           int      `yaml:"maxAge"`
}

// AdminConfig admin API access control configuration
type AdminConfig struct {
	AllowedIPs []string `yaml:"allowedIPs"`
}

// LogConfig logging configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "text"
}

var AppConfig *Config

// LoadConfig loads the configuration file and applies env overrides.
func LoadConfig(configPath string) error {
	if configPath == "" {
		configPath = "config.yaml"
		if _, err := os.Stat("config.local.yaml"); err == nil {
			configPath = "config.local.yaml"
			log.Printf("🔧 Using local configuration file: config.local.yaml")
		}
	}

	config := defaultConfig()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		log.Printf("⚠️ Config file %s not found, using defaults + environment", configPath)
	} else {
		if err := yaml.Unmarshal(data, config); err != nil {
			return fmt.Errorf("failed to parse config file: %w", err)
		}
		log.Printf("✅ Loaded configuration from %s", configPath)
	}

	overrideFromEnv(config)

	if config.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwtSecret is required (or set JWT_SECRET)")
	}

	AppConfig = config
	return nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8080},
		NATS:   NATSConfig{Timeout: 5, ReconnectWait: 2, MaxReconnects: 10, SubjectPrefix: "pharma"},
		Auth:   AuthConfig{TokenTTLHours: 24},
		Log:    LogConfig{Level: "info", Format: "text"},
	}
}

// overrideFromEnv applies environment variable overrides.
func overrideFromEnv(config *Config) {
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		config.Database.DSN = dsn
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if natsURL := os.Getenv("NATS_URL"); natsURL != "" {
		config.NATS.URL = natsURL
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		config.Auth.JWTSecret = secret
	}
	if totp := os.Getenv("ADMIN_TOTP_SECRET"); totp != "" {
		config.Auth.AdminTOTPSecret = totp
	}
	if owner := os.Getenv("CHAIN_OWNER"); owner != "" {
		config.Chain.Owner = owner
	}
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		parts := strings.Split(origins, ",")
		config.CORS.AllowedOrigins = config.CORS.AllowedOrigins[:0]
		for _, o := range parts {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				config.CORS.AllowedOrigins = append(config.CORS.AllowedOrigins, trimmed)
			}
		}
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Log.Level = level
	}
}
