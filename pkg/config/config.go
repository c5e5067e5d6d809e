package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Server struct {
	ListenAddress  string   `yaml:"listenAddress"`
	TrustedProxies []string `yaml:"trustedProxies"` // IPs/CIDRs to trust for X-Forwarded-For headers
}

type Site struct {
	// BaseURL is the public base URL interpolated into action links inside
	// rendered mail content, e.g. "https://communityforge.org".
	BaseURL string `yaml:"baseURL"`
	// BrandingName is the product name used as sender name and subject prefix
	// for admin-facing mail.
	BrandingName string `yaml:"brandingName"`
}

type Mail struct {
	// AdminEmail is the default recipient for admin-facing notification kinds
	// when the request payload carries no admin address.
	AdminEmail string `yaml:"adminEmail"`
	// VerifyTimeoutSeconds bounds the SMTP dial/greeting handshake.
	VerifyTimeoutSeconds int `yaml:"verifyTimeoutSeconds"`
	// SendTimeoutSeconds bounds a single message transmission.
	SendTimeoutSeconds int `yaml:"sendTimeoutSeconds"`
}

type Config struct {
	Server Server `yaml:"server"`
	Site   Site   `yaml:"site"`
	Mail   Mail   `yaml:"mail"`
}

// Load loads the notify service configuration from a YAML file path.
// If configPath is empty, defaults to "./config.yaml"; a missing file is not an
// error since every setting has a declared default and credentials come from the
// environment anyway. A local .env file is loaded first so development
// deployments can keep credentials out of the shell profile.
func Load(configPath ...string) (Config, error) {
	_ = godotenv.Load()

	path := "./config.yaml"
	if len(configPath) > 0 && configPath[0] != "" {
		path = configPath[0]
	}

	var config Config

	content, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(content, &config); err != nil {
			return config, fmt.Errorf("error unmarshaling YAML %s: %v", path, err)
		}
	} else if !os.IsNotExist(err) {
		return config, fmt.Errorf("trying to open notify config file %s: %v", path, err)
	}

	applyEnvOverrides(&config)
	applyDefaults(&config)
	return config, nil
}

// applyEnvOverrides lets the deployment environment override file settings.
// These are the documented configuration keys, not incidental literals.
func applyEnvOverrides(c *Config) {
	if v := os.Getenv("LISTEN_ADDRESS"); v != "" {
		c.Server.ListenAddress = v
	}
	if v := os.Getenv("PUBLIC_BASE_URL"); v != "" {
		c.Site.BaseURL = v
	}
	if v := os.Getenv("BRANDING_NAME"); v != "" {
		c.Site.BrandingName = v
	}
	if v := os.Getenv("ADMIN_EMAIL"); v != "" {
		c.Mail.AdminEmail = v
	}
}

func applyDefaults(c *Config) {
	if c.Server.ListenAddress == "" {
		c.Server.ListenAddress = ":8080"
	}
	if c.Site.BaseURL == "" {
		c.Site.BaseURL = "https://communityforge.org"
	}
	if c.Site.BrandingName == "" {
		c.Site.BrandingName = "CommunityForge"
	}
	if c.Mail.VerifyTimeoutSeconds <= 0 {
		c.Mail.VerifyTimeoutSeconds = 10
	}
	if c.Mail.SendTimeoutSeconds <= 0 {
		c.Mail.SendTimeoutSeconds = 30
	}
}

// VerifyTimeout returns the configured SMTP handshake timeout.
func (c Config) VerifyTimeout() time.Duration {
	return time.Duration(c.Mail.VerifyTimeoutSeconds) * time.Second
}

// SendTimeout returns the configured message transmission timeout.
func (c Config) SendTimeout() time.Duration {
	return time.Duration(c.Mail.SendTimeoutSeconds) * time.Second
}
