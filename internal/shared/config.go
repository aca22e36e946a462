package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file and the environment.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Relay       RelayConfig       `toml:"relay"`
	Server      ServerConfig      `toml:"server"`
	HTTP        HTTPConfig        `toml:"http"`
	Database    DatabaseConfig    `toml:"database"`
	Log         LogConfig         `toml:"log"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
	YouTube YouTubeConfig `toml:"youtube"`
	Twilio  TwilioConfig  `toml:"twilio"`
}

// SpotifyConfig contains Spotify client-credentials settings.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	TokenURL     string `toml:"token_url"`
	APIURL       string `toml:"api_url"`
}

// Map returns the credentials in the form expected by the services constructors.
func (s SpotifyConfig) Map() map[string]string {
	return map[string]string{
		"client_id":     s.ClientID,
		"client_secret": s.ClientSecret,
		"token_url":     s.TokenURL,
		"api_url":       s.APIURL,
	}
}

// YouTubeConfig contains YouTube Data API credentials.
type YouTubeConfig struct {
	APIKey string `toml:"api_key"`
	APIURL string `toml:"api_url"`
}

// Map returns the credentials in the form expected by the services constructors.
func (y YouTubeConfig) Map() map[string]string {
	return map[string]string{
		"api_key": y.APIKey,
		"api_url": y.APIURL,
	}
}

// TwilioConfig contains Twilio account credentials and the sending number.
type TwilioConfig struct {
	AccountSID string `toml:"account_sid"`
	AuthToken  string `toml:"auth_token"`
	From       string `toml:"from"`
	APIURL     string `toml:"api_url"`
}

// Map returns the credentials in the form expected by the services constructors.
func (t TwilioConfig) Map() map[string]string {
	return map[string]string{
		"account_sid": t.AccountSID,
		"auth_token":  t.AuthToken,
		"from":        t.From,
		"api_url":     t.APIURL,
	}
}

// RelayConfig controls where resolved songs are forwarded.
type RelayConfig struct {
	Recipient     string `toml:"recipient"`
	RecipientName string `toml:"recipient_name"`
	ConfirmSender bool   `toml:"confirm_sender"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// HTTPConfig contains outbound HTTP client settings.
type HTTPConfig struct {
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// Timeout returns the outbound request timeout.
func (h HTTPConfig) Timeout() time.Duration {
	return time.Duration(h.TimeoutSeconds) * time.Second
}

// DatabaseConfig contains settings for the optional resolution cache.
//
// An empty path disables the cache. Entries older than TTLHours are looked up again; zero keeps them forever.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	TTLHours     int    `toml:"ttl_hours"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// TTL returns how long a cached resolution is served before it is resolved again.
func (d DatabaseConfig) TTL() time.Duration {
	return time.Duration(d.TTLHours) * time.Hour
}

// Enabled reports whether a database path is configured.
func (d DatabaseConfig) Enabled() bool {
	return strings.TrimSpace(d.Path) != ""
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level      string `toml:"level"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
}

// LookupFunc resolves an environment variable, matching [os.LookupEnv].
type LookupFunc func(key string) (string, bool)

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// Load builds the runtime configuration.
//
// Defaults come from the embedded example, then configPath (if it exists), then envFile (if it exists),
// then the process environment. Phone numbers are normalized before returning.
func Load(configPath, envFile string) (*Config, error) {
	config := DefaultConfig()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			loaded, err := LoadConfig(configPath)
			if err != nil {
				return nil, err
			}
			config = loaded
		}
	}

	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, fmt.Errorf("%w: failed to load %s: %v", ErrInvalidConfig, envFile, err)
			}
		}
	}

	if err := config.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	config.Normalize()
	return config, nil
}

// ApplyEnv overrides configuration values with environment variables that are set.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	str := func(dst *string, keys ...string) {
		for _, key := range keys {
			if v, ok := lookup(key); ok && v != "" {
				*dst = v
				return
			}
		}
	}

	str(&c.Credentials.Spotify.ClientID, "SPOTIFY_CLIENT_ID")
	str(&c.Credentials.Spotify.ClientSecret, "SPOTIFY_CLIENT_SECRET")
	str(&c.Credentials.Spotify.TokenURL, "SPOTIFY_TOKEN_URL")
	str(&c.Credentials.Spotify.APIURL, "SPOTIFY_API_URL")
	str(&c.Credentials.YouTube.APIKey, "YOUTUBE_API_KEY")
	str(&c.Credentials.YouTube.APIURL, "YOUTUBE_API_URL")
	str(&c.Credentials.Twilio.AccountSID, "TWILIO_ACCOUNT_SID")
	str(&c.Credentials.Twilio.AuthToken, "TWILIO_AUTH_TOKEN")
	str(&c.Credentials.Twilio.From, "TWILIO_PHONE_NUMBER")
	str(&c.Credentials.Twilio.APIURL, "TWILIO_API_URL")
	str(&c.Relay.Recipient, "RECIPIENT_PHONE", "CHRIS_PHONE")
	str(&c.Relay.RecipientName, "RECIPIENT_NAME")
	str(&c.Server.Host, "HOST")
	str(&c.Database.Path, "DATABASE_PATH")
	str(&c.Log.Level, "LOG_LEVEL")
	str(&c.Log.File, "LOG_FILE")

	var errs []error
	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			errs = append(errs, fmt.Errorf("%w: PORT=%q", ErrInvalidConfig, v))
		} else {
			c.Server.Port = port
		}
	}
	if v, ok := lookup("HTTP_TIMEOUT_SECONDS"); ok && v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			errs = append(errs, fmt.Errorf("%w: HTTP_TIMEOUT_SECONDS=%q", ErrInvalidConfig, v))
		} else {
			c.HTTP.TimeoutSeconds = secs
		}
	}
	if v, ok := lookup("DATABASE_TTL_HOURS"); ok && v != "" {
		hours, err := strconv.Atoi(v)
		if err != nil || hours < 0 {
			errs = append(errs, fmt.Errorf("%w: DATABASE_TTL_HOURS=%q", ErrInvalidConfig, v))
		} else {
			c.Database.TTLHours = hours
		}
	}
	if v, ok := lookup("CONFIRM_SENDER"); ok && v != "" {
		confirm, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: CONFIRM_SENDER=%q", ErrInvalidConfig, v))
		} else {
			c.Relay.ConfirmSender = confirm
		}
	}

	return errors.Join(errs...)
}

// Normalize cleans phone numbers and fills zero values with defaults.
func (c *Config) Normalize() {
	c.Credentials.Twilio.From = CleanPhoneNumber(c.Credentials.Twilio.From)
	c.Relay.Recipient = CleanPhoneNumber(c.Relay.Recipient)

	if c.Server.Port == 0 {
		c.Server.Port = 3000
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		c.HTTP.TimeoutSeconds = 10
	}
	if c.Database.TTLHours < 0 {
		c.Database.TTLHours = 0
	}
	if c.Relay.RecipientName == "" {
		c.Relay.RecipientName = "Casey"
	}
}

// Validate reports every credential the relay server needs but does not have.
func (c *Config) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"credentials.spotify.client_id", c.Credentials.Spotify.ClientID},
		{"credentials.spotify.client_secret", c.Credentials.Spotify.ClientSecret},
		{"credentials.youtube.api_key", c.Credentials.YouTube.APIKey},
		{"credentials.twilio.account_sid", c.Credentials.Twilio.AccountSID},
		{"credentials.twilio.auth_token", c.Credentials.Twilio.AuthToken},
		{"credentials.twilio.from", c.Credentials.Twilio.From},
		{"relay.recipient", c.Relay.Recipient},
	}

	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}
	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
