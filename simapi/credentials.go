package simapi

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Credentials locate and authenticate against a simulation API instance.
// A zero Port means the URL carries its own port (or the scheme default).
type Credentials struct {
	URL  string `mapstructure:"url"`
	Port int    `mapstructure:"port"`
	Key  string `mapstructure:"key"`
}

// BaseURL returns the root endpoint the client dials.
func (c Credentials) BaseURL() string {
	u := strings.TrimRight(c.URL, "/")
	if c.Port > 0 {
		return fmt.Sprintf("%s:%d", u, c.Port)
	}
	return u
}

// IsLocal reports whether the credentials point at a locally hosted API,
// which does not require an access key.
func (c Credentials) IsLocal() bool {
	return strings.Contains(c.URL, "localhost") || strings.Contains(c.URL, "127.0.0.1")
}

// Validate checks that the credentials are usable before dialing.
func (c Credentials) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("credentials: missing API URL")
	}
	if !strings.HasPrefix(c.URL, "http://") && !strings.HasPrefix(c.URL, "https://") {
		return fmt.Errorf("credentials: URL %q must include an http or https scheme", c.URL)
	}
	if c.Key == "" && !c.IsLocal() {
		return fmt.Errorf("credentials: an access key is required for a non-local API")
	}
	return nil
}

// LoadCredentials resolves credentials from a mission-api config file
// (current directory or ~/.config/mission-scenarios) overridden by
// MISSION_API_URL, MISSION_API_PORT, and MISSION_API_KEY environment
// variables. Defaults target a local API instance.
func LoadCredentials() (Credentials, error) {
	v := viper.New()
	v.SetConfigName("mission-api")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/mission-scenarios")

	v.SetDefault("url", "http://localhost")
	v.SetDefault("port", 5001)
	v.SetDefault("key", "")

	v.SetEnvPrefix("MISSION_API")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// Missing file is fine; env vars and defaults still apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Credentials{}, fmt.Errorf("credentials: read config: %w", err)
		}
	}

	var creds Credentials
	if err := v.Unmarshal(&creds); err != nil {
		return Credentials{}, fmt.Errorf("credentials: parse config: %w", err)
	}
	if err := creds.Validate(); err != nil {
		return Credentials{}, err
	}
	return creds, nil
}
