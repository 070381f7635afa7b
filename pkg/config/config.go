// Package config loads the node configuration from defaults, an optional
// smallchat.yaml file, SMALLCHAT_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/smallchat/smallchat-node/pkg/protocol"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// EnvPrefix is prepended to every environment variable (SMALLCHAT_NICKNAME, SMALLCHAT_API_PORT, ...)
const EnvPrefix = "SMALLCHAT"

// Config is the node configuration
type Config struct {
	Nickname   string        `mapstructure:"nickname"`
	ChatID     string        `mapstructure:"chat_id"`
	Passphrase string        `mapstructure:"passphrase"`
	Broadcast  string        `mapstructure:"broadcast"`
	Port       int           `mapstructure:"port"`
	FirstHello bool          `mapstructure:"first_hello"`
	Charset    string        `mapstructure:"charset"`
	History    HistoryConfig `mapstructure:"history"`
	API        APIConfig     `mapstructure:"api"`
}

// HistoryConfig configures the local chat history
type HistoryConfig struct {
	// Path of the SQLite file; empty disables history
	Path       string `mapstructure:"path"`
	Passphrase string `mapstructure:"passphrase"`
}

// APIConfig configures the HTTP control API
type APIConfig struct {
	Enabled   bool `mapstructure:"enabled"`
	Port      int  `mapstructure:"port"`
	CORS      bool `mapstructure:"cors"`
	RateLimit int  `mapstructure:"rate_limit"` // Requests per minute
}

// Load builds the configuration from args (without the program name)
func Load(args []string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("smallchat")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.smallchat")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	flags := newFlagSet()
	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if err := bindFlags(v, flags); err != nil {
		return nil, err
	}

	if path, _ := flags.GetString("config"); path != "" {
		v.SetConfigFile(path)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("nickname", "")
	v.SetDefault("chat_id", "")
	v.SetDefault("passphrase", "")
	v.SetDefault("broadcast", "255.255.255.255")
	v.SetDefault("port", protocol.DefaultPort)
	v.SetDefault("first_hello", true)
	v.SetDefault("charset", protocol.DefaultCharset)

	v.SetDefault("history.path", "")
	v.SetDefault("history.passphrase", "")

	v.SetDefault("api.enabled", false)
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors", true)
	v.SetDefault("api.rate_limit", 100)
}

func newFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("smallchat-node", pflag.ContinueOnError)

	flags.String("config", "", "Path to config file")
	flags.String("nickname", "", "Your nickname in the room (required)")
	flags.String("chat-id", "", "Chat room identifier (required)")
	flags.String("passphrase", "", "Shared room passphrase")
	flags.String("broadcast", "255.255.255.255", "Broadcast address for Hello and broadcast messages")
	flags.Int("port", protocol.DefaultPort, "UDP port")
	flags.Bool("first-hello", true, "Broadcast a Hello on startup")
	flags.String("charset", protocol.DefaultCharset, "Charset for outgoing text")
	flags.String("history", "", "Path of the history database (empty disables history)")
	flags.String("history-passphrase", "", "Passphrase encrypting the history")
	flags.Bool("api", false, "Enable the HTTP control API")
	flags.Int("api-port", 8080, "HTTP control API port")

	return flags
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	bindings := map[string]string{
		"nickname":           "nickname",
		"chat_id":            "chat-id",
		"passphrase":         "passphrase",
		"broadcast":          "broadcast",
		"port":               "port",
		"first_hello":        "first-hello",
		"charset":            "charset",
		"history.path":       "history",
		"history.passphrase": "history-passphrase",
		"api.enabled":        "api",
		"api.port":           "api-port",
	}

	for key, name := range bindings {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}

// Validate checks required fields and ranges
func (c *Config) Validate() error {
	if c.Nickname == "" {
		return fmt.Errorf("%w: nickname is required (use --nickname or %s_NICKNAME)", ErrInvalidConfig, EnvPrefix)
	}
	if c.ChatID == "" {
		return fmt.Errorf("%w: chat_id is required (use --chat-id or %s_CHAT_ID)", ErrInvalidConfig, EnvPrefix)
	}
	if strings.IndexByte(c.ChatID, 0) >= 0 {
		return fmt.Errorf("%w: chat_id must not contain NUL bytes", ErrInvalidConfig)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	}
	if _, err := c.BroadcastAddr(); err != nil {
		return err
	}
	if _, err := protocol.LookupCharset(c.Charset); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		return fmt.Errorf("%w: api port %d out of range", ErrInvalidConfig, c.API.Port)
	}
	return nil
}

// BroadcastAddr parses the broadcast address
func (c *Config) BroadcastAddr() (netip.Addr, error) {
	addr, err := netip.ParseAddr(c.Broadcast)
	if err != nil || !addr.Is4() {
		return netip.Addr{}, fmt.Errorf("%w: broadcast %q is not an IPv4 address", ErrInvalidConfig, c.Broadcast)
	}
	return addr, nil
}

// HistoryEnabled reports whether a history database is configured
func (c *Config) HistoryEnabled() bool {
	return c.History.Path != ""
}
