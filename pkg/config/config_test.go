package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromFlags(t *testing.T) {
	cfg, err := Load([]string{"--nickname", "alice", "--chat-id", "lobby", "--port", "5000", "--first-hello=false"})
	require.NoError(t, err)

	assert.Equal(t, "alice", cfg.Nickname)
	assert.Equal(t, "lobby", cfg.ChatID)
	assert.Equal(t, 5000, cfg.Port)
	assert.False(t, cfg.FirstHello)
	assert.Equal(t, "255.255.255.255", cfg.Broadcast)
	assert.Equal(t, "utf-8", cfg.Charset)
	assert.False(t, cfg.API.Enabled)
	assert.Equal(t, 100, cfg.API.RateLimit)
	assert.False(t, cfg.HistoryEnabled())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SMALLCHAT_NICKNAME", "bob")
	t.Setenv("SMALLCHAT_CHAT_ID", "office")
	t.Setenv("SMALLCHAT_API_PORT", "9090")
	t.Setenv("SMALLCHAT_HISTORY_PATH", "/tmp/history.db")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "bob", cfg.Nickname)
	assert.Equal(t, "office", cfg.ChatID)
	assert.Equal(t, 9090, cfg.API.Port)
	assert.True(t, cfg.HistoryEnabled())
}

func TestFlagsOverrideEnv(t *testing.T) {
	t.Setenv("SMALLCHAT_NICKNAME", "bob")

	cfg, err := Load([]string{"--nickname", "carol", "--chat-id", "lobby"})
	require.NoError(t, err)
	assert.Equal(t, "carol", cfg.Nickname)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "smallchat.yaml")
	content := `
nickname: dave
chat_id: lab
broadcast: 192.168.1.255
charset: ISO-8859-1
history:
  path: history.db
  passphrase: local
api:
  enabled: true
  port: 8181
  rate_limit: 10
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load([]string{"--config", path})
	require.NoError(t, err)

	assert.Equal(t, "dave", cfg.Nickname)
	assert.Equal(t, "lab", cfg.ChatID)
	assert.Equal(t, "ISO-8859-1", cfg.Charset)
	assert.Equal(t, "history.db", cfg.History.Path)
	assert.Equal(t, "local", cfg.History.Passphrase)
	assert.True(t, cfg.API.Enabled)
	assert.Equal(t, 8181, cfg.API.Port)
	assert.Equal(t, 10, cfg.API.RateLimit)

	addr, err := cfg.BroadcastAddr()
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.255", addr.String())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Nickname:  "alice",
			ChatID:    "lobby",
			Broadcast: "255.255.255.255",
			Port:      4412,
			Charset:   "utf-8",
		}
	}

	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"missing nickname", func(c *Config) { c.Nickname = "" }},
		{"missing chat id", func(c *Config) { c.ChatID = "" }},
		{"NUL in chat id", func(c *Config) { c.ChatID = "lob\x00by" }},
		{"port zero", func(c *Config) { c.Port = 0 }},
		{"port too large", func(c *Config) { c.Port = 70000 }},
		{"bad broadcast", func(c *Config) { c.Broadcast = "everyone" }},
		{"ipv6 broadcast", func(c *Config) { c.Broadcast = "ff02::1" }},
		{"unknown charset", func(c *Config) { c.Charset = "klingon-8" }},
		{"bad api port", func(c *Config) { c.API.Enabled = true; c.API.Port = -1 }},
	}

	require.NoError(t, valid().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.modify(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestLoadMissingRequired(t *testing.T) {
	_, err := Load([]string{"--chat-id", "lobby"})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadUnknownFlag(t *testing.T) {
	_, err := Load([]string{"--no-such-flag"})
	assert.Error(t, err)
}
