package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tannerhall/repowatch/internal/logging"
)

// Helper to create a temporary config file
func createTempConfigFile(t *testing.T, content string) string {
	tmpDir := t.TempDir()
	filePath := filepath.Join(tmpDir, "test_config.toml")
	err := os.WriteFile(filePath, []byte(content), 0600)
	require.NoError(t, err, "Failed to write temp config file")
	return filePath
}

// Helper to set environment variables for the duration of a test
func setEnvVar(t *testing.T, key, value string) {
	originalValue, exists := os.LookupEnv(key)
	err := os.Setenv(key, value)
	require.NoError(t, err)

	t.Cleanup(func() {
		if exists {
			os.Setenv(key, originalValue)
		} else {
			os.Unsetenv(key)
		}
	})
}

func TestSnapshot(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		os.Unsetenv("REPOWATCH_GLOBAL_TOKEN")
		os.Unsetenv("REPOWATCH_GLOBAL_INTERVAL")

		cfg, err := NewProvider("", logging.NewNop()).Snapshot()
		require.NoError(t, err)
		assert.NotNil(t, cfg)

		assert.True(t, cfg.Plugin.Enable)
		assert.Equal(t, "", cfg.Global.Token)
		assert.Equal(t, 60, cfg.Global.Interval)
		assert.True(t, cfg.Global.EnableCommentary)
		assert.Empty(t, cfg.Monitor.Repositories)
		assert.Empty(t, cfg.Monitor.Subscribers)
		assert.Equal(t, "https://api.github.com", cfg.GitHub.APIURL)
		assert.Equal(t, "none", cfg.History.Sink)
		assert.Equal(t, "INFO", cfg.LogLevel)
		assert.Equal(t, "text", cfg.LogFormat)
		assert.Equal(t, time.Minute, cfg.PollInterval())
	})

	t.Run("Load From File", func(t *testing.T) {
		content := `
		log_level = "DEBUG"
		log_format = "json"

		[plugin]
		enable = false

		[global]
		token = "ghp_testtoken"
		interval = 30
		enable_commentary = false

		[github]
		api_url = "https://github.example.com/api/v3"

		[[monitor.repositories]]
		owner = "torvalds"
		repo = "linux"

		[[monitor.repositories]]
		owner = "python"
		repo = "cpython"
		branch = "main"

		[[monitor.subscribers]]
		group_id = "12345678"

		[[monitor.subscribers]]
		group_id = "87654321"
		platform = "wechat"
		`
		configFile := createTempConfigFile(t, content)
		cfg, err := NewProvider(configFile, logging.NewNop()).Snapshot()
		require.NoError(t, err)

		assert.False(t, cfg.Plugin.Enable)
		assert.Equal(t, "ghp_testtoken", cfg.Global.Token)
		assert.Equal(t, 30, cfg.Global.Interval)
		assert.False(t, cfg.Global.EnableCommentary)
		assert.Equal(t, "https://github.example.com/api/v3", cfg.GitHub.APIURL)
		assert.Equal(t, "DEBUG", cfg.LogLevel)
		assert.Equal(t, "json", cfg.LogFormat)

		require.Len(t, cfg.Monitor.Repositories, 2)
		// Branch defaults to "master" when omitted.
		assert.Equal(t, Target{Owner: "torvalds", Repo: "linux", Branch: "master"}, cfg.Monitor.Repositories[0])
		assert.Equal(t, Target{Owner: "python", Repo: "cpython", Branch: "main"}, cfg.Monitor.Repositories[1])

		require.Len(t, cfg.Monitor.Subscribers, 2)
		// Platform defaults to "qq" when omitted.
		assert.Equal(t, Subscriber{GroupID: "12345678", Platform: "qq"}, cfg.Monitor.Subscribers[0])
		assert.Equal(t, Subscriber{GroupID: "87654321", Platform: "wechat"}, cfg.Monitor.Subscribers[1])
	})

	t.Run("Interval Clamped To Minimum", func(t *testing.T) {
		configFile := createTempConfigFile(t, `
		[global]
		interval = 3
		`)
		cfg, err := NewProvider(configFile, logging.NewNop()).Snapshot()
		require.NoError(t, err)

		assert.Equal(t, 10, cfg.Global.Interval)
		assert.Equal(t, MinInterval, cfg.PollInterval())
	})

	t.Run("Env Var Override", func(t *testing.T) {
		setEnvVar(t, "REPOWATCH_GLOBAL_TOKEN", "env-token")

		cfg, err := NewProvider("", logging.NewNop()).Snapshot()
		require.NoError(t, err)
		assert.Equal(t, "env-token", cfg.Global.Token)
	})

	t.Run("Hot Reload Between Snapshots", func(t *testing.T) {
		configFile := createTempConfigFile(t, `
		[global]
		interval = 30
		`)
		provider := NewProvider(configFile, logging.NewNop())

		cfg, err := provider.Snapshot()
		require.NoError(t, err)
		assert.Equal(t, 30, cfg.Global.Interval)

		err = os.WriteFile(configFile, []byte(`
		[global]
		interval = 45
		`), 0600)
		require.NoError(t, err)

		cfg, err = provider.Snapshot()
		require.NoError(t, err)
		assert.Equal(t, 45, cfg.Global.Interval)
	})

	t.Run("Invalid Log Level", func(t *testing.T) {
		configFile := createTempConfigFile(t, `log_level = "LOUD"`)
		_, err := NewProvider(configFile, logging.NewNop()).Snapshot()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "log_level")
	})

	t.Run("Invalid Log Format", func(t *testing.T) {
		configFile := createTempConfigFile(t, `log_format = "xml"`)
		_, err := NewProvider(configFile, logging.NewNop()).Snapshot()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "log_format")
	})

	t.Run("Invalid History Sink", func(t *testing.T) {
		configFile := createTempConfigFile(t, `
		[history]
		sink = "redis"
		`)
		_, err := NewProvider(configFile, logging.NewNop()).Snapshot()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "history.sink")
	})

	t.Run("SQL Sink Requires DSN", func(t *testing.T) {
		configFile := createTempConfigFile(t, `
		[history]
		sink = "sql"
		`)
		_, err := NewProvider(configFile, logging.NewNop()).Snapshot()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "history.dsn")
	})
}

func TestTarget(t *testing.T) {
	t.Run("Key", func(t *testing.T) {
		target := Target{Owner: "a", Repo: "b", Branch: "main"}
		assert.Equal(t, "a/b/main", target.Key())
	})

	t.Run("Validate", func(t *testing.T) {
		assert.NoError(t, Target{Owner: "a", Repo: "b", Branch: "main"}.Validate())
		assert.Error(t, Target{Repo: "b", Branch: "main"}.Validate())
		assert.Error(t, Target{Owner: "a", Branch: "main"}.Validate())
	})
}

func TestSubscriber(t *testing.T) {
	assert.NoError(t, Subscriber{GroupID: "123", Platform: "qq"}.Validate())
	assert.Error(t, Subscriber{Platform: "qq"}.Validate())
}
