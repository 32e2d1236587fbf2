package daemon

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/frappe-dwf/mock-webhook/internal/common/constants"
	"github.com/frappe-dwf/mock-webhook/internal/config"
)

type (
	AppConfig = appConfig
)

// Config returns the configuration of the app.
func (a *App) Config() AppConfig {
	return a.config
}

// NewForTests creates a new App instance for testing purposes.
func NewForTests(t *testing.T, conf *AppConfig, args ...string) *App {
	t.Helper()

	p := GenerateTestConfig(t, conf)
	argsWithConf := []string{"--config", p}
	argsWithConf = append(argsWithConf, args...)

	a, err := New()
	require.NoError(t, err, "Setup: failed to create app")
	a.cmd.SetArgs(argsWithConf)
	return a
}

// GenerateTestDynamicConfig generates a temporary dynamic configuration file for testing.
func GenerateTestDynamicConfig(t *testing.T, conf *config.Conf) string {
	t.Helper()

	d, err := json.Marshal(conf)
	require.NoError(t, err, "Setup: failed to marshal dynamic config for tests")
	confPath := filepath.Join(t.TempDir(), "dynamic-config-test.json")
	require.NoError(t, os.WriteFile(confPath, d, 0600), "Setup: failed to write dynamic config for tests")

	return confPath
}

// GenerateTestConfig generates a temporary config file for testing.
func GenerateTestConfig(t *testing.T, origConf *AppConfig) string {
	t.Helper()

	var conf appConfig

	if origConf != nil {
		conf = *origConf
	}

	if conf.Verbosity == 0 {
		conf.Verbosity = 2
	}

	if conf.Daemon.StoreDir == "" {
		conf.Daemon.StoreDir = filepath.Join(t.TempDir(), constants.DefaultPayloadsFolder)
	}

	if conf.Daemon.ReadTimeout == 0 {
		conf.Daemon.ReadTimeout = 5 * time.Second
	}
	if conf.Daemon.WriteTimeout == 0 {
		conf.Daemon.WriteTimeout = 10 * time.Second
	}
	if conf.Daemon.RequestTimeout == 0 {
		conf.Daemon.RequestTimeout = 3 * time.Second
	}
	if conf.Daemon.MaxHeaderBytes == 0 {
		conf.Daemon.MaxHeaderBytes = 1 << 13
	}
	if conf.Daemon.MaxUploadBytes == 0 {
		conf.Daemon.MaxUploadBytes = 1 << 17
	}

	d, err := yaml.Marshal(conf)
	require.NoError(t, err, "Setup: failed to marshal config for tests")

	confPath := filepath.Join(t.TempDir(), "testconfig.yaml")
	require.NoError(t, os.WriteFile(confPath, d, 0600), "Setup: failed to write config for tests")

	return confPath
}

// SetArgs set some arguments on root command for tests.
func (a *App) SetArgs(args ...string) {
	a.cmd.SetArgs(args)
}

// SetSilenceUsage set the SilenceUsage flag on root command for tests.
func (a *App) SetSilenceUsage(silence bool) {
	a.cmd.SilenceUsage = silence
}
