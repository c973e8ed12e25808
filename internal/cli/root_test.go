package cli

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/Tether/internal/simulator"
	"github.com/turtacn/Tether/pkg/consts"
	"github.com/turtacn/Tether/pkg/errors"
	"github.com/turtacn/Tether/pkg/logger"
	"github.com/turtacn/Tether/pkg/protocol"
)

func TestCommands(t *testing.T) {
	if rootCmd.Name() != "tether" {
		t.Errorf("Expected root command name tether, got %s", rootCmd.Name())
	}

	if len(rootCmd.Commands()) < 3 {
		t.Errorf("Expected at least 3 subcommands, got %d", len(rootCmd.Commands()))
	}
}

func resetFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		cfgFile, baseURL, accessKey, logLevel, sessionKey = "tether.yaml", "", "", "", ""
		rootCmd.PersistentFlags().Lookup("config").Changed = false
	})
}

func TestLoadConfig(t *testing.T) {
	resetFlags(t)
	path := filepath.Join(t.TempDir(), "tether.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  base_url: http://drone.local:9000/
  access_key: from-file
channel:
  retry_interval: 250ms
  max_retry: 3
messages:
  retrying: Reconnecting...
`), 0o600))

	require.NoError(t, rootCmd.PersistentFlags().Set("config", path))
	accessKey = "from-flag"

	cfg, err := loadConfig(runCmd)
	require.NoError(t, err)
	assert.Equal(t, "http://drone.local:9000", cfg.Server.BaseURL)
	assert.Equal(t, "from-flag", cfg.Server.AccessKey)
	assert.Equal(t, 250*time.Millisecond, cfg.Channel.RetryIntervalDuration())
	assert.Equal(t, 3, cfg.Channel.MaxRetry)
	assert.Equal(t, "Reconnecting...", cfg.Messages.Retrying)
	assert.Equal(t, protocol.DefaultMessages().Unavailable, cfg.Messages.Unavailable)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	resetFlags(t)
	cfgFile = filepath.Join(t.TempDir(), "absent.yaml")

	cfg, err := loadConfig(runCmd)
	require.NoError(t, err)
	assert.Equal(t, consts.DefaultMaxRetry, cfg.Channel.MaxRetry)

	require.NoError(t, rootCmd.PersistentFlags().Set("config", cfgFile))
	_, err = loadConfig(runCmd)
	assert.Equal(t, errors.ErrCodeConfigInvalid, errors.CodeOf(err))
}

func simulatedConfig(t *testing.T) (*protocol.Config, *simulator.Server) {
	t.Helper()
	sim := simulator.New(simulator.Options{AccessKey: "access", PushInterval: 20 * time.Millisecond, Logger: logger.Discard()})
	srv := httptest.NewServer(sim.Handler())
	t.Cleanup(srv.Close)

	cfg := protocol.Default()
	cfg.Server.BaseURL = srv.URL
	cfg.Server.AccessKey = "access"
	cfg.Channel.RetryInterval = "20ms"
	return cfg, sim
}

func TestSendCommand(t *testing.T) {
	resetFlags(t)
	cfg, _ := simulatedConfig(t)

	out, err := sendCommand(context.Background(), cfg, []string{"generate-key"})
	require.NoError(t, err)
	key := out.(*protocol.StartKeyBody).StartKey
	assert.NotEmpty(t, key)

	_, err = sendCommand(context.Background(), cfg, []string{"start"})
	assert.Error(t, err)
	_, err = sendCommand(context.Background(), cfg, []string{"start", key})
	require.NoError(t, err)

	out, err = sendCommand(context.Background(), cfg, []string{"states"})
	require.NoError(t, err)
	assert.Equal(t, 1, out.(*protocol.StatesResponse).ApplicationState)
	assert.Equal(t, key, out.(*protocol.StatesResponse).StartKey)

	_, err = sendCommand(context.Background(), cfg, []string{"bogus"})
	assert.Error(t, err)
}

func TestRunSession_QuitAndReload(t *testing.T) {
	cfg, sim := simulatedConfig(t)

	lines := make(chan string)
	var out bytes.Buffer
	done := make(chan bool, 1)
	go func() {
		reload, err := runSession(context.Background(), cfg, lines, &syncWriter{w: &out})
		assert.NoError(t, err)
		done <- reload
	}()

	// The simulator restart ends the session with a navigation.
	require.Eventually(t, func() bool { return sim.Connections() == 1 }, 2*time.Second, 10*time.Millisecond)
	sim.Restart()
	select {
	case reload := <-done:
		assert.True(t, reload)
	case <-time.After(3 * time.Second):
		t.Fatal("session did not reload")
	}

	go func() {
		reload, err := runSession(context.Background(), cfg, lines, &syncWriter{w: &out})
		assert.NoError(t, err)
		done <- reload
	}()
	require.Eventually(t, func() bool { return sim.Connections() == 1 }, 2*time.Second, 10*time.Millisecond)
	lines <- "generate"
	lines <- "quit"
	select {
	case reload := <-done:
		assert.False(t, reload)
	case <-time.After(3 * time.Second):
		t.Fatal("session did not quit")
	}
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
