package protocol

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/Tether/pkg/consts"
)

func TestDecodeFrame_AppInfo(t *testing.T) {
	f, err := DecodeFrame([]byte(`{"messageType":"appInfo","sessionKey":"k","state":1,"droneHealth":{"health":1,"batteryLevel":75},"droneState":1}`))
	require.NoError(t, err)

	assert.Equal(t, consts.MessageAppInfo, f.MessageType)
	assert.Equal(t, "k", f.SessionKey)
	require.NotNil(t, f.State)
	assert.Equal(t, 1, *f.State)
	require.NotNil(t, f.DroneHealth)
	assert.Equal(t, 75, f.DroneHealth.BatteryLevel)
	require.NotNil(t, f.DroneState)
	assert.Equal(t, 1, *f.DroneState)
}

func TestDecodeFrame_OptionalFieldsAbsent(t *testing.T) {
	f, err := DecodeFrame([]byte(`{"messageType":"appInfo","sessionKey":"k","state":0}`))
	require.NoError(t, err)
	assert.Nil(t, f.DroneHealth)
	assert.Nil(t, f.DroneState)
	require.NotNil(t, f.State)
	assert.Equal(t, 0, *f.State)

	_, err = DecodeFrame([]byte(`not json`))
	assert.Error(t, err)
}

func TestConfig_Defaults(t *testing.T) {
	cfg := &Config{Server: ServerConfig{BaseURL: "http://localhost:9000/"}}
	cfg.ApplyDefaults()

	assert.Equal(t, "http://localhost:9000", cfg.Server.BaseURL)
	assert.Equal(t, consts.DefaultCGIPrefix, cfg.Server.CGIPrefix)
	assert.Equal(t, consts.DefaultMaxRetry, cfg.Channel.MaxRetry)
	assert.Equal(t, time.Second, cfg.Channel.RetryIntervalDuration())
	assert.Equal(t, DefaultMessages().Retrying, cfg.Messages.Retrying)

	cfg.Channel.RetryInterval = "250ms"
	assert.Equal(t, 250*time.Millisecond, cfg.Channel.RetryIntervalDuration())
	cfg.Channel.RetryInterval = "-1s"
	assert.Equal(t, consts.DefaultRetryInterval, cfg.Channel.RetryIntervalDuration())
}

func TestConfig_MessageOverrideKept(t *testing.T) {
	cfg := &Config{Messages: Messages{Retrying: "再接続しています..."}}
	cfg.ApplyDefaults()
	assert.Equal(t, "再接続しています...", cfg.Messages.Retrying)
	assert.Equal(t, DefaultMessages().Unavailable, cfg.Messages.Unavailable)
}
