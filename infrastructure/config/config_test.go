package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ServerAddress)
	assert.Equal(t, BackendNone, cfg.SyncBackend)
	assert.Equal(t, 10*time.Second, cfg.SyncTimeout)
	assert.Equal(t, 0, cfg.SyncRetries)
	assert.Equal(t, "lista-compras", cfg.SyncListID)
	assert.False(t, cfg.RemoteEnabled())
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Setenv("SYNC_BACKEND", "http")
	t.Setenv("SYNC_HTTP_ENDPOINT", "http://sync.example.com:8090")
	t.Setenv("SYNC_TIMEOUT_MS", "2500")
	t.Setenv("SYNC_RETRIES", "3")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, BackendHTTP, cfg.SyncBackend)
	assert.Equal(t, 2500*time.Millisecond, cfg.SyncTimeout)
	assert.Equal(t, 3, cfg.SyncRetries)
	assert.True(t, cfg.RemoteEnabled())
}

func TestLoadConfig_RejectsBadValues(t *testing.T) {
	t.Setenv("SYNC_BACKEND", "carrier-pigeon")
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_RejectsNegativeRetries(t *testing.T) {
	t.Setenv("SYNC_RETRIES", "-1")
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestRemoteEnabled(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		enabled bool
	}{
		{"no backend", Config{SyncBackend: BackendNone}, false},
		{"dynamo with table", Config{SyncBackend: BackendDynamo, DynamoDBTable: "lista-compras"}, true},
		{"dynamo without table", Config{SyncBackend: BackendDynamo}, false},
		{"http with endpoint", Config{SyncBackend: BackendHTTP, SyncHTTPEndpoint: "http://localhost:8090"}, true},
		{"http without endpoint", Config{SyncBackend: BackendHTTP}, false},
		{"http with placeholder endpoint", Config{SyncBackend: BackendHTTP, SyncHTTPEndpoint: "https://demo.invalid"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.enabled, tt.cfg.RemoteEnabled())
		})
	}
}
