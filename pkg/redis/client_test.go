package redis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/SJParthi/IndianFutureBillionaire/pkg/errors"
	"github.com/SJParthi/IndianFutureBillionaire/pkg/logger"
)

func TestClient_ConnectValidation(t *testing.T) {
	testCases := []struct {
		name         string
		config       *Config
		expectedCode string
	}{
		{
			name:         "nil config",
			config:       nil,
			expectedCode: string(appErrors.RedisConfigError),
		},
		{
			name: "empty addresses",
			config: func() *Config {
				c := DefaultConfig()
				c.Addrs = nil
				return c
			}(),
			expectedCode: string(appErrors.RedisConfigError),
		},
		{
			name: "invalid connect timeout",
			config: func() *Config {
				c := DefaultConfig()
				c.ConnectTimeout = 0
				return c
			}(),
			expectedCode: string(appErrors.RedisConfigError),
		},
		{
			name: "invalid pool size",
			config: func() *Config {
				c := DefaultConfig()
				c.PoolSize = 0
				return c
			}(),
			expectedCode: string(appErrors.RedisConfigError),
		},
		{
			name: "unsupported mode",
			config: func() *Config {
				c := DefaultConfig()
				c.Mode = Mode("sentinel")
				return c
			}(),
			expectedCode: string(appErrors.RedisConnectionError),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			log, err := logger.NewLogger()
			require.NoError(t, err)

			c := NewClient(log, tc.config)
			err = c.Connect(context.Background())

			require.Error(t, err)
			assert.True(t, appErrors.ErrorCodeEquals(err, tc.expectedCode))
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, Standalone, cfg.Mode)
	assert.Equal(t, []string{"localhost:6379"}, cfg.Addrs)
	assert.Equal(t, "bars", cfg.BarChannel)
	assert.Positive(t, cfg.PoolSize)
}
