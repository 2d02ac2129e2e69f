package services

import (
	"bytes"
	"testing"

	"event-wallboard/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceFactory_CreateServices(t *testing.T) {
	cfg := &config.Config{
		Logging:     config.LoggingConfig{Level: "debug", Format: "text"},
		Performance: config.PerformanceConfig{MetricsEnabled: true},
	}
	var buf bytes.Buffer

	container := NewServiceFactory(cfg, &buf).CreateServices()

	require.NotNil(t, container.Logger)
	assert.Equal(t, LogLevelDebug, container.Logger.Level())
	require.NotNil(t, container.MetricsService)
	require.NotNil(t, container.Events)
	assert.Equal(t, 0, container.Events.Len())

	container.Logger.Debug("hello", String("k", "v"))
	assert.Contains(t, buf.String(), "DEBUG hello k=v")
}

func TestServiceFactory_MetricsDisabled(t *testing.T) {
	cfg := &config.Config{
		Logging: config.LoggingConfig{Level: "info", Format: "json"},
	}

	container := NewServiceFactory(cfg, &bytes.Buffer{}).CreateServices()

	assert.Nil(t, container.MetricsService)
	assert.NotNil(t, container.Events)
}
