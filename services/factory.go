package services

import (
	"io"

	"event-wallboard/config"
)

// ServiceContainer holds all service instances
type ServiceContainer struct {
	Logger         *StructuredLogger
	MetricsService MetricsService
	Events         *EventStore
}

// ServiceFactory creates and configures all services
type ServiceFactory struct {
	config *config.Config
	output io.Writer
}

// NewServiceFactory creates a new service factory. Logs go to output, or
// stdout when output is nil.
func NewServiceFactory(cfg *config.Config, output io.Writer) *ServiceFactory {
	return &ServiceFactory{
		config: cfg,
		output: output,
	}
}

// CreateServices creates and wires all services together
func (f *ServiceFactory) CreateServices() *ServiceContainer {
	logger := NewLoggerFromConfig(&LoggerConfig{
		Level:  ParseLogLevel(f.config.Logging.Level),
		Format: ParseLogFormat(f.config.Logging.Format),
		Output: f.output,
	})

	var metricsService MetricsService
	if f.config.Performance.MetricsEnabled {
		metricsService = NewInMemoryMetrics()
	}

	return &ServiceContainer{
		Logger:         logger,
		MetricsService: metricsService,
		Events:         NewEventStore(),
	}
}
