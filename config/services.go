package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeHTTP runs the HTTP gateway.
	ServiceModeHTTP ServiceMode = "http"
	// ServiceModeWorker runs the single export worker.
	ServiceModeWorker ServiceMode = "worker"
	// ServiceModeResync runs the periodic re-offer of stranded pending jobs.
	ServiceModeResync ServiceMode = "resync"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{
		ServiceModeHTTP,
		ServiceModeWorker,
		ServiceModeResync,
	}
}

// ParseServices parses a comma-delimited string of service names and returns the enabled services.
// It validates that all service names are valid and returns an error if any are invalid.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)

	if servicesStr == "" {
		return services, errors.New("at least one service must be specified")
	}

	parts := strings.Split(servicesStr, ",")
	for _, part := range parts {
		serviceName := strings.TrimSpace(part)
		if serviceName == "" {
			continue
		}

		mode := ServiceMode(serviceName)
		switch mode {
		case ServiceModeHTTP, ServiceModeWorker, ServiceModeResync:
			services[mode] = true
		default:
			return nil, fmt.Errorf(
				"invalid service name: %q (valid options: http, worker, resync)",
				serviceName,
			)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}

	return services, nil
}

// ResyncConfig contains configuration for the re-sync loop that re-offers
// pending jobs the intake queue dropped.
type ResyncConfig struct {
	// Enabled turns the loop on without listing it in SERVICES.
	Enabled bool `env:"RESYNC_ENABLED" envDefault:"false"`

	// Interval is the re-sync tick interval.
	Interval time.Duration `env:"RESYNC_INTERVAL" envDefault:"1m"`

	// MinAge is how long a record must have been pending before it is re-offered.
	MinAge time.Duration `env:"RESYNC_MIN_AGE" envDefault:"5m"`

	// BatchSize is the maximum number of records examined per tick.
	BatchSize int `env:"RESYNC_BATCH_SIZE" envDefault:"100"`
}

// Sanitize applies guardrails to re-sync configuration values.
func (r *ResyncConfig) Sanitize() {
	if r.Interval < 10*time.Second {
		r.Interval = 10 * time.Second
	}
	if r.MinAge < 0 {
		r.MinAge = 0
	}
	if r.BatchSize < 1 {
		r.BatchSize = 1
	}
	if r.BatchSize > 1000 {
		r.BatchSize = 1000
	}
}
