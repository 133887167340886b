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
	// ServiceModeHTTP runs the HTTP server.
	ServiceModeHTTP ServiceMode = "http"
	// ServiceModeWorker runs the extraction worker.
	ServiceModeWorker ServiceMode = "worker"
	// ServiceModeScheduler runs the auto-refresh scheduler.
	ServiceModeScheduler ServiceMode = "scheduler"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{ServiceModeHTTP, ServiceModeWorker, ServiceModeScheduler}
}

// ParseServices parses a comma-delimited string of service names and returns the enabled services.
// It validates that all service names are valid and returns an error if any are invalid.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)

	if servicesStr == "" {
		return services, errors.New("at least one service must be specified")
	}

	for _, part := range strings.Split(servicesStr, ",") {
		serviceName := strings.TrimSpace(part)
		if serviceName == "" {
			continue
		}

		mode := ServiceMode(serviceName)
		switch mode {
		case ServiceModeHTTP, ServiceModeWorker, ServiceModeScheduler:
			services[mode] = true
		default:
			return nil, fmt.Errorf(
				"invalid service name: %q (valid options: http, worker, scheduler)",
				serviceName,
			)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}

	return services, nil
}

// WorkerConfig contains extraction worker configuration.
type WorkerConfig struct {
	// Name identifies this worker in the registry. Empty means a generated
	// hostname-based name.
	Name string `env:"WORKER_NAME" envDefault:""`

	// JobLease is the duration to lease a posts job.
	JobLease time.Duration `env:"WORKER_JOB_LEASE" envDefault:"1m"`

	// PollInterval is the idle backoff between reserve attempts.
	PollInterval time.Duration `env:"WORKER_POLL_INTERVAL" envDefault:"2s"`

	// HeartbeatTTL is the registry key TTL; the worker refreshes at a third
	// of this interval.
	HeartbeatTTL time.Duration `env:"WORKER_HEARTBEAT_TTL" envDefault:"30s"`

	// MaxPages caps how many posts pages one job walks.
	MaxPages int `env:"WORKER_MAX_PAGES" envDefault:"50"`

	// SitesFile points at the JSON file holding per-site extraction configs.
	SitesFile string `env:"WORKER_SITES_FILE" envDefault:"sites.json"`
}

// Sanitize applies guardrails to worker configuration values.
func (w *WorkerConfig) Sanitize() {
	if w.JobLease < 5*time.Second {
		w.JobLease = 5 * time.Second
	}
	if w.PollInterval < 100*time.Millisecond {
		w.PollInterval = 100 * time.Millisecond
	}
	if w.HeartbeatTTL < 5*time.Second {
		w.HeartbeatTTL = 5 * time.Second
	}
	if w.MaxPages < 1 {
		w.MaxPages = 1
	}
}

// SchedulerConfig contains auto-refresh scheduler configuration.
type SchedulerConfig struct {
	// Cron is the standard 5-field cron expression for the refresh sweep.
	Cron string `env:"SCHEDULER_CRON" envDefault:"0 */6 * * *"`
}

// Sanitize applies guardrails to scheduler configuration values.
func (s *SchedulerConfig) Sanitize() {
	s.Cron = strings.TrimSpace(s.Cron)
}
