// Package config loads the herd controller's process configuration from
// environment variables, following the teacher's convention of os.Getenv
// plus manual parsing in the command's Run method (see
// cmd/herd-controller/main.go) rather than a generated flags struct.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is the immutable process configuration loaded once at startup.
type Config struct {
	// RancherURL is the base URL of the Rancher management API, e.g.
	// "https://rancher.example.com".
	RancherURL string
	// RancherToken authenticates against the Rancher management API.
	RancherToken string
	// RancherVerifySSL controls TLS certificate verification when talking
	// to RancherURL. Defaults to true.
	RancherVerifySSL bool
	// RancherTimeout bounds a single Rancher API call.
	RancherTimeout time.Duration

	// WorkerCount is the MaxConcurrentReconciles passed to each reconciler.
	WorkerCount int
	// ResyncInterval is the controller-runtime manager's periodic resync
	// period; it also bounds the healthz "last reconcile" staleness check
	// (2x this value).
	ResyncInterval time.Duration

	// MetricsBindAddress and HealthProbeBindAddress are passed straight
	// into ctrl.Options.
	MetricsBindAddress     string
	HealthProbeBindAddress string
}

const (
	defaultRancherTimeout = 30 * time.Second
	defaultWorkerCount    = 4
	defaultResyncInterval = 10 * time.Minute
	// defaultHealthzBindAddr is fixed at :8080 per the health endpoint
	// contract; metrics moves to :8081, the address the teacher's own
	// gitops/helmops operators bind metrics to.
	defaultMetricsBindAddr = ":8081"
	defaultHealthzBindAddr = ":8080"
)

// Load reads the configuration from the process environment. RANCHER_URL
// and RANCHER_TOKEN are required; every other variable has a documented
// default.
func Load() (Config, error) {
	cfg := Config{
		RancherURL:             os.Getenv("RANCHER_URL"),
		RancherToken:           os.Getenv("RANCHER_TOKEN"),
		RancherVerifySSL:       true,
		RancherTimeout:         defaultRancherTimeout,
		WorkerCount:            defaultWorkerCount,
		ResyncInterval:         defaultResyncInterval,
		MetricsBindAddress:     defaultMetricsBindAddr,
		HealthProbeBindAddress: defaultHealthzBindAddr,
	}

	if cfg.RancherURL == "" {
		return Config{}, fmt.Errorf("herd: RANCHER_URL is required")
	}
	if cfg.RancherToken == "" {
		return Config{}, fmt.Errorf("herd: RANCHER_TOKEN is required")
	}

	if v := os.Getenv("RANCHER_VERIFY_SSL"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("herd: invalid RANCHER_VERIFY_SSL %q: %w", v, err)
		}
		cfg.RancherVerifySSL = b
	}

	if v := os.Getenv("RANCHER_TIMEOUT"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("herd: invalid RANCHER_TIMEOUT %q: %w", v, err)
		}
		cfg.RancherTimeout = time.Duration(secs) * time.Second
	}

	if v := os.Getenv("WORKER_COUNT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("herd: invalid WORKER_COUNT %q: %w", v, err)
		}
		cfg.WorkerCount = n
	}

	if v := os.Getenv("RESYNC_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("herd: invalid RESYNC_INTERVAL %q: %w", v, err)
		}
		cfg.ResyncInterval = d
	}

	if v := os.Getenv("HERD_METRICS_BIND_ADDRESS"); v != "" {
		cfg.MetricsBindAddress = v
	}
	if v := os.Getenv("HERD_HEALTHPROBE_BIND_ADDRESS"); v != "" {
		cfg.HealthProbeBindAddress = v
	}

	return cfg, nil
}
