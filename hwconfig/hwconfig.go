// Package hwconfig holds the hardware-parameter record the pricing and
// runtime estimators are given. Hardware parameters are an external
// collaborator — this package only shapes and validates the struct rather
// than loading configuration itself.
package hwconfig

import (
	"fmt"

	"github.com/mpalomo/wlsim"
)

// CacheType selects which pricing/runtime formula a cache backend uses.
type CacheType string

const (
	S3  CacheType = "s3"
	GP3 CacheType = "gp3"
)

// Instance is the compute instance a query runs on.
type Instance struct {
	VCPUs             int
	NetworkSpeedGiBps float64
	PricePerHour      float64
}

// Cache is the cache-backend hardware/pricing parameters.
type Cache struct {
	Type                CacheType
	CostPerGB           float64
	PutCost             float64
	GetCost             float64
	RequestLatencyMinMs float64
	RequestLatencyMaxMs float64
	ThroughputMBps      float64 // gp3 only
}

// Hardware is the full parameter record passed to the estimators.
type Hardware struct {
	Instance Instance
	Cache    Cache
}

// Validate rejects a malformed hardware configuration.
func (h Hardware) Validate() error {
	switch h.Cache.Type {
	case S3, GP3:
	default:
		return fmt.Errorf("%w: unknown cache type %q", wlsim.ErrConfigError, h.Cache.Type)
	}
	if h.Instance.VCPUs <= 0 {
		return fmt.Errorf("%w: vCPUs must be positive", wlsim.ErrConfigError)
	}
	if h.Instance.NetworkSpeedGiBps <= 0 {
		return fmt.Errorf("%w: network_speed_gibps must be positive", wlsim.ErrConfigError)
	}
	if h.Cache.RequestLatencyMinMs < 0 || h.Cache.RequestLatencyMaxMs < h.Cache.RequestLatencyMinMs {
		return fmt.Errorf("%w: invalid request latency bounds", wlsim.ErrConfigError)
	}
	if h.Cache.Type == GP3 && h.Cache.ThroughputMBps <= 0 {
		return fmt.Errorf("%w: gp3 cache requires throughput_mb_per_s", wlsim.ErrConfigError)
	}
	return nil
}
