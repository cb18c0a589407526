package hwconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mpalomo/wlsim"
)

func TestValidateRejectsUnknownCacheType(t *testing.T) {
	h := Hardware{Instance: Instance{VCPUs: 1, NetworkSpeedGiBps: 1}, Cache: Cache{Type: "unknown"}}
	assert.ErrorIs(t, h.Validate(), wlsim.ErrConfigError)
}

func TestValidateRejectsMissingGP3Throughput(t *testing.T) {
	h := Hardware{Instance: Instance{VCPUs: 1, NetworkSpeedGiBps: 1}, Cache: Cache{Type: GP3}}
	assert.ErrorIs(t, h.Validate(), wlsim.ErrConfigError)
}

func TestValidateAcceptsWellFormedS3Config(t *testing.T) {
	h := Hardware{
		Instance: Instance{VCPUs: 2, NetworkSpeedGiBps: 25, PricePerHour: 0.1},
		Cache:    Cache{Type: S3, RequestLatencyMinMs: 1, RequestLatencyMaxMs: 5},
	}
	assert.NoError(t, h.Validate())
}
