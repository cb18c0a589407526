package load

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mpalomo/wlsim"
)

func TestEstimateWeightedSum(t *testing.T) {
	ref := Reference{BytesScanned: 1000, ResultSize: 100, WriteVolume: 500, CPUTime: 1}
	q := wlsim.Query{BytesScanned: 1000, ResultSize: 100, WriteVolume: 500, CPUTime: 2}

	got := Estimate(q, ref)
	want := 0.8*1.0 + 0.5*1.0 + 0.8*1.0 + 1.5*2.0
	assert.InDelta(t, want, got, 1e-9)
}

func TestEstimateZeroRefYieldsZeroRatio(t *testing.T) {
	ref := Reference{}
	q := wlsim.Query{BytesScanned: 500, ResultSize: 50, WriteVolume: 20, CPUTime: 0.5}

	got := Estimate(q, ref)
	assert.InDelta(t, 1.5*0.5, got, 1e-9)
}
