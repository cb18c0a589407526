// Package load implements the resource-requirement scalar used for
// admission decisions: a fixed weighted sum of per-query magnitudes
// against a reference snapshot.
package load

import "github.com/mpalomo/wlsim"

// Reference is the magnitude snapshot a query's fields are compared
// against — either a median-based or max-based snapshot of the workload.
type Reference struct {
	BytesScanned float64
	ResultSize   float64
	WriteVolume  float64
	CPUTime      float64
}

const (
	bytesScannedWeight = 0.8
	resultSizeWeight   = 0.5
	writeVolumeWeight  = 0.8
	cpuTimeWeight      = 1.5
)

// Estimate returns query's non-negative load score: a fixed weighting of
// its magnitudes against ref, with each ratio held at 0 when the
// corresponding reference value is 0.
func Estimate(q wlsim.Query, ref Reference) float64 {
	var load float64

	load += bytesScannedWeight * ratio(float64(q.BytesScanned), ref.BytesScanned)
	load += resultSizeWeight * ratio(float64(q.ResultSize), ref.ResultSize)
	load += writeVolumeWeight * ratio(float64(q.WriteVolume), ref.WriteVolume)
	load += cpuTimeWeight * q.CPUTime

	return load
}

func ratio(value, ref float64) float64 {
	if ref == 0 {
		return 0
	}
	return value / ref
}
