package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpalomo/wlsim"
)

const header = "fingerprint,kind,bytes_scanned,result_size,intermediate_result_size,write_volume,cpu_time_seconds,db_instance_id,read_tables,write_table,timestamp,scan_to_result_ratio,scan_to_i_result_ratio\n"

func TestFromCSVParsesAndOrdersByTimestamp(t *testing.T) {
	csv := header +
		"q2,select,100,10,5,0,0.1,1,orders,,2026-01-01T01:00:00Z,0.1,0.05\n" +
		"q1,select,100,10,5,0,0.1,1,orders,,2026-01-01T00:00:00Z,0.1,0.05\n"

	queries, err := FromCSV(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, queries, 2)

	assert.Equal(t, wlsim.Fingerprint("q1"), queries[0].Fingerprint)
	assert.Equal(t, wlsim.Fingerprint("q2"), queries[1].Fingerprint)
	assert.Equal(t, int64(1), queries[0].Hour)
	assert.Equal(t, int64(2), queries[1].Hour)
}

func TestFromCSVComputesRepetitionCoefficient(t *testing.T) {
	csv := header +
		"q1,select,100,10,5,0,0.1,1,orders,,2026-01-01T00:00:00Z,0.1,0.05\n" +
		"q1,select,100,10,5,0,0.1,1,orders,,2026-01-01T00:05:00Z,0.1,0.05\n" +
		"q2,select,100,10,5,0,0.1,1,orders,,2026-01-01T00:10:00Z,0.1,0.05\n"

	queries, err := FromCSV(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, queries, 3)

	for _, q := range queries {
		if q.Fingerprint == "q1" {
			assert.InDelta(t, 1.0/3.0, q.RepetitionCoefficient, 1e-9)
		} else {
			assert.InDelta(t, 0.0, q.RepetitionCoefficient, 1e-9)
		}
	}
}

func TestFromCSVParsesReadTablesAndWriteTable(t *testing.T) {
	csv := header +
		"w1,insert,0,0,0,40,0.1,1,,orders,2026-01-01T00:00:00Z,0,0\n"

	queries, err := FromCSV(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, queries, 1)
	assert.Equal(t, "orders", queries[0].WriteTable)
	assert.Empty(t, queries[0].ReadTables)
	assert.Equal(t, wlsim.Insert, queries[0].Kind)
}

func TestFromCSVRejectsMissingColumn(t *testing.T) {
	_, err := FromCSV(strings.NewReader("fingerprint,kind\nq1,select\n"))
	assert.ErrorIs(t, err, wlsim.ErrInvalidInput)
}

func TestFromCSVRejectsUnknownKind(t *testing.T) {
	csv := header + "q1,merge,100,10,5,0,0.1,1,orders,,2026-01-01T00:00:00Z,0.1,0.05\n"
	_, err := FromCSV(strings.NewReader(csv))
	assert.ErrorIs(t, err, wlsim.ErrInvalidInput)
}

func TestFromCSVRejectsEmptyFingerprint(t *testing.T) {
	csv := header + ",select,100,10,5,0,0.1,1,orders,,2026-01-01T00:00:00Z,0.1,0.05\n"
	_, err := FromCSV(strings.NewReader(csv))
	assert.ErrorIs(t, err, wlsim.ErrInvalidInput)
}

func TestFromCSVEmptyBodyReturnsNil(t *testing.T) {
	queries, err := FromCSV(strings.NewReader(header))
	assert.NoError(t, err)
	assert.Nil(t, queries)
}

func TestFromCSVRejectsNegativeSize(t *testing.T) {
	csv := header + "q1,select,-100,10,5,0,0.1,1,orders,,2026-01-01T00:00:00Z,0.1,0.05\n"
	_, err := FromCSV(strings.NewReader(csv))
	assert.ErrorIs(t, err, wlsim.ErrInvalidInput)
}

func TestFromCSVRejectsNonpositiveCPUTime(t *testing.T) {
	csv := header + "q1,select,100,10,5,0,0,1,orders,,2026-01-01T00:00:00Z,0.1,0.05\n"
	_, err := FromCSV(strings.NewReader(csv))
	assert.ErrorIs(t, err, wlsim.ErrInvalidInput)
}

func TestFromCSVAllowsZeroSizes(t *testing.T) {
	csv := header + "w1,insert,0,0,0,0,0.1,1,,orders,2026-01-01T00:00:00Z,0,0\n"
	queries, err := FromCSV(strings.NewReader(csv))
	assert.NoError(t, err)
	assert.Len(t, queries, 1)
}
