// Package ingest reads a rectangular CSV workload into a timestamp-ordered
// []wlsim.Query stream, deriving the fields a transport shouldn't have to
// carry explicitly: hour buckets and repetition coefficients.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mpalomo/wlsim"
)

var requiredColumns = []string{
	"fingerprint", "kind", "bytes_scanned", "result_size",
	"intermediate_result_size", "write_volume", "cpu_time_seconds",
	"db_instance_id", "read_tables", "write_table", "timestamp",
	"scan_to_result_ratio", "scan_to_i_result_ratio",
}

// FromCSV parses r as a rectangular CSV workload, sorts rows by timestamp
// ascending (rows may arrive out of order in the file), and derives hour
// and repetition_coefficient over the full set. Every row must carry every
// column in requiredColumns; a missing column, an empty fingerprint, an
// unknown kind, a negative size field, a nonpositive cpu_time_seconds, or a
// malformed numeric/timestamp field fails the whole ingest with
// wlsim.ErrInvalidInput.
func FromCSV(r io.Reader) ([]wlsim.Query, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("ingest: read header: %w", err)
	}
	col, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var queries []wlsim.Query
	rowNum := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ingest: row %d: %w", rowNum, err)
		}
		rowNum++

		q, err := parseRow(record, col)
		if err != nil {
			return nil, fmt.Errorf("ingest: row %d: %w", rowNum, err)
		}
		queries = append(queries, q)
	}

	if len(queries) == 0 {
		return nil, nil
	}

	sort.SliceStable(queries, func(i, j int) bool {
		return queries[i].Timestamp.Before(queries[j].Timestamp)
	})

	assignHours(queries)
	assignRepetitionCoefficients(queries)

	return queries, nil
}

func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", wlsim.ErrInvalidInput, name)
		}
	}
	return idx, nil
}

func parseRow(record []string, col map[string]int) (wlsim.Query, error) {
	field := func(name string) string {
		i := col[name]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	fingerprint := field("fingerprint")
	if fingerprint == "" {
		return wlsim.Query{}, fmt.Errorf("%w: empty fingerprint", wlsim.ErrInvalidInput)
	}

	kind, err := parseKind(field("kind"))
	if err != nil {
		return wlsim.Query{}, err
	}

	bytesScanned, err := parseNonNegativeInt(field("bytes_scanned"))
	if err != nil {
		return wlsim.Query{}, fmt.Errorf("bytes_scanned: %w", err)
	}
	resultSize, err := parseNonNegativeInt(field("result_size"))
	if err != nil {
		return wlsim.Query{}, fmt.Errorf("result_size: %w", err)
	}
	iresultSize, err := parseNonNegativeInt(field("intermediate_result_size"))
	if err != nil {
		return wlsim.Query{}, fmt.Errorf("intermediate_result_size: %w", err)
	}
	writeVolume, err := parseNonNegativeInt(field("write_volume"))
	if err != nil {
		return wlsim.Query{}, fmt.Errorf("write_volume: %w", err)
	}
	cpuTime, err := parseFloat(field("cpu_time_seconds"))
	if err != nil {
		return wlsim.Query{}, fmt.Errorf("cpu_time_seconds: %w", err)
	}
	if cpuTime <= 0 {
		return wlsim.Query{}, fmt.Errorf("%w: cpu_time_seconds must be positive, got %v", wlsim.ErrInvalidInput, cpuTime)
	}
	dbInstanceID, err := parseInt(field("db_instance_id"))
	if err != nil {
		return wlsim.Query{}, fmt.Errorf("db_instance_id: %w", err)
	}
	scanToResult, err := parseFloat(field("scan_to_result_ratio"))
	if err != nil {
		return wlsim.Query{}, fmt.Errorf("scan_to_result_ratio: %w", err)
	}
	scanToIResult, err := parseFloat(field("scan_to_i_result_ratio"))
	if err != nil {
		return wlsim.Query{}, fmt.Errorf("scan_to_i_result_ratio: %w", err)
	}
	timestamp, err := parseTimestamp(field("timestamp"))
	if err != nil {
		return wlsim.Query{}, fmt.Errorf("timestamp: %w", err)
	}

	return wlsim.Query{
		Fingerprint:            wlsim.Fingerprint(fingerprint),
		Kind:                   kind,
		BytesScanned:           bytesScanned,
		ResultSize:             resultSize,
		IntermediateResultSize: iresultSize,
		WriteVolume:            writeVolume,
		CPUTime:                cpuTime,
		DBInstanceID:           dbInstanceID,
		ReadTables:             parseReadTables(field("read_tables")),
		WriteTable:             field("write_table"),
		Timestamp:              timestamp,
		ScanToResultRatio:      scanToResult,
		ScanToIResultRatio:     scanToIResult,
	}, nil
}

func parseKind(s string) (wlsim.Kind, error) {
	switch wlsim.Kind(s) {
	case wlsim.Select, wlsim.Insert, wlsim.Update, wlsim.Delete:
		return wlsim.Kind(s), nil
	default:
		return "", fmt.Errorf("%w: unknown kind %q", wlsim.ErrInvalidInput, s)
	}
}

func parseInt(s string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", wlsim.ErrInvalidInput, err)
	}
	return v, nil
}

// parseNonNegativeInt parses s as an integer and rejects negative values;
// a size field of 0 is a legitimate reading (e.g. result_size on a write),
// but a negative one is malformed input.
func parseNonNegativeInt(s string) (int64, error) {
	v, err := parseInt(s)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("%w: must be non-negative, got %d", wlsim.ErrInvalidInput, v)
	}
	return v, nil
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", wlsim.ErrInvalidInput, err)
	}
	return v, nil
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", wlsim.ErrInvalidInput, err)
	}
	return t, nil
}

func parseReadTables(s string) map[string]struct{} {
	if s == "" {
		return nil
	}
	tables := make(map[string]struct{})
	for _, t := range strings.Split(s, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			tables[t] = struct{}{}
		}
	}
	return tables
}

// assignHours buckets each query into an hour numbered from 1, based on
// elapsed time since the earliest timestamp in the (already sorted) slice.
// Rows may arrive out of timestamp order in the source CSV; FromCSV sorts
// them before this runs, so hour is always computed against the true
// earliest timestamp rather than the first row in file order.
func assignHours(queries []wlsim.Query) {
	first := queries[0].Timestamp
	for i := range queries {
		elapsed := queries[i].Timestamp.Sub(first)
		queries[i].Hour = int64(elapsed.Hours()) + 1
	}
}

// assignRepetitionCoefficients sets each query's repetition_coefficient to
// (count(fingerprint)-1)/total_queries.
func assignRepetitionCoefficients(queries []wlsim.Query) {
	counts := make(map[wlsim.Fingerprint]int, len(queries))
	for _, q := range queries {
		counts[q.Fingerprint]++
	}
	total := float64(len(queries))
	for i := range queries {
		n := float64(counts[queries[i].Fingerprint])
		queries[i].RepetitionCoefficient = (n - 1) / total
	}
}
