// Command wlgen emits a synthetic workload fixture as CSV, in the column
// format the wlsim ingest package expects.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mpalomo/wlsim/genworkload"
)

func main() {
	var (
		count      int
		seed       int64
		outputPath string
	)

	flag.IntVar(&count, "count", 1000, "number of queries to generate")
	flag.Int64Var(&seed, "seed", 1, "random seed")
	flag.StringVar(&outputPath, "out", "", "output file path (default stdout)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Emits a synthetic CSV workload fixture.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	gen, err := genworkload.New(genworkload.DefaultConfig(), seed)
	if err != nil {
		log.Fatalf("building generator: %v", err)
	}
	queries := gen.Generate(count)

	out := os.Stdout
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			log.Fatalf("creating output file: %v", err)
		}
		defer f.Close()
		out = f
	}

	w := csv.NewWriter(out)
	defer w.Flush()

	header := []string{
		"fingerprint", "kind", "bytes_scanned", "result_size",
		"intermediate_result_size", "write_volume", "cpu_time_seconds",
		"db_instance_id", "read_tables", "write_table", "timestamp",
		"scan_to_result_ratio", "scan_to_i_result_ratio",
	}
	if err := w.Write(header); err != nil {
		log.Fatalf("writing header: %v", err)
	}

	for _, q := range queries {
		tables := make([]string, 0, len(q.ReadTables))
		for t := range q.ReadTables {
			tables = append(tables, t)
		}
		record := []string{
			string(q.Fingerprint),
			string(q.Kind),
			strconv.FormatInt(q.BytesScanned, 10),
			strconv.FormatInt(q.ResultSize, 10),
			strconv.FormatInt(q.IntermediateResultSize, 10),
			strconv.FormatInt(q.WriteVolume, 10),
			strconv.FormatFloat(q.CPUTime, 'f', -1, 64),
			strconv.FormatInt(q.DBInstanceID, 10),
			strings.Join(tables, ","),
			q.WriteTable,
			q.Timestamp.Format(time.RFC3339),
			strconv.FormatFloat(q.ScanToResultRatio, 'f', -1, 64),
			strconv.FormatFloat(q.ScanToIResultRatio, 'f', -1, 64),
		}
		if err := w.Write(record); err != nil {
			log.Fatalf("writing row: %v", err)
		}
	}
}
