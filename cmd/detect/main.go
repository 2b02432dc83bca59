// Command detect runs the critical-event detector on a local day file and
// prints the result. With -expect it also checks the result against a
// stored answer, which is how the genmock fixtures are verified.
//
// Usage:
//
//	go run ./cmd/detect -file data/mock/days.xlsx
//	go run ./cmd/detect -file data/mock/day_records.json -expect data/mock/critical_events.json
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/couchcryptid/critical-events-service/internal/adapter/xlsx"
	"github.com/couchcryptid/critical-events-service/internal/domain"
)

type options struct {
	file             string
	fileType         string
	expect           string
	minIntersections int
	minDays          int
}

// phase tracks pass/fail for one check.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	var opts options
	flag.StringVar(&opts.file, "file", "", "day file to read (.json or .xlsx)")
	flag.StringVar(&opts.fileType, "type", "", "json or xlsx; inferred from the extension when empty")
	flag.StringVar(&opts.expect, "expect", "", "optional expected response JSON; exit 1 on mismatch")
	flag.IntVar(&opts.minIntersections, "min-intersections", domain.MinIntersections, "distinct intersections for an active day")
	flag.IntVar(&opts.minDays, "min-days", domain.MinDays, "active days for a critical event")
	flag.Parse()

	if opts.file == "" {
		flag.Usage()
		os.Exit(2)
	}
	os.Exit(run(opts, os.Stdout, os.Stderr))
}

func run(opts options, stdout, stderr io.Writer) int {
	days, err := loadDays(opts.file, opts.fileType)
	if err != nil {
		fmt.Fprintf(stderr, "FATAL: %v\n", err)
		return 1
	}

	thresholds := domain.Thresholds{MinIntersections: opts.minIntersections, MinDays: opts.minDays}
	if thresholds.MinIntersections < 1 || thresholds.MinDays < 1 {
		fmt.Fprintln(stderr, "FATAL: thresholds must be at least 1")
		return 1
	}
	resp := domain.NewCriticalEventsResponse(thresholds.Detect(days))

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		fmt.Fprintf(stderr, "FATAL: write result: %v\n", err)
		return 1
	}

	if opts.expect == "" {
		return 0
	}

	p := compare(opts.expect, resp)
	if p.passed() {
		fmt.Fprintf(stderr, "%s: PASS (%d days, %d observations)\n", p.name, len(days), days.ObservationCount())
		return 0
	}
	fmt.Fprintf(stderr, "%s: FAIL\n", p.name)
	for i, e := range p.errors {
		fmt.Fprintf(stderr, "  [%d] %s\n", i+1, e)
	}
	return 1
}

// loadDays reads a DaysList request body, a stored day-record file, or a
// spreadsheet of (day_index, intersection, event) rows.
func loadDays(path, fileType string) (domain.DaysList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%s is empty", path)
	}

	if fileType == "" {
		fileType = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}

	switch fileType {
	case "json":
		if bytes.HasPrefix(bytes.TrimSpace(data), []byte("[")) {
			records, err := domain.ParseDayRecords(data)
			if err != nil {
				return nil, fmt.Errorf("parse day records: %w", err)
			}
			return domain.FlattenDayRecords(records), nil
		}
		req, err := domain.ParseFindCriticalEventsRequest(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("parse days list: %w", err)
		}
		return req.Days(), nil
	case "xlsx", "xls":
		rows, err := xlsx.ReadRows(data)
		if err != nil {
			return nil, err
		}
		records, err := domain.GroupRows(rows)
		if err != nil {
			return nil, err
		}
		return domain.FlattenDayRecords(records), nil
	default:
		return nil, fmt.Errorf("unsupported file type %q", fileType)
	}
}

func compare(expectPath string, got domain.CriticalEventsResponse) *phase {
	p := &phase{name: "Expected critical events"}

	data, err := os.ReadFile(expectPath)
	if err != nil {
		p.errorf("read %s: %v", expectPath, err)
		return p
	}
	var want domain.CriticalEventsResponse
	if err := json.Unmarshal(data, &want); err != nil {
		p.errorf("parse %s: %v", expectPath, err)
		return p
	}

	for _, e := range want.CriticalEvents {
		if !slices.Contains(got.CriticalEvents, e) {
			p.errorf("missing critical event %q", e)
		}
	}
	for _, e := range got.CriticalEvents {
		if !slices.Contains(want.CriticalEvents, e) {
			p.errorf("unexpected critical event %q", e)
		}
	}
	return p
}
