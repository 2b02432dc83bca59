// Command genmock writes deterministic day fixtures for local testing and
// for the fixture-driven test suites. Every format describes the same
// scenario: a request body, a stored day file, a spreadsheet, and the
// detector's expected answer.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock -days 5
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/couchcryptid/critical-events-service/internal/adapter/xlsx"
	"github.com/couchcryptid/critical-events-service/internal/domain"
)

var intersections = []string{
	"Main St at 1st Ave",
	"Main St at 2nd Ave",
	"Oak St at 1st Ave",
	"Oak St at 2nd Ave",
	"Pine St at 3rd Ave",
	"Elm St at 4th Ave",
	"Cedar St at 5th Ave",
	"Maple St at 6th Ave",
}

// pattern places one event on a day. spread is how many distinct
// intersections report it; duplicate repeats every report once.
type pattern struct {
	event     string
	spread    int
	duplicate bool
	active    func(day, days int) bool
}

func always(int, int) bool { return true }

var patterns = []pattern{
	{event: "Water Main Break", spread: 2, active: always},
	{event: "Traffic Signal Outage", spread: 1, duplicate: true, active: always},
	{event: "Multi-Vehicle Collision", spread: 2, active: func(d, _ int) bool { return d%2 == 0 }},
	{event: "Gas Leak", spread: 3, active: func(d, _ int) bool { return d == 0 }},
	{event: "Road Closure", spread: 1, active: always},
	{event: "Power Outage", spread: 2, active: func(d, n int) bool { return d >= n-2 }},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", filepath.Join("data", "mock"), "output directory")
	days := flag.Int("days", 5, "number of days to generate")
	flag.Parse()

	if *days < 1 {
		return fmt.Errorf("-days must be at least 1, got %d", *days)
	}
	if err := os.MkdirAll(*out, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	list := generate(*days)

	records := make([]domain.DayRecord, len(list))
	rows := [][]string{{"day_index", "intersection", "event"}}
	for i, day := range list {
		records[i] = domain.DayRecord{ID: "day-" + strconv.Itoa(i+1), Events: day}
		for _, obs := range day {
			rows = append(rows, []string{strconv.Itoa(i + 1), obs.Intersection, obs.Event})
		}
	}

	book, err := xlsx.WriteRows(rows)
	if err != nil {
		return fmt.Errorf("build workbook: %w", err)
	}

	request := domain.FindCriticalEventsRequest{DaysList: make([][]domain.Observation, len(list))}
	for i, day := range list {
		request.DaysList[i] = day
	}
	expected := domain.NewCriticalEventsResponse(domain.FindCriticalEvents(list))

	if err := writeJSON(filepath.Join(*out, "days_list.json"), request); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(*out, "day_records.json"), records); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(*out, "critical_events.json"), expected); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(*out, "days.xlsx"), book, 0o644); err != nil { //nolint:gosec // fixtures are not secret
		return fmt.Errorf("write days.xlsx: %w", err)
	}

	log.Printf("days: %d, observations: %d, critical events: %v", len(list), list.ObservationCount(), expected.CriticalEvents)
	return nil
}

func generate(days int) domain.DaysList {
	list := make(domain.DaysList, days)
	for d := range days {
		var day domain.Day
		for i, p := range patterns {
			if !p.active(d, days) {
				continue
			}
			for k := range p.spread {
				obs := domain.Observation{
					Intersection: intersections[(i+d+k)%len(intersections)],
					Event:        p.event,
				}
				day = append(day, obs)
				if p.duplicate {
					day = append(day, obs)
				}
			}
		}
		list[d] = day
	}
	return list
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // fixtures are not secret
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
