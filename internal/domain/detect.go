package domain

import "sort"

const (
	// MinIntersections is the number of distinct intersections an event must
	// be observed at within one day for that day to count as active.
	MinIntersections = 2

	// MinDays is the number of active days after which an event is critical.
	MinDays = 2
)

// Thresholds holds the two limits of the detection rule.
type Thresholds struct {
	MinIntersections int
	MinDays          int
}

// DefaultThresholds is the fixed policy used by FindCriticalEvents.
var DefaultThresholds = Thresholds{
	MinIntersections: MinIntersections,
	MinDays:          MinDays,
}

// Detection is the outcome of one detector run.
type Detection struct {
	// CriticalEvents is sorted ascending and never nil.
	CriticalEvents []string
	// DayCounts maps each event that was active at least once to its number
	// of active days.
	DayCounts map[string]int
}

// FindCriticalEvents runs the detector with DefaultThresholds.
func FindCriticalEvents(days DaysList) Detection {
	return DefaultThresholds.Detect(days)
}

// Detect returns the events that were active on at least t.MinDays days.
func (t Thresholds) Detect(days DaysList) Detection {
	dayCounts := make(map[string]int)
	critical := make(map[string]struct{})

	for _, day := range days {
		for event, intersections := range eventIntersections(day) {
			if len(intersections) < t.MinIntersections {
				continue
			}
			dayCounts[event]++
			if dayCounts[event] >= t.MinDays {
				critical[event] = struct{}{}
			}
		}
	}

	events := make([]string, 0, len(critical))
	for event := range critical {
		events = append(events, event)
	}
	sort.Strings(events)

	return Detection{CriticalEvents: events, DayCounts: dayCounts}
}

// eventIntersections groups a day's observations into event -> distinct
// intersections. Observations missing either id are ignored.
func eventIntersections(day Day) map[string]map[string]struct{} {
	sets := make(map[string]map[string]struct{})
	for _, obs := range day {
		if obs.Event == "" || obs.Intersection == "" {
			continue
		}
		set, ok := sets[obs.Event]
		if !ok {
			set = make(map[string]struct{})
			sets[obs.Event] = set
		}
		set[obs.Intersection] = struct{}{}
	}
	return sets
}
