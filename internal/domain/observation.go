package domain

// Observation records one event seen at one intersection within a day.
type Observation struct {
	Intersection string `json:"intersection" validate:"required"`
	Event        string `json:"event" validate:"required"`
}

// Day is the set of observations made during a single day. Order within a
// day carries no meaning.
type Day []Observation

// DaysList is the detector input: one entry per day.
type DaysList []Day

// DayRecord is the stored-file form of a day. ID is an opaque label such as
// "day-3" and is not used by detection.
type DayRecord struct {
	ID     string        `json:"id" validate:"required"`
	Events []Observation `json:"events" validate:"required,dive"`
}

// FlattenDayRecords drops record labels and returns the days in order.
func FlattenDayRecords(records []DayRecord) DaysList {
	days := make(DaysList, 0, len(records))
	for _, r := range records {
		days = append(days, Day(r.Events))
	}
	return days
}

// ObservationCount returns the total number of observations across all days.
func (d DaysList) ObservationCount() int {
	n := 0
	for _, day := range d {
		n += len(day)
	}
	return n
}
