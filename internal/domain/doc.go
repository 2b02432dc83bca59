// Package domain models intersection/event observations and the critical
// event detection rule applied to them.
//
// # Data Shape
//
// Input arrives as a list of days. Each day is a list of observations, and an
// observation pairs an intersection (a location identifier) with an event
// identifier:
//
//	[
//	  [{"intersection": "A", "event": "Event1"}, {"intersection": "B", "event": "Event1"}],
//	  [{"intersection": "A", "event": "Event1"}, {"intersection": "C", "event": "Event1"}]
//	]
//
// Stored day files wrap each day in a record with an opaque label:
//
//	[{"id": "day-1", "events": [{"intersection": "A", "event": "Event1"}]}]
//
// Spreadsheets carry one observation per row as (day_index, intersection,
// event). Rows are grouped by day index into records labelled "day-<index>"
// in first-appearance order. The label is a grouping artifact only; detection
// never looks at it.
//
// # Detection Rule
//
// An event is active on a day when it is observed at [MinIntersections] or
// more distinct intersections that day. Repeated observations of the same
// event at the same intersection count once. An event becomes critical once
// it has been active on [MinDays] or more days:
//
//	day 1: Event1 at {A, B}  -> active (2 distinct)   count=1
//	day 2: Event1 at {A}     -> inactive (1 distinct) count=1
//	day 3: Event1 at {A, C}  -> active (2 distinct)   count=2 -> critical
//
// Days need not be consecutive and their order does not affect the result.
// Detection is a pure function of its input; every call allocates its own
// working maps, so concurrent calls need no coordination.
package domain
