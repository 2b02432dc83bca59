package domain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// CriticalEventsFoundMessage is the fixed success message of a detection.
const CriticalEventsFoundMessage = "Critical events found"

// CriticalEventsResponse is the API output contract of a detection.
type CriticalEventsResponse struct {
	CriticalEvents []string `json:"critical_events"`
	Status         int      `json:"status"`
	Message        string   `json:"message"`
}

// NewCriticalEventsResponse wraps a detection in the success envelope.
func NewCriticalEventsResponse(d Detection) CriticalEventsResponse {
	events := d.CriticalEvents
	if events == nil {
		events = []string{}
	}
	return CriticalEventsResponse{
		CriticalEvents: events,
		Status:         http.StatusOK,
		Message:        CriticalEventsFoundMessage,
	}
}

// RawEvent is an unprocessed detection request read from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// DetectionResult is the stream-mode record published for each request.
type DetectionResult struct {
	RequestID      string         `json:"request_id"`
	CriticalEvents []string       `json:"critical_events"`
	DayCounts      map[string]int `json:"day_counts"`
	DaysProcessed  int            `json:"days_processed"`
	ProcessedAt    time.Time      `json:"processed_at"`

	ObservationCount int `json:"-"`
}

// ProcessRawEvent parses a detection request, runs the detector, and returns
// the result stamped with the package clock. The request id is the message
// key, or a new UUID when the key is empty.
func ProcessRawEvent(raw RawEvent) (DetectionResult, error) {
	req, err := ParseFindCriticalEventsRequest(bytes.NewReader(raw.Value))
	if err != nil {
		return DetectionResult{}, fmt.Errorf("parse detection request: %w", err)
	}

	requestID := string(raw.Key)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	days := req.Days()
	det := FindCriticalEvents(days)
	return DetectionResult{
		RequestID:      requestID,
		CriticalEvents: det.CriticalEvents,
		DayCounts:      det.DayCounts,
		DaysProcessed:  len(days),
		ProcessedAt:    Now().UTC(),

		ObservationCount: days.ObservationCount(),
	}, nil
}

// SerializeDetectionResult marshals a result into an OutputEvent keyed by
// request id.
func SerializeDetectionResult(r DetectionResult) (OutputEvent, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize detection result: %w", err)
	}
	return OutputEvent{
		Key:   []byte(r.RequestID),
		Value: data,
		Headers: map[string]string{
			"critical_event_count": strconv.Itoa(len(r.CriticalEvents)),
			"processed_at":         r.ProcessedAt.Format(time.RFC3339),
		},
	}, nil
}
