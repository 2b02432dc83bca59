package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFindCriticalEventsRequest(t *testing.T) {
	t.Run("valid body", func(t *testing.T) {
		body := `{"days_list":[[{"intersection":"A","event":"Event1"},{"intersection":"B","event":"Event1"}],[]]}`
		req, err := ParseFindCriticalEventsRequest(strings.NewReader(body))

		require.NoError(t, err)
		days := req.Days()
		require.Len(t, days, 2)
		assert.Equal(t, Day{obs("A", "Event1"), obs("B", "Event1")}, days[0])
		assert.Empty(t, days[1])
	})

	t.Run("empty days_list", func(t *testing.T) {
		req, err := ParseFindCriticalEventsRequest(strings.NewReader(`{"days_list":[]}`))
		require.NoError(t, err)
		assert.Empty(t, req.Days())
	})

	cases := []struct {
		name    string
		body    string
		message string
	}{
		{name: "missing days_list", body: `{}`, message: "days_list is required"},
		{name: "null days_list", body: `{"days_list":null}`, message: "days_list is required"},
		{name: "not an array", body: `{"days_list":"nope"}`, message: "days_list must be an array of arrays"},
		{name: "flat array", body: `{"days_list":[{"intersection":"A","event":"E"}]}`, message: "days_list must be an array of arrays"},
		{name: "empty intersection", body: `{"days_list":[[{"intersection":"","event":"E"}]]}`, message: "days_list[0][0].intersection must not be empty"},
		{name: "missing event", body: `{"days_list":[[{"intersection":"A"}]]}`, message: "days_list[0][0].event must not be empty"},
		{name: "numeric id", body: `{"days_list":[[{"intersection":1,"event":"E"}]]}`, message: "intersection must be a string"},
		{name: "unknown field", body: `{"days_list":[],"extra":true}`, message: "unknown field"},
		{name: "malformed", body: `{"days_list":[`, message: "malformed JSON"},
		{name: "empty body", body: ``, message: "malformed JSON"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseFindCriticalEventsRequest(strings.NewReader(tc.body))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Contains(t, err.Error(), tc.message)
		})
	}
}

func TestParseFindCriticalEventsRequest_CollectsAllMessages(t *testing.T) {
	body := `{"days_list":[[{"intersection":"","event":""}],[{"intersection":"A","event":""}]]}`
	_, err := ParseFindCriticalEventsRequest(strings.NewReader(body))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.ElementsMatch(t, []string{
		"days_list[0][0].intersection must not be empty",
		"days_list[0][0].event must not be empty",
		"days_list[1][0].event must not be empty",
	}, verr.Messages)
}

func TestParseDayRecords(t *testing.T) {
	t.Run("valid file", func(t *testing.T) {
		data := []byte(`[{"id":"day-1","events":[{"intersection":"A","event":"Event1"}],"note":"ignored"},{"id":"day-2","events":[]}]`)
		records, err := ParseDayRecords(data)

		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "day-1", records[0].ID)
		assert.Equal(t, []Observation{obs("A", "Event1")}, records[0].Events)
		assert.Empty(t, records[1].Events)
	})

	cases := []struct {
		name    string
		data    string
		message string
	}{
		{name: "object instead of array", data: `{"id":"day-1"}`, message: "not of a type(s) array"},
		{name: "null", data: `null`, message: "not of a type(s) array"},
		{name: "missing id", data: `[{"events":[]}]`, message: "[0].id must not be empty"},
		{name: "missing events", data: `[{"id":"day-1"}]`, message: "[0].events is required"},
		{name: "missing event", data: `[{"id":"day-1","events":[{"intersection":"A"}]}]`, message: "[0].events[0].event must not be empty"},
		{name: "malformed", data: `[{`, message: "malformed JSON"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseDayRecords([]byte(tc.data))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Contains(t, err.Error(), tc.message)
		})
	}
}

func TestValidateStruct(t *testing.T) {
	type folder struct {
		Name string `json:"folder_name" validate:"required"`
	}

	require.NoError(t, ValidateStruct(folder{Name: "x"}))

	err := ValidateStruct(folder{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "folder_name must not be empty", err.Error())
}
