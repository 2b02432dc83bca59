package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupRows(t *testing.T) {
	rows := [][]string{
		{"1", "A", "Event1"},
		{"1", "B", "Event1"},
		{"2", "A", "Event1"},
		{"1", "C", "Event2"},
		{"", "", ""},
		{"2", " C ", "Event1", "extra column"},
	}

	records, err := GroupRows(rows)
	require.NoError(t, err)

	assert.Equal(t, []DayRecord{
		{ID: "day-1", Events: []Observation{obs("A", "Event1"), obs("B", "Event1"), obs("C", "Event2")}},
		{ID: "day-2", Events: []Observation{obs("A", "Event1"), obs("C", "Event1")}},
	}, records)

	det := FindCriticalEvents(FlattenDayRecords(records))
	assert.Equal(t, []string{"Event1"}, det.CriticalEvents)
}

func TestGroupRows_SkipsHeader(t *testing.T) {
	rows := [][]string{
		{"Day_Index", "intersection", "event"},
		{"7", "A", "Event1"},
	}

	records, err := GroupRows(rows)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "day-7", records[0].ID)
}

func TestGroupRows_FirstAppearanceOrder(t *testing.T) {
	rows := [][]string{
		{"3", "A", "E"},
		{"1", "A", "E"},
		{"3", "B", "E"},
	}

	records, err := GroupRows(rows)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "day-3", records[0].ID)
	assert.Equal(t, "day-1", records[1].ID)
}

func TestGroupRows_Errors(t *testing.T) {
	t.Run("no rows", func(t *testing.T) {
		_, err := GroupRows(nil)
		require.ErrorIs(t, err, ErrValidation)
		assert.Contains(t, err.Error(), "at least three columns")
	})

	t.Run("narrow first row", func(t *testing.T) {
		_, err := GroupRows([][]string{{"1", "A"}})
		require.ErrorIs(t, err, ErrValidation)
		assert.Contains(t, err.Error(), "at least three columns")
	})

	t.Run("incomplete later row", func(t *testing.T) {
		_, err := GroupRows([][]string{{"1", "A", "E"}, {"2", "B"}})
		require.ErrorIs(t, err, ErrValidation)
		assert.Contains(t, err.Error(), "row 2")
	})
}

func TestGroupRows_HeaderOnly(t *testing.T) {
	records, err := GroupRows([][]string{{"day_index", "intersection", "event"}})
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}
