package sheets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrisonrobin/taskbot/pkg/model"
)

func headerRow(names []string) []interface{} {
	row := make([]interface{}, len(names))
	for i, n := range names {
		row[i] = n
	}
	return row
}

func TestTaskRowRoundTrip(t *testing.T) {
	created := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	in := model.Task{
		ID:          "1a2b3c4d",
		Title:       "Fix deploy",
		Description: "broken since friday",
		Status:      model.StatusInProgress,
		Assignee:    "@vadim",
		Priority:    "P1",
		Due:         "2025-09-05",
		Labels:      []string{"a", "b"},
		CreatedAt:   created,
		UpdatedAt:   created,
		Source:      "tg",
		ThreadID:    77,
		MessageLink: "https://t.me/c/123/45",
	}

	row := taskToRow(in)
	out := taskFromRow(headerIndex(headerRow(taskHeaders)), row)

	assert.Equal(t, in, out)
}

func TestTaskRowTimestampFormat(t *testing.T) {
	in := model.Task{ID: "x", CreatedAt: time.Date(2025, 9, 1, 10, 0, 0, 0, time.FixedZone("MSK", 3*3600))}
	row := taskToRow(in)

	// Stored as UTC with a trailing Z, second precision.
	assert.Equal(t, "2025-09-01T07:00:00Z", row[8])
}

func TestTaskFromRowNormalizesJunk(t *testing.T) {
	row := []interface{}{"id1", "title", "", "wat", "", "P9", "", "", "", "", "", "not-a-number", ""}
	out := taskFromRow(headerIndex(headerRow(taskHeaders)), row)

	assert.Equal(t, model.StatusOpen, out.Status)
	assert.Equal(t, model.DefaultPriority, out.Priority)
	assert.Zero(t, out.ThreadID)
	assert.Nil(t, out.Labels)
}

func TestTaskFromRowShortRow(t *testing.T) {
	// A row with trailing blank cells comes back truncated from the API.
	row := []interface{}{"id1", "title"}
	out := taskFromRow(headerIndex(headerRow(taskHeaders)), row)

	assert.Equal(t, "id1", out.ID)
	assert.Equal(t, "title", out.Title)
	assert.Equal(t, model.StatusOpen, out.Status)
}

func TestLabelsKeepOrderAndDuplicates(t *testing.T) {
	in := model.Task{ID: "x", Labels: []string{"b", "a", "b"}}
	row := taskToRow(in)
	require.Equal(t, "b,a,b", row[7])

	out := taskFromRow(headerIndex(headerRow(taskHeaders)), row)
	assert.Equal(t, []string{"b", "a", "b"}, out.Labels)
}

func TestSplitLabelsTrims(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitLabels(" a , b ,, "))
	assert.Nil(t, splitLabels(""))
}

func TestReminderRowRoundTrip(t *testing.T) {
	created := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	in := model.Reminder{
		ID:        "r1r1r1r1",
		TaskID:    "1a2b3c4d",
		WhenISO:   "2025-09-02T10:00:00+03:00",
		ChatID:    -1001234567890,
		ThreadID:  5,
		CreatedAt: created,
		CreatedBy: "@vadim",
	}

	row := reminderToRow(in)
	out := reminderFromRow(headerIndex(headerRow(reminderHeaders)), row)

	assert.Equal(t, in, out)
}

func TestThreadFromRow(t *testing.T) {
	h := headerIndex(headerRow(threadHeaders))
	out := threadFromRow(h, []interface{}{"deploy", "77", "2025-09-01T10:00:00Z"})

	assert.Equal(t, "deploy", out.Label)
	assert.Equal(t, 77, out.ThreadID)
	assert.Equal(t, time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC), out.CreatedAt)
}
