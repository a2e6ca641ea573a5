package digest

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/harrisonrobin/taskbot/pkg/model"
)

var today = time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)

func TestSummaryExcludesDoneAndCountsOverdue(t *testing.T) {
	tasks := []model.Task{
		{ID: "A", Status: model.StatusDone, Assignee: "@vadim"},
		{ID: "B", Status: model.StatusOpen, Assignee: ""},
		{ID: "C", Status: model.StatusOpen, Assignee: "@vadim", Due: "2025-08-31"},
	}

	got := Summary(tasks, today)

	assert.NotContains(t, got, "A")
	assert.Contains(t, got, Unassigned+": 1")
	assert.Contains(t, got, "@vadim: 1")
	assert.Contains(t, got, "Просрочено: <b>1</b>")
}

func TestSummaryBucketOrdering(t *testing.T) {
	tasks := []model.Task{
		{Status: model.StatusOpen, Assignee: "@carol"},
		{Status: model.StatusOpen, Assignee: "@Bob"},
		{Status: model.StatusOpen, Assignee: "@Bob"},
		{Status: model.StatusOpen, Assignee: "@alice"},
	}

	got := Summary(tasks, today)
	lines := strings.Split(got, "\n")

	// Count descending, ties broken by case-insensitive name ascending.
	assert.Equal(t, "@Bob: 2", lines[1])
	assert.Equal(t, "@alice: 1", lines[2])
	assert.Equal(t, "@carol: 1", lines[3])
}

func TestSummarySkipsMalformedDueDates(t *testing.T) {
	tasks := []model.Task{
		{ID: "X", Status: model.StatusOpen, Assignee: "@a", Due: "soon"},
	}

	got := Summary(tasks, today)

	// Still counted in the bucket, never counted as overdue, never fatal.
	assert.Contains(t, got, "@a: 1")
	assert.Contains(t, got, "Просрочено: <b>0</b>")
}

func TestOverdue(t *testing.T) {
	tasks := []model.Task{
		{ID: "1", Status: model.StatusOpen, Due: "2025-08-31"},
		{ID: "2", Status: model.StatusOpen, Due: "2025-09-01"}, // due today is not overdue
		{ID: "3", Status: model.StatusDone, Due: "2025-08-01"}, // done never counts
		{ID: "4", Status: model.StatusBlocked, Due: "2025-07-15"},
		{ID: "5", Status: model.StatusOpen},
	}

	got := Overdue(tasks, today)

	want := []string{"1", "4"}
	assert.Len(t, got, len(want))
	for i, id := range want {
		assert.Equal(t, id, got[i].ID)
	}
}

func TestFormatOverdue(t *testing.T) {
	assert.Empty(t, FormatOverdue(nil))

	tasks := []model.Task{
		{ID: "1", Title: "Fix deploy", Status: model.StatusOpen, Assignee: "@vadim", Due: "2025-08-31", Labels: []string{"deploy", "backend"}},
	}
	got := FormatOverdue(tasks)

	assert.Contains(t, got, "<code>1</code>")
	assert.Contains(t, got, "Fix deploy")
	assert.Contains(t, got, "@vadim")
	assert.Contains(t, got, "до 2025-08-31")
	assert.Contains(t, got, "#deploy")
	assert.NotContains(t, got, "#backend") // only the first label is shown
}

func TestFormatOverdueCapsAtFifty(t *testing.T) {
	var tasks []model.Task
	for i := 0; i < 60; i++ {
		tasks = append(tasks, model.Task{ID: "t", Title: "x", Due: "2025-08-01", Status: model.StatusOpen})
	}
	got := FormatOverdue(tasks)
	// header line + 50 entries
	assert.Len(t, strings.Split(got, "\n"), 51)
}
