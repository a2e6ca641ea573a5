package sheets

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/harrisonrobin/taskbot/pkg/model"
)

// Fixed header rows. Column order is part of the persisted layout.
var (
	taskHeaders     = []string{"ID", "Title", "Description", "Status", "Assignee", "Priority", "Due", "Labels", "CreatedAt", "UpdatedAt", "Source", "ThreadID", "MessageLink"}
	threadHeaders   = []string{"Label", "ThreadID", "CreatedAt"}
	reminderHeaders = []string{"ID", "TaskID", "WhenISO", "ChatID", "ThreadID", "CreatedAt", "CreatedBy"}
)

// header maps column names to their index in a fetched row.
type header map[string]int

func headerIndex(row []interface{}) header {
	h := make(header, len(row))
	for i, v := range row {
		h[fmt.Sprint(v)] = i
	}
	return h
}

// cell returns the named column of row as a trimmed string, "" when the row
// is too short or the column is unknown.
func cell(h header, row []interface{}, name string) string {
	i, ok := h[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(row[i]))
}

func taskToRow(t model.Task) []interface{} {
	return []interface{}{
		t.ID,
		t.Title,
		t.Description,
		t.Status,
		t.Assignee,
		t.Priority,
		t.Due,
		strings.Join(t.Labels, ","),
		formatTimestamp(t.CreatedAt),
		formatTimestamp(t.UpdatedAt),
		t.Source,
		formatInt(t.ThreadID),
		t.MessageLink,
	}
}

func taskFromRow(h header, row []interface{}) model.Task {
	return model.Task{
		ID:          cell(h, row, "ID"),
		Title:       cell(h, row, "Title"),
		Description: cell(h, row, "Description"),
		Status:      model.NormalizeStatus(cell(h, row, "Status")),
		Assignee:    cell(h, row, "Assignee"),
		Priority:    model.NormalizePriority(cell(h, row, "Priority")),
		Due:         cell(h, row, "Due"),
		Labels:      splitLabels(cell(h, row, "Labels")),
		CreatedAt:   parseTimestamp(cell(h, row, "CreatedAt")),
		UpdatedAt:   parseTimestamp(cell(h, row, "UpdatedAt")),
		Source:      cell(h, row, "Source"),
		ThreadID:    parseInt(cell(h, row, "ThreadID")),
		MessageLink: cell(h, row, "MessageLink"),
	}
}

func threadFromRow(h header, row []interface{}) model.ThreadBinding {
	return model.ThreadBinding{
		Label:     cell(h, row, "Label"),
		ThreadID:  parseInt(cell(h, row, "ThreadID")),
		CreatedAt: parseTimestamp(cell(h, row, "CreatedAt")),
	}
}

func reminderToRow(r model.Reminder) []interface{} {
	return []interface{}{
		r.ID,
		r.TaskID,
		r.WhenISO,
		formatInt64(r.ChatID),
		formatInt(r.ThreadID),
		formatTimestamp(r.CreatedAt),
		r.CreatedBy,
	}
}

func reminderFromRow(h header, row []interface{}) model.Reminder {
	chatID, _ := strconv.ParseInt(cell(h, row, "ChatID"), 10, 64)
	return model.Reminder{
		ID:        cell(h, row, "ID"),
		TaskID:    cell(h, row, "TaskID"),
		WhenISO:   cell(h, row, "WhenISO"),
		ChatID:    chatID,
		ThreadID:  parseInt(cell(h, row, "ThreadID")),
		CreatedAt: parseTimestamp(cell(h, row, "CreatedAt")),
		CreatedBy: cell(h, row, "CreatedBy"),
	}
}

// splitLabels keeps order and duplicates; only surrounding whitespace and
// empty entries are dropped.
func splitLabels(s string) []string {
	if s == "" {
		return nil
	}
	var labels []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			labels = append(labels, part)
		}
	}
	return labels
}

// Timestamps are stored as UTC RFC 3339 with a trailing Z, second precision.
func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}

func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// The sheet stores numeric ids as text; zero means "unset".
func formatInt(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func formatInt64(n int64) string {
	if n == 0 {
		return ""
	}
	return strconv.FormatInt(n, 10)
}

func parseInt(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
