// Package digest builds the daily summary and the overdue report.
package digest

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/harrisonrobin/taskbot/pkg/model"
)

// Unassigned buckets tasks that have no assignee.
const Unassigned = "(не назначено)"

// MaxOverdueLines caps the overdue report; the summary itself is uncapped.
const MaxOverdueLines = 50

const dueLayout = "2006-01-02"

// Summary renders the daily digest: per-assignee open-task counts sorted by
// count descending (ties by name, case-insensitive), plus an overdue total.
// Done tasks are excluded. Unparsable due dates are logged and not counted.
func Summary(tasks []model.Task, today time.Time) string {
	counts := make(map[string]int)
	overdue := 0
	for _, t := range tasks {
		if t.Status == model.StatusDone {
			continue
		}
		name := t.Assignee
		if name == "" {
			name = Unassigned
		}
		counts[name]++
		if isOverdue(t, today) {
			overdue++
		}
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})

	var b strings.Builder
	b.WriteString("<b>Ежедневная сводка задач</b>\n")
	for _, name := range names {
		fmt.Fprintf(&b, "%s: %d\n", name, counts[name])
	}
	fmt.Fprintf(&b, "Просрочено: <b>%d</b>", overdue)
	return b.String()
}

// Overdue returns the not-done tasks whose due date is strictly before
// today's calendar date, in input order.
func Overdue(tasks []model.Task, today time.Time) []model.Task {
	var out []model.Task
	for _, t := range tasks {
		if isOverdue(t, today) {
			out = append(out, t)
		}
	}
	return out
}

// FormatOverdue renders up to MaxOverdueLines overdue tasks. It returns ""
// when there is nothing to report, so callers can skip sending entirely.
func FormatOverdue(tasks []model.Task) string {
	if len(tasks) == 0 {
		return ""
	}
	lines := []string{"<b>Просроченные задачи</b>"}
	for i, t := range tasks {
		if i == MaxOverdueLines {
			break
		}
		assignee := t.Assignee
		if assignee == "" {
			assignee = "—"
		}
		line := fmt.Sprintf("<code>%s</code> • <b>%s</b> • %s • до %s", t.ID, t.Title, assignee, t.Due)
		if len(t.Labels) > 0 {
			line += " • #" + strings.TrimSpace(t.Labels[0])
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func isOverdue(t model.Task, today time.Time) bool {
	if t.Due == "" || t.Status == model.StatusDone {
		return false
	}
	due, err := time.ParseInLocation(dueLayout, t.Due, today.Location())
	if err != nil {
		slog.Warn("skipping unparsable due date", "task_id", t.ID, "due", t.Due)
		return false
	}
	year, month, day := today.Date()
	return due.Before(time.Date(year, month, day, 0, 0, 0, 0, today.Location()))
}
