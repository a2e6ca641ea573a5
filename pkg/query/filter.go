// Package query filters task collections for the list-style commands.
package query

import (
	"strings"

	"github.com/harrisonrobin/taskbot/pkg/model"
)

// Criteria are independent, composable predicates. Zero values match
// everything.
type Criteria struct {
	Status   string // exact match against the task status
	Assignee string // case-insensitive substring match
	Label    string // exact membership in the task's label list
}

// Filter returns the tasks matching every set criterion, preserving input
// order. No matches yields an empty result, never an error. Callers apply
// their own display cap; the full set is returned.
func Filter(tasks []model.Task, c Criteria) []model.Task {
	var out []model.Task
	for _, t := range tasks {
		if c.Status != "" && t.Status != c.Status {
			continue
		}
		if c.Assignee != "" && !strings.Contains(strings.ToLower(t.Assignee), strings.ToLower(c.Assignee)) {
			continue
		}
		if c.Label != "" && !HasLabel(t, c.Label) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// HasLabel reports whether label appears exactly in the task's label list,
// comparing entries after trimming surrounding whitespace.
func HasLabel(t model.Task, label string) bool {
	for _, l := range t.Labels {
		if strings.TrimSpace(l) == label {
			return true
		}
	}
	return false
}

// FilterAnyLabel keeps tasks carrying at least one of the requested labels,
// preserving input order. An empty request passes everything.
func FilterAnyLabel(tasks []model.Task, labels []string) []model.Task {
	if len(labels) == 0 {
		return tasks
	}
	var out []model.Task
	for _, t := range tasks {
		for _, label := range labels {
			if HasLabel(t, label) {
				out = append(out, t)
				break
			}
		}
	}
	return out
}
