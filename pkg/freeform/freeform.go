// Package freeform extracts structured task fields from a single free-text
// line, e.g. "Починить деплой P1 @vadim до 2025-09-05 #deploy #frontend".
package freeform

import (
	"regexp"
	"strings"
)

var (
	dueRe   = regexp.MustCompile(`(?i)(?:до|by)\s*(\d{4}-\d{2}-\d{2})`)
	spaceRe = regexp.MustCompile(`\s+`)
)

var priorities = []string{"P0", "P1", "P2", "P3"}

// Parsed holds the fields recovered from one task line.
type Parsed struct {
	Title    string
	Priority string
	Assignee string // "@user", empty when absent
	Due      string // YYYY-MM-DD, empty when absent
	Labels   []string
	Project  string // first label; routes the task to its bound thread
}

// Parse never fails: every missing token falls back to a default.
func Parse(text string) Parsed {
	p := Parsed{Priority: "P2"}

	// Priority tokens match as plain substrings, even inside longer words.
	for _, pr := range priorities {
		if i := strings.Index(text, pr); i >= 0 {
			p.Priority = pr
			text = text[:i] + text[i+len(pr):]
			break
		}
	}

	if m := dueRe.FindStringSubmatchIndex(text); m != nil {
		p.Due = text[m[2]:m[3]]
		text = text[:m[0]] + text[m[1]:]
	}

	for _, tok := range strings.Fields(text) {
		if !strings.HasPrefix(tok, "#") {
			continue
		}
		if label := strings.Trim(strings.TrimPrefix(tok, "#"), ","); label != "" {
			p.Labels = append(p.Labels, label)
		}
		text = strings.Replace(text, tok, "", 1)
	}

	for _, tok := range strings.Fields(text) {
		if strings.HasPrefix(tok, "@") {
			p.Assignee = tok
			text = strings.Replace(text, tok, "", 1)
			break
		}
	}

	p.Title = strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))
	if len(p.Labels) > 0 {
		p.Project = p.Labels[0]
	}
	return p
}
