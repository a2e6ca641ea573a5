package model

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound reports that no record matched the requested key.
var ErrNotFound = errors.New("not found")

// Task statuses. Anything else normalizes to StatusOpen.
const (
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
	StatusBlocked    = "blocked"
)

// DefaultPriority is assumed when a task line carries no priority token.
const DefaultPriority = "P2"

// Priorities in scan order, most urgent first.
var Priorities = []string{"P0", "P1", "P2", "P3"}

// Task is a unit of work, stored as one spreadsheet row.
type Task struct {
	ID          string
	Title       string
	Description string
	Status      string
	Assignee    string
	Priority    string
	Due         string // YYYY-MM-DD, empty when unset
	Labels      []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Source      string
	ThreadID    int // forum topic the task belongs to, 0 when unbound
	MessageLink string
}

// NewTask builds a task with a fresh id, normalized defaults and UTC
// timestamps at second precision. CreatedAt never changes afterwards;
// the store refreshes UpdatedAt on every mutation.
func NewTask(title string) Task {
	now := time.Now().UTC().Truncate(time.Second)
	return Task{
		ID:        NewID(),
		Title:     strings.TrimSpace(title),
		Status:    StatusOpen,
		Priority:  DefaultPriority,
		CreatedAt: now,
		UpdatedAt: now,
		Source:    "tg",
	}
}

// NewID mints the short opaque token used for task and reminder ids.
func NewID() string {
	return uuid.NewString()[:8]
}

// ValidStatus reports whether s is one of the four task statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusDone, StatusBlocked:
		return true
	}
	return false
}

// NormalizeStatus returns s unchanged when valid, StatusOpen otherwise.
func NormalizeStatus(s string) string {
	if ValidStatus(s) {
		return s
	}
	return StatusOpen
}

// NormalizePriority returns p unchanged when valid, DefaultPriority otherwise.
func NormalizePriority(p string) string {
	for _, known := range Priorities {
		if p == known {
			return p
		}
	}
	return DefaultPriority
}

// ThreadBinding routes messages for a label to a forum topic.
// Labels are case-sensitive and unique; rebinding is last-write-wins.
type ThreadBinding struct {
	Label     string
	ThreadID  int
	CreatedAt time.Time
}

// Reminder is a scheduled one-shot notification. TaskID is not validated
// against the task table. WhenISO keeps the configured zone offset so the
// sheet stays readable in local time.
type Reminder struct {
	ID        string
	TaskID    string
	WhenISO   string
	ChatID    int64
	ThreadID  int
	CreatedAt time.Time
	CreatedBy string
}
