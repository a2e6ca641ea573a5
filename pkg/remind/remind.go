// Package remind manages the lifecycle of one-shot reminders over a
// row-oriented store: create, look up, poll for due, deliver, clean up.
package remind

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/harrisonrobin/taskbot/pkg/model"
	"github.com/harrisonrobin/taskbot/pkg/when"
)

// Row is a stored reminder together with its position in the backing table.
// Indices are stable only until the next deletion.
type Row struct {
	model.Reminder
	Index int // zero-based data row, excluding the header
}

// Store is the slice of the persistence layer the manager needs.
type Store interface {
	AppendReminder(ctx context.Context, r model.Reminder) error
	ListReminders(ctx context.Context) ([]Row, error)
	DeleteReminderRow(ctx context.Context, index int) error
}

// Sender delivers a rendered notification to a chat destination.
type Sender interface {
	Send(ctx context.Context, chatID int64, threadID int, text string) error
}

// Manager owns reminder state transitions: scheduled → fired (deleted) or
// scheduled → cancelled (deleted). There is no persisted failure state; a
// failed delivery simply leaves the row for the next poll.
type Manager struct {
	store Store
	send  Sender
	loc   *time.Location
	now   func() time.Time
}

func New(store Store, send Sender, loc *time.Location) *Manager {
	return &Manager{store: store, send: send, loc: loc, now: time.Now}
}

// Create schedules a reminder for taskID at the instant described by
// whenText. Time-parse failures propagate to the caller; the task id is not
// checked against the task table.
func (m *Manager) Create(ctx context.Context, taskID, whenText string, chatID int64, threadID int, createdBy string) (model.Reminder, error) {
	at, err := when.Resolve(whenText, m.now(), m.loc)
	if err != nil {
		return model.Reminder{}, err
	}
	r := model.Reminder{
		ID:        model.NewID(),
		TaskID:    taskID,
		WhenISO:   at.Format(time.RFC3339),
		ChatID:    chatID,
		ThreadID:  threadID,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		CreatedBy: createdBy,
	}
	if err := m.store.AppendReminder(ctx, r); err != nil {
		return model.Reminder{}, fmt.Errorf("append reminder: %w", err)
	}
	slog.Info("reminder added", "rid", r.ID, "task_id", taskID, "when", r.WhenISO)
	return r, nil
}

// ListByTask returns the reminders referencing taskID, in row order.
func (m *Manager) ListByTask(ctx context.Context, taskID string) ([]model.Reminder, error) {
	rows, err := m.store.ListReminders(ctx)
	if err != nil {
		return nil, err
	}
	var out []model.Reminder
	for _, r := range rows {
		if r.TaskID == taskID {
			out = append(out, r.Reminder)
		}
	}
	return out, nil
}

// CancelByTask removes every reminder referencing taskID and returns how
// many were removed. Rows are deleted bottom-up: the store reindexes on
// deletion, so deleting top-down would skip rows.
func (m *Manager) CancelByTask(ctx context.Context, taskID string) (int, error) {
	rows, err := m.store.ListReminders(ctx)
	if err != nil {
		return 0, err
	}
	var doomed []int
	for _, r := range rows {
		if r.TaskID == taskID {
			doomed = append(doomed, r.Index)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(doomed)))
	for i, idx := range doomed {
		if err := m.store.DeleteReminderRow(ctx, idx); err != nil {
			return i, fmt.Errorf("delete reminder row %d: %w", idx, err)
		}
	}
	slog.Info("reminders removed by task", "task_id", taskID, "count", len(doomed))
	return len(doomed), nil
}

// CancelByID removes a single reminder. It returns false when no row carries
// that id.
func (m *Manager) CancelByID(ctx context.Context, id string) (bool, error) {
	return m.deleteByID(ctx, id)
}

// PollDue returns the reminders whose instant is at or before now, comparing
// parsed timestamps chronologically. Rows with unparsable timestamps are
// logged and skipped, never fatal.
func (m *Manager) PollDue(ctx context.Context, now time.Time) ([]Row, error) {
	rows, err := m.store.ListReminders(ctx)
	if err != nil {
		return nil, err
	}
	var due []Row
	for _, r := range rows {
		if r.WhenISO == "" {
			continue
		}
		at, err := time.Parse(time.RFC3339, r.WhenISO)
		if err != nil {
			slog.Warn("skipping reminder with bad timestamp", "rid", r.ID, "when", r.WhenISO)
			continue
		}
		if !at.After(now) {
			due = append(due, r)
		}
	}
	return due, nil
}

// DeliverAndClear sends text to the reminder's destination, then deletes the
// row. The order is deliberate: on delivery failure the row stays in place
// and the next poll retries it, so delivery is at-least-once per reminder id.
// Once the clear succeeds the id can never be returned by PollDue again.
func (m *Manager) DeliverAndClear(ctx context.Context, r Row, text string) error {
	if err := m.send.Send(ctx, r.ChatID, r.ThreadID, text); err != nil {
		return fmt.Errorf("deliver reminder %s: %w", r.ID, err)
	}
	// Re-find by id rather than trusting r.Index: earlier deliveries in the
	// same tick may have shifted the rows below them.
	if _, err := m.deleteByID(ctx, r.ID); err != nil {
		return fmt.Errorf("clear reminder %s: %w", r.ID, err)
	}
	slog.Info("reminder fired", "rid", r.ID, "task_id", r.TaskID)
	return nil
}

func (m *Manager) deleteByID(ctx context.Context, id string) (bool, error) {
	rows, err := m.store.ListReminders(ctx)
	if err != nil {
		return false, err
	}
	for _, r := range rows {
		if r.ID == id {
			if err := m.store.DeleteReminderRow(ctx, r.Index); err != nil {
				return false, err
			}
			return true, nil
		}
	}
	return false, nil
}
