package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/harrisonrobin/taskbot/pkg/digest"
	"github.com/harrisonrobin/taskbot/pkg/remind"
)

// DailySummary posts the digest to the summary topic. It is both a cron job
// and the body of /summary.
func (h *Handlers) DailySummary(ctx context.Context) {
	tasks, err := h.store.ListTasks(ctx)
	if err != nil {
		slog.Error("daily summary failed", "err", err)
		return
	}
	text := digest.Summary(tasks, time.Now().In(h.loc))
	if err := h.tr.SendToLabel(ctx, h.summaryLabel, 0, text); err != nil {
		slog.Error("daily summary send failed", "err", err)
	}
}

// OverdueReport posts the overdue task list. Nothing is sent when no task
// is overdue.
func (h *Handlers) OverdueReport(ctx context.Context) {
	tasks, err := h.store.ListTasks(ctx)
	if err != nil {
		slog.Error("overdue report failed", "err", err)
		return
	}
	text := digest.FormatOverdue(digest.Overdue(tasks, time.Now().In(h.loc)))
	if text == "" {
		return
	}
	if err := h.tr.SendToLabel(ctx, h.summaryLabel, 0, text); err != nil {
		slog.Error("overdue report send failed", "err", err)
	}
}

// ReminderTick fires every due reminder. Failures are isolated per reminder
// so one broken delivery never blocks the rest of the batch; failed rows
// stay in the sheet and are retried on the next tick.
func (h *Handlers) ReminderTick(ctx context.Context) {
	due, err := h.rem.PollDue(ctx, time.Now().In(h.loc))
	if err != nil {
		slog.Error("reminder poll failed", "err", err)
		return
	}
	for _, r := range due {
		if err := h.rem.DeliverAndClear(ctx, r, h.reminderText(ctx, r)); err != nil {
			slog.Error("reminder delivery failed", "rid", r.ID, "err", err)
		}
	}
}

func (h *Handlers) reminderText(ctx context.Context, r remind.Row) string {
	if t, err := h.store.FindTask(ctx, r.TaskID); err == nil {
		return fmt.Sprintf("⏰ <b>Напоминание</b>: %s\nID: <code>%s</code>", t.Title, t.ID)
	}
	return fmt.Sprintf("⏰ <b>Напоминание</b> по задаче <code>%s</code>", r.TaskID)
}
