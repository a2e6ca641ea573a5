package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot/models"

	"github.com/harrisonrobin/taskbot/pkg/freeform"
	"github.com/harrisonrobin/taskbot/pkg/model"
	"github.com/harrisonrobin/taskbot/pkg/query"
	"github.com/harrisonrobin/taskbot/pkg/when"
)

// maxListLines caps what a single reply shows; the filter engine itself
// returns everything.
const maxListLines = 50

const helpText = `<b>Команды</b>:
/add &lt;текст&gt; — создать задачу
/list [open|done|@user|#label] — список задач
/done &lt;ID&gt; — закрыть задачу
/assign &lt;ID&gt; @user — назначить
/due &lt;ID&gt; YYYY-MM-DD — срок
/who — сводка по людям
/bind #label — привязать тред к лейблу
/summary — сводка за сегодня
/remind &lt;ID&gt; &lt;время&gt; — напоминание (+30m, завтра 10:00)
/reminders &lt;ID&gt; — напоминания по задаче
/unremind &lt;ID&gt; — удалить напоминание`

func (h *Handlers) help(ctx context.Context, msg *models.Message, _ string) {
	h.reply(ctx, msg, helpText)
}

func (h *Handlers) add(ctx context.Context, msg *models.Message, args string) {
	if args == "" {
		h.reply(ctx, msg, "Пример: /add Починить деплой P1 @vadim до 2025-09-05 #deploy #frontend")
		return
	}

	p := freeform.Parse(args)
	t := model.NewTask(p.Title)
	t.Priority = p.Priority
	t.Assignee = p.Assignee
	t.Due = p.Due
	t.Labels = p.Labels

	// Route to the topic the command came from, else the project binding.
	threadID := msg.MessageThreadID
	if threadID == 0 && p.Project != "" {
		id, ok, err := h.store.GetThreadID(ctx, p.Project)
		if err != nil {
			slog.Warn("project thread lookup failed", "label", p.Project, "err", err)
		} else if ok {
			threadID = id
		}
	}
	t.ThreadID = threadID
	t.MessageLink = messageLink(msg.Chat.ID, msg.ID)

	if err := h.store.CreateTask(ctx, t); err != nil {
		slog.Error("create task failed", "err", err)
		h.reply(ctx, msg, "❌ Не удалось сохранить задачу")
		return
	}

	text := fmt.Sprintf("✅ <b>Создано</b>: %s\nID: <code>%s</code> | %s | %s%s\nLabels: %s",
		t.Title, t.ID, t.Priority, orDash(t.Assignee), dueSuffix(t.Due), labelList(t.Labels))
	if err := h.tr.Send(ctx, h.tr.ChatID(), threadID, text); err != nil {
		slog.Error("create confirmation failed", "task_id", t.ID, "err", err)
	}
}

func (h *Handlers) list(ctx context.Context, msg *models.Message, args string) {
	var c query.Criteria
	switch {
	case model.ValidStatus(args):
		c.Status = args
	case strings.HasPrefix(args, "@"):
		c.Assignee = args
	case strings.HasPrefix(args, "#"):
		c.Label = strings.TrimPrefix(args, "#")
	}

	tasks, err := h.store.ListTasks(ctx)
	if err != nil {
		slog.Error("list tasks failed", "err", err)
		h.reply(ctx, msg, "❌ Не удалось прочитать задачи")
		return
	}
	matched := query.Filter(tasks, c)
	if len(matched) == 0 {
		h.reply(ctx, msg, "Пусто")
		return
	}

	lines := make([]string, 0, maxListLines)
	for i, t := range matched {
		if i == maxListLines {
			break
		}
		lines = append(lines, taskLine(t))
	}
	h.reply(ctx, msg, strings.Join(lines, "\n"))
}

func (h *Handlers) done(ctx context.Context, msg *models.Message, args string) {
	if args == "" {
		h.reply(ctx, msg, "Укажи ID: /done 1a2b3c4d")
		return
	}
	h.mutate(ctx, msg, args, func() error {
		return h.store.UpdateStatus(ctx, args, model.StatusDone)
	})
}

func (h *Handlers) assign(ctx context.Context, msg *models.Message, args string) {
	fields := strings.Fields(args)
	if len(fields) != 2 || !strings.HasPrefix(fields[1], "@") {
		h.reply(ctx, msg, "Пример: /assign 1a2b3c4d @vadim")
		return
	}
	h.mutate(ctx, msg, fields[0], func() error {
		return h.store.AssignTask(ctx, fields[0], fields[1])
	})
}

func (h *Handlers) due(ctx context.Context, msg *models.Message, args string) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		h.reply(ctx, msg, "Пример: /due 1a2b3c4d 2025-09-05")
		return
	}
	if _, err := time.Parse("2006-01-02", fields[1]); err != nil {
		h.reply(ctx, msg, "Неверный формат даты, нужен YYYY-MM-DD")
		return
	}
	h.mutate(ctx, msg, fields[0], func() error {
		return h.store.SetDue(ctx, fields[0], fields[1])
	})
}

// mutate runs a single-task update and reports the outcome to the user.
func (h *Handlers) mutate(ctx context.Context, msg *models.Message, id string, op func() error) {
	switch err := op(); {
	case err == nil:
		h.reply(ctx, msg, "✅ Готово")
	case errors.Is(err, model.ErrNotFound):
		h.reply(ctx, msg, "❌ Не найдено")
	default:
		slog.Error("task update failed", "task_id", id, "err", err)
		h.reply(ctx, msg, "❌ Не удалось обновить задачу")
	}
}

func (h *Handlers) who(ctx context.Context, msg *models.Message, _ string) {
	tasks, err := h.store.ListTasks(ctx)
	if err != nil {
		slog.Error("list tasks failed", "err", err)
		h.reply(ctx, msg, "❌ Не удалось прочитать задачи")
		return
	}
	open := query.Filter(tasks, query.Criteria{Status: model.StatusOpen})
	if len(open) == 0 {
		h.reply(ctx, msg, "Пусто")
		return
	}
	counts := make(map[string]int)
	var order []string
	for _, t := range open {
		name := orDash(t.Assignee)
		if _, seen := counts[name]; !seen {
			order = append(order, name)
		}
		counts[name]++
	}
	lines := make([]string, 0, len(order))
	for _, name := range order {
		lines = append(lines, fmt.Sprintf("<b>%s</b>: %d", name, counts[name]))
	}
	h.reply(ctx, msg, strings.Join(lines, "\n"))
}

func (h *Handlers) bind(ctx context.Context, msg *models.Message, args string) {
	if msg.MessageThreadID == 0 {
		h.reply(ctx, msg, "Команда должна выполняться внутри треда (форум-топика).")
		return
	}
	if !strings.HasPrefix(args, "#") {
		h.reply(ctx, msg, "Пример: /bind #frontend")
		return
	}
	label := strings.TrimSpace(strings.TrimPrefix(args, "#"))
	if err := h.store.BindThread(ctx, label, msg.MessageThreadID); err != nil {
		slog.Error("bind thread failed", "label", label, "err", err)
		h.reply(ctx, msg, "❌ Не удалось привязать тред")
		return
	}
	h.reply(ctx, msg, fmt.Sprintf("✅ Тред привязан к лейблу <b>#%s</b>", label))
}

func (h *Handlers) summary(ctx context.Context, _ *models.Message, _ string) {
	h.DailySummary(ctx)
}

func (h *Handlers) remind(ctx context.Context, msg *models.Message, args string) {
	taskID, whenText, ok := strings.Cut(args, " ")
	if !ok {
		h.reply(ctx, msg, "Пример: /remind 1a2b3c4d +30m")
		return
	}
	creator := ""
	if msg.From != nil {
		creator = "@" + msg.From.Username
	}
	r, err := h.rem.Create(ctx, taskID, whenText, h.tr.ChatID(), msg.MessageThreadID, creator)
	switch {
	case errors.Is(err, when.ErrTimeParse):
		h.reply(ctx, msg, "Не могу распознать время. Примеры: +30m, +2h, завтра 10:00")
		return
	case err != nil:
		slog.Error("create reminder failed", "task_id", taskID, "err", err)
		h.reply(ctx, msg, "❌ Не удалось сохранить напоминание")
		return
	}
	h.reply(ctx, msg, fmt.Sprintf("⏰ Напоминание <code>%s</code> на %s", r.ID, r.WhenISO))
}

func (h *Handlers) reminders(ctx context.Context, msg *models.Message, args string) {
	if args == "" {
		h.reply(ctx, msg, "Пример: /reminders 1a2b3c4d")
		return
	}
	list, err := h.rem.ListByTask(ctx, args)
	if err != nil {
		slog.Error("list reminders failed", "task_id", args, "err", err)
		h.reply(ctx, msg, "❌ Не удалось прочитать напоминания")
		return
	}
	if len(list) == 0 {
		h.reply(ctx, msg, "Пусто")
		return
	}
	lines := make([]string, 0, len(list))
	for _, r := range list {
		lines = append(lines, fmt.Sprintf("<code>%s</code> • %s", r.ID, r.WhenISO))
	}
	h.reply(ctx, msg, strings.Join(lines, "\n"))
}

// unremind cancels by reminder id first, then falls back to cancelling every
// reminder of a task.
func (h *Handlers) unremind(ctx context.Context, msg *models.Message, args string) {
	if args == "" {
		h.reply(ctx, msg, "Пример: /unremind 1a2b3c4d")
		return
	}
	removed, err := h.rem.CancelByID(ctx, args)
	if err == nil && !removed {
		var count int
		if count, err = h.rem.CancelByTask(ctx, args); err == nil && count > 0 {
			h.reply(ctx, msg, fmt.Sprintf("✅ Удалено напоминаний: %d", count))
			return
		}
	}
	if err != nil {
		slog.Error("cancel reminder failed", "id", args, "err", err)
		h.reply(ctx, msg, "❌ Не удалось удалить напоминание")
		return
	}
	if removed {
		h.reply(ctx, msg, "✅ Удалено")
	} else {
		h.reply(ctx, msg, "❌ Не найдено")
	}
}

// ---------------------------------------------------------------------------
// formatting helpers

func taskLine(t model.Task) string {
	line := fmt.Sprintf("<code>%s</code> • <b>%s</b> • %s • %s", t.ID, t.Title, t.Priority, orDash(t.Assignee))
	line += dueSuffix(t.Due)
	if len(t.Labels) > 0 {
		line += " • #" + t.Labels[0]
	}
	return line
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

func dueSuffix(due string) string {
	if due == "" {
		return ""
	}
	return " • до " + due
}

func labelList(labels []string) string {
	if len(labels) == 0 {
		return "—"
	}
	return strings.Join(labels, ", ")
}

// messageLink builds the t.me permalink of a supergroup message.
func messageLink(chatID int64, messageID int) string {
	id := strings.TrimPrefix(strconv.FormatInt(chatID, 10), "-100")
	return fmt.Sprintf("https://t.me/c/%s/%d", id, messageID)
}
