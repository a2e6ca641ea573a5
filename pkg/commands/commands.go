// Package commands binds chat slash commands to the task engine.
package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/harrisonrobin/taskbot/pkg/model"
	"github.com/harrisonrobin/taskbot/pkg/remind"
)

// Store is the slice of the persistence layer the command surface needs.
type Store interface {
	CreateTask(ctx context.Context, t model.Task) error
	ListTasks(ctx context.Context) ([]model.Task, error)
	FindTask(ctx context.Context, id string) (model.Task, error)
	UpdateStatus(ctx context.Context, id, status string) error
	AssignTask(ctx context.Context, id, assignee string) error
	SetDue(ctx context.Context, id, due string) error
	BindThread(ctx context.Context, label string, threadID int) error
	GetThreadID(ctx context.Context, label string) (int, bool, error)
}

// Transport sends messages out; destinations resolve to the explicit thread
// id, then a label binding, then the bare group chat.
type Transport interface {
	Send(ctx context.Context, chatID int64, threadID int, text string) error
	SendToLabel(ctx context.Context, label string, fallbackThread int, text string) error
	ChatID() int64
}

// Handlers hold every dependency the commands need; there is no package
// state, the composition root wires one instance.
type Handlers struct {
	store        Store
	tr           Transport
	rem          *remind.Manager
	loc          *time.Location
	summaryLabel string
}

func New(store Store, tr Transport, rem *remind.Manager, loc *time.Location, summaryLabel string) *Handlers {
	return &Handlers{store: store, tr: tr, rem: rem, loc: loc, summaryLabel: summaryLabel}
}

// handlerFunc processes one inbound command; args is the text after the
// command itself, already trimmed.
type handlerFunc func(ctx context.Context, msg *models.Message, args string)

// Router dispatches slash commands. Timing/log middleware is applied here,
// uniformly, instead of being woven into each handler.
type Router struct {
	routes map[string]handlerFunc
}

// Router builds the command table.
func (h *Handlers) Router() *Router {
	return &Router{routes: map[string]handlerFunc{
		"/start":     h.help,
		"/help":      h.help,
		"/add":       h.add,
		"/list":      h.list,
		"/done":      h.done,
		"/assign":    h.assign,
		"/due":       h.due,
		"/who":       h.who,
		"/bind":      h.bind,
		"/summary":   h.summary,
		"/remind":    h.remind,
		"/reminders": h.reminders,
		"/unremind":  h.unremind,
	}}
}

// Handle is the bot's default update handler.
func (r *Router) Handle(ctx context.Context, _ *bot.Bot, upd *models.Update) {
	msg := upd.Message
	if msg == nil || !strings.HasPrefix(msg.Text, "/") {
		return
	}
	cmd, args, _ := strings.Cut(msg.Text, " ")
	// strip the "@botname" suffix used in group chats
	if i := strings.Index(cmd, "@"); i > 0 {
		cmd = cmd[:i]
	}
	fn, ok := r.routes[cmd]
	if !ok {
		return
	}
	started := time.Now()
	defer func() {
		slog.Info("handler timing", "handler", strings.TrimPrefix(cmd, "/"), "ms", time.Since(started).Milliseconds())
	}()
	fn(ctx, msg, strings.TrimSpace(args))
}

// reply answers in the chat and topic the command came from.
func (h *Handlers) reply(ctx context.Context, msg *models.Message, text string) {
	if err := h.tr.Send(ctx, msg.Chat.ID, msg.MessageThreadID, text); err != nil {
		slog.Error("reply failed", "chat_id", msg.Chat.ID, "err", err)
	}
}
