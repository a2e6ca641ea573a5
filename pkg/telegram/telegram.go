// Package telegram adapts the Telegram Bot API for the rest of the system:
// a narrow "send text to a destination" capability with thread routing.
package telegram

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// ThreadLookup resolves a label to a bound forum-topic id.
type ThreadLookup interface {
	GetThreadID(ctx context.Context, label string) (int, bool, error)
}

// Client wraps the bot API client with the group chat it operates in.
type Client struct {
	api    *bot.Bot
	chatID int64
	lookup ThreadLookup
}

func New(api *bot.Bot, chatID int64, lookup ThreadLookup) *Client {
	return &Client{api: api, chatID: chatID, lookup: lookup}
}

// ChatID returns the group chat the client posts to.
func (c *Client) ChatID() int64 {
	return c.chatID
}

// Send posts HTML text to a chat, inside the given forum topic when
// threadID is non-zero.
func (c *Client) Send(ctx context.Context, chatID int64, threadID int, text string) error {
	params := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	if threadID != 0 {
		params.MessageThreadID = threadID
	}
	if _, err := c.api.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("send to chat %d: %w", chatID, err)
	}
	return nil
}

// SendToLabel posts to the topic bound to label. Fallback order: label
// binding, then fallbackThread, then the bare group chat.
func (c *Client) SendToLabel(ctx context.Context, label string, fallbackThread int, text string) error {
	threadID := 0
	if label != "" {
		id, ok, err := c.lookup.GetThreadID(ctx, label)
		switch {
		case err != nil:
			slog.Warn("thread lookup failed", "label", label, "err", err)
		case ok:
			threadID = id
		}
	}
	if threadID == 0 {
		threadID = fallbackThread
	}
	if threadID == 0 {
		slog.Warn("no thread binding, posting to chat", "label", label)
	}
	return c.Send(ctx, c.chatID, threadID, text)
}
