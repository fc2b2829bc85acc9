// Package notify posts a short summary of new leads to a Telegram chat.
package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"leadgen/leads"
)

// maxMessageLen is Telegram's limit for one text message, in characters.
const maxMessageLen = 4096

// TelegramNotifier sends a lead summary to one chat.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	city   string
}

// NewTelegramNotifier authorizes the bot token against the Telegram API.
func NewTelegramNotifier(token string, chatID int64, city string) (*TelegramNotifier, error) {
	return NewTelegramNotifierWithEndpoint(token, tgbotapi.APIEndpoint, &http.Client{}, chatID, city)
}

// NewTelegramNotifierWithEndpoint is NewTelegramNotifier against a custom
// Bot API endpoint, formatted like tgbotapi.APIEndpoint.
func NewTelegramNotifierWithEndpoint(token, endpoint string, client *http.Client, chatID int64, city string) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("authorizing telegram bot: %w", err)
	}
	return &TelegramNotifier{bot: bot, chatID: chatID, city: city}, nil
}

func (n *TelegramNotifier) Name() string {
	return "telegram"
}

// Deliver sends the summary message. The Bot API client has no context
// support, so ctx is only checked before sending.
func (n *TelegramNotifier) Deliver(ctx context.Context, list leads.LeadList) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(n.chatID, Summary(n.city, list))
	msg.DisableWebPagePreview = true
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("sending telegram message: %w", err)
	}
	return nil
}

// Summary renders the message text: a heading, then one line per lead.
func Summary(city string, list leads.LeadList) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "New leads for %s (%d)", city, list.Len())
	for _, l := range list.Leads {
		sb.WriteString("\n• ")
		sb.WriteString(l.Company)
		if l.Email != "" {
			sb.WriteString(" — ")
			sb.WriteString(l.Email)
		}
	}

	text := sb.String()
	if utf8.RuneCountInString(text) > maxMessageLen {
		runes := []rune(text)
		text = string(runes[:maxMessageLen-1]) + "…"
	}
	return text
}
