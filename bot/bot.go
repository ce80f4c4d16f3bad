// Package bot wires product extraction to Telegram chats.
package bot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SaimonDevStore/SJOFERTAS/models"
	"github.com/SaimonDevStore/SJOFERTAS/parser"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
)

// Sender is the part of the Telegram API the bot replies through.
// *tgbotapi.BotAPI satisfies it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Extractor turns a product link into a record.
type Extractor interface {
	Extract(rawURL string) models.ProductRecord
}

// Bot answers commands and product links.
type Bot struct {
	sender    Sender
	extractor Extractor
	messages  *prometheus.CounterVec
}

// New builds a bot. When reg is not nil the message counter is registered on it.
func New(sender Sender, extractor Extractor, reg prometheus.Registerer) (*Bot, error) {
	if sender == nil {
		return nil, fmt.Errorf("sender is nil")
	}
	if extractor == nil {
		return nil, fmt.Errorf("extractor is nil")
	}

	messages := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sjofertas_messages_total",
			Help: "Chat messages handled, by result.",
		},
		[]string{"result"},
	)
	if reg != nil {
		if err := reg.Register(messages); err != nil {
			return nil, fmt.Errorf("register message metrics: %w", err)
		}
	}

	return &Bot{
		sender:    sender,
		extractor: extractor,
		messages:  messages,
	}, nil
}

// Handle processes one chat message. Only the first link in the text is used.
func (b *Bot) Handle(ctx context.Context, msg models.Message) error {
	switch msg.Command {
	case "start":
		b.count("command")
		return b.reply(msg.ChatID, welcomeText)
	case "status":
		b.count("command")
		return b.reply(msg.ChatID, statusText)
	case "":
	default:
		b.count("ignored")
		return nil
	}

	links := ExtractURLs(msg.Text)
	if len(links) == 0 {
		b.count("no_link")
		return nil
	}
	link := links[0]
	if len(links) > 1 {
		slog.Debug("extra links ignored", slog.Int64("chat_id", msg.ChatID), slog.Int("count", len(links)-1))
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.processLink(msg, link)
}

func (b *Bot) processLink(msg models.Message, link string) error {
	processing, err := b.sender.Send(tgbotapi.NewMessage(msg.ChatID, processingText))
	if err != nil {
		b.count("failed")
		return fmt.Errorf("send processing message: %w", err)
	}

	slog.Info("processing product link",
		slog.Int64("chat_id", msg.ChatID),
		slog.String("url", link),
	)
	record := b.extractor.Extract(link)

	if err := parser.ValidateRecord(&record); err != nil {
		b.count("failed")
		edit := tgbotapi.NewEditMessageText(msg.ChatID, processing.MessageID, extractFailedText)
		if _, editErr := b.sender.Request(edit); editErr != nil {
			slog.Debug("edit processing message", slog.Any("error", editErr))
		}
		return fmt.Errorf("extract %s: %w", link, err)
	}

	b.deleteMessage(msg.ChatID, processing.MessageID)

	text := FormatProduct(record, link)
	if record.ImageURL != "" {
		photo := tgbotapi.NewPhoto(msg.ChatID, tgbotapi.FileURL(record.ImageURL))
		photo.Caption = text
		photo.ParseMode = tgbotapi.ModeMarkdown
		_, err := b.sender.Send(photo)
		if err == nil {
			b.count("photo")
			return nil
		}
		slog.Info("photo reply failed, sending text",
			slog.String("image_url", record.ImageURL),
			slog.Any("error", err),
		)
	}

	if err := b.reply(msg.ChatID, text); err != nil {
		b.count("failed")
		b.fail(msg.ChatID, processing.MessageID)
		return fmt.Errorf("send product reply: %w", err)
	}
	b.count("text")
	return nil
}

// fail tells the user something went wrong and removes the placeholder.
func (b *Bot) fail(chatID int64, processingID int) {
	b.deleteMessage(chatID, processingID)
	if _, err := b.sender.Send(tgbotapi.NewMessage(chatID, genericFailure)); err != nil {
		slog.Error("send failure message", slog.Int64("chat_id", chatID), slog.Any("error", err))
	}
}

func (b *Bot) deleteMessage(chatID int64, messageID int) {
	if _, err := b.sender.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		slog.Debug("delete message", slog.Int("message_id", messageID), slog.Any("error", err))
	}
}

func (b *Bot) reply(chatID int64, text string) error {
	out := tgbotapi.NewMessage(chatID, text)
	out.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.sender.Send(out); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func (b *Bot) count(result string) {
	b.messages.WithLabelValues(result).Inc()
}
