package bot

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/SaimonDevStore/SJOFERTAS/models"
	"github.com/SaimonDevStore/SJOFERTAS/pipeline"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// UpdateSource delivers Telegram updates. *tgbotapi.BotAPI satisfies it.
type UpdateSource interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Processor accepts messages for handling.
type Processor interface {
	Process(msg models.Message) error
}

// Poll long-polls src and forwards text messages to p until ctx is done, the
// update channel closes or p stops accepting messages.
func Poll(ctx context.Context, src UpdateSource, p Processor, timeout time.Duration) {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = int(timeout / time.Second)
	updateConfig.AllowedUpdates = []string{"message"}

	updates := src.GetUpdatesChan(updateConfig)
	defer src.StopReceivingUpdates()

	slog.Info("polling for updates", slog.Int("timeout_seconds", updateConfig.Timeout))
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			msg, ok := MessageFromUpdate(update)
			if !ok {
				continue
			}
			if err := p.Process(msg); err != nil {
				if errors.Is(err, pipeline.ErrPipelineClosed) || errors.Is(err, context.Canceled) {
					return
				}
				slog.Error("queue message", slog.Int("update_id", msg.UpdateID), slog.Any("error", err))
			}
		}
	}
}

// MessageFromUpdate keeps the fields of an update the bot acts on. Updates
// without a text message are rejected.
func MessageFromUpdate(update tgbotapi.Update) (models.Message, bool) {
	m := update.Message
	if m == nil || m.Chat == nil || m.Text == "" {
		return models.Message{}, false
	}
	return models.Message{
		UpdateID:  update.UpdateID,
		ChatID:    m.Chat.ID,
		MessageID: m.MessageID,
		Text:      m.Text,
		Command:   m.Command(),
	}, true
}
