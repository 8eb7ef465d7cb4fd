package telegram

import (
	"context"
	"fmt"

	"github.com/mymmrac/telego"
	"github.com/rs/zerolog"

	"github.com/grvsrs/mqttgram/pkg/bridge"
)

// Listener converts the bot's long-poll update stream into bridge chat
// messages. Non-message updates are skipped.
type Listener struct {
	bot *telego.Bot
	log zerolog.Logger
}

// NewListener binds the listener to the shared bot client.
func NewListener(bot *telego.Bot, log zerolog.Logger) *Listener {
	return &Listener{
		bot: bot,
		log: log.With().Str("component", "telegram-listener").Logger(),
	}
}

// Listen starts long polling. The returned channel closes when polling
// stops, which the chat relay reports so the supervisor can restart the
// listener.
func (l *Listener) Listen(ctx context.Context) (<-chan bridge.ChatMessage, error) {
	updates, err := l.bot.UpdatesViaLongPolling(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("start long polling: %w", err)
	}
	l.log.Info().Msg("long polling started")

	out := make(chan bridge.ChatMessage)
	go func() {
		defer close(out)
		for update := range updates {
			msg := update.Message
			if msg == nil {
				continue
			}
			cm := bridge.ChatMessage{
				ChatID:    msg.Chat.ID,
				MessageID: msg.MessageID,
				Text:      msg.Text,
			}
			select {
			case out <- cm:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
