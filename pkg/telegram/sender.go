package telegram

import (
	"bytes"
	"context"
	"fmt"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"github.com/rs/zerolog"

	"github.com/grvsrs/mqttgram/pkg/bridge"
)

// Sender delivers bridge output to the single configured destination chat.
// Every send targets that chat; replies target the message they answer.
type Sender struct {
	bot    *telego.Bot
	chatID telego.ChatID
	log    zerolog.Logger
}

var (
	_ bridge.ChatSender = (*Sender)(nil)
	_ bridge.Replier    = (*Sender)(nil)
)

// NewSender binds the bot to the destination chat.
func NewSender(bot *telego.Bot, chatID int64, log zerolog.Logger) *Sender {
	return &Sender{
		bot:    bot,
		chatID: tu.ID(chatID),
		log:    log.With().Str("component", "telegram-sender").Logger(),
	}
}

// SendText sends a text message to the destination chat.
func (s *Sender) SendText(ctx context.Context, text string) error {
	msg := tu.Message(s.chatID, text).WithParseMode(telego.ModeMarkdown)
	if _, err := s.bot.SendMessage(ctx, msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	s.log.Debug().Msg("text sent")
	return nil
}

// SendImage uploads data as a photo with the given caption.
func (s *Sender) SendImage(ctx context.Context, data []byte, filename, caption string) error {
	photo := tu.Photo(s.chatID, tu.File(tu.NameReader(bytes.NewReader(data), filename))).
		WithCaption(caption)
	if _, err := s.bot.SendPhoto(ctx, photo); err != nil {
		return fmt.Errorf("send photo: %w", err)
	}
	s.log.Debug().Str("filename", filename).Msg("image sent")
	return nil
}

// SendAnimation uploads data as an animation with the given caption.
func (s *Sender) SendAnimation(ctx context.Context, data []byte, filename, caption string) error {
	anim := tu.Animation(s.chatID, tu.File(tu.NameReader(bytes.NewReader(data), filename))).
		WithCaption(caption)
	if _, err := s.bot.SendAnimation(ctx, anim); err != nil {
		return fmt.Errorf("send animation: %w", err)
	}
	s.log.Debug().Str("filename", filename).Msg("animation sent")
	return nil
}

// Reply answers a specific inbound message in its chat.
func (s *Sender) Reply(ctx context.Context, to bridge.ChatMessage, text string) error {
	msg := tu.Message(tu.ID(to.ChatID), text).
		WithReplyParameters(&telego.ReplyParameters{MessageID: to.MessageID})
	if _, err := s.bot.SendMessage(ctx, msg); err != nil {
		return fmt.Errorf("send reply: %w", err)
	}
	return nil
}
