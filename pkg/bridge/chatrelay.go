package bridge

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

const publishFailedReply = "ERROR - Publishing to MQTT failed"

// ChatRelay forwards chat messages from the single authorized sender to the
// broker input topic and acknowledges each one. Messages from anyone else
// are dropped with a warning and no reply.
type ChatRelay struct {
	publisher  Publisher
	replier    Replier
	inputTopic string
	allowedID  int64
	log        zerolog.Logger
}

// NewChatRelay wires the chat-to-broker direction.
func NewChatRelay(publisher Publisher, replier Replier, inputTopic string, allowedID int64, log zerolog.Logger) *ChatRelay {
	return &ChatRelay{
		publisher:  publisher,
		replier:    replier,
		inputTopic: inputTopic,
		allowedID:  allowedID,
		log:        log.With().Str("component", "chat-relay").Logger(),
	}
}

// Run consumes inbound chat messages until ctx is cancelled or the stream
// closes. A closed stream is an error: the listener died and the supervisor
// should restart it.
func (r *ChatRelay) Run(ctx context.Context, messages <-chan ChatMessage) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return errors.New("chat message stream closed")
			}
			r.handle(ctx, msg)
		}
	}
}

func (r *ChatRelay) handle(ctx context.Context, msg ChatMessage) {
	if msg.ChatID != r.allowedID {
		r.log.Warn().Int64("chat_id", msg.ChatID).Msg("ignoring message from unauthorized chat")
		return
	}

	if err := r.publisher.Publish(r.inputTopic, []byte(msg.Text)); err != nil {
		r.log.Error().Err(err).Str("topic", r.inputTopic).Msg("publish failed")
		if rerr := r.replier.Reply(ctx, msg, publishFailedReply); rerr != nil {
			r.log.Error().Err(rerr).Msg("failure reply failed")
		}
		return
	}

	r.log.Info().Str("topic", r.inputTopic).Msg("chat message published")
	if err := r.replier.Reply(ctx, msg, fmt.Sprintf("Sent to `%s`", r.inputTopic)); err != nil {
		r.log.Error().Err(err).Msg("ack reply failed")
	}
}
