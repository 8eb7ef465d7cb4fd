package bridge

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// BrokerRelay routes inbound broker messages to the chat channel. It runs
// inside the MQTT client's dispatch goroutine, one message at a time; every
// per-message failure is logged and the message dropped so dispatch keeps
// going.
type BrokerRelay struct {
	fetcher Fetcher
	sender  ChatSender
	log     zerolog.Logger
}

// NewBrokerRelay wires the routing step to its collaborators.
func NewBrokerRelay(fetcher Fetcher, sender ChatSender, log zerolog.Logger) *BrokerRelay {
	return &BrokerRelay{
		fetcher: fetcher,
		sender:  sender,
		log:     log.With().Str("component", "broker-relay").Logger(),
	}
}

// HandleMessage classifies one broker delivery and forwards it to the chat.
func (r *BrokerRelay) HandleMessage(ctx context.Context, topic string, payload []byte) {
	msg := BrokerMessage{ID: uuid.NewString(), Topic: topic, Payload: payload}
	log := r.log.With().Str("id", msg.ID).Str("topic", msg.Topic).Logger()

	switch p := Classify(msg.Payload).(type) {
	case MediaPayload:
		log.Info().Str("url", p.URL).Str("kind", p.Kind.String()).Msg("relaying media payload")
		if err := r.relayMedia(ctx, msg.Topic, p); err != nil {
			log.Error().Err(err).Msg("media relay failed")
			return
		}
		log.Debug().Msg("media sent to chat")
	case TextPayload:
		log.Info().Msg("relaying text payload")
		text := fmt.Sprintf("Topic: %s\nMessage: %s", msg.Topic, p.Text)
		if err := r.sender.SendText(ctx, text); err != nil {
			log.Error().Err(err).Msg("text send failed")
			return
		}
		log.Debug().Msg("text sent to chat")
	}
}

func (r *BrokerRelay) relayMedia(ctx context.Context, topic string, p MediaPayload) error {
	data, err := r.fetcher.Fetch(ctx, p.URL)
	if err != nil {
		return err
	}

	caption := fmt.Sprintf("Topic: %s", topic)
	filename := "snapshot." + p.Ext
	if p.Kind == MediaAnimation {
		return r.sender.SendAnimation(ctx, data, filename, caption)
	}
	return r.sender.SendImage(ctx, data, filename, caption)
}
