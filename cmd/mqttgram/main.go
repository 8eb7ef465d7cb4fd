// Command mqttgram bridges an MQTT broker and a Telegram chat. Messages on
// the subscribed output topics are forwarded to the chat (direct media URLs
// are fetched and attached); chat messages from the authorized user are
// published to a fixed input topic.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/grvsrs/mqttgram/pkg/bridge"
	"github.com/grvsrs/mqttgram/pkg/config"
	"github.com/grvsrs/mqttgram/pkg/logger"
	"github.com/grvsrs/mqttgram/pkg/mqttc"
	"github.com/grvsrs/mqttgram/pkg/telegram"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "mqttgram:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "optional YAML config file (environment overrides it)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bot, err := telegram.NewBot(ctx, cfg.TelegramToken)
	if err != nil {
		return err
	}
	sender := telegram.NewSender(bot, cfg.TelegramChatID, log)
	listener := telegram.NewListener(bot, log)

	fetcher := bridge.NewHTTPFetcher(cfg.FetchTimeout.Std())
	brokerRelay := bridge.NewBrokerRelay(fetcher, sender, log)

	client := mqttc.New(mqttc.Options{
		URL:          cfg.BrokerURL(),
		ClientID:     cfg.ClientID,
		Username:     cfg.BrokerUsername,
		Password:     cfg.BrokerPassword,
		OutputTopics: cfg.OutputTopics,
		StatusTopic:  cfg.StatusTopic,
	}, func(topic string, payload []byte) {
		brokerRelay.HandleMessage(ctx, topic, payload)
	}, log)

	if err := client.Connect(); err != nil {
		return err
	}
	defer client.Close()

	chatRelay := bridge.NewChatRelay(client, sender, cfg.InputTopic, cfg.TelegramChatID, log)

	log.Info().
		Str("broker", cfg.BrokerURL()).
		Strs("output_topics", cfg.OutputTopics).
		Str("input_topic", cfg.InputTopic).
		Msg("bridge started")

	err = bridge.NewSupervisor(log).Run(ctx, "chat-listener", func(ctx context.Context) error {
		messages, err := listener.Listen(ctx)
		if err != nil {
			return err
		}
		return chatRelay.Run(ctx, messages)
	})
	if errors.Is(err, context.Canceled) {
		log.Info().Msg("shutting down")
		return nil
	}
	return err
}
