// Package telegram wraps the Telegram Bot API behind the bridge's sender,
// replier, and listener roles. One bot client backs all of them.
package telegram

import (
	"context"
	"fmt"

	"github.com/mymmrac/telego"
)

// NewBot constructs the shared bot client and verifies the token against
// the API so an auth failure is fatal at startup instead of surfacing as an
// endless polling error.
func NewBot(ctx context.Context, token string) (*telego.Bot, error) {
	bot, err := telego.NewBot(token, telego.WithDiscardLogger())
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	if _, err := bot.GetMe(ctx); err != nil {
		return nil, fmt.Errorf("verify bot token: %w", err)
	}
	return bot, nil
}
