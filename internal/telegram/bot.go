// Package telegram is the admin notification channel. It formats complaint
// notifications and delivers them to a fixed chat through the Bot API.
package telegram

import (
	"fmt"

	"complaintdesk/backend/internal/config"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Sender is the part of *tgbotapi.BotAPI used for delivery.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// NewBot authorizes against the Bot API with the configured token.
func NewBot(cfg config.TelegramConfig, log *zap.Logger) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("telegram: authorize bot: %w", err)
	}
	bot.Debug = cfg.Debug
	log.Info("telegram bot authorized", zap.String("username", bot.Self.UserName), zap.Int64("chat_id", cfg.ChatID))
	return bot, nil
}
