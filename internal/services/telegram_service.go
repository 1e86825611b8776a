package services

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"taskhive/internal/logging"
)

// TelegramService delivers push notifications to users that linked a chat.
type TelegramService struct {
	bot    *tgbotapi.BotAPI
	dryRun bool
}

// NewTelegramService connects the bot. Returns a nil-bot service (all sends
// skipped) when no token is configured or the connect fails, so a missing
// integration never takes the API down.
func NewTelegramService(botToken string, dryRun bool) *TelegramService {
	if botToken == "" {
		return &TelegramService{dryRun: dryRun}
	}
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		logging.Logger.Warnf("[tg][init][err] bot connect failed: %v", err)
		return &TelegramService{dryRun: dryRun}
	}
	logging.Logger.Infof("[tg][init] authorized as @%s", bot.Self.UserName)
	return &TelegramService{bot: bot, dryRun: dryRun}
}

func (t *TelegramService) SendMessage(chatID int64, text string) error {
	if t == nil || t.bot == nil || chatID == 0 {
		logging.Logger.Infof("[tg][skip] bot or chatID empty (bot? %v chatID=%d)", t != nil && t.bot != nil, chatID)
		return nil
	}
	if t.dryRun {
		logging.Logger.Infof("[tg][dry-run] chatID=%d text=%q", chatID, text)
		return nil
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	if _, err := t.bot.Send(msg); err != nil {
		logging.Logger.Warnf("[tg][send][err] chatID=%d: %v", chatID, err)
		return err
	}
	return nil
}

// IsDeadChat reports whether a send failure means the chat binding is gone
// for good and should be pruned from the user.
func IsDeadChat(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "bot was blocked") ||
		strings.Contains(msg, "chat not found") ||
		strings.Contains(msg, "user is deactivated")
}
