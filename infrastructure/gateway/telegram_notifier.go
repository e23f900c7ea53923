package gateway

import (
	"context"
	"fmt"

	"github.com/itout-datetoya/transfer-tracker/domain/gateway"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// TransferNotifier インターフェースを実装する構造体
// 閾値を超えた送金をTelegramのチャットに通知する
type telegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger *zap.Logger
}

// telegramNotifier の新しいインスタンスを生成
func NewTelegramNotifier(botToken string, chatID int64, logger *zap.Logger) (*telegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	logger.Info("telegram notifier authorized", zap.String("account", bot.Self.UserName))

	return &telegramNotifier{
		bot:    bot,
		chatID: chatID,
		logger: logger,
	}, nil
}

// 大口送金をチャットに通知
func (n *telegramNotifier) NotifyLargeTransfer(ctx context.Context, event *gateway.TransferEvent) error {
	text := fmt.Sprintf("Large transfer detected: %s\nfrom: %s\nto: %s\ntx: %s",
		event.Amount.String(), event.Sender, event.Receiver, event.TxHash)

	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}
