package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/healthchallenge/internal/config"
	"github.com/set-night/healthchallenge/internal/domain"
	"github.com/set-night/healthchallenge/internal/service"
)

// MessageSender is the part of *bot.Bot the logger needs.
type MessageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// Logger posts ledger events and server errors to topics of the admin chat.
type Logger struct {
	sender      MessageSender
	chatID      int64
	topicLedger int
	topicError  int
	now         func() time.Time
}

var _ service.Notifier = (*Logger)(nil)

func NewLogger(sender MessageSender, cfg *config.Config) *Logger {
	return &Logger{
		sender:      sender,
		chatID:      cfg.TelegramAdminChatID,
		topicLedger: cfg.TelegramTopicLedger,
		topicError:  cfg.TelegramTopicError,
		now:         time.Now,
	}
}

// NewBot builds a bot client for sending only; it never polls for updates.
func NewBot(token string) (*bot.Bot, error) {
	b, err := bot.New(token, bot.WithSkipGetMe())
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return b, nil
}

type LogType string

const (
	LogTypeLedger LogType = "ledger"
	LogTypeError  LogType = "error"
)

func (l *Logger) Log(ctx context.Context, logType LogType, message string) {
	if l.chatID == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), config.NotifyTimeout)
	defer cancel()

	for _, part := range SplitMessage(FixMarkdown(message), MaxMessageLen) {
		_, err := l.sender.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:          l.chatID,
			Text:            part,
			ParseMode:       models.ParseModeMarkdownV1,
			MessageThreadID: l.topicID(logType),
		})
		if err != nil {
			slog.Error("failed to send telegram log", "type", logType, "error", err)
			return
		}
	}
}

func (l *Logger) LogError(ctx context.Context, err error, where string) {
	msg := fmt.Sprintf("❌ *Error*\n\n*Context:* %s\n*Error:* `%s`\n*Time:* %s",
		EscapeMarkdown(where), err.Error(), l.now().Format(time.DateTime))
	l.Log(ctx, LogTypeError, msg)
}

func (l *Logger) PurchaseReviewed(ctx context.Context, p *domain.Purchase, c *domain.Commission) {
	l.Log(ctx, LogTypeLedger, purchaseReviewedMessage(p, c))
}

func (l *Logger) WithdrawalRequested(ctx context.Context, w *domain.Withdrawal) {
	l.Log(ctx, LogTypeLedger, withdrawalRequestedMessage(w))
}

func (l *Logger) WithdrawalProcessed(ctx context.Context, w *domain.Withdrawal) {
	l.Log(ctx, LogTypeLedger, withdrawalProcessedMessage(w))
}

func (l *Logger) topicID(logType LogType) int {
	switch logType {
	case LogTypeLedger:
		return l.topicLedger
	case LogTypeError:
		return l.topicError
	default:
		return 0
	}
}

func purchaseReviewedMessage(p *domain.Purchase, c *domain.Commission) string {
	icon := "✅"
	if p.Status != domain.PurchaseStatusVerified {
		icon = "🚫"
	}
	msg := fmt.Sprintf("%s *Purchase %s*\n\n*Purchase:* `%s`\n*User:* `%s`\n*Product:* %s\n*Amount:* %s",
		icon, p.Status, p.ID, p.UserID, EscapeMarkdown(p.ProductName), p.Amount.StringFixed(config.AmountScale))
	if c != nil {
		msg += fmt.Sprintf("\n*Commission:* %s to `%s`", c.Amount.StringFixed(config.AmountScale), c.UserID)
	}
	return msg
}

func withdrawalRequestedMessage(w *domain.Withdrawal) string {
	return fmt.Sprintf("💸 *Withdrawal Requested*\n\n*Request:* `%s`\n*User:* `%s`\n*Amount:* %s\n*Bank:* %s\n*Account:* `%s` (%s)",
		w.ID, w.UserID, w.Amount.StringFixed(config.AmountScale),
		EscapeMarkdown(w.Payout.BankName), w.Payout.AccountNumber, EscapeMarkdown(w.Payout.AccountName))
}

func withdrawalProcessedMessage(w *domain.Withdrawal) string {
	icon := "✅"
	if w.Status != domain.WithdrawalStatusPaid {
		icon = "🚫"
	}
	msg := fmt.Sprintf("%s *Withdrawal %s*\n\n*Request:* `%s`\n*User:* `%s`\n*Amount:* %s",
		icon, w.Status, w.ID, w.UserID, w.Amount.StringFixed(config.AmountScale))
	if w.AdminNote != "" {
		msg += "\n*Note:* " + EscapeMarkdown(w.AdminNote)
	}
	return msg
}
