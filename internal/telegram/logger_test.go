package telegram

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"github.com/set-night/healthchallenge/internal/config"
	"github.com/set-night/healthchallenge/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	sent []*bot.SendMessageParams
	err  error
}

func (f *fakeSender) SendMessage(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, params)
	return &models.Message{}, nil
}

func newTestLogger(chatID int64) (*Logger, *fakeSender) {
	sender := &fakeSender{}
	l := NewLogger(sender, &config.Config{
		TelegramAdminChatID: chatID,
		TelegramTopicLedger: 11,
		TelegramTopicError:  12,
	})
	l.now = func() time.Time { return time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC) }
	return l, sender
}

func TestLogger_PurchaseReviewed(t *testing.T) {
	l, sender := newTestLogger(-100)
	p := &domain.Purchase{
		ID:          uuid.New(),
		UserID:      uuid.New(),
		ProductName: "30_day_plan",
		Amount:      decimal.RequireFromString("150000"),
		Status:      domain.PurchaseStatusVerified,
	}
	c := &domain.Commission{UserID: uuid.New(), Amount: decimal.RequireFromString("15000")}

	l.PurchaseReviewed(context.Background(), p, c)

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, int64(-100), msg.ChatID)
	assert.Equal(t, 11, msg.MessageThreadID)
	assert.Contains(t, msg.Text, "150000.00")
	assert.Contains(t, msg.Text, "*Commission:* 15000.00")
	assert.Contains(t, msg.Text, `30\_day\_plan`)
}

func TestLogger_WithdrawalMessages(t *testing.T) {
	l, sender := newTestLogger(-100)
	w := &domain.Withdrawal{
		ID:     uuid.New(),
		UserID: uuid.New(),
		Amount: decimal.RequireFromString("60"),
		Payout: domain.PayoutDetails{BankName: "BCA", AccountNumber: "123", AccountName: "Sari"},
		Status: domain.WithdrawalStatusPending,
	}

	l.WithdrawalRequested(context.Background(), w)
	w.Status = domain.WithdrawalStatusRejected
	w.AdminNote = "wrong *account*"
	l.WithdrawalProcessed(context.Background(), w)

	require.Len(t, sender.sent, 2)
	assert.Contains(t, sender.sent[0].Text, "Withdrawal Requested")
	assert.Contains(t, sender.sent[0].Text, "BCA")
	assert.Contains(t, sender.sent[1].Text, "Withdrawal rejected")
	assert.Contains(t, sender.sent[1].Text, `wrong \*account\*`)
}

func TestLogger_LogErrorUsesErrorTopic(t *testing.T) {
	l, sender := newTestLogger(-100)

	l.LogError(context.Background(), errors.New("db down"), "GET /api/health")

	require.Len(t, sender.sent, 1)
	assert.Equal(t, 12, sender.sent[0].MessageThreadID)
	assert.Contains(t, sender.sent[0].Text, "db down")
	assert.Contains(t, sender.sent[0].Text, "2026-03-10 09:00:00")
}

func TestLogger_DisabledWithoutChat(t *testing.T) {
	l, sender := newTestLogger(0)

	l.LogError(context.Background(), errors.New("x"), "y")
	assert.Empty(t, sender.sent)
}

func TestLogger_SendFailureIsSwallowed(t *testing.T) {
	l, sender := newTestLogger(-100)
	sender.err = errors.New("telegram unavailable")

	assert.NotPanics(t, func() {
		l.LogError(context.Background(), errors.New("x"), "y")
	})
}

func TestSplitMessage(t *testing.T) {
	assert.Equal(t, []string{"short"}, SplitMessage("short", 10))

	text := strings.Repeat("a", 6) + "\n" + strings.Repeat("b", 6)
	parts := SplitMessage(text, 10)
	require.Len(t, parts, 2)
	assert.Equal(t, strings.Repeat("a", 6)+"\n", parts[0])
	assert.Equal(t, strings.Repeat("b", 6), parts[1])

	parts = SplitMessage(strings.Repeat("é", 25), 10)
	require.Len(t, parts, 3)
	assert.Equal(t, strings.Repeat("é", 10), parts[0])
	assert.Equal(t, strings.Repeat("é", 5), parts[2])
}

func TestFixMarkdown(t *testing.T) {
	assert.Equal(t, "`code`", FixMarkdown("`code"))
	assert.Equal(t, "```\nblock\n```", FixMarkdown("```\nblock"))
	assert.Equal(t, `a \` + "`" + ` b`, FixMarkdown(`a \`+"`"+` b`))
}
