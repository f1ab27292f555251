package cmds

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"zemo-bot/internal/stories/payment"
)

const paymentsLimit = 10

type paymentLister interface {
	ListPayments(ctx context.Context, criteria payment.ListCriteria) ([]*payment.Payment, error)
}

// PaymentsCommand показывает в чате поддержки последние оплаты пользователя.
type PaymentsCommand struct {
	ledger paymentLister
	sender textSender
}

func NewPaymentsCommand(ledger paymentLister, sender textSender) *PaymentsCommand {
	return &PaymentsCommand{
		ledger: ledger,
		sender: sender,
	}
}

// Execute handles "/payments <chat_id>".
func (c *PaymentsCommand) Execute(ctx context.Context, chatID int64, args string) error {
	userID, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
	if err != nil || userID == 0 {
		return c.sender.SendRaw(ctx, chatID, "Использование: /payments <chat_id>")
	}

	list, err := c.ledger.ListPayments(ctx, payment.ListCriteria{ChatID: &userID, Limit: paymentsLimit})
	if err != nil {
		_ = c.sender.SendRaw(ctx, chatID, "Ошибка при получении платежей")
		return fmt.Errorf("list payments: %w", err)
	}

	return c.sender.SendRaw(ctx, chatID, formatPayments(userID, list))
}

func formatPayments(userID int64, list []*payment.Payment) string {
	if len(list) == 0 {
		return fmt.Sprintf("У пользователя %d нет оплат", userID)
	}

	var text strings.Builder
	text.WriteString(fmt.Sprintf("💳 Оплаты пользователя %d:\n\n", userID))
	for _, p := range list {
		text.WriteString(fmt.Sprintf("• %s: %d %s (%s)\n",
			p.CreatedAt.UTC().Format("02.01.2006 15:04"), p.Amount, p.Currency, p.RequestedStatus))
	}

	return text.String()
}
