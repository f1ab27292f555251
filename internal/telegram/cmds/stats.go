package cmds

import (
	"context"
	"fmt"
	"strings"
	"time"

	"zemo-bot/internal/stories/payment"
)

type recipientIndex interface {
	Members(ctx context.Context) ([]int64, error)
}

type paymentStats interface {
	Stats(ctx context.Context, since time.Time) (*payment.Stats, error)
}

type textSender interface {
	SendRaw(ctx context.Context, chatID int64, text string) error
}

// StatsCommand отвечает в чате поддержки сводкой по подпискам и оплатам.
type StatsCommand struct {
	index    recipientIndex
	payments paymentStats
	sender   textSender
	now      func() time.Time
}

func NewStatsCommand(index recipientIndex, payments paymentStats, sender textSender) *StatsCommand {
	return &StatsCommand{
		index:    index,
		payments: payments,
		sender:   sender,
		now:      time.Now,
	}
}

func (c *StatsCommand) Execute(ctx context.Context, chatID int64) error {
	members, err := c.index.Members(ctx)
	if err != nil {
		_ = c.sender.SendRaw(ctx, chatID, "Ошибка при получении статистики")
		return fmt.Errorf("list active recipients: %w", err)
	}

	now := c.now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	today, err := c.payments.Stats(ctx, dayStart)
	if err != nil {
		_ = c.sender.SendRaw(ctx, chatID, "Ошибка при получении статистики")
		return fmt.Errorf("get payment stats: %w", err)
	}
	month, err := c.payments.Stats(ctx, monthStart)
	if err != nil {
		_ = c.sender.SendRaw(ctx, chatID, "Ошибка при получении статистики")
		return fmt.Errorf("get payment stats: %w", err)
	}

	return c.sender.SendRaw(ctx, chatID, formatStatistics(len(members), today, month, now.Month()))
}

func formatStatistics(active int, today, month *payment.Stats, current time.Month) string {
	var text strings.Builder

	text.WriteString("📊 Статистика\n\n")
	text.WriteString(fmt.Sprintf("Активных получателей: %d\n\n", active))

	text.WriteString("💰 Оплаты:\n")
	text.WriteString(fmt.Sprintf("• Сегодня: %d (%d ⭐)\n", today.Count, today.Amount))
	text.WriteString(fmt.Sprintf("• За %s: %d (%d ⭐)\n", getMonthName(current), month.Count, month.Amount))

	return text.String()
}

func getMonthName(month time.Month) string {
	months := map[time.Month]string{
		time.January:   "январь",
		time.February:  "февраль",
		time.March:     "март",
		time.April:     "апрель",
		time.May:       "май",
		time.June:      "июнь",
		time.July:      "июль",
		time.August:    "август",
		time.September: "сентябрь",
		time.October:   "октябрь",
		time.November:  "ноябрь",
		time.December:  "декабрь",
	}
	return months[month]
}
