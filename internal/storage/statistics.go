package storage

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"zemo-bot/internal/stories/payment"
)

type paymentStatsRow struct {
	Count  int `db:"payments_count"`
	Amount int `db:"payments_amount"`
}

// GetPaymentStats считает платежи и их сумму начиная с since.
func (s *storageImpl) GetPaymentStats(ctx context.Context, since time.Time) (*payment.Stats, error) {
	query := s.stmpBuilder().
		Select("COUNT(*) AS payments_count", "COALESCE(SUM(amount), 0) AS payments_amount").
		From(paymentsTable).
		Where(sq.GtOrEq{"created_at": since.UTC()})

	q, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	var row paymentStatsRow
	if err := s.db.GetContext(ctx, &row, q, args...); err != nil {
		return nil, fmt.Errorf("db.GetContext: %w", err)
	}

	return &payment.Stats{
		Since:  since,
		Count:  row.Count,
		Amount: row.Amount,
	}, nil
}
