package storage

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"zemo-bot/internal/stories/payment"
	"zemo-bot/internal/stories/subs"
)

const paymentsTable = "payments"

var paymentRowFields = fields(paymentRow{})

type paymentRow struct {
	ID               string    `db:"id"`
	ChatID           int64     `db:"chat_id"`
	ChargeID         string    `db:"charge_id"`
	ProviderChargeID string    `db:"provider_charge_id"`
	Amount           int       `db:"amount"`
	Currency         string    `db:"currency"`
	Payload          string    `db:"payload"`
	RequestedStatus  string    `db:"requested_status"`
	CreatedAt        time.Time `db:"created_at"`
}

func (p paymentRow) ToModel() *payment.Payment {
	return &payment.Payment{
		ID:               p.ID,
		ChatID:           p.ChatID,
		ChargeID:         p.ChargeID,
		ProviderChargeID: p.ProviderChargeID,
		Amount:           p.Amount,
		Currency:         p.Currency,
		Payload:          p.Payload,
		RequestedStatus:  subs.BotStatus(p.RequestedStatus),
		CreatedAt:        p.CreatedAt,
	}
}

func (s *storageImpl) CreatePayment(ctx context.Context, p payment.Payment) (bool, error) {
	params := map[string]interface{}{
		"id":                 p.ID,
		"chat_id":            p.ChatID,
		"charge_id":          p.ChargeID,
		"provider_charge_id": p.ProviderChargeID,
		"amount":             p.Amount,
		"currency":           p.Currency,
		"payload":            p.Payload,
		"requested_status":   string(p.RequestedStatus),
		"created_at":         s.now(),
	}

	q, args, err := s.stmpBuilder().
		Insert(paymentsTable).
		Options("OR IGNORE").
		SetMap(params).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build sql query: %w", err)
	}

	result, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return false, fmt.Errorf("db.ExecContext: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("result.RowsAffected: %w", err)
	}

	return affected == 1, nil
}

func (s *storageImpl) DeletePayment(ctx context.Context, chargeID string) error {
	q, args, err := s.stmpBuilder().
		Delete(paymentsTable).
		Where(sq.Eq{"charge_id": chargeID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build sql query: %w", err)
	}

	if _, err = s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("db.ExecContext: %w", err)
	}

	return nil
}

func (s *storageImpl) ListPayments(ctx context.Context, criteria payment.ListCriteria) ([]*payment.Payment, error) {
	query := s.stmpBuilder().
		Select(paymentRowFields).
		From(paymentsTable)

	if criteria.ChatID != nil {
		query = query.Where(sq.Eq{"chat_id": *criteria.ChatID})
	}
	if criteria.Limit > 0 {
		query = query.Limit(uint64(criteria.Limit))
	}
	if criteria.Offset > 0 {
		query = query.Offset(uint64(criteria.Offset))
	}

	query = query.OrderBy("created_at DESC")

	q, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	var rows []paymentRow
	if err := s.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, fmt.Errorf("db.SelectContext: %w", err)
	}

	result := make([]*payment.Payment, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.ToModel())
	}

	return result, nil
}
