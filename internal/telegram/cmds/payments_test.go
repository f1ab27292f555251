package cmds

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zemo-bot/internal/stories/payment"
	"zemo-bot/internal/stories/subs"
)

type ledgerMock struct {
	criteria []payment.ListCriteria
	list     []*payment.Payment
	err      error
}

func (m *ledgerMock) ListPayments(_ context.Context, criteria payment.ListCriteria) ([]*payment.Payment, error) {
	m.criteria = append(m.criteria, criteria)
	return m.list, m.err
}

func TestPaymentsCommand(t *testing.T) {
	paidAt := time.Date(2025, 3, 17, 14, 5, 0, 0, time.UTC)

	tests := []struct {
		name     string
		args     string
		list     []*payment.Payment
		err      error
		want     string
		wantErr  bool
		wantList bool
	}{
		{
			name: "no chat id",
			args: "",
			want: "Использование: /payments <chat_id>",
		},
		{
			name: "not a number",
			args: "nino",
			want: "Использование: /payments <chat_id>",
		},
		{
			name:     "no payments",
			args:     " 42 ",
			want:     "У пользователя 42 нет оплат",
			wantList: true,
		},
		{
			name: "payments listed",
			args: "42",
			list: []*payment.Payment{
				{ChatID: 42, Amount: 10000, Currency: "XTR", RequestedStatus: subs.BotStatusRunning, CreatedAt: paidAt},
			},
			want:     "💳 Оплаты пользователя 42:\n\n• 17.03.2025 14:05: 10000 XTR (running)\n",
			wantList: true,
		},
		{
			name:     "ledger error",
			args:     "42",
			err:      errors.New("disk I/O error"),
			want:     "Ошибка при получении платежей",
			wantErr:  true,
			wantList: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := &ledgerMock{list: tt.list, err: tt.err}
			sender := &senderMock{}
			c := NewPaymentsCommand(ledger, sender)

			err := c.Execute(context.Background(), -100, tt.args)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}

			require.Len(t, sender.texts, 1)
			assert.Equal(t, tt.want, sender.texts[0])

			if tt.wantList {
				require.Len(t, ledger.criteria, 1)
				assert.Equal(t, int64(42), *ledger.criteria[0].ChatID)
				assert.Equal(t, paymentsLimit, ledger.criteria[0].Limit)
			} else {
				assert.Empty(t, ledger.criteria)
			}
		})
	}
}
