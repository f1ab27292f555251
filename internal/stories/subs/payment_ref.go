package subs

import (
	"fmt"
	"strconv"
	"strings"
)

const paymentReferencePrefix = "toggle_bot_status"

// PaymentReference is the opaque invoice payload that travels through the
// payment provider and comes back with the successful payment.
type PaymentReference struct {
	ChatID    int64
	Requested BotStatus
}

func (p PaymentReference) String() string {
	return fmt.Sprintf("%s:%d:%s", paymentReferencePrefix, p.ChatID, p.Requested)
}

func ParsePaymentReference(payload string) (PaymentReference, error) {
	parts := strings.Split(payload, ":")
	if len(parts) != 3 || parts[0] != paymentReferencePrefix {
		return PaymentReference{}, fmt.Errorf("%w: payment reference %q", ErrMalformedPayload, payload)
	}

	chatID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || chatID == 0 {
		return PaymentReference{}, fmt.Errorf("%w: payment reference chat id %q", ErrMalformedPayload, parts[1])
	}

	status := BotStatus(parts[2])
	if !status.Valid() {
		return PaymentReference{}, fmt.Errorf("%w: payment reference status %q", ErrMalformedPayload, parts[2])
	}

	return PaymentReference{ChatID: chatID, Requested: status}, nil
}

// VerifyPaymentReference parses payload and checks it was issued for chatID.
func VerifyPaymentReference(payload string, chatID int64) (PaymentReference, error) {
	ref, err := ParsePaymentReference(payload)
	if err != nil {
		return PaymentReference{}, err
	}
	if ref.ChatID != chatID {
		return ref, fmt.Errorf("%w: issued for %d, paid by %d", ErrInvalidPaymentReference, ref.ChatID, chatID)
	}
	return ref, nil
}
