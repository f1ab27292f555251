package subs

import "errors"

var (
	// ErrStoreUnavailable wraps transport failures of the record store. Not retried here.
	ErrStoreUnavailable = errors.New("subscription store unavailable")

	// ErrConflict is returned by the store when the record revision changed
	// between read and write.
	ErrConflict = errors.New("subscription record changed concurrently")

	// ErrInvalidPaymentReference means the payment reference names another chat.
	ErrInvalidPaymentReference = errors.New("payment reference does not match chat")

	// ErrMalformedPayload means the event is missing fields or cannot be parsed.
	ErrMalformedPayload = errors.New("malformed event payload")
)
