package delivery

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrTimeout marks a call failure as transient. Clients wrap it when the
	// platform reports a timeout that is not a net.Error.
	ErrTimeout = errors.New("timeout")

	// ErrDeliveryTimeout is matched by the error returned once every attempt
	// timed out.
	ErrDeliveryTimeout = errors.New("delivery timed out")
)

// TimeoutError carries the context of a delivery that exhausted its attempts.
type TimeoutError struct {
	RecipientID int64
	Attempts    int
	Text        string
	Err         error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("delivery to %d timed out after %d attempts: %v", e.RecipientID, e.Attempts, e.Err)
}

func (e *TimeoutError) Unwrap() []error {
	return []error{ErrDeliveryTimeout, e.Err}
}

// IsTimeout reports whether err belongs to the transient timeout class.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
