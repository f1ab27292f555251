package subs

import (
	"errors"
	"testing"
)

func TestParsePaymentReference(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    PaymentReference
		wantErr error
	}{
		{
			name:    "running",
			payload: "toggle_bot_status:123456:running",
			want:    PaymentReference{ChatID: 123456, Requested: BotStatusRunning},
		},
		{
			name:    "stopped",
			payload: "toggle_bot_status:42:stopped",
			want:    PaymentReference{ChatID: 42, Requested: BotStatusStopped},
		},
		{
			name:    "negative chat id",
			payload: "toggle_bot_status:-100200:running",
			want:    PaymentReference{ChatID: -100200, Requested: BotStatusRunning},
		},
		{name: "truncated", payload: "toggle_bot_status:42", wantErr: ErrMalformedPayload},
		{name: "wrong prefix", payload: "buy:42:running", wantErr: ErrMalformedPayload},
		{name: "bad chat id", payload: "toggle_bot_status:abc:running", wantErr: ErrMalformedPayload},
		{name: "zero chat id", payload: "toggle_bot_status:0:running", wantErr: ErrMalformedPayload},
		{name: "unknown status", payload: "toggle_bot_status:42:paused", wantErr: ErrMalformedPayload},
		{name: "extra segment", payload: "toggle_bot_status:42:running:x", wantErr: ErrMalformedPayload},
		{name: "empty", payload: "", wantErr: ErrMalformedPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePaymentReference(tt.payload)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParsePaymentReference(%q) error = %v, want %v", tt.payload, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePaymentReference(%q) unexpected error: %v", tt.payload, err)
			}
			if got != tt.want {
				t.Errorf("ParsePaymentReference(%q) = %+v, want %+v", tt.payload, got, tt.want)
			}
			if got.String() != tt.payload {
				t.Errorf("String() = %q, want %q", got.String(), tt.payload)
			}
		})
	}
}

func TestVerifyPaymentReference(t *testing.T) {
	if _, err := VerifyPaymentReference("toggle_bot_status:42:running", 42); err != nil {
		t.Fatalf("matching chat: unexpected error %v", err)
	}

	_, err := VerifyPaymentReference("toggle_bot_status:42:running", 43)
	if !errors.Is(err, ErrInvalidPaymentReference) {
		t.Fatalf("mismatched chat: error = %v, want ErrInvalidPaymentReference", err)
	}

	_, err = VerifyPaymentReference("garbage", 42)
	if !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("garbage payload: error = %v, want ErrMalformedPayload", err)
	}
}
