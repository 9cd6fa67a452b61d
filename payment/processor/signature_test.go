package processor

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	inErrors "github.com/Alturino/storefront/internal/errors"
)

func newTestVerifier(secret string, now time.Time) signatureVerifier {
	return signatureVerifier{
		secret:    secret,
		tolerance: 5 * time.Minute,
		now:       func() time.Time { return now },
	}
}

func TestVerifySignature(t *testing.T) {
	now := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	secret := "whsec_test"
	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded"}`)

	tests := []struct {
		name        string
		payload     []byte
		header      func() string
		expectedErr error
	}{
		{
			name:    "given freshly signed payload should verify",
			payload: payload,
			header: func() string {
				return SignatureHeader(secret, now.Unix(), payload)
			},
			expectedErr: nil,
		},
		{
			name:    "given tampered payload should fail",
			payload: []byte(`{"id":"evt_1","type":"payment_intent.payment_failed"}`),
			header: func() string {
				return SignatureHeader(secret, now.Unix(), payload)
			},
			expectedErr: inErrors.ErrSignature,
		},
		{
			name:    "given signature from wrong secret should fail",
			payload: payload,
			header: func() string {
				return SignatureHeader("whsec_other", now.Unix(), payload)
			},
			expectedErr: inErrors.ErrSignature,
		},
		{
			name:    "given timestamp older than tolerance should fail",
			payload: payload,
			header: func() string {
				stale := now.Add(-10 * time.Minute).Unix()
				return SignatureHeader(secret, stale, payload)
			},
			expectedErr: inErrors.ErrSignature,
		},
		{
			name:    "given timestamp from the future beyond tolerance should fail",
			payload: payload,
			header: func() string {
				future := now.Add(10 * time.Minute).Unix()
				return SignatureHeader(secret, future, payload)
			},
			expectedErr: inErrors.ErrSignature,
		},
		{
			name:    "given missing header should fail",
			payload: payload,
			header: func() string {
				return ""
			},
			expectedErr: inErrors.ErrSignature,
		},
		{
			name:    "given header without signature part should fail",
			payload: payload,
			header: func() string {
				return fmt.Sprintf("t=%d", now.Unix())
			},
			expectedErr: inErrors.ErrSignature,
		},
		{
			name:    "given header with malformed timestamp should fail",
			payload: payload,
			header: func() string {
				return fmt.Sprintf("t=abc,v1=%s", ComputeSignature(secret, now.Unix(), payload))
			},
			expectedErr: inErrors.ErrSignature,
		},
		{
			name:    "given multiple signatures with one valid should verify",
			payload: payload,
			header: func() string {
				return fmt.Sprintf(
					"t=%d,v1=deadbeef,v1=%s",
					now.Unix(),
					ComputeSignature(secret, now.Unix(), payload),
				)
			},
			expectedErr: nil,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			verifier := newTestVerifier(secret, now)
			err := verifier.verify(test.payload, test.header())
			if test.expectedErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, test.expectedErr)
		})
	}
}

func TestVerifySignatureWithinTolerance(t *testing.T) {
	now := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	secret := "whsec_test"
	payload := []byte(`{}`)
	verifier := newTestVerifier(secret, now)

	recent := now.Add(-4 * time.Minute).Unix()
	err := verifier.verify(payload, SignatureHeader(secret, recent, payload))
	assert.NoError(t, err)
}
