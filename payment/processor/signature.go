package processor

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	inErrors "github.com/Alturino/storefront/internal/errors"
)

const signatureVersion = "v1"

// ComputeSignature signs "<timestamp>.<payload>" with HMAC-SHA256.
// Exported so tests and local tooling can mint valid headers.
func ComputeSignature(secret string, timestamp int64, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// SignatureHeader renders the header the processor sends, in the form
// "t=<unix>,v1=<hex>".
func SignatureHeader(secret string, timestamp int64, payload []byte) string {
	return fmt.Sprintf(
		"t=%d,%s=%s",
		timestamp,
		signatureVersion,
		ComputeSignature(secret, timestamp, payload),
	)
}

type signatureVerifier struct {
	secret    string
	tolerance time.Duration
	now       func() time.Time
}

// verify authenticates payload against header. Any malformed header,
// mismatched digest, or timestamp outside the tolerance window fails
// closed with ErrSignature; the payload is never inspected first.
func (v signatureVerifier) verify(payload []byte, header string) error {
	if header == "" {
		return fmt.Errorf("%w: missing signature header", inErrors.ErrSignature)
	}

	var timestamp int64 = -1
	signatures := []string{}
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			parsed, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("%w: malformed timestamp", inErrors.ErrSignature)
			}
			timestamp = parsed
		case signatureVersion:
			signatures = append(signatures, value)
		}
	}
	if timestamp < 0 || len(signatures) == 0 {
		return fmt.Errorf("%w: malformed signature header", inErrors.ErrSignature)
	}

	if drift := v.now().Sub(time.Unix(timestamp, 0)); drift > v.tolerance ||
		drift < -v.tolerance {
		return fmt.Errorf("%w: timestamp outside tolerance", inErrors.ErrSignature)
	}

	expected := ComputeSignature(v.secret, timestamp, payload)
	for _, signature := range signatures {
		if hmac.Equal([]byte(expected), []byte(signature)) {
			return nil
		}
	}
	return fmt.Errorf("%w: signature mismatch", inErrors.ErrSignature)
}
