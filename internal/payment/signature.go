package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	SignatureHeader = "Stripe-Signature"

	DefaultTolerance = 300 * time.Second
)

var (
	ErrNoSignature       = errors.New("missing signature header")
	ErrInvalidHeader     = errors.New("webhook has invalid Stripe-Signature header")
	ErrNoValidSignature  = errors.New("webhook had no valid signature")
	ErrTimestampTooOld   = errors.New("webhook timestamp is outside the tolerance zone")
	ErrMissingSigningKey = errors.New("webhook signing secret is not configured")
)

// ComputeSignature returns HMAC-SHA256 over "{unix}.{payload}".
func ComputeSignature(t time.Time, payload []byte, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(t.Unix(), 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return mac.Sum(nil)
}

// SignPayload builds a header value in the gateway's format.
func SignPayload(t time.Time, payload []byte, secret string) string {
	return fmt.Sprintf("t=%d,v1=%s", t.Unix(), hex.EncodeToString(ComputeSignature(t, payload, secret)))
}

type signedHeader struct {
	timestamp  time.Time
	signatures [][]byte
}

func parseSignatureHeader(header string) (*signedHeader, error) {
	sh := &signedHeader{}
	if header == "" {
		return sh, ErrNoSignature
	}

	var haveTimestamp bool
	for _, pair := range strings.Split(header, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(parts) != 2 {
			return sh, ErrInvalidHeader
		}

		switch parts[0] {
		case "t":
			ts, err := strconv.ParseInt(parts[1], 10, 64)
			if err != nil {
				return sh, ErrInvalidHeader
			}
			sh.timestamp = time.Unix(ts, 0)
			haveTimestamp = true
		case "v1":
			sig, err := hex.DecodeString(parts[1])
			if err != nil {
				continue
			}
			sh.signatures = append(sh.signatures, sig)
		}
	}

	if !haveTimestamp {
		return sh, ErrInvalidHeader
	}
	if len(sh.signatures) == 0 {
		return sh, ErrNoValidSignature
	}
	return sh, nil
}

// VerifySignature checks the header against payload and rejects stale timestamps.
func VerifySignature(payload []byte, header, secret string, tolerance time.Duration, now time.Time) error {
	if secret == "" {
		return ErrMissingSigningKey
	}

	sh, err := parseSignatureHeader(header)
	if err != nil {
		return err
	}

	expected := ComputeSignature(sh.timestamp, payload, secret)
	matched := false
	for _, sig := range sh.signatures {
		if hmac.Equal(expected, sig) {
			matched = true
			break
		}
	}
	if !matched {
		return ErrNoValidSignature
	}

	if tolerance > 0 && now.Sub(sh.timestamp) > tolerance {
		return ErrTimestampTooOld
	}
	return nil
}
