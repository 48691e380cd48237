package mercadopago

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedSignature means the x-signature header could not be parsed
	ErrMalformedSignature = errors.New("malformed x-signature header")
	// ErrSignatureMismatch means the recomputed HMAC differs from the header
	ErrSignatureMismatch = errors.New("x-signature does not match")
)

// VerifySignature checks the x-signature webhook header.
// The header carries comma-separated key=value pairs (ts and v1); v1 is an
// HMAC-SHA256 hex digest of "id:<dataID>;request-id:<requestID>;ts:<ts>;".
func VerifySignature(secret, signatureHeader, requestID, dataID string) error {
	var ts, v1 string
	for _, part := range strings.Split(signatureHeader, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch strings.TrimSpace(key) {
		case "ts":
			ts = strings.TrimSpace(value)
		case "v1":
			v1 = strings.TrimSpace(value)
		}
	}
	if ts == "" || v1 == "" {
		return ErrMalformedSignature
	}

	expected, err := hex.DecodeString(v1)
	if err != nil {
		return ErrMalformedSignature
	}

	manifest := fmt.Sprintf("id:%s;request-id:%s;ts:%s;", dataID, requestID, ts)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(manifest))

	if !hmac.Equal(mac.Sum(nil), expected) {
		return ErrSignatureMismatch
	}
	return nil
}
