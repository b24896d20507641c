package reminder

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

var (
	// ErrReplayWindowExceeded is returned when timestamp is outside replay window.
	ErrReplayWindowExceeded = errors.New("timestamp outside replay window")
	// ErrInvalidSignature is returned when signature verification fails.
	ErrInvalidSignature = errors.New("invalid signature")
	// ErrMalformedSignature is returned when the header cannot be parsed.
	ErrMalformedSignature = errors.New("malformed signature header")
)

// DefaultReplayWindow is the default replay protection window.
const DefaultReplayWindow = 5 * time.Minute

// Sign computes the hex HMAC-SHA256 of "{timestamp}.{body}".
func Sign(secret string, timestamp int64, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// SignatureHeader builds the "t={ts},v1={hex}" header value.
func SignatureHeader(secret string, timestamp int64, body []byte) string {
	return fmt.Sprintf("t=%d,v1=%s", timestamp, Sign(secret, timestamp, body))
}

// ParseSignatureHeader splits a signature header into timestamp and digest.
func ParseSignatureHeader(header string) (int64, string, error) {
	var timestamp int64
	var digest string
	var haveTS bool

	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return 0, "", ErrMalformedSignature
		}
		switch key {
		case "t":
			ts, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return 0, "", ErrMalformedSignature
			}
			timestamp, haveTS = ts, true
		case "v1":
			digest = value
		}
	}

	if !haveTS || digest == "" {
		return 0, "", ErrMalformedSignature
	}
	return timestamp, digest, nil
}

// VerifySignature checks a signature header against body with replay protection.
func VerifySignature(secret, header string, body []byte, now time.Time, window time.Duration) error {
	timestamp, digest, err := ParseSignatureHeader(header)
	if err != nil {
		return err
	}

	age := now.Unix() - timestamp
	if age < 0 {
		age = -age
	}
	if age > int64(window.Seconds()) {
		return ErrReplayWindowExceeded
	}

	expected := Sign(secret, timestamp, body)
	if !hmac.Equal([]byte(expected), []byte(digest)) {
		return ErrInvalidSignature
	}
	return nil
}
