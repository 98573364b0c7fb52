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

// DefaultSignatureTolerance bounds how far a webhook timestamp may drift
// from the receiver's clock before the delivery is rejected as a replay.
const DefaultSignatureTolerance = 5 * time.Minute

var (
	// ErrSignatureFormat indicates a signature header that does not parse.
	ErrSignatureFormat = errors.New("malformed signature header")
	// ErrSignatureExpired indicates a timestamp outside the tolerance window.
	ErrSignatureExpired = errors.New("signature timestamp outside tolerance")
	// ErrSignatureMismatch indicates a signature that does not match the payload.
	ErrSignatureMismatch = errors.New("signature mismatch")
)

// SignPayload computes the hex-encoded HMAC-SHA256 of "<unix ts>.<body>"
// with the shared provider secret. Binding the timestamp into the digest
// is what lets VerifySignature reject replays.
func SignPayload(secret string, ts time.Time, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts.Unix())
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// EncodeSignatureHeader builds the signature header value the provider
// sends with each delivery: "t=<unix ts>,v1=<hex digest>".
func EncodeSignatureHeader(secret string, ts time.Time, payload []byte) string {
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), SignPayload(secret, ts, payload))
}

// VerifySignature checks a signature header against the payload. The
// timestamp must lie within tolerance of now, in either direction, and the
// digest comparison is constant time.
func VerifySignature(secret string, payload []byte, header string, now time.Time, tolerance time.Duration) error {
	ts, digest, err := parseSignatureHeader(header)
	if err != nil {
		return err
	}

	drift := now.Sub(ts)
	if drift < 0 {
		drift = -drift
	}
	if drift > tolerance {
		return ErrSignatureExpired
	}

	expected := SignPayload(secret, ts, payload)
	if !hmac.Equal([]byte(expected), []byte(digest)) {
		return ErrSignatureMismatch
	}
	return nil
}

func parseSignatureHeader(header string) (time.Time, string, error) {
	var tsRaw, digest string
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return time.Time{}, "", ErrSignatureFormat
		}
		switch key {
		case "t":
			tsRaw = value
		case "v1":
			digest = value
		}
	}
	if tsRaw == "" || digest == "" {
		return time.Time{}, "", ErrSignatureFormat
	}

	unix, err := strconv.ParseInt(tsRaw, 10, 64)
	if err != nil {
		return time.Time{}, "", ErrSignatureFormat
	}
	return time.Unix(unix, 0), digest, nil
}
