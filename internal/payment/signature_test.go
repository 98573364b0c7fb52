package payment

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestVerifySignature_Valid(t *testing.T) {
	payload := []byte(`{"type":"checkout.session.completed"}`)
	now := time.Now()
	header := EncodeSignatureHeader("whsec_test", now, payload)

	err := VerifySignature("whsec_test", payload, header, now, DefaultSignatureTolerance)
	assert.NoError(t, err)
}

func TestVerifySignature_WrongSecret(t *testing.T) {
	payload := []byte(`{"type":"checkout.session.completed"}`)
	now := time.Now()
	header := EncodeSignatureHeader("whsec_test", now, payload)

	err := VerifySignature("whsec_other", payload, header, now, DefaultSignatureTolerance)
	assert.ErrorIs(t, err, ErrSignatureMismatch)
}

func TestVerifySignature_TamperedPayload(t *testing.T) {
	now := time.Now()
	header := EncodeSignatureHeader("whsec_test", now, []byte(`{"amount":100}`))

	err := VerifySignature("whsec_test", []byte(`{"amount":999}`), header, now, DefaultSignatureTolerance)
	assert.ErrorIs(t, err, ErrSignatureMismatch)
}

func TestVerifySignature_StaleTimestamp(t *testing.T) {
	payload := []byte(`{"amount":100}`)
	signedAt := time.Now().Add(-10 * time.Minute)
	header := EncodeSignatureHeader("whsec_test", signedAt, payload)

	err := VerifySignature("whsec_test", payload, header, time.Now(), DefaultSignatureTolerance)
	assert.ErrorIs(t, err, ErrSignatureExpired)
}

func TestVerifySignature_FutureTimestamp(t *testing.T) {
	payload := []byte(`{"amount":100}`)
	signedAt := time.Now().Add(10 * time.Minute)
	header := EncodeSignatureHeader("whsec_test", signedAt, payload)

	err := VerifySignature("whsec_test", payload, header, time.Now(), DefaultSignatureTolerance)
	assert.ErrorIs(t, err, ErrSignatureExpired)
}

func TestVerifySignature_ReplayedTimestampDoesNotTransfer(t *testing.T) {
	// A digest captured at one timestamp must not verify when presented
	// with a fresher timestamp.
	payload := []byte(`{"amount":100}`)
	old := time.Now().Add(-10 * time.Minute)
	stolen := SignPayload("whsec_test", old, payload)
	forged := fmt.Sprintf("t=%d,v1=%s", time.Now().Unix(), stolen)

	err := VerifySignature("whsec_test", payload, forged, time.Now(), DefaultSignatureTolerance)
	assert.ErrorIs(t, err, ErrSignatureMismatch)
}

func TestVerifySignature_MalformedHeader(t *testing.T) {
	now := time.Now()
	for _, header := range []string{"", "garbage", "t=notanumber,v1=abc", "v1=abc", "t=123"} {
		err := VerifySignature("whsec_test", []byte("payload"), header, now, DefaultSignatureTolerance)
		assert.ErrorIs(t, err, ErrSignatureFormat, "header %q", header)
	}
}
