package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

var ErrSignatureMismatch = errors.New("payment signature mismatch")

// Signer checks that a payment outcome was produced by the gateway holding the shared secret.
// The signed payload is "<intentID>|<paymentRef>".
type Signer struct {
	secret []byte
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Enabled is false when no secret is configured; Verify then accepts everything.
func (s *Signer) Enabled() bool {
	return s != nil && len(s.secret) > 0
}

func (s *Signer) Sign(intentID, paymentRef string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(intentID + "|" + paymentRef))
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *Signer) Verify(intentID, paymentRef, signature string) error {
	if !s.Enabled() {
		return nil
	}
	got, err := hex.DecodeString(signature)
	if err != nil {
		return ErrSignatureMismatch
	}
	want, _ := hex.DecodeString(s.Sign(intentID, paymentRef))
	if !hmac.Equal(got, want) {
		return ErrSignatureMismatch
	}
	return nil
}
