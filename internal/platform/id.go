package platform

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

const selectorAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// VerificationTokenPrefix starts every ownership token so the TXT record is
// recognisable among others at the challenge name.
const VerificationTokenPrefix = "mail-verification="

func NewID() string {
	return uuid.New().String()
}

// NewVerificationToken returns a random ownership token.
func NewVerificationToken() string {
	return VerificationTokenPrefix + hex.EncodeToString(randomBytes(16))
}

// NewDKIMSelector returns a short random selector label, e.g. "md7k2q9x".
func NewDKIMSelector() string {
	b := randomBytes(6)
	for i := range b {
		b[i] = selectorAlphabet[b[i]%byte(len(selectorAlphabet))]
	}
	return "md" + string(b)
}

func randomBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand: " + err.Error())
	}
	return b
}
