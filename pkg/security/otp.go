package security

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

const (
	minOTPLength = 4
	maxOTPLength = 10
)

// GenerateOTP returns a uniformly random numeric code of the given length.
func GenerateOTP(length int) (string, error) {
	if length < minOTPLength || length > maxOTPLength {
		return "", fmt.Errorf("otp length must be between %d and %d", minOTPLength, maxOTPLength)
	}
	var b strings.Builder
	b.Grow(length)
	ten := big.NewInt(10)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("generate otp: %w", err)
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}

// HashOTP binds code to the address it was sent to so a stored hash cannot be replayed for another email.
func HashOTP(email, code string) string {
	mac := hmac.New(sha256.New, []byte(strings.ToLower(strings.TrimSpace(email))))
	mac.Write([]byte(strings.TrimSpace(code)))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyOTP compares code with a hash produced by HashOTP in constant time.
func VerifyOTP(email, code, hash string) bool {
	return hmac.Equal([]byte(HashOTP(email, code)), []byte(hash))
}
