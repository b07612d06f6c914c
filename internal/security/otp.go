package security

import (
	"crypto/rand"
	"math/big"
)

// OTPCodeLength is the number of digits in a one-time passcode
const OTPCodeLength = 6

// GenerateOTPCode generates a random numeric one-time passcode
func GenerateOTPCode() (string, error) {
	digits := "0123456789"
	code := make([]byte, OTPCodeLength)

	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		if err != nil {
			return "", err
		}
		code[i] = digits[num.Int64()]
	}

	return string(code), nil
}
