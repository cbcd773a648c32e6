package util

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// GenerateReferralCode returns a short shareable code for waitlist referrals.
func GenerateReferralCode() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return strings.ToUpper(hex.EncodeToString(b))
}
