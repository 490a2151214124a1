package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	alphanumeric = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	hexDigits    = "0123456789ABCDEF"

	teamCodeLength = 6
	tokenLength    = 12
	bannerCount    = 5
)

// randomIndex returns a uniform integer in [0, n).
func randomIndex(n int) int {
	i, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	return int(i.Int64())
}

// RandomString returns n characters drawn uniformly from charset.
func RandomString(n int, charset string) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = charset[randomIndex(len(charset))]
	}
	return string(b)
}

// NewTeamCode returns a 6-character alphanumeric invite code.
func NewTeamCode() string {
	return RandomString(teamCodeLength, alphanumeric)
}

// NewToken returns a 12-character alphanumeric verification or reset token.
func NewToken() string {
	return RandomString(tokenLength, alphanumeric)
}

// RandomBannerURL picks one of the stock team backgrounds.
func RandomBannerURL() string {
	return fmt.Sprintf("/background/teamBackground%d", randomIndex(bannerCount)+1)
}

// RandomColor returns a random #RRGGBB colour.
func RandomColor() string {
	return "#" + RandomString(6, hexDigits)
}
