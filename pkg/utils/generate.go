package utils

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// ParseInt converts string to int with default value
func ParseInt(value string, defaultValue int) int {
	if value == "" {
		return defaultValue
	}

	result, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	if result < 1 {
		return defaultValue
	}

	return result
}

// ParseFloat returns nil for empty or malformed input.
func ParseFloat(value string) *float64 {
	if value == "" {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	return &f
}

func GenerateSessionToken() uuid.UUID {
	return uuid.New()
}

// RandomHex returns n random bytes hex encoded.
func RandomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand only fails when the OS source is unusable
		panic(err)
	}
	return hex.EncodeToString(b)
}

// GenerateAppTransID formats a gateway transaction id: YYMMDD_<8 hex chars>.
func GenerateAppTransID(now time.Time) string {
	return now.Format("060102") + "_" + RandomHex(4)
}
