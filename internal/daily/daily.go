// Package daily picks the puzzle set of the day and records daily results.
package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"time"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// SetIndex returns a deterministic index for a date and difficulty using
// HMAC(salt, YYYY-MM-DD/difficulty) % n. Every player gets the same set on
// the same day, and each difficulty rotates independently.
func SetIndex(date time.Time, salt, difficulty string, n int) int {
	if n <= 0 {
		return 0
	}
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(date) + "/" + difficulty))
	sum := h.Sum(nil)
	// take first 8 bytes to uint64 for modulus distribution
	v := binary.BigEndian.Uint64(sum[:8])
	return int(v % uint64(n))
}
