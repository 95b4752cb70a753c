package shop

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// orderCodeAttempts bounds header inserts when a generated code is already taken.
const orderCodeAttempts = 3

// NewOrderCode returns ORD-<unix millis>-<0..999>. Uniqueness is best effort;
// the header insert detects collisions.
func NewOrderCode() string {
	return FormatOrderCode(time.Now(), rand.IntN(1000))
}

func FormatOrderCode(t time.Time, suffix int) string {
	return fmt.Sprintf("ORD-%d-%d", t.UnixMilli(), suffix)
}
