package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateID(t *testing.T) {
	fixed := time.UnixMilli(1700000000000)
	orig := Now
	Now = func() time.Time { return fixed }
	defer func() { Now = orig }()

	assert.Equal(t, "order_1700000000000", GenerateOrderID())
	assert.Equal(t, "res_1700000000000", GenerateReservationID())
	assert.Equal(t, "mov_1700000000000", GenerateMovementID())
	assert.Equal(t, "notif_1700000000000", GenerateNotificationID())
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "hello", SanitizeString("  hello  "))
	assert.Equal(t, "no nulls", SanitizeString("no\x00 nulls\x07"))
	assert.Equal(t, "keeps\nlines", SanitizeString("keeps\nlines"))
	assert.Equal(t, "", SanitizeString("   "))
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", TruncateString("short", 10))
	assert.Equal(t, "long st...", TruncateString("long string here", 10))
	assert.Equal(t, "ab", TruncateString("abcdef", 2))
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, IsEmpty(""))
	assert.True(t, IsEmpty("  \t"))
	assert.False(t, IsEmpty("x"))
}
