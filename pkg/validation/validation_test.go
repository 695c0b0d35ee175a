package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequired(t *testing.T) {
	assert.NoError(t, Required("orderId", "o1"))
	assert.EqualError(t, Required("orderId", ""), "orderId is required")
	assert.EqualError(t, Required("orderId", "   "), "orderId is required")
}

func TestRequiredAll(t *testing.T) {
	assert.NoError(t, RequiredAll(map[string]string{"a": "1", "b": "2"}))
	assert.EqualError(t, RequiredAll(map[string]string{"a": "", "b": "2"}), "a is required")
	// Multiple missing fields are reported in sorted order.
	assert.EqualError(t,
		RequiredAll(map[string]string{"toUserId": "", "message": ""}),
		"missing required fields: message, toUserId",
	)
}

func TestValidateRecordID(t *testing.T) {
	assert.NoError(t, ValidateRecordID("orderId", ""), "empty means the server assigns one")
	assert.NoError(t, ValidateRecordID("orderId", "order_1700000000000"))
	assert.NoError(t, ValidateRecordID("orderId", "abc-DEF_123"))
	assert.Error(t, ValidateRecordID("orderId", "has spaces"))
	assert.Error(t, ValidateRecordID("orderId", "semi;colon"))

	long := make([]byte, 101)
	for i := range long {
		long[i] = 'a'
	}
	assert.Error(t, ValidateRecordID("orderId", string(long)))
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("chef@example.com"))
	assert.NoError(t, ValidateEmail("a.b+c@sub.example.co"))
	assert.Error(t, ValidateEmail(""))
	assert.Error(t, ValidateEmail("not-an-email"))
	assert.Error(t, ValidateEmail("missing@tld"))
}
