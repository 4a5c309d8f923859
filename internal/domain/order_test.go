package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatus_Valid(t *testing.T) {
	testCases := map[string]struct {
		status   OrderStatus
		expected bool
	}{
		"should accept pending":       {status: StatusPending, expected: true},
		"should accept processing":    {status: StatusProcessing, expected: true},
		"should accept completed":     {status: StatusCompleted, expected: true},
		"should accept cancelled":     {status: StatusCancelled, expected: true},
		"should reject empty status":  {status: OrderStatus(""), expected: false},
		"should reject unknown value": {status: OrderStatus("shipped"), expected: false},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.status.Valid())
		})
	}
}
