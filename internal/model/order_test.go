package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusCanAdvanceTo(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		ok       bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusConfirmed, StatusPreparing, true},
		{StatusPreparing, StatusReady, true},
		{StatusReady, StatusCompleted, true},
		{StatusPending, StatusReady, false},
		{StatusReady, StatusConfirmed, false},
		{StatusPending, StatusCancelled, true},
		{StatusReady, StatusCancelled, true},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusCancelled, false},
		{StatusCompleted, StatusPending, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, tc.from.CanAdvanceTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusReady.Terminal())
}

func TestOrderStatusValid(t *testing.T) {
	assert.True(t, StatusPreparing.Valid())
	assert.False(t, OrderStatus("SHIPPED").Valid())
}

func TestOrderTypeValid(t *testing.T) {
	assert.True(t, TypeDineIn.Valid())
	assert.False(t, OrderType("DRONE").Valid())
}

func TestTenantStatusCanOrder(t *testing.T) {
	assert.True(t, TenantActive.CanOrder())
	assert.True(t, TenantTrial.CanOrder())
	assert.False(t, TenantSuspended.CanOrder())
	assert.False(t, TenantCancelled.CanOrder())
}
