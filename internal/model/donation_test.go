package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDonationTransitions(t *testing.T) {
	cases := []struct {
		from    string
		to      string
		allowed bool
	}{
		{DonationStatusPending, DonationStatusConfirmed, true},
		{DonationStatusPending, DonationStatusRejected, true},
		{DonationStatusConfirmed, DonationStatusDelivered, true},
		// PENDING 不能跳过审核直接发放
		{DonationStatusPending, DonationStatusDelivered, false},
		// 终态不可逆
		{DonationStatusRejected, DonationStatusConfirmed, false},
		{DonationStatusRejected, DonationStatusPending, false},
		{DonationStatusDelivered, DonationStatusConfirmed, false},
		{DonationStatusDelivered, DonationStatusPending, false},
		{DonationStatusConfirmed, DonationStatusPending, false},
		{DonationStatusConfirmed, DonationStatusRejected, false},
	}

	for _, c := range cases {
		assert.Equal(t, c.allowed, CanDonationTransitionTo(c.from, c.to),
			"%s -> %s", c.from, c.to)
	}
}

func TestRedemptionTransitions(t *testing.T) {
	cases := []struct {
		from    string
		to      string
		allowed bool
	}{
		{RedemptionStatusActive, RedemptionStatusUsed, true},
		{RedemptionStatusActive, RedemptionStatusExpired, true},
		{RedemptionStatusUsed, RedemptionStatusActive, false},
		{RedemptionStatusUsed, RedemptionStatusExpired, false},
		{RedemptionStatusExpired, RedemptionStatusActive, false},
		{RedemptionStatusExpired, RedemptionStatusUsed, false},
	}

	for _, c := range cases {
		assert.Equal(t, c.allowed, CanRedemptionTransitionTo(c.from, c.to),
			"%s -> %s", c.from, c.to)
	}
}

func TestValidDonationTypes(t *testing.T) {
	assert.True(t, ValidDonationTypes[DonationTypeFood])
	assert.True(t, ValidDonationTypes[DonationTypeClothing])
	assert.True(t, ValidDonationTypes[DonationTypeMoney])
	assert.True(t, ValidDonationTypes[DonationTypeSupplies])
	assert.False(t, ValidDonationTypes["GOLD"])
	assert.False(t, ValidDonationTypes[""])
}
