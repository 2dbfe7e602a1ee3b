// Package policy holds the lending rules consulted by the reservation state machine.
package policy

import (
	"fmt"
	"slices"
)

// Periods lists the loan lengths, in days, a member may choose from.
var Periods = []int{7, 14, 21}

// Policy is the configurable part of the lending rules.
type Policy struct {
	// MaxRenewals bounds how many times one reservation may be extended.
	MaxRenewals int
	// MaxActiveReservations bounds the ACTIVE/OVERDUE reservations a user
	// may hold at once. Zero means unbounded.
	MaxActiveReservations int
	// DueSoonDays is the dashboard threshold for "due soon".
	DueSoonDays int
}

// Default returns the policy used when nothing is configured.
func Default() Policy {
	return Policy{
		MaxRenewals:           1,
		MaxActiveReservations: 0,
		DueSoonDays:           7,
	}
}

// Validate rejects nonsensical values.
func (p Policy) Validate() error {
	if p.MaxRenewals < 0 {
		return fmt.Errorf("max renewals must not be negative, got %d", p.MaxRenewals)
	}
	if p.MaxActiveReservations < 0 {
		return fmt.Errorf("max active reservations must not be negative, got %d", p.MaxActiveReservations)
	}
	if p.DueSoonDays < 0 {
		return fmt.Errorf("due soon days must not be negative, got %d", p.DueSoonDays)
	}
	return nil
}

// ValidPeriod reports whether days is one of the allowed loan periods.
func ValidPeriod(days int) bool {
	return slices.Contains(Periods, days)
}

// CanRenew reports whether a reservation renewed renewalCount times may be
// renewed once more.
func (p Policy) CanRenew(renewalCount int) bool {
	return renewalCount < p.MaxRenewals
}

// UnderActiveLimit reports whether a user holding active reservations may take another.
func (p Policy) UnderActiveLimit(active int) bool {
	return p.MaxActiveReservations == 0 || active < p.MaxActiveReservations
}
