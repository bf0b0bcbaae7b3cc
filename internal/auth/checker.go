package auth

import (
	"fmt"
)

// AdminChecker answers whether a user is on the static admin allow-list.
// The bot has no role hierarchy beyond this list: admins get the report
// views and everyone else gets the group-facing behavior only.
type AdminChecker struct {
	admins map[int64]struct{}
	order  []int64
}

// NewAdminChecker creates a new AdminChecker from the configured admin IDs.
// It requires at least one admin, otherwise the report dispatch job would
// have nobody to deliver to.
func NewAdminChecker(adminIDs []int64) (*AdminChecker, error) {
	if len(adminIDs) == 0 {
		return nil, fmt.Errorf("admin ID list cannot be empty")
	}
	admins := make(map[int64]struct{}, len(adminIDs))
	order := make([]int64, 0, len(adminIDs))
	for _, id := range adminIDs {
		if _, dup := admins[id]; dup {
			continue
		}
		admins[id] = struct{}{}
		order = append(order, id)
	}
	return &AdminChecker{admins: admins, order: order}, nil
}

// IsAdmin checks if a user is on the allow-list.
func (ac *AdminChecker) IsAdmin(userID int64) bool {
	_, ok := ac.admins[userID]
	return ok
}

// AdminIDs returns the allow-list in configuration order,
// used by the weekly dispatch job to fan out the digest.
func (ac *AdminChecker) AdminIDs() []int64 {
	ids := make([]int64, len(ac.order))
	copy(ids, ac.order)
	return ids
}
