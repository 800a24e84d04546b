package model

import "time"

// CatalogueItem represents a reward item visible in the catalogue. Units
// belong to exactly one catalogue item.
type CatalogueItem struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	PointsCost  int       `json:"points_cost"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Unit represents a single allocatable reward unit. Reservation fields are
// zero-valued when the unit is unreserved; a reservation whose ReservedUntil
// is in the past must be treated as absent by every reader, even before the
// sweeper has physically cleared it.
type Unit struct {
	ID                string     `json:"id"`
	ItemID            string     `json:"item_id"`
	Label             string     `json:"label,omitempty"`
	TotalStock        int        `json:"total_stock"`
	RemainingStock    int        `json:"remaining_stock"`
	ReservedBy        string     `json:"reserved_by,omitempty"`
	ReservedReference string     `json:"reserved_reference,omitempty"`
	ReservedUntil     *time.Time `json:"reserved_until,omitempty"`
	Redeemed          bool       `json:"redeemed"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// HasLiveReservation reports whether the unit carries a reservation that is
// still in force at the given instant.
func (u *Unit) HasLiveReservation(now time.Time) bool {
	return u.ReservedBy != "" && u.ReservedUntil != nil && u.ReservedUntil.After(now)
}

// HeldBy reports whether agentID currently holds a live reservation on the unit.
func (u *Unit) HeldBy(agentID string, now time.Time) bool {
	return u.HasLiveReservation(now) && u.ReservedBy == agentID
}
