package entity

import (
	"strings"
	"time"
)

// Train is a scheduled run owned by exactly one User.
type Train struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Departure   time.Time `json:"departure"`
	Arrival     time.Time `json:"arrival"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	UserID      int64     `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TrainPatch carries a partial update; nil fields are left untouched.
type TrainPatch struct {
	Name        *string
	Departure   *time.Time
	Arrival     *time.Time
	Origin      *string
	Destination *string
}

// IsEmpty reports whether the patch changes nothing.
func (p TrainPatch) IsEmpty() bool {
	return p.Name == nil && p.Departure == nil && p.Arrival == nil && p.Origin == nil && p.Destination == nil
}

// Apply copies every set field of p onto t.
func (p TrainPatch) Apply(t *Train) {
	if p.Name != nil {
		t.Name = strings.TrimSpace(*p.Name)
	}
	if p.Departure != nil {
		t.Departure = *p.Departure
	}
	if p.Arrival != nil {
		t.Arrival = *p.Arrival
	}
	if p.Origin != nil {
		t.Origin = strings.TrimSpace(*p.Origin)
	}
	if p.Destination != nil {
		t.Destination = strings.TrimSpace(*p.Destination)
	}
}

// TrainSearch is a case-insensitive substring query over name, origin and
// destination, optionally restricted to one owner.
type TrainSearch struct {
	Query   string
	OwnerID *int64
	Offset  int
	Limit   int
}
