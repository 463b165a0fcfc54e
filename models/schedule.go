package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role names accepted by schedule mutations.
const (
	RoleOperator = "operator"
	RoleChecker  = "checker"
)

// Derived schedule statuses, never persisted.
const (
	StatusUnscheduled = "unscheduled"
	StatusPartial     = "partial"
	StatusBookable    = "bookable"
	StatusBooked      = "booked"
)

// Booking is the user reservation attached to a schedule, at most one.
type Booking struct {
	Name      string    `json:"name" bson:"name"`
	Phone     string    `json:"phone" bson:"phone"`
	Email     string    `json:"email,omitempty" bson:"email,omitempty"`
	Purpose   string    `json:"purpose,omitempty" bson:"purpose,omitempty"`
	Notes     string    `json:"notes,omitempty" bson:"notes,omitempty"`
	Reference string    `json:"reference" bson:"reference"`
	BookedAt  time.Time `json:"bookedAt" bson:"bookedAt"`
}

// Schedule is one staffed time slot, keyed by its date string ("M/D").
// Empty operator/checker name means the role is unassigned.
type Schedule struct {
	ID                primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	Date              string             `json:"date" bson:"date"`
	OperatorName      string             `json:"operatorName" bson:"operatorName"`
	OperatorPhone     string             `json:"operatorPhone" bson:"operatorPhone"`
	OperatorConfirmed bool               `json:"operatorConfirmed" bson:"operatorConfirmed"`
	CheckerName       string             `json:"checkerName" bson:"checkerName"`
	CheckerPhone      string             `json:"checkerPhone" bson:"checkerPhone"`
	CheckerConfirmed  bool               `json:"checkerConfirmed" bson:"checkerConfirmed"`
	UserBooked        *Booking           `json:"userBooked" bson:"userBooked"`
	Notes             string             `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt         time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// Bookable reports whether a user may book this slot. The checker is not
// required, only an assigned operator and no existing booking.
func (s *Schedule) Bookable() bool {
	return s.OperatorName != "" && s.UserBooked == nil
}

// Status derives the slot state from its fields.
func (s *Schedule) Status() string {
	switch {
	case s.UserBooked != nil:
		return StatusBooked
	case s.OperatorName != "":
		return StatusBookable
	case s.CheckerName != "":
		return StatusPartial
	default:
		return StatusUnscheduled
	}
}
