package schedules

import (
	"time"

	"github.com/chengyimio/laser-booking-system/models"
)

// Pure slot-lifecycle rules. Everything here works on an in-memory
// models.Schedule; the handlers decide how the result is persisted.

type AssignRequest struct {
	Date  string `json:"date"`
	Role  string `json:"role"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Notes string `json:"notes"`
}

type EditRequest struct {
	Date  string  `json:"date"`
	Role  string  `json:"role"`
	Name  string  `json:"name"`
	Phone string  `json:"phone"`
	Notes *string `json:"notes"`
}

type BookRequest struct {
	Date     string `json:"date"`
	UserName string `json:"userName"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Purpose  string `json:"purpose"`
	Notes    string `json:"notes"`
}

func validRole(role string) bool {
	return role == models.RoleOperator || role == models.RoleChecker
}

func (r AssignRequest) Validate() error {
	if r.Date == "" || r.Name == "" || !validRole(r.Role) {
		return ErrMissingField
	}
	return nil
}

func (r EditRequest) Validate() error {
	if r.Date == "" || r.Name == "" || !validRole(r.Role) {
		return ErrMissingField
	}
	return nil
}

func (r BookRequest) Validate() error {
	if r.Date == "" || r.UserName == "" || r.Phone == "" {
		return ErrMissingField
	}
	return nil
}

// NewSchedule builds the slot created by the first scheduling request for a
// date. The requested role is filled, the other left unassigned.
func NewSchedule(r AssignRequest, now time.Time) *models.Schedule {
	s := &models.Schedule{
		Date:      r.Date,
		Notes:     r.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	setRole(s, r.Role, r.Name, r.Phone)
	return s
}

// Assign fills the requested role on an existing slot. A role that already
// has a name can only be changed through the explicit edit path.
func Assign(s *models.Schedule, r AssignRequest, now time.Time) error {
	if roleName(s, r.Role) != "" {
		return ErrRoleAlreadyAssigned
	}
	setRole(s, r.Role, r.Name, r.Phone)
	if r.Notes != "" {
		s.Notes = r.Notes
	}
	s.UpdatedAt = now
	return nil
}

// ApplyEdit is the explicit-edit path: it overwrites the requested role
// unconditionally. Date relocation is applied here; the caller must have
// verified the new date is free (ErrDateConflict otherwise).
func ApplyEdit(s *models.Schedule, r EditRequest, now time.Time) {
	s.Date = r.Date
	setRole(s, r.Role, r.Name, r.Phone)
	if r.Notes != nil {
		s.Notes = *r.Notes
	}
	s.UpdatedAt = now
}

// NewBooking builds the reservation sub-record attached on a successful book.
func NewBooking(r BookRequest, reference string, now time.Time) *models.Booking {
	return &models.Booking{
		Name:      r.UserName,
		Phone:     r.Phone,
		Email:     r.Email,
		Purpose:   r.Purpose,
		Notes:     r.Notes,
		Reference: reference,
		BookedAt:  now,
	}
}

// Book attaches a booking to a bookable slot.
func Book(s *models.Schedule, b *models.Booking, now time.Time) error {
	if !s.Bookable() {
		return ErrNotBookable
	}
	s.UserBooked = b
	s.UpdatedAt = now
	return nil
}

// CancelBooking clears the reservation. It never mutates an unbooked slot.
func CancelBooking(s *models.Schedule, now time.Time) error {
	if s.UserBooked == nil {
		return ErrNotBooked
	}
	s.UserBooked = nil
	s.UpdatedAt = now
	return nil
}

// CanDelete reports whether the slot may be removed.
func CanDelete(s *models.Schedule) error {
	if s.UserBooked != nil {
		return ErrHasBooking
	}
	return nil
}

// ApplyConfirmation sets the attendance flags that were supplied. Confirming
// a role that has no name yet is allowed; the flag is display state only.
func ApplyConfirmation(s *models.Schedule, operator, checker *bool, now time.Time) error {
	if operator == nil && checker == nil {
		return ErrMissingField
	}
	if operator != nil {
		s.OperatorConfirmed = *operator
	}
	if checker != nil {
		s.CheckerConfirmed = *checker
	}
	s.UpdatedAt = now
	return nil
}

func roleName(s *models.Schedule, role string) string {
	if role == models.RoleOperator {
		return s.OperatorName
	}
	return s.CheckerName
}

func setRole(s *models.Schedule, role, name, phone string) {
	if role == models.RoleOperator {
		s.OperatorName = name
		s.OperatorPhone = phone
		return
	}
	s.CheckerName = name
	s.CheckerPhone = phone
}
