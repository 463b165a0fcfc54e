package schedules

import (
	"errors"
	"testing"
	"time"

	"github.com/chengyimio/laser-booking-system/models"
)

var now = time.Date(2025, 4, 2, 19, 0, 0, 0, time.UTC)

func TestAssignRequestValidate(t *testing.T) {
	cases := []struct {
		name string
		req  AssignRequest
		want error
	}{
		{"valid operator", AssignRequest{Date: "4/2", Role: "operator", Name: "A"}, nil},
		{"valid checker", AssignRequest{Date: "4/2", Role: "checker", Name: "C"}, nil},
		{"missing date", AssignRequest{Role: "operator", Name: "A"}, ErrMissingField},
		{"missing name", AssignRequest{Date: "4/2", Role: "operator"}, ErrMissingField},
		{"bad role", AssignRequest{Date: "4/2", Role: "janitor", Name: "A"}, ErrMissingField},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.req.Validate(); !errors.Is(got, c.want) {
				t.Fatalf("Validate() = %v, want %v", got, c.want)
			}
		})
	}
}

func TestCreateThenAssign(t *testing.T) {
	s := NewSchedule(AssignRequest{Date: "4/2", Role: "operator", Name: "A", Phone: "0912"}, now)

	if s.Date != "4/2" || s.OperatorName != "A" || s.CheckerName != "" {
		t.Fatalf("unexpected new schedule: %+v", s)
	}
	if !s.CreatedAt.Equal(now) || !s.UpdatedAt.Equal(now) {
		t.Fatalf("timestamps not set on create")
	}

	// second operator assignment on the same slot must be rejected
	err := Assign(s, AssignRequest{Date: "4/2", Role: "operator", Name: "B"}, now.Add(time.Hour))
	if !errors.Is(err, ErrRoleAlreadyAssigned) {
		t.Fatalf("reassign operator: got %v, want ErrRoleAlreadyAssigned", err)
	}
	if s.OperatorName != "A" {
		t.Fatalf("rejected assign mutated slot: operatorName = %q", s.OperatorName)
	}

	// the open checker role can still be filled
	if err := Assign(s, AssignRequest{Date: "4/2", Role: "checker", Name: "C"}, now.Add(time.Hour)); err != nil {
		t.Fatalf("assign checker: %v", err)
	}
	if s.OperatorName != "A" || s.CheckerName != "C" {
		t.Fatalf("unexpected slot after checker assign: %+v", s)
	}
}

func TestBookCancelRebook(t *testing.T) {
	s := NewSchedule(AssignRequest{Date: "4/2", Role: "operator", Name: "A"}, now)

	b := NewBooking(BookRequest{Date: "4/2", UserName: "U", Phone: "0900"}, "ref-1", now)
	if err := Book(s, b, now); err != nil {
		t.Fatalf("first booking: %v", err)
	}
	if s.UserBooked == nil || s.UserBooked.Name != "U" || s.UserBooked.Reference != "ref-1" {
		t.Fatalf("booking not attached: %+v", s.UserBooked)
	}

	// a booked slot is not bookable again
	b2 := NewBooking(BookRequest{Date: "4/2", UserName: "V", Phone: "0901"}, "ref-2", now)
	if err := Book(s, b2, now); !errors.Is(err, ErrNotBookable) {
		t.Fatalf("double booking: got %v, want ErrNotBookable", err)
	}
	if s.UserBooked.Name != "U" {
		t.Fatalf("rejected booking overwrote the reservation")
	}

	if err := CancelBooking(s, now.Add(time.Hour)); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if s.UserBooked != nil {
		t.Fatalf("booking not cleared after cancel")
	}

	if err := Book(s, b2, now.Add(2*time.Hour)); err != nil {
		t.Fatalf("rebooking after cancel: %v", err)
	}
}

func TestBookRequiresOperator(t *testing.T) {
	// a slot staffed only by a checker is not bookable
	s := NewSchedule(AssignRequest{Date: "4/2", Role: "checker", Name: "C"}, now)

	b := NewBooking(BookRequest{Date: "4/2", UserName: "U", Phone: "0900"}, "ref", now)
	if err := Book(s, b, now); !errors.Is(err, ErrNotBookable) {
		t.Fatalf("booking checker-only slot: got %v, want ErrNotBookable", err)
	}
}

func TestCancelUnbooked(t *testing.T) {
	s := NewSchedule(AssignRequest{Date: "4/2", Role: "operator", Name: "A"}, now)
	before := *s

	if err := CancelBooking(s, now.Add(time.Hour)); !errors.Is(err, ErrNotBooked) {
		t.Fatalf("cancel unbooked: got %v, want ErrNotBooked", err)
	}
	if *s != before {
		t.Fatalf("failed cancel mutated the slot")
	}
}

func TestDeleteGuard(t *testing.T) {
	s := NewSchedule(AssignRequest{Date: "4/2", Role: "operator", Name: "A"}, now)
	if err := CanDelete(s); err != nil {
		t.Fatalf("delete unbooked slot: %v", err)
	}

	b := NewBooking(BookRequest{Date: "4/2", UserName: "U", Phone: "0900"}, "ref", now)
	if err := Book(s, b, now); err != nil {
		t.Fatalf("booking: %v", err)
	}
	if err := CanDelete(s); !errors.Is(err, ErrHasBooking) {
		t.Fatalf("delete booked slot: got %v, want ErrHasBooking", err)
	}

	if err := CancelBooking(s, now); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := CanDelete(s); err != nil {
		t.Fatalf("delete after cancel: %v", err)
	}
}

func TestApplyEditOverwritesAssignedRole(t *testing.T) {
	s := NewSchedule(AssignRequest{Date: "4/2", Role: "operator", Name: "A", Phone: "0912"}, now)
	b := NewBooking(BookRequest{Date: "4/2", UserName: "U", Phone: "0900"}, "ref", now)
	if err := Book(s, b, now); err != nil {
		t.Fatalf("booking: %v", err)
	}

	notes := "swapped shift"
	ApplyEdit(s, EditRequest{Date: "4/9", Role: "operator", Name: "B", Phone: "0934", Notes: &notes}, now.Add(time.Hour))

	if s.Date != "4/9" {
		t.Fatalf("date not relocated: %q", s.Date)
	}
	if s.OperatorName != "B" || s.OperatorPhone != "0934" {
		t.Fatalf("edit did not overwrite assigned role: %+v", s)
	}
	if s.Notes != "swapped shift" {
		t.Fatalf("notes not applied: %q", s.Notes)
	}
	// everything not named by the edit is preserved
	if s.UserBooked == nil || s.UserBooked.Name != "U" {
		t.Fatalf("edit dropped the booking")
	}
	if !s.UpdatedAt.After(s.CreatedAt) {
		t.Fatalf("updatedAt not refreshed")
	}
}

func TestApplyConfirmation(t *testing.T) {
	s := NewSchedule(AssignRequest{Date: "4/2", Role: "operator", Name: "A"}, now)

	if err := ApplyConfirmation(s, nil, nil, now); !errors.Is(err, ErrMissingField) {
		t.Fatalf("empty confirmation update: got %v, want ErrMissingField", err)
	}

	yes := true
	if err := ApplyConfirmation(s, &yes, nil, now); err != nil {
		t.Fatalf("confirm operator: %v", err)
	}
	if !s.OperatorConfirmed || s.CheckerConfirmed {
		t.Fatalf("unexpected flags: %+v", s)
	}

	// confirming the unassigned checker is allowed, the flag is display state
	if err := ApplyConfirmation(s, nil, &yes, now); err != nil {
		t.Fatalf("confirm checker: %v", err)
	}
	if !s.CheckerConfirmed {
		t.Fatalf("checker flag not set")
	}
}

func TestStatusDerivation(t *testing.T) {
	booked := &models.Booking{Name: "U", Phone: "0900"}
	cases := []struct {
		name string
		slot models.Schedule
		want string
	}{
		{"empty", models.Schedule{}, models.StatusUnscheduled},
		{"checker only", models.Schedule{CheckerName: "C"}, models.StatusPartial},
		{"operator only", models.Schedule{OperatorName: "A"}, models.StatusBookable},
		{"fully staffed", models.Schedule{OperatorName: "A", CheckerName: "C"}, models.StatusBookable},
		{"booked", models.Schedule{OperatorName: "A", UserBooked: booked}, models.StatusBooked},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.slot.Status(); got != c.want {
				t.Fatalf("Status() = %q, want %q", got, c.want)
			}
			wantBookable := c.want == models.StatusBookable
			if got := c.slot.Bookable(); got != wantBookable {
				t.Fatalf("Bookable() = %v, want %v", got, wantBookable)
			}
		})
	}
}
