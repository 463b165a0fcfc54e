package schedules

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestParseID(t *testing.T) {
	valid := primitive.NewObjectID()

	cases := []struct {
		name string
		raw  string
		want error
	}{
		{"valid hex", valid.Hex(), nil},
		{"empty", "", ErrMissingField},
		{"not hex", "zzzz", ErrInvalidIdentifier},
		{"wrong length", "abc123", ErrInvalidIdentifier},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := parseID(c.raw)
			if !errors.Is(err, c.want) {
				t.Fatalf("parseID(%q) err = %v, want %v", c.raw, err, c.want)
			}
			if err == nil && got != valid {
				t.Fatalf("parseID(%q) = %v, want %v", c.raw, got, valid)
			}
		})
	}
}

func TestRespondRuleErrorStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{ErrMissingField, http.StatusBadRequest},
		{ErrRoleAlreadyAssigned, http.StatusBadRequest},
		{ErrDateConflict, http.StatusBadRequest},
		{ErrNotBookable, http.StatusBadRequest},
		{ErrNotBooked, http.StatusBadRequest},
		{ErrHasBooking, http.StatusBadRequest},
		{ErrInvalidIdentifier, http.StatusBadRequest},
		{ErrNotFound, http.StatusNotFound},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		rec := httptest.NewRecorder()
		respondRuleError(rec, c.err)
		if rec.Code != c.want {
			t.Fatalf("respondRuleError(%v) status = %d, want %d", c.err, rec.Code, c.want)
		}
	}
}
