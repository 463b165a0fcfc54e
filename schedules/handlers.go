package schedules

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/chengyimio/laser-booking-system/db"
	"github.com/chengyimio/laser-booking-system/models"
	"github.com/chengyimio/laser-booking-system/rdx"
	"github.com/chengyimio/laser-booking-system/utils"
)

const availableCacheKey = "schedules:available"
const availableCacheTTL = 30 * time.Second

func opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

// respondRuleError maps a lifecycle rule failure onto the HTTP surface.
// Anything that is not a rule failure is a store problem: log it and return
// a generic 500 so infra details never leak to the caller.
func respondRuleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		utils.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrMissingField),
		errors.Is(err, ErrRoleAlreadyAssigned),
		errors.Is(err, ErrDateConflict),
		errors.Is(err, ErrNotBookable),
		errors.Is(err, ErrNotBooked),
		errors.Is(err, ErrHasBooking),
		errors.Is(err, ErrInvalidIdentifier):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("schedules store error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "server error")
	}
}

func parseID(raw string) (primitive.ObjectID, error) {
	if raw == "" {
		return primitive.NilObjectID, ErrMissingField
	}
	objID, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidIdentifier
	}
	return objID, nil
}

// invalidation + live push after every successful mutation
func notifyChanged() {
	if err := rdx.RdxDel(availableCacheKey); err != nil {
		log.Printf("available-cache invalidation failed: %v", err)
	}
	broadcastUpdate()
}

// GetSchedules serves GET /api/bookings with ?id=, ?date= and ?available=true.
func GetSchedules(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := opCtx()
	defer cancel()

	q := r.URL.Query()

	if raw := q.Get("id"); raw != "" {
		objID, err := parseID(raw)
		if err != nil {
			respondRuleError(w, err)
			return
		}
		var s models.Schedule
		err = db.SchedulesCollection.FindOne(ctx, bson.M{"_id": objID}).Decode(&s)
		if err == mongo.ErrNoDocuments {
			respondRuleError(w, ErrNotFound)
			return
		}
		if err != nil {
			respondRuleError(w, err)
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, s)
		return
	}

	filter := bson.M{}
	if date := q.Get("date"); date != "" {
		filter["date"] = date
	}

	available := q.Get("available") == "true"
	if available {
		if len(filter) == 0 {
			if cached, err := rdx.RdxGet(availableCacheKey); err == nil && cached != "" {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(cached))
				return
			}
		}
		filter["operatorName"] = bson.M{"$ne": ""}
		filter["userBooked"] = nil
	}

	cur, err := db.SchedulesCollection.Find(ctx, filter)
	if err != nil {
		respondRuleError(w, err)
		return
	}
	defer cur.Close(ctx)

	schedules := []models.Schedule{}
	if err := cur.All(ctx, &schedules); err != nil {
		respondRuleError(w, err)
		return
	}

	if available && q.Get("date") == "" {
		if data, err := json.Marshal(schedules); err == nil {
			if err := rdx.RdxSetTTL(availableCacheKey, string(data), availableCacheTTL); err != nil {
				log.Printf("available-cache store failed: %v", err)
			}
		}
	}

	utils.RespondWithJSON(w, http.StatusOK, schedules)
}

type createPayload struct {
	Type     string `json:"type"`
	Role     string `json:"role"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Date     string `json:"date"`
	Notes    string `json:"notes"`
	UserName string `json:"userName"`
	Email    string `json:"email"`
	Purpose  string `json:"purpose"`
}

// CreateOrBook serves POST /api/bookings. The body's type field selects the
// administrator create-or-assign path or the public booking path.
func CreateOrBook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var p createPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	switch p.Type {
	case "schedule":
		handleAssign(w, r, p)
	case "booking":
		handleBook(w, p)
	default:
		utils.RespondWithError(w, http.StatusBadRequest, "unknown request type")
	}
}

func handleAssign(w http.ResponseWriter, r *http.Request, p createPayload) {
	if utils.GetUserIDFromRequest(r) == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "administrator login required")
		return
	}

	req := AssignRequest{Date: p.Date, Role: p.Role, Name: p.Name, Phone: p.Phone, Notes: p.Notes}
	if err := req.Validate(); err != nil {
		respondRuleError(w, err)
		return
	}

	ctx, cancel := opCtx()
	defer cancel()
	now := time.Now()

	// Guarded in-place assign: only matches when the role is still open, so
	// two concurrent requests for the same role cannot both win.
	assigned, err := tryAssign(ctx, req, now)
	if err != nil {
		respondRuleError(w, err)
		return
	}
	if assigned {
		notifyChanged()
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "role assigned"})
		return
	}

	// Nothing matched: the date either has no slot yet or the role is taken.
	err = db.SchedulesCollection.FindOne(ctx, bson.M{"date": req.Date}).Err()
	if err == nil {
		respondRuleError(w, ErrRoleAlreadyAssigned)
		return
	}
	if err != mongo.ErrNoDocuments {
		respondRuleError(w, err)
		return
	}

	s := NewSchedule(req, now)
	_, err = db.SchedulesCollection.InsertOne(ctx, s)
	if mongo.IsDuplicateKeyError(err) {
		// lost the create race; retry as a plain assign once
		assigned, err = tryAssign(ctx, req, now)
		if err != nil {
			respondRuleError(w, err)
			return
		}
		if !assigned {
			respondRuleError(w, ErrRoleAlreadyAssigned)
			return
		}
		notifyChanged()
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "role assigned"})
		return
	}
	if err != nil {
		respondRuleError(w, err)
		return
	}

	notifyChanged()
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"message": "schedule created", "schedule": s})
}

func tryAssign(ctx context.Context, req AssignRequest, now time.Time) (bool, error) {
	nameField := "operatorName"
	phoneField := "operatorPhone"
	if req.Role == models.RoleChecker {
		nameField = "checkerName"
		phoneField = "checkerPhone"
	}

	set := bson.M{nameField: req.Name, phoneField: req.Phone, "updatedAt": now}
	if req.Notes != "" {
		set["notes"] = req.Notes
	}

	res, err := db.SchedulesCollection.UpdateOne(ctx,
		bson.M{"date": req.Date, nameField: ""},
		bson.M{"$set": set},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

func handleBook(w http.ResponseWriter, p createPayload) {
	req := BookRequest{Date: p.Date, UserName: p.UserName, Phone: p.Phone, Email: p.Email, Purpose: p.Purpose, Notes: p.Notes}
	if err := req.Validate(); err != nil {
		respondRuleError(w, err)
		return
	}

	ctx, cancel := opCtx()
	defer cancel()
	now := time.Now()
	booking := NewBooking(req, utils.GetUUID(), now)

	// Single conditional write: the bookability check and the booking itself
	// land in one document update, so concurrent bookings cannot both pass.
	res := db.SchedulesCollection.FindOneAndUpdate(ctx,
		bson.M{"date": req.Date, "operatorName": bson.M{"$ne": ""}, "userBooked": nil},
		bson.M{"$set": bson.M{"userBooked": booking, "updatedAt": now}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	var updated models.Schedule
	if err := res.Decode(&updated); err != nil {
		if err == mongo.ErrNoDocuments {
			respondRuleError(w, ErrNotBookable)
			return
		}
		respondRuleError(w, err)
		return
	}

	notifyChanged()
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "booking confirmed", "schedule": updated})
}

type updatePayload struct {
	Type              string  `json:"type"`
	Role              string  `json:"role"`
	Name              string  `json:"name"`
	Phone             string  `json:"phone"`
	Date              string  `json:"date"`
	Notes             *string `json:"notes"`
	OperatorConfirmed *bool   `json:"operatorConfirmed"`
	CheckerConfirmed  *bool   `json:"checkerConfirmed"`
}

// UpdateSchedule serves PUT /api/bookings?id=. A type of "schedule" is the
// explicit edit path (may overwrite an assigned role and move the date);
// anything else updates the confirmation flags.
func UpdateSchedule(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	objID, err := parseID(r.URL.Query().Get("id"))
	if err != nil {
		respondRuleError(w, err)
		return
	}

	var p updatePayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	ctx, cancel := opCtx()
	defer cancel()

	var existing models.Schedule
	err = db.SchedulesCollection.FindOne(ctx, bson.M{"_id": objID}).Decode(&existing)
	if err == mongo.ErrNoDocuments {
		respondRuleError(w, ErrNotFound)
		return
	}
	if err != nil {
		respondRuleError(w, err)
		return
	}

	now := time.Now()

	if p.Type == "schedule" {
		req := EditRequest{Date: p.Date, Role: p.Role, Name: p.Name, Phone: p.Phone, Notes: p.Notes}
		if err := req.Validate(); err != nil {
			respondRuleError(w, err)
			return
		}

		if req.Date != existing.Date {
			err := db.SchedulesCollection.FindOne(ctx,
				bson.M{"date": req.Date, "_id": bson.M{"$ne": objID}},
			).Err()
			if err == nil {
				respondRuleError(w, ErrDateConflict)
				return
			}
			if err != mongo.ErrNoDocuments {
				respondRuleError(w, err)
				return
			}
		}

		ApplyEdit(&existing, req, now)

		_, err = db.SchedulesCollection.UpdateOne(ctx,
			bson.M{"_id": objID},
			bson.M{"$set": bson.M{
				"date":          existing.Date,
				"operatorName":  existing.OperatorName,
				"operatorPhone": existing.OperatorPhone,
				"checkerName":   existing.CheckerName,
				"checkerPhone":  existing.CheckerPhone,
				"notes":         existing.Notes,
				"updatedAt":     existing.UpdatedAt,
			}},
		)
		if err != nil {
			respondRuleError(w, err)
			return
		}

		notifyChanged()
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "schedule updated"})
		return
	}

	if err := ApplyConfirmation(&existing, p.OperatorConfirmed, p.CheckerConfirmed, now); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "no updatable fields")
		return
	}

	_, err = db.SchedulesCollection.UpdateOne(ctx,
		bson.M{"_id": objID},
		bson.M{"$set": bson.M{
			"operatorConfirmed": existing.OperatorConfirmed,
			"checkerConfirmed":  existing.CheckerConfirmed,
			"updatedAt":         existing.UpdatedAt,
		}},
	)
	if err != nil {
		respondRuleError(w, err)
		return
	}

	notifyChanged()
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "confirmation updated"})
}

// CancelBookingHandler serves POST /api/bookings/cancel?id=.
func CancelBookingHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	objID, err := parseID(r.URL.Query().Get("id"))
	if err != nil {
		respondRuleError(w, err)
		return
	}

	ctx, cancel := opCtx()
	defer cancel()

	res := db.SchedulesCollection.FindOneAndUpdate(ctx,
		bson.M{"_id": objID, "userBooked": bson.M{"$ne": nil}},
		bson.M{"$set": bson.M{"userBooked": nil, "updatedAt": time.Now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	var updated models.Schedule
	if err := res.Decode(&updated); err != nil {
		if err != mongo.ErrNoDocuments {
			respondRuleError(w, err)
			return
		}
		// distinguish a missing slot from an unbooked one
		err = db.SchedulesCollection.FindOne(ctx, bson.M{"_id": objID}).Err()
		if err == mongo.ErrNoDocuments {
			respondRuleError(w, ErrNotFound)
			return
		}
		if err != nil {
			respondRuleError(w, err)
			return
		}
		respondRuleError(w, ErrNotBooked)
		return
	}

	notifyChanged()
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "booking cancelled"})
}

// DeleteSchedule serves DELETE /api/bookings?id=. The booking guard is part
// of the delete filter, a booked slot can never be removed.
func DeleteSchedule(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	objID, err := parseID(r.URL.Query().Get("id"))
	if err != nil {
		respondRuleError(w, err)
		return
	}

	ctx, cancel := opCtx()
	defer cancel()

	res := db.SchedulesCollection.FindOneAndDelete(ctx,
		bson.M{"_id": objID, "userBooked": nil},
	)

	var deleted models.Schedule
	if err := res.Decode(&deleted); err != nil {
		if err != mongo.ErrNoDocuments {
			respondRuleError(w, err)
			return
		}
		err = db.SchedulesCollection.FindOne(ctx, bson.M{"_id": objID}).Err()
		if err == mongo.ErrNoDocuments {
			respondRuleError(w, ErrNotFound)
			return
		}
		if err != nil {
			respondRuleError(w, err)
			return
		}
		respondRuleError(w, ErrHasBooking)
		return
	}

	notifyChanged()
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "schedule deleted"})
}

type batchItem struct {
	ID                string `json:"id"`
	OperatorConfirmed bool   `json:"operatorConfirmed"`
	CheckerConfirmed  bool   `json:"checkerConfirmed"`
}

// BatchUpdateConfirmations serves POST /api/bookings/batch-update, the
// explicit flush of confirmation state buffered on the admin page. Items
// with a malformed id are reported back instead of failing the whole flush.
func BatchUpdateConfirmations(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var updates []batchItem
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil || len(updates) == 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid update payload")
		return
	}

	now := time.Now()
	var ops []mongo.WriteModel
	failed := []string{}

	for _, u := range updates {
		objID, err := primitive.ObjectIDFromHex(u.ID)
		if err != nil {
			failed = append(failed, u.ID)
			continue
		}
		ops = append(ops, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": objID}).
			SetUpdate(bson.M{"$set": bson.M{
				"operatorConfirmed": u.OperatorConfirmed,
				"checkerConfirmed":  u.CheckerConfirmed,
				"updatedAt":         now,
			}}))
	}

	if len(ops) == 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "no valid updates in payload")
		return
	}

	ctx, cancel := opCtx()
	defer cancel()

	res, err := db.SchedulesCollection.BulkWrite(ctx, ops)
	if err != nil {
		respondRuleError(w, err)
		return
	}

	notifyChanged()
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"message":       "batch update complete",
		"modifiedCount": res.ModifiedCount,
		"failed":        failed,
	})
}
