package schedules

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/chengyimio/laser-booking-system/db"
	"github.com/chengyimio/laser-booking-system/models"
	"github.com/chengyimio/laser-booking-system/utils"
)

// BookingSlip serves GET /api/bookings/slip?id= with a printable PDF
// confirmation for a booked slot. The embedded QR code carries the booking
// reference so staff can check it at the door.
func BookingSlip(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	objID, err := parseID(r.URL.Query().Get("id"))
	if err != nil {
		respondRuleError(w, err)
		return
	}

	ctx, cancel := opCtx()
	defer cancel()

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
	if s.UserBooked == nil {
		respondRuleError(w, ErrNotBooked)
		return
	}

	qrData := fmt.Sprintf("ref=%s&date=%s&ts=%d", s.UserBooked.Reference, s.Date, s.UserBooked.BookedAt.Unix())
	qrCode, err := qrcode.Encode(qrData, qrcode.Medium, 128)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate slip")
		return
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 20)
	pdf.CellFormat(0, 15, "Laser Cutter Booking", "", 1, "C", false, 0, "")
	pdf.Ln(5)

	pdf.SetFont("Arial", "", 12)
	pdf.MultiCell(0, 10, fmt.Sprintf(
		"Name: %s\nDate: %s (19:00-21:00)\nOperator: %s\nReference: %s\nBooked: %s",
		s.UserBooked.Name,
		s.Date,
		s.OperatorName,
		s.UserBooked.Reference,
		s.UserBooked.BookedAt.Format("02 Jan 2006 15:04"),
	), "", "L", false)

	imgOpts := gofpdf.ImageOptions{ImageType: "png"}
	pdf.RegisterImageOptionsReader("qr", imgOpts, bytes.NewReader(qrCode))
	pdf.ImageOptions("qr", 150, 60, 40, 40, false, imgOpts, 0, "")

	pdf.SetY(-30)
	pdf.SetFont("Arial", "I", 10)
	pdf.CellFormat(0, 10, "Bring this slip and pay the deposit before use.", "T", 0, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate slip")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=booking-"+s.UserBooked.Reference+".pdf")
	w.Write(buf.Bytes())
}
