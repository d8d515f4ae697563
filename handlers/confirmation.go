package handlers

import (
	"context"
	"fmt"
	"html/template"
	"net/http"

	"jeffjackson/models"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"go.uber.org/zap"
)

// EntryRoute is where a confirmation request without a record is sent.
const EntryRoute = "/"

// ConfirmationSource hands out the record created by a session, once.
type ConfirmationSource interface {
	PopConfirmation(ctx context.Context, sessionID string) (models.BookingRecord, bool, error)
}

// ConfirmationHandler renders the record a booking session was confirmed
// with. It never looks a booking up; without navigation state it redirects.
type ConfirmationHandler struct {
	Source ConfirmationSource
	Logger *zap.Logger
}

func NewConfirmationHandler(src ConfirmationSource, logger *zap.Logger) *ConfirmationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConfirmationHandler{Source: src, Logger: logger}
}

var confirmationPage = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>{{.Label}} confirmed</title></head>
<body>
<h1>{{.Label}} received</h1>
<dl>
<dt>{{.Label}} ID</dt><dd>{{.UniqueID}}</dd>
<dt>Event</dt><dd>{{.EventType}}</dd>
<dt>Date</dt><dd>{{.EventDate}} {{.EventTime}}</dd>
<dt>Amount</dt><dd>{{.Amount}}</dd>
<dt>Status</dt><dd>{{.Status}}</dd>
</dl>
</body>
</html>
`))

type confirmationView struct {
	Label     string
	UniqueID  string
	EventType string
	EventDate string
	EventTime string
	Amount    string
	Status    string
}

func viewOf(rec models.BookingRecord) confirmationView {
	return confirmationView{
		Label:     models.KindOf(rec.UniqueID).Label(),
		UniqueID:  rec.UniqueID,
		EventType: rec.EventType,
		EventDate: rec.EventDate,
		EventTime: rec.EventTime,
		Amount:    fmt.Sprintf("$%.2f", rec.Amount),
		Status:    string(rec.Status),
	}
}

// Show handles GET /booking/confirmation.
func (h *ConfirmationHandler) Show(c *gin.Context) {
	sid := sessionID(c)
	if sid == "" {
		c.Redirect(http.StatusFound, EntryRoute)
		return
	}
	rec, ok, err := h.Source.PopConfirmation(c.Request.Context(), sid)
	if err != nil {
		h.Logger.Error("Failed to read confirmation state", zap.String("sessionID", sid), zap.Error(err))
	}
	if err != nil || !ok {
		c.Redirect(http.StatusFound, EntryRoute)
		return
	}

	switch c.NegotiateFormat(gin.MIMEJSON, gin.MIMEHTML) {
	case gin.MIMEHTML:
		c.Render(http.StatusOK, render.HTML{Template: confirmationPage, Name: "confirmation", Data: viewOf(rec)})
	default:
		if raw := rec.Raw(); len(raw) > 0 {
			c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
			return
		}
		c.JSON(http.StatusOK, rec)
	}
}
