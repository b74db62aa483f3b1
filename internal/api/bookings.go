package api

import (
	"fmt"
	"net/http"
	"time"

	"shim/internal/models"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type createBookingRequest struct {
	ItemID  int64     `json:"item_id" binding:"required"`
	StartAt time.Time `json:"start_at"`
	EndAt   time.Time `json:"end_at"`
	Reason  string    `json:"reason"`
}

func (s *Server) createBooking(c *gin.Context) {
	var in createBookingRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		s.badRequest(c, "invalid booking request: %v", err)
		return
	}
	booking, err := s.deps.Bookings.CreateBooking(c.Request.Context(), callerFrom(c), in.ItemID, in.StartAt, in.EndAt, in.Reason)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, booking)
}

func (s *Server) myBookings(c *gin.Context) {
	bookings, err := s.deps.Bookings.ListUserBookings(c.Request.Context(), callerFrom(c).ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

func (s *Server) listBookings(c *gin.Context) {
	var status *models.BookingStatus
	if raw := c.Query("status"); raw != "" {
		parsed, err := models.ParseBookingStatus(raw)
		if err != nil {
			s.badRequest(c, "%v", err)
			return
		}
		status = &parsed
	}
	bookings, err := s.deps.Bookings.ListBookings(c.Request.Context(), status)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

func (s *Server) getBooking(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	booking, err := s.deps.Bookings.GetBooking(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

func (s *Server) approveBooking(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	booking, err := s.deps.Bookings.ApproveBooking(c.Request.Context(), callerFrom(c), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

func (s *Server) declineBooking(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	var in struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		s.badRequest(c, "invalid decline request: %v", err)
		return
	}
	booking, err := s.deps.Bookings.DeclineBooking(c.Request.Context(), callerFrom(c), id, in.Reason)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

func (s *Server) completeBooking(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	var in struct {
		Fine            *int64 `json:"fine"`
		ReturnCondition string `json:"return_condition"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		s.badRequest(c, "invalid complete request: %v", err)
		return
	}
	booking, err := s.deps.Bookings.CompleteBooking(c.Request.Context(), callerFrom(c), id, in.Fine, in.ReturnCondition)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

func (s *Server) dashboard(c *gin.Context) {
	stats, err := s.deps.Bookings.DashboardStats(c.Request.Context(), s.now())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// exportBookings streams an XLSX report; without a range it covers the last
// DefaultExportRangeDays days.
func (s *Server) exportBookings(c *gin.Context) {
	to := s.now()
	from := to.AddDate(0, 0, -models.DefaultExportRangeDays)
	if c.Query("from") != "" || c.Query("to") != "" {
		var ok bool
		if from, to, ok = s.queryWindow(c, "from", "to"); !ok {
			return
		}
	}
	if to.Before(from) {
		s.badRequest(c, "range end must not be before its start")
		return
	}

	data, err := s.deps.Exporter.ExportBookings(c.Request.Context(), from, to)
	if err != nil {
		s.fail(c, err)
		return
	}
	name := fmt.Sprintf("peminjaman_%s_%s.xlsx", from.Format(dateOnly), to.Format(dateOnly))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, xlsxContentType, data)
}
