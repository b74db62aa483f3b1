package api

import (
	"errors"
	"net/http"

	"shim/internal/domain"

	"github.com/gin-gonic/gin"
)

var statusByKind = map[domain.Kind]int{
	domain.KindNotFound:     http.StatusNotFound,
	domain.KindConflict:     http.StatusConflict,
	domain.KindInvalidInput: http.StatusBadRequest,
	domain.KindRateLimited:  http.StatusTooManyRequests,
	domain.KindForbidden:    http.StatusForbidden,
	domain.KindInternal:     http.StatusInternalServerError,
}

func abort(c *gin.Context, status int, kind, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": kind, "message": message})
}

// fail writes err as a JSON error body. Internal details are logged, never returned.
func (s *Server) fail(c *gin.Context, err error) {
	var de *domain.Error
	if !errors.As(err, &de) {
		de = domain.Internal("unclassified", err)
	}
	status, ok := statusByKind[de.Kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	body := gin.H{"error": string(de.Kind), "message": de.Message}
	if status == http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("request_id", c.GetString(requestIDKey)).Msg("request failed")
		body["error"] = string(domain.KindInternal)
		body["message"] = "internal server error"
	} else {
		if de.BookingID != 0 {
			body["booking_id"] = de.BookingID
		}
		if de.ItemID != 0 {
			body["item_id"] = de.ItemID
		}
		if de.Status != "" {
			body["status"] = de.Status
		}
	}
	c.AbortWithStatusJSON(status, body)
}

func (s *Server) badRequest(c *gin.Context, format string, args ...any) {
	s.fail(c, domain.InvalidInput(format, args...))
}
