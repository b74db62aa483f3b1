package api

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const dateOnly = "2006-01-02"

func (s *Server) pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		s.badRequest(c, "invalid id %q", c.Param("id"))
		return 0, false
	}
	return id, true
}

// parseTime accepts RFC 3339 timestamps or plain dates, read as UTC midnight.
func parseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, nil
	}
	return time.Parse(dateOnly, raw)
}

// queryWindow reads a required [start, end] pair from the query string.
func (s *Server) queryWindow(c *gin.Context, startKey, endKey string) (time.Time, time.Time, bool) {
	start, err := parseTime(c.Query(startKey))
	if err != nil {
		s.badRequest(c, "invalid %s; expected RFC 3339 or YYYY-MM-DD", startKey)
		return time.Time{}, time.Time{}, false
	}
	end, err := parseTime(c.Query(endKey))
	if err != nil {
		s.badRequest(c, "invalid %s; expected RFC 3339 or YYYY-MM-DD", endKey)
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}
