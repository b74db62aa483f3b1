package api

import (
	"net/http"
	"time"

	"shim/internal/models"

	"github.com/gin-gonic/gin"
)

type itemRequest struct {
	Name        string    `json:"name" binding:"required"`
	Description string    `json:"description"`
	Condition   string    `json:"condition"`
	Price       *int64    `json:"price"`
	AcquiredAt  time.Time `json:"acquired_at"`
	GrantID     *int64    `json:"grant_id"`
	Status      string    `json:"status"`
}

func (r itemRequest) toModel() (*models.Item, error) {
	item := &models.Item{
		Name:        r.Name,
		Description: r.Description,
		Condition:   r.Condition,
		Price:       r.Price,
		AcquiredAt:  r.AcquiredAt,
		GrantID:     r.GrantID,
	}
	if r.Status != "" {
		status, err := models.ParseItemStatus(r.Status)
		if err != nil {
			return nil, err
		}
		item.Status = status
	}
	return item, nil
}

func (s *Server) listBookableItems(c *gin.Context) {
	s.listItems(c, true)
}

func (s *Server) listAllItems(c *gin.Context) {
	s.listItems(c, false)
}

func (s *Server) listItems(c *gin.Context, bookableOnly bool) {
	items, err := s.deps.Items.GetItems(c.Request.Context(), bookableOnly)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (s *Server) getItem(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	item, err := s.deps.Items.GetItemByID(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (s *Server) createItem(c *gin.Context) {
	var in itemRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		s.badRequest(c, "invalid item: %v", err)
		return
	}
	item, err := in.toModel()
	if err != nil {
		s.badRequest(c, "%v", err)
		return
	}
	if err := s.deps.Items.CreateItem(c.Request.Context(), item); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (s *Server) updateItem(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	var in itemRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		s.badRequest(c, "invalid item: %v", err)
		return
	}
	item, err := in.toModel()
	if err != nil {
		s.badRequest(c, "%v", err)
		return
	}
	item.ID = id
	ctx := c.Request.Context()
	if err := s.deps.Items.UpdateItem(ctx, item); err != nil {
		s.fail(c, err)
		return
	}
	updated, err := s.deps.Items.GetItemByID(ctx, id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) setItemStatus(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	var in struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		s.badRequest(c, "status is required")
		return
	}
	status, err := models.ParseItemStatus(in.Status)
	if err != nil {
		s.badRequest(c, "%v", err)
		return
	}
	ctx := c.Request.Context()
	if err := s.deps.Items.SetItemStatus(ctx, id, status); err != nil {
		s.fail(c, err)
		return
	}
	item, err := s.deps.Items.GetItemByID(ctx, id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (s *Server) deleteItem(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	if err := s.deps.Items.DeleteItem(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) overlaps(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	start, end, ok := s.queryWindow(c, "start", "end")
	if !ok {
		return
	}
	bookings, err := s.deps.Bookings.ListOverlappingBookings(c.Request.Context(), id, start, end)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}
