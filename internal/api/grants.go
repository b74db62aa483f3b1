package api

import (
	"net/http"

	"shim/internal/models"

	"github.com/gin-gonic/gin"
)

type grantRequest struct {
	Name              string `json:"name" binding:"required"`
	Description       string `json:"description"`
	Year              int    `json:"year" binding:"required"`
	ResponsiblePerson string `json:"responsible_person"`
}

func (r grantRequest) toModel() *models.Grant {
	return &models.Grant{
		Name:              r.Name,
		Description:       r.Description,
		Year:              r.Year,
		ResponsiblePerson: r.ResponsiblePerson,
	}
}

func (s *Server) listGrants(c *gin.Context) {
	grants, err := s.deps.Grants.GetGrants(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"grants": grants})
}

func (s *Server) getGrant(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	grant, err := s.deps.Grants.GetGrantByID(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, grant)
}

func (s *Server) createGrant(c *gin.Context) {
	var in grantRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		s.badRequest(c, "invalid grant: %v", err)
		return
	}
	grant := in.toModel()
	if err := s.deps.Grants.CreateGrant(c.Request.Context(), grant); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, grant)
}

func (s *Server) updateGrant(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	var in grantRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		s.badRequest(c, "invalid grant: %v", err)
		return
	}
	grant := in.toModel()
	grant.ID = id
	if err := s.deps.Grants.UpdateGrant(c.Request.Context(), grant); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, grant)
}

func (s *Server) deleteGrant(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	if err := s.deps.Grants.DeleteGrant(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
