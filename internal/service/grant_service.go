package service

import (
	"context"
	"strings"

	"shim/internal/domain"
	"shim/internal/models"
)

type GrantService struct {
	repo domain.Repository
}

func NewGrantService(repo domain.Repository) *GrantService {
	return &GrantService{repo: repo}
}

func (s *GrantService) GetGrants(ctx context.Context) ([]*models.Grant, error) {
	grants, err := s.repo.GetGrants(ctx)
	return grants, asDomain("get grants", err)
}

func (s *GrantService) GetGrantByID(ctx context.Context, id int64) (*models.Grant, error) {
	grant, err := s.repo.GetGrantByID(ctx, id)
	return grant, asDomain("get grant", err)
}

func validateGrant(g *models.Grant) error {
	g.Name = strings.TrimSpace(g.Name)
	if g.Name == "" {
		return domain.InvalidInput("grant name is required")
	}
	if g.Year < 1900 || g.Year > 9999 {
		return domain.InvalidInput("grant year %d is out of range", g.Year)
	}
	return nil
}

func (s *GrantService) CreateGrant(ctx context.Context, grant *models.Grant) error {
	if err := validateGrant(grant); err != nil {
		return err
	}
	return asDomain("create grant", s.repo.CreateGrant(ctx, grant))
}

func (s *GrantService) UpdateGrant(ctx context.Context, grant *models.Grant) error {
	if err := validateGrant(grant); err != nil {
		return err
	}
	return asDomain("update grant", s.repo.UpdateGrant(ctx, grant))
}

// DeleteGrant removes the grant; items it funded are kept and unlinked.
func (s *GrantService) DeleteGrant(ctx context.Context, id int64) error {
	return asDomain("delete grant", s.repo.DeleteGrant(ctx, id))
}
