package service

import (
	"context"
	"strings"

	"shim/internal/domain"
	"shim/internal/logging"
	"shim/internal/models"

	"github.com/rs/zerolog"
)

type ItemService struct {
	repo   domain.Repository
	logger *zerolog.Logger
}

func NewItemService(repo domain.Repository, logger *zerolog.Logger) *ItemService {
	return &ItemService{repo: repo, logger: logging.Component(logger, "item_service")}
}

func (s *ItemService) GetItems(ctx context.Context, bookableOnly bool) ([]*models.Item, error) {
	items, err := s.repo.GetItems(ctx, bookableOnly)
	return items, asDomain("get items", err)
}

func (s *ItemService) GetItemByID(ctx context.Context, id int64) (*models.Item, error) {
	item, err := s.repo.GetItemByID(ctx, id)
	return item, asDomain("get item", err)
}

func (s *ItemService) validate(ctx context.Context, item *models.Item) error {
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" {
		return domain.InvalidInput("item name is required")
	}
	if item.Price != nil && *item.Price < 0 {
		return domain.InvalidInput("price must not be negative")
	}
	if item.GrantID != nil {
		if _, err := s.repo.GetGrantByID(ctx, *item.GrantID); err != nil {
			if domain.KindOf(err) == domain.KindNotFound {
				return domain.InvalidInput("grant %d does not exist", *item.GrantID)
			}
			return asDomain("get grant", err)
		}
	}
	return nil
}

func (s *ItemService) CreateItem(ctx context.Context, item *models.Item) error {
	if err := s.validate(ctx, item); err != nil {
		return err
	}
	if item.Status == "" {
		item.Status = models.ItemAvailable
	}
	if item.Status == models.ItemBooked {
		return domain.InvalidInput("an item only becomes %s by approving a booking", models.ItemBooked)
	}
	if err := s.repo.CreateItem(ctx, item); err != nil {
		return asDomain("create item", err)
	}
	s.logger.Info().Int64("item_id", item.ID).Str("name", item.Name).Msg("Item created")
	return nil
}

func (s *ItemService) UpdateItem(ctx context.Context, item *models.Item) error {
	if err := s.validate(ctx, item); err != nil {
		return err
	}
	return asDomain("update item", s.repo.UpdateItem(ctx, item))
}

// SetItemStatus lets an admin move an item between Available, Maintenance and
// Unavailable. Booked is entered and left only through booking transitions.
func (s *ItemService) SetItemStatus(ctx context.Context, id int64, status models.ItemStatus) error {
	if status == models.ItemBooked {
		return domain.InvalidInput("an item only becomes %s by approving a booking", models.ItemBooked).WithItem(id)
	}
	item, err := s.repo.GetItemByID(ctx, id)
	if err != nil {
		return asDomain("get item", err)
	}
	if item.Status == models.ItemBooked {
		return domain.Conflict("item %d is lent out; complete its booking first", id).WithItem(id).WithStatus(item.Status)
	}
	if err := s.repo.UpdateItemStatus(ctx, id, status); err != nil {
		return asDomain("update item status", err)
	}
	s.logger.Info().Int64("item_id", id).Str("status", status.String()).Msg("Item status changed")
	return nil
}

func (s *ItemService) DeleteItem(ctx context.Context, id int64) error {
	if err := s.repo.DeleteItem(ctx, id); err != nil {
		return asDomain("delete item", err)
	}
	s.logger.Info().Int64("item_id", id).Msg("Item deleted")
	return nil
}
