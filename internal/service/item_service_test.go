package service

import (
	"context"
	"errors"
	"testing"

	"shim/internal/domain"
	"shim/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newItemService(repo *mockRepo) *ItemService {
	logger := zerolog.Nop()
	return NewItemService(repo, &logger)
}

func TestCreateItem(t *testing.T) {
	ctx := context.Background()

	t.Run("DefaultsToAvailable", func(t *testing.T) {
		repo := new(mockRepo)
		svc := newItemService(repo)
		repo.On("CreateItem", mock.Anything, mock.MatchedBy(func(i *models.Item) bool {
			return i.Name == "Kamera" && i.Status == models.ItemAvailable
		})).Return(nil)

		require.NoError(t, svc.CreateItem(ctx, &models.Item{Name: " Kamera "}))
		repo.AssertExpectations(t)
	})

	t.Run("RequiresName", func(t *testing.T) {
		svc := newItemService(new(mockRepo))
		err := svc.CreateItem(ctx, &models.Item{Name: "  "})
		assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	})

	t.Run("RejectsNegativePrice", func(t *testing.T) {
		svc := newItemService(new(mockRepo))
		price := int64(-10)
		err := svc.CreateItem(ctx, &models.Item{Name: "Kamera", Price: &price})
		assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	})

	t.Run("RejectsBooked", func(t *testing.T) {
		svc := newItemService(new(mockRepo))
		err := svc.CreateItem(ctx, &models.Item{Name: "Kamera", Status: models.ItemBooked})
		assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	})

	t.Run("UnknownGrant", func(t *testing.T) {
		repo := new(mockRepo)
		svc := newItemService(repo)
		grantID := int64(3)
		repo.On("GetGrantByID", mock.Anything, grantID).Return(nil, domain.NotFound("grant 3 not found"))

		err := svc.CreateItem(ctx, &models.Item{Name: "Kamera", GrantID: &grantID})
		assert.True(t, errors.Is(err, domain.ErrInvalidInput))
		repo.AssertNotCalled(t, "CreateItem", mock.Anything, mock.Anything)
	})
}

func TestSetItemStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("BookedIsNotSettable", func(t *testing.T) {
		repo := new(mockRepo)
		err := newItemService(repo).SetItemStatus(ctx, 5, models.ItemBooked)
		assert.True(t, errors.Is(err, domain.ErrInvalidInput))
		repo.AssertNotCalled(t, "UpdateItemStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("LentOutItemConflicts", func(t *testing.T) {
		repo := new(mockRepo)
		repo.On("GetItemByID", mock.Anything, int64(5)).Return(&models.Item{ID: 5, Status: models.ItemBooked}, nil)

		err := newItemService(repo).SetItemStatus(ctx, 5, models.ItemMaintenance)
		var de *domain.Error
		require.True(t, errors.As(err, &de))
		assert.Equal(t, domain.KindConflict, de.Kind)
		assert.Equal(t, "Booked", de.Status)
	})

	t.Run("Maintenance", func(t *testing.T) {
		repo := new(mockRepo)
		repo.On("GetItemByID", mock.Anything, int64(5)).Return(&models.Item{ID: 5, Status: models.ItemAvailable}, nil)
		repo.On("UpdateItemStatus", mock.Anything, int64(5), models.ItemMaintenance).Return(nil)

		require.NoError(t, newItemService(repo).SetItemStatus(ctx, 5, models.ItemMaintenance))
		repo.AssertExpectations(t)
	})

	t.Run("MissingItem", func(t *testing.T) {
		repo := new(mockRepo)
		repo.On("GetItemByID", mock.Anything, int64(9)).Return(nil, domain.NotFound("item 9 not found"))
		err := newItemService(repo).SetItemStatus(ctx, 9, models.ItemAvailable)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})
}

func TestDeleteItem(t *testing.T) {
	repo := new(mockRepo)
	repo.On("DeleteItem", mock.Anything, int64(5)).Return(domain.Conflict("item 5 is referenced by 1 booking(s)"))
	repo.On("DeleteItem", mock.Anything, int64(6)).Return(nil)
	svc := newItemService(repo)

	assert.True(t, errors.Is(svc.DeleteItem(context.Background(), 5), domain.ErrConflict))
	assert.NoError(t, svc.DeleteItem(context.Background(), 6))
}

func TestGrantService(t *testing.T) {
	ctx := context.Background()
	repo := new(mockRepo)
	svc := NewGrantService(repo)

	err := svc.CreateGrant(ctx, &models.Grant{Name: "", Year: 2023})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	err = svc.CreateGrant(ctx, &models.Grant{Name: "Hibah Kemendikbud", Year: 0})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	repo.On("CreateGrant", mock.Anything, mock.Anything).Return(nil)
	require.NoError(t, svc.CreateGrant(ctx, &models.Grant{Name: "Hibah Kemendikbud", Year: 2023}))

	repo.On("DeleteGrant", mock.Anything, int64(4)).Return(errors.New("locked"))
	assert.True(t, errors.Is(svc.DeleteGrant(ctx, 4), domain.ErrInternal))
}

func TestUserProfileFallsBackToClaims(t *testing.T) {
	repo := new(mockRepo)
	repo.On("GetUserByID", mock.Anything, user.ID).Return(nil, domain.NotFound("user 100 not found"))

	u, err := NewUserService(repo).Profile(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, "Budi", u.Name)
	assert.Equal(t, models.RoleUser, u.Role)
}
