package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/serenadecraft/serenade-backend/pkg/db/models"
	"github.com/serenadecraft/serenade-backend/pkg/enums"
	"github.com/serenadecraft/serenade-backend/pkg/pagination"
)

// Repository defines persistence operations for orders and their slots.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateSlots(ctx context.Context, slots []models.OrderSong) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error)
	ListAll(ctx context.Context, params pagination.Params, filters AdminOrderFilters) (*OrderList, error)
	ListPublicSlots(ctx context.Context, params pagination.Params) (*PublicSongList, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// changeHinter publishes advisory "table changed" hints after commit.
// Hints are triggers to re-fetch, never a data channel.
type changeHinter interface {
	TableChanged(ctx context.Context, table string, id uuid.UUID, op string)
}
