package lyrics

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/serenadecraft/serenade-backend/pkg/db/models"
)

// Repository covers the slot-side half of the lyrics dual write.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	UpdateSlotLyrics(ctx context.Context, slotID uuid.UUID, text string) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a lyrics repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) UpdateSlotLyrics(ctx context.Context, slotID uuid.UUID, text string) error {
	return r.db.WithContext(ctx).
		Model(&models.OrderSong{}).
		Where("id = ?", slotID).
		Update("lyrics_override", text).Error
}
