package assets

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/serenadecraft/serenade-backend/pkg/db/models"
)

// Repository covers slot and cover persistence for deliverable management.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CountSlots(ctx context.Context, orderID uuid.UUID) (int64, error)
	CreateSlot(ctx context.Context, slot *models.OrderSong) (*models.OrderSong, error)
	UpdateSlotAudio(ctx context.Context, slotID uuid.UUID, audioKey *string) error
	UpdateSlotVisibility(ctx context.Context, slotID uuid.UUID, public bool) error
	CreateCover(ctx context.Context, cover *models.CoverImage) (*models.CoverImage, error)
	FindCoverBySlot(ctx context.Context, slotID uuid.UUID) (*models.CoverImage, error)
	DeleteCover(ctx context.Context, coverID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an assets repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CountSlots(ctx context.Context, orderID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.OrderSong{}).
		Where("order_id = ?", orderID).
		Count(&count).Error
	return count, err
}

func (r *repository) CreateSlot(ctx context.Context, slot *models.OrderSong) (*models.OrderSong, error) {
	if err := r.db.WithContext(ctx).Create(slot).Error; err != nil {
		return nil, err
	}
	return slot, nil
}

func (r *repository) UpdateSlotAudio(ctx context.Context, slotID uuid.UUID, audioKey *string) error {
	return r.db.WithContext(ctx).
		Model(&models.OrderSong{}).
		Where("id = ?", slotID).
		Update("audio_key", audioKey).Error
}

func (r *repository) UpdateSlotVisibility(ctx context.Context, slotID uuid.UUID, public bool) error {
	return r.db.WithContext(ctx).
		Model(&models.OrderSong{}).
		Where("id = ?", slotID).
		Update("is_public", public).Error
}

func (r *repository) CreateCover(ctx context.Context, cover *models.CoverImage) (*models.CoverImage, error) {
	if err := r.db.WithContext(ctx).Create(cover).Error; err != nil {
		return nil, err
	}
	return cover, nil
}

func (r *repository) FindCoverBySlot(ctx context.Context, slotID uuid.UUID) (*models.CoverImage, error) {
	var cover models.CoverImage
	if err := r.db.WithContext(ctx).First(&cover, "order_song_id = ?", slotID).Error; err != nil {
		return nil, err
	}
	return &cover, nil
}

func (r *repository) DeleteCover(ctx context.Context, coverID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.CoverImage{}, "id = ?", coverID).Error
}
