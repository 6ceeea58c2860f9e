package songs

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/serenadecraft/serenade-backend/pkg/db/models"
	"github.com/serenadecraft/serenade-backend/pkg/enums"
)

// Repository exposes song and lyrics revision persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, song *models.Song) (*models.Song, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Song, error)
	FindByIDWithRevisions(ctx context.Context, id uuid.UUID) (*models.Song, error)
	UpdateLyrics(ctx context.Context, id uuid.UUID, lyrics string) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.SongStatus) error
	CreateRevision(ctx context.Context, rev *models.LyricsRevision) (*models.LyricsRevision, error)
	FindRevisionByID(ctx context.Context, id uuid.UUID) (*models.LyricsRevision, error)
	LatestRevision(ctx context.Context, songID uuid.UUID) (*models.LyricsRevision, error)
	UpdateRevision(ctx context.Context, id uuid.UUID, status enums.LyricsRevisionStatus, feedback *string) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a songs repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, song *models.Song) (*models.Song, error) {
	if err := r.db.WithContext(ctx).Create(song).Error; err != nil {
		return nil, err
	}
	return song, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Song, error) {
	var song models.Song
	if err := r.db.WithContext(ctx).First(&song, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &song, nil
}

func (r *repository) FindByIDWithRevisions(ctx context.Context, id uuid.UUID) (*models.Song, error) {
	var song models.Song
	err := r.db.WithContext(ctx).
		Preload("Revisions", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&song, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &song, nil
}

func (r *repository) UpdateLyrics(ctx context.Context, id uuid.UUID, lyrics string) error {
	return r.db.WithContext(ctx).
		Model(&models.Song{}).
		Where("id = ?", id).
		Update("lyrics", lyrics).Error
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.SongStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Song{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *repository) CreateRevision(ctx context.Context, rev *models.LyricsRevision) (*models.LyricsRevision, error) {
	if err := r.db.WithContext(ctx).Create(rev).Error; err != nil {
		return nil, err
	}
	return rev, nil
}

func (r *repository) FindRevisionByID(ctx context.Context, id uuid.UUID) (*models.LyricsRevision, error) {
	var rev models.LyricsRevision
	if err := r.db.WithContext(ctx).First(&rev, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rev, nil
}

func (r *repository) LatestRevision(ctx context.Context, songID uuid.UUID) (*models.LyricsRevision, error) {
	var rev models.LyricsRevision
	err := r.db.WithContext(ctx).
		Where("song_id = ?", songID).
		Order("created_at DESC").
		First(&rev).Error
	if err != nil {
		return nil, err
	}
	return &rev, nil
}

func (r *repository) UpdateRevision(ctx context.Context, id uuid.UUID, status enums.LyricsRevisionStatus, feedback *string) error {
	// feedback is written unconditionally so approval clears prior notes.
	updates := map[string]any{"status": status, "feedback": feedback}
	return r.db.WithContext(ctx).
		Model(&models.LyricsRevision{}).
		Where("id = ?", id).
		Updates(updates).Error
}
