package models

import (
	"time"

	"github.com/google/uuid"
)

// CoverImage is uploaded art attached to one slot. SongID is denormalized
// to the order's single Song for both slots, so joins from the brief side
// stay one hop.
type CoverImage struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderSongID uuid.UUID `gorm:"column:order_song_id;type:uuid;not null;uniqueIndex"`
	SongID      uuid.UUID `gorm:"column:song_id;type:uuid;not null;index"`
	ObjectKey   string    `gorm:"column:object_key;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}
