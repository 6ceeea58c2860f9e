package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/serenadecraft/serenade-backend/pkg/enums"
	"github.com/serenadecraft/serenade-backend/pkg/types"
)

// Order is one paid commission of exactly one Song, delivered through one
// or two OrderSong slots. Amount must equal the pricing formula applied to
// the add-on flags captured in FormSnapshot.
type Order struct {
	ID                   uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SongID               uuid.UUID           `gorm:"column:song_id;type:uuid;not null;uniqueIndex"`
	UserID               uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	Amount               decimal.Decimal     `gorm:"column:amount;type:numeric(10,2);not null"`
	IncludesBothVersions bool                `gorm:"column:includes_both_versions;not null;default:false"`
	IncludesCoverImage   bool                `gorm:"column:includes_cover_image;not null;default:false"`
	PaymentStatus        enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'paid'"`
	Status               enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending'"`
	FormSnapshot         types.JSONMap       `gorm:"column:form_snapshot;type:jsonb"`
	Song                 *Song               `gorm:"foreignKey:SongID"`
	Slots                []OrderSong         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt            time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// SecondCoverPurchased reports whether the second-cover add-on was bought.
// The flag only lives in the form snapshot; it is meaningless without the
// second-song entitlement.
func (o *Order) SecondCoverPurchased() bool {
	if o == nil || !o.IncludesBothVersions {
		return false
	}
	return o.FormSnapshot.Bool("want_second_cover_image")
}
