package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/serenadecraft/serenade-backend/internal/pricing"
	"github.com/serenadecraft/serenade-backend/pkg/db/models"
	"github.com/serenadecraft/serenade-backend/pkg/enums"
)

// CreateOrderRequest is the commission form submitted at intake. Payment is
// settled upstream; the request never carries a client-side price.
type CreateOrderRequest struct {
	Title                string   `json:"title" validate:"required,max=200"`
	Style                string   `json:"style" validate:"required,max=100"`
	Lyrics               *string  `json:"lyrics,omitempty"`
	Themes               []string `json:"themes" validate:"max=10,dive,max=100"`
	ReferenceLinks       []string `json:"reference_links" validate:"max=10,dive,url"`
	WantCoverImage       bool     `json:"want_cover_image"`
	WantSecondSong       bool     `json:"want_second_song"`
	WantSecondCoverImage bool     `json:"want_second_cover_image"`
}

// Selection maps the form flags onto the pricing engine input. Unset flags
// are false, so no add-on is ever charged by default.
func (r CreateOrderRequest) Selection() pricing.Selection {
	return pricing.Selection{
		CoverImage:  r.WantCoverImage,
		SecondSong:  r.WantSecondSong,
		SecondCover: r.WantSecondSong && r.WantSecondCoverImage,
	}
}

// SongDTO is the creative brief embedded in order responses.
type SongDTO struct {
	ID             uuid.UUID        `json:"id"`
	Title          string           `json:"title"`
	Style          string           `json:"style"`
	Lyrics         *string          `json:"lyrics,omitempty"`
	Themes         []string         `json:"themes"`
	ReferenceLinks []string         `json:"reference_links"`
	Status         enums.SongStatus `json:"status"`
}

// SlotDTO is one deliverable slot within an order.
type SlotDTO struct {
	ID             uuid.UUID `json:"id"`
	IsPrimary      bool      `json:"is_primary"`
	HasAudio       bool      `json:"has_audio"`
	HasCover       bool      `json:"has_cover"`
	LyricsOverride *string   `json:"lyrics_override,omitempty"`
	IsPublic       *bool     `json:"is_public,omitempty"`
}

// OrderDTO is the customer-facing order shape.
type OrderDTO struct {
	ID                   uuid.UUID           `json:"id"`
	Amount               decimal.Decimal     `json:"amount"`
	IncludesBothVersions bool                `json:"includes_both_versions"`
	IncludesCoverImage   bool                `json:"includes_cover_image"`
	PaymentStatus        enums.PaymentStatus `json:"payment_status"`
	Status               enums.OrderStatus   `json:"status"`
	Song                 *SongDTO            `json:"song,omitempty"`
	Slots                []SlotDTO           `json:"slots"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`
}

// OrderList is one page of orders plus the cursor for the next page.
type OrderList struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// AdminOrderFilters narrows the admin order listing.
type AdminOrderFilters struct {
	Status *enums.OrderStatus
	UserID *uuid.UUID
}

// DownloadLink is one freshly-signed deliverable URL. URLs expire and must
// be re-fetched, never cached.
type DownloadLink struct {
	SlotID    uuid.UUID `json:"slot_id"`
	IsPrimary bool      `json:"is_primary"`
	AudioURL  string    `json:"audio_url,omitempty"`
	CoverURL  string    `json:"cover_url,omitempty"`
	ExpiresIn int64     `json:"expires_in_seconds"`
}

// DownloadsDTO is the completed-order download listing.
type DownloadsDTO struct {
	OrderID uuid.UUID      `json:"order_id"`
	Links   []DownloadLink `json:"links"`
}

// PublicSong is one publicly browsable completed deliverable.
type PublicSong struct {
	SlotID    uuid.UUID `json:"slot_id"`
	Title     string    `json:"title"`
	Style     string    `json:"style"`
	Themes    []string  `json:"themes"`
	CreatedAt time.Time `json:"created_at"`
}

// PublicSongList is one page of public songs.
type PublicSongList struct {
	Songs      []PublicSong `json:"songs"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// FromModel maps a preloaded order row to its transport shape.
func FromModel(o *models.Order) *OrderDTO {
	if o == nil {
		return nil
	}

	dto := &OrderDTO{
		ID:                   o.ID,
		Amount:               o.Amount,
		IncludesBothVersions: o.IncludesBothVersions,
		IncludesCoverImage:   o.IncludesCoverImage,
		PaymentStatus:        o.PaymentStatus,
		Status:               o.Status,
		Slots:                make([]SlotDTO, 0, len(o.Slots)),
		CreatedAt:            o.CreatedAt,
		UpdatedAt:            o.UpdatedAt,
	}

	if o.Song != nil {
		dto.Song = &SongDTO{
			ID:             o.Song.ID,
			Title:          o.Song.Title,
			Style:          o.Song.Style,
			Lyrics:         o.Song.Lyrics,
			Themes:         append([]string(nil), o.Song.Themes...),
			ReferenceLinks: append([]string(nil), o.Song.ReferenceLinks...),
			Status:         o.Song.Status,
		}
	}

	for _, slot := range o.Slots {
		dto.Slots = append(dto.Slots, SlotDTO{
			ID:             slot.ID,
			IsPrimary:      slot.IsPrimary,
			HasAudio:       slot.AudioKey != nil && *slot.AudioKey != "",
			HasCover:       slot.Cover != nil,
			LyricsOverride: slot.LyricsOverride,
			IsPublic:       slot.IsPublic,
		})
	}

	return dto
}
