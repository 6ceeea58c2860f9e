package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/serenadecraft/serenade-backend/internal/pricing"
	"github.com/serenadecraft/serenade-backend/internal/songs"
	"github.com/serenadecraft/serenade-backend/pkg/config"
	"github.com/serenadecraft/serenade-backend/pkg/db/models"
	"github.com/serenadecraft/serenade-backend/pkg/enums"
	pkgerrors "github.com/serenadecraft/serenade-backend/pkg/errors"
	"github.com/serenadecraft/serenade-backend/pkg/pagination"
	"github.com/serenadecraft/serenade-backend/pkg/types"
)

// Service defines customer-facing order operations.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, req CreateOrderRequest) (*OrderDTO, error)
	GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error)
	Downloads(ctx context.Context, userID, orderID uuid.UUID) (*DownloadsDTO, error)
	ListPublic(ctx context.Context, params pagination.Params) (*PublicSongList, error)
}

type urlSigner interface {
	SignedReadURL(bucket, object string, expires time.Duration) (string, error)
}

type service struct {
	tx      txRunner
	repo    Repository
	songs   songs.Repository
	pricing *pricing.Calculator
	signer  urlSigner
	hints   changeHinter
	gcsCfg  config.GCSConfig
}

// ServiceParams bundles the order service dependencies.
type ServiceParams struct {
	TxRunner txRunner
	Repo     Repository
	Songs    songs.Repository
	Pricing  *pricing.Calculator
	Signer   urlSigner
	Hints    changeHinter
	GCS      config.GCSConfig
}

// NewService constructs the order service. Hints may be nil; everything
// else is required.
func NewService(params ServiceParams) (Service, error) {
	if params.TxRunner == nil {
		return nil, fmt.Errorf("tx runner is required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository is required")
	}
	if params.Songs == nil {
		return nil, fmt.Errorf("songs repository is required")
	}
	if params.Pricing == nil {
		return nil, fmt.Errorf("pricing calculator is required")
	}
	if params.Signer == nil {
		return nil, fmt.Errorf("url signer is required")
	}
	return &service{
		tx:      params.TxRunner,
		repo:    params.Repo,
		songs:   params.Songs,
		pricing: params.Pricing,
		signer:  params.Signer,
		hints:   params.Hints,
		gcsCfg:  params.GCS,
	}, nil
}

// Create persists Song, Order, and slot rows as one transaction. A partial
// order is never visible: any step failing rolls the whole intake back.
func (s *service) Create(ctx context.Context, userID uuid.UUID, req CreateOrderRequest) (*OrderDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}

	quote, err := s.pricing.Quote(req.Selection())
	if err != nil {
		return nil, err
	}

	snapshot := types.JSONMap{
		"title":                   req.Title,
		"style":                   req.Style,
		"themes":                  req.Themes,
		"reference_links":         req.ReferenceLinks,
		"want_cover_image":        req.WantCoverImage,
		"want_second_song":        req.WantSecondSong,
		"want_second_cover_image": req.WantSecondSong && req.WantSecondCoverImage,
	}

	var created *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		song, err := s.songs.WithTx(tx).Create(ctx, &models.Song{
			UserID:         userID,
			Title:          strings.TrimSpace(req.Title),
			Style:          strings.TrimSpace(req.Style),
			Lyrics:         req.Lyrics,
			Themes:         pq.StringArray(req.Themes),
			ReferenceLinks: pq.StringArray(req.ReferenceLinks),
			Status:         enums.SongStatusCommissioned,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create song")
		}

		repo := s.repo.WithTx(tx)
		order, err := repo.Create(ctx, &models.Order{
			SongID:               song.ID,
			UserID:               userID,
			Amount:               quote.Total,
			IncludesBothVersions: req.WantSecondSong,
			IncludesCoverImage:   req.WantCoverImage,
			PaymentStatus:        enums.PaymentStatusPaid,
			Status:               enums.OrderStatusPending,
			FormSnapshot:         snapshot,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
		}

		slots := []models.OrderSong{{OrderID: order.ID, IsPrimary: true}}
		if req.WantSecondSong {
			slots = append(slots, models.OrderSong{OrderID: order.ID, IsPrimary: false})
		}
		if err := repo.CreateSlots(ctx, slots); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order slots")
		}

		order.Song = song
		order.Slots = slots
		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.hints != nil {
		s.hints.TableChanged(ctx, "orders", created.ID, "insert")
	}

	return FromModel(created), nil
}

func (s *service) GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.loadOwned(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	return FromModel(order), nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error) {
	list, err := s.repo.ListForUser(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return list, nil
}

// Downloads signs fresh URLs for each deliverable on a completed order.
// URLs are never stored or cached; every call signs anew.
func (s *service) Downloads(ctx context.Context, userID, orderID uuid.UUID) (*DownloadsDTO, error) {
	order, err := s.loadOwned(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusCompleted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "downloads are available once the order is completed")
	}

	ttl := s.gcsCfg.DownloadURLExpiry
	out := &DownloadsDTO{OrderID: order.ID, Links: make([]DownloadLink, 0, len(order.Slots))}
	for _, slot := range order.Slots {
		link := DownloadLink{
			SlotID:    slot.ID,
			IsPrimary: slot.IsPrimary,
			ExpiresIn: int64(ttl.Seconds()),
		}
		if slot.AudioKey != nil && *slot.AudioKey != "" {
			url, err := s.signer.SignedReadURL(s.gcsCfg.AudioBucket, *slot.AudioKey, ttl)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sign audio url")
			}
			link.AudioURL = url
		}
		if slot.Cover != nil {
			url, err := s.signer.SignedReadURL(s.gcsCfg.CoverBucket, slot.Cover.ObjectKey, ttl)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sign cover url")
			}
			link.CoverURL = url
		}
		if link.AudioURL == "" && link.CoverURL == "" {
			continue
		}
		out.Links = append(out.Links, link)
	}
	return out, nil
}

func (s *service) ListPublic(ctx context.Context, params pagination.Params) (*PublicSongList, error) {
	list, err := s.repo.ListPublicSlots(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list public songs")
	}
	return list, nil
}

// loadOwned resolves the order and enforces ownership. Non-owners get the
// same not-found as missing rows, so order ids are not probeable.
func (s *service) loadOwned(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}
