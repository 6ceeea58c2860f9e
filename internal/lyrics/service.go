package lyrics

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/serenadecraft/serenade-backend/internal/songs"
	"github.com/serenadecraft/serenade-backend/pkg/db/models"
	"github.com/serenadecraft/serenade-backend/pkg/enums"
	pkgerrors "github.com/serenadecraft/serenade-backend/pkg/errors"
	"github.com/serenadecraft/serenade-backend/pkg/openai"
)

// Actor identifies who is performing a lyrics operation.
type Actor struct {
	UserID  uuid.UUID
	IsAdmin bool
}

// RevisionDTO is the transport shape of one review round.
type RevisionDTO struct {
	ID        uuid.UUID                  `json:"id"`
	SongID    uuid.UUID                  `json:"song_id"`
	Status    enums.LyricsRevisionStatus `json:"status"`
	Feedback  *string                    `json:"feedback,omitempty"`
	CreatedAt time.Time                  `json:"created_at"`
	UpdatedAt time.Time                  `json:"updated_at"`
}

// SaveResult reports where a lyrics save landed.
type SaveResult struct {
	OrderID  uuid.UUID    `json:"order_id"`
	SongID   uuid.UUID    `json:"song_id"`
	SlotID   uuid.UUID    `json:"slot_id"`
	Lyrics   string       `json:"lyrics"`
	Revision *RevisionDTO `json:"revision"`
}

// Service manages lyric text, drafting, and the customer review cycle.
type Service interface {
	Save(ctx context.Context, actor Actor, orderID, slotID uuid.UUID, text string) (*SaveResult, error)
	Generate(ctx context.Context, adminID uuid.UUID, orderID, slotID uuid.UUID, guidance string) (*SaveResult, error)
	Approve(ctx context.Context, userID, orderID uuid.UUID) (*RevisionDTO, error)
	RequestRevision(ctx context.Context, userID, orderID uuid.UUID, feedback string) (*RevisionDTO, error)
}

type orderFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

type completer interface {
	Complete(ctx context.Context, req openai.CompletionRequest) (string, error)
}

type adminChecker interface {
	IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type changeHinter interface {
	TableChanged(ctx context.Context, table string, id uuid.UUID, op string)
}

type service struct {
	tx        txRunner
	orders    orderFinder
	songs     songs.Repository
	slots     Repository
	completer completer
	admins    adminChecker
	hints     changeHinter
}

// ServiceParams bundles the lyrics service dependencies.
type ServiceParams struct {
	TxRunner  txRunner
	Orders    orderFinder
	Songs     songs.Repository
	Slots     Repository
	Completer completer
	Admins    adminChecker
	Hints     changeHinter
}

// NewService constructs the lyrics service. Hints may be nil.
func NewService(params ServiceParams) (Service, error) {
	if params.TxRunner == nil {
		return nil, fmt.Errorf("tx runner is required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order finder is required")
	}
	if params.Songs == nil {
		return nil, fmt.Errorf("songs repository is required")
	}
	if params.Slots == nil {
		return nil, fmt.Errorf("lyrics repository is required")
	}
	if params.Completer == nil {
		return nil, fmt.Errorf("completer is required")
	}
	if params.Admins == nil {
		return nil, fmt.Errorf("admin checker is required")
	}
	return &service{
		tx:        params.TxRunner,
		orders:    params.Orders,
		songs:     params.Songs,
		slots:     params.Slots,
		completer: params.Completer,
		admins:    params.Admins,
		hints:     params.Hints,
	}, nil
}

// Save writes the same lyric text to the song row and the slot's override in
// one transaction, so neither copy can be read diverged from the other. A
// pending review round is opened when none is already open.
func (s *service) Save(ctx context.Context, actor Actor, orderID, slotID uuid.UUID, text string) (*SaveResult, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lyrics text is required")
	}

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeEdit(actor, order); err != nil {
		return nil, err
	}

	slot, err := resolveSlot(order, slotID)
	if err != nil {
		return nil, err
	}

	return s.write(ctx, order, slot, trimmed)
}

// Generate drafts lyrics through the external completion call and persists
// the result with the same dual write as a manual save. The admin check runs
// first; a non-admin caller never reaches the external service.
func (s *service) Generate(ctx context.Context, adminID uuid.UUID, orderID, slotID uuid.UUID, guidance string) (*SaveResult, error) {
	isAdmin, err := s.admins.IsAdmin(ctx, adminID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check admin role")
	}
	if !isAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "administrator access required")
	}

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Song == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order is missing its song")
	}

	slot, err := resolveSlot(order, slotID)
	if err != nil {
		return nil, err
	}

	prompt := BuildPrompt(PromptInput{
		Title:          order.Song.Title,
		Style:          order.Song.Style,
		Themes:         order.Song.Themes,
		ExistingLyrics: order.Song.Lyrics,
		Guidance:       guidance,
	})
	draft, err := s.completer.Complete(ctx, openai.CompletionRequest{
		System: SystemPrompt,
		Prompt: prompt,
	})
	if err != nil {
		return nil, err
	}

	return s.write(ctx, order, slot, strings.TrimSpace(draft))
}

// Approve closes the open review round in the customer's favor. Prior
// feedback is cleared so stale notes never outlive an approval.
func (s *service) Approve(ctx context.Context, userID, orderID uuid.UUID) (*RevisionDTO, error) {
	rev, err := s.openRevision(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	if err := s.songs.UpdateRevision(ctx, rev.ID, enums.LyricsRevisionStatusApproved, nil); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "approve lyrics revision")
	}

	rev.Status = enums.LyricsRevisionStatusApproved
	rev.Feedback = nil
	if s.hints != nil {
		s.hints.TableChanged(ctx, "lyrics_revisions", rev.ID, "update")
	}
	return revisionDTO(rev), nil
}

// RequestRevision sends the open round back to the team with feedback. The
// order status is untouched; only the review round loops.
func (s *service) RequestRevision(ctx context.Context, userID, orderID uuid.UUID, feedback string) (*RevisionDTO, error) {
	trimmed := strings.TrimSpace(feedback)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "revision feedback is required")
	}

	rev, err := s.openRevision(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	if err := s.songs.UpdateRevision(ctx, rev.ID, enums.LyricsRevisionStatusNeedsRevision, &trimmed); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "request lyrics revision")
	}

	rev.Status = enums.LyricsRevisionStatusNeedsRevision
	rev.Feedback = &trimmed
	if s.hints != nil {
		s.hints.TableChanged(ctx, "lyrics_revisions", rev.ID, "update")
	}
	return revisionDTO(rev), nil
}

// write is the shared dual-write path. Both copies commit or neither does.
func (s *service) write(ctx context.Context, order *models.Order, slot *models.OrderSong, text string) (*SaveResult, error) {
	var revision *models.LyricsRevision
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		songRepo := s.songs.WithTx(tx)
		if err := songRepo.UpdateLyrics(ctx, order.SongID, text); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update song lyrics")
		}
		if err := s.slots.WithTx(tx).UpdateSlotLyrics(ctx, slot.ID, text); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update slot lyrics")
		}

		latest, err := songRepo.LatestRevision(ctx, order.SongID)
		switch {
		case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load latest lyrics revision")
		case err == nil && latest.Status == enums.LyricsRevisionStatusPending:
			// A round is already open; saving again refreshes its text only.
			revision = latest
			return nil
		}

		created, err := songRepo.CreateRevision(ctx, &models.LyricsRevision{
			SongID: order.SongID,
			Status: enums.LyricsRevisionStatusPending,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "open lyrics revision")
		}
		revision = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.hints != nil {
		s.hints.TableChanged(ctx, "songs", order.SongID, "update")
		s.hints.TableChanged(ctx, "order_songs", slot.ID, "update")
	}

	return &SaveResult{
		OrderID:  order.ID,
		SongID:   order.SongID,
		SlotID:   slot.ID,
		Lyrics:   text,
		Revision: revisionDTO(revision),
	}, nil
}

// openRevision loads the order for its owner and returns the pending round.
func (s *service) openRevision(ctx context.Context, userID, orderID uuid.UUID) (*models.LyricsRevision, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}

	rev, err := s.songs.LatestRevision(ctx, order.SongID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "no lyrics are awaiting review")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load latest lyrics revision")
	}
	if rev.Status != enums.LyricsRevisionStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "no lyrics are awaiting review")
	}
	return rev, nil
}

func (s *service) loadOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return order, nil
}

// authorizeEdit lets admins edit any time and owners edit until lyrics are
// approved and production starts.
func (s *service) authorizeEdit(actor Actor, order *models.Order) error {
	if actor.IsAdmin {
		return nil
	}
	if order.UserID != actor.UserID {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	switch order.Status {
	case enums.OrderStatusPending, enums.OrderStatusPendingLyricsApproval:
		return nil
	default:
		return pkgerrors.New(pkgerrors.CodeStateConflict, "lyrics can no longer be edited on this order")
	}
}

// resolveSlot picks the addressed slot, defaulting to the primary one.
func resolveSlot(order *models.Order, slotID uuid.UUID) (*models.OrderSong, error) {
	if len(order.Slots) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order has no deliverable slots")
	}
	if slotID == uuid.Nil {
		for i := range order.Slots {
			if order.Slots[i].IsPrimary {
				return &order.Slots[i], nil
			}
		}
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order has no primary slot")
	}
	for i := range order.Slots {
		if order.Slots[i].ID == slotID {
			return &order.Slots[i], nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "deliverable slot not found")
}

func revisionDTO(rev *models.LyricsRevision) *RevisionDTO {
	if rev == nil {
		return nil
	}
	return &RevisionDTO{
		ID:        rev.ID,
		SongID:    rev.SongID,
		Status:    rev.Status,
		Feedback:  rev.Feedback,
		CreatedAt: rev.CreatedAt,
		UpdatedAt: rev.UpdatedAt,
	}
}
