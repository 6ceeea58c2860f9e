package lyrics

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/serenadecraft/serenade-backend/internal/songs"
	"github.com/serenadecraft/serenade-backend/pkg/db/models"
	"github.com/serenadecraft/serenade-backend/pkg/enums"
	pkgerrors "github.com/serenadecraft/serenade-backend/pkg/errors"
	"github.com/serenadecraft/serenade-backend/pkg/openai"
)

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubOrderFinder struct {
	orders map[uuid.UUID]*models.Order
}

func (s *stubOrderFinder) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := s.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return order, nil
}

type revisionUpdate struct {
	status   enums.LyricsRevisionStatus
	feedback *string
}

type stubSongsRepo struct {
	lyrics          map[uuid.UUID]string
	latestRevision  *models.LyricsRevision
	createdRounds   []*models.LyricsRevision
	revisionUpdates map[uuid.UUID]revisionUpdate
}

func newStubSongsRepo() *stubSongsRepo {
	return &stubSongsRepo{
		lyrics:          map[uuid.UUID]string{},
		revisionUpdates: map[uuid.UUID]revisionUpdate{},
	}
}

func (s *stubSongsRepo) WithTx(tx *gorm.DB) songs.Repository { return s }

func (s *stubSongsRepo) Create(ctx context.Context, song *models.Song) (*models.Song, error) {
	return song, nil
}

func (s *stubSongsRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Song, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubSongsRepo) FindByIDWithRevisions(ctx context.Context, id uuid.UUID) (*models.Song, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubSongsRepo) UpdateLyrics(ctx context.Context, id uuid.UUID, lyrics string) error {
	s.lyrics[id] = lyrics
	return nil
}

func (s *stubSongsRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.SongStatus) error {
	return nil
}

func (s *stubSongsRepo) CreateRevision(ctx context.Context, rev *models.LyricsRevision) (*models.LyricsRevision, error) {
	rev.ID = uuid.New()
	s.createdRounds = append(s.createdRounds, rev)
	s.latestRevision = rev
	return rev, nil
}

func (s *stubSongsRepo) FindRevisionByID(ctx context.Context, id uuid.UUID) (*models.LyricsRevision, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubSongsRepo) LatestRevision(ctx context.Context, songID uuid.UUID) (*models.LyricsRevision, error) {
	if s.latestRevision == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.latestRevision, nil
}

func (s *stubSongsRepo) UpdateRevision(ctx context.Context, id uuid.UUID, status enums.LyricsRevisionStatus, feedback *string) error {
	s.revisionUpdates[id] = revisionUpdate{status: status, feedback: feedback}
	return nil
}

type stubSlotsRepo struct {
	lyrics map[uuid.UUID]string
}

func newStubSlotsRepo() *stubSlotsRepo {
	return &stubSlotsRepo{lyrics: map[uuid.UUID]string{}}
}

func (s *stubSlotsRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubSlotsRepo) UpdateSlotLyrics(ctx context.Context, slotID uuid.UUID, text string) error {
	s.lyrics[slotID] = text
	return nil
}

type stubCompleter struct {
	calls []openai.CompletionRequest
	text  string
	err   error
}

func (s *stubCompleter) Complete(ctx context.Context, req openai.CompletionRequest) (string, error) {
	s.calls = append(s.calls, req)
	if s.err != nil {
		return "", s.err
	}
	return s.text, nil
}

type stubAdmins struct {
	admins map[uuid.UUID]bool
}

func (s *stubAdmins) IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	return s.admins[userID], nil
}

type fixture struct {
	svc       Service
	orders    *stubOrderFinder
	songs     *stubSongsRepo
	slots     *stubSlotsRepo
	completer *stubCompleter
	admins    *stubAdmins

	ownerID     uuid.UUID
	adminID     uuid.UUID
	order       *models.Order
	primarySlot uuid.UUID
}

func newFixture(t *testing.T, status enums.OrderStatus) *fixture {
	t.Helper()

	f := &fixture{
		orders:    &stubOrderFinder{orders: map[uuid.UUID]*models.Order{}},
		songs:     newStubSongsRepo(),
		slots:     newStubSlotsRepo(),
		completer: &stubCompleter{text: "[Verse]\nNew draft\n[Chorus]\nSing it"},
		admins:    &stubAdmins{admins: map[uuid.UUID]bool{}},
		ownerID:   uuid.New(),
		adminID:   uuid.New(),
	}
	f.admins.admins[f.adminID] = true

	existing := "[Verse]\nOld draft"
	song := &models.Song{
		ID:     uuid.New(),
		Title:  "Golden Hour",
		Style:  "indie folk",
		Themes: []string{"wedding"},
		Lyrics: &existing,
	}
	f.primarySlot = uuid.New()
	f.order = &models.Order{
		ID:     uuid.New(),
		SongID: song.ID,
		UserID: f.ownerID,
		Status: status,
		Song:   song,
		Slots: []models.OrderSong{
			{ID: uuid.New(), IsPrimary: false},
			{ID: f.primarySlot, IsPrimary: true},
		},
	}
	f.orders.orders[f.order.ID] = f.order

	svc, err := NewService(ServiceParams{
		TxRunner:  stubTxRunner{},
		Orders:    f.orders,
		Songs:     f.songs,
		Slots:     f.slots,
		Completer: f.completer,
		Admins:    f.admins,
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()

	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, code, coded.Code())
}

func TestSaveWritesBothCopiesAndOpensRound(t *testing.T) {
	f := newFixture(t, enums.OrderStatusPending)

	text := "[Verse]\nHand-written words\n[Chorus]\nTogether"
	result, err := f.svc.Save(context.Background(), Actor{UserID: f.ownerID}, f.order.ID, uuid.Nil, text)
	require.NoError(t, err)

	assert.Equal(t, f.primarySlot, result.SlotID)
	assert.Equal(t, text, f.songs.lyrics[f.order.SongID])
	assert.Equal(t, text, f.slots.lyrics[f.primarySlot])
	require.NotNil(t, result.Revision)
	assert.Equal(t, enums.LyricsRevisionStatusPending, result.Revision.Status)
	require.Len(t, f.songs.createdRounds, 1)
}

func TestSaveKeepsOpenRound(t *testing.T) {
	f := newFixture(t, enums.OrderStatusPendingLyricsApproval)
	f.songs.latestRevision = &models.LyricsRevision{
		ID:     uuid.New(),
		SongID: f.order.SongID,
		Status: enums.LyricsRevisionStatusPending,
	}

	result, err := f.svc.Save(context.Background(), Actor{UserID: f.ownerID}, f.order.ID, f.primarySlot, "same words")
	require.NoError(t, err)

	assert.Equal(t, f.songs.latestRevision.ID, result.Revision.ID)
	assert.Empty(t, f.songs.createdRounds)
}

func TestSaveLocksOwnerOutAfterProductionStarts(t *testing.T) {
	f := newFixture(t, enums.OrderStatusInProduction)

	_, err := f.svc.Save(context.Background(), Actor{UserID: f.ownerID}, f.order.ID, uuid.Nil, "late edit")
	assertCode(t, err, pkgerrors.CodeStateConflict)

	// Admins can still edit at any point.
	_, err = f.svc.Save(context.Background(), Actor{UserID: f.adminID, IsAdmin: true}, f.order.ID, uuid.Nil, "admin fixup")
	require.NoError(t, err)
	assert.Equal(t, "admin fixup", f.songs.lyrics[f.order.SongID])
}

func TestSaveHidesForeignOrders(t *testing.T) {
	f := newFixture(t, enums.OrderStatusPending)

	_, err := f.svc.Save(context.Background(), Actor{UserID: uuid.New()}, f.order.ID, uuid.Nil, "words")
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestSaveRejectsUnknownSlot(t *testing.T) {
	f := newFixture(t, enums.OrderStatusPending)

	_, err := f.svc.Save(context.Background(), Actor{UserID: f.ownerID}, f.order.ID, uuid.New(), "words")
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestGenerateChecksAdminBeforeExternalCall(t *testing.T) {
	f := newFixture(t, enums.OrderStatusPending)

	_, err := f.svc.Generate(context.Background(), f.ownerID, f.order.ID, uuid.Nil, "")
	assertCode(t, err, pkgerrors.CodeForbidden)
	assert.Empty(t, f.completer.calls)
	assert.Empty(t, f.songs.lyrics)
	assert.Empty(t, f.slots.lyrics)
}

func TestGenerateDraftsAndSaves(t *testing.T) {
	f := newFixture(t, enums.OrderStatusPending)

	result, err := f.svc.Generate(context.Background(), f.adminID, f.order.ID, uuid.Nil, "make it more upbeat")
	require.NoError(t, err)

	require.Len(t, f.completer.calls, 1)
	call := f.completer.calls[0]
	assert.Equal(t, SystemPrompt, call.System)
	assert.Contains(t, call.Prompt, "indie folk")
	assert.Contains(t, call.Prompt, "wedding")
	assert.Contains(t, call.Prompt, "[Verse]\nOld draft")
	assert.Contains(t, call.Prompt, "make it more upbeat")

	assert.Equal(t, f.completer.text, result.Lyrics)
	assert.Equal(t, f.completer.text, f.songs.lyrics[f.order.SongID])
	assert.Equal(t, f.completer.text, f.slots.lyrics[f.primarySlot])
}

func TestApproveClearsFeedback(t *testing.T) {
	f := newFixture(t, enums.OrderStatusPendingLyricsApproval)
	feedback := "needs work"
	f.songs.latestRevision = &models.LyricsRevision{
		ID:       uuid.New(),
		SongID:   f.order.SongID,
		Status:   enums.LyricsRevisionStatusPending,
		Feedback: &feedback,
	}

	dto, err := f.svc.Approve(context.Background(), f.ownerID, f.order.ID)
	require.NoError(t, err)

	assert.Equal(t, enums.LyricsRevisionStatusApproved, dto.Status)
	assert.Nil(t, dto.Feedback)

	update := f.songs.revisionUpdates[f.songs.latestRevision.ID]
	assert.Equal(t, enums.LyricsRevisionStatusApproved, update.status)
	assert.Nil(t, update.feedback)
}

func TestRequestRevisionStoresFeedback(t *testing.T) {
	f := newFixture(t, enums.OrderStatusPendingLyricsApproval)
	f.songs.latestRevision = &models.LyricsRevision{
		ID:     uuid.New(),
		SongID: f.order.SongID,
		Status: enums.LyricsRevisionStatusPending,
	}

	dto, err := f.svc.RequestRevision(context.Background(), f.ownerID, f.order.ID, "make it more upbeat")
	require.NoError(t, err)

	assert.Equal(t, enums.LyricsRevisionStatusNeedsRevision, dto.Status)
	require.NotNil(t, dto.Feedback)
	assert.Equal(t, "make it more upbeat", *dto.Feedback)

	update := f.songs.revisionUpdates[f.songs.latestRevision.ID]
	assert.Equal(t, enums.LyricsRevisionStatusNeedsRevision, update.status)
	require.NotNil(t, update.feedback)
	assert.Equal(t, "make it more upbeat", *update.feedback)
}

func TestReviewRequiresOpenRound(t *testing.T) {
	f := newFixture(t, enums.OrderStatusPendingLyricsApproval)

	_, err := f.svc.Approve(context.Background(), f.ownerID, f.order.ID)
	assertCode(t, err, pkgerrors.CodeStateConflict)

	f.songs.latestRevision = &models.LyricsRevision{
		ID:     uuid.New(),
		SongID: f.order.SongID,
		Status: enums.LyricsRevisionStatusApproved,
	}
	_, err = f.svc.RequestRevision(context.Background(), f.ownerID, f.order.ID, "again please")
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestReviewIsOwnerOnly(t *testing.T) {
	f := newFixture(t, enums.OrderStatusPendingLyricsApproval)
	f.songs.latestRevision = &models.LyricsRevision{
		ID:     uuid.New(),
		SongID: f.order.SongID,
		Status: enums.LyricsRevisionStatusPending,
	}

	_, err := f.svc.Approve(context.Background(), uuid.New(), f.order.ID)
	assertCode(t, err, pkgerrors.CodeNotFound)
}
