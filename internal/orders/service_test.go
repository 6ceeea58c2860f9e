package orders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/serenadecraft/serenade-backend/internal/pricing"
	"github.com/serenadecraft/serenade-backend/internal/songs"
	"github.com/serenadecraft/serenade-backend/pkg/config"
	"github.com/serenadecraft/serenade-backend/pkg/db/models"
	"github.com/serenadecraft/serenade-backend/pkg/enums"
	pkgerrors "github.com/serenadecraft/serenade-backend/pkg/errors"
	"github.com/serenadecraft/serenade-backend/pkg/pagination"
)

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubSongsRepo struct {
	created        []*models.Song
	latestRevision *models.LyricsRevision
	latestErr      error
	statusUpdates  map[uuid.UUID]enums.SongStatus
}

func newStubSongsRepo() *stubSongsRepo {
	return &stubSongsRepo{statusUpdates: map[uuid.UUID]enums.SongStatus{}}
}

func (s *stubSongsRepo) WithTx(tx *gorm.DB) songs.Repository { return s }

func (s *stubSongsRepo) Create(ctx context.Context, song *models.Song) (*models.Song, error) {
	song.ID = uuid.New()
	s.created = append(s.created, song)
	return song, nil
}

func (s *stubSongsRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Song, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubSongsRepo) FindByIDWithRevisions(ctx context.Context, id uuid.UUID) (*models.Song, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubSongsRepo) UpdateLyrics(ctx context.Context, id uuid.UUID, lyrics string) error {
	return nil
}

func (s *stubSongsRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.SongStatus) error {
	s.statusUpdates[id] = status
	return nil
}

func (s *stubSongsRepo) CreateRevision(ctx context.Context, rev *models.LyricsRevision) (*models.LyricsRevision, error) {
	return rev, nil
}

func (s *stubSongsRepo) FindRevisionByID(ctx context.Context, id uuid.UUID) (*models.LyricsRevision, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubSongsRepo) LatestRevision(ctx context.Context, songID uuid.UUID) (*models.LyricsRevision, error) {
	if s.latestErr != nil {
		return nil, s.latestErr
	}
	if s.latestRevision == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.latestRevision, nil
}

func (s *stubSongsRepo) UpdateRevision(ctx context.Context, id uuid.UUID, status enums.LyricsRevisionStatus, feedback *string) error {
	return nil
}

type stubOrdersRepo struct {
	orders        map[uuid.UUID]*models.Order
	createdSlots  []models.OrderSong
	slotsErr      error
	statusUpdates map[uuid.UUID]enums.OrderStatus
}

func newStubOrdersRepo() *stubOrdersRepo {
	return &stubOrdersRepo{
		orders:        map[uuid.UUID]*models.Order{},
		statusUpdates: map[uuid.UUID]enums.OrderStatus{},
	}
}

func (s *stubOrdersRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubOrdersRepo) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	order.ID = uuid.New()
	s.orders[order.ID] = order
	return order, nil
}

func (s *stubOrdersRepo) CreateSlots(ctx context.Context, slots []models.OrderSong) error {
	if s.slotsErr != nil {
		return s.slotsErr
	}
	s.createdSlots = append(s.createdSlots, slots...)
	return nil
}

func (s *stubOrdersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := s.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return order, nil
}

func (s *stubOrdersRepo) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error) {
	return &OrderList{Orders: []OrderDTO{}}, nil
}

func (s *stubOrdersRepo) ListAll(ctx context.Context, params pagination.Params, filters AdminOrderFilters) (*OrderList, error) {
	return &OrderList{Orders: []OrderDTO{}}, nil
}

func (s *stubOrdersRepo) ListPublicSlots(ctx context.Context, params pagination.Params) (*PublicSongList, error) {
	return &PublicSongList{Songs: []PublicSong{}}, nil
}

func (s *stubOrdersRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error {
	s.statusUpdates[id] = status
	if order, ok := s.orders[id]; ok {
		order.Status = status
		order.UpdatedAt = time.Now().UTC()
	}
	return nil
}

type signedCall struct {
	bucket  string
	object  string
	expires time.Duration
}

type stubSigner struct {
	calls []signedCall
	err   error
}

func (s *stubSigner) SignedReadURL(bucket, object string, expires time.Duration) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.calls = append(s.calls, signedCall{bucket: bucket, object: object, expires: expires})
	return fmt.Sprintf("https://signed.example.com/%s/%s", bucket, object), nil
}

type recordedHint struct {
	table string
	id    uuid.UUID
	op    string
}

type stubHinter struct {
	hints []recordedHint
}

func (s *stubHinter) TableChanged(ctx context.Context, table string, id uuid.UUID, op string) {
	s.hints = append(s.hints, recordedHint{table: table, id: id, op: op})
}

func testGCSConfig() config.GCSConfig {
	return config.GCSConfig{
		AudioBucket:       "serenade-audio",
		CoverBucket:       "serenade-covers",
		DownloadURLExpiry: time.Hour,
	}
}

func testPricingCalculator(t *testing.T) *pricing.Calculator {
	t.Helper()

	calc, err := pricing.NewCalculator(config.PricingConfig{
		BasePrice:        "29.99",
		CoverImagePrice:  "5.00",
		SecondSongPrice:  "15.00",
		SecondCoverPrice: "5.00",
	})
	require.NoError(t, err)
	return calc
}

func newTestService(t *testing.T, repo *stubOrdersRepo, songsRepo *stubSongsRepo, signer *stubSigner, hints *stubHinter) Service {
	t.Helper()

	svc, err := NewService(ServiceParams{
		TxRunner: stubTxRunner{},
		Repo:     repo,
		Songs:    songsRepo,
		Pricing:  testPricingCalculator(t),
		Signer:   signer,
		Hints:    hints,
		GCS:      testGCSConfig(),
	})
	require.NoError(t, err)
	return svc
}

func validCreateRequest() CreateOrderRequest {
	return CreateOrderRequest{
		Title:  "Golden Hour",
		Style:  "indie folk",
		Themes: []string{"wedding", "first dance"},
	}
}

func TestServiceCreatePersistsOrderAndSlots(t *testing.T) {
	repo := newStubOrdersRepo()
	songsRepo := newStubSongsRepo()
	hints := &stubHinter{}
	svc := newTestService(t, repo, songsRepo, &stubSigner{}, hints)

	userID := uuid.New()
	req := validCreateRequest()
	req.WantCoverImage = true
	req.WantSecondSong = true
	req.WantSecondCoverImage = true

	dto, err := svc.Create(context.Background(), userID, req)
	require.NoError(t, err)

	assert.Equal(t, "54.99", dto.Amount.StringFixed(2))
	assert.Equal(t, enums.OrderStatusPending, dto.Status)
	assert.True(t, dto.IncludesBothVersions)
	assert.True(t, dto.IncludesCoverImage)

	require.Len(t, songsRepo.created, 1)
	assert.Equal(t, "Golden Hour", songsRepo.created[0].Title)
	assert.Equal(t, enums.SongStatusCommissioned, songsRepo.created[0].Status)

	require.Len(t, repo.createdSlots, 2)
	assert.True(t, repo.createdSlots[0].IsPrimary)
	assert.False(t, repo.createdSlots[1].IsPrimary)

	require.Len(t, repo.orders, 1)
	for _, order := range repo.orders {
		assert.Equal(t, true, order.FormSnapshot["want_second_cover_image"])
		assert.Equal(t, enums.PaymentStatusPaid, order.PaymentStatus)
	}

	require.Len(t, hints.hints, 1)
	assert.Equal(t, "orders", hints.hints[0].table)
	assert.Equal(t, "insert", hints.hints[0].op)
}

func TestServiceCreateBaseOrderSingleSlot(t *testing.T) {
	repo := newStubOrdersRepo()
	svc := newTestService(t, repo, newStubSongsRepo(), &stubSigner{}, &stubHinter{})

	dto, err := svc.Create(context.Background(), uuid.New(), validCreateRequest())
	require.NoError(t, err)

	assert.Equal(t, "29.99", dto.Amount.StringFixed(2))
	assert.False(t, dto.IncludesBothVersions)
	require.Len(t, repo.createdSlots, 1)
	assert.True(t, repo.createdSlots[0].IsPrimary)
}

func TestServiceCreateIgnoresOrphanSecondCover(t *testing.T) {
	repo := newStubOrdersRepo()
	svc := newTestService(t, repo, newStubSongsRepo(), &stubSigner{}, &stubHinter{})

	req := validCreateRequest()
	req.WantSecondCoverImage = true

	dto, err := svc.Create(context.Background(), uuid.New(), req)
	require.NoError(t, err)

	assert.Equal(t, "29.99", dto.Amount.StringFixed(2))
	for _, order := range repo.orders {
		assert.Equal(t, false, order.FormSnapshot["want_second_cover_image"])
	}
}

func TestServiceCreateSurfacesSlotFailure(t *testing.T) {
	repo := newStubOrdersRepo()
	repo.slotsErr = fmt.Errorf("disk full")
	hints := &stubHinter{}
	svc := newTestService(t, repo, newStubSongsRepo(), &stubSigner{}, hints)

	_, err := svc.Create(context.Background(), uuid.New(), validCreateRequest())
	require.Error(t, err)
	assert.Empty(t, hints.hints)
}

func TestServiceGetForUserHidesForeignOrders(t *testing.T) {
	repo := newStubOrdersRepo()
	svc := newTestService(t, repo, newStubSongsRepo(), &stubSigner{}, &stubHinter{})

	owner := uuid.New()
	order := &models.Order{UserID: owner, Status: enums.OrderStatusPending}
	created, err := repo.Create(context.Background(), order)
	require.NoError(t, err)

	_, err = svc.GetForUser(context.Background(), uuid.New(), created.ID)
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeNotFound, coded.Code())

	dto, err := svc.GetForUser(context.Background(), owner, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, dto.ID)
}

func TestServiceDownloadsSignsEveryDeliverable(t *testing.T) {
	repo := newStubOrdersRepo()
	signer := &stubSigner{}
	svc := newTestService(t, repo, newStubSongsRepo(), signer, &stubHinter{})

	owner := uuid.New()
	primaryAudio := "orders/o1/primary/song.mp3"
	secondaryAudio := "orders/o1/secondary/song.mp3"
	order := &models.Order{
		UserID: owner,
		Status: enums.OrderStatusCompleted,
		Slots: []models.OrderSong{
			{
				ID:        uuid.New(),
				IsPrimary: true,
				AudioKey:  &primaryAudio,
				Cover:     &models.CoverImage{ObjectKey: "covers/o1/primary.png"},
			},
			{
				ID:        uuid.New(),
				IsPrimary: false,
				AudioKey:  &secondaryAudio,
			},
		},
	}
	created, err := repo.Create(context.Background(), order)
	require.NoError(t, err)

	dto, err := svc.Downloads(context.Background(), owner, created.ID)
	require.NoError(t, err)
	require.Len(t, dto.Links, 2)

	assert.True(t, dto.Links[0].IsPrimary)
	assert.Contains(t, dto.Links[0].AudioURL, primaryAudio)
	assert.Contains(t, dto.Links[0].CoverURL, "covers/o1/primary.png")
	assert.Contains(t, dto.Links[1].AudioURL, secondaryAudio)
	assert.Empty(t, dto.Links[1].CoverURL)
	assert.Equal(t, int64(3600), dto.Links[0].ExpiresIn)

	require.Len(t, signer.calls, 3)
	assert.Equal(t, "serenade-audio", signer.calls[0].bucket)
	assert.Equal(t, "serenade-covers", signer.calls[1].bucket)
	assert.Equal(t, time.Hour, signer.calls[0].expires)
}

func TestServiceDownloadsRequiresCompletedOrder(t *testing.T) {
	repo := newStubOrdersRepo()
	svc := newTestService(t, repo, newStubSongsRepo(), &stubSigner{}, &stubHinter{})

	owner := uuid.New()
	created, err := repo.Create(context.Background(), &models.Order{
		UserID: owner,
		Status: enums.OrderStatusReadyForReview,
	})
	require.NoError(t, err)

	_, err = svc.Downloads(context.Background(), owner, created.ID)
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeStateConflict, coded.Code())
}
