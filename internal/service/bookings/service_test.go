package bookings

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portops/PGC-BookingService/internal/domain"
	"github.com/portops/PGC-BookingService/internal/infra/notify"
	bookingRepo "github.com/portops/PGC-BookingService/internal/infra/storage/booking"
	"github.com/portops/PGC-BookingService/internal/integrations/auditservice"
	"github.com/portops/PGC-BookingService/internal/integrations/identityservice"
	"github.com/portops/PGC-BookingService/pkg/ptr"
)

// --- Фейки ---

type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[int64]*domain.Booking
}

func newFakeBookingRepo(bookings ...*domain.Booking) *fakeBookingRepo {
	f := &fakeBookingRepo{bookings: make(map[int64]*domain.Booking)}
	for _, b := range bookings {
		f.bookings[b.ID] = b
	}
	return f
}

func (f *fakeBookingRepo) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, ok := f.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrBookingNotFound
	}
	copied := *b
	return &copied, nil
}

func (f *fakeBookingRepo) GetByReference(_ context.Context, reference string) (*domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, b := range f.bookings {
		if b.Reference == reference {
			copied := *b
			return &copied, nil
		}
	}
	return nil, bookingRepo.ErrBookingNotFound
}

func (f *fakeBookingRepo) ListWithFilter(_ context.Context, filter domain.BookingsFilter) ([]*domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*domain.Booking
	for _, b := range f.bookings {
		if filter.CarrierID != nil && b.CarrierID != *filter.CarrierID {
			continue
		}
		if filter.TerminalID != nil && b.TerminalID != *filter.TerminalID {
			continue
		}
		if filter.Status != nil && b.Status != *filter.Status {
			continue
		}
		copied := *b
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakeBookingRepo) Transition(_ context.Context, id int64, from, to domain.BookingStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, ok := f.bookings[id]
	if !ok {
		return bookingRepo.ErrBookingNotFound
	}
	if b.Status != from {
		return bookingRepo.ErrStatusConflict
	}
	b.Status = to
	return nil
}

func (f *fakeBookingRepo) ConfirmWithDeadline(_ context.Context, id int64, noShowDeadline time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, ok := f.bookings[id]
	if !ok {
		return bookingRepo.ErrBookingNotFound
	}
	if b.Status != domain.StatusPending {
		return bookingRepo.ErrStatusConflict
	}
	now := time.Now()
	b.Status = domain.StatusConfirmed
	b.DecidedAt = &now
	b.ExpiresAt = &noShowDeadline
	return nil
}

type fakeSlotRepo struct {
	mu       sync.Mutex
	released map[int64]int
}

func (f *fakeSlotRepo) Release(_ context.Context, slotID int64, amount int) (*domain.TimeSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.released == nil {
		f.released = make(map[int64]int)
	}
	f.released[slotID] += amount
	return &domain.TimeSlot{ID: slotID}, nil
}

type fakeFleetRepo struct {
	mu       sync.Mutex
	released [][]int64
}

func (f *fakeFleetRepo) ReleaseContainers(_ context.Context, ids []int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.released = append(f.released, ids)
	return int64(len(ids)), nil
}

type fakeTerminalRepo struct {
	terminal *domain.TerminalConfig
}

func (f *fakeTerminalRepo) GetTerminal(_ context.Context, _ int64) (*domain.TerminalConfig, error) {
	copied := *f.terminal
	return &copied, nil
}

type fakeIdentity struct {
	profiles map[int64]*identityservice.Profile
}

func (f *fakeIdentity) GetProfile(_ context.Context, userID int64) (*identityservice.Profile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return nil, identityservice.ErrProfileNotFound
	}
	return p, nil
}

type fakeTxManager struct{}

func (fakeTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (f *fakeNotifier) Send(_ context.Context, event notify.Event, _ notify.Payload) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

type fakeAuditor struct {
	mu      sync.Mutex
	entries []auditservice.Entry
}

func (f *fakeAuditor) LogAsync(entry auditservice.Entry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
}

type fixedTime struct{ t time.Time }

func (f fixedTime) Now() time.Time { return f.t }

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// --- Фикстура ---

const (
	carrierUserID  = 10
	operatorUserID = 50
	adminUserID    = 60
	strangerUserID = 70
)

type fixture struct {
	bookings *fakeBookingRepo
	slots    *fakeSlotRepo
	fleet    *fakeFleetRepo
	notifier *fakeNotifier
	auditor  *fakeAuditor
	svc      *Service
	now      time.Time
}

func pendingBooking() *domain.Booking {
	slotStart := time.Date(2026, 9, 16, 10, 0, 0, 0, time.UTC)
	return &domain.Booking{
		ID:           1,
		Reference:    "PGC-20260916-AB12CD34",
		CarrierID:    carrierUserID,
		TerminalID:   1,
		GateID:       1,
		SlotID:       100,
		TruckID:      5,
		ContainerIDs: []int64{200, 201},
		BookingDate:  time.Date(2026, 9, 16, 0, 0, 0, 0, time.UTC),
		TimeStart:    "10:00",
		TimeEnd:      "11:00",
		SlotStartAt:  slotStart,
		SlotEndAt:    slotStart.Add(time.Hour),
		Status:       domain.StatusPending,
		ExpiresAt:    &slotStart,
	}
}

func confirmedBooking() *domain.Booking {
	b := pendingBooking()
	b.Status = domain.StatusConfirmed
	deadline := b.SlotEndAt.Add(60 * time.Minute)
	b.ExpiresAt = &deadline
	return b
}

func newFixture(t *testing.T, bookings ...*domain.Booking) *fixture {
	t.Helper()

	f := &fixture{
		bookings: newFakeBookingRepo(bookings...),
		slots:    &fakeSlotRepo{},
		fleet:    &fakeFleetRepo{},
		notifier: &fakeNotifier{},
		auditor:  &fakeAuditor{},
		now:      time.Date(2026, 9, 15, 8, 0, 0, 0, time.UTC),
	}

	identity := &fakeIdentity{profiles: map[int64]*identityservice.Profile{
		carrierUserID:  {ID: carrierUserID, Role: identityservice.RoleCarrier},
		operatorUserID: {ID: operatorUserID, Role: identityservice.RoleOperator, TerminalIDs: []int64{1}},
		adminUserID:    {ID: adminUserID, Role: identityservice.RoleAdmin},
		strangerUserID: {ID: strangerUserID, Role: identityservice.RoleOperator, TerminalIDs: []int64{99}},
	}}

	terminal := &fakeTerminalRepo{terminal: &domain.TerminalConfig{
		ID:                 1,
		Timezone:           "UTC",
		NoShowGraceMinutes: 60,
	}}

	f.svc = NewService(
		f.bookings,
		f.slots,
		f.fleet,
		terminal,
		identity,
		fakeTxManager{},
		f.notifier,
		f.auditor,
		nopLogger{},
	).WithTimeProvider(fixedTime{f.now})

	return f
}

// --- Чтение ---

func TestGetByID_OwnerAndOperator(t *testing.T) {
	f := newFixture(t, pendingBooking())

	for _, callerID := range []int64{carrierUserID, operatorUserID, adminUserID} {
		got, err := f.svc.GetByID(context.Background(), callerID, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.ID)
	}
}

func TestGetByID_StrangerDenied(t *testing.T) {
	f := newFixture(t, pendingBooking())

	_, err := f.svc.GetByID(context.Background(), strangerUserID, 1)

	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestGetByID_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.GetByID(context.Background(), carrierUserID, 42)

	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestGetByReference(t *testing.T) {
	f := newFixture(t, pendingBooking())

	got, err := f.svc.GetByReference(context.Background(), carrierUserID, "PGC-20260916-AB12CD34")

	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ID)

	_, err = f.svc.GetByReference(context.Background(), carrierUserID, "PGC-20260916-00000000")
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

// --- Выборка ---

func TestList_CarrierSeesOwnOnly(t *testing.T) {
	other := pendingBooking()
	other.ID = 2
	other.CarrierID = 999
	f := newFixture(t, pendingBooking(), other)

	list, err := f.svc.List(context.Background(), carrierUserID, &ListRequest{CarrierID: ptr.Ptr(int64(carrierUserID))})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(carrierUserID), list[0].CarrierID)

	// Чужой carrierId запрещен
	_, err = f.svc.List(context.Background(), carrierUserID, &ListRequest{CarrierID: ptr.Ptr(int64(999))})
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestList_OperatorMustFilterByTerminal(t *testing.T) {
	f := newFixture(t, pendingBooking())

	_, err := f.svc.List(context.Background(), operatorUserID, &ListRequest{CarrierID: ptr.Ptr(int64(carrierUserID))})
	assert.ErrorIs(t, err, ErrInvalidFilter)

	list, err := f.svc.List(context.Background(), operatorUserID, &ListRequest{TerminalID: ptr.Ptr(int64(1))})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	// Не свой терминал
	_, err = f.svc.List(context.Background(), operatorUserID, &ListRequest{TerminalID: ptr.Ptr(int64(99))})
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestList_AdminMayOmitTerminal(t *testing.T) {
	f := newFixture(t, pendingBooking())

	list, err := f.svc.List(context.Background(), adminUserID, &ListRequest{CarrierID: ptr.Ptr(int64(carrierUserID))})

	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestList_EmptyFilterRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.List(context.Background(), adminUserID, &ListRequest{})

	assert.ErrorIs(t, err, ErrInvalidFilter)
}

// --- Решение оператора ---

func TestDecide_Confirm(t *testing.T) {
	f := newFixture(t, pendingBooking())

	updated, err := f.svc.Decide(context.Background(), operatorUserID, &DecideRequest{
		BookingID: 1,
		Decision:  domain.DecisionConfirm,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, updated.Status)

	// No-show дедлайн: конец слота + грейс терминала
	require.NotNil(t, updated.ExpiresAt)
	assert.Equal(t, time.Date(2026, 9, 16, 12, 0, 0, 0, time.UTC), *updated.ExpiresAt)

	// Емкость и контейнеры остаются занятыми
	assert.Empty(t, f.slots.released)
	assert.Empty(t, f.fleet.released)

	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, notify.EventBookingConfirmed, f.notifier.events[0])

	require.Len(t, f.auditor.entries, 1)
	assert.Equal(t, "booking.decide", f.auditor.entries[0].Action)
	assert.Equal(t, auditservice.ResultOK, f.auditor.entries[0].Result)
	assert.Equal(t, "confirm", f.auditor.entries[0].Detail)
}

func TestDecide_RejectReleasesResources(t *testing.T) {
	f := newFixture(t, pendingBooking())

	updated, err := f.svc.Decide(context.Background(), operatorUserID, &DecideRequest{
		BookingID: 1,
		Decision:  domain.DecisionReject,
		Comment:   "gate maintenance",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, updated.Status)

	assert.Equal(t, 1, f.slots.released[100])
	require.Len(t, f.fleet.released, 1)
	assert.Equal(t, []int64{200, 201}, f.fleet.released[0])

	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, notify.EventBookingRejected, f.notifier.events[0])
	assert.Equal(t, "reject: gate maintenance", f.auditor.entries[0].Detail)
}

func TestDecide_AlreadyDecided(t *testing.T) {
	f := newFixture(t, confirmedBooking())

	_, err := f.svc.Decide(context.Background(), operatorUserID, &DecideRequest{
		BookingID: 1,
		Decision:  domain.DecisionConfirm,
	})

	assert.ErrorIs(t, err, ErrAlreadyDecided)
	require.Len(t, f.auditor.entries, 1)
	assert.Equal(t, auditservice.ResultError, f.auditor.entries[0].Result)
}

func TestDecide_InvalidDecision(t *testing.T) {
	f := newFixture(t, pendingBooking())

	_, err := f.svc.Decide(context.Background(), operatorUserID, &DecideRequest{
		BookingID: 1,
		Decision:  "approve",
	})

	assert.ErrorIs(t, err, ErrInvalidDecision)
}

func TestDecide_WrongTerminalOperator(t *testing.T) {
	f := newFixture(t, pendingBooking())

	_, err := f.svc.Decide(context.Background(), strangerUserID, &DecideRequest{
		BookingID: 1,
		Decision:  domain.DecisionConfirm,
	})

	assert.ErrorIs(t, err, ErrAccessDenied)
	require.Len(t, f.auditor.entries, 1)
	assert.Equal(t, auditservice.ResultDenied, f.auditor.entries[0].Result)
}

func TestDecide_CarrierDenied(t *testing.T) {
	f := newFixture(t, pendingBooking())

	_, err := f.svc.Decide(context.Background(), carrierUserID, &DecideRequest{
		BookingID: 1,
		Decision:  domain.DecisionConfirm,
	})

	assert.ErrorIs(t, err, ErrAccessDenied)
}

// --- Отмена ---

func TestCancel_ByOwner(t *testing.T) {
	f := newFixture(t, confirmedBooking())

	updated, err := f.svc.Cancel(context.Background(), carrierUserID, 1)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, updated.Status)
	assert.Equal(t, 1, f.slots.released[100])
	require.Len(t, f.fleet.released, 1)

	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, notify.EventBookingCancelled, f.notifier.events[0])
	assert.Equal(t, "booking.cancel", f.auditor.entries[0].Action)
}

func TestCancel_PendingByOperator(t *testing.T) {
	f := newFixture(t, pendingBooking())

	updated, err := f.svc.Cancel(context.Background(), operatorUserID, 1)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, updated.Status)
}

func TestCancel_StrangerDenied(t *testing.T) {
	f := newFixture(t, pendingBooking())

	_, err := f.svc.Cancel(context.Background(), strangerUserID, 1)

	assert.ErrorIs(t, err, ErrAccessDenied)
	assert.Empty(t, f.slots.released)
}

func TestCancel_RetiredBooking(t *testing.T) {
	b := pendingBooking()
	b.Status = domain.StatusExpired
	f := newFixture(t, b)

	_, err := f.svc.Cancel(context.Background(), carrierUserID, 1)

	assert.ErrorIs(t, err, ErrNotCancellable)
	assert.Empty(t, f.slots.released)
}

// --- Проезд через ворота ---

func TestConsume_WithinWindow(t *testing.T) {
	f := newFixture(t, confirmedBooking())
	// Прибытие за час до начала слота - внутри двухчасового окна
	f.svc.WithTimeProvider(fixedTime{time.Date(2026, 9, 16, 9, 0, 0, 0, time.UTC)})

	updated, err := f.svc.Consume(context.Background(), operatorUserID,
		&ConsumeRequest{BookingID: 1, ScanContext: "gate-1/scanner-A"})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusConsumed, updated.Status)

	// Емкость слота не возвращается
	assert.Empty(t, f.slots.released)
	assert.Empty(t, f.fleet.released)
	assert.Equal(t, "booking.consume", f.auditor.entries[0].Action)
	// Контекст сканирования доходит до аудит-журнала
	assert.Equal(t, "gate-1/scanner-A", f.auditor.entries[0].Detail)
}

func TestConsume_UpToNoShowDeadline(t *testing.T) {
	f := newFixture(t, confirmedBooking())
	// Конец слота 11:00, грейс 60 минут: 11:30 еще внутри окна
	f.svc.WithTimeProvider(fixedTime{time.Date(2026, 9, 16, 11, 30, 0, 0, time.UTC)})

	updated, err := f.svc.Consume(context.Background(), operatorUserID, &ConsumeRequest{BookingID: 1})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusConsumed, updated.Status)
}

func TestConsume_TooEarly(t *testing.T) {
	f := newFixture(t, confirmedBooking())
	f.svc.WithTimeProvider(fixedTime{time.Date(2026, 9, 16, 7, 0, 0, 0, time.UTC)})

	_, err := f.svc.Consume(context.Background(), operatorUserID, &ConsumeRequest{BookingID: 1})

	assert.ErrorIs(t, err, ErrOutsideArrivalWindow)
}

func TestConsume_AfterDeadline(t *testing.T) {
	f := newFixture(t, confirmedBooking())
	f.svc.WithTimeProvider(fixedTime{time.Date(2026, 9, 16, 12, 30, 0, 0, time.UTC)})

	_, err := f.svc.Consume(context.Background(), operatorUserID, &ConsumeRequest{BookingID: 1})

	assert.ErrorIs(t, err, ErrOutsideArrivalWindow)
}

func TestConsume_PendingBooking(t *testing.T) {
	f := newFixture(t, pendingBooking())
	f.svc.WithTimeProvider(fixedTime{time.Date(2026, 9, 16, 10, 30, 0, 0, time.UTC)})

	_, err := f.svc.Consume(context.Background(), operatorUserID, &ConsumeRequest{BookingID: 1})

	assert.ErrorIs(t, err, ErrNotConsumable)
}

func TestConsume_CarrierDenied(t *testing.T) {
	f := newFixture(t, confirmedBooking())

	_, err := f.svc.Consume(context.Background(), carrierUserID, &ConsumeRequest{BookingID: 1})

	assert.ErrorIs(t, err, ErrAccessDenied)
}
