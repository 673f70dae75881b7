package create_booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portops/PGC-BookingService/internal/domain"
	"github.com/portops/PGC-BookingService/internal/infra/notify"
	bookingRepo "github.com/portops/PGC-BookingService/internal/infra/storage/booking"
	fleetRepo "github.com/portops/PGC-BookingService/internal/infra/storage/fleet"
	slotRepo "github.com/portops/PGC-BookingService/internal/infra/storage/slot"
	"github.com/portops/PGC-BookingService/internal/integrations/auditservice"
	"github.com/portops/PGC-BookingService/pkg/txmanager"
	"github.com/portops/PGC-BookingService/pkg/types"
)

// --- Фейки ---

type fakeBookingRepo struct {
	mu         sync.Mutex
	created    []*domain.Booking
	nextID     int64
	failFirstN int // первые N вызовов Create вернут ErrDuplicateReference
	calls      int
}

func (f *fakeBookingRepo) Create(_ context.Context, b *domain.Booking) (*domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.calls <= f.failFirstN {
		return nil, bookingRepo.ErrDuplicateReference
	}

	f.nextID++
	stored := *b
	stored.ID = f.nextID
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	f.created = append(f.created, &stored)
	return &stored, nil
}

type fakeSlotRepo struct {
	mu         sync.Mutex
	nextID     int64
	slots      map[string]*domain.TimeSlot
	byID       map[int64]*domain.TimeSlot
	reserveErr error // если задан, Reserve всегда возвращает его
}

func newFakeSlotRepo() *fakeSlotRepo {
	return &fakeSlotRepo{
		slots: make(map[string]*domain.TimeSlot),
		byID:  make(map[int64]*domain.TimeSlot),
	}
}

func slotFakeKey(terminalID, gateID int64, date time.Time, start types.TimeString) string {
	return fmt.Sprintf("%d/%d/%s/%s", terminalID, gateID, date.Format(domain.DateFormat), start)
}

// seed материализует слот с заданной занятостью
func (f *fakeSlotRepo) seed(s *domain.TimeSlot) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	s.ID = f.nextID
	f.slots[slotFakeKey(s.TerminalID, s.GateID, s.SlotDate, s.StartTime)] = s
	f.byID[s.ID] = s
}

func (f *fakeSlotRepo) Ensure(_ context.Context, s *domain.TimeSlot) (*domain.TimeSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := slotFakeKey(s.TerminalID, s.GateID, s.SlotDate, s.StartTime)
	if existing, ok := f.slots[key]; ok {
		copied := *existing
		return &copied, nil
	}

	f.nextID++
	stored := *s
	stored.ID = f.nextID
	f.slots[key] = &stored
	f.byID[stored.ID] = &stored
	copied := stored
	return &copied, nil
}

// Reserve повторяет семантику условного UPDATE: проверка и инкремент
// атомарны под мьютексом
func (f *fakeSlotRepo) Reserve(_ context.Context, slotID int64, amount int) (*domain.TimeSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.reserveErr != nil {
		return nil, f.reserveErr
	}

	s, ok := f.byID[slotID]
	if !ok {
		return nil, slotRepo.ErrSlotNotFound
	}
	if s.ReservedCount+amount > s.Capacity {
		return nil, slotRepo.ErrSlotFull
	}
	s.ReservedCount += amount
	copied := *s
	return &copied, nil
}

// snapshot снимает копию состояния леджера
func (f *fakeSlotRepo) snapshot() map[string]domain.TimeSlot {
	f.mu.Lock()
	defer f.mu.Unlock()

	snap := make(map[string]domain.TimeSlot, len(f.slots))
	for k, s := range f.slots {
		snap[k] = *s
	}
	return snap
}

// restore откатывает леджер к снятой копии
func (f *fakeSlotRepo) restore(snap map[string]domain.TimeSlot) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.slots = make(map[string]*domain.TimeSlot, len(snap))
	f.byID = make(map[int64]*domain.TimeSlot, len(snap))
	for k := range snap {
		s := snap[k]
		f.slots[k] = &s
		f.byID[s.ID] = &s
	}
}

type fakeFleetRepo struct {
	mu         sync.Mutex
	truck      *domain.Truck
	containers map[int64]*domain.Container
	markErr    error
}

func (f *fakeFleetRepo) GetTruck(_ context.Context, id int64) (*domain.Truck, error) {
	if f.truck == nil || f.truck.ID != id {
		return nil, fleetRepo.ErrTruckNotFound
	}
	copied := *f.truck
	return &copied, nil
}

func (f *fakeFleetRepo) GetContainersByIDs(_ context.Context, ids []int64) ([]*domain.Container, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]*domain.Container, 0, len(ids))
	for _, id := range ids {
		c, ok := f.containers[id]
		if !ok {
			return nil, fleetRepo.ErrContainerNotFound
		}
		copied := *c
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakeFleetRepo) MarkContainersBooked(_ context.Context, ids []int64, carrierID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.markErr != nil {
		return f.markErr
	}
	for _, id := range ids {
		c, ok := f.containers[id]
		if !ok || c.CarrierID != carrierID || c.IsBooked {
			return fleetRepo.ErrContainerConflict
		}
	}
	for _, id := range ids {
		f.containers[id].IsBooked = true
	}
	return nil
}

func (f *fakeFleetRepo) snapshotFlags() map[int64]bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	snap := make(map[int64]bool, len(f.containers))
	for id, c := range f.containers {
		snap[id] = c.IsBooked
	}
	return snap
}

func (f *fakeFleetRepo) restoreFlags(snap map[int64]bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for id, booked := range snap {
		f.containers[id].IsBooked = booked
	}
}

type fakeTerminalRepo struct {
	terminal  *domain.TerminalConfig
	gates     []*domain.Gate
	schedules []*domain.GateSchedule
	getErr    error
}

func (f *fakeTerminalRepo) GetTerminal(_ context.Context, id int64) (*domain.TerminalConfig, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	copied := *f.terminal
	return &copied, nil
}

func (f *fakeTerminalRepo) ListGates(_ context.Context, _ int64) ([]*domain.Gate, error) {
	return f.gates, nil
}

func (f *fakeTerminalRepo) ListSchedules(_ context.Context, _ int64, _ time.Weekday) ([]*domain.GateSchedule, error) {
	return f.schedules, nil
}

type fakeTxManager struct{}

func (fakeTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// rollbackTxManager воспроизводит откат транзакции: при ошибке fn
// состояние леджера и флаги контейнеров возвращаются к снимку
type rollbackTxManager struct {
	slots      *fakeSlotRepo
	fleet      *fakeFleetRepo
	rolledBack bool
}

func (m *rollbackTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	slotSnap := m.slots.snapshot()
	flagSnap := m.fleet.snapshotFlags()

	if err := fn(ctx); err != nil {
		m.slots.restore(slotSnap)
		m.fleet.restoreFlags(flagSnap)
		m.rolledBack = true
		return err
	}
	return nil
}

// retryingTxManager воспроизводит контракт DoSerializable настоящего
// менеджера: повтор при конфликте сериализации, затем ErrSerializationConflict
type retryingTxManager struct {
	attempts int
}

func (m *retryingTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error
	for i := 0; i < 3; i++ {
		m.attempts++
		lastErr = fn(ctx)
		if lastErr == nil || !errors.Is(lastErr, txmanager.ErrSerializationFailure) {
			return lastErr
		}
	}
	return fmt.Errorf("%w: %v", txmanager.ErrSerializationConflict, lastErr)
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

type fixture struct {
	bookings *fakeBookingRepo
	slots    *fakeSlotRepo
	fleet    *fakeFleetRepo
	terminal *fakeTerminalRepo
	notifier *fakeNotifier
	auditor  *fakeAuditor
	uc       *UseCase
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	now := time.Date(2026, 9, 15, 8, 0, 0, 0, time.UTC)

	f := &fixture{
		bookings: &fakeBookingRepo{},
		slots:    newFakeSlotRepo(),
		fleet: &fakeFleetRepo{
			truck: &domain.Truck{
				ID:           5,
				CarrierID:    10,
				LicensePlate: "AB-123-C",
				Type:         "container_truck",
				Class:        "A",
			},
			containers: map[int64]*domain.Container{
				100: {ID: 100, CarrierID: 10, Number: "MSCU1234567", OperationType: domain.OperationPickUp},
				101: {ID: 101, CarrierID: 10, Number: "MSCU7654321", OperationType: domain.OperationDropOff},
			},
		},
		terminal: &fakeTerminalRepo{
			terminal: &domain.TerminalConfig{
				ID:                         1,
				Code:                       "RTM-EMX",
				Name:                       "Euromax",
				Timezone:                   "UTC",
				AutoValidationThresholdPct: 80,
				MaxAdvanceBookingDays:      14,
				MinAdvanceBookingHours:     2,
				NoShowGraceMinutes:         60,
				MaxContainersPerBooking:    4,
				ReminderHoursBefore:        []int{24, 2},
			},
			gates: []*domain.Gate{
				{
					ID:                  1,
					TerminalID:          1,
					Code:                "G1",
					AllowedTruckTypes:   []domain.TruckType{"container_truck"},
					AllowedTruckClasses: []domain.TruckClass{"A"},
				},
			},
			schedules: []*domain.GateSchedule{
				{GateID: 1, Weekday: time.Wednesday, OpenTime: "08:00", CloseTime: "18:00", SlotDurationMinutes: 60, Capacity: 10},
			},
		},
		notifier: &fakeNotifier{},
		auditor:  &fakeAuditor{},
		now:      now,
	}

	f.uc = NewUseCase(
		f.bookings,
		f.slots,
		f.fleet,
		f.terminal,
		fakeTxManager{},
		f.notifier,
		f.auditor,
		nil,
		nopLogger{},
	).WithTimeProvider(fixedTime{now})

	return f
}

func validRequest() *Request {
	return &Request{
		CarrierID:    10,
		TerminalID:   1,
		TruckID:      5,
		ContainerIDs: []int64{100},
		Date:         time.Date(2026, 9, 16, 0, 0, 0, 0, time.UTC), // среда
		TimeStart:    "10:00",
		TimeEnd:      "11:00",
	}
}

// --- Тесты ---

func TestCreateBooking_AutoConfirmed(t *testing.T) {
	f := newFixture(t)

	resp, err := f.uc.Execute(context.Background(), validRequest())

	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusConfirmed), resp.Status)
	assert.Equal(t, int64(1), resp.GateID)
	assert.Regexp(t, `^PGC-20260916-[0-9A-F]{8}$`, resp.Reference)
	require.NotNil(t, resp.DecidedAt)
	assert.Equal(t, f.now, *resp.DecidedAt)

	// Дедлайн no-show: конец слота + грейс терминала
	require.NotNil(t, resp.ExpiresAt)
	wantDeadline := time.Date(2026, 9, 16, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, wantDeadline, *resp.ExpiresAt)

	// Резерв выполнен, контейнер помечен
	reserved, err := f.slots.Reserve(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, reserved.ReservedCount)
	assert.True(t, f.fleet.containers[100].IsBooked)

	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, notify.EventBookingCreated, f.notifier.events[0])

	require.Len(t, f.auditor.entries, 1)
	assert.Equal(t, auditservice.ResultOK, f.auditor.entries[0].Result)
}

func TestCreateBooking_PendingAtThreshold(t *testing.T) {
	f := newFixture(t)
	// Емкость 2, порог 50%: после резерва занятость ровно 50% - ручная валидация
	f.terminal.terminal.AutoValidationThresholdPct = 50
	f.terminal.schedules[0].Capacity = 2

	resp, err := f.uc.Execute(context.Background(), validRequest())

	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusPending), resp.Status)
	assert.Nil(t, resp.DecidedAt)

	// Дедлайн pending-брони - начало слота
	require.NotNil(t, resp.ExpiresAt)
	assert.Equal(t, time.Date(2026, 9, 16, 10, 0, 0, 0, time.UTC), *resp.ExpiresAt)
}

func TestCreateBooking_ValidationErrors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		mutate func(*Request)
	}{
		{"no containers", func(r *Request) { r.ContainerIDs = nil }},
		{"duplicate containers", func(r *Request) { r.ContainerIDs = []int64{100, 100} }},
		{"bad time order", func(r *Request) { r.TimeStart = "11:00"; r.TimeEnd = "10:00" }},
		{"bad time format", func(r *Request) { r.TimeStart = "10am" }},
		{"zero truck", func(r *Request) { r.TruckID = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)

			_, err := f.uc.Execute(context.Background(), req)

			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	assert.Empty(t, f.bookings.created)
}

func TestCreateBooking_TruckNotOwned(t *testing.T) {
	f := newFixture(t)
	f.fleet.truck.CarrierID = 99

	_, err := f.uc.Execute(context.Background(), validRequest())

	assert.ErrorIs(t, err, ErrTruckNotOwned)
}

func TestCreateBooking_ContainerAlreadyBooked(t *testing.T) {
	f := newFixture(t)
	f.fleet.containers[100].IsBooked = true

	_, err := f.uc.Execute(context.Background(), validRequest())

	assert.ErrorIs(t, err, ErrContainerBooked)
}

func TestCreateBooking_TooManyContainers(t *testing.T) {
	f := newFixture(t)
	f.terminal.terminal.MaxContainersPerBooking = 1

	req := validRequest()
	req.ContainerIDs = []int64{100, 101}

	_, err := f.uc.Execute(context.Background(), req)

	assert.ErrorIs(t, err, ErrTooManyContainers)
}

func TestCreateBooking_WindowDoesNotMatchGrid(t *testing.T) {
	f := newFixture(t)

	req := validRequest()
	req.TimeStart = "10:30"
	req.TimeEnd = "11:30"

	_, err := f.uc.Execute(context.Background(), req)

	assert.ErrorIs(t, err, ErrInvalidTimeSlot)
}

func TestCreateBooking_TerminalClosed(t *testing.T) {
	f := newFixture(t)
	f.terminal.schedules = nil

	_, err := f.uc.Execute(context.Background(), validRequest())

	assert.ErrorIs(t, err, ErrTerminalClosed)
}

func TestCreateBooking_TooLateToBook(t *testing.T) {
	f := newFixture(t)

	// Слот начинается через полтора часа при минимуме в два
	req := validRequest()
	req.Date = time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	req.TimeStart = "09:30"
	req.TimeEnd = "10:30"

	_, err := f.uc.Execute(context.Background(), req)

	assert.ErrorIs(t, err, ErrTooLateToBook)
}

func TestCreateBooking_DateTooFarInFuture(t *testing.T) {
	f := newFixture(t)

	req := validRequest()
	req.Date = time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC) // среда, 29 дней вперед

	_, err := f.uc.Execute(context.Background(), req)

	assert.ErrorIs(t, err, ErrDateTooFarInFuture)
}

func TestCreateBooking_SlotFull(t *testing.T) {
	f := newFixture(t)
	f.terminal.schedules[0].Capacity = 1
	f.slots.seed(&domain.TimeSlot{
		TerminalID:    1,
		GateID:        1,
		SlotDate:      time.Date(2026, 9, 16, 0, 0, 0, 0, time.UTC),
		StartTime:     "10:00",
		EndTime:       "11:00",
		Capacity:      1,
		ReservedCount: 1,
	})

	_, err := f.uc.Execute(context.Background(), validRequest())

	assert.ErrorIs(t, err, ErrSlotFull)
	assert.Empty(t, f.bookings.created)
	// Неуспех тоже аудируется
	require.Len(t, f.auditor.entries, 1)
	assert.Equal(t, auditservice.ResultError, f.auditor.entries[0].Result)
}

func TestCreateBooking_FallsBackToSecondGate(t *testing.T) {
	f := newFixture(t)
	f.terminal.gates = append(f.terminal.gates, &domain.Gate{
		ID:                  2,
		TerminalID:          1,
		Code:                "G2",
		AllowedTruckTypes:   []domain.TruckType{"container_truck"},
		AllowedTruckClasses: []domain.TruckClass{"A"},
	})
	f.terminal.schedules = append(f.terminal.schedules, &domain.GateSchedule{
		GateID: 2, Weekday: time.Wednesday, OpenTime: "08:00", CloseTime: "18:00", SlotDurationMinutes: 60, Capacity: 5,
	})

	// Первые ворота забиты
	f.slots.seed(&domain.TimeSlot{
		TerminalID:    1,
		GateID:        1,
		SlotDate:      time.Date(2026, 9, 16, 0, 0, 0, 0, time.UTC),
		StartTime:     "10:00",
		EndTime:       "11:00",
		Capacity:      10,
		ReservedCount: 10,
	})

	resp, err := f.uc.Execute(context.Background(), validRequest())

	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.GateID)
}

func TestCreateBooking_TruckNotAllowedAtMatchingGates(t *testing.T) {
	f := newFixture(t)
	f.fleet.truck.Type = "tanker"

	_, err := f.uc.Execute(context.Background(), validRequest())

	assert.ErrorIs(t, err, ErrTruckNotAllowed)
}

func TestCreateBooking_ReferenceCollisionRetried(t *testing.T) {
	f := newFixture(t)
	f.bookings.failFirstN = 1

	resp, err := f.uc.Execute(context.Background(), validRequest())

	require.NoError(t, err)
	assert.Equal(t, 2, f.bookings.calls)
	assert.NotEmpty(t, resp.Reference)
}

func TestCreateBooking_RollbackOnContainerConflict(t *testing.T) {
	f := newFixture(t)
	f.fleet.markErr = fleetRepo.ErrContainerConflict
	f.slots.seed(&domain.TimeSlot{
		TerminalID: 1,
		GateID:     1,
		SlotDate:   time.Date(2026, 9, 16, 0, 0, 0, 0, time.UTC),
		StartTime:  "10:00",
		EndTime:    "11:00",
		Capacity:   10,
	})

	txm := &rollbackTxManager{slots: f.slots, fleet: f.fleet}
	uc := NewUseCase(
		f.bookings,
		f.slots,
		f.fleet,
		f.terminal,
		txm,
		f.notifier,
		f.auditor,
		nil,
		nopLogger{},
	).WithTimeProvider(fixedTime{f.now})

	_, err := uc.Execute(context.Background(), validRequest())

	assert.ErrorIs(t, err, ErrContainerBooked)
	assert.True(t, txm.rolledBack)
	assert.Empty(t, f.bookings.created)

	// Резерв откатился вместе с транзакцией: следов в леджере нет
	snap := f.slots.snapshot()
	require.Len(t, snap, 1)
	for _, s := range snap {
		assert.Equal(t, 0, s.ReservedCount)
	}
	assert.False(t, f.fleet.containers[100].IsBooked)
}

func TestCreateBooking_RollbackOnReferenceExhaustion(t *testing.T) {
	f := newFixture(t)
	// Все попытки генерации reference бьются о коллизию
	f.bookings.failFirstN = maxReferenceAttempts
	f.slots.seed(&domain.TimeSlot{
		TerminalID: 1,
		GateID:     1,
		SlotDate:   time.Date(2026, 9, 16, 0, 0, 0, 0, time.UTC),
		StartTime:  "10:00",
		EndTime:    "11:00",
		Capacity:   10,
	})

	txm := &rollbackTxManager{slots: f.slots, fleet: f.fleet}
	uc := NewUseCase(
		f.bookings,
		f.slots,
		f.fleet,
		f.terminal,
		txm,
		f.notifier,
		f.auditor,
		nil,
		nopLogger{},
	).WithTimeProvider(fixedTime{f.now})

	_, err := uc.Execute(context.Background(), validRequest())

	assert.ErrorIs(t, err, ErrInternal)
	assert.True(t, txm.rolledBack)
	assert.Empty(t, f.bookings.created)

	// И резерв, и пометка контейнеров откатились
	snap := f.slots.snapshot()
	require.Len(t, snap, 1)
	for _, s := range snap {
		assert.Equal(t, 0, s.ReservedCount)
	}
	assert.False(t, f.fleet.containers[100].IsBooked)
}

func TestCreateBooking_SerializationConflictRetriedThenContention(t *testing.T) {
	f := newFixture(t)
	f.slots.reserveErr = fmt.Errorf("%w: Reserve - slot id=1: pq: could not serialize access",
		txmanager.ErrSerializationFailure)

	txm := &retryingTxManager{}
	uc := NewUseCase(
		f.bookings,
		f.slots,
		f.fleet,
		f.terminal,
		txm,
		f.notifier,
		f.auditor,
		nil,
		nopLogger{},
	).WithTimeProvider(fixedTime{f.now})

	_, err := uc.Execute(context.Background(), validRequest())

	assert.ErrorIs(t, err, ErrContention)
	// Маркер конфликта дошел до менеджера нетронутым - все повторы состоялись
	assert.Equal(t, 3, txm.attempts)
	assert.Empty(t, f.bookings.created)
}

func TestCreateBooking_ConcurrentLastSeat(t *testing.T) {
	f := newFixture(t)
	f.terminal.terminal.AutoValidationThresholdPct = 100
	f.terminal.schedules[0].Capacity = 1

	// Второй перевозчик с собственным грузовиком и контейнером
	secondFleet := &fakeFleetRepo{
		truck: &domain.Truck{ID: 6, CarrierID: 20, LicensePlate: "XY-987-Z", Type: "container_truck", Class: "A"},
		containers: map[int64]*domain.Container{
			200: {ID: 200, CarrierID: 20, Number: "TCLU0000001", OperationType: domain.OperationPickUp},
		},
	}
	secondUC := NewUseCase(
		f.bookings,
		f.slots,
		secondFleet,
		f.terminal,
		fakeTxManager{},
		f.notifier,
		f.auditor,
		nil,
		nopLogger{},
	).WithTimeProvider(fixedTime{f.now})

	secondReq := validRequest()
	secondReq.CarrierID = 20
	secondReq.TruckID = 6
	secondReq.ContainerIDs = []int64{200}

	var wg sync.WaitGroup
	errs := make([]error, 2)

	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = f.uc.Execute(context.Background(), validRequest())
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = secondUC.Execute(context.Background(), secondReq)
	}()
	wg.Wait()

	// Ровно один запрос получает последнее место
	var fullCount, okCount int
	for _, err := range errs {
		switch {
		case err == nil:
			okCount++
		default:
			assert.ErrorIs(t, err, ErrSlotFull)
			fullCount++
		}
	}
	assert.Equal(t, 1, okCount)
	assert.Equal(t, 1, fullCount)
	assert.Len(t, f.bookings.created, 1)
}
