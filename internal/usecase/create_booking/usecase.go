package create_booking

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/portops/PGC-BookingService/internal/domain"
	"github.com/portops/PGC-BookingService/internal/infra/notify"
	bookingRepo "github.com/portops/PGC-BookingService/internal/infra/storage/booking"
	fleetRepo "github.com/portops/PGC-BookingService/internal/infra/storage/fleet"
	slotRepo "github.com/portops/PGC-BookingService/internal/infra/storage/slot"
	terminalRepo "github.com/portops/PGC-BookingService/internal/infra/storage/terminalcfg"
	"github.com/portops/PGC-BookingService/internal/integrations/auditservice"
	"github.com/portops/PGC-BookingService/pkg/metrics"
	"github.com/portops/PGC-BookingService/pkg/txmanager"
)

// maxReferenceAttempts количество попыток сгенерировать уникальный reference
const maxReferenceAttempts = 3

// UseCase use case для создания бронирования
//
// Резерв емкости, создание брони, пометка контейнеров и
// авто-валидация выполняются одной сериализуемой транзакцией: при любой
// ошибке на поздних шагах резерв и флаги контейнеров откатываются
type UseCase struct {
	bookingRepo  BookingRepository
	slotRepo     SlotRepository
	fleetRepo    FleetRepository
	terminalRepo TerminalRepository
	txManager    TransactionManager
	notifier     Notifier
	auditor      Auditor
	timeProvider TimeProvider
	metrics      *metrics.Metrics
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	slotRepo SlotRepository,
	fleetRepo FleetRepository,
	terminalRepo TerminalRepository,
	txManager TransactionManager,
	notifier Notifier,
	auditor Auditor,
	m *metrics.Metrics,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:  bookingRepo,
		slotRepo:     slotRepo,
		fleetRepo:    fleetRepo,
		terminalRepo: terminalRepo,
		txManager:    txManager,
		notifier:     notifier,
		auditor:      auditor,
		timeProvider: &RealTimeProvider{},
		metrics:      m,
		logger:       logger,
	}
}

// WithTimeProvider подменяет провайдер времени (для тестов)
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// Execute выполняет use case создания бронирования
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateBooking: carrier=%d, terminal=%d, truck=%d, containers=%d, date=%s, window=%s-%s",
		req.CarrierID, req.TerminalID, req.TruckID, len(req.ContainerIDs),
		req.Date.Format(domain.DateFormat), req.TimeStart, req.TimeEnd)

	result, err := uc.execute(ctx, req)
	uc.audit(req, result, err)
	if err != nil {
		return nil, err
	}

	uc.logger.Info("CreateBooking: successfully created booking id=%d reference=%s status=%s",
		result.ID, result.Reference, result.Status)

	return fromDomain(result), nil
}

func (uc *UseCase) execute(ctx context.Context, req *Request) (*domain.Booking, error) {
	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		return nil, err
	}

	now := uc.timeProvider.Now()

	// 2. Политика терминала
	terminal, err := uc.terminalRepo.GetTerminal(ctx, req.TerminalID)
	if err != nil {
		if errors.Is(err, terminalRepo.ErrTerminalNotFound) {
			uc.logger.Warn("CreateBooking: terminal id=%d not found", req.TerminalID)
			return nil, ErrTerminalNotFound
		}
		uc.logger.Error("CreateBooking: failed to get terminal id=%d: %v", req.TerminalID, err)
		return nil, fmt.Errorf("%w: failed to get terminal: %v", ErrInternal, err)
	}

	loc, err := terminal.Location()
	if err != nil {
		uc.logger.Error("CreateBooking: bad timezone %q for terminal id=%d: %v", terminal.Timezone, terminal.ID, err)
		return nil, fmt.Errorf("%w: bad terminal timezone: %v", ErrInternal, err)
	}

	slotStart, err := req.TimeStart.At(req.Date, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	slotEnd, err := req.TimeEnd.At(req.Date, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	// 3. Окно бронирования против политики терминала
	if err := validateBookingWindow(slotStart, now, terminal, loc); err != nil {
		uc.logger.Warn("CreateBooking: booking window validation failed: %v", err)
		return nil, err
	}

	if len(req.ContainerIDs) > terminal.MaxContainersPerBooking {
		uc.logger.Warn("CreateBooking: %d containers exceed terminal limit %d",
			len(req.ContainerIDs), terminal.MaxContainersPerBooking)
		return nil, fmt.Errorf("%w: at most %d containers per booking", ErrTooManyContainers, terminal.MaxContainersPerBooking)
	}

	// 4. Грузовик принадлежит перевозчику
	truck, err := uc.fleetRepo.GetTruck(ctx, req.TruckID)
	if err != nil {
		if errors.Is(err, fleetRepo.ErrTruckNotFound) {
			uc.logger.Warn("CreateBooking: truck id=%d not found", req.TruckID)
			return nil, ErrTruckNotFound
		}
		uc.logger.Error("CreateBooking: failed to get truck id=%d: %v", req.TruckID, err)
		return nil, fmt.Errorf("%w: failed to get truck: %v", ErrInternal, err)
	}
	if truck.CarrierID != req.CarrierID {
		uc.logger.Warn("CreateBooking: truck id=%d is not owned by carrier id=%d", req.TruckID, req.CarrierID)
		return nil, ErrTruckNotOwned
	}

	// 5. Контейнеры принадлежат перевозчику и свободны
	// Предварительная проверка до транзакции; авторитетная - условный UPDATE внутри нее
	containers, err := uc.fleetRepo.GetContainersByIDs(ctx, req.ContainerIDs)
	if err != nil {
		if errors.Is(err, fleetRepo.ErrContainerNotFound) {
			uc.logger.Warn("CreateBooking: some containers not found: %v", req.ContainerIDs)
			return nil, ErrContainerNotFound
		}
		uc.logger.Error("CreateBooking: failed to get containers: %v", err)
		return nil, fmt.Errorf("%w: failed to get containers: %v", ErrInternal, err)
	}
	for _, c := range containers {
		if c.CarrierID != req.CarrierID {
			uc.logger.Warn("CreateBooking: container id=%d is not owned by carrier id=%d", c.ID, req.CarrierID)
			return nil, ErrContainerNotOwned
		}
		if c.IsBooked {
			uc.logger.Warn("CreateBooking: container id=%d is already booked", c.ID)
			return nil, ErrContainerBooked
		}
	}

	// 6. Подбор ворот: расписание содержит запрошенное окно, ворота допускают грузовик
	candidates, err := uc.resolveCandidateGates(ctx, req, truck)
	if err != nil {
		return nil, err
	}

	// 7. Резерв емкости + создание брони + пометка контейнеров + авто-валидация
	// в одной сериализуемой транзакции
	var result *domain.Booking
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		reserved, gate, err := uc.reserveFirstAvailable(txCtx, req, candidates)
		if err != nil {
			return err
		}

		if err := uc.fleetRepo.MarkContainersBooked(txCtx, req.ContainerIDs, req.CarrierID); err != nil {
			if errors.Is(err, fleetRepo.ErrContainerConflict) {
				uc.logger.Warn("CreateBooking: container conflict for carrier id=%d: %v", req.CarrierID, err)
				return ErrContainerBooked
			}
			uc.logger.Error("CreateBooking: failed to mark containers booked: %v", err)
			return fmt.Errorf("%w: failed to mark containers: %v", ErrInternal, err)
		}

		booking := &domain.Booking{
			CarrierID:    req.CarrierID,
			TerminalID:   req.TerminalID,
			GateID:       gate.ID,
			SlotID:       reserved.ID,
			TruckID:      req.TruckID,
			ContainerIDs: req.ContainerIDs,
			BookingDate:  req.Date,
			TimeStart:    req.TimeStart,
			TimeEnd:      req.TimeEnd,
			SlotStartAt:  slotStart,
			SlotEndAt:    slotEnd,
			Status:       domain.StatusPending,
			DriverName:   req.DriverName,
			DriverPhone:  req.DriverPhone,
		}

		// Авто-валидация: fast-forward pending -> confirmed в той же транзакции
		if domain.AutoApprove(reserved.Capacity, reserved.ReservedCount, terminal.AutoValidationThresholdPct) {
			decidedAt := now
			noShowDeadline := slotEnd.Add(time.Duration(terminal.NoShowGraceMinutes) * time.Minute)
			booking.Status = domain.StatusConfirmed
			booking.DecidedAt = &decidedAt
			booking.ExpiresAt = &noShowDeadline
			uc.logger.Info("CreateBooking: auto-approved, utilization %d/%d below %d%%",
				reserved.ReservedCount, reserved.Capacity, terminal.AutoValidationThresholdPct)
		} else {
			// Для pending дедлайн - начало слота: не подтвержденная к началу
			// бронь истекает
			booking.ExpiresAt = &slotStart
			uc.logger.Info("CreateBooking: utilization %d/%d at or above %d%%, pending operator review",
				reserved.ReservedCount, reserved.Capacity, terminal.AutoValidationThresholdPct)
		}

		created, err := uc.createWithUniqueReference(txCtx, booking)
		if err != nil {
			return err
		}

		result = created
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrSlotFull) && uc.metrics != nil {
			uc.metrics.BookingsSlotFullTotal.WithLabelValues(strconv.FormatInt(req.TerminalID, 10)).Inc()
		}
		if errors.Is(err, txmanager.ErrSerializationConflict) {
			uc.logger.Warn("CreateBooking: serialization retries exhausted: %v", err)
			return nil, fmt.Errorf("%w: %v", ErrContention, err)
		}
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.BookingsCreatedTotal.WithLabelValues(string(result.Status)).Inc()
	}

	uc.notifier.Send(ctx, notify.EventBookingCreated, notify.Payload{
		BookingID:   result.ID,
		Reference:   result.Reference,
		CarrierID:   result.CarrierID,
		TerminalID:  result.TerminalID,
		Status:      string(result.Status),
		SlotStartAt: result.SlotStartAt,
		SlotEndAt:   result.SlotEndAt,
	})

	return result, nil
}

// resolveCandidateGates возвращает ворота, чье расписание содержит запрошенное
// окно и чьи allowed-списки допускают грузовик
func (uc *UseCase) resolveCandidateGates(ctx context.Context, req *Request, truck *domain.Truck) ([]gateCandidate, error) {
	schedules, err := uc.terminalRepo.ListSchedules(ctx, req.TerminalID, req.Date.Weekday())
	if err != nil {
		uc.logger.Error("CreateBooking: failed to list schedules: %v", err)
		return nil, fmt.Errorf("%w: failed to list schedules: %v", ErrInternal, err)
	}
	if len(schedules) == 0 {
		uc.logger.Warn("CreateBooking: terminal id=%d has no schedule on %s",
			req.TerminalID, req.Date.Format(domain.DateFormat))
		return nil, ErrTerminalClosed
	}

	gates, err := uc.terminalRepo.ListGates(ctx, req.TerminalID)
	if err != nil {
		uc.logger.Error("CreateBooking: failed to list gates: %v", err)
		return nil, fmt.Errorf("%w: failed to list gates: %v", ErrInternal, err)
	}
	gateByID := make(map[int64]*domain.Gate, len(gates))
	for _, g := range gates {
		gateByID[g.ID] = g
	}

	var candidates []gateCandidate
	windowMatched := false
	for _, s := range schedules {
		if !scheduleMatchesWindow(s, req.TimeStart, req.TimeEnd) {
			continue
		}
		windowMatched = true

		gate, ok := gateByID[s.GateID]
		if !ok || !gate.AllowsTruck(truck) {
			continue
		}
		candidates = append(candidates, gateCandidate{gate: gate, schedule: s})
	}

	if !windowMatched {
		uc.logger.Warn("CreateBooking: window %s-%s does not match the slot grid of terminal id=%d",
			req.TimeStart, req.TimeEnd, req.TerminalID)
		return nil, ErrInvalidTimeSlot
	}
	if len(candidates) == 0 {
		uc.logger.Warn("CreateBooking: truck id=%d (type=%s class=%s) is not allowed at any matching gate",
			truck.ID, truck.Type, truck.Class)
		return nil, ErrTruckNotAllowed
	}

	return candidates, nil
}

type gateCandidate struct {
	gate     *domain.Gate
	schedule *domain.GateSchedule
}

// reserveFirstAvailable пробует зарезервировать емкость у подходящих ворот
// по очереди; бронь получает первые ворота со свободной емкостью
func (uc *UseCase) reserveFirstAvailable(ctx context.Context, req *Request, candidates []gateCandidate) (*domain.TimeSlot, *domain.Gate, error) {
	for _, cand := range candidates {
		materialized, err := uc.slotRepo.Ensure(ctx, &domain.TimeSlot{
			TerminalID: req.TerminalID,
			GateID:     cand.gate.ID,
			SlotDate:   req.Date,
			StartTime:  req.TimeStart,
			EndTime:    req.TimeEnd,
			Capacity:   cand.schedule.Capacity,
		})
		if err != nil {
			// Конфликт сериализации отдаем как есть - менеджер транзакций
			// повторит всю транзакцию
			if errors.Is(err, txmanager.ErrSerializationFailure) {
				return nil, nil, err
			}
			uc.logger.Error("CreateBooking: failed to materialize slot gate=%d: %v", cand.gate.ID, err)
			return nil, nil, fmt.Errorf("%w: failed to materialize slot: %v", ErrInternal, err)
		}

		reserved, err := uc.slotRepo.Reserve(ctx, materialized.ID, 1)
		if err != nil {
			if errors.Is(err, slotRepo.ErrSlotFull) {
				uc.logger.Info("CreateBooking: slot id=%d at gate=%d is full, trying next gate",
					materialized.ID, cand.gate.ID)
				continue
			}
			if errors.Is(err, txmanager.ErrSerializationFailure) {
				return nil, nil, err
			}
			uc.logger.Error("CreateBooking: failed to reserve slot id=%d: %v", materialized.ID, err)
			return nil, nil, fmt.Errorf("%w: failed to reserve slot: %v", ErrInternal, err)
		}

		return reserved, cand.gate, nil
	}

	uc.logger.Warn("CreateBooking: all matching gates are full for terminal=%d date=%s window=%s-%s",
		req.TerminalID, req.Date.Format(domain.DateFormat), req.TimeStart, req.TimeEnd)
	return nil, nil, ErrSlotFull
}

// createWithUniqueReference создает бронь, перегенерируя reference при
// коллизии уникального индекса
func (uc *UseCase) createWithUniqueReference(ctx context.Context, b *domain.Booking) (*domain.Booking, error) {
	for attempt := 0; attempt < maxReferenceAttempts; attempt++ {
		b.Reference = domain.NewBookingReference(b.BookingDate)

		created, err := uc.bookingRepo.Create(ctx, b)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, bookingRepo.ErrDuplicateReference) {
			uc.logger.Error("CreateBooking: failed to create booking: %v", err)
			return nil, fmt.Errorf("%w: failed to create booking: %v", ErrInternal, err)
		}
		uc.logger.Warn("CreateBooking: reference collision %s, regenerating", b.Reference)
	}
	return nil, fmt.Errorf("%w: could not generate unique reference in %d attempts", ErrInternal, maxReferenceAttempts)
}

func (uc *UseCase) audit(req *Request, result *domain.Booking, opErr error) {
	entry := auditservice.Entry{
		ActorID:  req.CarrierID,
		Action:   "booking.create",
		Resource: "booking",
		Result:   auditservice.ResultOK,
	}
	if result != nil {
		entry.ResourceID = strconv.FormatInt(result.ID, 10)
		entry.Detail = result.Reference
	}
	if opErr != nil {
		entry.Result = auditservice.ResultError
		entry.Detail = opErr.Error()
	}
	uc.auditor.LogAsync(entry)
}
