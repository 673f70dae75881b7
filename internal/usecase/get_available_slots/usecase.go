package get_available_slots

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/portops/PGC-BookingService/internal/domain"
	terminalRepo "github.com/portops/PGC-BookingService/internal/infra/storage/terminalcfg"
	"github.com/portops/PGC-BookingService/pkg/types"
)

// UseCase use case каталога доступных слотов
//
// Слоты генерируются из недельного шаблона ворот и сливаются с
// материализованными строками леджера: слот без строки в БД еще никем
// не бронировался и показывается с полной емкостью
type UseCase struct {
	slotRepo     SlotRepository
	terminalRepo TerminalRepository
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(slotRepo SlotRepository, terminalRepo TerminalRepository, logger Logger) *UseCase {
	return &UseCase{
		slotRepo:     slotRepo,
		terminalRepo: terminalRepo,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// WithTimeProvider подменяет провайдер времени (для тестов)
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// Execute возвращает доступные слоты терминала на указанную дату
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GetAvailableSlots: validation failed: %v", err)
		return nil, err
	}

	terminal, err := uc.terminalRepo.GetTerminal(ctx, req.TerminalID)
	if err != nil {
		if errors.Is(err, terminalRepo.ErrTerminalNotFound) {
			uc.logger.Warn("GetAvailableSlots: terminal id=%d not found", req.TerminalID)
			return nil, ErrTerminalNotFound
		}
		uc.logger.Error("GetAvailableSlots: failed to get terminal id=%d: %v", req.TerminalID, err)
		return nil, fmt.Errorf("%w: failed to get terminal: %v", ErrInternal, err)
	}

	loc, err := terminal.Location()
	if err != nil {
		uc.logger.Error("GetAvailableSlots: bad timezone %q for terminal id=%d: %v", terminal.Timezone, terminal.ID, err)
		return nil, fmt.Errorf("%w: bad terminal timezone: %v", ErrInternal, err)
	}

	now := uc.timeProvider.Now().In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	lastDay := today.AddDate(0, 0, terminal.MaxAdvanceBookingDays)
	reqDay := time.Date(req.Date.Year(), req.Date.Month(), req.Date.Day(), 0, 0, 0, 0, loc)
	if reqDay.Before(today) || reqDay.After(lastDay) {
		uc.logger.Warn("GetAvailableSlots: date %s is outside [today, today+%dd] for terminal id=%d",
			reqDay.Format(domain.DateFormat), terminal.MaxAdvanceBookingDays, terminal.ID)
		return nil, ErrInvalidDate
	}

	schedules, err := uc.terminalRepo.ListSchedules(ctx, req.TerminalID, reqDay.Weekday())
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to list schedules: %v", err)
		return nil, fmt.Errorf("%w: failed to list schedules: %v", ErrInternal, err)
	}

	if req.GateID != nil {
		schedules, err = uc.filterByGate(ctx, req, schedules)
		if err != nil {
			return nil, err
		}
	}

	// Бронирования не раньше чем за MinAdvanceBookingHours до начала слота
	cutoff := now.Add(time.Duration(terminal.MinAdvanceBookingHours) * time.Hour)

	reserved, err := uc.loadReservedCounts(ctx, req, reqDay)
	if err != nil {
		return nil, err
	}

	var slots []*domain.AvailableSlot
	for _, s := range schedules {
		generated, err := uc.generateFromTemplate(s, reqDay, loc, cutoff, reserved)
		if err != nil {
			return nil, err
		}
		slots = append(slots, generated...)
	}

	sort.Slice(slots, func(i, j int) bool {
		if slots[i].StartTime != slots[j].StartTime {
			return slots[i].StartTime.IsBefore(slots[j].StartTime)
		}
		return slots[i].GateID < slots[j].GateID
	})

	uc.logger.Info("GetAvailableSlots: terminal=%d date=%s: %d slots available",
		req.TerminalID, reqDay.Format(domain.DateFormat), len(slots))

	return &Response{
		TerminalID: req.TerminalID,
		Date:       reqDay,
		Slots:      slots,
	}, nil
}

func validateRequest(req *Request) error {
	if req.TerminalID <= 0 {
		return fmt.Errorf("%w: terminalId must be positive", ErrInvalidInput)
	}
	if req.GateID != nil && *req.GateID <= 0 {
		return fmt.Errorf("%w: gateId must be positive", ErrInvalidInput)
	}
	if req.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	return nil
}

func (uc *UseCase) filterByGate(ctx context.Context, req *Request, schedules []*domain.GateSchedule) ([]*domain.GateSchedule, error) {
	gates, err := uc.terminalRepo.ListGates(ctx, req.TerminalID)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to list gates: %v", err)
		return nil, fmt.Errorf("%w: failed to list gates: %v", ErrInternal, err)
	}
	found := false
	for _, g := range gates {
		if g.ID == *req.GateID {
			found = true
			break
		}
	}
	if !found {
		uc.logger.Warn("GetAvailableSlots: gate id=%d not found at terminal id=%d", *req.GateID, req.TerminalID)
		return nil, ErrGateNotFound
	}

	filtered := schedules[:0]
	for _, s := range schedules {
		if s.GateID == *req.GateID {
			filtered = append(filtered, s)
		}
	}
	return filtered, nil
}

// loadReservedCounts возвращает занятость материализованных слотов по ключу
// (gateId, startTime)
func (uc *UseCase) loadReservedCounts(ctx context.Context, req *Request, date time.Time) (map[string]*domain.TimeSlot, error) {
	materialized, err := uc.slotRepo.ListByDate(ctx, req.TerminalID, req.GateID, date)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to list materialized slots: %v", err)
		return nil, fmt.Errorf("%w: failed to list slots: %v", ErrInternal, err)
	}

	byKey := make(map[string]*domain.TimeSlot, len(materialized))
	for _, s := range materialized {
		byKey[slotKey(s.GateID, s.StartTime)] = s
	}
	return byKey, nil
}

func (uc *UseCase) generateFromTemplate(
	s *domain.GateSchedule,
	date time.Time,
	loc *time.Location,
	cutoff time.Time,
	reserved map[string]*domain.TimeSlot,
) ([]*domain.AvailableSlot, error) {
	if s.SlotDurationMinutes <= 0 {
		uc.logger.Error("GetAvailableSlots: gate id=%d has non-positive slot duration %d",
			s.GateID, s.SlotDurationMinutes)
		return nil, fmt.Errorf("%w: bad schedule for gate id=%d", ErrInternal, s.GateID)
	}

	var out []*domain.AvailableSlot
	for start := s.OpenTime; start.IsBefore(s.CloseTime); {
		end, err := start.AddMinutes(s.SlotDurationMinutes)
		if err != nil || end.IsAfter(s.CloseTime) {
			break
		}

		startAt, err := start.At(date, loc)
		if err != nil {
			return nil, fmt.Errorf("%w: bad slot time %s: %v", ErrInternal, start, err)
		}
		if !startAt.Before(cutoff) {
			capacity := s.Capacity
			reservedCount := 0
			var slotID int64
			if row, ok := reserved[slotKey(s.GateID, start)]; ok {
				slotID = row.ID
				capacity = row.Capacity
				reservedCount = row.ReservedCount
			}

			available := capacity - reservedCount
			if available < 0 {
				uc.logger.Error("GetAvailableSlots: ledger invariant broken for gate=%d start=%s: capacity=%d reserved=%d",
					s.GateID, start, capacity, reservedCount)
				return nil, fmt.Errorf("%w: %v", ErrInternal, domain.ErrLedgerInvariant)
			}
			if available > 0 {
				out = append(out, &domain.AvailableSlot{
					SlotID:            slotID,
					GateID:            s.GateID,
					StartTime:         start,
					EndTime:           end,
					AvailableCapacity: available,
					TotalCapacity:     capacity,
				})
			}
		}

		start = end
	}
	return out, nil
}

func slotKey(gateID int64, start types.TimeString) string {
	return fmt.Sprintf("%d/%s", gateID, start)
}
