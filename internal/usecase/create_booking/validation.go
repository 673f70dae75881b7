package create_booking

import (
	"fmt"
	"time"

	"github.com/portops/PGC-BookingService/internal/domain"
	"github.com/portops/PGC-BookingService/pkg/types"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.CarrierID <= 0 {
		return fmt.Errorf("%w: carrierID must be positive", ErrInvalidInput)
	}

	if req.TerminalID <= 0 {
		return fmt.Errorf("%w: terminalID must be positive", ErrInvalidInput)
	}

	if req.TruckID <= 0 {
		return fmt.Errorf("%w: truckID must be positive", ErrInvalidInput)
	}

	if len(req.ContainerIDs) == 0 {
		return fmt.Errorf("%w: containerIDs must not be empty", ErrInvalidInput)
	}

	seen := make(map[int64]struct{}, len(req.ContainerIDs))
	for _, id := range req.ContainerIDs {
		if id <= 0 {
			return fmt.Errorf("%w: containerID must be positive", ErrInvalidInput)
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("%w: duplicate containerID %d", ErrInvalidInput, id)
		}
		seen[id] = struct{}{}
	}

	if req.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	if req.TimeStart.IsZero() || req.TimeEnd.IsZero() {
		return fmt.Errorf("%w: timeStart and timeEnd are required", ErrInvalidInput)
	}

	if err := req.TimeStart.Validate(); err != nil {
		return fmt.Errorf("%w: invalid timeStart format: %v", ErrInvalidInput, err)
	}

	if err := req.TimeEnd.Validate(); err != nil {
		return fmt.Errorf("%w: invalid timeEnd format: %v", ErrInvalidInput, err)
	}

	if !req.TimeStart.IsBefore(req.TimeEnd) {
		return fmt.Errorf("%w: timeEnd must be after timeStart", ErrInvalidInput)
	}

	if req.DriverName != nil && len(*req.DriverName) > domain.MaxDriverNameLength {
		return fmt.Errorf("%w: driverName is too long", ErrInvalidInput)
	}

	if req.DriverPhone != nil && len(*req.DriverPhone) > domain.MaxDriverPhoneLength {
		return fmt.Errorf("%w: driverPhone is too long", ErrInvalidInput)
	}

	return nil
}

// validateBookingWindow проверяет дату и время слота против политики терминала:
// начало слота не раньше now + minAdvanceBookingHours и дата не дальше
// now + maxAdvanceBookingDays
func validateBookingWindow(slotStart time.Time, now time.Time, cfg *domain.TerminalConfig, loc *time.Location) error {
	nowLocal := now.In(loc)

	if slotStart.Before(nowLocal) {
		return ErrInvalidDate
	}

	minStart := nowLocal.Add(time.Duration(cfg.MinAdvanceBookingHours) * time.Hour)
	if slotStart.Before(minStart) {
		return fmt.Errorf("%w: must book at least %d hours in advance", ErrTooLateToBook, cfg.MinAdvanceBookingHours)
	}

	maxDate := time.Date(nowLocal.Year(), nowLocal.Month(), nowLocal.Day(), 0, 0, 0, 0, loc).
		AddDate(0, 0, cfg.MaxAdvanceBookingDays)
	slotDateOnly := time.Date(slotStart.Year(), slotStart.Month(), slotStart.Day(), 0, 0, 0, 0, loc)

	if slotDateOnly.After(maxDate) {
		return fmt.Errorf("%w: can only book %d days in advance", ErrDateTooFarInFuture, cfg.MaxAdvanceBookingDays)
	}

	return nil
}

// scheduleMatchesWindow проверяет, что запрошенное окно совпадает со слотом
// сетки расписания: начало кратно шагу от открытия, конец ровно через шаг,
// и окно не выходит за время закрытия
func scheduleMatchesWindow(s *domain.GateSchedule, start, end types.TimeString) bool {
	openMin, err := s.OpenTime.Minutes()
	if err != nil {
		return false
	}
	closeMin, err := s.CloseTime.Minutes()
	if err != nil {
		return false
	}
	startMin, err := start.Minutes()
	if err != nil {
		return false
	}
	endMin, err := end.Minutes()
	if err != nil {
		return false
	}

	if s.SlotDurationMinutes <= 0 {
		return false
	}

	if startMin < openMin || endMin > closeMin {
		return false
	}
	if (startMin-openMin)%s.SlotDurationMinutes != 0 {
		return false
	}
	return endMin-startMin == s.SlotDurationMinutes
}
