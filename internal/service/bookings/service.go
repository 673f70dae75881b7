package bookings

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/portops/PGC-BookingService/internal/domain"
	"github.com/portops/PGC-BookingService/internal/infra/notify"
	bookingRepo "github.com/portops/PGC-BookingService/internal/infra/storage/booking"
	terminalRepo "github.com/portops/PGC-BookingService/internal/infra/storage/terminalcfg"
	"github.com/portops/PGC-BookingService/internal/integrations/auditservice"
	"github.com/portops/PGC-BookingService/internal/integrations/identityservice"
)

// Service операции над существующими бронированиями: чтение, решение
// оператора, отмена и отметка фактического проезда
//
// Переходы статусов выполняются CAS-обновлением: конкурирующая операция
// видит конфликт, а не перезаписывает чужой переход
type Service struct {
	bookingRepo  BookingRepository
	slotRepo     SlotRepository
	fleetRepo    FleetRepository
	terminalRepo TerminalRepository
	identity     IdentityClient
	txManager    TransactionManager
	notifier     Notifier
	auditor      Auditor
	timeProvider TimeProvider
	logger       Logger
}

// NewService создает новый сервис бронирований
func NewService(
	bookingRepo BookingRepository,
	slotRepo SlotRepository,
	fleetRepo FleetRepository,
	terminalRepo TerminalRepository,
	identity IdentityClient,
	txManager TransactionManager,
	notifier Notifier,
	auditor Auditor,
	logger Logger,
) *Service {
	return &Service{
		bookingRepo:  bookingRepo,
		slotRepo:     slotRepo,
		fleetRepo:    fleetRepo,
		terminalRepo: terminalRepo,
		identity:     identity,
		txManager:    txManager,
		notifier:     notifier,
		auditor:      auditor,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// WithTimeProvider подменяет провайдер времени (для тестов)
func (s *Service) WithTimeProvider(tp TimeProvider) *Service {
	s.timeProvider = tp
	return s
}

// GetByID возвращает бронь по id с проверкой доступа вызывающего
func (s *Service) GetByID(ctx context.Context, callerID, bookingID int64) (*domain.Booking, error) {
	booking, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeRead(ctx, callerID, booking); err != nil {
		return nil, err
	}
	return booking, nil
}

// GetByReference возвращает бронь по человекочитаемому номеру
func (s *Service) GetByReference(ctx context.Context, callerID int64, reference string) (*domain.Booking, error) {
	if reference == "" {
		return nil, fmt.Errorf("%w: reference is required", ErrInvalidInput)
	}

	booking, err := s.bookingRepo.GetByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			return nil, ErrBookingNotFound
		}
		s.logger.Error("Bookings.GetByReference: failed to get booking %s: %v", reference, err)
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if err := s.authorizeRead(ctx, callerID, booking); err != nil {
		return nil, err
	}
	return booking, nil
}

// List возвращает бронирования по фильтру
// Перевозчик видит только свои брони, оператор - брони своих терминалов
func (s *Service) List(ctx context.Context, callerID int64, req *ListRequest) ([]*domain.Booking, error) {
	if req.CarrierID == nil && req.TerminalID == nil {
		return nil, ErrInvalidFilter
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return nil, fmt.Errorf("%w: endDate is before startDate", ErrInvalidInput)
	}

	profile, err := s.getProfile(ctx, callerID)
	if err != nil {
		return nil, err
	}

	switch profile.Role {
	case identityservice.RoleCarrier:
		if req.CarrierID == nil || *req.CarrierID != profile.ID {
			s.logger.Warn("Bookings.List: carrier id=%d tried to list bookings of carrier=%v", callerID, req.CarrierID)
			return nil, ErrAccessDenied
		}
	case identityservice.RoleOperator, identityservice.RoleAdmin:
		if req.TerminalID != nil && !profile.IsOperatorOf(*req.TerminalID) {
			s.logger.Warn("Bookings.List: operator id=%d has no access to terminal=%d", callerID, *req.TerminalID)
			return nil, ErrAccessDenied
		}
		if req.TerminalID == nil && profile.Role != identityservice.RoleAdmin {
			return nil, fmt.Errorf("%w: operators must filter by terminalId", ErrInvalidFilter)
		}
	default:
		return nil, ErrAccessDenied
	}

	list, err := s.bookingRepo.ListWithFilter(ctx, domain.BookingsFilter{
		CarrierID:  req.CarrierID,
		TerminalID: req.TerminalID,
		Status:     req.Status,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
	})
	if err != nil {
		s.logger.Error("Bookings.List: failed to list bookings: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return list, nil
}

// Decide применяет решение оператора к pending-брони
// confirm переводит бронь в confirmed и назначает no-show дедлайн;
// reject возвращает емкость слота и освобождает контейнеры
func (s *Service) Decide(ctx context.Context, operatorID int64, req *DecideRequest) (*domain.Booking, error) {
	if !req.Decision.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDecision, req.Decision)
	}

	booking, err := s.loadBooking(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}

	if err := s.authorizeOperator(ctx, operatorID, booking.TerminalID); err != nil {
		s.auditDecision(operatorID, booking, req, err)
		return nil, err
	}

	if !booking.CanBeDecided() {
		s.logger.Warn("Bookings.Decide: booking id=%d is %s, not pending", booking.ID, booking.Status)
		err := fmt.Errorf("%w: booking is %s", ErrAlreadyDecided, booking.Status)
		s.auditDecision(operatorID, booking, req, err)
		return nil, err
	}

	switch req.Decision {
	case domain.DecisionConfirm:
		err = s.confirm(ctx, booking)
	case domain.DecisionReject:
		err = s.reject(ctx, booking)
	}
	s.auditDecision(operatorID, booking, req, err)
	if err != nil {
		return nil, err
	}

	updated, err := s.loadBooking(ctx, booking.ID)
	if err != nil {
		return nil, err
	}

	event := notify.EventBookingConfirmed
	if req.Decision == domain.DecisionReject {
		event = notify.EventBookingRejected
	}
	s.notifier.Send(ctx, event, payloadFor(updated))

	s.logger.Info("Bookings.Decide: booking id=%d reference=%s -> %s by operator id=%d",
		updated.ID, updated.Reference, updated.Status, operatorID)
	return updated, nil
}

// Cancel отменяет активную бронь, возвращая емкость слота и контейнеры
// Доступно владельцу-перевозчику и оператору терминала
func (s *Service) Cancel(ctx context.Context, callerID, bookingID int64) (*domain.Booking, error) {
	booking, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	profile, err := s.getProfile(ctx, callerID)
	if err != nil {
		return nil, err
	}
	isOwner := profile.Role == identityservice.RoleCarrier && booking.CarrierID == profile.ID
	if !isOwner && !profile.IsOperatorOf(booking.TerminalID) {
		s.logger.Warn("Bookings.Cancel: caller id=%d has no access to booking id=%d", callerID, bookingID)
		return nil, ErrAccessDenied
	}

	if !booking.CanBeCancelled() {
		s.logger.Warn("Bookings.Cancel: booking id=%d is %s, can not be cancelled", booking.ID, booking.Status)
		return nil, fmt.Errorf("%w: booking is %s", ErrNotCancellable, booking.Status)
	}

	err = s.txManager.Do(ctx, func(txCtx context.Context) error {
		if err := s.transition(txCtx, booking.ID, booking.Status, domain.StatusCancelled); err != nil {
			return err
		}
		return s.releaseResources(txCtx, booking)
	})
	s.audit(callerID, "booking.cancel", booking, "", err)
	if err != nil {
		return nil, err
	}

	updated, err := s.loadBooking(ctx, booking.ID)
	if err != nil {
		return nil, err
	}
	s.notifier.Send(ctx, notify.EventBookingCancelled, payloadFor(updated))

	s.logger.Info("Bookings.Cancel: booking id=%d reference=%s cancelled by caller id=%d",
		updated.ID, updated.Reference, callerID)
	return updated, nil
}

// Consume отмечает фактический проезд грузовика через ворота
// Емкость слота остается занятой, контейнеры остаются за бронью
func (s *Service) Consume(ctx context.Context, operatorID int64, req *ConsumeRequest) (*domain.Booking, error) {
	booking, err := s.loadBooking(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}

	if err := s.authorizeOperator(ctx, operatorID, booking.TerminalID); err != nil {
		s.audit(operatorID, "booking.consume", booking, req.ScanContext, err)
		return nil, err
	}

	if !booking.CanBeConsumed() {
		s.logger.Warn("Bookings.Consume: booking id=%d is %s, not confirmed", booking.ID, booking.Status)
		err := fmt.Errorf("%w: booking is %s", ErrNotConsumable, booking.Status)
		s.audit(operatorID, "booking.consume", booking, req.ScanContext, err)
		return nil, err
	}

	now := s.timeProvider.Now()
	windowStart := booking.SlotStartAt.Add(-time.Duration(domain.ArrivalGraceBeforeMinutes) * time.Minute)
	windowEnd := booking.SlotEndAt
	if booking.ExpiresAt != nil {
		windowEnd = *booking.ExpiresAt
	}
	if now.Before(windowStart) || now.After(windowEnd) {
		s.logger.Warn("Bookings.Consume: booking id=%d arrival at %s is outside [%s, %s]",
			booking.ID, now.Format(time.RFC3339), windowStart.Format(time.RFC3339), windowEnd.Format(time.RFC3339))
		err := fmt.Errorf("%w: arrival window is [%s, %s]",
			ErrOutsideArrivalWindow, windowStart.Format(time.RFC3339), windowEnd.Format(time.RFC3339))
		s.audit(operatorID, "booking.consume", booking, req.ScanContext, err)
		return nil, err
	}

	err = s.transition(ctx, booking.ID, domain.StatusConfirmed, domain.StatusConsumed)
	s.audit(operatorID, "booking.consume", booking, req.ScanContext, err)
	if err != nil {
		return nil, err
	}

	updated, err := s.loadBooking(ctx, booking.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Bookings.Consume: booking id=%d reference=%s consumed at gate id=%d",
		updated.ID, updated.Reference, updated.GateID)
	return updated, nil
}

func (s *Service) confirm(ctx context.Context, booking *domain.Booking) error {
	terminal, err := s.terminalRepo.GetTerminal(ctx, booking.TerminalID)
	if err != nil {
		if errors.Is(err, terminalRepo.ErrTerminalNotFound) {
			s.logger.Error("Bookings.Decide: terminal id=%d of booking id=%d not found", booking.TerminalID, booking.ID)
			return fmt.Errorf("%w: terminal id=%d not found", ErrInternal, booking.TerminalID)
		}
		s.logger.Error("Bookings.Decide: failed to get terminal id=%d: %v", booking.TerminalID, err)
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}

	noShowDeadline := booking.SlotEndAt.Add(time.Duration(terminal.NoShowGraceMinutes) * time.Minute)
	if err := s.bookingRepo.ConfirmWithDeadline(ctx, booking.ID, noShowDeadline); err != nil {
		return s.mapTransitionError(err, booking.ID)
	}
	return nil
}

func (s *Service) reject(ctx context.Context, booking *domain.Booking) error {
	return s.txManager.Do(ctx, func(txCtx context.Context) error {
		if err := s.transition(txCtx, booking.ID, domain.StatusPending, domain.StatusRejected); err != nil {
			return err
		}
		return s.releaseResources(txCtx, booking)
	})
}

// releaseResources возвращает емкость слота и освобождает контейнеры
// Вызывается внутри транзакции перехода статуса
func (s *Service) releaseResources(ctx context.Context, booking *domain.Booking) error {
	if _, err := s.slotRepo.Release(ctx, booking.SlotID, 1); err != nil {
		s.logger.Error("Bookings: failed to release slot id=%d of booking id=%d: %v",
			booking.SlotID, booking.ID, err)
		return fmt.Errorf("%w: failed to release slot: %v", ErrInternal, err)
	}
	if _, err := s.fleetRepo.ReleaseContainers(ctx, booking.ContainerIDs); err != nil {
		s.logger.Error("Bookings: failed to release containers of booking id=%d: %v", booking.ID, err)
		return fmt.Errorf("%w: failed to release containers: %v", ErrInternal, err)
	}
	return nil
}

func (s *Service) transition(ctx context.Context, id int64, from, to domain.BookingStatus) error {
	if err := s.bookingRepo.Transition(ctx, id, from, to); err != nil {
		return s.mapTransitionError(err, id)
	}
	return nil
}

func (s *Service) mapTransitionError(err error, bookingID int64) error {
	switch {
	case errors.Is(err, bookingRepo.ErrBookingNotFound):
		return ErrBookingNotFound
	case errors.Is(err, bookingRepo.ErrStatusConflict):
		s.logger.Warn("Bookings: concurrent status change on booking id=%d", bookingID)
		return ErrStatusConflict
	default:
		s.logger.Error("Bookings: failed to transition booking id=%d: %v", bookingID, err)
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
}

func (s *Service) loadBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: bookingId must be positive", ErrInvalidInput)
	}

	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			return nil, ErrBookingNotFound
		}
		s.logger.Error("Bookings: failed to get booking id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return booking, nil
}

func (s *Service) getProfile(ctx context.Context, callerID int64) (*identityservice.Profile, error) {
	profile, err := s.identity.GetProfile(ctx, callerID)
	if err != nil {
		if errors.Is(err, identityservice.ErrProfileNotFound) {
			return nil, ErrAccessDenied
		}
		s.logger.Error("Bookings: failed to get profile id=%d: %v", callerID, err)
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return profile, nil
}

func (s *Service) authorizeRead(ctx context.Context, callerID int64, booking *domain.Booking) error {
	profile, err := s.getProfile(ctx, callerID)
	if err != nil {
		return err
	}
	if profile.Role == identityservice.RoleCarrier && booking.CarrierID == profile.ID {
		return nil
	}
	if profile.IsOperatorOf(booking.TerminalID) {
		return nil
	}
	s.logger.Warn("Bookings: caller id=%d has no access to booking id=%d", callerID, booking.ID)
	return ErrAccessDenied
}

func (s *Service) authorizeOperator(ctx context.Context, operatorID, terminalID int64) error {
	profile, err := s.getProfile(ctx, operatorID)
	if err != nil {
		return err
	}
	if !profile.IsOperatorOf(terminalID) {
		s.logger.Warn("Bookings: caller id=%d is not an operator of terminal id=%d", operatorID, terminalID)
		return ErrAccessDenied
	}
	return nil
}

func (s *Service) auditDecision(operatorID int64, booking *domain.Booking, req *DecideRequest, opErr error) {
	detail := string(req.Decision)
	if req.Comment != "" {
		detail += ": " + req.Comment
	}
	s.audit(operatorID, "booking.decide", booking, detail, opErr)
}

func (s *Service) audit(actorID int64, action string, booking *domain.Booking, detail string, opErr error) {
	entry := auditservice.Entry{
		ActorID:    actorID,
		Action:     action,
		Resource:   "booking",
		ResourceID: strconv.FormatInt(booking.ID, 10),
		Result:     auditservice.ResultOK,
		Detail:     detail,
	}
	switch {
	case errors.Is(opErr, ErrAccessDenied):
		entry.Result = auditservice.ResultDenied
	case opErr != nil:
		entry.Result = auditservice.ResultError
		entry.Detail = opErr.Error()
	}
	s.auditor.LogAsync(entry)
}

func payloadFor(b *domain.Booking) notify.Payload {
	return notify.Payload{
		BookingID:   b.ID,
		Reference:   b.Reference,
		CarrierID:   b.CarrierID,
		TerminalID:  b.TerminalID,
		Status:      string(b.Status),
		SlotStartAt: b.SlotStartAt,
		SlotEndAt:   b.SlotEndAt,
	}
}
