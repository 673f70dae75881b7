package sweeper

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/portops/PGC-BookingService/internal/domain"
	"github.com/portops/PGC-BookingService/internal/infra/notify"
	bookingRepo "github.com/portops/PGC-BookingService/internal/infra/storage/booking"
	"github.com/portops/PGC-BookingService/pkg/metrics"
)

const (
	defaultInterval        = time.Minute
	defaultBatchLimit      = 100
	defaultReminderHorizon = 48 * time.Hour
)

// Config настройки фонового свипера
type Config struct {
	Interval        time.Duration
	BatchLimit      uint64
	ReminderHorizon time.Duration
}

// Sweeper фоновый процесс жизненного цикла бронирований: истечение
// неподтвержденных, no-show по подтвержденным и напоминания перевозчикам
//
// Каждая бронь обрабатывается в отдельной транзакции: сбой на одной не
// блокирует остальные, а CAS-переход делает проходы безопасными при
// конкуренции с пользовательскими операциями и вторым экземпляром сервиса
type Sweeper struct {
	bookingRepo  BookingRepository
	slotRepo     SlotRepository
	fleetRepo    FleetRepository
	terminalRepo TerminalRepository
	reminderRepo ReminderRepository
	txManager    TransactionManager
	notifier     Notifier
	timeProvider TimeProvider
	metrics      *metrics.Metrics
	logger       Logger

	interval        time.Duration
	batchLimit      uint64
	reminderHorizon time.Duration
}

// NewSweeper создает новый свипер
func NewSweeper(
	bookingRepo BookingRepository,
	slotRepo SlotRepository,
	fleetRepo FleetRepository,
	terminalRepo TerminalRepository,
	reminderRepo ReminderRepository,
	txManager TransactionManager,
	notifier Notifier,
	m *metrics.Metrics,
	logger Logger,
	cfg Config,
) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.BatchLimit == 0 {
		cfg.BatchLimit = defaultBatchLimit
	}
	if cfg.ReminderHorizon <= 0 {
		cfg.ReminderHorizon = defaultReminderHorizon
	}

	return &Sweeper{
		bookingRepo:     bookingRepo,
		slotRepo:        slotRepo,
		fleetRepo:       fleetRepo,
		terminalRepo:    terminalRepo,
		reminderRepo:    reminderRepo,
		txManager:       txManager,
		notifier:        notifier,
		timeProvider:    &RealTimeProvider{},
		metrics:         m,
		logger:          logger,
		interval:        cfg.Interval,
		batchLimit:      cfg.BatchLimit,
		reminderHorizon: cfg.ReminderHorizon,
	}
}

// WithTimeProvider подменяет провайдер времени (для тестов)
func (s *Sweeper) WithTimeProvider(tp TimeProvider) *Sweeper {
	s.timeProvider = tp
	return s
}

// Run запускает периодические проходы до закрытия stopCh
func (s *Sweeper) Run(ctx context.Context, stopCh <-chan struct{}) {
	s.logger.Info("Sweeper: started, interval=%s", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			s.logger.Info("Sweeper: stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Sweeper: context cancelled")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep выполняет один полный проход
func (s *Sweeper) Sweep(ctx context.Context) {
	s.sweepExpired(ctx)
	s.sweepNoShows(ctx)
	s.sweepReminders(ctx)
}

// sweepExpired истекает pending-брони, не подтвержденные к началу слота
// Емкость слота и контейнеры возвращаются
func (s *Sweeper) sweepExpired(ctx context.Context) {
	now := s.timeProvider.Now()

	due, err := s.bookingRepo.ListDue(ctx, domain.StatusPending, now, s.batchLimit)
	if err != nil {
		s.logger.Error("Sweeper: failed to list expired pending bookings: %v", err)
		return
	}

	for _, b := range due {
		err := s.txManager.Do(ctx, func(txCtx context.Context) error {
			if err := s.bookingRepo.Transition(txCtx, b.ID, domain.StatusPending, domain.StatusExpired); err != nil {
				return err
			}
			if _, err := s.slotRepo.Release(txCtx, b.SlotID, 1); err != nil {
				return err
			}
			_, err := s.fleetRepo.ReleaseContainers(txCtx, b.ContainerIDs)
			return err
		})
		if err != nil {
			// Конкурирующий переход (решение оператора, отмена) - не ошибка свипера
			if errors.Is(err, bookingRepo.ErrStatusConflict) {
				s.logger.Info("Sweeper: booking id=%d transitioned concurrently, skipping", b.ID)
				continue
			}
			s.logger.Error("Sweeper: failed to expire booking id=%d: %v", b.ID, err)
			continue
		}

		if s.metrics != nil {
			s.metrics.BookingsExpiredTotal.WithLabelValues(strconv.FormatInt(b.TerminalID, 10)).Inc()
		}
		s.notifier.Send(ctx, notify.EventBookingExpired, payloadFor(b))
		s.logger.Info("Sweeper: booking id=%d reference=%s expired", b.ID, b.Reference)
	}
}

// sweepNoShows помечает подтвержденные брони, по которым грузовик не приехал
// к no-show дедлайну. Слот уже прошел, его емкость не возвращается;
// контейнеры освобождаются для повторного бронирования
func (s *Sweeper) sweepNoShows(ctx context.Context) {
	now := s.timeProvider.Now()

	due, err := s.bookingRepo.ListDue(ctx, domain.StatusConfirmed, now, s.batchLimit)
	if err != nil {
		s.logger.Error("Sweeper: failed to list overdue confirmed bookings: %v", err)
		return
	}

	for _, b := range due {
		err := s.txManager.Do(ctx, func(txCtx context.Context) error {
			if err := s.bookingRepo.Transition(txCtx, b.ID, domain.StatusConfirmed, domain.StatusNoShow); err != nil {
				return err
			}
			_, err := s.fleetRepo.ReleaseContainers(txCtx, b.ContainerIDs)
			return err
		})
		if err != nil {
			if errors.Is(err, bookingRepo.ErrStatusConflict) {
				s.logger.Info("Sweeper: booking id=%d transitioned concurrently, skipping", b.ID)
				continue
			}
			s.logger.Error("Sweeper: failed to mark no-show for booking id=%d: %v", b.ID, err)
			continue
		}

		if s.metrics != nil {
			s.metrics.BookingsNoShowTotal.WithLabelValues(strconv.FormatInt(b.TerminalID, 10)).Inc()
		}
		s.notifier.Send(ctx, notify.EventBookingNoShow, payloadFor(b))
		s.logger.Info("Sweeper: booking id=%d reference=%s marked no-show", b.ID, b.Reference)
	}
}

// sweepReminders шлет напоминания по подтвержденным броням согласно
// оффсетам терминала. Уникальный индекс журнала напоминаний гарантирует
// не более одного напоминания на пару (бронь, оффсет)
func (s *Sweeper) sweepReminders(ctx context.Context) {
	now := s.timeProvider.Now()

	upcoming, err := s.bookingRepo.ListUpcomingConfirmed(ctx, now, now.Add(s.reminderHorizon))
	if err != nil {
		s.logger.Error("Sweeper: failed to list upcoming confirmed bookings: %v", err)
		return
	}

	terminals := make(map[int64]*domain.TerminalConfig)
	for _, b := range upcoming {
		cfg, ok := terminals[b.TerminalID]
		if !ok {
			cfg, err = s.terminalRepo.GetTerminal(ctx, b.TerminalID)
			if err != nil {
				s.logger.Error("Sweeper: failed to get terminal id=%d: %v", b.TerminalID, err)
				continue
			}
			terminals[b.TerminalID] = cfg
		}

		for _, offsetHours := range cfg.ReminderHoursBefore {
			remindAt := b.SlotStartAt.Add(-time.Duration(offsetHours) * time.Hour)
			if now.Before(remindAt) {
				continue
			}

			recorded, err := s.reminderRepo.TryRecord(ctx, b.ID, offsetHours)
			if err != nil {
				s.logger.Error("Sweeper: failed to record reminder booking id=%d offset=%dh: %v",
					b.ID, offsetHours, err)
				continue
			}
			if !recorded {
				continue
			}

			payload := payloadFor(b)
			payload.ReminderOffsetHours = offsetHours
			s.notifier.Send(ctx, notify.EventBookingReminder, payload)

			if s.metrics != nil {
				s.metrics.RemindersEmittedTotal.WithLabelValues(strconv.Itoa(offsetHours)).Inc()
			}
			s.logger.Info("Sweeper: reminder %dh sent for booking id=%d reference=%s",
				offsetHours, b.ID, b.Reference)
		}
	}
}

func payloadFor(b *domain.Booking) notify.Payload {
	return notify.Payload{
		BookingID:   b.ID,
		Reference:   b.Reference,
		CarrierID:   b.CarrierID,
		TerminalID:  b.TerminalID,
		SlotStartAt: b.SlotStartAt,
		SlotEndAt:   b.SlotEndAt,
	}
}
