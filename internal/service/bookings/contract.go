package bookings

import (
	"context"
	"time"

	"github.com/portops/PGC-BookingService/internal/domain"
	"github.com/portops/PGC-BookingService/internal/infra/notify"
	"github.com/portops/PGC-BookingService/internal/integrations/auditservice"
	"github.com/portops/PGC-BookingService/internal/integrations/identityservice"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetByReference(ctx context.Context, reference string) (*domain.Booking, error)
	ListWithFilter(ctx context.Context, filter domain.BookingsFilter) ([]*domain.Booking, error)
	Transition(ctx context.Context, id int64, from, to domain.BookingStatus) error
	ConfirmWithDeadline(ctx context.Context, id int64, noShowDeadline time.Time) error
}

// SlotRepository интерфейс капасити-леджера
type SlotRepository interface {
	Release(ctx context.Context, slotID int64, amount int) (*domain.TimeSlot, error)
}

// FleetRepository интерфейс доступа к контейнерам перевозчика
type FleetRepository interface {
	ReleaseContainers(ctx context.Context, ids []int64) (int64, error)
}

// TerminalRepository интерфейс конфигурации терминалов
type TerminalRepository interface {
	GetTerminal(ctx context.Context, id int64) (*domain.TerminalConfig, error)
}

// IdentityClient интерфейс клиента Identity-сервиса
type IdentityClient interface {
	GetProfile(ctx context.Context, userID int64) (*identityservice.Profile, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Notifier интерфейс диспетчера уведомлений
type Notifier interface {
	Send(ctx context.Context, event notify.Event, payload notify.Payload)
}

// Auditor интерфейс аудит-рекордера
type Auditor interface {
	LogAsync(entry auditservice.Entry)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
