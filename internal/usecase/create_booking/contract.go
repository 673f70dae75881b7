package create_booking

import (
	"context"
	"time"

	"github.com/portops/PGC-BookingService/internal/domain"
	"github.com/portops/PGC-BookingService/internal/infra/notify"
	"github.com/portops/PGC-BookingService/internal/integrations/auditservice"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error)
}

// SlotRepository интерфейс капасити-леджера
type SlotRepository interface {
	Ensure(ctx context.Context, s *domain.TimeSlot) (*domain.TimeSlot, error)
	Reserve(ctx context.Context, slotID int64, amount int) (*domain.TimeSlot, error)
}

// FleetRepository интерфейс доступа к грузовикам и контейнерам перевозчика
type FleetRepository interface {
	GetTruck(ctx context.Context, id int64) (*domain.Truck, error)
	GetContainersByIDs(ctx context.Context, ids []int64) ([]*domain.Container, error)
	MarkContainersBooked(ctx context.Context, ids []int64, carrierID int64) error
}

// TerminalRepository интерфейс конфигурации терминалов
type TerminalRepository interface {
	GetTerminal(ctx context.Context, id int64) (*domain.TerminalConfig, error)
	ListGates(ctx context.Context, terminalID int64) ([]*domain.Gate, error)
	ListSchedules(ctx context.Context, terminalID int64, weekday time.Weekday) ([]*domain.GateSchedule, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
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
