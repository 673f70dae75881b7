package get_available_slots

import (
	"context"
	"time"

	"github.com/portops/PGC-BookingService/internal/domain"
)

// SlotRepository интерфейс капасити-леджера
type SlotRepository interface {
	ListByDate(ctx context.Context, terminalID int64, gateID *int64, date time.Time) ([]*domain.TimeSlot, error)
}

// TerminalRepository интерфейс конфигурации терминалов
type TerminalRepository interface {
	GetTerminal(ctx context.Context, id int64) (*domain.TerminalConfig, error)
	ListGates(ctx context.Context, terminalID int64) ([]*domain.Gate, error)
	ListSchedules(ctx context.Context, terminalID int64, weekday time.Weekday) ([]*domain.GateSchedule, error)
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
