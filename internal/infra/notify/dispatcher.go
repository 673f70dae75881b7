package notify

import (
	"context"
	"time"
)

// Event тип события жизненного цикла бронирования
type Event string

const (
	EventBookingCreated   Event = "booking.created"
	EventBookingConfirmed Event = "booking.confirmed"
	EventBookingRejected  Event = "booking.rejected"
	EventBookingCancelled Event = "booking.cancelled"
	EventBookingReminder  Event = "booking.reminder"
	EventBookingExpired   Event = "booking.expired"
	EventBookingNoShow    Event = "booking.no_show"
)

// Payload тело события бронирования
type Payload struct {
	BookingID   int64     `json:"booking_id"`
	Reference   string    `json:"reference"`
	CarrierID   int64     `json:"carrier_id"`
	TerminalID  int64     `json:"terminal_id"`
	Status      string    `json:"status"`
	SlotStartAt time.Time `json:"slot_start_at"`
	SlotEndAt   time.Time `json:"slot_end_at"`

	// Заполнено только для booking.reminder
	ReminderOffsetHours int `json:"reminder_offset_hours,omitempty"`
}

// Logger интерфейс для логирования
type Logger interface {
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// publisher контракт издателя (реализуется Publisher)
type publisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// Dispatcher отправляет события жизненного цикла бронирований во внешний брокер
// Доставка fire-and-forget: сбой брокера логируется и не валит бизнес-операцию
type Dispatcher struct {
	pub publisher
	log Logger
}

// NewDispatcher создает новый диспетчер уведомлений
func NewDispatcher(pub publisher, log Logger) *Dispatcher {
	return &Dispatcher{pub: pub, log: log}
}

// Send публикует событие; ошибка доставки только логируется
// При выключенном брокере (pub == nil) события молча пропускаются
func (d *Dispatcher) Send(ctx context.Context, event Event, payload Payload) {
	if d.pub == nil {
		return
	}

	payload.Status = statusForEvent(event, payload.Status)

	if err := d.pub.PublishJSON(ctx, string(event), payload); err != nil {
		d.log.Error("notify: failed to publish %s for booking id=%d: %v", event, payload.BookingID, err)
	}
}

// statusForEvent подставляет статус по событию, если вызывающий его не указал
func statusForEvent(event Event, status string) string {
	if status != "" {
		return status
	}
	switch event {
	case EventBookingConfirmed:
		return "confirmed"
	case EventBookingRejected:
		return "rejected"
	case EventBookingCancelled:
		return "cancelled"
	case EventBookingExpired:
		return "expired"
	case EventBookingNoShow:
		return "no_show"
	default:
		return ""
	}
}
