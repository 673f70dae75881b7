package domain

import (
	"time"

	"github.com/portops/PGC-BookingService/pkg/types"
)

// BookingStatus represents the status of a gate booking
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusRejected  BookingStatus = "rejected"
	StatusConsumed  BookingStatus = "consumed"
	StatusCancelled BookingStatus = "cancelled"
	StatusExpired   BookingStatus = "expired"
	StatusNoShow    BookingStatus = "no_show"
)

// Booking represents a truck-gate access booking at a terminal
// A booking exclusively owns one reservation on exactly one time slot
// for its whole lifetime
type Booking struct {
	ID         int64
	Reference  string // Уникальный человекочитаемый номер (PGC-...)
	CarrierID  int64
	TerminalID int64
	GateID     int64
	SlotID     int64
	TruckID    int64

	ContainerIDs []int64

	BookingDate time.Time
	TimeStart   types.TimeString
	TimeEnd     types.TimeString

	// Абсолютные границы слота в таймзоне терминала
	// Денормализованы при создании, чтобы sweeper не пересчитывал их на каждом проходе
	SlotStartAt time.Time
	SlotEndAt   time.Time

	Status BookingStatus

	DriverName  *string
	DriverPhone *string

	DecidedAt   *time.Time
	ConsumedAt  *time.Time
	CancelledAt *time.Time
	ExpiresAt   *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsTerminalStatus returns true if no further transition is possible
func (b *Booking) IsTerminalStatus() bool {
	switch b.Status {
	case StatusRejected, StatusConsumed, StatusCancelled, StatusExpired, StatusNoShow:
		return true
	default:
		return false
	}
}

// IsActive returns true while the booking holds its slot reservation
// and its containers
func (b *Booking) IsActive() bool {
	return b.Status == StatusPending || b.Status == StatusConfirmed
}

// CanBeDecided returns true if an operator may confirm or reject the booking
func (b *Booking) CanBeDecided() bool {
	return b.Status == StatusPending
}

// CanBeCancelled returns true if the booking can still be cancelled
func (b *Booking) CanBeCancelled() bool {
	return b.Status == StatusPending || b.Status == StatusConfirmed
}

// CanBeConsumed returns true if a gate scan may mark the booking consumed
func (b *Booking) CanBeConsumed() bool {
	return b.Status == StatusConfirmed
}

// HoldsCapacity returns true if retiring the booking must return slot capacity
// No-show keeps the capacity: the slot occurrence has already passed
func (b *Booking) HoldsCapacity() bool {
	return b.IsActive()
}

// BookingsFilter фильтр для выборки бронирований
// Хотя бы один из CarrierID/TerminalID должен быть задан
type BookingsFilter struct {
	CarrierID  *int64
	TerminalID *int64
	Status     *BookingStatus
	StartDate  *time.Time // Начало периода по дате слота (опционально)
	EndDate    *time.Time // Конец периода по дате слота (опционально)
}

// Decision an operator's verdict on a pending booking
type Decision string

const (
	DecisionConfirm Decision = "confirm"
	DecisionReject  Decision = "reject"
)

// IsValid returns true for a known decision value
func (d Decision) IsValid() bool {
	return d == DecisionConfirm || d == DecisionReject
}
