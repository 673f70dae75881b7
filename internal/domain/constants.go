package domain

import "errors"

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// Default terminal policy values
// Используются, если колонка политики в терминале не заполнена
const (
	DefaultMaxAdvanceBookingDays   = 14
	DefaultMinAdvanceBookingHours  = 2
	DefaultNoShowGraceMinutes      = 60
	DefaultMaxContainersPerBooking = 4
	DefaultAutoValidationThreshold = 80
)

// ArrivalGraceBeforeMinutes насколько раньше начала слота грузовик может
// пройти через ворота (окно для markConsumed)
const ArrivalGraceBeforeMinutes = 120

// Business validation bounds
const (
	MinSlotCapacity        = 1
	MaxSlotCapacity        = 500
	MaxReminderOffsetHours = 168 // 1 week
	MaxDriverNameLength    = 120
	MaxDriverPhoneLength   = 32
)

// ErrLedgerInvariant сигнализирует нарушение инварианта капасити-леджера
// (reserved_count вышел за пределы [0, capacity])
// Такое состояние никогда не маскируется - операция падает
var ErrLedgerInvariant = errors.New("domain: slot capacity ledger invariant violated")

// ActiveStatuses статусы, в которых бронирование удерживает слот и контейнеры
var ActiveStatuses = []BookingStatus{
	StatusPending,
	StatusConfirmed,
}

// RetiredStatuses терминальные статусы бронирования
var RetiredStatuses = []BookingStatus{
	StatusRejected,
	StatusConsumed,
	StatusCancelled,
	StatusExpired,
	StatusNoShow,
}
