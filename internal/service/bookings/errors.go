package bookings

import "errors"

var (
	ErrBookingNotFound = errors.New("bookings service: booking not found")
	ErrAccessDenied    = errors.New("bookings service: access denied")

	// ErrAlreadyDecided решение по брони уже принято (или она ушла дальше по жизненному циклу)
	ErrAlreadyDecided = errors.New("bookings service: booking is not pending")

	// ErrNotCancellable бронь уже в терминальном статусе
	ErrNotCancellable = errors.New("bookings service: booking can not be cancelled")

	// ErrNotConsumable гейт-скан возможен только для подтвержденной брони
	ErrNotConsumable = errors.New("bookings service: booking is not confirmed")

	// ErrOutsideArrivalWindow грузовик приехал вне окна прибытия
	ErrOutsideArrivalWindow = errors.New("bookings service: arrival is outside the slot window")

	// ErrStatusConflict конкурентное обновление изменило статус между чтением и записью
	ErrStatusConflict = errors.New("bookings service: booking status changed concurrently")

	ErrInvalidDecision = errors.New("bookings service: invalid decision")
	ErrInvalidFilter   = errors.New("bookings service: at least one of carrierId or terminalId is required")
	ErrInvalidInput    = errors.New("bookings service: invalid input")
	ErrInternal        = errors.New("bookings service: internal error")
)
