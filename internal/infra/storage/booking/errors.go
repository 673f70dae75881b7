package booking

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("booking.repository: booking not found")

	// ErrStatusConflict возвращается, когда CAS-переход статуса не прошел:
	// текущий статус бронирования уже не совпадает с ожидаемым
	ErrStatusConflict = errors.New("booking.repository: status precondition does not match")

	// ErrDuplicateReference возвращается при нарушении уникальности reference
	ErrDuplicateReference = errors.New("booking.repository: duplicate booking reference")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("booking.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("booking.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("booking.repository: failed to scan row")
)
