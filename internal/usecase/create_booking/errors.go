package create_booking

import "errors"

var (
	// ErrTerminalNotFound возвращается, когда терминал не найден
	ErrTerminalNotFound = errors.New("create_booking: terminal not found")

	// ErrTruckNotFound возвращается, когда грузовик не найден
	ErrTruckNotFound = errors.New("create_booking: truck not found")

	// ErrTruckNotOwned возвращается, когда грузовик принадлежит другому перевозчику
	ErrTruckNotOwned = errors.New("create_booking: truck is not owned by carrier")

	// ErrTruckNotAllowed возвращается, когда ни одни подходящие ворота не
	// допускают тип/класс грузовика
	ErrTruckNotAllowed = errors.New("create_booking: truck type or class is not allowed at any matching gate")

	// ErrContainerNotFound возвращается, когда контейнер не найден
	ErrContainerNotFound = errors.New("create_booking: container not found")

	// ErrContainerNotOwned возвращается, когда контейнер принадлежит другому перевозчику
	ErrContainerNotOwned = errors.New("create_booking: container is not owned by carrier")

	// ErrContainerBooked возвращается, когда контейнер уже числится в активном бронировании
	ErrContainerBooked = errors.New("create_booking: container is already referenced by an active booking")

	// ErrTooManyContainers возвращается при превышении лимита контейнеров терминала
	ErrTooManyContainers = errors.New("create_booking: too many containers for this terminal")

	// ErrInvalidDate возвращается при некорректной дате бронирования
	ErrInvalidDate = errors.New("create_booking: invalid booking date")

	// ErrDateTooFarInFuture возвращается, когда дата превышает ограничение maxAdvanceBookingDays
	ErrDateTooFarInFuture = errors.New("create_booking: date is too far in the future")

	// ErrTooLateToBook возвращается, когда до начала слота меньше minAdvanceBookingHours
	ErrTooLateToBook = errors.New("create_booking: too late to book this slot")

	// ErrTerminalClosed возвращается, когда у терминала нет расписания на эту дату
	ErrTerminalClosed = errors.New("create_booking: terminal has no schedule on this date")

	// ErrInvalidTimeSlot возвращается, когда запрошенное окно не совпадает
	// ни с одним слотом сетки расписания
	ErrInvalidTimeSlot = errors.New("create_booking: requested window does not match the slot grid")

	// ErrSlotFull возвращается, когда емкость всех подходящих слотов исчерпана
	// Ретраябельно: перевозчик может выбрать другое время
	ErrSlotFull = errors.New("create_booking: slot capacity exhausted")

	// ErrContention возвращается при конфликте конкурентных операций над слотом
	ErrContention = errors.New("create_booking: concurrent contention, retry")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("create_booking: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_booking: internal error")
)
