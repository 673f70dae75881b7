package slot

import "errors"

var (
	// ErrSlotNotFound возвращается, когда слот не найден
	ErrSlotNotFound = errors.New("slot.repository: time slot not found")

	// ErrSlotFull возвращается, когда в слоте не осталось свободной емкости
	ErrSlotFull = errors.New("slot.repository: slot capacity exhausted")

	// ErrReleaseUnderflow возвращается при попытке освободить больше емкости,
	// чем зарезервировано - нарушение инварианта леджера, не маскируется
	ErrReleaseUnderflow = errors.New("slot.repository: release would drive reserved_count below zero")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("slot.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("slot.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("slot.repository: failed to scan row")
)
