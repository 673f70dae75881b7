package fleet

import "errors"

var (
	// ErrTruckNotFound возвращается, когда грузовик не найден
	ErrTruckNotFound = errors.New("fleet.repository: truck not found")

	// ErrContainerNotFound возвращается, когда хотя бы один контейнер не найден
	ErrContainerNotFound = errors.New("fleet.repository: container not found")

	// ErrContainerConflict возвращается, когда хотя бы один контейнер уже
	// занят другим активным бронированием или принадлежит другому перевозчику
	ErrContainerConflict = errors.New("fleet.repository: container is booked or not owned by carrier")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("fleet.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("fleet.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("fleet.repository: failed to scan row")
)
