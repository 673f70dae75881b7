package terminalcfg

import "errors"

var (
	// ErrTerminalNotFound возвращается, когда терминал не найден
	ErrTerminalNotFound = errors.New("terminalcfg.repository: terminal not found")

	// ErrGateNotFound возвращается, когда ворота не найдены
	ErrGateNotFound = errors.New("terminalcfg.repository: gate not found")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("terminalcfg.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("terminalcfg.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("terminalcfg.repository: failed to scan row")
)
