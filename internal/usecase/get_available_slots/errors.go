package get_available_slots

import "errors"

var (
	ErrTerminalNotFound = errors.New("get_available_slots: terminal not found")
	ErrGateNotFound     = errors.New("get_available_slots: gate not found")
	ErrInvalidDate      = errors.New("get_available_slots: date is outside the booking window")
	ErrInvalidInput     = errors.New("get_available_slots: invalid input")
	ErrInternal         = errors.New("get_available_slots: internal error")
)
