package get_available_slots

import (
	"time"

	"github.com/portops/PGC-BookingService/internal/domain"
)

// Request параметры запроса каталога доступных слотов
type Request struct {
	TerminalID int64
	GateID     *int64 // nil - все ворота терминала
	Date       time.Time
}

// Response каталог доступных слотов на день
type Response struct {
	TerminalID int64
	Date       time.Time
	Slots      []*domain.AvailableSlot
}
