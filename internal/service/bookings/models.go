package bookings

import (
	"time"

	"github.com/portops/PGC-BookingService/internal/domain"
)

// ListRequest параметры выборки бронирований
type ListRequest struct {
	CarrierID  *int64
	TerminalID *int64
	Status     *domain.BookingStatus
	StartDate  *time.Time
	EndDate    *time.Time
}

// DecideRequest решение оператора по pending-брони
type DecideRequest struct {
	BookingID int64
	Decision  domain.Decision
	// Комментарий оператора попадает в аудит-журнал
	Comment string
}

// ConsumeRequest отметка о фактическом проезде через ворота
type ConsumeRequest struct {
	BookingID int64
	// Контекст сканирования на воротах (номер ворот, устройство) попадает
	// в аудит-журнал
	ScanContext string
}
