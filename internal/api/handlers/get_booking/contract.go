package get_booking

import (
	"context"

	"github.com/portops/PGC-BookingService/internal/domain"
)

type BookingService interface {
	GetByID(ctx context.Context, callerID, bookingID int64) (*domain.Booking, error)
	GetByReference(ctx context.Context, callerID int64, reference string) (*domain.Booking, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
