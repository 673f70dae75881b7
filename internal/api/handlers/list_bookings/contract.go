package list_bookings

import (
	"context"

	"github.com/portops/PGC-BookingService/internal/domain"
	"github.com/portops/PGC-BookingService/internal/service/bookings"
)

type BookingService interface {
	List(ctx context.Context, callerID int64, req *bookings.ListRequest) ([]*domain.Booking, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
