package consume_booking

import (
	"context"

	"github.com/portops/PGC-BookingService/internal/domain"
	"github.com/portops/PGC-BookingService/internal/service/bookings"
)

type BookingService interface {
	Consume(ctx context.Context, operatorID int64, req *bookings.ConsumeRequest) (*domain.Booking, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
