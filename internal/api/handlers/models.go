package handlers

import (
	"time"

	"github.com/portops/PGC-BookingService/internal/domain"
)

// BookingResponse общая HTTP-модель бронирования
type BookingResponse struct {
	ID           int64   `json:"id"`
	Reference    string  `json:"reference"`
	CarrierID    int64   `json:"carrierId"`
	TerminalID   int64   `json:"terminalId"`
	GateID       int64   `json:"gateId"`
	TruckID      int64   `json:"truckId"`
	ContainerIDs []int64 `json:"containerIds"`

	BookingDate string `json:"bookingDate"`
	TimeStart   string `json:"timeStart"`
	TimeEnd     string `json:"timeEnd"`
	Status      string `json:"status"`

	DriverName  *string `json:"driverName,omitempty"`
	DriverPhone *string `json:"driverPhone,omitempty"`

	DecidedAt   *string `json:"decidedAt,omitempty"`
	ConsumedAt  *string `json:"consumedAt,omitempty"`
	CancelledAt *string `json:"cancelledAt,omitempty"`
	ExpiresAt   *string `json:"expiresAt,omitempty"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

// BookingFromDomain конвертирует доменную модель в HTTP-ответ
func BookingFromDomain(b *domain.Booking) *BookingResponse {
	return &BookingResponse{
		ID:           b.ID,
		Reference:    b.Reference,
		CarrierID:    b.CarrierID,
		TerminalID:   b.TerminalID,
		GateID:       b.GateID,
		TruckID:      b.TruckID,
		ContainerIDs: b.ContainerIDs,
		BookingDate:  b.BookingDate.Format(domain.DateFormat),
		TimeStart:    b.TimeStart.String(),
		TimeEnd:      b.TimeEnd.String(),
		Status:       string(b.Status),
		DriverName:   b.DriverName,
		DriverPhone:  b.DriverPhone,
		DecidedAt:    formatTime(b.DecidedAt),
		ConsumedAt:   formatTime(b.ConsumedAt),
		CancelledAt:  formatTime(b.CancelledAt),
		ExpiresAt:    formatTime(b.ExpiresAt),
		CreatedAt:    b.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    b.UpdatedAt.Format(time.RFC3339),
	}
}

// BookingsFromDomain конвертирует список доменных моделей в HTTP-ответ
func BookingsFromDomain(list []*domain.Booking) []*BookingResponse {
	out := make([]*BookingResponse, 0, len(list))
	for _, b := range list {
		out = append(out, BookingFromDomain(b))
	}
	return out
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
