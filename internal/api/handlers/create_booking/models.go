package create_booking

import (
	"time"

	"github.com/portops/PGC-BookingService/internal/domain"
	createBooking "github.com/portops/PGC-BookingService/internal/usecase/create_booking"
	"github.com/portops/PGC-BookingService/pkg/types"
)

// CreateBookingRequest HTTP request model
type CreateBookingRequest struct {
	TerminalID   int64   `json:"terminalId"`
	TruckID      int64   `json:"truckId"`
	ContainerIDs []int64 `json:"containerIds"`
	BookingDate  string  `json:"bookingDate"` // "2026-09-15"
	TimeStart    string  `json:"timeStart"`   // "10:00"
	TimeEnd      string  `json:"timeEnd"`     // "11:00"
	DriverName   *string `json:"driverName,omitempty"`
	DriverPhone  *string `json:"driverPhone,omitempty"`
}

// BookingResponse HTTP response model
type BookingResponse struct {
	ID           int64   `json:"id"`
	Reference    string  `json:"reference"`
	CarrierID    int64   `json:"carrierId"`
	TerminalID   int64   `json:"terminalId"`
	GateID       int64   `json:"gateId"`
	TruckID      int64   `json:"truckId"`
	ContainerIDs []int64 `json:"containerIds"`
	BookingDate  string  `json:"bookingDate"`
	TimeStart    string  `json:"timeStart"`
	TimeEnd      string  `json:"timeEnd"`
	Status       string  `json:"status"`
	DriverName   *string `json:"driverName,omitempty"`
	DriverPhone  *string `json:"driverPhone,omitempty"`
	DecidedAt    *string `json:"decidedAt,omitempty"`
	ExpiresAt    *string `json:"expiresAt,omitempty"`
	CreatedAt    string  `json:"createdAt"`
	UpdatedAt    string  `json:"updatedAt"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateBookingRequest) ToUseCaseRequest(carrierID int64) (*createBooking.Request, error) {
	// Парсим дату
	bookingDate, err := time.Parse(domain.DateFormat, r.BookingDate)
	if err != nil {
		return nil, err
	}

	// Парсим границы слота
	timeStart, err := types.NewTimeStringFromString(r.TimeStart)
	if err != nil {
		return nil, err
	}
	timeEnd, err := types.NewTimeStringFromString(r.TimeEnd)
	if err != nil {
		return nil, err
	}

	return &createBooking.Request{
		CarrierID:    carrierID,
		TerminalID:   r.TerminalID,
		TruckID:      r.TruckID,
		ContainerIDs: r.ContainerIDs,
		Date:         bookingDate,
		TimeStart:    timeStart,
		TimeEnd:      timeEnd,
		DriverName:   r.DriverName,
		DriverPhone:  r.DriverPhone,
	}, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *createBooking.Response) *BookingResponse {
	return &BookingResponse{
		ID:           resp.ID,
		Reference:    resp.Reference,
		CarrierID:    resp.CarrierID,
		TerminalID:   resp.TerminalID,
		GateID:       resp.GateID,
		TruckID:      resp.TruckID,
		ContainerIDs: resp.ContainerIDs,
		BookingDate:  resp.BookingDate.Format(domain.DateFormat),
		TimeStart:    resp.TimeStart.String(),
		TimeEnd:      resp.TimeEnd.String(),
		Status:       resp.Status,
		DriverName:   resp.DriverName,
		DriverPhone:  resp.DriverPhone,
		DecidedAt:    formatTime(resp.DecidedAt),
		ExpiresAt:    formatTime(resp.ExpiresAt),
		CreatedAt:    resp.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    resp.UpdatedAt.Format(time.RFC3339),
	}
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
