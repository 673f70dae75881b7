package create_booking

import (
	"time"

	"github.com/portops/PGC-BookingService/internal/domain"
	"github.com/portops/PGC-BookingService/pkg/types"
)

// Request модель запроса на создание бронирования
type Request struct {
	CarrierID    int64            // ID перевозчика (владелец бронирования)
	TerminalID   int64            // ID терминала
	TruckID      int64            // ID грузовика перевозчика
	ContainerIDs []int64          // Контейнеры операции (непустой список)
	Date         time.Time        // Дата слота (без времени)
	TimeStart    types.TimeString // Начало слота (например, "10:00")
	TimeEnd      types.TimeString // Конец слота (например, "11:00")
	DriverName   *string          // Имя водителя (опционально)
	DriverPhone  *string          // Телефон водителя (опционально)
}

// Response модель ответа с созданным бронированием
type Response struct {
	ID           int64
	Reference    string // Человекочитаемый номер бронирования
	CarrierID    int64
	TerminalID   int64
	GateID       int64 // Ворота, подобранные под грузовик и слот
	TruckID      int64
	ContainerIDs []int64

	BookingDate time.Time
	TimeStart   types.TimeString
	TimeEnd     types.TimeString
	Status      string // pending либо confirmed (при авто-валидации)

	DriverName  *string
	DriverPhone *string

	DecidedAt *time.Time
	ExpiresAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

func fromDomain(b *domain.Booking) *Response {
	return &Response{
		ID:           b.ID,
		Reference:    b.Reference,
		CarrierID:    b.CarrierID,
		TerminalID:   b.TerminalID,
		GateID:       b.GateID,
		TruckID:      b.TruckID,
		ContainerIDs: b.ContainerIDs,
		BookingDate:  b.BookingDate,
		TimeStart:    b.TimeStart,
		TimeEnd:      b.TimeEnd,
		Status:       string(b.Status),
		DriverName:   b.DriverName,
		DriverPhone:  b.DriverPhone,
		DecidedAt:    b.DecidedAt,
		ExpiresAt:    b.ExpiresAt,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
}
