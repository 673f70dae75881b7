package get_available_slots

import (
	"github.com/portops/PGC-BookingService/internal/domain"
	getAvailableSlots "github.com/portops/PGC-BookingService/internal/usecase/get_available_slots"
)

// AvailableSlotResponse HTTP-модель одного доступного слота
type AvailableSlotResponse struct {
	SlotID            int64  `json:"slotId,omitempty"`
	GateID            int64  `json:"gateId"`
	TimeStart         string `json:"timeStart"`
	TimeEnd           string `json:"timeEnd"`
	AvailableCapacity int    `json:"availableCapacity"`
	TotalCapacity     int    `json:"totalCapacity"`
}

// AvailableSlotsResponse HTTP-модель каталога слотов на день
type AvailableSlotsResponse struct {
	TerminalID int64                    `json:"terminalId"`
	Date       string                   `json:"date"`
	Slots      []*AvailableSlotResponse `json:"slots"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *getAvailableSlots.Response) *AvailableSlotsResponse {
	slots := make([]*AvailableSlotResponse, 0, len(resp.Slots))
	for _, s := range resp.Slots {
		slots = append(slots, &AvailableSlotResponse{
			SlotID:            s.SlotID,
			GateID:            s.GateID,
			TimeStart:         s.StartTime.String(),
			TimeEnd:           s.EndTime.String(),
			AvailableCapacity: s.AvailableCapacity,
			TotalCapacity:     s.TotalCapacity,
		})
	}

	return &AvailableSlotsResponse{
		TerminalID: resp.TerminalID,
		Date:       resp.Date.Format(domain.DateFormat),
		Slots:      slots,
	}
}
