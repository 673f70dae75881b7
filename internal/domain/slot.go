package domain

import (
	"fmt"
	"time"

	"github.com/portops/PGC-BookingService/pkg/types"
)

// TimeSlot a bookable time window at a terminal gate with finite truck capacity
// Materialized from the gate's weekly schedule template; the unit the
// capacity ledger locks on
type TimeSlot struct {
	ID         int64
	TerminalID int64
	GateID     int64
	SlotDate   time.Time
	StartTime  types.TimeString
	EndTime    types.TimeString

	Capacity      int
	ReservedCount int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AvailableCapacity returns the remaining capacity of the slot
// A negative value means the ledger invariant is broken; callers must treat
// it as a hard error, never clamp it silently
func (s *TimeSlot) AvailableCapacity() (int, error) {
	available := s.Capacity - s.ReservedCount
	if available < 0 || s.ReservedCount < 0 {
		return 0, fmt.Errorf("%w: slot id=%d capacity=%d reserved=%d",
			ErrLedgerInvariant, s.ID, s.Capacity, s.ReservedCount)
	}
	return available, nil
}

// IsFull returns true if the slot has no remaining capacity
func (s *TimeSlot) IsFull() bool {
	return s.ReservedCount >= s.Capacity
}

// UtilizationPct returns the occupancy of the slot as an integer percentage
func (s *TimeSlot) UtilizationPct() int {
	if s.Capacity == 0 {
		return 100
	}
	return s.ReservedCount * 100 / s.Capacity
}

// AvailableSlot a catalog entry: a concrete slot plus its remaining capacity
type AvailableSlot struct {
	// SlotID заполнен только для материализованных слотов; слот без броней
	// еще не имеет строки в леджере
	SlotID            int64
	GateID            int64
	StartTime         types.TimeString
	EndTime           types.TimeString
	AvailableCapacity int
	TotalCapacity     int
}
