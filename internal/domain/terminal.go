package domain

import (
	"time"

	"github.com/portops/PGC-BookingService/pkg/types"
)

// TerminalConfig per-terminal booking policy
// Owned by the admin layer; read-only for this service
type TerminalConfig struct {
	ID       int64
	Code     string
	Name     string
	Timezone string

	AutoValidationThresholdPct int // 0-100
	MaxAdvanceBookingDays      int
	MinAdvanceBookingHours     int
	NoShowGraceMinutes         int
	MaxContainersPerBooking    int
	ReminderHoursBefore        []int // Упорядочен по возрастанию

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Location resolves the terminal timezone
func (t *TerminalConfig) Location() (*time.Location, error) {
	return time.LoadLocation(t.Timezone)
}

// Gate a truck gate belonging to one terminal
// Allowed sets are immutable during a booking's lifetime from this
// service's point of view
type Gate struct {
	ID         int64
	TerminalID int64
	Code       string

	AllowedTruckTypes   []TruckType
	AllowedTruckClasses []TruckClass
}

// AllowsTruck returns true if the truck's type and class are both permitted
func (g *Gate) AllowsTruck(truck *Truck) bool {
	return containsTruckType(g.AllowedTruckTypes, truck.Type) &&
		containsTruckClass(g.AllowedTruckClasses, truck.Class)
}

func containsTruckType(set []TruckType, v TruckType) bool {
	for _, item := range set {
		if item == v {
			return true
		}
	}
	return false
}

func containsTruckClass(set []TruckClass, v TruckClass) bool {
	for _, item := range set {
		if item == v {
			return true
		}
	}
	return false
}

// GateSchedule one weekday row of a gate's weekly capacity template
// Concrete time slots are generated from open to close with a fixed step
type GateSchedule struct {
	GateID              int64
	Weekday             time.Weekday
	OpenTime            types.TimeString
	CloseTime           types.TimeString
	SlotDurationMinutes int
	Capacity            int
}
