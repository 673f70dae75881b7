package domain

// TruckType категория грузовика (container_truck, flatbed, tanker, ...)
type TruckType string

// TruckClass весовой/габаритный класс грузовика (A, B, C, ...)
type TruckClass string

// Truck carrier-owned truck
// Created and mutated by the fleet CRUD layer; read-only here
type Truck struct {
	ID           int64
	CarrierID    int64
	LicensePlate string
	Type         TruckType
	Class        TruckClass
}

// OperationType направление операции контейнера на терминале
type OperationType string

const (
	OperationPickUp  OperationType = "pick_up"
	OperationDropOff OperationType = "drop_off"
)

// Container carrier-owned container
// IsBooked is true exactly while the container is referenced by an active
// (pending or confirmed) booking; a container belongs to at most one active
// booking at a time
type Container struct {
	ID            int64
	CarrierID     int64
	Number        string
	OperationType OperationType
	IsBooked      bool
}
