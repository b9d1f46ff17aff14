package domain

// OperatorStatus represents the current availability of an operator.
type OperatorStatus string

const (
	OperatorStatusOnline  OperatorStatus = "ONLINE"
	OperatorStatusOffline OperatorStatus = "OFFLINE"
	OperatorStatusOnJob   OperatorStatus = "ON_JOB"
)

// VehicleClass represents the kind of cleaning vehicle an operator runs.
type VehicleClass string

const (
	VehicleClassJetterVan    VehicleClass = "JETTER_VAN"
	VehicleClassSuctionTruck VehicleClass = "SUCTION_TRUCK"
)

// Operator represents a driver-owner with a cleaning vehicle.
type Operator struct {
	ID           string
	Name         string
	Phone        string
	Status       OperatorStatus
	VehicleClass VehicleClass
}
