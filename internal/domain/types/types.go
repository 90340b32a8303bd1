package types

import "github.com/shopspring/decimal"

type ServiceMode string

// Fare Service - quotes trips and runs fare negotiation with riders and drivers
// Settlement Service - splits completed trip fares into tax, commission and driver earnings
// Admin Service - tariff management and revenue reporting
const (
	FareService       ServiceMode = "fare-service"
	SettlementService ServiceMode = "settlement-service"
	AdminService      ServiceMode = "admin-service"
)

// Enum для классов
type VehicleClass string

const (
	CompactClass  VehicleClass = "COMPACT"
	StandardClass VehicleClass = "STANDARD"
	XLClass       VehicleClass = "XL"
)

var vehicleCostFactors = map[VehicleClass]decimal.Decimal{
	CompactClass:  decimal.RequireFromString("0.85"),
	StandardClass: decimal.NewFromInt(1),
	XLClass:       decimal.RequireFromString("1.25"),
}

// CostFactor returns the fare multiplier of the vehicle class.
func (c VehicleClass) CostFactor() (decimal.Decimal, bool) {
	f, ok := vehicleCostFactors[c]
	return f, ok
}

func (c VehicleClass) String() string {
	return string(c)
}

// VehicleClasses lists every supported class.
func VehicleClasses() []string {
	return []string{string(CompactClass), string(StandardClass), string(XLClass)}
}

// Direction of a manual fare adjustment
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

func (d Direction) Valid() bool {
	return d == DirectionUp || d == DirectionDown
}

// Reporting period
type Period string

const (
	Daily   Period = "daily"
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
	Annual  Period = "annual"
)

// Days returns the number of days covered by the period.
func (p Period) Days() int {
	switch p {
	case Daily:
		return 1
	case Weekly:
		return 7
	case Monthly:
		return 30
	case Annual:
		return 365
	default:
		return 0
	}
}

// Periods in reporting order.
func Periods() []Period {
	return []Period{Daily, Weekly, Monthly, Annual}
}

// Enum для роли пользователя
type UserRole string

func (r UserRole) String() string {
	return string(r)
}

const (
	RolePassenger UserRole = "PASSENGER"
	RoleDriver    UserRole = "DRIVER"
	RoleAdmin     UserRole = "ADMIN"
	RoleAnonymous UserRole = "ANONYMOUS"
)

// Settlement status
type SettlementStatus string

const (
	SettlementCompleted     SettlementStatus = "COMPLETED"
	SettlementDuplicate     SettlementStatus = "DUPLICATE"
	SettlementRejected      SettlementStatus = "REJECTED"
	SettlementPublishFailed SettlementStatus = "PUBLISH_FAILED" // stored, fare.settled not published
)
