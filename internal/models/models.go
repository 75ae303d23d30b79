package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type MedicineCategory struct {
	ID      uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name    string `gorm:"not null"                 json:"name"`
	Details string `json:"details"`
}

type Medicine struct {
	ID           uint              `gorm:"primaryKey;autoIncrement"    json:"id"`
	Name         string            `gorm:"index;not null"              json:"name"`
	CategoryID   *uint             `gorm:"index"                       json:"category_id"`
	Manufacturer string            `json:"manufacturer"`
	Price        decimal.Decimal   `gorm:"type:decimal(12,2);not null" json:"price"`
	Category     *MedicineCategory `gorm:"foreignKey:CategoryID"       json:"category,omitempty"`
}

type Branch struct {
	ID             uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name           string `gorm:"not null"                 json:"name"`
	Location       string `json:"location"`
	ManagerContact string `json:"manager_contact"`
}

type Customer struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string `gorm:"not null"                 json:"name"`
	Contact      string `json:"contact"`
	Email        string `gorm:"uniqueIndex;not null"     json:"email"`
	PasswordHash string `gorm:"not null"                 json:"-"`
}

const (
	DesignationStaff         = "Staff"
	DesignationAdmin         = "Admin"
	DesignationBranchManager = "Branch Manager"
)

// Employee ids are assigned by the chain, not generated.
type Employee struct {
	ID          uint   `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name        string `gorm:"not null"                       json:"name"`
	Email       string `json:"email"`
	PinHash     string `gorm:"not null"                       json:"-"`
	Designation string `gorm:"not null;default:Staff"         json:"designation"`
	Contact     string `json:"contact"`
	BranchID    uint   `gorm:"index"                          json:"branch_id"`
}

func (e Employee) IsAdmin() bool {
	return e.Designation == DesignationAdmin || e.Designation == DesignationBranchManager
}

// SaleDetail is one medicine line of a sale. SaleID groups the lines of an
// in-store sale, OrderID the lines of an online order.
type SaleDetail struct {
	ID            uint            `gorm:"primaryKey;autoIncrement"    json:"id"`
	SaleID        *uint           `gorm:"index"                       json:"sale_id,omitempty"`
	OrderID       *uint           `gorm:"index"                       json:"order_id,omitempty"`
	SaleDate      time.Time       `gorm:"not null"                    json:"sale_date"`
	BranchID      uint            `gorm:"not null"                    json:"branch_id"`
	CustomerID    uint            `gorm:"index;not null"              json:"customer_id"`
	EmployeeID    uint            `gorm:"not null"                    json:"employee_id"`
	MedicineID    uint            `gorm:"not null"                    json:"medicine_id"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	Quantity      int             `gorm:"not null;check:quantity>0"   json:"quantity"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	PaymentMethod string          `gorm:"not null"                    json:"payment_method"`
}

// OnlineOrder is the delivery header of a checkout; SaleDetailID points at the
// first line of the batch.
type OnlineOrder struct {
	ID              uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	CustomerID      uint        `gorm:"index;not null"           json:"customer_id"`
	SaleDetailID    uint        `gorm:"not null"                 json:"sale_detail_id"`
	SaleDetail      *SaleDetail `gorm:"foreignKey:SaleDetailID"  json:"-"`
	OrderDate       time.Time   `gorm:"not null"                 json:"order_date"`
	DeliveryAddress string      `gorm:"not null"                 json:"delivery_address"`
}

func All() []any {
	return []any{
		&MedicineCategory{},
		&Medicine{},
		&Branch{},
		&Customer{},
		&Employee{},
		&SaleDetail{},
		&OnlineOrder{},
	}
}
