package transport

import (
	"time"

	"github.com/curepoint/pharmacy/internal/models"
	"github.com/curepoint/pharmacy/internal/session"
	"github.com/shopspring/decimal"
)

type SignupRequest struct {
	Name     string `json:"name"     form:"name"`
	Contact  string `json:"contact"  form:"contact"`
	Email    string `json:"email"    form:"email"`
	Password string `json:"password" form:"password"`
}

type CustomerLoginRequest struct {
	Email    string `json:"email"    form:"email"`
	Password string `json:"password" form:"password"`
}

type EmployeeLoginRequest struct {
	EmployeeID uint   `json:"employee_id" form:"employee_id"`
	PIN        string `json:"pin"         form:"pin"`
}

type EmployeeSignupRequest struct {
	Name        string `json:"name"        form:"name"`
	Email       string `json:"email"       form:"email"`
	Contact     string `json:"contact"     form:"contact"`
	PIN         string `json:"pin"         form:"pin"`
	Designation string `json:"designation" form:"designation"`
	BranchID    uint   `json:"branch_id"   form:"branch_id"`
}

type LoginPage struct {
	Role    session.Role    `json:"role"`
	Flashes []session.Flash `json:"flashes"`
}

type CreateMedicineRequest struct {
	Name         string          `json:"name"`
	CategoryID   *uint           `json:"category_id"`
	Manufacturer string          `json:"manufacturer"`
	Price        decimal.Decimal `json:"price"`
}

type CategoryRequest struct {
	Name    string `json:"name"    form:"name"`
	Details string `json:"details" form:"details"`
}

type PatchCategoryRequest struct {
	Name    *string `json:"name"`
	Details *string `json:"details"`
}

type PatchMedicineRequest struct {
	Name         *string          `json:"name"`
	CategoryID   *uint            `json:"category_id"`
	Manufacturer *string          `json:"manufacturer"`
	Price        *decimal.Decimal `json:"price"`
}

type CartView struct {
	Items   []models.LineItem `json:"items"`
	Total   decimal.Decimal   `json:"total"`
	Flashes []session.Flash   `json:"flashes"`
	Error   string            `json:"error,omitempty"`
}

type CheckoutRequest struct {
	DeliveryAddress string `json:"delivery_address" form:"delivery_address"`
	PaymentMethod   string `json:"payment_method"   form:"payment_method"`
}

// OrderLine is one sale detail row of a customer's online order.
type OrderLine struct {
	OrderID         uint            `json:"-"`
	OrderDate       time.Time       `json:"-"`
	DeliveryAddress string          `json:"-"`
	SaleDetailID    uint            `json:"sale_detail_id"`
	MedicineID      uint            `json:"medicine_id"`
	MedicineName    string          `json:"medicine_name"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Quantity        int             `json:"quantity"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	PaymentMethod   string          `json:"payment_method"`
}

type OrderSummary struct {
	OrderID         uint            `json:"order_id"`
	OrderDate       time.Time       `json:"order_date"`
	DeliveryAddress string          `json:"delivery_address"`
	Lines           []OrderLine     `json:"lines"`
	Total           decimal.Decimal `json:"total"`
}

type OrdersView struct {
	Placed  bool            `json:"placed"`
	Orders  []OrderSummary  `json:"orders"`
	Flashes []session.Flash `json:"flashes"`
}

type OnlineOrderRow struct {
	OrderID         uint            `json:"order_id"`
	OrderDate       time.Time       `json:"order_date"`
	DeliveryAddress string          `json:"delivery_address"`
	CustomerID      uint            `json:"customer_id"`
	CustomerName    string          `json:"customer_name"`
	CustomerEmail   string          `json:"customer_email"`
	MedicineName    string          `json:"medicine_name"`
	Quantity        int             `json:"quantity"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
}

const (
	SaleKindInStore = "in_store"
	SaleKindOnline  = "online"
)

// SaleGroup collects the detail rows sharing a sale id or an order id.
type SaleGroup struct {
	Kind       string              `json:"kind"`
	SaleID     *uint               `json:"sale_id,omitempty"`
	OrderID    *uint               `json:"order_id,omitempty"`
	SaleDate   time.Time           `json:"sale_date"`
	BranchID   uint                `json:"branch_id"`
	CustomerID uint                `json:"customer_id"`
	EmployeeID uint                `json:"employee_id"`
	Lines      []models.SaleDetail `json:"lines"`
	Total      decimal.Decimal     `json:"total"`
}

const MaxSaleItems = 5

type SaleItemRequest struct {
	MedicineID uint `json:"medicine_id"`
	Quantity   int  `json:"quantity"`
}

type CreateSaleRequest struct {
	CustomerID    uint              `json:"customer_id"`
	PaymentMethod string            `json:"payment_method"`
	Items         []SaleItemRequest `json:"items"`
}

type CreateBranchRequest struct {
	Name           string `json:"name"            form:"name"`
	Location       string `json:"location"        form:"location"`
	ManagerContact string `json:"manager_contact" form:"manager_contact"`
}
