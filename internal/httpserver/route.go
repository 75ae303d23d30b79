package httpserver

import (
	"net/http"

	"github.com/curepoint/pharmacy/internal/session"
	"github.com/curepoint/pharmacy/pkg/db"
	"github.com/curepoint/pharmacy/pkg/logging"
	"github.com/curepoint/pharmacy/pkg/middleware/auth"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type Deps struct {
	DB       *gorm.DB
	Sessions *session.Store

	Auth     *AuthHTTP
	Catalog  *CatalogHTTP
	Cart     *CartHTTP
	Employee *EmployeeHTTP
	Admin    *AdminHTTP

	// LoginLimiter guards the credential endpoints; nil disables it.
	LoginLimiter echo.MiddlewareFunc
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if err := db.Ping(c.Request().Context(), d.DB); err != nil {
			logging.FromContext(c.Request().Context()).Error("readiness_failed", "status", 503, "error", err)
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	})

	app := e.Group("", d.Sessions.Middleware())

	var credentials []echo.MiddlewareFunc
	if d.LoginLimiter != nil {
		credentials = append(credentials, d.LoginLimiter)
	}

	app.GET("/customer/login", d.Auth.LoginPage(session.RoleCustomer))
	app.GET("/employee/login", d.Auth.LoginPage(session.RoleEmployee))
	app.GET("/admin/login", d.Auth.LoginPage(session.RoleAdmin))
	app.POST("/customer/signup", d.Auth.Signup, credentials...)
	app.POST("/employee/signup", d.Auth.EmployeeSignup, credentials...)
	app.POST("/admin/signup", d.Auth.AdminSignup, credentials...)
	app.POST("/customer/login", d.Auth.CustomerLogin, credentials...)
	app.POST("/employee/login", d.Auth.EmployeeLogin, credentials...)
	app.POST("/admin/login", d.Auth.AdminLogin, credentials...)
	app.POST("/logout", d.Auth.Logout)

	app.GET("/medicines/search", d.Catalog.Search)
	app.GET("/medicines/:id", d.Catalog.GetMedicine)
	app.GET("/categories/:id/medicines", d.Catalog.ByCategory)

	customer := auth.Require(session.RoleCustomer)
	app.POST("/cart/:id", d.Cart.AddToCart, customer)

	cust := app.Group("/customer", customer)
	cust.GET("/cart", d.Cart.ViewCart)
	cust.DELETE("/cart/:id", d.Cart.RemoveFromCart)
	cust.POST("/cart/checkout", d.Cart.Checkout)
	cust.GET("/orders", d.Cart.ListOrders)

	emp := app.Group("/employee", auth.Require(session.RoleEmployee))
	emp.GET("/medicines", d.Employee.ListMedicines)
	emp.POST("/medicines", d.Employee.CreateMedicine)
	emp.PATCH("/medicines/:id", d.Employee.PatchMedicine)
	emp.DELETE("/medicines/:id", d.Employee.DeleteMedicine)
	emp.GET("/categories", d.Employee.ListCategories)
	emp.POST("/categories", d.Employee.CreateCategory)
	emp.PATCH("/categories/:id", d.Employee.PatchCategory)
	emp.DELETE("/categories/:id", d.Employee.DeleteCategory)
	emp.GET("/online-orders", d.Employee.OnlineOrders)
	emp.GET("/sales", d.Employee.ListSales)
	emp.POST("/sales", d.Employee.RecordSale)

	admin := app.Group("/admin", auth.Require(session.RoleAdmin))
	admin.GET("/branches", d.Admin.ListBranches)
	admin.POST("/branches", d.Admin.CreateBranch)
}
