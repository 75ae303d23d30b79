package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/curepoint/pharmacy/internal/service"
	"github.com/curepoint/pharmacy/internal/session"
	"github.com/curepoint/pharmacy/internal/transport"
	"github.com/curepoint/pharmacy/pkg/logging"
	"github.com/labstack/echo/v4"
)

type AuthHTTP struct {
	Svc *service.AccountService
}

// LoginPage is where the role gate sends rejected callers.
func (h *AuthHTTP) LoginPage(role session.Role) echo.HandlerFunc {
	return func(c echo.Context) error {
		l := logging.FromContext(c.Request().Context()).With("handler", "auth.login_page")
		return c.JSON(http.StatusOK, transport.LoginPage{
			Role:    role,
			Flashes: flashesOf(c, session.From(c), l),
		})
	}
}

func (h *AuthHTTP) Signup(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.signup")

	var req transport.SignupRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("signup_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	customer, err := h.Svc.Signup(ctx, req.Name, req.Contact, req.Email, req.Password)
	if err != nil {
		return fail(l, "signup_failed", err)
	}

	l.Info("signup_success", "customer_id", customer.ID)
	return c.JSON(http.StatusCreated, customer)
}

func (h *AuthHTTP) EmployeeSignup(c echo.Context) error {
	return h.employeeSignup(c, "auth.employee_signup", false)
}

func (h *AuthHTTP) AdminSignup(c echo.Context) error {
	return h.employeeSignup(c, "auth.admin_signup", true)
}

func (h *AuthHTTP) employeeSignup(c echo.Context, handler string, asAdmin bool) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", handler)

	var req transport.EmployeeSignupRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("signup_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	employee, err := h.Svc.EmployeeSignup(ctx, req, asAdmin)
	if err != nil {
		return fail(l, "signup_failed", err)
	}

	l.Info("signup_success", "employee_id", employee.ID, "designation", employee.Designation)
	return c.JSON(http.StatusCreated, employee)
}

func (h *AuthHTTP) CustomerLogin(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.customer_login")

	var req transport.CustomerLoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	id, err := h.Svc.CustomerLogin(ctx, req.Email, req.Password)
	return h.login(c, l, id, err)
}

func (h *AuthHTTP) EmployeeLogin(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.employee_login")

	var req transport.EmployeeLoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	id, err := h.Svc.EmployeeLogin(ctx, req.EmployeeID, req.PIN)
	return h.login(c, l, id, err)
}

func (h *AuthHTTP) AdminLogin(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.admin_login")

	var req transport.EmployeeLoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	id, err := h.Svc.AdminLogin(ctx, req.EmployeeID, req.PIN)
	return h.login(c, l, id, err)
}

func (h *AuthHTTP) login(c echo.Context, l *slog.Logger, id session.Identity, err error) error {
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			l.Warn("login_failed", "status", 401, "reason", "invalid credentials")
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
		}
		l.Error("login_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	sess := session.From(c)
	if err := sess.Login(id); err != nil {
		l.Warn("login_failed", "status", 409, "reason", "role conflict", "error", err)
		return echo.NewHTTPError(http.StatusConflict, publicMessage(err, http.StatusConflict))
	}
	sess.AddFlash(session.FlashSuccess, "Welcome, "+id.DisplayName+".")
	if err := sess.Save(c); err != nil {
		l.Error("login_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Info("login_success", "user_id", id.UserID, "role", id.Role)
	return c.JSON(http.StatusOK, id)
}

// Logout drops identity and cart, then sends the caller to the login page of
// the role they held.
func (h *AuthHTTP) Logout(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "auth.logout")

	sess := session.From(c)
	target := session.RoleCustomer.LoginPath()
	if id, ok := sess.Identity(); ok {
		target = id.Role.LoginPath()
	}

	sess.Clear()
	sess.AddFlash(session.FlashInfo, "You have been logged out.")
	if err := sess.Save(c); err != nil {
		l.Error("logout_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Info("logout_success")
	return c.Redirect(http.StatusSeeOther, target)
}
