package auth

import (
	"net/http"

	"github.com/curepoint/pharmacy/internal/session"
	"github.com/curepoint/pharmacy/pkg/logging"
	"github.com/labstack/echo/v4"
)

// Require admits only callers whose session role equals role. Roles are not
// ordered: an admin does not pass an employee route.
//
// Rejected callers are sent with 303 to a login page: their own role's page
// when logged in, otherwise the page of the required role.
func Require(role session.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			l := logging.FromContext(c.Request().Context()).With("middleware", "role.gate")

			sess := session.From(c)
			if sess == nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "session not loaded")
			}

			id, ok := sess.Identity()
			if ok && id.Role == role {
				setUserContext(c, id)
				return next(c)
			}

			target := role.LoginPath()
			if ok {
				target = id.Role.LoginPath()
				sess.AddFlash(session.FlashDanger, "You do not have access to this page.")
				l.Warn("role_rejected", "status", http.StatusSeeOther, "required", role, "role", id.Role)
			} else {
				sess.AddFlash(session.FlashWarning, "Please log in to continue.")
				l.Info("login_required", "status", http.StatusSeeOther, "required", role)
			}

			if err := sess.Save(c); err != nil {
				l.Error("role_gate_error", "status", 500, "error", err)
				return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
			}
			return c.Redirect(http.StatusSeeOther, target)
		}
	}
}

func setUserContext(c echo.Context, id session.Identity) {
	c.Set("user_id", id.UserID)
	c.Set("role", string(id.Role))
}

// UserID reads the id placed by Require.
func UserID(c echo.Context) (uint, bool) {
	id, ok := c.Get("user_id").(uint)
	return id, ok && id != 0
}
