package httpserver

import (
	"net/http"

	"github.com/curepoint/pharmacy/internal/service"
	"github.com/curepoint/pharmacy/internal/transport"
	"github.com/curepoint/pharmacy/pkg/logging"
	"github.com/labstack/echo/v4"
)

type AdminHTTP struct {
	Branches *service.BranchService
}

func (h *AdminHTTP) ListBranches(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.list_branches")

	branches, err := h.Branches.List(ctx)
	if err != nil {
		return fail(l, "list_branches_failed", err)
	}
	return c.JSON(http.StatusOK, branches)
}

func (h *AdminHTTP) CreateBranch(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.create_branch")

	var req transport.CreateBranchRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_branch_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	b, err := h.Branches.Create(ctx, req)
	if err != nil {
		return fail(l, "create_branch_failed", err)
	}

	l.Info("create_branch_success", "branch_id", b.ID)
	return c.JSON(http.StatusCreated, b)
}
