package httpserver

import (
	"net/http"

	"github.com/curepoint/pharmacy/internal/service"
	"github.com/curepoint/pharmacy/internal/transport"
	"github.com/curepoint/pharmacy/internal/util"
	"github.com/curepoint/pharmacy/pkg/logging"
	"github.com/curepoint/pharmacy/pkg/middleware/auth"
	"github.com/labstack/echo/v4"
)

type EmployeeHTTP struct {
	Catalog *service.CatalogService
	Orders  *service.OrderService
	Sales   *service.SalesService
}

func (h *EmployeeHTTP) ListMedicines(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "employee.list_medicines")

	page, _, offset, limit := util.Page(c)
	total, items, err := h.Catalog.ListMedicines(ctx, offset, limit)
	if err != nil {
		return fail(l, "list_medicines_failed", err)
	}
	return c.JSON(http.StatusOK, pageResponse(items, page, offset, limit, total))
}

func (h *EmployeeHTTP) CreateMedicine(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "employee.create_medicine")

	var req transport.CreateMedicineRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_medicine_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	med, err := h.Catalog.CreateMedicine(ctx, req)
	if err != nil {
		return fail(l, "create_medicine_failed", err)
	}

	l.Info("create_medicine_success", "medicine_id", med.ID)
	return c.JSON(http.StatusCreated, med)
}

func (h *EmployeeHTTP) PatchMedicine(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "employee.patch_medicine")

	id, ok := util.ParseID(c, "id")
	if !ok {
		l.Warn("patch_medicine_failed", "status", 400, "reason", "id is not a positive integer")
		return echo.NewHTTPError(http.StatusBadRequest, "invalid medicine id")
	}

	var req transport.PatchMedicineRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("patch_medicine_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	med, err := h.Catalog.PatchMedicine(ctx, req, id)
	if err != nil {
		return fail(l, "patch_medicine_failed", err)
	}

	l.Info("patch_medicine_success", "medicine_id", id)
	return c.JSON(http.StatusOK, med)
}

func (h *EmployeeHTTP) DeleteMedicine(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "employee.delete_medicine")

	id, ok := util.ParseID(c, "id")
	if !ok {
		l.Warn("delete_medicine_failed", "status", 400, "reason", "id is not a positive integer")
		return echo.NewHTTPError(http.StatusBadRequest, "invalid medicine id")
	}

	if err := h.Catalog.DeleteMedicine(ctx, id); err != nil {
		return fail(l, "delete_medicine_failed", err)
	}

	l.Info("delete_medicine_success", "medicine_id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *EmployeeHTTP) ListCategories(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "employee.list_categories")

	cats, err := h.Catalog.ListCategories(ctx)
	if err != nil {
		return fail(l, "list_categories_failed", err)
	}
	return c.JSON(http.StatusOK, cats)
}

func (h *EmployeeHTTP) CreateCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "employee.create_category")

	var req transport.CategoryRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_category_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	cat, err := h.Catalog.CreateCategory(ctx, req)
	if err != nil {
		return fail(l, "create_category_failed", err)
	}

	l.Info("create_category_success", "category_id", cat.ID)
	return c.JSON(http.StatusCreated, cat)
}

func (h *EmployeeHTTP) PatchCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "employee.patch_category")

	id, ok := util.ParseID(c, "id")
	if !ok {
		l.Warn("patch_category_failed", "status", 400, "reason", "id is not a positive integer")
		return echo.NewHTTPError(http.StatusBadRequest, "invalid category id")
	}

	var req transport.PatchCategoryRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("patch_category_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	cat, err := h.Catalog.PatchCategory(ctx, req, id)
	if err != nil {
		return fail(l, "patch_category_failed", err)
	}

	l.Info("patch_category_success", "category_id", id)
	return c.JSON(http.StatusOK, cat)
}

func (h *EmployeeHTTP) DeleteCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "employee.delete_category")

	id, ok := util.ParseID(c, "id")
	if !ok {
		l.Warn("delete_category_failed", "status", 400, "reason", "id is not a positive integer")
		return echo.NewHTTPError(http.StatusBadRequest, "invalid category id")
	}

	if err := h.Catalog.DeleteCategory(ctx, id); err != nil {
		return fail(l, "delete_category_failed", err)
	}

	l.Info("delete_category_success", "category_id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *EmployeeHTTP) OnlineOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "employee.online_orders")

	page, size, offset, limit := util.Page(c)
	rows, err := h.Orders.OnlineOrders(ctx, offset, limit)
	if err != nil {
		return fail(l, "online_orders_failed", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"data": rows, "meta": map[string]any{"page": page, "size": size}})
}

func (h *EmployeeHTTP) ListSales(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "employee.list_sales")

	page, size, offset, limit := util.Page(c)
	groups, err := h.Sales.ListSales(ctx, offset, limit)
	if err != nil {
		return fail(l, "list_sales_failed", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"data": groups, "meta": map[string]any{"page": page, "size": size}})
}

func (h *EmployeeHTTP) RecordSale(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "employee.record_sale")

	employeeID, ok := auth.UserID(c)
	if !ok {
		l.Error("record_sale_failed", "status", 401, "reason", "no user in context")
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req transport.CreateSaleRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("record_sale_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	sale, err := h.Sales.RecordSale(ctx, employeeID, req)
	if err != nil {
		return fail(l, "record_sale_failed", err)
	}

	l.Info("record_sale_success", "sale_id", sale.SaleID, "employee_id", employeeID, "total", sale.Total)
	return c.JSON(http.StatusCreated, sale)
}
