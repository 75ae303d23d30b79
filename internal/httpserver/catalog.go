package httpserver

import (
	"net/http"

	"github.com/curepoint/pharmacy/internal/service"
	"github.com/curepoint/pharmacy/internal/util"
	"github.com/curepoint/pharmacy/pkg/logging"
	"github.com/labstack/echo/v4"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func (h *CatalogHTTP) GetMedicine(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.get_medicine")

	id, ok := util.ParseID(c, "id")
	if !ok {
		l.Warn("get_medicine_failed", "status", 400, "reason", "id is not a positive integer")
		return echo.NewHTTPError(http.StatusBadRequest, "invalid medicine id")
	}

	med, err := h.Svc.GetMedicine(ctx, id)
	if err != nil {
		return fail(l, "get_medicine_failed", err)
	}
	return c.JSON(http.StatusOK, med)
}

func (h *CatalogHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.search")

	q := c.QueryParam("q")
	page, _, offset, limit := util.Page(c)

	total, items, err := h.Svc.Search(ctx, q, offset, limit)
	if err != nil {
		return fail(l, "search_failed", err)
	}

	l.Info("search_success", "query", q, "total", total)
	return c.JSON(http.StatusOK, pageResponse(items, page, offset, limit, total))
}

func (h *CatalogHTTP) ByCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.by_category")

	id, ok := util.ParseID(c, "id")
	if !ok {
		l.Warn("by_category_failed", "status", 400, "reason", "id is not a positive integer")
		return echo.NewHTTPError(http.StatusBadRequest, "invalid category id")
	}
	page, _, offset, limit := util.Page(c)

	cat, total, items, err := h.Svc.ByCategory(ctx, id, offset, limit)
	if err != nil {
		return fail(l, "by_category_failed", err)
	}

	resp := pageResponse(items, page, offset, limit, total)
	resp["category"] = cat
	return c.JSON(http.StatusOK, resp)
}
