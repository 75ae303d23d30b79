package httpserver

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/curepoint/pharmacy/internal/service"
	"github.com/curepoint/pharmacy/internal/session"
	"github.com/curepoint/pharmacy/internal/transport"
	"github.com/curepoint/pharmacy/internal/util"
	"github.com/curepoint/pharmacy/pkg/logging"
	"github.com/curepoint/pharmacy/pkg/middleware/auth"
	"github.com/labstack/echo/v4"
)

const (
	cartPath   = "/customer/cart"
	ordersPath = "/customer/orders"
)

type CartHTTP struct {
	Carts  *service.CartService
	Orders *service.OrderService
}

// parseQuantity treats a missing quantity as 1.
func parseQuantity(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("quantity must be a whole number: %w", service.ErrValidation)
	}
	if n < 1 {
		return 0, fmt.Errorf("quantity must be more than zero: %w", service.ErrValidation)
	}
	return n, nil
}

func (h *CartHTTP) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	id, ok := util.ParseID(c, "id")
	if !ok {
		l.Warn("add_to_cart_failed", "status", 400, "reason", "id is not a positive integer")
		return echo.NewHTTPError(http.StatusBadRequest, "invalid medicine id")
	}
	qty, err := parseQuantity(c.FormValue("quantity"))
	if err != nil {
		return fail(l, "add_to_cart_failed", err)
	}

	sess := session.From(c)
	if err := h.Carts.Add(ctx, sess, id, qty); err != nil {
		return fail(l, "add_to_cart_failed", err)
	}
	sess.AddFlash(session.FlashSuccess, "Added to cart.")
	if err := sess.Save(c); err != nil {
		return fail(l, "add_to_cart_failed", err)
	}

	l.Info("add_to_cart_success", "medicine_id", id, "quantity", qty)
	return c.Redirect(http.StatusSeeOther, cartPath)
}

func (h *CartHTTP) RemoveFromCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove")

	id, ok := util.ParseID(c, "id")
	if !ok {
		l.Warn("remove_from_cart_failed", "status", 400, "reason", "id is not a positive integer")
		return echo.NewHTTPError(http.StatusBadRequest, "invalid medicine id")
	}

	sess := session.From(c)
	if err := h.Carts.Remove(sess, id); err != nil {
		return fail(l, "remove_from_cart_failed", err)
	}
	if err := sess.Save(c); err != nil {
		return fail(l, "remove_from_cart_failed", err)
	}

	l.Info("remove_from_cart_success", "medicine_id", id)
	return h.renderCart(c, l, sess, http.StatusOK, "")
}

func (h *CartHTTP) ViewCart(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "cart.view")
	return h.renderCart(c, l, session.From(c), http.StatusOK, "")
}

// Checkout turns the cart into an order. On failure the cart is shown again,
// unchanged, with the reason.
func (h *CartHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.checkout")

	sess := session.From(c)
	customerID, ok := auth.UserID(c)
	if !ok {
		l.Error("checkout_failed", "status", 401, "reason", "no user in context")
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req transport.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("checkout_failed", "status", 400, "reason", "invalid body", "error", err)
		return h.renderCart(c, l, sess, http.StatusBadRequest, "Invalid checkout form.")
	}

	placed, err := h.Orders.Checkout(ctx, sess, customerID, req)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			l.Error("checkout_failed", "status", status, "customer_id", customerID, "error", err)
		} else {
			l.Warn("checkout_failed", "status", status, "customer_id", customerID, "error", err)
		}
		return h.renderCart(c, l, sess, status, publicMessage(err, status))
	}

	sess.AddFlash(session.FlashSuccess, fmt.Sprintf("Order #%d placed.", placed.Order.ID))
	if err := sess.Save(c); err != nil {
		// The order is committed; only the cookie update failed.
		l.Error("checkout_session_save_failed", "status", 500, "order_id", placed.Order.ID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "order placed but session could not be updated")
	}

	l.Info("checkout_success", "order_id", placed.Order.ID, "customer_id", customerID, "lines", len(placed.Details), "total", placed.Total)
	return c.Redirect(http.StatusSeeOther, ordersPath+"?placed=1")
}

func (h *CartHTTP) renderCart(c echo.Context, l *slog.Logger, sess *session.Session, status int, msg string) error {
	items, total, err := h.Carts.Resolve(c.Request().Context(), sess.Cart())
	if err != nil {
		l.Error("cart_view_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load cart")
	}

	return c.JSON(status, transport.CartView{
		Items:   items,
		Total:   total,
		Flashes: flashesOf(c, sess, l),
		Error:   msg,
	})
}

func (h *CartHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.orders")

	customerID, ok := auth.UserID(c)
	if !ok {
		l.Error("orders_failed", "status", 401, "reason", "no user in context")
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	orders, err := h.Orders.CustomerOrders(ctx, customerID)
	if err != nil {
		return fail(l, "orders_failed", err)
	}

	return c.JSON(http.StatusOK, transport.OrdersView{
		Placed:  c.QueryParam("placed") == "1",
		Orders:  orders,
		Flashes: flashesOf(c, session.From(c), l),
	})
}
