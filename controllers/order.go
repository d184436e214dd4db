package controllers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bioshop/middleware"
	"bioshop/models"
	"bioshop/services"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// OrderController handles checkout and order management.
type OrderController struct {
	orders *services.OrderService
	log    *zap.Logger
}

func NewOrderController(orders *services.OrderService, log *zap.Logger) *OrderController {
	return &OrderController{orders: orders, log: log}
}

// CreateOrder converts the session's cart into an order.
func (oc *OrderController) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var details models.CheckoutDetails
	if err := decodeJSON(w, r, &details); err != nil {
		respondError(w, oc.log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), orderTimeout)
	defer cancel()

	order, err := oc.orders.Create(ctx, middleware.SessionFromContext(r.Context()), details)
	if err != nil {
		respondError(w, oc.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, order)
}

// GetOrders is the storefront lookup. It needs a customer email or an order
// number and never lists orders unfiltered.
func (oc *OrderController) GetOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if strings.TrimSpace(q.Get("customerEmail")) == "" && strings.TrimSpace(q.Get("orderNumber")) == "" {
		respondError(w, oc.log, invalid("customerEmail or orderNumber is required"))
		return
	}
	oc.listOrders(w, r)
}

// ListOrders is the back-office listing; every filter is optional.
func (oc *OrderController) ListOrders(w http.ResponseWriter, r *http.Request) {
	oc.listOrders(w, r)
}

func (oc *OrderController) listOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := models.OrderFilter{
		CustomerEmail: q.Get("customerEmail"),
		OrderNumber:   q.Get("orderNumber"),
		Status:        models.OrderStatus(q.Get("status")),
	}
	if v := q.Get("limit"); v != "" {
		f.Limit, _ = strconv.Atoi(v)
	}
	var err error
	if f.From, err = parseDate(q.Get("from"), false); err != nil {
		respondError(w, oc.log, err)
		return
	}
	if f.To, err = parseDate(q.Get("to"), true); err != nil {
		respondError(w, oc.log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	orders, err := oc.orders.List(ctx, f)
	if err != nil {
		respondError(w, oc.log, err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

// GetOrder returns an order placed by the caller's session.
func (oc *OrderController) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	order, err := oc.orders.GetForSession(ctx, mux.Vars(r)["id"], middleware.SessionFromContext(r.Context()))
	if err != nil {
		respondError(w, oc.log, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func (oc *OrderController) AdminGetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	order, err := oc.orders.Get(ctx, mux.Vars(r)["id"])
	if err != nil {
		respondError(w, oc.log, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// UpdateOrderStatus changes status, payment status or fulfillment status.
func (oc *OrderController) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var u models.OrderStatusUpdate
	if err := decodeJSON(w, r, &u); err != nil {
		respondError(w, oc.log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), orderTimeout)
	defer cancel()

	order, err := oc.orders.UpdateStatus(ctx, mux.Vars(r)["id"], u)
	if err != nil {
		respondError(w, oc.log, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// parseDate accepts YYYY-MM-DD or RFC 3339. A bare date used as an upper
// bound covers the whole day.
func parseDate(v string, endOfDay bool) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, invalid("invalid date %q", v)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
