package controllers

import (
	"context"
	"net/http"

	"bioshop/middleware"
	"bioshop/services"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// CartController handles the session cart endpoints. The session token is
// put on the request by middleware.CartSession.
type CartController struct {
	carts *services.CartService
	log   *zap.Logger
}

func NewCartController(carts *services.CartService, log *zap.Logger) *CartController {
	return &CartController{carts: carts, log: log}
}

type addToCartRequest struct {
	ProductID string `json:"productId"`
	Quantity  *int   `json:"quantity"`
}

type updateCartItemRequest struct {
	Quantity *int `json:"quantity"`
}

func (cc *CartController) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	cart, err := cc.carts.Get(ctx, middleware.SessionFromContext(r.Context()))
	if err != nil {
		respondError(w, cc.log, err)
		return
	}
	respondJSON(w, http.StatusOK, cart)
}

// AddToCart adds a product; quantity defaults to 1.
func (cc *CartController) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req addToCartRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, cc.log, err)
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	cart, err := cc.carts.AddItem(ctx, middleware.SessionFromContext(r.Context()), req.ProductID, quantity)
	if err != nil {
		respondError(w, cc.log, err)
		return
	}
	respondJSON(w, http.StatusOK, cart)
}

func (cc *CartController) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	var req updateCartItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, cc.log, err)
		return
	}
	// A missing quantity is rejected the same way as zero.
	quantity := 0
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	cart, err := cc.carts.UpdateItem(ctx, middleware.SessionFromContext(r.Context()), mux.Vars(r)["itemId"], quantity)
	if err != nil {
		respondError(w, cc.log, err)
		return
	}
	respondJSON(w, http.StatusOK, cart)
}

func (cc *CartController) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	cart, err := cc.carts.RemoveItem(ctx, middleware.SessionFromContext(r.Context()), mux.Vars(r)["itemId"])
	if err != nil {
		respondError(w, cc.log, err)
		return
	}
	respondJSON(w, http.StatusOK, cart)
}

func (cc *CartController) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	cart, err := cc.carts.Clear(ctx, middleware.SessionFromContext(r.Context()))
	if err != nil {
		respondError(w, cc.log, err)
		return
	}
	respondJSON(w, http.StatusOK, cart)
}
