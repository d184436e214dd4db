package controllers

import (
	"context"
	"net/http"

	"bioshop/middleware"
	"bioshop/models"
	"bioshop/services"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// ReviewController handles product reviews and their moderation.
type ReviewController struct {
	reviews *services.ReviewService
	log     *zap.Logger
}

func NewReviewController(reviews *services.ReviewService, log *zap.Logger) *ReviewController {
	return &ReviewController{reviews: reviews, log: log}
}

// GetProductReviews lists the approved reviews of the product in the path.
func (rc *ReviewController) GetProductReviews(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	reviews, err := rc.reviews.ListForProduct(ctx, mux.Vars(r)["id"])
	if err != nil {
		respondError(w, rc.log, err)
		return
	}
	respondJSON(w, http.StatusOK, reviews)
}

func (rc *ReviewController) SubmitReview(w http.ResponseWriter, r *http.Request) {
	var in services.ReviewInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, rc.log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	review, err := rc.reviews.Submit(ctx, mux.Vars(r)["id"], in)
	if err != nil {
		respondError(w, rc.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, review)
}

type moderateRequest struct {
	Status models.ReviewStatus `json:"status"`
}

func (rc *ReviewController) ModerateReview(w http.ResponseWriter, r *http.Request) {
	var req moderateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, rc.log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := rc.reviews.Moderate(ctx, mux.Vars(r)["id"], req.Status); err != nil {
		respondError(w, rc.log, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": string(req.Status)})
}

type respondRequest struct {
	Body string `json:"body"`
}

// RespondToReview posts a reply signed with the caller's email.
func (rc *ReviewController) RespondToReview(w http.ResponseWriter, r *http.Request) {
	var req respondRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, rc.log, err)
		return
	}
	author := "staff"
	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok {
		author = claims.Email
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	resp, err := rc.reviews.Respond(ctx, mux.Vars(r)["id"], author, req.Body)
	if err != nil {
		respondError(w, rc.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, resp)
}

func (rc *ReviewController) DeleteReview(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := rc.reviews.Delete(ctx, mux.Vars(r)["id"]); err != nil {
		respondError(w, rc.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
