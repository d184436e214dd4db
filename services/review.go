package services

import (
	"context"
	"fmt"
	"strings"

	"bioshop/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ReviewInput is what a customer submits for a product.
type ReviewInput struct {
	Author string   `json:"author"`
	Email  string   `json:"email"`
	Rating int      `json:"rating"`
	Title  string   `json:"title"`
	Body   string   `json:"body"`
	Images []string `json:"images"`
}

// ReviewService handles submission and moderation of product reviews.
type ReviewService struct {
	reviews  ReviewRepository
	products ProductReader
	log      *zap.Logger
}

func NewReviewService(reviews ReviewRepository, products ProductReader, log *zap.Logger) *ReviewService {
	return &ReviewService{reviews: reviews, products: products, log: log}
}

// Submit records a pending review of an active product.
func (s *ReviewService) Submit(ctx context.Context, productID string, in ReviewInput) (*models.Review, error) {
	pid, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return nil, notFound("product not found")
	}
	product, err := s.products.Get(ctx, pid)
	if err != nil {
		return nil, orNotFound(err, "product not found")
	}
	if !product.Active {
		return nil, notFound("product not found")
	}

	review := &models.Review{
		ProductID: pid,
		Author:    in.Author,
		Email:     strings.TrimSpace(in.Email),
		Rating:    in.Rating,
		Title:     strings.TrimSpace(in.Title),
		Body:      in.Body,
		Status:    models.ReviewPending,
	}
	if err := review.Validate(); err != nil {
		return nil, err
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}
	for _, url := range in.Images {
		if url = strings.TrimSpace(url); url == "" {
			continue
		}
		img := &models.ReviewImage{ReviewID: review.ID, URL: url}
		if err := s.reviews.AddImage(ctx, img); err != nil {
			return nil, fmt.Errorf("attach review image: %w", err)
		}
		review.Images = append(review.Images, *img)
	}
	return review, nil
}

// ListForProduct returns the approved reviews shown on a product page.
func (s *ReviewService) ListForProduct(ctx context.Context, productID string) ([]models.Review, error) {
	pid, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return nil, notFound("product not found")
	}
	return s.reviews.ListForProduct(ctx, pid, models.ReviewApproved)
}

// Moderate approves or rejects a review.
func (s *ReviewService) Moderate(ctx context.Context, id string, status models.ReviewStatus) error {
	switch status {
	case models.ReviewPending, models.ReviewApproved, models.ReviewRejected:
	default:
		return validation("unknown review status %q", status)
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return notFound("review not found")
	}
	return orNotFound(s.reviews.SetStatus(ctx, oid, status), "review not found")
}

// Respond adds a staff reply to a review.
func (s *ReviewService) Respond(ctx context.Context, id, author, body string) (*models.ReviewResponse, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, validation("body is required")
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, notFound("review not found")
	}
	if _, err := s.reviews.Get(ctx, oid); err != nil {
		return nil, orNotFound(err, "review not found")
	}
	resp := &models.ReviewResponse{ReviewID: oid, Author: author, Body: body}
	if err := s.reviews.AddResponse(ctx, resp); err != nil {
		return nil, fmt.Errorf("add review response: %w", err)
	}
	return resp, nil
}

// Delete removes a review with its images and responses.
func (s *ReviewService) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return notFound("review not found")
	}
	if err := s.reviews.DeleteCascade(ctx, oid); err != nil {
		return orNotFound(err, "review not found")
	}
	s.log.Info("review deleted", zap.String("review_id", id))
	return nil
}
