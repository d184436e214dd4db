package testutil

import (
	"context"

	"bioshop/models"
	"bioshop/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Reviews keeps reviews with their images and responses in memory.
type Reviews struct {
	*Collection[models.Review, *models.Review]
	Images    *Collection[models.ReviewImage, *models.ReviewImage]
	Responses *Collection[models.ReviewResponse, *models.ReviewResponse]
}

func NewReviews() *Reviews {
	return &Reviews{
		Collection: NewCollection[models.Review](),
		Images:     NewCollection[models.ReviewImage](),
		Responses:  NewCollection[models.ReviewResponse](),
	}
}

func (s *Reviews) ListForProduct(ctx context.Context, productID primitive.ObjectID, status models.ReviewStatus) ([]models.Review, error) {
	all, _, err := s.List(ctx, store.Query{})
	if err != nil {
		return nil, err
	}
	images, _, _ := s.Images.List(ctx, store.Query{})
	responses, _, _ := s.Responses.List(ctx, store.Query{})

	out := []models.Review{}
	for _, r := range all {
		if r.ProductID != productID || r.Status != status {
			continue
		}
		for _, img := range images {
			if img.ReviewID == r.ID {
				r.Images = append(r.Images, img)
			}
		}
		for _, resp := range responses {
			if resp.ReviewID == r.ID {
				r.Responses = append(r.Responses, resp)
			}
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *Reviews) SetStatus(ctx context.Context, id primitive.ObjectID, status models.ReviewStatus) error {
	r, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	r.Status = status
	return s.Update(ctx, id, r)
}

func (s *Reviews) AddImage(ctx context.Context, img *models.ReviewImage) error {
	return s.Images.Create(ctx, img)
}

func (s *Reviews) AddResponse(ctx context.Context, resp *models.ReviewResponse) error {
	return s.Responses.Create(ctx, resp)
}

func (s *Reviews) DeleteCascade(ctx context.Context, id primitive.ObjectID) error {
	if err := s.Delete(ctx, id); err != nil {
		return err
	}
	images, _, _ := s.Images.List(ctx, store.Query{})
	for _, img := range images {
		if img.ReviewID == id {
			_ = s.Images.Delete(ctx, img.ID)
		}
	}
	responses, _, _ := s.Responses.List(ctx, store.Query{})
	for _, resp := range responses {
		if resp.ReviewID == id {
			_ = s.Responses.Delete(ctx, resp.ID)
		}
	}
	return nil
}
