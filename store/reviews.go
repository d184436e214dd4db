package store

import (
	"context"
	"time"

	"bioshop/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReviewStore keeps reviews and the images and responses they own.
type ReviewStore struct {
	*Collection[models.Review, *models.Review]
	Images    *Collection[models.ReviewImage, *models.ReviewImage]
	Responses *Collection[models.ReviewResponse, *models.ReviewResponse]

	db *DB
}

func NewReviewStore(db *DB) *ReviewStore {
	return &ReviewStore{
		Collection: NewCollection[models.Review](db, ReviewsCollection),
		Images:     NewCollection[models.ReviewImage](db, ReviewImagesCollection),
		Responses:  NewCollection[models.ReviewResponse](db, ReviewResponsesCollection),
		db:         db,
	}
}

// ListForProduct returns the product's reviews with the given status, newest
// first, with their images and responses attached.
func (s *ReviewStore) ListForProduct(ctx context.Context, productID primitive.ObjectID, status models.ReviewStatus) ([]models.Review, error) {
	reviews, _, err := s.List(ctx, Query{Filter: bson.M{"product_id": productID, "status": status}})
	if err != nil {
		return nil, err
	}
	if err := s.attach(ctx, reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

func (s *ReviewStore) attach(ctx context.Context, reviews []models.Review) error {
	if len(reviews) == 0 {
		return nil
	}
	ids := make([]primitive.ObjectID, len(reviews))
	index := make(map[primitive.ObjectID]int, len(reviews))
	for i, r := range reviews {
		ids[i] = r.ID
		index[r.ID] = i
	}
	byReview := bson.M{"review_id": bson.M{"$in": ids}}
	asc := bson.D{{Key: "created_at", Value: 1}}

	images, _, err := s.Images.List(ctx, Query{Filter: byReview, Sort: asc})
	if err != nil {
		return err
	}
	for _, img := range images {
		r := &reviews[index[img.ReviewID]]
		r.Images = append(r.Images, img)
	}

	responses, _, err := s.Responses.List(ctx, Query{Filter: byReview, Sort: asc})
	if err != nil {
		return err
	}
	for _, resp := range responses {
		r := &reviews[index[resp.ReviewID]]
		r.Responses = append(r.Responses, resp)
	}
	return nil
}

// SetStatus moderates a review.
func (s *ReviewStore) SetStatus(ctx context.Context, id primitive.ObjectID, status models.ReviewStatus) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCascade removes a review with its images and responses in one transaction.
func (s *ReviewStore) DeleteCascade(ctx context.Context, id primitive.ObjectID) error {
	return s.db.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.Delete(ctx, id); err != nil {
			return err
		}
		if _, err := s.Images.DeleteMany(ctx, bson.M{"review_id": id}); err != nil {
			return err
		}
		_, err := s.Responses.DeleteMany(ctx, bson.M{"review_id": id})
		return err
	})
}

func (s *ReviewStore) AddImage(ctx context.Context, img *models.ReviewImage) error {
	return s.Images.Create(ctx, img)
}

func (s *ReviewStore) AddResponse(ctx context.Context, resp *models.ReviewResponse) error {
	return s.Responses.Create(ctx, resp)
}
