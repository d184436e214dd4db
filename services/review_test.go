package services

import (
	"context"
	"testing"

	"bioshop/models"
	"bioshop/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestReviewService_Lifecycle(t *testing.T) {
	products := testutil.NewProducts()
	reviews := testutil.NewReviews()
	svc := NewReviewService(reviews, products, zap.NewNop())
	ctx := context.Background()
	p := products.Add("CB-100", 100)

	review, err := svc.Submit(ctx, p.ID.Hex(), ReviewInput{
		Author: "Ravi", Email: "ravi@example.com", Rating: 5, Body: "Sturdy and compostable.",
		Images: []string{"/uploads/r1.jpg", " "},
	})
	require.NoError(t, err)
	assert.Equal(t, models.ReviewPending, review.Status)
	require.Len(t, review.Images, 1)

	listed, err := svc.ListForProduct(ctx, p.ID.Hex())
	require.NoError(t, err)
	assert.Empty(t, listed, "pending reviews are hidden")

	require.NoError(t, svc.Moderate(ctx, review.ID.Hex(), models.ReviewApproved))
	_, err = svc.Respond(ctx, review.ID.Hex(), "Bioshop team", "Thank you!")
	require.NoError(t, err)

	listed, err = svc.ListForProduct(ctx, p.ID.Hex())
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Len(t, listed[0].Images, 1)
	require.Len(t, listed[0].Responses, 1)
	assert.Equal(t, "Thank you!", listed[0].Responses[0].Body)

	require.NoError(t, svc.Delete(ctx, review.ID.Hex()))
	assert.Equal(t, 0, reviews.Len())
	assert.Equal(t, 0, reviews.Images.Len())
	assert.Equal(t, 0, reviews.Responses.Len())

	assert.ErrorIs(t, svc.Delete(ctx, review.ID.Hex()), ErrNotFound)
}

func TestReviewService_Rejects(t *testing.T) {
	products := testutil.NewProducts()
	svc := NewReviewService(testutil.NewReviews(), products, zap.NewNop())
	ctx := context.Background()
	p := products.Add("CB-100", 100)

	_, err := svc.Submit(ctx, p.ID.Hex(), ReviewInput{Author: "Ravi", Rating: 6, Body: "x"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.Submit(ctx, primitive.NewObjectID().Hex(), ReviewInput{Author: "Ravi", Rating: 4, Body: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Moderate(ctx, primitive.NewObjectID().Hex(), "featured"), ErrValidation)
	assert.ErrorIs(t, svc.Moderate(ctx, primitive.NewObjectID().Hex(), models.ReviewApproved), ErrNotFound)
	_, err = svc.Respond(ctx, primitive.NewObjectID().Hex(), "team", "hi")
	assert.ErrorIs(t, err, ErrNotFound)
}
