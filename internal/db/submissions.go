package db

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/markjakearzadon/donation-gobackend/internal/models"
	"github.com/markjakearzadon/donation-gobackend/internal/services"
)

type SubmissionRepository struct {
	collection *mongo.Collection
}

func NewSubmissionRepository(db *mongo.Database) *SubmissionRepository {
	return &SubmissionRepository{collection: db.Collection(submissionsCollection)}
}

func (r *SubmissionRepository) Insert(ctx context.Context, s *models.BankTransferSubmission) error {
	_, err := r.collection.InsertOne(ctx, s)
	return translate(err)
}

func (r *SubmissionRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.BankTransferSubmission, error) {
	var sub models.BankTransferSubmission
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&sub); err != nil {
		return nil, translate(err)
	}
	return &sub, nil
}

// Resolve matches only pending submissions, so two reviewers racing on the
// same submission cannot both succeed.
func (r *SubmissionRepository) Resolve(ctx context.Context, id primitive.ObjectID, review models.Review) (*models.BankTransferSubmission, error) {
	filter := bson.M{"_id": id, "status": models.SubmissionPending}
	update := bson.M{"$set": bson.M{
		"status":      review.Decision,
		"notes":       review.Notes,
		"reviewed_by": review.ReviewerID,
		"reviewed_at": review.At,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var sub models.BankTransferSubmission
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&sub)
	if err == nil {
		return &sub, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}
	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, services.ErrNotFound
	}
	return nil, services.ErrStaleState
}

func (r *SubmissionRepository) find(ctx context.Context, filter bson.M) ([]models.BankTransferSubmission, error) {
	cur, err := r.collection.Find(ctx, filter, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var subs []models.BankTransferSubmission
	if err := cur.All(ctx, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *SubmissionRepository) List(ctx context.Context, status models.SubmissionStatus) ([]models.BankTransferSubmission, error) {
	query := bson.M{}
	if status != "" {
		query["status"] = status
	}
	return r.find(ctx, query)
}

func (r *SubmissionRepository) ListApprovedBefore(ctx context.Context, before time.Time) ([]models.BankTransferSubmission, error) {
	return r.find(ctx, bson.M{
		"status":      models.SubmissionApproved,
		"reviewed_at": bson.M{"$lte": before},
	})
}
