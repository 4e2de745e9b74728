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

type DonationRepository struct {
	collection *mongo.Collection
}

func NewDonationRepository(db *mongo.Database) *DonationRepository {
	return &DonationRepository{collection: db.Collection(donationsCollection)}
}

var newestFirst = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

func (r *DonationRepository) Insert(ctx context.Context, d *models.Donation) error {
	_, err := r.collection.InsertOne(ctx, d)
	return translate(err)
}

func (r *DonationRepository) findOne(ctx context.Context, filter bson.M) (*models.Donation, error) {
	var donation models.Donation
	if err := r.collection.FindOne(ctx, filter).Decode(&donation); err != nil {
		return nil, translate(err)
	}
	return &donation, nil
}

func (r *DonationRepository) GetByRef(ctx context.Context, ref string) (*models.Donation, error) {
	return r.findOne(ctx, bson.M{"geidea_ref": ref})
}

func (r *DonationRepository) GetBySubmission(ctx context.Context, submissionID primitive.ObjectID) (*models.Donation, error) {
	return r.findOne(ctx, bson.M{"submission_id": submissionID})
}

// Transition is a compare-and-set on status: the update only matches while
// the donation is still in from and was paid by one of methods.
func (r *DonationRepository) Transition(ctx context.Context, ref string, methods []models.PaymentMethod, from, to models.DonationStatus, at time.Time) (*models.Donation, error) {
	filter := bson.M{
		"geidea_ref":     ref,
		"status":         from,
		"payment_method": bson.M{"$in": methods},
	}
	update := bson.M{"$set": bson.M{
		"status":      to,
		"resolved_at": at,
		"updated_at":  at,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var donation models.Donation
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&donation)
	if err == nil {
		return &donation, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}
	n, err := r.collection.CountDocuments(ctx, bson.M{"geidea_ref": ref})
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, services.ErrNotFound
	}
	return nil, services.ErrStaleState
}

func (r *DonationRepository) MarkSettled(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"settled":    true,
		"settled_at": at,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return services.ErrNotFound
	}
	return nil
}

func (r *DonationRepository) find(ctx context.Context, filter bson.M) ([]models.Donation, error) {
	cur, err := r.collection.Find(ctx, filter, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var donations []models.Donation
	if err := cur.All(ctx, &donations); err != nil {
		return nil, err
	}
	return donations, nil
}

func (r *DonationRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Donation, error) {
	return r.find(ctx, bson.M{"user_id": userID})
}

func (r *DonationRepository) List(ctx context.Context, f models.DonationFilter) ([]models.Donation, error) {
	query := bson.M{}
	if f.Status != "" {
		query["status"] = f.Status
	}
	if f.From != nil || f.To != nil {
		created := bson.M{}
		if f.From != nil {
			created["$gte"] = *f.From
		}
		if f.To != nil {
			created["$lte"] = *f.To
		}
		query["created_at"] = created
	}
	return r.find(ctx, query)
}

func (r *DonationRepository) ListUnsettled(ctx context.Context, before time.Time) ([]models.Donation, error) {
	return r.find(ctx, bson.M{
		"status":     models.DonationConfirmed,
		"settled":    bson.M{"$ne": true},
		"updated_at": bson.M{"$lte": before},
	})
}
