package db

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/markjakearzadon/donation-gobackend/internal/models"
)

type AccrualRepository struct {
	collection *mongo.Collection
}

func NewAccrualRepository(db *mongo.Database) *AccrualRepository {
	return &AccrualRepository{collection: db.Collection(accrualsCollection)}
}

func (r *AccrualRepository) Insert(ctx context.Context, e *models.AccrualEntry) error {
	_, err := r.collection.InsertOne(ctx, e)
	return translate(err)
}

// Totals sums the log in Go: amounts are decimal strings, which the
// aggregation pipeline cannot add without a lossy conversion.
func (r *AccrualRepository) Totals(ctx context.Context, userID primitive.ObjectID) (models.AccrualTotals, error) {
	var totals models.AccrualTotals
	opts := options.Find().SetProjection(bson.M{"amount": 1, "points": 1})
	cur, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return totals, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var e models.AccrualEntry
		if err := cur.Decode(&e); err != nil {
			return totals, err
		}
		totals.Total = totals.Total.Add(e.Amount)
		totals.Points += e.Points
		totals.Count++
	}
	return totals, cur.Err()
}
