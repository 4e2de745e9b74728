package db

import (
	"context"
	"fmt"
	"log"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the unique keys the workflow depends on for
// exactly-once behaviour, plus the listing indexes.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	unique := func() *options.IndexOptions { return options.Index().SetUnique(true) }

	specs := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "mobile", Value: 1}}, Options: unique()},
			{Keys: bson.D{{Key: "is_public_donor", Value: 1}, {Key: "total_donations_num", Value: -1}}},
		},
		donationsCollection: {
			{Keys: bson.D{{Key: "geidea_ref", Value: 1}}, Options: unique()},
			{
				Keys: bson.D{{Key: "submission_id", Value: 1}},
				Options: unique().SetPartialFilterExpression(bson.M{
					"submission_id": bson.M{"$exists": true},
				}),
			},
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "settled", Value: 1}, {Key: "updated_at", Value: 1}}},
		},
		submissionsCollection: {
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		certificatesCollection: {
			{Keys: bson.D{{Key: "certificate_number", Value: 1}}, Options: unique()},
			{Keys: bson.D{{Key: "donation_id", Value: 1}}, Options: unique()},
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		invoicesCollection: {
			{Keys: bson.D{{Key: "invoice_number", Value: 1}}, Options: unique()},
			{Keys: bson.D{{Key: "donation_id", Value: 1}}, Options: unique()},
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		accrualsCollection: {
			{Keys: bson.D{{Key: "donation_id", Value: 1}}, Options: unique()},
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
		},
	}

	for name, models := range specs {
		if _, err := database.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			log.Printf("Failed to create indexes on %s: %v", name, err)
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	return nil
}
