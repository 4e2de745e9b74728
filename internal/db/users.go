package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/markjakearzadon/donation-gobackend/internal/models"
	"github.com/markjakearzadon/donation-gobackend/internal/services"
)

type UserRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{collection: db.Collection(usersCollection)}
}

func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	_, err := r.collection.InsertOne(ctx, u)
	return translate(err)
}

func (r *UserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *UserRepository) GetByMobile(ctx context.Context, mobile string) (*models.User, error) {
	var user models.User
	if err := r.collection.FindOne(ctx, bson.M{"mobile": mobile}).Decode(&user); err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd models.ProfileUpdate) (*models.User, error) {
	set := bson.M{"updated_at": time.Now()}
	if upd.FullName != nil {
		set["fullname"] = *upd.FullName
	}
	if upd.Email != nil {
		set["email"] = *upd.Email
	}
	if upd.IsPublicDonor != nil {
		set["is_public_donor"] = *upd.IsPublicDonor
	}
	if upd.BankName != nil {
		set["bank.bank_name"] = *upd.BankName
	}
	if upd.IBAN != nil {
		set["bank.iban"] = *upd.IBAN
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var user models.User
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&user); err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// SetTotals only moves the cache forward: the write matches when the stored
// accrual count is behind the one the totals were computed from.
func (r *UserRepository) SetTotals(ctx context.Context, id primitive.ObjectID, totals models.AccrualTotals) error {
	sortable, err := primitive.ParseDecimal128(totals.Total.String())
	if err != nil {
		return err
	}
	filter := bson.M{
		"_id": id,
		"$or": bson.A{
			bson.M{"accrual_count": bson.M{"$lt": totals.Count}},
			bson.M{"accrual_count": bson.M{"$exists": false}},
		},
	}
	update := bson.M{"$set": bson.M{
		"total_donations":     totals.Total,
		"total_donations_num": sortable,
		"points":              totals.Points,
		"accrual_count":       totals.Count,
	}}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return services.ErrStaleState
	}
	return nil
}

func (r *UserRepository) ListPublicDonors(ctx context.Context, limit int) ([]models.PublicDonor, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "total_donations_num", Value: -1}}).
		SetLimit(int64(limit)).
		SetProjection(bson.M{"fullname": 1, "total_donations": 1})
	cur, err := r.collection.Find(ctx, bson.M{"is_public_donor": true}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	donors := make([]models.PublicDonor, 0, len(users))
	for _, u := range users {
		donors = append(donors, models.PublicDonor{FullName: u.FullName, TotalDonations: u.TotalDonations})
	}
	return donors, nil
}
