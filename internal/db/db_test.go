package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/markjakearzadon/donation-gobackend/internal/models"
	"github.com/markjakearzadon/donation-gobackend/internal/services"
)

func toDoc(t *testing.T, v any) bson.D {
	t.Helper()
	raw, err := bson.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	var doc bson.D
	if err := bson.Unmarshal(raw, &doc); err != nil {
		t.Fatal(err)
	}
	return doc
}

func ns(coll string) string { return "test." + coll }

var onlineOnly = []models.PaymentMethod{models.PaymentOnline}

func sampleDonation() *models.Donation {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &models.Donation{
		ID:            primitive.NewObjectID(),
		DonorName:     "Sara",
		Amount:        models.NewMoney(decimal.NewFromInt(100)),
		Type:          models.TypeGeneral,
		PaymentMethod: models.PaymentOnline,
		Status:        models.DonationConfirmed,
		GeideaRef:     "GD-TEST",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestDonationTransition(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("applies", func(mt *mtest.T) {
		repo := NewDonationRepository(mt.DB)
		d := sampleDonation()
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: toDoc(mt.T, d)}))

		got, err := repo.Transition(context.Background(), d.GeideaRef, onlineOnly, models.DonationPending, models.DonationConfirmed, time.Now())
		if err != nil {
			mt.Fatal(err)
		}
		if got.ID != d.ID || got.Status != models.DonationConfirmed || got.Amount.String() != "100" {
			mt.Errorf("transition returned %+v", got)
		}

		started := mt.GetStartedEvent()
		if started == nil {
			mt.Fatal("no command recorded")
		}
		methods, err := started.Command.Lookup("query", "payment_method", "$in").Array().Values()
		if err != nil || len(methods) != 1 || methods[0].StringValue() != string(models.PaymentOnline) {
			mt.Errorf("transition filter methods = %v, %v", methods, err)
		}
	})

	mt.Run("stale", func(mt *mtest.T) {
		repo := NewDonationRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			mtest.CreateCursorResponse(0, ns(donationsCollection), mtest.FirstBatch, bson.D{{Key: "n", Value: int32(1)}}),
		)

		_, err := repo.Transition(context.Background(), "GD-TEST", onlineOnly, models.DonationPending, models.DonationConfirmed, time.Now())
		if !errors.Is(err, services.ErrStaleState) {
			mt.Errorf("err = %v, want ErrStaleState", err)
		}
	})

	mt.Run("missing", func(mt *mtest.T) {
		repo := NewDonationRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			mtest.CreateCursorResponse(0, ns(donationsCollection), mtest.FirstBatch),
		)

		_, err := repo.Transition(context.Background(), "GD-NOPE", onlineOnly, models.DonationPending, models.DonationConfirmed, time.Now())
		if !errors.Is(err, services.ErrNotFound) {
			mt.Errorf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestSubmissionResolveStale(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("already reviewed", func(mt *mtest.T) {
		repo := NewSubmissionRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			mtest.CreateCursorResponse(0, ns(submissionsCollection), mtest.FirstBatch, bson.D{{Key: "n", Value: int32(1)}}),
		)

		review := models.Review{Decision: models.SubmissionApproved, ReviewerID: primitive.NewObjectID(), At: time.Now()}
		_, err := repo.Resolve(context.Background(), primitive.NewObjectID(), review)
		if !errors.Is(err, services.ErrStaleState) {
			mt.Errorf("err = %v, want ErrStaleState", err)
		}
	})
}

func TestInsertDuplicate(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("user mobile", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: test.user index: mobile_1",
		}))

		err := repo.Create(context.Background(), &models.User{ID: primitive.NewObjectID(), Mobile: "+966500000001"})
		if !errors.Is(err, services.ErrDuplicate) {
			mt.Errorf("err = %v, want ErrDuplicate", err)
		}
	})

	mt.Run("accrual per donation", func(mt *mtest.T) {
		repo := NewAccrualRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: test.accruals index: donation_id_1",
		}))

		err := repo.Insert(context.Background(), &models.AccrualEntry{ID: primitive.NewObjectID(), DonationID: primitive.NewObjectID()})
		if !errors.Is(err, services.ErrDuplicate) {
			mt.Errorf("err = %v, want ErrDuplicate", err)
		}
	})

	mt.Run("success", func(mt *mtest.T) {
		repo := NewDonationRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		if err := repo.Insert(context.Background(), sampleDonation()); err != nil {
			mt.Errorf("insert: %v", err)
		}
	})
}

func TestFind(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("by ref not found", func(mt *mtest.T) {
		repo := NewDonationRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(donationsCollection), mtest.FirstBatch))

		_, err := repo.GetByRef(context.Background(), "GD-NOPE")
		if !errors.Is(err, services.ErrNotFound) {
			mt.Errorf("err = %v, want ErrNotFound", err)
		}
	})

	mt.Run("list by user", func(mt *mtest.T) {
		repo := NewDonationRepository(mt.DB)
		a, b := sampleDonation(), sampleDonation()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(donationsCollection), mtest.FirstBatch, toDoc(mt.T, a), toDoc(mt.T, b)))

		got, err := repo.ListByUser(context.Background(), primitive.NewObjectID())
		if err != nil {
			mt.Fatal(err)
		}
		if len(got) != 2 || got[0].ID != a.ID || got[1].ID != b.ID {
			mt.Errorf("got %d donations", len(got))
		}
	})

	mt.Run("accrual totals", func(mt *mtest.T) {
		repo := NewAccrualRepository(mt.DB)
		user := primitive.NewObjectID()
		batch := []bson.D{
			toDoc(mt.T, &models.AccrualEntry{ID: primitive.NewObjectID(), UserID: user, Amount: models.NewMoney(decimal.RequireFromString("10.50")), Points: 105}),
			toDoc(mt.T, &models.AccrualEntry{ID: primitive.NewObjectID(), UserID: user, Amount: models.NewMoney(decimal.RequireFromString("0.25")), Points: 2}),
		}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(accrualsCollection), mtest.FirstBatch, batch...))

		totals, err := repo.Totals(context.Background(), user)
		if err != nil {
			mt.Fatal(err)
		}
		if totals.Total.String() != "10.75" || totals.Points != 107 || totals.Count != 2 {
			mt.Errorf("totals = %s/%d/%d", totals.Total.String(), totals.Points, totals.Count)
		}
	})
}

func TestMarkSettledMissing(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("no match", func(mt *mtest.T) {
		repo := NewDonationRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		err := repo.MarkSettled(context.Background(), primitive.NewObjectID(), time.Now())
		if !errors.Is(err, services.ErrNotFound) {
			mt.Errorf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestTransactorDisabledRunsInline(t *testing.T) {
	tx := &Transactor{}
	called := false
	err := tx.WithTransaction(context.Background(), func(ctx context.Context) error {
		called = true
		return errors.New("boom")
	})
	if !called || err == nil || err.Error() != "boom" {
		t.Errorf("called=%t err=%v", called, err)
	}
}

func TestTranslate(t *testing.T) {
	if translate(nil) != nil {
		t.Error("nil should stay nil")
	}
	other := errors.New("network")
	if !errors.Is(translate(other), other) {
		t.Error("unknown errors pass through")
	}
}
