package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/markjakearzadon/donation-gobackend/internal/models"
	"github.com/markjakearzadon/donation-gobackend/internal/services"
)

func donation(ref string, status models.DonationStatus) *models.Donation {
	now := time.Now()
	return &models.Donation{
		ID:            primitive.NewObjectID(),
		Amount:        models.NewMoney(decimal.NewFromInt(10)),
		Status:        status,
		PaymentMethod: models.PaymentOnline,
		GeideaRef:     ref,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestUniqueKeys(t *testing.T) {
	store := New().Store()
	ctx := context.Background()

	if err := store.Users.Create(ctx, &models.User{ID: primitive.NewObjectID(), Mobile: "+966500000001"}); err != nil {
		t.Fatal(err)
	}
	if err := store.Users.Create(ctx, &models.User{ID: primitive.NewObjectID(), Mobile: "+966500000001"}); !errors.Is(err, services.ErrDuplicate) {
		t.Errorf("duplicate mobile err = %v", err)
	}

	if err := store.Donations.Insert(ctx, donation("GD-1", models.DonationPending)); err != nil {
		t.Fatal(err)
	}
	if err := store.Donations.Insert(ctx, donation("GD-1", models.DonationPending)); !errors.Is(err, services.ErrDuplicate) {
		t.Errorf("duplicate ref err = %v", err)
	}

	subID := primitive.NewObjectID()
	first := donation("BT-1", models.DonationConfirmed)
	first.SubmissionID = &subID
	second := donation("BT-2", models.DonationConfirmed)
	second.SubmissionID = &subID
	if err := store.Donations.Insert(ctx, first); err != nil {
		t.Fatal(err)
	}
	if err := store.Donations.Insert(ctx, second); !errors.Is(err, services.ErrDuplicate) {
		t.Errorf("duplicate submission err = %v", err)
	}

	donationID := primitive.NewObjectID()
	cert := &models.Certificate{ID: primitive.NewObjectID(), CertificateNumber: "CERT-1", DonationID: donationID}
	if err := store.Documents.InsertCertificate(ctx, cert); err != nil {
		t.Fatal(err)
	}
	again := &models.Certificate{ID: primitive.NewObjectID(), CertificateNumber: "CERT-2", DonationID: donationID}
	if err := store.Documents.InsertCertificate(ctx, again); !errors.Is(err, services.ErrDuplicate) {
		t.Errorf("second certificate for donation err = %v", err)
	}

	entry := &models.AccrualEntry{ID: primitive.NewObjectID(), DonationID: donationID, UserID: primitive.NewObjectID()}
	if err := store.Accruals.Insert(ctx, entry); err != nil {
		t.Fatal(err)
	}
	dup := *entry
	dup.ID = primitive.NewObjectID()
	if err := store.Accruals.Insert(ctx, &dup); !errors.Is(err, services.ErrDuplicate) {
		t.Errorf("duplicate accrual err = %v", err)
	}
}

func TestTransitionIsCompareAndSet(t *testing.T) {
	store := New().Store()
	ctx := context.Background()
	if err := store.Donations.Insert(ctx, donation("GD-1", models.DonationPending)); err != nil {
		t.Fatal(err)
	}

	d, err := store.Donations.Transition(ctx, "GD-1", models.PaymentMethods, models.DonationPending, models.DonationConfirmed, time.Now())
	if err != nil || d.Status != models.DonationConfirmed || d.ResolvedAt == nil {
		t.Fatalf("Transition = %+v, %v", d, err)
	}
	if _, err := store.Donations.Transition(ctx, "GD-1", models.PaymentMethods, models.DonationPending, models.DonationFailed, time.Now()); !errors.Is(err, services.ErrStaleState) {
		t.Errorf("second transition err = %v", err)
	}
	if _, err := store.Donations.Transition(ctx, "GD-404", models.PaymentMethods, models.DonationPending, models.DonationFailed, time.Now()); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("missing ref err = %v", err)
	}
}

func TestTransitionChecksPaymentMethod(t *testing.T) {
	store := New().Store()
	ctx := context.Background()
	d := donation("GD-2", models.DonationPending)
	d.PaymentMethod = models.PaymentBankTransfer
	if err := store.Donations.Insert(ctx, d); err != nil {
		t.Fatal(err)
	}

	online := []models.PaymentMethod{models.PaymentOnline}
	if _, err := store.Donations.Transition(ctx, "GD-2", online, models.DonationPending, models.DonationConfirmed, time.Now()); !errors.Is(err, services.ErrStaleState) {
		t.Fatalf("online-only transition of a bank transfer err = %v", err)
	}
	got, err := store.Donations.GetByRef(ctx, "GD-2")
	if err != nil || got.Status != models.DonationPending {
		t.Fatalf("donation after rejected transition = %+v, %v", got, err)
	}
	if _, err := store.Donations.Transition(ctx, "GD-2", models.PaymentMethods, models.DonationPending, models.DonationConfirmed, time.Now()); err != nil {
		t.Errorf("transition with every method: %v", err)
	}
}

func TestResolveSubmissionOnlyFromPending(t *testing.T) {
	store := New().Store()
	ctx := context.Background()
	sub := &models.BankTransferSubmission{ID: primitive.NewObjectID(), Status: models.SubmissionPending, CreatedAt: time.Now()}
	if err := store.Submissions.Insert(ctx, sub); err != nil {
		t.Fatal(err)
	}
	review := models.Review{Decision: models.SubmissionApproved, ReviewerID: primitive.NewObjectID(), At: time.Now()}

	got, err := store.Submissions.Resolve(ctx, sub.ID, review)
	if err != nil || got.Status != models.SubmissionApproved || got.ReviewedBy == nil {
		t.Fatalf("Resolve = %+v, %v", got, err)
	}
	if _, err := store.Submissions.Resolve(ctx, sub.ID, review); !errors.Is(err, services.ErrStaleState) {
		t.Errorf("second resolve err = %v", err)
	}
	if _, err := store.Submissions.Resolve(ctx, primitive.NewObjectID(), review); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("missing submission err = %v", err)
	}
}

func TestSetTotalsOnlyMovesForward(t *testing.T) {
	store := New().Store()
	ctx := context.Background()
	u := &models.User{ID: primitive.NewObjectID(), Mobile: "+966500000009"}
	if err := store.Users.Create(ctx, u); err != nil {
		t.Fatal(err)
	}

	newer := models.AccrualTotals{Total: models.NewMoney(decimal.NewFromInt(30)), Points: 300, Count: 2}
	older := models.AccrualTotals{Total: models.NewMoney(decimal.NewFromInt(10)), Points: 100, Count: 1}
	if err := store.Users.SetTotals(ctx, u.ID, newer); err != nil {
		t.Fatal(err)
	}
	if err := store.Users.SetTotals(ctx, u.ID, older); !errors.Is(err, services.ErrStaleState) {
		t.Errorf("stale totals err = %v", err)
	}
	got, _ := store.Users.GetByID(ctx, u.ID)
	if got.Points != 300 {
		t.Errorf("points = %d, want 300", got.Points)
	}
}

func TestAccrualTotals(t *testing.T) {
	store := New().Store()
	ctx := context.Background()
	userID := primitive.NewObjectID()
	for _, amount := range []string{"10.5", "20.25"} {
		m := models.NewMoney(decimal.RequireFromString(amount))
		e := &models.AccrualEntry{ID: primitive.NewObjectID(), DonationID: primitive.NewObjectID(), UserID: userID, Amount: m, Points: m.Points()}
		if err := store.Accruals.Insert(ctx, e); err != nil {
			t.Fatal(err)
		}
	}
	totals, err := store.Accruals.Totals(ctx, userID)
	if err != nil {
		t.Fatal(err)
	}
	if totals.Total.String() != "30.75" || totals.Points != 307 || totals.Count != 2 {
		t.Errorf("totals = %s/%d/%d", totals.Total.String(), totals.Points, totals.Count)
	}
}

func TestCanceledContext(t *testing.T) {
	store := New().Store()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.Donations.GetByRef(ctx, "GD-1"); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
