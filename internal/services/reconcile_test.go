package services_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/markjakearzadon/donation-gobackend/internal/memstore"
	"github.com/markjakearzadon/donation-gobackend/internal/models"
	"github.com/markjakearzadon/donation-gobackend/internal/services"
)

// flakyDocuments fails the first n invoice inserts, standing in for a crash
// between the status flip and document issuance.
type flakyDocuments struct {
	services.DocumentRepository
	failures atomic.Int32
}

var errStoreDown = errors.New("store unavailable")

func (f *flakyDocuments) InsertInvoice(ctx context.Context, i *models.Invoice) error {
	if f.failures.Add(-1) >= 0 {
		return errStoreDown
	}
	return f.DocumentRepository.InsertInvoice(ctx, i)
}

func TestReconcileRepairsPartialConfirmation(t *testing.T) {
	store := memstore.New().Store()
	docs := &flakyDocuments{DocumentRepository: store.Documents}
	docs.failures.Store(1)
	store.Documents = docs
	h := newHarnessWithStore(t, store)
	ctx := context.Background()
	u := h.newUser(t)

	res, err := h.ledger.CreateIntent(ctx, online("200", &u.ID))
	if err != nil {
		t.Fatal(err)
	}
	ref := res.Donation.GeideaRef
	if _, err := h.ledger.ResolveByReference(ctx, ref, services.OutcomeSuccess, onlineOnly); !errors.Is(err, errStoreDown) {
		t.Fatalf("resolve err = %v, want store failure", err)
	}

	// The status flip happened first, so the donation is detectably
	// confirmed but unsettled.
	d, err := h.store.Donations.GetByRef(ctx, ref)
	if err != nil {
		t.Fatal(err)
	}
	if d.Status != models.DonationConfirmed || d.Settled {
		t.Fatalf("after crash: status=%s settled=%t", d.Status, d.Settled)
	}
	if _, err := h.store.Documents.InvoiceByDonation(ctx, d.ID); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("invoice should be missing: %v", err)
	}

	// A retried callback does not repair it; that is the reconciler's job.
	again, err := h.ledger.ResolveByReference(ctx, ref, services.OutcomeSuccess, onlineOnly)
	if err != nil || again.Changed {
		t.Fatalf("retry = %+v, %v", again, err)
	}

	h.reconciler.Grace = 0
	report, err := h.reconciler.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.DonationsSettled != 1 || len(report.Failures) != 0 {
		t.Fatalf("report = %+v", report)
	}

	d, _ = h.store.Donations.GetByRef(ctx, ref)
	if !d.Settled {
		t.Error("donation still unsettled")
	}
	h.assertDocuments(t, d)
	h.assertTotals(t, u.ID, "200", 2000)

	// Nothing left to do on a second pass.
	report, err = h.reconciler.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if report.DonationsScanned != 0 || report.DonationsSettled != 0 {
		t.Errorf("second pass = %+v", report)
	}
	h.assertTotals(t, u.ID, "200", 2000)
}

func TestReconcileCreatesMissingLedgerEntry(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	u := h.newUser(t)

	sub, err := h.review.Submit(ctx, transfer("80", "waqf", &u.ID))
	if err != nil {
		t.Fatal(err)
	}
	// Approved, then the process died before the ledger entry was written.
	if _, err := h.store.Submissions.Resolve(ctx, sub.ID, models.Review{
		Decision:   models.SubmissionApproved,
		ReviewerID: primitive.NewObjectID(),
		At:         time.Now().Add(-time.Hour),
	}); err != nil {
		t.Fatal(err)
	}

	report, err := h.reconciler.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if report.SubmissionsRepaired != 1 || report.DonationsSettled != 1 {
		t.Fatalf("report = %+v", report)
	}
	d, err := h.store.Donations.GetBySubmission(ctx, sub.ID)
	if err != nil {
		t.Fatal(err)
	}
	h.assertDocuments(t, d)
	h.assertTotals(t, u.ID, "80", 800)

	report, err = h.reconciler.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if report.SubmissionsRepaired != 0 {
		t.Errorf("second pass repaired %d", report.SubmissionsRepaired)
	}
}

func TestReconcileSkipsRecentConfirmations(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	now := time.Now()

	d := &models.Donation{
		ID:            primitive.NewObjectID(),
		DonorName:     "guest",
		Amount:        mustMoney(t, "5"),
		Type:          "general",
		PaymentMethod: models.PaymentOnline,
		Status:        models.DonationConfirmed,
		GeideaRef:     "GD-RECENT",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := h.store.Donations.Insert(ctx, d); err != nil {
		t.Fatal(err)
	}

	report, err := h.reconciler.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if report.DonationsScanned != 0 {
		t.Errorf("in-flight confirmation was reconciled: %+v", report)
	}
}

func TestSettleIsIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	u := h.newUser(t)

	res, _ := h.ledger.CreateIntent(ctx, online("33.3", &u.ID))
	resolved, err := h.ledger.ResolveByReference(ctx, res.Donation.GeideaRef, services.OutcomeSuccess, onlineOnly)
	if err != nil {
		t.Fatal(err)
	}
	first := resolved.Settlement

	for i := 0; i < 3; i++ {
		again, err := h.settler.Settle(ctx, resolved.Donation)
		if err != nil {
			t.Fatal(err)
		}
		if again.Accrued {
			t.Error("re-settle accrued again")
		}
		if again.Certificate.ID != first.Certificate.ID || again.Invoice.ID != first.Invoice.ID {
			t.Error("re-settle issued new documents")
		}
	}
	h.assertTotals(t, u.ID, "33.3", 333)

	pending := *res.Donation
	if _, err := h.settler.Settle(ctx, &pending); err == nil {
		t.Error("settling a pending donation should fail")
	}
}

func mustMoney(t *testing.T, s string) models.Money {
	t.Helper()
	m, err := models.ParseMoney(s)
	if err != nil {
		t.Fatal(err)
	}
	return m
}
