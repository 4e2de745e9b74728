package services_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/markjakearzadon/donation-gobackend/internal/models"
	"github.com/markjakearzadon/donation-gobackend/internal/services"
)

func transfer(amount, typ string, userID *primitive.ObjectID) services.SubmissionInput {
	return services.SubmissionInput{
		Amount:       amount,
		Type:         typ,
		BankName:     "Al Rajhi",
		TransferDate: "2025-03-01",
		ReceiptImage: "/uploads/receipts/2025/03/r.jpg",
		DonorPhone:   "+966500000001",
		UserID:       userID,
	}
}

func TestSubmitValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	missingBank := transfer("10", "", nil)
	missingBank.BankName = " "
	missingReceipt := transfer("10", "", nil)
	missingReceipt.ReceiptImage = ""
	badDate := transfer("10", "", nil)
	badDate.TransferDate = "01/03/2025"

	tests := []struct {
		name  string
		in    services.SubmissionInput
		code  string
		field string
	}{
		{"amount", transfer("0", "zakat", nil), services.CodeInvalidAmount, "amount"},
		{"amount scale", transfer("99.999", "zakat", nil), services.CodeInvalidAmount, "amount"},
		{"amount limit", transfer("9.3e17", "zakat", nil), services.CodeInvalidAmount, "amount"},
		{"bank", missingBank, services.CodeMissingField, "bank_name"},
		{"receipt", missingReceipt, services.CodeMissingField, "receipt"},
		{"date", badDate, services.CodeInvalidDate, "transfer_date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.review.Submit(ctx, tt.in)
			var verr *services.ValidationError
			if !errors.As(err, &verr) || verr.Code != tt.code || verr.Field != tt.field {
				t.Fatalf("err = %v, want %s on %s", err, tt.code, tt.field)
			}
		})
	}
}

// Scenarios C and D.
func TestApproveCreatesLedgerEntryOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	u := h.newUser(t)
	reviewer := h.newUser(t)

	sub, err := h.review.Submit(ctx, transfer("500", "zakat", &u.ID))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if sub.Status != models.SubmissionPending {
		t.Fatalf("status = %s", sub.Status)
	}
	h.notes.wait(t)

	result, err := h.review.Review(ctx, sub.ID, models.SubmissionApproved, "matches statement", reviewer.ID)
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	d := result.Donation
	if d == nil || d.Status != models.DonationConfirmed || d.Type != "zakat" || d.Amount.String() != "500" {
		t.Fatalf("ledger entry = %+v", d)
	}
	if d.PaymentMethod != models.PaymentBankTransfer || !strings.HasPrefix(d.GeideaRef, "BT-") {
		t.Errorf("ledger entry method/ref = %s/%s", d.PaymentMethod, d.GeideaRef)
	}
	if d.SubmissionID == nil || *d.SubmissionID != sub.ID {
		t.Errorf("ledger entry not linked to submission")
	}
	if result.Certificate == nil || result.Invoice == nil {
		t.Fatal("approval did not issue documents")
	}
	if result.Submission.ReviewedBy == nil || *result.Submission.ReviewedBy != reviewer.ID || result.Submission.ReviewedAt == nil {
		t.Errorf("reviewer not recorded: %+v", result.Submission)
	}
	h.assertTotals(t, u.ID, "500", 5000)
	h.assertDocuments(t, d)

	_, err = h.review.Review(ctx, sub.ID, models.SubmissionApproved, "again", reviewer.ID)
	if !errors.Is(err, services.ErrAlreadyProcessed) {
		t.Fatalf("second approval err = %v, want ErrAlreadyProcessed", err)
	}
	_, err = h.review.Review(ctx, sub.ID, models.SubmissionRejected, "changed my mind", reviewer.ID)
	if !errors.Is(err, services.ErrAlreadyProcessed) {
		t.Fatalf("reject after approve err = %v, want ErrAlreadyProcessed", err)
	}

	h.assertTotals(t, u.ID, "500", 5000)
	h.assertDocuments(t, d)
	all, _ := h.ledger.List(ctx, models.DonationFilter{})
	if len(all) != 1 {
		t.Errorf("ledger has %d entries, want 1", len(all))
	}
}

// Scenario E.
func TestRejectLeavesLedgerUntouched(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	u := h.newUser(t)
	reviewer := h.newUser(t)

	sub, err := h.review.Submit(ctx, transfer("300", "water", &u.ID))
	if err != nil {
		t.Fatal(err)
	}
	result, err := h.review.Review(ctx, sub.ID, models.SubmissionRejected, " receipt unreadable ", reviewer.ID)
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if result.Submission.Status != models.SubmissionRejected || result.Submission.Notes != "receipt unreadable" {
		t.Errorf("submission = %+v", result.Submission)
	}
	if result.Donation != nil || result.Certificate != nil || result.Invoice != nil {
		t.Errorf("rejection produced ledger output: %+v", result)
	}
	if _, err := h.store.Donations.GetBySubmission(ctx, sub.ID); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("rejected submission has a donation: %v", err)
	}
	certs, _ := h.store.Documents.CertificatesByUser(ctx, u.ID)
	if len(certs) != 0 {
		t.Errorf("rejected submission issued %d certificates", len(certs))
	}
	h.assertTotals(t, u.ID, "0", 0)

	if _, err := h.review.Review(ctx, sub.ID, models.SubmissionApproved, "", reviewer.ID); !errors.Is(err, services.ErrAlreadyProcessed) {
		t.Errorf("approve after reject err = %v", err)
	}
}

func TestConcurrentReviewsSucceedOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	u := h.newUser(t)
	reviewer := h.newUser(t)

	sub, err := h.review.Submit(ctx, transfer("120", "food", &u.ID))
	if err != nil {
		t.Fatal(err)
	}

	const reviewers = 12
	var wg sync.WaitGroup
	var mu sync.Mutex
	var ok, conflicts int
	for i := 0; i < reviewers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.review.Review(ctx, sub.ID, models.SubmissionApproved, "", reviewer.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, services.ErrAlreadyProcessed):
				conflicts++
			default:
				t.Errorf("review: %v", err)
			}
		}()
	}
	wg.Wait()

	if ok != 1 || conflicts != reviewers-1 {
		t.Errorf("ok=%d conflicts=%d", ok, conflicts)
	}
	h.assertTotals(t, u.ID, "120", 1200)
	d, err := h.store.Donations.GetBySubmission(ctx, sub.ID)
	if err != nil {
		t.Fatal(err)
	}
	h.assertDocuments(t, d)
}

func TestReviewErrors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	reviewer := h.newUser(t)

	if _, err := h.review.Review(ctx, primitive.NewObjectID(), models.SubmissionApproved, "", reviewer.ID); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("unknown submission err = %v", err)
	}
	sub, err := h.review.Submit(ctx, transfer("10", "", nil))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := h.review.Review(ctx, sub.ID, models.SubmissionPending, "", reviewer.ID); !services.IsValidation(err) {
		t.Errorf("pending decision err = %v", err)
	}
}

func TestGuestTransferApproval(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	bystander := h.newUser(t)
	reviewer := h.newUser(t)

	in := transfer("60", "iftar", nil)
	in.DonorName = "Omar"
	sub, err := h.review.Submit(ctx, in)
	if err != nil {
		t.Fatal(err)
	}
	result, err := h.review.Review(ctx, sub.ID, models.SubmissionApproved, "", reviewer.ID)
	if err != nil {
		t.Fatal(err)
	}
	if result.Donation.UserID != nil || result.Donation.DonorName != "Omar" {
		t.Errorf("guest ledger entry = %+v", result.Donation)
	}
	if result.Certificate == nil || result.Invoice == nil {
		t.Error("guest approval should still issue documents")
	}
	h.assertTotals(t, bystander.ID, "0", 0)
}

func TestListSubmissions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	reviewer := h.newUser(t)

	a, _ := h.review.Submit(ctx, transfer("10", "", nil))
	b, _ := h.review.Submit(ctx, transfer("20", "", nil))
	if _, err := h.review.Review(ctx, a.ID, models.SubmissionRejected, "", reviewer.ID); err != nil {
		t.Fatal(err)
	}

	pending, err := h.review.List(ctx, models.SubmissionPending)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].ID != b.ID {
		t.Errorf("pending = %d", len(pending))
	}
	all, err := h.review.List(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("all = %d", len(all))
	}
	if _, err := h.review.List(ctx, "archived"); !services.IsValidation(err) {
		t.Errorf("bad status err = %v", err)
	}
	got, err := h.review.Get(ctx, b.ID)
	if err != nil || got.ID != b.ID {
		t.Errorf("Get = %v, %v", got, err)
	}
}
